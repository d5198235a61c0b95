package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/openings-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: time.Now}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	name               TEXT NOT NULL,
	normalized_name    TEXT NOT NULL,
	address            TEXT NOT NULL,
	normalized_address TEXT NOT NULL,
	city               TEXT NOT NULL DEFAULT '',
	state              TEXT NOT NULL DEFAULT '',
	zip                TEXT NOT NULL DEFAULT '',
	latitude           REAL,
	longitude          REAL,
	phone              TEXT NOT NULL DEFAULT '',
	website            TEXT NOT NULL DEFAULT '',
	place_id           TEXT NOT NULL DEFAULT '',
	naics_code         TEXT NOT NULL DEFAULT '',
	venue_type         TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'unknown',
	first_seen_date    TEXT NOT NULL DEFAULT '',
	last_seen_date     TEXT NOT NULL DEFAULT '',
	priority_score     INTEGER NOT NULL DEFAULT 50,
	notes              TEXT NOT NULL DEFAULT '',
	lead_status        TEXT NOT NULL DEFAULT 'new',
	next_follow_up     TEXT NOT NULL DEFAULT '',
	competitor         TEXT NOT NULL DEFAULT '',
	lost_reason        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_venues_name_addr ON venues (normalized_name, normalized_address, city);
CREATE INDEX IF NOT EXISTS idx_venues_city_type ON venues (city, venue_type);
CREATE INDEX IF NOT EXISTS idx_venues_lead_status ON venues (lead_status);
CREATE INDEX IF NOT EXISTS idx_venues_follow_up ON venues (next_follow_up);

CREATE TABLE IF NOT EXISTS source_events (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	venue_id         INTEGER REFERENCES venues(id),
	source_system    TEXT NOT NULL,
	source_record_id TEXT NOT NULL DEFAULT '',
	event_type       TEXT NOT NULL DEFAULT '',
	event_date       TEXT NOT NULL DEFAULT '',
	raw_name         TEXT NOT NULL DEFAULT '',
	raw_address      TEXT NOT NULL DEFAULT '',
	city             TEXT NOT NULL DEFAULT '',
	url              TEXT NOT NULL DEFAULT '',
	payload          TEXT NOT NULL DEFAULT '{}',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_source_events_date ON source_events (event_date);
CREATE INDEX IF NOT EXISTS idx_source_events_source ON source_events (source_system, event_type);
CREATE INDEX IF NOT EXISTS idx_source_events_venue ON source_events (venue_id);

CREATE TABLE IF NOT EXISTS lead_activities (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	venue_id         INTEGER NOT NULL REFERENCES venues(id),
	activity_type    TEXT NOT NULL,
	activity_date    TEXT NOT NULL DEFAULT (date('now')),
	notes            TEXT NOT NULL DEFAULT '',
	outcome          TEXT NOT NULL DEFAULT '',
	next_action_date TEXT NOT NULL DEFAULT '',
	created_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_lead_activities_venue ON lead_activities (venue_id);
CREATE INDEX IF NOT EXISTS idx_lead_activities_date ON lead_activities (activity_date);

CREATE TABLE IF NOT EXISTS etl_runs (
	id            TEXT PRIMARY KEY,
	started_at    DATETIME NOT NULL,
	finished_at   DATETIME NOT NULL,
	lookback_days INTEGER NOT NULL,
	row_counts    TEXT NOT NULL DEFAULT '{}',
	notes         TEXT NOT NULL DEFAULT ''
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Source events ---

func (s *SQLiteStore) InsertSourceEvents(ctx context.Context, events []model.SourceEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert events")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO source_events
		(source_system, source_record_id, event_type, event_date, raw_name, raw_address, city, url, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert events")
	}
	defer stmt.Close() //nolint:errcheck

	now := s.now().UTC()
	for _, ev := range events {
		payload, err := marshalPayload(ev.Payload)
		if err != nil {
			return 0, err
		}
		if _, err := stmt.ExecContext(ctx,
			ev.SourceSystem, ev.SourceRecordID, ev.EventType, ev.EventDate,
			ev.RawName, ev.RawAddress, ev.City, ev.URL, payload, now,
		); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert event from %s", ev.SourceSystem)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert events")
	}
	return len(events), nil
}

// UnlinkedSourceEvents returns pending events oldest-first so the
// earliest observation of a venue creates it and fixes first_seen_date.
func (s *SQLiteStore) UnlinkedSourceEvents(ctx context.Context) ([]model.SourceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, venue_id, source_system, source_record_id, event_type, event_date,
		       raw_name, raw_address, city, url, payload, created_at
		FROM source_events
		WHERE venue_id IS NULL
		ORDER BY event_date ASC, id ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query unlinked events")
	}
	defer rows.Close() //nolint:errcheck

	var events []model.SourceEvent
	for rows.Next() {
		ev, err := scanSourceEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, eris.Wrap(rows.Err(), "sqlite: iterate unlinked events")
}

// LinkSourceEvent sets the venue link exactly once; an already-linked
// event is reported as not found rather than relinked.
func (s *SQLiteStore) LinkSourceEvent(ctx context.Context, eventID, venueID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE source_events SET venue_id = ? WHERE id = ? AND venue_id IS NULL`,
		venueID, eventID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: link event %d", eventID)
	}
	return checkRowsAffected(res, "unlinked event", eventID)
}

// --- Venues ---

const venueColumns = `id, name, normalized_name, address, normalized_address, city, state, zip,
	latitude, longitude, phone, website, place_id, naics_code, venue_type, status,
	first_seen_date, last_seen_date, priority_score, notes, lead_status, next_follow_up,
	competitor, lost_reason`

// UpsertVenue looks up the venue by the exact identity triple and either
// inserts the draft or merges it into the existing row. The read and
// write happen in one transaction so a single upsert is atomic with
// respect to concurrent writers.
func (s *SQLiteStore) UpsertVenue(ctx context.Context, draft model.VenueDraft) (int64, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	row := tx.QueryRowContext(ctx,
		`SELECT `+venueColumns+` FROM venues
		 WHERE normalized_name = ? AND normalized_address = ? AND city = ?`,
		draft.NormalizedName, draft.NormalizedAddress, draft.City,
	)

	existing, err := scanVenue(row)
	switch {
	case err == errVenueNotFound:
		v := model.NewVenue(draft)
		res, err := tx.ExecContext(ctx, `
			INSERT INTO venues
			(name, normalized_name, address, normalized_address, city, state, zip,
			 phone, website, place_id, naics_code, venue_type, status,
			 first_seen_date, last_seen_date, priority_score, lead_status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			v.Name, v.NormalizedName, v.Address, v.NormalizedAddress, v.City, v.State, v.Zip,
			v.Phone, v.Website, v.PlaceID, v.NAICSCode, string(v.VenueType), string(v.Status),
			v.FirstSeen, v.LastSeen, v.PriorityScore, string(v.LeadStatus),
		)
		if err != nil {
			return 0, false, eris.Wrapf(err, "sqlite: insert venue %q", draft.Name)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, eris.Wrap(err, "sqlite: venue insert id")
		}
		if err := tx.Commit(); err != nil {
			return 0, false, eris.Wrap(err, "sqlite: commit venue insert")
		}
		return id, true, nil

	case err != nil:
		return 0, false, err
	}

	merged := model.MergeVenue(*existing, draft)
	if _, err := tx.ExecContext(ctx, `
		UPDATE venues
		SET last_seen_date = ?, venue_type = ?, status = ?, priority_score = ?,
		    phone = ?, website = ?, place_id = ?, naics_code = ?
		WHERE id = ?`,
		merged.LastSeen, string(merged.VenueType), string(merged.Status), merged.PriorityScore,
		merged.Phone, merged.Website, merged.PlaceID, merged.NAICSCode,
		existing.ID,
	); err != nil {
		return 0, false, eris.Wrapf(err, "sqlite: update venue %d", existing.ID)
	}

	if err := tx.Commit(); err != nil {
		return 0, false, eris.Wrap(err, "sqlite: commit venue update")
	}
	return existing.ID, false, nil
}

func (s *SQLiteStore) GetVenue(ctx context.Context, id int64) (*model.Venue, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE id = ?`, id)
	v, err := scanVenue(row)
	if err == errVenueNotFound {
		return nil, eris.Errorf("sqlite: venue not found: %d", id)
	}
	return v, err
}

func (s *SQLiteStore) ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE 1=1`
	var args []any

	if filter.VenueType != "" {
		query += ` AND venue_type = ?`
		args = append(args, string(filter.VenueType))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.City != "" {
		query += ` AND LOWER(city) = LOWER(?)`
		args = append(args, filter.City)
	}
	if filter.LeadStatus != "" {
		query += ` AND lead_status = ?`
		args = append(args, string(filter.LeadStatus))
	}
	if filter.FirstSeenFrom != "" {
		query += ` AND first_seen_date >= ?`
		args = append(args, filter.FirstSeenFrom)
	}
	if filter.FirstSeenTo != "" {
		query += ` AND first_seen_date <= ?`
		args = append(args, filter.FirstSeenTo)
	}
	query += ` ORDER BY priority_score DESC, first_seen_date DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	return s.queryVenues(ctx, query, args...)
}

func (s *SQLiteStore) HotLeads(ctx context.Context, sinceDays int) ([]model.Venue, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -sinceDays).Format(dateLayout)
	return s.queryVenues(ctx, `
		SELECT `+venueColumns+` FROM venues
		WHERE lead_status = ? AND first_seen_date >= ?
		ORDER BY priority_score DESC, first_seen_date DESC`,
		string(model.LeadNew), cutoff)
}

func (s *SQLiteStore) VenuesNeedingFollowUp(ctx context.Context) ([]model.Venue, error) {
	today := s.now().UTC().Format(dateLayout)
	return s.queryVenues(ctx, `
		SELECT `+venueColumns+` FROM venues
		WHERE next_follow_up != '' AND next_follow_up <= ?
		  AND lead_status NOT IN (?, ?, ?)
		ORDER BY next_follow_up ASC`,
		today, string(model.LeadWon), string(model.LeadLost), string(model.LeadNotInterested))
}

func (s *SQLiteStore) VenuesForEnrichment(ctx context.Context, minScore, limit int) ([]model.Venue, error) {
	query := `
		SELECT ` + venueColumns + ` FROM venues
		WHERE phone = '' AND lead_status NOT IN (?, ?)`
	args := []any{string(model.LeadLost), string(model.LeadNotInterested)}

	if minScore > 0 {
		query += ` AND priority_score >= ?`
		args = append(args, minScore)
	}
	query += ` ORDER BY priority_score DESC, first_seen_date DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	return s.queryVenues(ctx, query, args...)
}

// ApplyEnrichment writes contact fields under the fill-if-empty rule:
// a stored non-empty value is never overwritten.
func (s *SQLiteStore) ApplyEnrichment(ctx context.Context, venueID int64, e Enrichment) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE venues
		SET phone    = CASE WHEN phone = ''    THEN ? ELSE phone END,
		    website  = CASE WHEN website = ''  THEN ? ELSE website END,
		    place_id = CASE WHEN place_id = '' THEN ? ELSE place_id END
		WHERE id = ?`,
		e.Phone, e.Website, e.PlaceID, venueID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: enrich venue %d", venueID)
	}
	return checkRowsAffected(res, "venue", venueID)
}

func (s *SQLiteStore) SetCoordinates(ctx context.Context, venueID int64, lat, lng float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE venues
		SET latitude  = COALESCE(latitude, ?),
		    longitude = COALESCE(longitude, ?)
		WHERE id = ?`,
		lat, lng, venueID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set coordinates for venue %d", venueID)
	}
	return checkRowsAffected(res, "venue", venueID)
}

func (s *SQLiteStore) UpdateNotes(ctx context.Context, venueID int64, notes string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE venues SET notes = ? WHERE id = ?`, notes, venueID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update notes for venue %d", venueID)
	}
	return checkRowsAffected(res, "venue", venueID)
}

func (s *SQLiteStore) UpdateFollowUp(ctx context.Context, venueID int64, date string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE venues SET next_follow_up = ? WHERE id = ?`, date, venueID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update follow-up for venue %d", venueID)
	}
	return checkRowsAffected(res, "venue", venueID)
}

// PurgeVenues removes venues and cascades to their source events and
// lead activities. Used by the disqualified-record cleanup.
func (s *SQLiteStore) PurgeVenues(ctx context.Context, ids []int64) (PurgeResult, error) {
	var result PurgeResult
	if len(ids) == 0 {
		return result, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return result, eris.Wrap(err, "sqlite: begin purge")
	}
	defer tx.Rollback() //nolint:errcheck

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	for _, step := range []struct {
		query string
		count *int64
	}{
		{`DELETE FROM source_events WHERE venue_id IN (` + placeholders + `)`, &result.Events},
		{`DELETE FROM lead_activities WHERE venue_id IN (` + placeholders + `)`, &result.Activities},
		{`DELETE FROM venues WHERE id IN (` + placeholders + `)`, &result.Venues},
	} {
		res, err := tx.ExecContext(ctx, step.query, args...)
		if err != nil {
			return result, eris.Wrap(err, "sqlite: purge venues")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return result, eris.Wrap(err, "sqlite: purge rows affected")
		}
		*step.count = n
	}

	if err := tx.Commit(); err != nil {
		return result, eris.Wrap(err, "sqlite: commit purge")
	}
	return result, nil
}

func (s *SQLiteStore) DistinctCities(ctx context.Context) ([]CityCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city, COUNT(*) FROM venues
		WHERE city != ''
		GROUP BY city
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: distinct cities")
	}
	defer rows.Close() //nolint:errcheck

	var cities []CityCount
	for rows.Next() {
		var c CityCount
		if err := rows.Scan(&c.City, &c.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city count")
		}
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "sqlite: iterate cities")
}

func (s *SQLiteStore) RetitleCity(ctx context.Context, from, to string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE venues SET city = ? WHERE city = ?`, to, from)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: retitle city %q", from)
	}
	n, err := res.RowsAffected()
	return n, eris.Wrap(err, "sqlite: retitle rows affected")
}

// --- Scoring ---

func (s *SQLiteStore) VenueScoreSignals(ctx context.Context) ([]model.VenueSignals, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT v.id, v.venue_type, v.status, v.first_seen_date, v.phone, v.website,
		       (SELECT COUNT(DISTINCT se.source_system) FROM source_events se WHERE se.venue_id = v.id)
		FROM venues v`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query score signals")
	}
	defer rows.Close() //nolint:errcheck

	var signals []model.VenueSignals
	for rows.Next() {
		var (
			sig            model.VenueSignals
			vtype, status  string
			phone, website string
		)
		if err := rows.Scan(&sig.VenueID, &vtype, &status, &sig.FirstSeen, &phone, &website, &sig.SourceCount); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan score signals")
		}
		sig.VenueType = model.VenueType(vtype)
		sig.Status = model.VenueStatus(status)
		sig.HasPhone = phone != ""
		sig.HasWebsite = website != ""
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "sqlite: iterate score signals")
}

func (s *SQLiteStore) UpdatePriorityScore(ctx context.Context, venueID int64, score int) error {
	res, err := s.db.ExecContext(ctx, `UPDATE venues SET priority_score = ? WHERE id = ?`, score, venueID)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update score for venue %d", venueID)
	}
	return checkRowsAffected(res, "venue", venueID)
}

// --- Lead tracking ---

func (s *SQLiteStore) UpdateLeadStatus(ctx context.Context, venueID int64, update LeadUpdate) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE venues
		SET lead_status    = ?,
		    next_follow_up = CASE WHEN ? != '' THEN ? ELSE next_follow_up END,
		    competitor     = CASE WHEN ? != '' THEN ? ELSE competitor END,
		    lost_reason    = CASE WHEN ? != '' THEN ? ELSE lost_reason END
		WHERE id = ?`,
		string(update.Status),
		update.NextFollowUp, update.NextFollowUp,
		update.Competitor, update.Competitor,
		update.LostReason, update.LostReason,
		venueID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead status for venue %d", venueID)
	}
	return checkRowsAffected(res, "venue", venueID)
}

func (s *SQLiteStore) AddLeadActivity(ctx context.Context, activity model.LeadActivity) (int64, error) {
	date := activity.ActivityDate
	if date == "" {
		date = s.now().UTC().Format(dateLayout)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO lead_activities (venue_id, activity_type, activity_date, notes, outcome, next_action_date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		activity.VenueID, activity.ActivityType, date, activity.Notes,
		activity.Outcome, activity.NextActionDate, s.now().UTC(),
	)
	if err != nil {
		return 0, eris.Wrapf(err, "sqlite: add activity for venue %d", activity.VenueID)
	}
	id, err := res.LastInsertId()
	return id, eris.Wrap(err, "sqlite: activity insert id")
}

func (s *SQLiteStore) ListLeadActivities(ctx context.Context, venueID int64) ([]model.LeadActivity, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, venue_id, activity_type, activity_date, notes, outcome, next_action_date, created_at
		FROM lead_activities
		WHERE venue_id = ?
		ORDER BY activity_date DESC, created_at DESC`,
		venueID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list activities for venue %d", venueID)
	}
	defer rows.Close() //nolint:errcheck

	var activities []model.LeadActivity
	for rows.Next() {
		var a model.LeadActivity
		if err := rows.Scan(&a.ID, &a.VenueID, &a.ActivityType, &a.ActivityDate,
			&a.Notes, &a.Outcome, &a.NextActionDate, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		activities = append(activities, a)
	}
	return activities, eris.Wrap(rows.Err(), "sqlite: iterate activities")
}

func (s *SQLiteStore) LeadCountsByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT CASE WHEN lead_status = '' THEN 'new' ELSE lead_status END, COUNT(*)
		FROM venues
		GROUP BY lead_status`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: lead counts")
	}
	defer rows.Close() //nolint:errcheck

	counts := map[model.LeadStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead count")
		}
		counts[model.LeadStatus(status)] += count
	}
	return counts, eris.Wrap(rows.Err(), "sqlite: iterate lead counts")
}

func (s *SQLiteStore) SourceEffectiveness(ctx context.Context) ([]SourceStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT se.source_system,
		       COUNT(DISTINCT v.id),
		       SUM(CASE WHEN v.lead_status = 'won' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN v.lead_status = 'contacted' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN v.lead_status = 'demo_scheduled' THEN 1 ELSE 0 END)
		FROM source_events se
		JOIN venues v ON se.venue_id = v.id
		GROUP BY se.source_system
		ORDER BY 3 DESC, 2 DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: source effectiveness")
	}
	defer rows.Close() //nolint:errcheck

	var stats []SourceStats
	for rows.Next() {
		var st SourceStats
		if err := rows.Scan(&st.SourceSystem, &st.TotalLeads, &st.Won, &st.Contacted, &st.Demos); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source stats")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: iterate source stats")
}

func (s *SQLiteStore) CityPerformance(ctx context.Context) ([]CityStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT city,
		       COUNT(*),
		       SUM(CASE WHEN lead_status = 'won' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN lead_status = 'contacted' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN lead_status = 'demo_scheduled' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN lead_status IN ('lost', 'not_interested') THEN 1 ELSE 0 END)
		FROM venues
		WHERE city != ''
		GROUP BY city
		ORDER BY 3 DESC, 2 DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: city performance")
	}
	defer rows.Close() //nolint:errcheck

	var stats []CityStats
	for rows.Next() {
		var st CityStats
		if err := rows.Scan(&st.City, &st.TotalLeads, &st.Won, &st.Contacted, &st.Demos, &st.Lost); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan city stats")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "sqlite: iterate city stats")
}

// --- ETL runs ---

func (s *SQLiteStore) InsertETLRun(ctx context.Context, run model.ETLRun) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.New().String()
	}
	counts, err := json.Marshal(run.RowCounts)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal row counts")
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO etl_runs (id, started_at, finished_at, lookback_days, row_counts, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.LookbackDays, string(counts), run.Notes,
	); err != nil {
		return "", eris.Wrap(err, "sqlite: insert etl run")
	}
	return id, nil
}

func (s *SQLiteStore) ListETLRuns(ctx context.Context, limit int) ([]model.ETLRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, lookback_days, row_counts, notes
		FROM etl_runs
		ORDER BY started_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list etl runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.ETLRun
	for rows.Next() {
		var (
			run    model.ETLRun
			counts string
		)
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.LookbackDays, &counts, &run.Notes); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan etl run")
		}
		if err := json.Unmarshal([]byte(counts), &run.RowCounts); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal row counts")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate etl runs")
}

// --- helpers ---

const dateLayout = "2006-01-02"

var errVenueNotFound = eris.New("venue not found")

func (s *SQLiteStore) queryVenues(ctx context.Context, query string, args ...any) ([]model.Venue, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query venues")
	}
	defer rows.Close() //nolint:errcheck

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, eris.Wrap(rows.Err(), "sqlite: iterate venues")
}

func checkRowsAffected(res sql.Result, entity string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %d", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanVenue(row scannable) (*model.Venue, error) {
	var (
		v             model.Venue
		lat, lng      sql.NullFloat64
		vtype, status string
		leadStatus    string
	)
	err := row.Scan(
		&v.ID, &v.Name, &v.NormalizedName, &v.Address, &v.NormalizedAddress,
		&v.City, &v.State, &v.Zip, &lat, &lng, &v.Phone, &v.Website,
		&v.PlaceID, &v.NAICSCode, &vtype, &status, &v.FirstSeen, &v.LastSeen,
		&v.PriorityScore, &v.Notes, &leadStatus, &v.NextFollowUp,
		&v.Competitor, &v.LostReason,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errVenueNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan venue")
	}
	if lat.Valid {
		v.Latitude = &lat.Float64
	}
	if lng.Valid {
		v.Longitude = &lng.Float64
	}
	v.VenueType = model.VenueType(vtype)
	v.Status = model.VenueStatus(status)
	v.LeadStatus = model.LeadStatus(leadStatus)
	return &v, nil
}

func scanSourceEvent(row scannable) (*model.SourceEvent, error) {
	var (
		ev      model.SourceEvent
		venueID sql.NullInt64
		payload string
	)
	err := row.Scan(
		&ev.ID, &venueID, &ev.SourceSystem, &ev.SourceRecordID, &ev.EventType,
		&ev.EventDate, &ev.RawName, &ev.RawAddress, &ev.City, &ev.URL,
		&payload, &ev.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.New("source event not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan source event")
	}
	if venueID.Valid {
		ev.VenueID = &venueID.Int64
	}
	// A payload that fails to parse is treated as empty; classification
	// lookups are best-effort by contract.
	if payload != "" {
		_ = json.Unmarshal([]byte(payload), &ev.Payload)
	}
	return &ev, nil
}

func marshalPayload(payload map[string]any) (string, error) {
	if payload == nil {
		return "{}", nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", eris.Wrap(err, "marshal event payload")
	}
	return string(data), nil
}
