package store

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/openings-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
	now  func() time.Time
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, now: time.Now}, nil
}

// NewPostgresFromPool wraps an existing pool. Tests pass a pgxmock pool.
func NewPostgresFromPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool, now: time.Now}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS venues (
	id                 BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	name               TEXT NOT NULL,
	normalized_name    TEXT NOT NULL,
	address            TEXT NOT NULL,
	normalized_address TEXT NOT NULL,
	city               TEXT NOT NULL DEFAULT '',
	state              TEXT NOT NULL DEFAULT '',
	zip                TEXT NOT NULL DEFAULT '',
	latitude           DOUBLE PRECISION,
	longitude          DOUBLE PRECISION,
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
	id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	venue_id         BIGINT REFERENCES venues(id),
	source_system    TEXT NOT NULL,
	source_record_id TEXT NOT NULL DEFAULT '',
	event_type       TEXT NOT NULL DEFAULT '',
	event_date       TEXT NOT NULL DEFAULT '',
	raw_name         TEXT NOT NULL DEFAULT '',
	raw_address      TEXT NOT NULL DEFAULT '',
	city             TEXT NOT NULL DEFAULT '',
	url              TEXT NOT NULL DEFAULT '',
	payload          JSONB NOT NULL DEFAULT '{}',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_source_events_date ON source_events (event_date);
CREATE INDEX IF NOT EXISTS idx_source_events_source ON source_events (source_system, event_type);
CREATE INDEX IF NOT EXISTS idx_source_events_venue ON source_events (venue_id);

CREATE TABLE IF NOT EXISTS lead_activities (
	id               BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
	venue_id         BIGINT NOT NULL REFERENCES venues(id),
	activity_type    TEXT NOT NULL,
	activity_date    TEXT NOT NULL DEFAULT to_char(now(), 'YYYY-MM-DD'),
	notes            TEXT NOT NULL DEFAULT '',
	outcome          TEXT NOT NULL DEFAULT '',
	next_action_date TEXT NOT NULL DEFAULT '',
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_lead_activities_venue ON lead_activities (venue_id);
CREATE INDEX IF NOT EXISTS idx_lead_activities_date ON lead_activities (activity_date);

CREATE TABLE IF NOT EXISTS etl_runs (
	id            TEXT PRIMARY KEY,
	started_at    TIMESTAMPTZ NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL,
	lookback_days INTEGER NOT NULL,
	row_counts    JSONB NOT NULL DEFAULT '{}',
	notes         TEXT NOT NULL DEFAULT ''
);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Source events ---

func (s *PostgresStore) InsertSourceEvents(ctx context.Context, events []model.SourceEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: begin insert events")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := s.now().UTC()
	for _, ev := range events {
		payload, err := marshalPayload(ev.Payload)
		if err != nil {
			return 0, err
		}
		if _, err := tx.Exec(ctx, `
			INSERT INTO source_events
			(source_system, source_record_id, event_type, event_date, raw_name, raw_address, city, url, payload, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			ev.SourceSystem, ev.SourceRecordID, ev.EventType, ev.EventDate,
			ev.RawName, ev.RawAddress, ev.City, ev.URL, payload, now,
		); err != nil {
			return 0, eris.Wrapf(err, "postgres: insert event from %s", ev.SourceSystem)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "postgres: commit insert events")
	}
	return len(events), nil
}

func (s *PostgresStore) UnlinkedSourceEvents(ctx context.Context) ([]model.SourceEvent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, venue_id, source_system, source_record_id, event_type, event_date,
		       raw_name, raw_address, city, url, payload::text, created_at
		FROM source_events
		WHERE venue_id IS NULL
		ORDER BY event_date ASC, id ASC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query unlinked events")
	}
	defer rows.Close()

	var events []model.SourceEvent
	for rows.Next() {
		ev, err := scanSourceEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *ev)
	}
	return events, eris.Wrap(rows.Err(), "postgres: iterate unlinked events")
}

func (s *PostgresStore) LinkSourceEvent(ctx context.Context, eventID, venueID int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE source_events SET venue_id = $1 WHERE id = $2 AND venue_id IS NULL`,
		venueID, eventID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: link event %d", eventID)
	}
	return checkTagAffected(tag, "unlinked event", eventID)
}

// --- Venues ---

func (s *PostgresStore) UpsertVenue(ctx context.Context, draft model.VenueDraft) (int64, bool, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, false, eris.Wrap(err, "postgres: begin upsert")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	row := tx.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues
		 WHERE normalized_name = $1 AND normalized_address = $2 AND city = $3
		 FOR UPDATE`,
		draft.NormalizedName, draft.NormalizedAddress, draft.City,
	)

	existing, err := scanVenue(row)
	switch {
	case err == errVenueNotFound:
		v := model.NewVenue(draft)
		var id int64
		if err := tx.QueryRow(ctx, `
			INSERT INTO venues
			(name, normalized_name, address, normalized_address, city, state, zip,
			 phone, website, place_id, naics_code, venue_type, status,
			 first_seen_date, last_seen_date, priority_score, lead_status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			RETURNING id`,
			v.Name, v.NormalizedName, v.Address, v.NormalizedAddress, v.City, v.State, v.Zip,
			v.Phone, v.Website, v.PlaceID, v.NAICSCode, string(v.VenueType), string(v.Status),
			v.FirstSeen, v.LastSeen, v.PriorityScore, string(v.LeadStatus),
		).Scan(&id); err != nil {
			return 0, false, eris.Wrapf(err, "postgres: insert venue %q", draft.Name)
		}
		if err := tx.Commit(ctx); err != nil {
			return 0, false, eris.Wrap(err, "postgres: commit venue insert")
		}
		return id, true, nil

	case err != nil:
		return 0, false, err
	}

	merged := model.MergeVenue(*existing, draft)
	if _, err := tx.Exec(ctx, `
		UPDATE venues
		SET last_seen_date = $1, venue_type = $2, status = $3, priority_score = $4,
		    phone = $5, website = $6, place_id = $7, naics_code = $8
		WHERE id = $9`,
		merged.LastSeen, string(merged.VenueType), string(merged.Status), merged.PriorityScore,
		merged.Phone, merged.Website, merged.PlaceID, merged.NAICSCode,
		existing.ID,
	); err != nil {
		return 0, false, eris.Wrapf(err, "postgres: update venue %d", existing.ID)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, false, eris.Wrap(err, "postgres: commit venue update")
	}
	return existing.ID, false, nil
}

func (s *PostgresStore) GetVenue(ctx context.Context, id int64) (*model.Venue, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+venueColumns+` FROM venues WHERE id = $1`, id)
	v, err := scanVenue(row)
	if err == errVenueNotFound {
		return nil, eris.Errorf("postgres: venue not found: %d", id)
	}
	return v, err
}

func (s *PostgresStore) ListVenues(ctx context.Context, filter VenueFilter) ([]model.Venue, error) {
	query := `SELECT ` + venueColumns + ` FROM venues WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.VenueType != "" {
		query += ` AND venue_type = ` + arg(string(filter.VenueType))
	}
	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.City != "" {
		query += ` AND LOWER(city) = LOWER(` + arg(filter.City) + `)`
	}
	if filter.LeadStatus != "" {
		query += ` AND lead_status = ` + arg(string(filter.LeadStatus))
	}
	if filter.FirstSeenFrom != "" {
		query += ` AND first_seen_date >= ` + arg(filter.FirstSeenFrom)
	}
	if filter.FirstSeenTo != "" {
		query += ` AND first_seen_date <= ` + arg(filter.FirstSeenTo)
	}
	query += ` ORDER BY priority_score DESC, first_seen_date DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	return s.queryVenues(ctx, query, args...)
}

func (s *PostgresStore) HotLeads(ctx context.Context, sinceDays int) ([]model.Venue, error) {
	cutoff := s.now().UTC().AddDate(0, 0, -sinceDays).Format(dateLayout)
	return s.queryVenues(ctx, `
		SELECT `+venueColumns+` FROM venues
		WHERE lead_status = $1 AND first_seen_date >= $2
		ORDER BY priority_score DESC, first_seen_date DESC`,
		string(model.LeadNew), cutoff)
}

func (s *PostgresStore) VenuesNeedingFollowUp(ctx context.Context) ([]model.Venue, error) {
	today := s.now().UTC().Format(dateLayout)
	return s.queryVenues(ctx, `
		SELECT `+venueColumns+` FROM venues
		WHERE next_follow_up != '' AND next_follow_up <= $1
		  AND lead_status NOT IN ($2, $3, $4)
		ORDER BY next_follow_up ASC`,
		today, string(model.LeadWon), string(model.LeadLost), string(model.LeadNotInterested))
}

func (s *PostgresStore) VenuesForEnrichment(ctx context.Context, minScore, limit int) ([]model.Venue, error) {
	query := `
		SELECT ` + venueColumns + ` FROM venues
		WHERE phone = '' AND lead_status NOT IN ($1, $2)`
	args := []any{string(model.LeadLost), string(model.LeadNotInterested)}

	if minScore > 0 {
		args = append(args, minScore)
		query += ` AND priority_score >= $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY priority_score DESC, first_seen_date DESC`
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}
	return s.queryVenues(ctx, query, args...)
}

func (s *PostgresStore) ApplyEnrichment(ctx context.Context, venueID int64, e Enrichment) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE venues
		SET phone    = CASE WHEN phone = ''    THEN $1 ELSE phone END,
		    website  = CASE WHEN website = ''  THEN $2 ELSE website END,
		    place_id = CASE WHEN place_id = '' THEN $3 ELSE place_id END
		WHERE id = $4`,
		e.Phone, e.Website, e.PlaceID, venueID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: enrich venue %d", venueID)
	}
	return checkTagAffected(tag, "venue", venueID)
}

func (s *PostgresStore) SetCoordinates(ctx context.Context, venueID int64, lat, lng float64) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE venues
		SET latitude  = COALESCE(latitude, $1),
		    longitude = COALESCE(longitude, $2)
		WHERE id = $3`,
		lat, lng, venueID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set coordinates for venue %d", venueID)
	}
	return checkTagAffected(tag, "venue", venueID)
}

func (s *PostgresStore) UpdateNotes(ctx context.Context, venueID int64, notes string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE venues SET notes = $1 WHERE id = $2`, notes, venueID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update notes for venue %d", venueID)
	}
	return checkTagAffected(tag, "venue", venueID)
}

func (s *PostgresStore) UpdateFollowUp(ctx context.Context, venueID int64, date string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE venues SET next_follow_up = $1 WHERE id = $2`, date, venueID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update follow-up for venue %d", venueID)
	}
	return checkTagAffected(tag, "venue", venueID)
}

func (s *PostgresStore) PurgeVenues(ctx context.Context, ids []int64) (PurgeResult, error) {
	var result PurgeResult
	if len(ids) == 0 {
		return result, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return result, eris.Wrap(err, "postgres: begin purge")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, step := range []struct {
		query string
		count *int64
	}{
		{`DELETE FROM source_events WHERE venue_id = ANY($1)`, &result.Events},
		{`DELETE FROM lead_activities WHERE venue_id = ANY($1)`, &result.Activities},
		{`DELETE FROM venues WHERE id = ANY($1)`, &result.Venues},
	} {
		tag, err := tx.Exec(ctx, step.query, ids)
		if err != nil {
			return result, eris.Wrap(err, "postgres: purge venues")
		}
		*step.count = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return result, eris.Wrap(err, "postgres: commit purge")
	}
	return result, nil
}

func (s *PostgresStore) DistinctCities(ctx context.Context) ([]CityCount, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT city, COUNT(*) FROM venues
		WHERE city != ''
		GROUP BY city
		ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: distinct cities")
	}
	defer rows.Close()

	var cities []CityCount
	for rows.Next() {
		var c CityCount
		if err := rows.Scan(&c.City, &c.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan city count")
		}
		cities = append(cities, c)
	}
	return cities, eris.Wrap(rows.Err(), "postgres: iterate cities")
}

func (s *PostgresStore) RetitleCity(ctx context.Context, from, to string) (int64, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE venues SET city = $1 WHERE city = $2`, to, from)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: retitle city %q", from)
	}
	return tag.RowsAffected(), nil
}

// --- Scoring ---

func (s *PostgresStore) VenueScoreSignals(ctx context.Context) ([]model.VenueSignals, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT v.id, v.venue_type, v.status, v.first_seen_date, v.phone, v.website,
		       (SELECT COUNT(DISTINCT se.source_system) FROM source_events se WHERE se.venue_id = v.id)
		FROM venues v`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query score signals")
	}
	defer rows.Close()

	var signals []model.VenueSignals
	for rows.Next() {
		var (
			sig            model.VenueSignals
			vtype, status  string
			phone, website string
		)
		if err := rows.Scan(&sig.VenueID, &vtype, &status, &sig.FirstSeen, &phone, &website, &sig.SourceCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan score signals")
		}
		sig.VenueType = model.VenueType(vtype)
		sig.Status = model.VenueStatus(status)
		sig.HasPhone = phone != ""
		sig.HasWebsite = website != ""
		signals = append(signals, sig)
	}
	return signals, eris.Wrap(rows.Err(), "postgres: iterate score signals")
}

func (s *PostgresStore) UpdatePriorityScore(ctx context.Context, venueID int64, score int) error {
	tag, err := s.pool.Exec(ctx, `UPDATE venues SET priority_score = $1 WHERE id = $2`, score, venueID)
	if err != nil {
		return eris.Wrapf(err, "postgres: update score for venue %d", venueID)
	}
	return checkTagAffected(tag, "venue", venueID)
}

// --- Lead tracking ---

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, venueID int64, update LeadUpdate) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE venues
		SET lead_status    = $1,
		    next_follow_up = CASE WHEN $2 != '' THEN $2 ELSE next_follow_up END,
		    competitor     = CASE WHEN $3 != '' THEN $3 ELSE competitor END,
		    lost_reason    = CASE WHEN $4 != '' THEN $4 ELSE lost_reason END
		WHERE id = $5`,
		string(update.Status), update.NextFollowUp, update.Competitor, update.LostReason, venueID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead status for venue %d", venueID)
	}
	return checkTagAffected(tag, "venue", venueID)
}

func (s *PostgresStore) AddLeadActivity(ctx context.Context, activity model.LeadActivity) (int64, error) {
	date := activity.ActivityDate
	if date == "" {
		date = s.now().UTC().Format(dateLayout)
	}
	var id int64
	if err := s.pool.QueryRow(ctx, `
		INSERT INTO lead_activities (venue_id, activity_type, activity_date, notes, outcome, next_action_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		activity.VenueID, activity.ActivityType, date, activity.Notes,
		activity.Outcome, activity.NextActionDate, s.now().UTC(),
	).Scan(&id); err != nil {
		return 0, eris.Wrapf(err, "postgres: add activity for venue %d", activity.VenueID)
	}
	return id, nil
}

func (s *PostgresStore) ListLeadActivities(ctx context.Context, venueID int64) ([]model.LeadActivity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, venue_id, activity_type, activity_date, notes, outcome, next_action_date, created_at
		FROM lead_activities
		WHERE venue_id = $1
		ORDER BY activity_date DESC, created_at DESC`,
		venueID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list activities for venue %d", venueID)
	}
	defer rows.Close()

	var activities []model.LeadActivity
	for rows.Next() {
		var a model.LeadActivity
		if err := rows.Scan(&a.ID, &a.VenueID, &a.ActivityType, &a.ActivityDate,
			&a.Notes, &a.Outcome, &a.NextActionDate, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		activities = append(activities, a)
	}
	return activities, eris.Wrap(rows.Err(), "postgres: iterate activities")
}

func (s *PostgresStore) LeadCountsByStatus(ctx context.Context) (map[model.LeadStatus]int, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT CASE WHEN lead_status = '' THEN 'new' ELSE lead_status END, COUNT(*)
		FROM venues
		GROUP BY lead_status`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: lead counts")
	}
	defer rows.Close()

	counts := map[model.LeadStatus]int{}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead count")
		}
		counts[model.LeadStatus(status)] += count
	}
	return counts, eris.Wrap(rows.Err(), "postgres: iterate lead counts")
}

func (s *PostgresStore) SourceEffectiveness(ctx context.Context) ([]SourceStats, error) {
	rows, err := s.pool.Query(ctx, `
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
		return nil, eris.Wrap(err, "postgres: source effectiveness")
	}
	defer rows.Close()

	var stats []SourceStats
	for rows.Next() {
		var st SourceStats
		if err := rows.Scan(&st.SourceSystem, &st.TotalLeads, &st.Won, &st.Contacted, &st.Demos); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source stats")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: iterate source stats")
}

func (s *PostgresStore) CityPerformance(ctx context.Context) ([]CityStats, error) {
	rows, err := s.pool.Query(ctx, `
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
		return nil, eris.Wrap(err, "postgres: city performance")
	}
	defer rows.Close()

	var stats []CityStats
	for rows.Next() {
		var st CityStats
		if err := rows.Scan(&st.City, &st.TotalLeads, &st.Won, &st.Contacted, &st.Demos, &st.Lost); err != nil {
			return nil, eris.Wrap(err, "postgres: scan city stats")
		}
		stats = append(stats, st)
	}
	return stats, eris.Wrap(rows.Err(), "postgres: iterate city stats")
}

// --- ETL runs ---

func (s *PostgresStore) InsertETLRun(ctx context.Context, run model.ETLRun) (string, error) {
	id := run.ID
	if id == "" {
		id = uuid.New().String()
	}
	counts, err := json.Marshal(run.RowCounts)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal row counts")
	}
	if _, err := s.pool.Exec(ctx, `
		INSERT INTO etl_runs (id, started_at, finished_at, lookback_days, row_counts, notes)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		id, run.StartedAt.UTC(), run.FinishedAt.UTC(), run.LookbackDays, string(counts), run.Notes,
	); err != nil {
		return "", eris.Wrap(err, "postgres: insert etl run")
	}
	return id, nil
}

func (s *PostgresStore) ListETLRuns(ctx context.Context, limit int) ([]model.ETLRun, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, started_at, finished_at, lookback_days, row_counts::text, notes
		FROM etl_runs
		ORDER BY started_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list etl runs")
	}
	defer rows.Close()

	var runs []model.ETLRun
	for rows.Next() {
		var (
			run    model.ETLRun
			counts string
		)
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.LookbackDays, &counts, &run.Notes); err != nil {
			return nil, eris.Wrap(err, "postgres: scan etl run")
		}
		if err := json.Unmarshal([]byte(counts), &run.RowCounts); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal row counts")
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate etl runs")
}

// --- helpers ---

func (s *PostgresStore) queryVenues(ctx context.Context, query string, args ...any) ([]model.Venue, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query venues")
	}
	defer rows.Close()

	var venues []model.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, *v)
	}
	return venues, eris.Wrap(rows.Err(), "postgres: iterate venues")
}

func checkTagAffected(tag pgconn.CommandTag, entity string, id int64) error {
	if tag.RowsAffected() == 0 {
		return eris.Errorf("%s not found: %d", entity, id)
	}
	return nil
}

