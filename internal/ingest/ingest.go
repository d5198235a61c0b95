// Package ingest fetches raw venue signals from municipal open-data
// feeds and local file drops, mapping each upstream row to a source
// event. Adapters never normalize or classify; they only reshape rows.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/openings-cli/internal/model"
)

// Source is one upstream feed. Fetch returns every event observed on or
// after the since date (ISO YYYY-MM-DD).
type Source interface {
	Name() string
	Fetch(ctx context.Context, since string) ([]model.SourceEvent, error)
}

// isoDate truncates an upstream timestamp like 2026-03-01T00:00:00.000
// to its date part. Values that do not look like a date come back
// unchanged except for the cut; a blank stays blank.
func isoDate(ts string) string {
	if len(ts) > 10 {
		ts = ts[:10]
	}
	if _, err := time.Parse("2006-01-02", ts); err != nil {
		return strings.TrimSpace(ts)
	}
	return ts
}

// joinAddress concatenates address fragments, skipping blanks.
func joinAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
