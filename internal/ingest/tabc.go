package ingest

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

// SystemTABC identifies the Texas Alcoholic Beverage Commission
// license feed.
const SystemTABC = "TABC"

// TABCSource fetches newly issued liquor licenses in the target
// counties.
type TABCSource struct {
	client   *SocrataClient
	endpoint string
	counties []string
}

func NewTABCSource(client *SocrataClient, endpoint string, counties []string) *TABCSource {
	return &TABCSource{client: client, endpoint: endpoint, counties: counties}
}

func (s *TABCSource) Name() string { return SystemTABC }

func (s *TABCSource) Fetch(ctx context.Context, since string) ([]model.SourceEvent, error) {
	where := fmt.Sprintf("original_issue_date >= '%sT00:00:00.000' AND %s",
		since, orClause("upper(county) = '%s'", s.counties))

	rows, err := s.client.Get(ctx, s.endpoint, where, "original_issue_date DESC")
	if err != nil {
		return nil, eris.Wrap(err, "tabc: fetch licenses")
	}

	events := make([]model.SourceEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, model.SourceEvent{
			SourceSystem:   SystemTABC,
			SourceRecordID: str(row, "license_id"),
			EventType:      "license_issued",
			EventDate:      isoDate(str(row, "original_issue_date")),
			RawName:        str(row, "trade_name"),
			RawAddress:     joinAddress(str(row, "address"), str(row, "address_2")),
			City:           str(row, "city"),
			Payload:        row,
		})
	}

	zap.L().Info("fetched liquor licenses",
		zap.String("since", since),
		zap.Int("events", len(events)))
	return events, nil
}
