package ingest

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

// SystemDallasCO identifies the Dallas certificate-of-occupancy feed.
const SystemDallasCO = "DALLAS_CO"

// occupancyFilters narrows Dallas COs to restaurant and bar-like uses
// server-side, keeping the response small.
var occupancyFilters = []string{
	"RESTAURANT", "BAR", "LOUNGE", "TAVERN", "CAFE", "BREWERY",
}

// DallasCOSource fetches certificates of occupancy for food and drink
// uses in Dallas.
type DallasCOSource struct {
	client   *SocrataClient
	endpoint string
}

func NewDallasCOSource(client *SocrataClient, endpoint string) *DallasCOSource {
	return &DallasCOSource{client: client, endpoint: endpoint}
}

func (s *DallasCOSource) Name() string { return SystemDallasCO }

func (s *DallasCOSource) Fetch(ctx context.Context, since string) ([]model.SourceEvent, error) {
	where := fmt.Sprintf("date_issued >= '%sT00:00:00.000' AND %s",
		since, orClause("upper(occupancy) like '%%%s%%'", occupancyFilters))

	rows, err := s.client.Get(ctx, s.endpoint, where, "date_issued DESC")
	if err != nil {
		return nil, eris.Wrap(err, "dallasco: fetch certificates")
	}

	events := make([]model.SourceEvent, 0, len(rows))
	for _, row := range rows {
		events = append(events, model.SourceEvent{
			SourceSystem:   SystemDallasCO,
			SourceRecordID: str(row, "co"),
			EventType:      "co_issued",
			EventDate:      isoDate(str(row, "date_issued")),
			RawName:        str(row, "business_name"),
			RawAddress:     str(row, "address"),
			City:           "Dallas",
			URL:            s.endpoint,
			Payload:        row,
		})
	}

	zap.L().Info("fetched certificates of occupancy",
		zap.String("since", since),
		zap.Int("events", len(events)))
	return events, nil
}
