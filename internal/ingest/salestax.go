package ingest

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

// SystemSalesTax identifies the Texas Comptroller sales-tax permit feed.
const SystemSalesTax = "SALES_TAX"

// SalesTaxSource fetches new sales-tax permits for restaurant and bar
// NAICS codes in the target county codes.
type SalesTaxSource struct {
	client   *SocrataClient
	endpoint string
	counties []string // Comptroller county codes, e.g. 057 = Dallas
	naics    []string
}

func NewSalesTaxSource(client *SocrataClient, endpoint string, counties, naics []string) *SalesTaxSource {
	return &SalesTaxSource{client: client, endpoint: endpoint, counties: counties, naics: naics}
}

func (s *SalesTaxSource) Name() string { return SystemSalesTax }

func (s *SalesTaxSource) Fetch(ctx context.Context, since string) ([]model.SourceEvent, error) {
	where := fmt.Sprintf("permit_date >= '%s' AND %s AND %s",
		since,
		orClause("naics='%s'", s.naics),
		orClause("loc_county='%s'", s.counties))

	rows, err := s.client.Get(ctx, s.endpoint, where, "permit_date DESC")
	if err != nil {
		return nil, eris.Wrap(err, "salestax: fetch permits")
	}

	events := make([]model.SourceEvent, 0, len(rows))
	for _, row := range rows {
		// A permit without both a taxpayer and a location name is an
		// administrative record, not a venue signal.
		if str(row, "tp_name") == "" || str(row, "loc_name") == "" {
			continue
		}
		events = append(events, model.SourceEvent{
			SourceSystem:   SystemSalesTax,
			SourceRecordID: str(row, "tp_number") + "-" + str(row, "loc_number"),
			EventType:      "permit_issued",
			EventDate:      isoDate(str(row, "permit_date")),
			RawName:        str(row, "loc_name"),
			RawAddress:     joinAddress(str(row, "address_number"), str(row, "address_text")),
			City:           str(row, "loc_city"),
			URL:            s.endpoint,
			Payload:        row,
		})
	}

	zap.L().Info("fetched sales tax permits",
		zap.String("since", since),
		zap.Int("events", len(events)))
	return events, nil
}
