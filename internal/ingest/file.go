package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/sells-group/openings-cli/internal/model"
)

// ColumnMap names the spreadsheet columns carrying each event field.
// Matching is case-insensitive. RecordID and Date may be empty when the
// file has no such column.
type ColumnMap struct {
	Name     string
	Address  string
	City     string
	Date     string
	RecordID string
}

// FileSource ingests a local CSV or XLSX drop, for feeds that publish
// spreadsheet exports instead of an API.
type FileSource struct {
	system      string
	eventType   string
	path        string
	defaultCity string
	cols        ColumnMap
}

// NewFileSource builds a source over one spreadsheet. The format is
// picked by the file extension.
func NewFileSource(system, eventType, path, defaultCity string, cols ColumnMap) *FileSource {
	return &FileSource{
		system:      system,
		eventType:   eventType,
		path:        path,
		defaultCity: defaultCity,
		cols:        cols,
	}
}

// SystemFortWorthCO identifies the Fort Worth certificate-of-occupancy
// export, published as a spreadsheet rather than an API.
const SystemFortWorthCO = "FORTWORTH_CO"

// NewFortWorthCOSource maps the Fort Worth CO export's columns.
func NewFortWorthCOSource(path string) *FileSource {
	return NewFileSource(SystemFortWorthCO, "co_issued", path, "Fort Worth", ColumnMap{
		Name:     "Occupant",
		Address:  "Location",
		City:     "City",
		Date:     "CODate",
		RecordID: "PermitID",
	})
}

func (s *FileSource) Name() string { return s.system }

func (s *FileSource) Fetch(ctx context.Context, since string) ([]model.SourceEvent, error) {
	var (
		header []string
		rows   [][]string
		err    error
	)
	switch {
	case strings.HasSuffix(strings.ToLower(s.path), ".xlsx"):
		header, rows, err = readXLSX(s.path)
	default:
		header, rows, err = readCSV(ctx, s.path)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: read %s", s.path)
	}

	idx := headerIndex(header)
	events := make([]model.SourceEvent, 0, len(rows))
	for _, row := range rows {
		name := cell(row, idx, s.cols.Name)
		if name == "" {
			continue
		}
		date := isoDate(cell(row, idx, s.cols.Date))
		if date != "" && date < since {
			continue
		}
		city := cell(row, idx, s.cols.City)
		if city == "" {
			city = s.defaultCity
		}

		payload := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(row) && row[i] != "" {
				payload[h] = row[i]
			}
		}

		events = append(events, model.SourceEvent{
			SourceSystem:   s.system,
			SourceRecordID: cell(row, idx, s.cols.RecordID),
			EventType:      s.eventType,
			EventDate:      date,
			RawName:        name,
			RawAddress:     cell(row, idx, s.cols.Address),
			City:           city,
			Payload:        payload,
		})
	}

	zap.L().Info("ingested file drop",
		zap.String("source", s.system),
		zap.String("path", s.path),
		zap.Int("events", len(events)))
	return events, nil
}

func readCSV(ctx context.Context, path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: open file")
	}
	defer f.Close() //nolint:errcheck

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, eris.Wrap(err, "csv: read header")
	}

	var rows [][]string
	for {
		if ctx.Err() != nil {
			return nil, nil, eris.Wrap(ctx.Err(), "csv: context cancelled")
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, eris.Wrap(err, "csv: read row")
		}
		for i, field := range record {
			record[i] = strings.TrimSpace(field)
		}
		rows = append(rows, record)
	}
	return header, rows, nil
}

func readXLSX(path string) ([]string, [][]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, nil, eris.Wrap(err, "xlsx: open file")
	}
	if len(f.Sheets) == 0 {
		return nil, nil, eris.Errorf("xlsx: %s has no sheets", path)
	}

	sheet := f.Sheets[0]
	var header []string
	var rows [][]string
	for i, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = strings.TrimSpace(c.String())
		}
		if i == 0 {
			header = cells
			continue
		}
		rows = append(rows, cells)
	}
	return header, rows, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func cell(row []string, idx map[string]int, column string) string {
	if column == "" {
		return ""
	}
	i, ok := idx[strings.ToLower(column)]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}
