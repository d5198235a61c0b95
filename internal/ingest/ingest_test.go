package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsoDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2026-03-01T00:00:00.000", "2026-03-01"},
		{"2026-03-01", "2026-03-01"},
		{"", ""},
		{"pending", "pending"},
		{" 03/01/26 ", "03/01/26"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isoDate(tt.in), "isoDate(%q)", tt.in)
	}
}

func TestJoinAddress(t *testing.T) {
	assert.Equal(t, "123 Main St Ste 4", joinAddress("123 Main St", "Ste 4"))
	assert.Equal(t, "123 Main St", joinAddress("123 Main St", "  "))
	assert.Equal(t, "", joinAddress("", ""))
}

func TestOrClause(t *testing.T) {
	got := orClause("upper(county) = '%s'", []string{"DALLAS", "TARRANT"})
	assert.Equal(t, "(upper(county) = 'DALLAS' OR upper(county) = 'TARRANT')", got)

	assert.Equal(t, "(x = 'A')", orClause("x = '%s'", []string{"A"}))
}

func TestTABCSource_Fetch(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-token", r.Header.Get("X-App-Token"))
		q := r.URL.Query()
		gotQuery = map[string]string{
			"where": q.Get("$where"),
			"limit": q.Get("$limit"),
			"order": q.Get("$order"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"license_id": "MB123", "original_issue_date": "2026-08-15T00:00:00.000",
			 "trade_name": "Rusty Tavern", "address": "500 Elm St", "address_2": "Ste 100",
			 "city": "Dallas", "county": "DALLAS", "license_type": "Mixed Beverage"},
			{"license_id": "MB124", "original_issue_date": "2026-08-16T00:00:00.000",
			 "trade_name": "Casa Verde", "address": "200 Oak Ave", "address_2": "",
			 "city": "Plano", "county": "COLLIN"}
		]`))
	}))
	defer srv.Close()

	client := NewSocrataClient("test-token", 5*time.Second, 500)
	src := NewTABCSource(client, srv.URL, []string{"DALLAS", "COLLIN"})
	assert.Equal(t, SystemTABC, src.Name())

	events, err := src.Fetch(context.Background(), "2026-08-01")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Contains(t, gotQuery["where"], "original_issue_date >= '2026-08-01T00:00:00.000'")
	assert.Contains(t, gotQuery["where"], "upper(county) = 'DALLAS' OR upper(county) = 'COLLIN'")
	assert.Equal(t, "500", gotQuery["limit"])
	assert.Equal(t, "original_issue_date DESC", gotQuery["order"])

	ev := events[0]
	assert.Equal(t, SystemTABC, ev.SourceSystem)
	assert.Equal(t, "MB123", ev.SourceRecordID)
	assert.Equal(t, "license_issued", ev.EventType)
	assert.Equal(t, "2026-08-15", ev.EventDate)
	assert.Equal(t, "Rusty Tavern", ev.RawName)
	assert.Equal(t, "500 Elm St Ste 100", ev.RawAddress)
	assert.Equal(t, "Dallas", ev.City)
	assert.Equal(t, "Mixed Beverage", ev.PayloadString("license_type"))

	assert.Equal(t, "200 Oak Ave", events[1].RawAddress)
}

func TestSocrataClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewSocrataClient("", 5*time.Second, 100)
	_, err := client.Get(context.Background(), srv.URL, "1=1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFileSource_CSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "co_export.csv")
	csv := "PermitID,Occupant,Location,City,CODate\n" +
		"P-1,Rusty Tavern,500 Elm St,Dallas,2026-08-15\n" +
		"P-2,,700 Vacant Rd,Dallas,2026-08-16\n" +
		"P-3,Old Diner,900 Past Ln,Dallas,2026-07-01\n" +
		"P-4,New Cafe,100 Main St,,\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))

	src := NewFortWorthCOSource(path)
	assert.Equal(t, SystemFortWorthCO, src.Name())

	events, err := src.Fetch(context.Background(), "2026-08-01")
	require.NoError(t, err)
	require.Len(t, events, 2)

	ev := events[0]
	assert.Equal(t, "P-1", ev.SourceRecordID)
	assert.Equal(t, "co_issued", ev.EventType)
	assert.Equal(t, "2026-08-15", ev.EventDate)
	assert.Equal(t, "Rusty Tavern", ev.RawName)
	assert.Equal(t, "500 Elm St", ev.RawAddress)
	assert.Equal(t, "Dallas", ev.City)
	assert.Equal(t, "Rusty Tavern", ev.Payload["Occupant"])

	// Rows without a date pass the since filter; rows without a city get
	// the source default.
	assert.Equal(t, "New Cafe", events[1].RawName)
	assert.Equal(t, "Fort Worth", events[1].City)
	assert.Equal(t, "", events[1].EventDate)
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFortWorthCOSource(filepath.Join(t.TempDir(), "nope.csv"))
	_, err := src.Fetch(context.Background(), "2026-08-01")
	assert.Error(t, err)
}
