package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_LinkSourceEvent(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE source_events SET venue_id").
		WithArgs(int64(9), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.LinkSourceEvent(context.Background(), 5, 9))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_LinkSourceEvent_AlreadyLinked(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE source_events SET venue_id").
		WithArgs(int64(9), int64(5)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := st.LinkSourceEvent(context.Background(), 5, 9)
	assert.ErrorContains(t, err, "unlinked event not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_UpdatePriorityScore(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE venues SET priority_score").
		WithArgs(130, int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, st.UpdatePriorityScore(context.Background(), 7, 130))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_RetitleCity(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectExec("UPDATE venues SET city").
		WithArgs("Dallas", "DALLAS").
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := st.RetitleCity(context.Background(), "DALLAS", "Dallas")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetVenue(t *testing.T) {
	st, mock := newMockStore(t)

	rows := pgxmock.NewRows([]string{
		"id", "name", "normalized_name", "address", "normalized_address",
		"city", "state", "zip", "latitude", "longitude", "phone", "website",
		"place_id", "naics_code", "venue_type", "status", "first_seen_date",
		"last_seen_date", "priority_score", "notes", "lead_status",
		"next_follow_up", "competitor", "lost_reason",
	}).AddRow(
		int64(7), "Joe's Bar & Grill", "joes grill", "123 Main St", "123 main street",
		"Dallas", "TX", "", nil, nil, "214-555-0101", "",
		"", "", "bar", "opening_soon", "2026-08-10",
		"2026-08-20", 110, "", "new",
		"", "", "",
	)
	mock.ExpectQuery("SELECT .+ FROM venues WHERE id").
		WithArgs(int64(7)).
		WillReturnRows(rows)

	v, err := st.GetVenue(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Joe's Bar & Grill", v.Name)
	assert.Equal(t, "214-555-0101", v.Phone)
	assert.Nil(t, v.Latitude)
	assert.Equal(t, 110, v.PriorityScore)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetVenue_NotFound(t *testing.T) {
	st, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM venues WHERE id").
		WithArgs(int64(404)).
		WillReturnError(pgx.ErrNoRows)

	_, err := st.GetVenue(context.Background(), 404)
	assert.ErrorContains(t, err, "venue not found")
	require.NoError(t, mock.ExpectationsWereMet())
}
