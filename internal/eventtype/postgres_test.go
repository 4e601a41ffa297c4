package eventtype

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPostgresDetails_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare(regexp.QuoteMeta(queryGetEventDetails))
	repo, err := NewPostgresDetails(db)
	require.NoError(t, err)

	updated := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(queryGetEventDetails)).
		WithArgs("e1").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "data", "updated_at"}).
			AddRow("e1", []byte(`{"event_details": {"species": "lion"}}`), updated))

	d, err := repo.Get(context.Background(), "e1")
	require.NoError(t, err)
	require.Equal(t, "e1", d.EventID)
	require.Equal(t, map[string]interface{}{"species": "lion"}, d.DetailValues())
	require.Equal(t, updated, d.UpdatedAt)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDetails_GetMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare(regexp.QuoteMeta(queryGetEventDetails))
	repo, err := NewPostgresDetails(db)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(queryGetEventDetails)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"event_id", "data", "updated_at"}))

	_, err = repo.Get(context.Background(), "ghost")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
