package postgres

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const storedGeometry = `{
	"type": "FeatureCollection",
	"features": [
		{
			"type": "Feature",
			"properties": {"name": "polygon"},
			"geometry": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,1],[0,0]]]}
		},
		{
			"type": "Feature",
			"properties": {"name": "pointOnFeature"},
			"geometry": {"type": "Point", "coordinates": [0.5, 0.5]}
		}
	]
}`

func TestParcelStoreFindAll(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, geometry FROM parcels`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "geometry"}).
			AddRow("p1", []byte(storedGeometry)).
			AddRow("p2", []byte(`{"broken`)))

	store := NewParcelStore(db, slog.Default())

	parcels, err := store.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, parcels, 2)

	assert.Equal(t, "p1", parcels[0].ID)
	assert.True(t, parcels[0].Geometry.HasBoundary())

	// Malformed geometry is kept with an invalid geometry, not dropped or
	// turned into an error.
	assert.Equal(t, "p2", parcels[1].ID)
	assert.False(t, parcels[1].Geometry.HasBoundary())

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestParcelStoreFindAll_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT id, geometry FROM parcels`).
		WillReturnError(errors.New("connection refused"))

	store := NewParcelStore(db, slog.Default())

	_, err = store.FindAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query parcels")
}
