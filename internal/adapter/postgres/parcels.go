package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
)

// ParcelStore reads parcels from the parcels table. Geometry is stored as a
// JSONB feature collection and parsed into a typed value at load time, so the
// pipeline never touches raw coordinate documents.
type ParcelStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewParcelStore creates a parcel store over an open connection.
func NewParcelStore(db *sql.DB, logger *slog.Logger) *ParcelStore {
	return &ParcelStore{db: db, logger: logger}
}

// FindAll returns every registered parcel. A parcel whose stored geometry
// cannot be parsed is returned with an invalid geometry and logged; the
// pipeline excludes it from correlation without failing the batch.
func (s *ParcelStore) FindAll(ctx context.Context) ([]domain.Parcel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, geometry FROM parcels`)
	if err != nil {
		return nil, fmt.Errorf("query parcels: %w", err)
	}
	defer rows.Close()

	var parcels []domain.Parcel
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan parcel row: %w", err)
		}

		geom, err := domain.ParseParcelGeometry(raw)
		if err != nil {
			s.logger.Warn("parcel has malformed geometry, excluding from correlation",
				"parcel_id", id,
				"error", err,
			)
		}

		parcels = append(parcels, domain.Parcel{ID: id, Geometry: geom})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate parcel rows: %w", err)
	}

	return parcels, nil
}
