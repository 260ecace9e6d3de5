package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/agroclimate/parcel-alert-service/internal/domain"
)

// UserStore reads users from the users table. Ownership is resolved through
// the parcel_refs array; there is no owner column on parcels.
type UserStore struct {
	db *sql.DB
}

// NewUserStore creates a user store over an open connection.
func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

// FindOwnerOf returns the user whose parcel-reference list contains the given
// parcel ID, or domain.ErrUserNotFound for orphaned parcels.
func (s *UserStore) FindOwnerOf(ctx context.Context, parcelID string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, phone_number, parcel_refs FROM users WHERE $1 = ANY(parcel_refs) LIMIT 1`,
		parcelID,
	)
	return scanUser(row, fmt.Sprintf("owner of parcel %s", parcelID))
}

// FindByID returns the user with the given ID, or domain.ErrUserNotFound.
func (s *UserStore) FindByID(ctx context.Context, userID string) (domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, phone_number, parcel_refs FROM users WHERE id = $1`,
		userID,
	)
	return scanUser(row, fmt.Sprintf("user %s", userID))
}

func scanUser(row *sql.Row, what string) (domain.User, error) {
	var (
		u     domain.User
		email sql.NullString
		phone sql.NullString
		refs  pq.StringArray
	)
	if err := row.Scan(&u.ID, &email, &phone, &refs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("scan %s: %w", what, err)
	}

	u.Email = email.String
	u.PhoneNumber = phone.String
	u.ParcelRefs = refs
	return u, nil
}
