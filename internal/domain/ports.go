package domain

import (
	"context"
	"errors"
	"time"
)

// ErrUserNotFound is returned by user lookups when no record matches.
var ErrUserNotFound = errors.New("user not found")

// ErrCacheEmpty is returned when the alert cache has no entry to fall back on
// after a failed refresh.
var ErrCacheEmpty = errors.New("alert cache is empty")

// AlertSource provides the current weather-alert collection. Implemented by
// the upstream feed client and by the TTL cache that wraps it.
type AlertSource interface {
	FetchAlerts(ctx context.Context) ([]WeatherAlert, error)
}

// ParcelStore lists every registered parcel. Correlation filters nothing at
// this layer; the full set is scanned per batch.
type ParcelStore interface {
	FindAll(ctx context.Context) ([]Parcel, error)
}

// UserStore resolves users by ID or by reverse parcel reference.
// Both lookups return ErrUserNotFound when no record matches.
type UserStore interface {
	FindOwnerOf(ctx context.Context, parcelID string) (User, error)
	FindByID(ctx context.Context, userID string) (User, error)
}

// NotificationExecutor accepts a notification payload for asynchronous
// delivery. A nil error means the invocation request was accepted, not that
// the notification reached the user.
type NotificationExecutor interface {
	InvokeAsync(ctx context.Context, payload []byte) error
}

// CacheStatus is a read-only diagnostic view of the alert cache.
type CacheStatus struct {
	Exists      bool          `json:"exists"`
	Age         time.Duration `json:"age"`
	Valid       bool          `json:"isValid"`
	LastUpdated time.Time     `json:"lastUpdated"`
}
