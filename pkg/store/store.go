package store

import (
	"context"
	"errors"

	"github.com/stockdash/stockdash/pkg/models"
)

var (
	// ErrNotFound is returned when no user matches the lookup key.
	ErrNotFound = errors.New("store: user not found")
	// ErrDuplicate is returned when a unique constraint (username or email)
	// would be violated.
	ErrDuplicate = errors.New("store: user already exists")
)

// UserStore defines the interface for user account access. Watchlist symbol
// uniqueness is an application invariant enforced by the HTTP handlers; the
// store persists whatever list it is handed.
type UserStore interface {
	// CreateUser persists a new account and fills ID and timestamps.
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	// UpdateWatchlist replaces the user's watchlist wholesale.
	UpdateWatchlist(ctx context.Context, id string, watchlist []models.WatchlistEntry) error
}
