package store

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/stockdash/stockdash/pkg/models"
)

// Memory is an in-memory UserStore used by tests and local development
// without a database.
type Memory struct {
	mu     sync.RWMutex
	nextID int64
	users  map[string]*models.User // keyed by ID
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{nextID: 1, users: map[string]*models.User{}}
}

// CreateUser persists a new account and fills ID and timestamps.
func (m *Memory) CreateUser(ctx context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return ErrDuplicate
		}
	}

	user.ID = strconv.FormatInt(m.nextID, 10)
	m.nextID++
	if user.Balance == 0 {
		user.Balance = models.DefaultBalance
	}
	if user.Watchlist == nil {
		user.Watchlist = []models.WatchlistEntry{}
	}
	if user.Holdings == nil {
		user.Holdings = []models.Holding{}
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	m.users[user.ID] = cloneUser(user)
	return nil
}

// GetUserByID looks up an account by its ID.
func (m *Memory) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneUser(user), nil
}

// GetUserByEmail looks up an account by email.
func (m *Memory) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, user := range m.users {
		if user.Email == email {
			return cloneUser(user), nil
		}
	}
	return nil, ErrNotFound
}

// UpdateWatchlist replaces the user's watchlist wholesale.
func (m *Memory) UpdateWatchlist(ctx context.Context, id string, watchlist []models.WatchlistEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	user, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	user.Watchlist = append([]models.WatchlistEntry(nil), watchlist...)
	user.UpdatedAt = time.Now()
	return nil
}

func cloneUser(u *models.User) *models.User {
	clone := *u
	clone.Watchlist = append([]models.WatchlistEntry(nil), u.Watchlist...)
	clone.Holdings = append([]models.Holding(nil), u.Holdings...)
	return &clone
}
