package store

import (
	"context"
	"testing"

	"github.com/stockdash/stockdash/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_CreateAndLookup(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	user := &models.User{Username: "trader", Email: "trader@example.com", PasswordHash: "hash"}
	require.NoError(t, m.CreateUser(ctx, user))

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, float64(models.DefaultBalance), user.Balance)
	assert.NotNil(t, user.Watchlist)
	assert.False(t, user.CreatedAt.IsZero())

	byID, err := m.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "trader", byID.Username)

	byEmail, err := m.GetUserByEmail(ctx, "trader@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
}

func TestMemory_DuplicateRejected(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	require.NoError(t, m.CreateUser(ctx, &models.User{Username: "trader", Email: "a@example.com"}))

	err := m.CreateUser(ctx, &models.User{Username: "trader", Email: "b@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	err = m.CreateUser(ctx, &models.User{Username: "other", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestMemory_NotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.GetUserByID(ctx, "42")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = m.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	err = m.UpdateWatchlist(ctx, "42", nil)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemory_UpdateWatchlist(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	user := &models.User{Username: "trader", Email: "trader@example.com"}
	require.NoError(t, m.CreateUser(ctx, user))

	list := []models.WatchlistEntry{{Symbol: "AAPL"}, {Symbol: "MSFT"}}
	require.NoError(t, m.UpdateWatchlist(ctx, user.ID, list))

	stored, err := m.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, list, stored.Watchlist)

	// mutating the caller's slice must not leak into the store
	list[0].Symbol = "GOOG"
	stored, err = m.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "AAPL", stored.Watchlist[0].Symbol)
}
