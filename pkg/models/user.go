package models

import (
    "time"

    "github.com/stockdash/stockdash/pkg/validation"
)

// DefaultBalance is the simulated trading balance granted at registration.
const DefaultBalance = 100000

// WatchlistEntry is one symbol on a user's watchlist. Symbols are stored
// uppercase and are unique within a single user's list; uniqueness is
// enforced by the HTTP handler, not the store.
type WatchlistEntry struct {
    Symbol string `json:"symbol" validate:"required,ticker"`
    Name   string `json:"name,omitempty"`
}

// Holding is a simulated position in the user's portfolio.
type Holding struct {
    Symbol        string    `json:"symbol" validate:"required,ticker"`
    Quantity      int64     `json:"quantity" validate:"gte=0"`
    PurchasePrice float64   `json:"purchasePrice" validate:"gte=0"`
    PurchaseDate  time.Time `json:"purchaseDate"`
}

// User is the persisted account record. PasswordHash never crosses the API
// boundary.
type User struct {
    ID           string           `json:"id"`
    Username     string           `json:"username" validate:"required,username"`
    Email        string           `json:"email" validate:"required,email"`
    PasswordHash string           `json:"-"`
    Watchlist    []WatchlistEntry `json:"watchlist"`
    Holdings     []Holding        `json:"stocksOwned"`
    Balance      float64          `json:"balance"`
    CreatedAt    time.Time        `json:"createdAt"`
    UpdatedAt    time.Time        `json:"updatedAt"`
}

// Validate validates the User struct
func (u User) Validate() error {
    if errors := validation.ValidateStruct(u); len(errors) > 0 {
        return errors
    }
    return nil
}

// Sanitize canonicalizes mutable string fields in place.
func (u *User) Sanitize() {
    u.Username = validation.SanitizeString(u.Username)
    u.Email = validation.SanitizeString(u.Email)
    for i := range u.Watchlist {
        u.Watchlist[i].Symbol = validation.NormalizeSymbol(u.Watchlist[i].Symbol)
    }
    for i := range u.Holdings {
        u.Holdings[i].Symbol = validation.NormalizeSymbol(u.Holdings[i].Symbol)
    }
}

// OnWatchlist reports whether symbol (any case) is already present.
func (u *User) OnWatchlist(symbol string) bool {
    want := validation.NormalizeSymbol(symbol)
    for _, entry := range u.Watchlist {
        if entry.Symbol == want {
            return true
        }
    }
    return false
}
