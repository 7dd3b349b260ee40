package models

import "testing"

func TestUser_OnWatchlist_CaseInsensitive(t *testing.T) {
    u := &User{Watchlist: []WatchlistEntry{{Symbol: "AAPL"}, {Symbol: "MSFT"}}}

    for _, sym := range []string{"AAPL", "aapl", " Aapl "} {
        if !u.OnWatchlist(sym) {
            t.Errorf("OnWatchlist(%q) = false; want true", sym)
        }
    }
    if u.OnWatchlist("GOOGL") {
        t.Error("OnWatchlist(GOOGL) = true; want false")
    }
}

func TestUser_Sanitize_UppercasesSymbols(t *testing.T) {
    u := &User{
        Username:  " trader ",
        Email:     "trader@example.com",
        Watchlist: []WatchlistEntry{{Symbol: "aapl"}},
        Holdings:  []Holding{{Symbol: "msft", Quantity: 1, PurchasePrice: 10}},
    }
    u.Sanitize()

    if u.Username != "trader" {
        t.Errorf("Username = %q", u.Username)
    }
    if u.Watchlist[0].Symbol != "AAPL" {
        t.Errorf("watchlist symbol = %q; want AAPL", u.Watchlist[0].Symbol)
    }
    if u.Holdings[0].Symbol != "MSFT" {
        t.Errorf("holding symbol = %q; want MSFT", u.Holdings[0].Symbol)
    }
}

func TestQuote_Validate(t *testing.T) {
    q := Quote{Symbol: "AAPL", Price: 189.5, Volume: 1000}
    if err := q.Validate(); err != nil {
        t.Errorf("valid quote rejected: %v", err)
    }

    q = Quote{Symbol: "", Price: 1}
    if err := q.Validate(); err == nil {
        t.Error("quote with empty symbol accepted")
    }

    q = Quote{Symbol: "AAPL", Volume: -5}
    if err := q.Validate(); err == nil {
        t.Error("quote with negative volume accepted")
    }
}
