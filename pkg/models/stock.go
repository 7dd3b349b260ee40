package models

import (
    "encoding/json"
    "fmt"

    "github.com/stockdash/stockdash/pkg/validation"
)

// Quote is a point-in-time price/volume snapshot for one symbol, as returned
// by the upstream market data provider. Quotes are built fresh per request and
// never persisted.
type Quote struct {
    Symbol           string  `json:"symbol" validate:"required,ticker"`
    Open             float64 `json:"open"`
    High             float64 `json:"high"`
    Low              float64 `json:"low"`
    Price            float64 `json:"price" validate:"gte=0"`
    Volume           int64   `json:"volume" validate:"gte=0"`
    LatestTradingDay string  `json:"latestTradingDay"`
    PreviousClose    float64 `json:"previousClose"`
    Change           float64 `json:"change"`
    ChangePercent    float64 `json:"changePercent"`
}

// Validate validates the Quote struct
func (q Quote) Validate() error {
    if errors := validation.ValidateStruct(q); len(errors) > 0 {
        return errors
    }
    return nil
}

// StockData is a Quote merged with a short trendline of recent closing
// prices, oldest first. This is the unit returned by batch fetches.
type StockData struct {
    Quote
    Trendline []float64 `json:"trendline"`
}

// ToJSON converts to JSON string
func (sd StockData) ToJSON() (string, error) {
    data, err := json.Marshal(sd)
    if err != nil {
        return "", fmt.Errorf("json marshal error: %w", err)
    }
    return string(data), nil
}
