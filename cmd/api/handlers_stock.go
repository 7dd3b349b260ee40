package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stockdash/stockdash/pkg/models"
	"github.com/stockdash/stockdash/pkg/validation"
	"go.uber.org/zap"
)

// quoteHandler proxies a single-symbol quote lookup to the market data
// provider. The response body is the bare quote object, not the envelope.
func (s *Server) quoteHandler(w http.ResponseWriter, r *http.Request) {
	symbol := validation.NormalizeSymbol(mux.Vars(r)["symbol"])
	if symbol == "" {
		s.writeError(w, http.StatusBadRequest, "Please provide a stock symbol")
		return
	}

	quote, err := s.market.Quote(r.Context(), symbol)
	if err != nil {
		logger.Log.Error("quote fetch failed", zap.String("symbol", symbol), zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Error fetching stock data")
		return
	}
	if quote == nil {
		s.writeError(w, http.StatusNotFound, "Stock not found")
		return
	}

	s.writeJSON(w, http.StatusOK, quote)
}

// multipleQuotesHandler fetches quote plus trendline for a comma-separated
// symbol list. Symbols the provider cannot resolve are silently omitted from
// the response; their fates are still logged and counted.
func (s *Server) multipleQuotesHandler(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if strings.TrimSpace(raw) == "" {
		s.writeError(w, http.StatusBadRequest, "Please provide stock symbols")
		return
	}

	stocks, _ := s.market.FetchBatch(r.Context(), strings.Split(raw, ","))
	if stocks == nil {
		stocks = []models.StockData{}
	}

	s.writeJSON(w, http.StatusOK, stocks)
}
