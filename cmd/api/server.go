package main

import (
	"encoding/json"
	"net/http"

	"github.com/stockdash/stockdash/pkg/auth"
	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stockdash/stockdash/pkg/marketdata"
	"github.com/stockdash/stockdash/pkg/models"
	"github.com/stockdash/stockdash/pkg/store"
	"go.uber.org/zap"
)

// Response is the standard API error/status envelope.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// tokenResponse is returned by register and login.
type tokenResponse struct {
	Success bool         `json:"success"`
	Token   string       `json:"token"`
	User    *models.User `json:"user"`
}

// profileResponse is returned by the profile endpoint.
type profileResponse struct {
	Success bool         `json:"success"`
	User    *models.User `json:"user"`
}

// watchlistResponse is returned by watchlist mutations.
type watchlistResponse struct {
	Success   bool                    `json:"success"`
	Message   string                  `json:"message"`
	Watchlist []models.WatchlistEntry `json:"watchlist"`
}

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	users  store.UserStore
	auth   *auth.Service
	market *marketdata.Service
}

// NewServer creates a Server.
func NewServer(users store.UserStore, authService *auth.Service, market *marketdata.Service) *Server {
	return &Server{users: users, auth: authService, market: market}
}

// writeJSON writes a JSON response with proper headers
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Log.Error("JSON encoding error", zap.Error(err))
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}
