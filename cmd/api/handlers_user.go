package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stockdash/stockdash/pkg/auth"
	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stockdash/stockdash/pkg/models"
	"github.com/stockdash/stockdash/pkg/store"
	"github.com/stockdash/stockdash/pkg/validation"
	"go.uber.org/zap"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type watchlistRequest struct {
	Symbol string `json:"symbol"`
	Action string `json:"action"` // "add" or "remove"
}

// registerHandler creates a new account and returns a session token.
func (s *Server) registerHandler(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	req.Username = validation.SanitizeString(req.Username)
	req.Email = strings.ToLower(validation.SanitizeString(req.Email))

	if req.Username == "" || req.Email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "Please enter all fields")
		return
	}
	if errs := validation.ValidateStruct(req); len(errs) > 0 {
		s.writeError(w, http.StatusBadRequest, errs.Error())
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Log.Error("password hashing failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Balance:      models.DefaultBalance,
	}

	if err := s.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			s.writeError(w, http.StatusBadRequest, "User with that email or username already exists")
			return
		}
		logger.Log.Error("user creation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.sendTokenResponse(w, http.StatusCreated, user)
}

// loginHandler authenticates a user and returns a session token.
func (s *Server) loginHandler(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	req.Email = strings.ToLower(validation.SanitizeString(req.Email))
	if req.Email == "" || req.Password == "" {
		s.writeError(w, http.StatusBadRequest, "Please enter an email and password")
		return
	}

	user, err := s.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Same message as a bad password: do not reveal which
			// factor failed.
			s.writeError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		logger.Log.Error("user lookup failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		s.writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	s.sendTokenResponse(w, http.StatusOK, user)
}

// profileHandler returns the authenticated user's account.
func (s *Server) profileHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.UserFromContext(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, err := s.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Log.Error("user lookup failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, profileResponse{Success: true, User: user})
}

// watchlistHandler adds or removes one symbol on the authenticated user's
// watchlist. Symbols are uppercased before comparison and storage; the
// symbol-uniqueness invariant lives here, not in the store.
func (s *Server) watchlistHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.UserFromContext(r.Context())
	if !ok {
		s.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req watchlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	symbol := validation.NormalizeSymbol(req.Symbol)
	if symbol == "" || req.Action == "" {
		s.writeError(w, http.StatusBadRequest, "Please provide stock symbol and action (add/remove)")
		return
	}

	user, err := s.users.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Log.Error("user lookup failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var message string
	switch req.Action {
	case "add":
		if errs := validation.ValidateStruct(struct {
			Symbol string `validate:"required,ticker"`
		}{symbol}); len(errs) > 0 {
			s.writeError(w, http.StatusBadRequest, errs.Error())
			return
		}
		if user.OnWatchlist(symbol) {
			s.writeError(w, http.StatusBadRequest, "Stock already in watchlist")
			return
		}
		user.Watchlist = append(user.Watchlist, models.WatchlistEntry{Symbol: symbol})
		message = fmt.Sprintf("%s added to watchlist", symbol)

	case "remove":
		if !user.OnWatchlist(symbol) {
			s.writeError(w, http.StatusNotFound, "Stock not found in watchlist")
			return
		}
		kept := user.Watchlist[:0]
		for _, entry := range user.Watchlist {
			if entry.Symbol != symbol {
				kept = append(kept, entry)
			}
		}
		user.Watchlist = kept
		message = fmt.Sprintf("%s removed from watchlist", symbol)

	default:
		s.writeError(w, http.StatusBadRequest, `Invalid action. Must be "add" or "remove".`)
		return
	}

	if err := s.users.UpdateWatchlist(r.Context(), user.ID, user.Watchlist); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "User not found")
			return
		}
		logger.Log.Error("watchlist update failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, watchlistResponse{
		Success:   true,
		Message:   message,
		Watchlist: user.Watchlist,
	})
}

// sendTokenResponse issues a token for the user and writes the auth payload.
func (s *Server) sendTokenResponse(w http.ResponseWriter, status int, user *models.User) {
	token, err := s.auth.GenerateToken(user.ID, user.Username, user.Email)
	if err != nil {
		logger.Log.Error("token generation failed", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	s.writeJSON(w, status, tokenResponse{Success: true, Token: token, User: user})
}
