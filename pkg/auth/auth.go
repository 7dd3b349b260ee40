package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stockdash/stockdash/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type contextKey string

const userContextKey contextKey = "user"

// Claims represents JWT claims
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

// Service issues and verifies HMAC-signed session tokens and hashes
// account passwords.
type Service struct {
	secret     []byte
	issuer     string
	expiration time.Duration
}

// NewService creates an authentication service. The secret is the shared
// HS256 signing key; expiration bounds token lifetime.
func NewService(secret string, expiration time.Duration) (*Service, error) {
	if secret == "" {
		return nil, fmt.Errorf("auth: empty signing secret")
	}
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &Service{
		secret:     []byte(secret),
		issuer:     "stockdash",
		expiration: expiration,
	}, nil
}

// GenerateToken generates a new JWT token for a user
func (s *Service) GenerateToken(userID, username, email string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		metrics.AuthOperations.WithLabelValues("generate_token", "error").Inc()
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	metrics.AuthOperations.WithLabelValues("generate_token", "success").Inc()
	return tokenString, nil
}

// ValidateToken validates a JWT token and returns the claims
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Validate signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		metrics.AuthOperations.WithLabelValues("validate_token", "error").Inc()
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		metrics.AuthOperations.WithLabelValues("validate_token", "invalid").Inc()
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		metrics.AuthOperations.WithLabelValues("validate_token", "invalid").Inc()
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Issuer != s.issuer {
		return nil, fmt.Errorf("invalid issuer")
	}

	metrics.AuthOperations.WithLabelValues("validate_token", "success").Inc()
	return claims, nil
}

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext password matches the stored hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Middleware creates HTTP middleware that requires a valid bearer token and
// places the decoded claims on the request context.
func (s *Service) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			metrics.AuthMiddlewareErrors.WithLabelValues("missing_header").Inc()
			writeUnauthorized(w, "Not authorized, no token")
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			metrics.AuthMiddlewareErrors.WithLabelValues("invalid_format").Inc()
			writeUnauthorized(w, "Invalid authorization format")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		claims, err := s.ValidateToken(tokenString)
		if err != nil {
			logger.Log.Warn("token validation failed", zap.Error(err), zap.String("ip", r.RemoteAddr))
			metrics.AuthMiddlewareErrors.WithLabelValues("invalid_token").Inc()
			writeUnauthorized(w, "Not authorized, token failed")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFromContext extracts user claims from context
func UserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(userContextKey).(*Claims)
	return claims, ok
}

// ContextWithUser returns ctx with claims attached; used by handler tests.
func ContextWithUser(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"success":false,"error":%q}`, message)
}
