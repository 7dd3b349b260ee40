package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/stockdash/stockdash/pkg/logger"
	"github.com/stockdash/stockdash/pkg/metrics"
	"github.com/stockdash/stockdash/pkg/models"
	"go.uber.org/zap"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

// Postgres implements UserStore on PostgreSQL. Watchlist and holdings live
// as JSONB sub-documents on the user row: they are small per-user lists that
// are always read and written with the account, so a relational split buys
// nothing here.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens a pooled connection and verifies it.
func NewPostgres(databaseURL string) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Log.Info("database connected successfully")
	return &Postgres{db: db}, nil
}

// RunMigrations creates the schema if it does not exist.
func (p *Postgres) RunMigrations(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS users (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			watchlist JSONB NOT NULL DEFAULT '[]',
			holdings JSONB NOT NULL DEFAULT '[]',
			balance DOUBLE PRECISION NOT NULL DEFAULT 100000,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_username ON users(username);
	`
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Log.Info("database migrations completed")
	return nil
}

// CreateUser persists a new account and fills ID and timestamps.
func (p *Postgres) CreateUser(ctx context.Context, user *models.User) error {
	return p.instrument("create_user", func() error {
		watchlist, holdings, err := marshalLists(user)
		if err != nil {
			return err
		}
		if user.Balance == 0 {
			user.Balance = models.DefaultBalance
		}

		row := p.db.QueryRowContext(ctx, `
			INSERT INTO users (username, email, password_hash, watchlist, holdings, balance)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at, updated_at`,
			user.Username, user.Email, user.PasswordHash, watchlist, holdings, user.Balance)

		var id int64
		if err := row.Scan(&id, &user.CreatedAt, &user.UpdatedAt); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				return ErrDuplicate
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		user.ID = strconv.FormatInt(id, 10)
		return nil
	})
}

// GetUserByID looks up an account by its ID.
func (p *Postgres) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, ErrNotFound
	}

	var user *models.User
	err = p.instrument("get_user_by_id", func() error {
		var scanErr error
		user, scanErr = p.scanUser(p.db.QueryRowContext(ctx,
			`SELECT id, username, email, password_hash, watchlist, holdings, balance, created_at, updated_at
			 FROM users WHERE id = $1`, numericID))
		return scanErr
	})
	return user, err
}

// GetUserByEmail looks up an account by email.
func (p *Postgres) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user *models.User
	err := p.instrument("get_user_by_email", func() error {
		var scanErr error
		user, scanErr = p.scanUser(p.db.QueryRowContext(ctx,
			`SELECT id, username, email, password_hash, watchlist, holdings, balance, created_at, updated_at
			 FROM users WHERE email = $1`, email))
		return scanErr
	})
	return user, err
}

// UpdateWatchlist replaces the user's watchlist wholesale.
func (p *Postgres) UpdateWatchlist(ctx context.Context, id string, watchlist []models.WatchlistEntry) error {
	numericID, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return ErrNotFound
	}
	if watchlist == nil {
		watchlist = []models.WatchlistEntry{}
	}

	return p.instrument("update_watchlist", func() error {
		data, err := json.Marshal(watchlist)
		if err != nil {
			return fmt.Errorf("failed to encode watchlist: %w", err)
		}

		res, err := p.db.ExecContext(ctx,
			`UPDATE users SET watchlist = $1, updated_at = NOW() WHERE id = $2`,
			data, numericID)
		if err != nil {
			return fmt.Errorf("failed to update watchlist: %w", err)
		}
		if rows, _ := res.RowsAffected(); rows == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// HealthCheck performs a health check on the database
func (p *Postgres) HealthCheck(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// Close closes the database connection
func (p *Postgres) Close() error {
	logger.Log.Info("closing database connection")
	return p.db.Close()
}

func (p *Postgres) scanUser(row *sql.Row) (*models.User, error) {
	var (
		user      models.User
		id        int64
		watchlist []byte
		holdings  []byte
	)
	err := row.Scan(&id, &user.Username, &user.Email, &user.PasswordHash,
		&watchlist, &holdings, &user.Balance, &user.CreatedAt, &user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	user.ID = strconv.FormatInt(id, 10)
	if err := json.Unmarshal(watchlist, &user.Watchlist); err != nil {
		return nil, fmt.Errorf("failed to decode watchlist: %w", err)
	}
	if err := json.Unmarshal(holdings, &user.Holdings); err != nil {
		return nil, fmt.Errorf("failed to decode holdings: %w", err)
	}
	return &user, nil
}

func marshalLists(user *models.User) ([]byte, []byte, error) {
	if user.Watchlist == nil {
		user.Watchlist = []models.WatchlistEntry{}
	}
	if user.Holdings == nil {
		user.Holdings = []models.Holding{}
	}
	watchlist, err := json.Marshal(user.Watchlist)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode watchlist: %w", err)
	}
	holdings, err := json.Marshal(user.Holdings)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode holdings: %w", err)
	}
	return watchlist, holdings, nil
}

// instrument wraps store operations with duration and error metrics.
func (p *Postgres) instrument(operation string, fn func() error) error {
	start := time.Now()
	err := fn()
	status := "success"
	if err != nil && !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrDuplicate) {
		status = "error"
		metrics.StoreErrors.WithLabelValues(operation).Inc()
		logger.Log.Error("store operation failed", zap.String("operation", operation), zap.Error(err))
	}
	metrics.StoreOperationDuration.WithLabelValues(operation, status).Observe(time.Since(start).Seconds())
	return err
}
