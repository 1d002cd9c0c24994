package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DBConfig chứa thông tin kết nối PostgreSQL và cấu hình pool
type DBConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	DBName   string
	SSLMode  string

	// Connection pool
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Retry khi khởi động
	MaxRetries     int
	RetryDelay     time.Duration
	ConnectTimeout time.Duration
}

// DSN builds a postgres URL. Credentials are escaped.
func (c *DBConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Username, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.DBName,
	}
	if c.SSLMode != "" {
		u.RawQuery = "sslmode=" + url.QueryEscape(c.SSLMode)
	}
	return u.String()
}

// PostgresDB quản lý pgx connection pool
type PostgresDB struct {
	Pool   *pgxpool.Pool
	Config *DBConfig
}

func NewPostgresDB(config *DBConfig) *PostgresDB {
	return &PostgresDB{Config: config}
}

func (db *PostgresDB) poolConfig() (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(db.Config.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}
	if db.Config.MaxConns > 0 {
		cfg.MaxConns = db.Config.MaxConns
	}
	cfg.MinConns = db.Config.MinConns
	if db.Config.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = db.Config.MaxConnLifetime
	}
	if db.Config.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = db.Config.MaxConnIdleTime
	}
	if db.Config.ConnectTimeout > 0 {
		cfg.ConnConfig.ConnectTimeout = db.Config.ConnectTimeout
	}
	return cfg, nil
}

// Connect mở pool, retry với exponential backoff (delay, 2*delay, 4*delay...)
func (db *PostgresDB) Connect(ctx context.Context) error {
	cfg, err := db.poolConfig()
	if err != nil {
		return err
	}

	attempts := db.Config.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, cfg)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				db.Pool = pool
				log.Printf("[DATABASE] Connected to %s:%d/%s (attempt %d)", db.Config.Host, db.Config.Port, db.Config.DBName, attempt)
				return nil
			}
			pool.Close()
		}
		lastErr = err
		log.Printf("[DATABASE] Attempt %d/%d failed: %v", attempt, attempts, err)

		if attempt == attempts {
			break
		}
		delay := db.Config.RetryDelay * time.Duration(1<<uint(attempt-1))
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("connection cancelled: %w", ctx.Err())
		}
	}

	return fmt.Errorf("failed to connect after %d attempts: %w", attempts, lastErr)
}
