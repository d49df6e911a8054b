// database/connection.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql" // MariaDB/MySQL driver
	_ "modernc.org/sqlite"             // pure Go SQLite driver

	"github.com/gewnthar/flightlog/config"
	"github.com/gewnthar/flightlog/logger"
)

// Store keeps provenance for master downloads and autofill runs.
type Store struct {
	db     *sql.DB
	logger *logger.Logger
}

// Open connects using cfg.Driver ("sqlite" or "mysql") and creates the tables.
func Open(cfg config.DatabaseConfig, log *logger.Logger) (*Store, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.Path); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create directory for %s: %w", cfg.Path, err)
			}
		}
		db, err = sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite database: %w", err)
		}
		// one writer at a time
		db.SetMaxOpenConns(1)
	case "mysql":
		// DSN: username:password@protocol(address)/dbname?param=value
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.DBName)
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open database connection: %w", err)
		}
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := NewStore(db, log)
	if err != nil {
		db.Close()
		return nil, err
	}
	store.logger.Info("Connected to provenance database", logger.String("driver", cfg.Driver))
	return store, nil
}

// NewStore wraps an open handle and creates the tables if needed.
func NewStore(db *sql.DB, log *logger.Logger) (*Store, error) {
	s := &Store{db: db, logger: log.Named("database")}
	if err := s.initDB(); err != nil {
		return nil, err
	}
	return s, nil
}

// Statements are kept to the subset MySQL and SQLite both accept.
func (s *Store) initDB() error {
	tables := []string{
		`CREATE TABLE IF NOT EXISTS data_source_versions (
			source_name VARCHAR(64) NOT NULL PRIMARY KEY,
			source_url TEXT NOT NULL,
			cache_path TEXT NOT NULL,
			byte_count BIGINT NOT NULL,
			data_hash VARCHAR(64) NOT NULL,
			row_count INTEGER NOT NULL,
			last_downloaded_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS autofill_runs (
			run_id VARCHAR(36) NOT NULL PRIMARY KEY,
			ran_at BIGINT NOT NULL,
			missing_codes TEXT NOT NULL,
			added_codes TEXT NOT NULL,
			unresolved_codes TEXT NOT NULL
		)`,
	}
	for _, stmt := range tables {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	return nil
}

// Ping checks the connection. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.logger.Debug("Database connection closed")
	return s.db.Close()
}
