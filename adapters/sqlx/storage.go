package sqlx

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// SQL drivers for the supported dialects.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Driver identifies the SQL dialect in use.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the engine.MetaStore interface on a SQL database.
// Expected schema:
//
//	CREATE TABLE rule_meta (
//	    rule_id    TEXT NOT NULL,
//	    meta_key   TEXT NOT NULL,
//	    value      TEXT NOT NULL,
//	    created_at TIMESTAMP NOT NULL,
//	    updated_at TIMESTAMP NOT NULL,
//	    PRIMARY KEY (rule_id, meta_key)
//	)
type Store struct {
	db *sqlx.DB
}

// New opens a database connection for the configured driver
func New(config Config) (*Store, error) {
	if config.DSN == "" {
		return nil, errors.New("sql dsn is required")
	}
	db, err := sqlx.Connect(string(config.Driver), config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)
	return &Store{db: db}, nil
}

// NewWithDB wraps an existing database handle (useful for testing)
func NewWithDB(db *sqlx.DB, _ Driver) *Store {
	return &Store{db: db}
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// PutMeta inserts or updates one metadata entry
func (s *Store) PutMeta(ctx context.Context, ruleID, key string, value map[string]any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode meta entry: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists bool
	query := tx.Rebind(`SELECT EXISTS(SELECT 1 FROM rule_meta WHERE rule_id = ? AND meta_key = ?)`)
	if err := tx.GetContext(ctx, &exists, query, ruleID, key); err != nil {
		return fmt.Errorf("failed to check meta entry: %w", err)
	}

	now := time.Now().UTC()
	if exists {
		query = tx.Rebind(`UPDATE rule_meta SET value = ?, updated_at = ? WHERE rule_id = ? AND meta_key = ?`)
		_, err = tx.ExecContext(ctx, query, string(data), now, ruleID, key)
	} else {
		query = tx.Rebind(`INSERT INTO rule_meta (rule_id, meta_key, value, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)
		_, err = tx.ExecContext(ctx, query, ruleID, key, string(data), now, now)
	}
	if err != nil {
		return fmt.Errorf("failed to write meta entry: %w", err)
	}
	return tx.Commit()
}

// GetMeta retrieves one metadata entry; the second return is false when it
// does not exist
func (s *Store) GetMeta(ctx context.Context, ruleID, key string) (map[string]any, bool, error) {
	var data string
	query := s.db.Rebind(`SELECT value FROM rule_meta WHERE rule_id = ? AND meta_key = ?`)
	err := s.db.GetContext(ctx, &data, query, ruleID, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read meta entry: %w", err)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(data), &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode meta entry: %w", err)
	}
	return entry, true, nil
}

// DeleteMeta removes one metadata entry
func (s *Store) DeleteMeta(ctx context.Context, ruleID, key string) error {
	query := s.db.Rebind(`DELETE FROM rule_meta WHERE rule_id = ? AND meta_key = ?`)
	if _, err := s.db.ExecContext(ctx, query, ruleID, key); err != nil {
		return fmt.Errorf("failed to delete meta entry: %w", err)
	}
	return nil
}

// ListRules returns the distinct rule ids holding metadata
func (s *Store) ListRules(ctx context.Context) ([]string, error) {
	var rules []string
	if err := s.db.SelectContext(ctx, &rules, `SELECT DISTINCT rule_id FROM rule_meta ORDER BY rule_id`); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rules, nil
}
