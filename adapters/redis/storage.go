package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements the engine.MetaStore interface using Redis as the backend.
// Data structure:
// - rule:{rule_id}:meta -> hash of meta key to JSON-encoded settings entry
type Store struct {
	client *redis.Client
}

// New creates a new Redis-backed store with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

// ruleMetaKey generates the Redis key for a rule's metadata hash
func ruleMetaKey(ruleID string) string {
	return fmt.Sprintf("rule:%s:meta", ruleID)
}

// PutMeta stores one metadata entry as JSON inside the rule's hash
func (s *Store) PutMeta(ctx context.Context, ruleID, key string, value map[string]any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode meta entry: %w", err)
	}
	if err := s.client.HSet(ctx, ruleMetaKey(ruleID), key, data).Err(); err != nil {
		return fmt.Errorf("failed to store meta entry: %w", err)
	}
	return nil
}

// GetMeta retrieves one metadata entry; the second return is false when the
// rule or key does not exist
func (s *Store) GetMeta(ctx context.Context, ruleID, key string) (map[string]any, bool, error) {
	data, err := s.client.HGet(ctx, ruleMetaKey(ruleID), key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read meta entry: %w", err)
	}
	var entry map[string]any
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, false, fmt.Errorf("failed to decode meta entry: %w", err)
	}
	return entry, true, nil
}

// DeleteMeta removes one metadata entry and the hash when it empties
func (s *Store) DeleteMeta(ctx context.Context, ruleID, key string) error {
	if err := s.client.HDel(ctx, ruleMetaKey(ruleID), key).Err(); err != nil {
		return fmt.Errorf("failed to delete meta entry: %w", err)
	}
	return nil
}

// ListRules returns the rule ids that currently hold metadata
func (s *Store) ListRules(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, "rule:*:meta").Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		id := strings.TrimSuffix(strings.TrimPrefix(key, "rule:"), ":meta")
		if id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
