package config

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SecretStore abstracts where sensitive values come from so production
// deployments can swap the environment for a real secret manager.
type SecretStore interface {
	Get(ctx context.Context, key string) (string, error)
	GetWithDefault(ctx context.Context, key, def string) string
}

// EnvironmentSecretStore reads secrets from process environment variables.
type EnvironmentSecretStore struct{}

func NewEnvironmentSecretStore() *EnvironmentSecretStore {
	return &EnvironmentSecretStore{}
}

func (s *EnvironmentSecretStore) Get(_ context.Context, key string) (string, error) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", fmt.Errorf("secret %s not found in environment", key)
	}
	return value, nil
}

func (s *EnvironmentSecretStore) GetWithDefault(ctx context.Context, key, def string) string {
	value, err := s.Get(ctx, key)
	if err != nil {
		return def
	}
	return value
}

// LoadSecretsFromEnv pulls sensitive values from the environment into the
// config. Called in production so secrets never need to appear in config
// files.
func (c *Config) LoadSecretsFromEnv(ctx context.Context) error {
	store := NewEnvironmentSecretStore()

	if dsn := store.GetWithDefault(ctx, "DYNPOINTS_SECRET_SQL_DSN", ""); dsn != "" {
		c.Storage.SQL.DSN = dsn
	}
	if pw := store.GetWithDefault(ctx, "DYNPOINTS_SECRET_REDIS_PASSWORD", ""); pw != "" {
		c.Storage.Redis.Password = pw
	}
	if keys := store.GetWithDefault(ctx, "DYNPOINTS_SECRET_API_KEYS", ""); keys != "" {
		parts := strings.Split(keys, ",")
		c.Security.APIKeys = c.Security.APIKeys[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				c.Security.APIKeys = append(c.Security.APIKeys, p)
			}
		}
	}

	if c.Storage.Adapter == "sql" && c.Storage.SQL.DSN == "" {
		return fmt.Errorf("sql storage selected but no DSN configured (set DYNPOINTS_SECRET_SQL_DSN)")
	}
	return nil
}
