package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	switch c.Inventory.Source {
	case SourceHTTP:
		if c.Inventory.BaseURL == "" {
			return errors.New("inventory.base_url is required")
		}
		if c.Inventory.Auth != "" && !strings.Contains(c.Inventory.Auth, ":") {
			return errors.New("inventory.auth must be in the form user:password")
		}
	case SourcePostgres:
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	default:
		return fmt.Errorf("inventory.source must be %q or %q, got %q", SourceHTTP, SourcePostgres, c.Inventory.Source)
	}

	if c.Inventory.RefreshInterval <= 0 {
		return errors.New("inventory.refresh_interval must be > 0")
	}

	if c.Redis.Distributed {
		if c.Redis.URL == "" {
			return errors.New("redis.url is required when redis.distributed is set")
		}
		if c.Redis.PodID == "" {
			return errors.New("redis.pod_id is required when redis.distributed is set")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
