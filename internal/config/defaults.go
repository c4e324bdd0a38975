package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultServerAddr      = ":8080"
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultInventorySource = SourceHTTP
	DefaultRefreshInterval = 15 * time.Minute
	DefaultFetchTimeout    = 30 * time.Second
	DefaultLeaderTTL       = 30 * time.Second
	DefaultSyncInterval    = 30 * time.Second
	DefaultDBPort          = 5432
	DefaultDBSSLMode       = "prefer"
	DefaultMaxConns        = 10
	DefaultMinConns        = 2
	DefaultLogLevel        = "info"
)

// Inventory sources.
const (
	SourceHTTP     = "http"
	SourcePostgres = "postgres"
)

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Inventory.Source == "" {
		c.Inventory.Source = DefaultInventorySource
	}
	if c.Inventory.RefreshInterval == 0 {
		c.Inventory.RefreshInterval = DefaultRefreshInterval
	}
	if c.Inventory.FetchTimeout == 0 {
		c.Inventory.FetchTimeout = DefaultFetchTimeout
	}

	if c.Redis.LeaderTTL == 0 {
		c.Redis.LeaderTTL = DefaultLeaderTTL
	}
	if c.Redis.SyncInterval == 0 {
		c.Redis.SyncInterval = DefaultSyncInterval
	}

	if c.Inventory.Source == SourcePostgres {
		applyDBDefaults(&c.Database)
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
