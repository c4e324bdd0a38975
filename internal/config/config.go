// Package config loads the quote service configuration from YAML.
package config

import "time"

// Config is the top-level configuration of the quote service.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Inventory InventoryConfig `yaml:"inventory"`
	Redis     RedisConfig     `yaml:"redis"`
	Database  DBConfig        `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// InventoryConfig selects where rate records and contracts come from.
// Source is "http" or "postgres".
type InventoryConfig struct {
	Source          string        `yaml:"source"`
	BaseURL         string        `yaml:"base_url"`
	Auth            string        `yaml:"auth"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	FetchTimeout    time.Duration `yaml:"fetch_timeout"`
}

// RedisConfig enables the shared backup and, when Distributed is set, leader election.
type RedisConfig struct {
	URL          string        `yaml:"url"`
	Distributed  bool          `yaml:"distributed"`
	PodID        string        `yaml:"pod_id"`
	LeaderTTL    time.Duration `yaml:"leader_ttl"`
	SyncInterval time.Duration `yaml:"sync_interval"`
}

// DBConfig holds Postgres connection settings.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
}
