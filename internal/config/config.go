// Package config loads matchengine's configuration from a YAML file with
// MATCHCORE_*-prefixed environment variable overrides. Modeled on the
// polymarket-mm example's config.Load: a viper.New instance with
// SetEnvPrefix/AutomaticEnv, a mapstructure-tagged struct, and a Validate
// pass for fields that have no sane zero-value default.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level matchengine configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Venue   VenueConfig   `mapstructure:"venue"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls the matchserver TCP front end.
type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	WorkerPoolSize  int           `mapstructure:"worker_pool_size"`
	HeartbeatPeriod time.Duration `mapstructure:"heartbeat_period"`
	MetricsAddress  string        `mapstructure:"metrics_address"`
}

// VenueConfig controls the venue feed client.
type VenueConfig struct {
	WebsocketURL  string        `mapstructure:"websocket_url"`
	Symbol        string        `mapstructure:"symbol"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// LoggingConfig controls zerolog output.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("server.address", ":7000")
	v.SetDefault("server.worker_pool_size", 8)
	v.SetDefault("server.heartbeat_period", 30*time.Second)
	v.SetDefault("server.metrics_address", ":9090")
	v.SetDefault("venue.reconnect_wait", 2*time.Second)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.pretty", false)
}

// Load reads config from path, a YAML file, with env var overrides prefixed
// MATCHCORE_ (e.g. MATCHCORE_SERVER_ADDRESS).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("MATCHCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	defaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Validate checks required fields that have no safe zero-value default.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return fmt.Errorf("server.address is required")
	}
	if c.Server.WorkerPoolSize <= 0 {
		return fmt.Errorf("server.worker_pool_size must be > 0")
	}
	if c.Venue.WebsocketURL == "" {
		return fmt.Errorf("venue.websocket_url is required")
	}
	if c.Venue.Symbol == "" {
		return fmt.Errorf("venue.symbol is required")
	}
	return nil
}
