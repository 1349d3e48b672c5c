package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "SOUNDWAVE_"

// Config represents the application configuration loaded from a TOML file
// and overridden by SOUNDWAVE_* environment variables.
type Config struct {
	API           APIConfig           `toml:"api" envPrefix:"API_"`
	Storage       StorageConfig       `toml:"storage" envPrefix:"STORAGE_"`
	Notifications NotificationsConfig `toml:"notifications" envPrefix:"NOTIFY_"`
	Log           LogConfig           `toml:"log" envPrefix:"LOG_"`
}

// APIConfig locates the catalogue REST API.
type APIConfig struct {
	BaseURL        string `toml:"base_url" env:"BASE_URL"`
	TimeoutSeconds int    `toml:"timeout_seconds" env:"TIMEOUT_SECONDS"`
}

// StorageConfig selects where session tokens persist.
type StorageConfig struct {
	Driver       string `toml:"driver" env:"DRIVER"`
	Path         string `toml:"path" env:"PATH"`
	MaxOpenConns int    `toml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	RedisAddr    string `toml:"redis_addr" env:"REDIS_ADDR"`
	RedisDB      int    `toml:"redis_db" env:"REDIS_DB"`
	RedisPrefix  string `toml:"redis_prefix" env:"REDIS_PREFIX"`
}

// NotificationsConfig describes the live "new album" subscription.
type NotificationsConfig struct {
	Broker           string `toml:"broker" env:"BROKER"`
	URL              string `toml:"url" env:"URL"`
	Topic            string `toml:"topic" env:"TOPIC"`
	ReconnectDelayMS int    `toml:"reconnect_delay_ms" env:"RECONNECT_DELAY_MS"`
	HeartbeatMS      int    `toml:"heartbeat_ms" env:"HEARTBEAT_MS"`
	DwellMS          int    `toml:"dwell_ms" env:"DWELL_MS"`
}

// LogConfig controls log level and the TUI log file.
type LogConfig struct {
	Level string `toml:"level" env:"LEVEL"`
	File  string `toml:"file" env:"FILE"`
}

// Storage drivers
const (
	StorageSQLite = "sqlite"
	StorageRedis  = "redis"
	StorageMemory = "memory"
)

// Broker kinds
const (
	BrokerSTOMP = "stomp"
	BrokerMQTT  = "mqtt"
)

func (c APIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c NotificationsConfig) ReconnectDelay() time.Duration {
	return time.Duration(c.ReconnectDelayMS) * time.Millisecond
}

func (c NotificationsConfig) Heartbeat() time.Duration {
	return time.Duration(c.HeartbeatMS) * time.Millisecond
}

func (c NotificationsConfig) Dwell() time.Duration {
	return time.Duration(c.DwellMS) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ApplyEnv overlays SOUNDWAVE_* environment variables onto c.
func ApplyEnv(c *Config) error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate reports the first setting that would keep the client from starting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}

	switch c.Storage.Driver {
	case StorageSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("%w: storage.path is required for sqlite", ErrInvalidConfig)
		}
	case StorageRedis:
		if c.Storage.RedisAddr == "" {
			return fmt.Errorf("%w: storage.redis_addr is required for redis", ErrInvalidConfig)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("%w: unknown storage driver %q", ErrInvalidConfig, c.Storage.Driver)
	}

	switch c.Notifications.Broker {
	case BrokerSTOMP, BrokerMQTT:
	default:
		return fmt.Errorf("%w: unknown broker %q", ErrInvalidConfig, c.Notifications.Broker)
	}

	if c.Notifications.ReconnectDelayMS <= 0 || c.Notifications.DwellMS <= 0 {
		return fmt.Errorf("%w: notification delays must be positive", ErrInvalidConfig)
	}
	if c.Notifications.HeartbeatMS < 0 {
		return fmt.Errorf("%w: notifications.heartbeat_ms must not be negative", ErrInvalidConfig)
	}

	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
