package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for hearthctl.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Hub     HubConfig     `yaml:"hub"`
	Relay   RelayConfig   `yaml:"relay"`
	Logging LoggingConfig `yaml:"logging"`
}

// HubConfig contains connection settings for the Hearth hub.
type HubConfig struct {
	// Endpoint is the hub's advertised HTTP address, host:port.
	// The WebSocket endpoint is derived by appending the fixed API path.
	Endpoint string `yaml:"endpoint"`

	// Token is the long-lived bearer token used for both REST and
	// WebSocket authentication. Usually supplied via HEARTHCTL_HUB_TOKEN
	// or a .env file rather than the YAML file itself.
	Token string `yaml:"token"`

	// TLS enables https/wss when talking to the hub.
	TLS bool `yaml:"tls"`

	// Timeouts for hub communication (seconds).
	Timeouts HubTimeoutConfig `yaml:"timeouts"`
}

// HubTimeoutConfig contains hub communication timeout settings.
type HubTimeoutConfig struct {
	Connect int `yaml:"connect"`
	Request int `yaml:"request"`
}

// RelayConfig contains settings for the event relay pipeline.
type RelayConfig struct {
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	History  HistoryConfig  `yaml:"history"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// InfluxDBConfig contains InfluxDB connection settings for state telemetry.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// HistoryConfig contains local SQLite state history settings.
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`

	// RetentionDays is how long the relay keeps history rows before
	// pruning them. Zero disables pruning.
	RetentionDays int `yaml:"retention_days"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. .env file in the working directory, if present (loaded into the environment)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: HEARTHCTL_SECTION_KEY
// For example: HEARTHCTL_HUB_ENDPOINT, HEARTHCTL_HUB_TOKEN
//
// Parameters:
//   - path: Path to the YAML configuration file; empty skips the file
//     and uses defaults plus environment overrides only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := defaultConfig()

	// Read and parse YAML file when one is given
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Pull in a .env file when present so tokens never need to live in
	// the YAML file. Missing .env is not an error; godotenv never
	// overrides variables already set in the environment.
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Hub: HubConfig{
			Endpoint: "localhost:8123",
			Timeouts: HubTimeoutConfig{
				Connect: 10,
				Request: 30,
			},
		},
		Relay: RelayConfig{
			MQTT: MQTTConfig{
				Broker: MQTTBrokerConfig{
					Host:     "localhost",
					Port:     1883,
					ClientID: "hearthctl-relay",
				},
				QoS: 1,
				Reconnect: MQTTReconnectConfig{
					InitialDelay: 1,
					MaxDelay:     60,
				},
			},
			InfluxDB: InfluxDBConfig{
				BatchSize:     100,
				FlushInterval: 10,
			},
			History: HistoryConfig{
				Path:          "./data/hearthctl.db",
				RetentionDays: 30,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HEARTHCTL_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Hub
	if v := os.Getenv("HEARTHCTL_HUB_ENDPOINT"); v != "" {
		cfg.Hub.Endpoint = v
	}
	if v := os.Getenv("HEARTHCTL_HUB_TOKEN"); v != "" {
		cfg.Hub.Token = v
	}
	if v := os.Getenv("HEARTHCTL_HUB_TLS"); v != "" {
		cfg.Hub.TLS = v == "true" || v == "1"
	}

	// MQTT
	if v := os.Getenv("HEARTHCTL_MQTT_HOST"); v != "" {
		cfg.Relay.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HEARTHCTL_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Relay.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("HEARTHCTL_MQTT_USERNAME"); v != "" {
		cfg.Relay.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HEARTHCTL_MQTT_PASSWORD"); v != "" {
		cfg.Relay.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("HEARTHCTL_INFLUXDB_TOKEN"); v != "" {
		cfg.Relay.InfluxDB.Token = v
	}

	// History
	if v := os.Getenv("HEARTHCTL_HISTORY_PATH"); v != "" {
		cfg.Relay.History.Path = v
	}

	// Logging
	if v := os.Getenv("HEARTHCTL_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Hub validation
	if c.Hub.Endpoint == "" {
		errs = append(errs, "hub.endpoint is required")
	}
	if c.Hub.Token == "" {
		errs = append(errs, "hub.token is required (set HEARTHCTL_HUB_TOKEN environment variable)")
	}

	// Relay validation
	if c.Relay.MQTT.QoS < 0 || c.Relay.MQTT.QoS > 2 {
		errs = append(errs, "relay.mqtt.qos must be 0, 1, or 2")
	}
	if c.Relay.MQTT.Enabled && c.Relay.MQTT.Broker.Host == "" {
		errs = append(errs, "relay.mqtt.broker.host is required when mqtt is enabled")
	}
	if c.Relay.InfluxDB.Enabled {
		if c.Relay.InfluxDB.URL == "" {
			errs = append(errs, "relay.influxdb.url is required when influxdb is enabled")
		}
		if c.Relay.InfluxDB.Bucket == "" {
			errs = append(errs, "relay.influxdb.bucket is required when influxdb is enabled")
		}
	}
	if c.Relay.History.Enabled && c.Relay.History.Path == "" {
		errs = append(errs, "relay.history.path is required when history is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the hub connect timeout as a Duration.
func (c *Config) GetConnectTimeout() time.Duration {
	return time.Duration(c.Hub.Timeouts.Connect) * time.Second
}

// GetRequestTimeout returns the hub request timeout as a Duration.
func (c *Config) GetRequestTimeout() time.Duration {
	return time.Duration(c.Hub.Timeouts.Request) * time.Second
}
