package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the factory telemetry
// publisher and subscribers.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Factory    FactoryConfig    `yaml:"factory"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Subscriber SubscriberConfig `yaml:"subscriber"`
	Database   DatabaseConfig   `yaml:"database"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	API        APIConfig        `yaml:"api"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// FactoryConfig contains simulation settings.
type FactoryConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`

	// StepSeconds is the simulated time added by every tick.
	StepSeconds int `yaml:"step_seconds"`

	// Interval is the wall-clock time between ticks (seconds).
	Interval int `yaml:"interval"`

	// Seed fixes the noise generator. 0 seeds from the clock.
	Seed uint64 `yaml:"seed"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	TLS       MQTTTLSConfig       `yaml:"tls"`
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

// MQTTTLSConfig contains the certificate material for mutual TLS.
// The broker identifies the client (and applies its ACL) by the client
// certificate.
type MQTTTLSConfig struct {
	CAFile   string `yaml:"ca_file"`
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
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
	MaxAttempts  int `yaml:"max_attempts"`
}

// SubscriberConfig contains settings for the role-scoped subscriber.
type SubscriberConfig struct {
	// Role selects the subscription profile: "director" or "operator".
	Role string `yaml:"role"`
}

// DatabaseConfig contains SQLite settings for the session journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains the status HTTP server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
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
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: FACTORY_SECTION_KEY
// For example: FACTORY_MQTT_HOST, FACTORY_SUBSCRIBER_ROLE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
// It matches the reference docker-compose deployment: broker "mosquitto" on
// 8883 with mutual TLS, certificates under /certs.
func Default() *Config {
	return &Config{
		Factory: FactoryConfig{
			ID:          "factory-001",
			Name:        "Factory",
			StepSeconds: 3,
			Interval:    3,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "mosquitto",
				Port:     8883,
				TLS:      true,
				ClientID: "publisher-sensors",
			},
			TLS: MQTTTLSConfig{
				CAFile:   "/certs/ca.crt",
				CertFile: "/certs/publisher.crt",
				KeyFile:  "/certs/publisher.key",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 3,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Subscriber: SubscriberConfig{
			Role: "director",
		},
		Database: DatabaseConfig{
			Enabled:     false,
			Path:        "./data/telemetry.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		API: APIConfig{
			Enabled: false,
			Host:    "0.0.0.0",
			Port:    8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: FACTORY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// MQTT
	if v := os.Getenv("FACTORY_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("FACTORY_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("FACTORY_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("FACTORY_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("FACTORY_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}
	if v := os.Getenv("FACTORY_MQTT_CA_FILE"); v != "" {
		cfg.MQTT.TLS.CAFile = v
	}
	if v := os.Getenv("FACTORY_MQTT_CERT_FILE"); v != "" {
		cfg.MQTT.TLS.CertFile = v
	}
	if v := os.Getenv("FACTORY_MQTT_KEY_FILE"); v != "" {
		cfg.MQTT.TLS.KeyFile = v
	}

	// Subscriber
	if v := os.Getenv("FACTORY_SUBSCRIBER_ROLE"); v != "" {
		cfg.Subscriber.Role = v
	}

	// Database
	if v := os.Getenv("FACTORY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("FACTORY_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("FACTORY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Factory validation
	if c.Factory.ID == "" {
		errs = append(errs, "factory.id is required")
	}
	if c.Factory.StepSeconds < 1 {
		errs = append(errs, "factory.step_seconds must be at least 1")
	}
	if c.Factory.Interval < 1 {
		errs = append(errs, "factory.interval must be at least 1")
	}

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Broker.TLS && c.MQTT.TLS.CAFile == "" {
		errs = append(errs, "mqtt.tls.ca_file is required when mqtt.broker.tls is true")
	}
	if (c.MQTT.TLS.CertFile == "") != (c.MQTT.TLS.KeyFile == "") {
		errs = append(errs, "mqtt.tls.cert_file and mqtt.tls.key_file must be set together")
	}

	// Subscriber validation
	switch strings.ToLower(c.Subscriber.Role) {
	case "director", "operator":
	default:
		errs = append(errs, "subscriber.role must be director or operator")
	}

	// Database validation
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database.enabled is true")
	}

	// InfluxDB validation
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb.enabled is true")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb.enabled is true")
		}
	}

	// API validation
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// TickInterval returns the wall-clock time between ticks.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Factory.Interval) * time.Second
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
