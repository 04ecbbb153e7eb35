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

// Supported database drivers.
const (
	// DriverMySQL reaches the remote MySQL store through an SSH tunnel.
	DriverMySQL = "mysql"

	// DriverSQLite uses a local SQLite file (development mirror of the remote schema).
	DriverSQLite = "sqlite3"
)

// Config is the root configuration structure for Pool Watch Core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API      APIConfig      `yaml:"api"`
	SSH      SSHConfig      `yaml:"ssh"`
	Database DatabaseConfig `yaml:"database"`
	Schema   SchemaConfig   `yaml:"schema"`
	Session  SessionConfig  `yaml:"session"`
	Debug    DebugConfig    `yaml:"debug"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	Logging  LoggingConfig  `yaml:"logging"`
	Security SecurityConfig `yaml:"security"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`

	// ExposeErrors returns the underlying error text in 500 responses.
	// Useful while developing against the remote store; disable in production.
	ExposeErrors bool `yaml:"expose_errors"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
// An empty AllowedOrigins list allows every origin.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials"`
}

// SSHConfig contains the SSH tunnel settings used to reach the remote database host.
type SSHConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// RemoteHost and RemotePort are resolved on the SSH server side.
	RemoteHost string `yaml:"remote_host"`
	RemotePort int    `yaml:"remote_port"`

	// HostKey is an optional authorized_keys-format public key used to verify the server.
	// When empty the host key is not verified.
	HostKey string `yaml:"host_key"`
}

// DatabaseConfig contains relational store settings.
type DatabaseConfig struct {
	// Driver is "mysql" (remote, via SSH tunnel) or "sqlite3" (local file).
	Driver   string `yaml:"driver"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`

	// Path is the SQLite file path (sqlite3 driver only).
	Path string `yaml:"path"`

	// ConnectTimeout bounds tunnel + connection establishment (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	// QueryTimeout bounds all queries issued for a single request (seconds).
	QueryTimeout int `yaml:"query_timeout"`
}

// SchemaConfig maps the remote table and column names.
type SchemaConfig struct {
	UsersTable           string `yaml:"users_table"`
	UserControllersTable string `yaml:"user_controllers_table"`
	ControllersTable     string `yaml:"controllers_table"`
	SensorsTable         string `yaml:"sensors_table"`
	SensorValuesTable    string `yaml:"sensor_values_table"`

	UserIDColumn     string `yaml:"user_id_column"`
	ControllerColumn string `yaml:"controller_column"`
	SensorColumn     string `yaml:"sensor_column"`
	TimestampColumn  string `yaml:"timestamp_column"`
	ValueColumn      string `yaml:"value_column"`

	// EmailColumn names the Users column holding the login email.
	// When empty the first column whose name contains "mail" is used.
	EmailColumn string `yaml:"email_column"`
}

// SessionConfig contains session lifetime settings.
type SessionConfig struct {
	TTLHours int `yaml:"ttl_hours"`

	// SweepInterval removes expired sessions periodically (seconds). 0 disables the sweep.
	SweepInterval int `yaml:"sweep_interval"`
}

// DebugConfig contains diagnostic settings.
type DebugConfig struct {
	// DumpPath receives the payload of every successful check-user. Empty disables it.
	DumpPath string `yaml:"dump_path"`
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

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// SecurityConfig contains security settings.
type SecurityConfig struct {
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig contains rate limiting settings for the check-user endpoint.
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. .env file in the working directory, if present (never overrides the real environment)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: POOLWATCH_SECTION_KEY
// For example: POOLWATCH_SSH_PASSWORD, POOLWATCH_API_PORT
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// A missing .env is the normal case in production.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("loading .env file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8000,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 60,
				Idle:  60,
			},
			CORS: CORSConfig{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"*"},
				AllowedHeaders:   []string{"*"},
				AllowCredentials: true,
			},
			ExposeErrors: true,
		},
		SSH: SSHConfig{
			Port:       22,
			RemoteHost: "127.0.0.1",
			RemotePort: 3306,
		},
		Database: DatabaseConfig{
			Driver:         DriverMySQL,
			Path:           "./data/poolwatch.db",
			ConnectTimeout: 15,
			QueryTimeout:   30,
		},
		Schema: SchemaConfig{
			UsersTable:           "Users",
			UserControllersTable: "UserControllers",
			ControllersTable:     "Controllers",
			SensorsTable:         "Sensors",
			SensorValuesTable:    "SensorValues",
			UserIDColumn:         "UserId",
			ControllerColumn:     "CtrlId",
			SensorColumn:         "SensorId",
			TimestampColumn:      "Timestamp",
			ValueColumn:          "Value",
		},
		Session: SessionConfig{
			TTLHours:      24,
			SweepInterval: 600,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "poolwatch-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: SecurityConfig{
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerMinute: 60,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: POOLWATCH_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("POOLWATCH_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("POOLWATCH_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}

	// SSH tunnel (credentials belong in the environment, not in the YAML file)
	if v := os.Getenv("POOLWATCH_SSH_HOST"); v != "" {
		cfg.SSH.Host = v
	}
	if v := os.Getenv("POOLWATCH_SSH_USER"); v != "" {
		cfg.SSH.User = v
	}
	if v := os.Getenv("POOLWATCH_SSH_PASSWORD"); v != "" {
		cfg.SSH.Password = v
	}

	// Database
	if v := os.Getenv("POOLWATCH_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("POOLWATCH_DATABASE_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("POOLWATCH_DATABASE_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("POOLWATCH_DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("POOLWATCH_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Debug
	if v := os.Getenv("POOLWATCH_DEBUG_DUMP_PATH"); v != "" {
		cfg.Debug.DumpPath = v
	}

	// MQTT
	if v := os.Getenv("POOLWATCH_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("POOLWATCH_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("POOLWATCH_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("POOLWATCH_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	switch c.Database.Driver {
	case DriverMySQL:
		if c.SSH.Host == "" {
			errs = append(errs, "ssh.host is required for the mysql driver (set POOLWATCH_SSH_HOST)")
		}
		if c.SSH.User == "" {
			errs = append(errs, "ssh.user is required for the mysql driver (set POOLWATCH_SSH_USER)")
		}
		if c.SSH.Port < 1 || c.SSH.Port > 65535 {
			errs = append(errs, "ssh.port must be between 1 and 65535")
		}
		if c.SSH.RemotePort < 1 || c.SSH.RemotePort > 65535 {
			errs = append(errs, "ssh.remote_port must be between 1 and 65535")
		}
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required for the mysql driver")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite3 driver")
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be %q or %q", DriverMySQL, DriverSQLite))
	}

	if c.Session.TTLHours <= 0 {
		errs = append(errs, "session.ttl_hours must be positive")
	}
	if c.Session.SweepInterval < 0 {
		errs = append(errs, "session.sweep_interval must not be negative")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if c.Security.RateLimit.Enabled && c.Security.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, "security.rate_limit.requests_per_minute must be positive when enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
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

// SessionTTL returns the session lifetime as a Duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLHours) * time.Hour
}

// SessionSweepInterval returns the expired-session sweep interval. Zero disables the sweep.
func (c *Config) SessionSweepInterval() time.Duration {
	return time.Duration(c.Session.SweepInterval) * time.Second
}

// ConnectTimeout returns the tunnel/connection establishment bound as a Duration.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Database.ConnectTimeout) * time.Second
}

// QueryTimeout returns the per-request query bound as a Duration.
func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Database.QueryTimeout) * time.Second
}
