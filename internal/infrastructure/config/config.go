package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Transport names accepted in the transports list.
const (
	TransportRelay    = "relay"
	TransportMQTT     = "mqtt"
	TransportInfluxDB = "influxdb"
	TransportKafka    = "kafka"
	TransportSMS      = "sms"
)

// Storage backend names.
const (
	StorageBackendFS     = "fs"
	StorageBackendSQLite = "sqlite"
)

// Config is the root configuration structure for a Gray Logic sensor node.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Node       NodeConfig     `yaml:"node"`
	Schedule   ScheduleConfig `yaml:"schedule"`
	Quiet      QuietConfig    `yaml:"quiet"`
	Storage    StorageConfig  `yaml:"storage"`
	Queue      QueueConfig    `yaml:"queue"`
	Transports []string       `yaml:"transports"`
	Relay      RelayConfig    `yaml:"relay"`
	MQTT       MQTTConfig     `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig `yaml:"influxdb"`
	Kafka      KafkaConfig    `yaml:"kafka"`
	SMS        SMSConfig      `yaml:"sms"`
	Database   DatabaseConfig `yaml:"database"`
	Sensor     SensorConfig   `yaml:"sensor"`
	Logging    LoggingConfig  `yaml:"logging"`
}

// NodeConfig identifies this node to the collector.
type NodeConfig struct {
	ID          string `yaml:"id"`
	CellID      string `yaml:"cell_id"`
	Hub         string `yaml:"hub"`
	CodeVersion string `yaml:"code_version"`
}

// ScheduleConfig contains wake cycle timing. Intervals are in seconds.
type ScheduleConfig struct {
	// ReadingInterval is the normal sleep between wake cycles.
	ReadingInterval int `yaml:"reading_interval"`

	// ClockRetryInterval is the short sleep used when the clock is not trustworthy.
	ClockRetryInterval int `yaml:"clock_retry_interval"`

	// MinPlausibleTime is a unix timestamp; any clock reading before it is
	// treated as unsynchronised.
	MinPlausibleTime int64 `yaml:"min_plausible_time"`
}

// QuietConfig contains battery-trend throttling settings.
type QuietConfig struct {
	// Margin is the voltage rise above the low-water mark that counts as charging.
	Margin float64 `yaml:"margin"`

	// Sleep is the long hibernation interval in seconds while quiet.
	Sleep int `yaml:"sleep"`
}

// StorageConfig selects and configures the persistent record store.
type StorageConfig struct {
	Backend   string `yaml:"backend"`
	Dir       string `yaml:"dir"`
	Extension string `yaml:"extension"`
	LogRecord string `yaml:"log_record"`
}

// QueueConfig contains backlog drain settings.
type QueueConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// RelayConfig contains the HTTP collector settings.
type RelayConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`

	// ConnectTimeout is the maximum time in seconds to wait for the broker.
	ConnectTimeout int `yaml:"connect_timeout"`
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

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	URL    string `yaml:"url"`
	Token  string `yaml:"token"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// KafkaConfig contains Kafka producer settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
	Timeout int      `yaml:"timeout"`
}

// SMSConfig contains SMS fallback settings.
type SMSConfig struct {
	Number    string `yaml:"number"`
	BatchSize int    `yaml:"batch_size"`

	// Spool is the smsd outbox directory texts are dropped into.
	Spool string `yaml:"spool"`
}

// DatabaseConfig contains SQLite settings for the sqlite storage backend.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// SensorConfig points the host sensor source at its sample file.
type SensorConfig struct {
	Path string `yaml:"path"`
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
// Environment variables follow the pattern: GRAYLOGIC_NODE_SECTION_KEY
// For example: GRAYLOGIC_NODE_STORAGE_DIR, GRAYLOGIC_NODE_RELAY_URL
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

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Node: NodeConfig{
			ID:          "node-001",
			Hub:         "featherhub",
			CodeVersion: "dev",
		},
		Schedule: ScheduleConfig{
			ReadingInterval:    900,
			ClockRetryInterval: 60,
			MinPlausibleTime:   1640995200, // 2022-01-01T00:00:00Z
		},
		Quiet: QuietConfig{
			Margin: 0.06,
			Sleep:  4 * 3600,
		},
		Storage: StorageConfig{
			Backend:   StorageBackendFS,
			Dir:       "./data",
			Extension: "txt",
			LogRecord: "temperature",
		},
		Queue: QueueConfig{
			BatchSize: 10,
		},
		Transports: []string{TransportRelay},
		Relay: RelayConfig{
			URL:     "http://relay.heatseek.org/temperatures",
			Timeout: 15,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "graylogic-node",
			},
			QoS:            1,
			ConnectTimeout: 10,
		},
		Kafka: KafkaConfig{
			Topic:   "graylogic.node.readings",
			Timeout: 10,
		},
		SMS: SMSConfig{
			BatchSize: 3,
			Spool:     "/var/spool/gammu/outbox",
		},
		Database: DatabaseConfig{
			Path:        "./data/node.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Sensor: SensorConfig{
			Path: "./data/sensor.json",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYLOGIC_NODE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYLOGIC_NODE_ID"); v != "" {
		cfg.Node.ID = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_CELL_ID"); v != "" {
		cfg.Node.CellID = v
	}

	if v := os.Getenv("GRAYLOGIC_NODE_READING_INTERVAL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Schedule.ReadingInterval = n
		}
	}

	if v := os.Getenv("GRAYLOGIC_NODE_STORAGE_DIR"); v != "" {
		cfg.Storage.Dir = v
	}

	if v := os.Getenv("GRAYLOGIC_NODE_TRANSPORTS"); v != "" {
		cfg.Transports = splitList(v)
	}

	if v := os.Getenv("GRAYLOGIC_NODE_RELAY_URL"); v != "" {
		cfg.Relay.URL = v
	}

	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GRAYLOGIC_NODE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Tokens belong in the environment, not the config file.
	if v := os.Getenv("GRAYLOGIC_NODE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("GRAYLOGIC_NODE_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = splitList(v)
	}

	if v := os.Getenv("GRAYLOGIC_NODE_SMS_NUMBER"); v != "" {
		cfg.SMS.Number = v
	}
}

// splitList splits a comma-separated list, dropping empty items.
func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Node.ID == "" {
		errs = append(errs, "node.id is required")
	}

	if c.Schedule.ReadingInterval <= 0 {
		errs = append(errs, "schedule.reading_interval must be positive")
	}
	if c.Schedule.ClockRetryInterval <= 0 {
		errs = append(errs, "schedule.clock_retry_interval must be positive")
	}
	if c.Schedule.MinPlausibleTime < 0 {
		errs = append(errs, "schedule.min_plausible_time must not be negative")
	}

	if c.Quiet.Margin < 0 {
		errs = append(errs, "quiet.margin must not be negative")
	}
	if c.Quiet.Sleep <= 0 {
		errs = append(errs, "quiet.sleep must be positive")
	}

	switch c.Storage.Backend {
	case StorageBackendFS:
		if c.Storage.Dir == "" {
			errs = append(errs, "storage.dir is required for the fs backend")
		}
	case StorageBackendSQLite:
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("storage.backend %q is not one of fs, sqlite", c.Storage.Backend))
	}
	if c.Storage.Extension == "" || strings.ContainsAny(c.Storage.Extension, "./") {
		errs = append(errs, "storage.extension must be a bare extension such as txt")
	}
	if c.Storage.LogRecord == "" {
		errs = append(errs, "storage.log_record is required")
	}

	if c.Queue.BatchSize < 1 {
		errs = append(errs, "queue.batch_size must be at least 1")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	errs = append(errs, c.validateTransports()...)

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateTransports checks that every listed transport is known and configured.
func (c *Config) validateTransports() []string {
	var errs []string
	seen := make(map[string]bool)

	for _, name := range c.Transports {
		if seen[name] {
			errs = append(errs, fmt.Sprintf("transports: %q listed twice", name))
			continue
		}
		seen[name] = true

		switch name {
		case TransportRelay:
			if c.Relay.URL == "" {
				errs = append(errs, "relay.url is required when relay transport is enabled")
			}
		case TransportMQTT:
			if c.MQTT.Broker.Host == "" {
				errs = append(errs, "mqtt.broker.host is required when mqtt transport is enabled")
			}
		case TransportInfluxDB:
			if c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "" {
				errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb transport is enabled")
			}
		case TransportKafka:
			if len(c.Kafka.Brokers) == 0 || c.Kafka.Topic == "" {
				errs = append(errs, "kafka.brokers and kafka.topic are required when kafka transport is enabled")
			}
		case TransportSMS:
			if c.SMS.Number == "" || c.SMS.Spool == "" {
				errs = append(errs, "sms.number and sms.spool are required when sms transport is enabled")
			}
		default:
			errs = append(errs, fmt.Sprintf("transports: unknown transport %q", name))
		}
	}

	return errs
}

// GetReadingInterval returns the normal sleep between cycles as a Duration.
func (c *Config) GetReadingInterval() time.Duration {
	return time.Duration(c.Schedule.ReadingInterval) * time.Second
}

// GetClockRetryInterval returns the short retry sleep as a Duration.
func (c *Config) GetClockRetryInterval() time.Duration {
	return time.Duration(c.Schedule.ClockRetryInterval) * time.Second
}

// GetMinPlausibleTime returns the earliest trustworthy clock reading.
func (c *Config) GetMinPlausibleTime() time.Time {
	return time.Unix(c.Schedule.MinPlausibleTime, 0).UTC()
}

// GetQuietSleep returns the quiet-mode hibernation interval as a Duration.
func (c *Config) GetQuietSleep() time.Duration {
	return time.Duration(c.Quiet.Sleep) * time.Second
}

// GetRelayTimeout returns the HTTP relay request timeout as a Duration.
func (c *Config) GetRelayTimeout() time.Duration {
	return time.Duration(c.Relay.Timeout) * time.Second
}

// GetKafkaTimeout returns the Kafka write timeout as a Duration.
func (c *Config) GetKafkaTimeout() time.Duration {
	return time.Duration(c.Kafka.Timeout) * time.Second
}
