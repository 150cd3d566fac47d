package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Controller types accepted in controller.type.
const (
	ControllerFritz  = "fritz"
	ControllerMQTT   = "mqtt"
	ControllerDryRun = "dryrun"
)

// Config is the root configuration structure for switchsched.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Controller ControllerConfig `yaml:"controller"`
	Fritz      FritzConfig      `yaml:"fritz"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	API        APIConfig        `yaml:"api"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// ScheduleConfig describes the schedule source and how the driver follows it.
type ScheduleConfig struct {
	// Path is the schedule file. Required.
	Path string `yaml:"path"`

	// Device restricts execution to a single device identifier.
	// Empty means every device named in the schedule is driven.
	Device string `yaml:"device"`

	// Watch wakes the driver as soon as the schedule file changes on disk.
	Watch bool `yaml:"watch"`

	// Recheck is a cron expression for periodic reconciliation of device
	// state against the last due action (e.g. "@every 5m"). Empty disables it.
	Recheck string `yaml:"recheck"`
}

// ControllerConfig selects the device controller implementation.
type ControllerConfig struct {
	// Type is one of "fritz", "mqtt" or "dryrun".
	Type string `yaml:"type"`
}

// FritzConfig contains FRITZ!Box AHA-HTTP settings.
type FritzConfig struct {
	URL      string `yaml:"url"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Timeout  int    `yaml:"timeout"` // seconds
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// Protocol is the bridge protocol segment used in command/state topics
	// (graylogic/command/{protocol}/{device}).
	Protocol string `yaml:"protocol"`

	// StateTimeout is how long (seconds) to wait for a retained state message
	// before a device state is reported as unknown.
	StateTimeout int `yaml:"state_timeout"`

	// AckTimeout is how long (seconds) to wait for a bridge to acknowledge a
	// command. Zero means commands are fire-and-forget.
	AckTimeout int `yaml:"ack_timeout"`
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

// APIConfig contains the read-only status HTTP server settings.
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

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: SWITCHSCHED_SECTION_KEY
// For example: SWITCHSCHED_SCHEDULE_PATH, SWITCHSCHED_FRITZ_PASSWORD
//
// An empty path skips the file and uses defaults plus environment only,
// which lets the CLI run from flags and env alone.
//
// Parameters:
//   - path: Path to the YAML configuration file (may be empty)
//
// Returns:
//   - *Config: Loaded configuration (not yet validated)
//   - error: If file cannot be read or parsed
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			Name:     "home",
			Timezone: "Local",
		},
		Schedule: ScheduleConfig{
			Watch:   true,
			Recheck: "@every 5m",
		},
		Controller: ControllerConfig{
			Type: ControllerFritz,
		},
		Fritz: FritzConfig{
			URL:     "http://fritz.box",
			Timeout: 10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "switchsched",
			},
			QoS:          1,
			Protocol:     "fritz",
			StateTimeout: 5,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8089,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: SWITCHSCHED_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Site
	if v := os.Getenv("SWITCHSCHED_SITE_TIMEZONE"); v != "" {
		cfg.Site.Timezone = v
	}

	// Schedule
	if v := os.Getenv("SWITCHSCHED_SCHEDULE_PATH"); v != "" {
		cfg.Schedule.Path = v
	}
	if v := os.Getenv("SWITCHSCHED_SCHEDULE_DEVICE"); v != "" {
		cfg.Schedule.Device = v
	}

	// Controller
	if v := os.Getenv("SWITCHSCHED_CONTROLLER_TYPE"); v != "" {
		cfg.Controller.Type = v
	}

	// Fritz credentials. FRITZ_USER/FRITZ_PASSWORD are accepted as well since
	// that is how most existing setups export them.
	if v := firstEnv("SWITCHSCHED_FRITZ_URL"); v != "" {
		cfg.Fritz.URL = v
	}
	if v := firstEnv("SWITCHSCHED_FRITZ_USERNAME", "FRITZ_USER"); v != "" {
		cfg.Fritz.Username = v
	}
	if v := firstEnv("SWITCHSCHED_FRITZ_PASSWORD", "FRITZ_PASSWORD"); v != "" {
		cfg.Fritz.Password = v
	}

	// MQTT
	if v := os.Getenv("SWITCHSCHED_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("SWITCHSCHED_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("SWITCHSCHED_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("SWITCHSCHED_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// firstEnv returns the value of the first non-empty environment variable.
func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// Validate checks the configuration for errors.
//
// All problems are collected and reported together so a broken config file
// can be fixed in one pass.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	return c.validate(true)
}

// ValidateController checks everything except the schedule section. Used by
// subcommands that talk to a device directly.
func (c *Config) ValidateController() error {
	return c.validate(false)
}

func (c *Config) validate(withSchedule bool) error {
	var errs []string

	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("site.timezone %q is invalid: %v", c.Site.Timezone, err))
	}

	if withSchedule {
		if c.Schedule.Path == "" {
			errs = append(errs, "schedule.path is required")
		}
		if _, err := c.RecheckSchedule(); err != nil {
			errs = append(errs, fmt.Sprintf("schedule.recheck: %v", err))
		}
	}

	switch c.Controller.Type {
	case ControllerFritz:
		if c.Fritz.URL == "" {
			errs = append(errs, "fritz.url is required")
		}
		if c.Fritz.Username == "" || c.Fritz.Password == "" {
			errs = append(errs, "fritz.username and fritz.password are required (set FRITZ_USER / FRITZ_PASSWORD)")
		}
	case ControllerMQTT:
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, "mqtt.qos must be 0, 1, or 2")
		}
		if c.MQTT.Protocol == "" {
			errs = append(errs, "mqtt.protocol is required")
		}
	case ControllerDryRun:
	default:
		errs = append(errs, fmt.Sprintf("controller.type %q must be one of fritz, mqtt, dryrun", c.Controller.Type))
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Location resolves site.timezone. "Local" and "" map to time.Local.
func (c *Config) Location() (*time.Location, error) {
	switch c.Site.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Site.Timezone)
	}
}

// RecheckSchedule parses schedule.recheck. It returns nil when rechecks are disabled.
func (c *Config) RecheckSchedule() (cron.Schedule, error) {
	if strings.TrimSpace(c.Schedule.Recheck) == "" {
		return nil, nil
	}
	return cron.ParseStandard(c.Schedule.Recheck)
}

// GetFritzTimeout returns the FRITZ!Box request timeout as a Duration.
func (c *Config) GetFritzTimeout() time.Duration {
	return time.Duration(c.Fritz.Timeout) * time.Second
}

// GetAckTimeout returns the MQTT command ack wait as a Duration.
func (c *Config) GetAckTimeout() time.Duration {
	return time.Duration(c.MQTT.AckTimeout) * time.Second
}

// GetStateTimeout returns the MQTT state wait as a Duration.
func (c *Config) GetStateTimeout() time.Duration {
	return time.Duration(c.MQTT.StateTimeout) * time.Second
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
