package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  timezone: "Europe/Berlin"
schedule:
  path: "/etc/switchsched/lights.schedule"
  device: "087610 123456"
  watch: false
  recheck: "@every 10m"
controller:
  type: "mqtt"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
  protocol: "knx"
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if cfg.Schedule.Path != "/etc/switchsched/lights.schedule" {
		t.Errorf("Schedule.Path = %q", cfg.Schedule.Path)
	}
	if cfg.Schedule.Device != "087610 123456" {
		t.Errorf("Schedule.Device = %q, want %q", cfg.Schedule.Device, "087610 123456")
	}
	if cfg.Schedule.Watch {
		t.Error("Schedule.Watch = true, want false")
	}
	if cfg.MQTT.Protocol != "knx" {
		t.Errorf("MQTT.Protocol = %q, want %q", cfg.MQTT.Protocol, "knx")
	}

	// Defaults survive for keys the file does not mention.
	if cfg.Fritz.URL != "http://fritz.box" {
		t.Errorf("Fritz.URL = %q, want default", cfg.Fritz.URL)
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Europe/Berlin" {
		t.Errorf("Location() = %q, want Europe/Berlin", loc)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Controller.Type != ControllerFritz {
		t.Errorf("Controller.Type = %q, want %q", cfg.Controller.Type, ControllerFritz)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("invalid: [yaml: content"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Schedule.Path = "/tmp/lights.schedule"
		cfg.Fritz.Username = "admin"
		cfg.Fritz.Password = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(*Config) {},
		},
		{
			name:    "missing schedule path",
			mutate:  func(c *Config) { c.Schedule.Path = "" },
			wantErr: "schedule.path",
		},
		{
			name:    "fritz without credentials",
			mutate:  func(c *Config) { c.Fritz.Password = "" },
			wantErr: "fritz.username",
		},
		{
			name:    "unknown controller",
			mutate:  func(c *Config) { c.Controller.Type = "zigbee" },
			wantErr: "controller.type",
		},
		{
			name: "mqtt invalid QoS",
			mutate: func(c *Config) {
				c.Controller.Type = ControllerMQTT
				c.MQTT.QoS = 3
			},
			wantErr: "mqtt.qos",
		},
		{
			name: "dryrun needs no credentials",
			mutate: func(c *Config) {
				c.Controller.Type = ControllerDryRun
				c.Fritz.Password = ""
			},
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Site.Timezone = "Mars/Olympus" },
			wantErr: "site.timezone",
		},
		{
			name:    "bad recheck expression",
			mutate:  func(c *Config) { c.Schedule.Recheck = "every now and then" },
			wantErr: "schedule.recheck",
		},
		{
			name:   "recheck disabled",
			mutate: func(c *Config) { c.Schedule.Recheck = "" },
		},
		{
			name: "api port out of range",
			mutate: func(c *Config) {
				c.API.Enabled = true
				c.API.Port = 70000
			},
			wantErr: "api.port",
		},
		{
			name:    "influxdb without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateController(t *testing.T) {
	cfg := Default()
	cfg.Controller.Type = ControllerDryRun
	cfg.Schedule.Path = ""
	cfg.Schedule.Recheck = "not a cron expression"

	if err := cfg.ValidateController(); err != nil {
		t.Errorf("ValidateController() error = %v, want schedule section ignored", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() should reject the missing schedule path")
	}

	cfg.Controller.Type = "zigbee"
	if err := cfg.ValidateController(); err == nil {
		t.Error("ValidateController() should reject an unknown controller type")
	}
}

func TestConfig_RecheckSchedule(t *testing.T) {
	cfg := Default()
	cfg.Schedule.Recheck = "@every 5m"

	sched, err := cfg.RecheckSchedule()
	if err != nil {
		t.Fatalf("RecheckSchedule() error = %v", err)
	}

	now := time.Date(2024, 12, 1, 12, 0, 0, 0, time.UTC)
	if got := sched.Next(now).Sub(now); got != 5*time.Minute {
		t.Errorf("Next() - now = %v, want 5m", got)
	}

	cfg.Schedule.Recheck = ""
	sched, err = cfg.RecheckSchedule()
	if err != nil || sched != nil {
		t.Errorf("RecheckSchedule() with empty recheck = (%v, %v), want (nil, nil)", sched, err)
	}
}

func TestConfig_GetTimeouts(t *testing.T) {
	cfg := &Config{
		Fritz: FritzConfig{Timeout: 7},
		MQTT:  MQTTConfig{StateTimeout: 3},
		API: APIConfig{
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 45,
				Idle:  60,
			},
		},
	}

	if got := cfg.GetFritzTimeout(); got != 7*time.Second {
		t.Errorf("GetFritzTimeout() = %v, want 7s", got)
	}
	if got := cfg.GetStateTimeout(); got != 3*time.Second {
		t.Errorf("GetStateTimeout() = %v, want 3s", got)
	}
	if got := cfg.GetReadTimeout().Seconds(); got != 30 {
		t.Errorf("GetReadTimeout() = %v, want 30", got)
	}
	if got := cfg.GetWriteTimeout().Seconds(); got != 45 {
		t.Errorf("GetWriteTimeout() = %v, want 45", got)
	}
	if got := cfg.GetIdleTimeout().Seconds(); got != 60 {
		t.Errorf("GetIdleTimeout() = %v, want 60", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("SWITCHSCHED_SCHEDULE_PATH", "/custom/lights.schedule")
	t.Setenv("SWITCHSCHED_SCHEDULE_DEVICE", "11630 0123456")
	t.Setenv("SWITCHSCHED_CONTROLLER_TYPE", "mqtt")
	t.Setenv("SWITCHSCHED_MQTT_HOST", "mqtt.example.com")
	t.Setenv("SWITCHSCHED_MQTT_USERNAME", "testuser")
	t.Setenv("SWITCHSCHED_MQTT_PASSWORD", "testpass")
	t.Setenv("SWITCHSCHED_INFLUXDB_TOKEN", "secret-token")
	t.Setenv("FRITZ_USER", "fritzuser")
	t.Setenv("FRITZ_PASSWORD", "fritzpass")

	applyEnvOverrides(cfg)

	if cfg.Schedule.Path != "/custom/lights.schedule" {
		t.Errorf("Schedule.Path = %q", cfg.Schedule.Path)
	}
	if cfg.Schedule.Device != "11630 0123456" {
		t.Errorf("Schedule.Device = %q", cfg.Schedule.Device)
	}
	if cfg.Controller.Type != "mqtt" {
		t.Errorf("Controller.Type = %q, want mqtt", cfg.Controller.Type)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" || cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth = %+v", cfg.MQTT.Auth)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
	if cfg.Fritz.Username != "fritzuser" || cfg.Fritz.Password != "fritzpass" {
		t.Errorf("Fritz credentials = %q/%q", cfg.Fritz.Username, cfg.Fritz.Password)
	}
}

func TestApplyEnvOverrides_PrefixedWins(t *testing.T) {
	cfg := Default()

	t.Setenv("FRITZ_USER", "legacy")
	t.Setenv("SWITCHSCHED_FRITZ_USERNAME", "preferred")

	applyEnvOverrides(cfg)

	if cfg.Fritz.Username != "preferred" {
		t.Errorf("Fritz.Username = %q, want %q", cfg.Fritz.Username, "preferred")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if cfg.Schedule.Recheck == "" {
		t.Error("Default should enable periodic recheck")
	}
	if !cfg.Schedule.Watch {
		t.Error("Default should watch the schedule file")
	}
	if cfg.API.Enabled {
		t.Error("Default should keep the status API disabled")
	}
}
