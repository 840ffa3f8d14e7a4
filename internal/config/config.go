package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/calilog/internal/feedback"
	"github.com/claude/calilog/internal/interval"
	"github.com/claude/calilog/internal/program"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Execution ExecutionConfig `yaml:"execution"`
	Feedback  FeedbackConfig  `yaml:"feedback"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// AuthConfig protects the HTTP API. An empty key disables authentication.
type AuthConfig struct {
	APIKey string `yaml:"api_key"`
}

// ExecutionConfig holds the defaults copied into every run.
type ExecutionConfig struct {
	AutoMode               bool `yaml:"auto_mode"`
	StartCountdownSeconds  int  `yaml:"start_countdown_seconds"`
	DynamicCountSound      bool `yaml:"dynamic_count_sound"`
	IsometricIntervalSound bool `yaml:"isometric_interval_sound"`
	PrefillPreviousRecord  bool `yaml:"prefill_previous_record"`
	RepCadenceSeconds      int  `yaml:"rep_cadence_seconds"`
	SettleDelayMS          int  `yaml:"settle_delay_ms"`
	PrepareSeconds         int  `yaml:"prepare_seconds"`
}

type FeedbackConfig struct {
	Sound bool `yaml:"sound"`
	Flash bool `yaml:"flash"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Default returns the configuration used for keys missing from the file.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{Host: "127.0.0.1", Port: 8080},
		Database: DatabaseConfig{Driver: DriverSQLite, Path: "calilog.db"},
		Execution: ExecutionConfig{
			StartCountdownSeconds:  5,
			DynamicCountSound:      true,
			IsometricIntervalSound: true,
			RepCadenceSeconds:      2,
			SettleDelayMS:          500,
			PrepareSeconds:         5,
		},
		Feedback: FeedbackConfig{Sound: true, Flash: true},
	}
}

// ProgramSettings converts the execution section into run settings.
func (c *Config) ProgramSettings() program.Settings {
	e := c.Execution
	return program.Settings{
		AutoMode:               e.AutoMode,
		StartCountdownSeconds:  e.StartCountdownSeconds,
		DynamicCountSound:      e.DynamicCountSound,
		IsometricIntervalSound: e.IsometricIntervalSound,
		PrefillPreviousRecord:  e.PrefillPreviousRecord,
		RepCadence:             time.Duration(e.RepCadenceSeconds) * time.Second,
		SettleDelay:            time.Duration(e.SettleDelayMS) * time.Millisecond,
	}
}

// IntervalSettings converts the execution section into interval run settings.
func (c *Config) IntervalSettings() interval.Settings {
	return interval.Settings{
		PrepareSeconds: c.Execution.PrepareSeconds,
		SettleDelay:    time.Duration(c.Execution.SettleDelayMS) * time.Millisecond,
	}
}

// FeedbackOptions returns which cues are enabled.
func (c *Config) FeedbackOptions() feedback.Options {
	return feedback.Options{Sound: c.Feedback.Sound, Flash: c.Feedback.Flash}
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix CALILOG_ and underscore-separated paths:
//
//	CALILOG_SERVER_HOST, CALILOG_SERVER_PORT,
//	CALILOG_DB_DRIVER, CALILOG_DB_PATH,
//	CALILOG_DB_HOST, CALILOG_DB_PORT, CALILOG_DB_NAME,
//	CALILOG_DB_USER, CALILOG_DB_PASSWORD, CALILOG_DB_SSLMODE,
//	CALILOG_AUTH_API_KEY,
//	CALILOG_EXEC_AUTO_MODE, CALILOG_EXEC_START_COUNTDOWN,
//	CALILOG_FEEDBACK_SOUND, CALILOG_FEEDBACK_FLASH
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

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CALILOG_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("CALILOG_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CALILOG_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("CALILOG_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CALILOG_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("CALILOG_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("CALILOG_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("CALILOG_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("CALILOG_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("CALILOG_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("CALILOG_AUTH_API_KEY"); v != "" {
		cfg.Auth.APIKey = v
	}
	if v := os.Getenv("CALILOG_EXEC_AUTO_MODE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Execution.AutoMode = b
		}
	}
	if v := os.Getenv("CALILOG_EXEC_START_COUNTDOWN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Execution.StartCountdownSeconds = n
		}
	}
	if v := os.Getenv("CALILOG_FEEDBACK_SOUND"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Feedback.Sound = b
		}
	}
	if v := os.Getenv("CALILOG_FEEDBACK_FLASH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Feedback.Flash = b
		}
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return fmt.Errorf("database.host is required")
		}
		if c.Database.Port == 0 {
			return fmt.Errorf("database.port is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("database.name is required")
		}
		if c.Database.User == "" {
			return fmt.Errorf("database.user is required")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.Database.Driver)
	}
	if c.Execution.StartCountdownSeconds < 0 {
		return fmt.Errorf("execution.start_countdown_seconds must not be negative")
	}
	if c.Execution.PrepareSeconds < 0 {
		return fmt.Errorf("execution.prepare_seconds must not be negative")
	}
	if c.Execution.RepCadenceSeconds <= 0 {
		return fmt.Errorf("execution.rep_cadence_seconds must be positive")
	}
	if c.Execution.SettleDelayMS < 0 {
		return fmt.Errorf("execution.settle_delay_ms must not be negative")
	}
	return nil
}
