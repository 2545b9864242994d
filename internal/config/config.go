package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

type ServerConfig struct {
	Name         string `yaml:"name"`
	Port         string `yaml:"port,omitempty"` // e.g. ":8080"
	DatabasePath string `yaml:"database_path,omitempty"`
	RedisURL     string `yaml:"redis_url,omitempty"`

	JWTSecret     string `yaml:"jwt_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours,omitempty"`

	// Sync tuning. Seconds rather than duration strings so the YAML stays plain ints.
	PollIntervalSeconds   int `yaml:"poll_interval_seconds,omitempty"`
	ResolveTimeoutSeconds int `yaml:"resolve_timeout_seconds,omitempty"`

	MaxMessageLength int    `yaml:"max_message_length,omitempty"`
	DefaultRole      string `yaml:"default_role,omitempty"`

	// AllowDegraded swaps in the no-op store when no database path is
	// configured instead of refusing to start. Off by default: a silently
	// dead store looks exactly like an empty school.
	AllowDegraded bool `yaml:"allow_degraded,omitempty"`

	MetricsIntervalSeconds int `yaml:"metrics_interval_seconds,omitempty"`

	// Seed rows inserted at startup if missing. The rosters are normally
	// owned by the surrounding administration system; this is for small
	// or fresh deployments.
	Seed SeedConfig `yaml:"seed,omitempty"`
}

type SeedPerson struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Group string `yaml:"group,omitempty"` // class or department
}

type SeedConfig struct {
	Students  []SeedPerson `yaml:"students,omitempty"`
	Employees []SeedPerson `yaml:"employees,omitempty"`
}

var Conf ServerConfig

func LoadConfig(path string) error {
	f, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	Conf = ServerConfig{}
	if err := yaml.Unmarshal(f, &Conf); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if Conf.Port == "" {
		Conf.Port = ":8080"
	}
	if Conf.TokenTTLHours == 0 {
		Conf.TokenTTLHours = 24
	}
	if Conf.PollIntervalSeconds == 0 {
		Conf.PollIntervalSeconds = 5
	}
	if Conf.ResolveTimeoutSeconds == 0 {
		Conf.ResolveTimeoutSeconds = 3
	}
	if Conf.MaxMessageLength == 0 {
		Conf.MaxMessageLength = 4000
	}
	if Conf.DefaultRole == "" {
		Conf.DefaultRole = "admin"
	}
	if Conf.MetricsIntervalSeconds == 0 {
		Conf.MetricsIntervalSeconds = 300
	}

	if Conf.JWTSecret == "" {
		return fmt.Errorf("config %s: jwt_secret is required", path)
	}
	if Conf.DatabasePath == "" && !Conf.AllowDegraded {
		return fmt.Errorf("config %s: database_path is required (or set allow_degraded: true)", path)
	}
	return nil
}

func (c ServerConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLHours) * time.Hour
}

func (c ServerConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c ServerConfig) ResolveTimeout() time.Duration {
	return time.Duration(c.ResolveTimeoutSeconds) * time.Second
}

func (c ServerConfig) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsIntervalSeconds) * time.Second
}
