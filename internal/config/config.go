// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration for YAML "1s"/"500ms" strings.
type Duration struct{ time.Duration }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string (e.g., \"2s\"): %w", err)
	}
	// env expansion (rare, but supported)
	s = expandEnvDefault(s)
	if s == "" {
		d.Duration = 0
		return nil
	}
	dd, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dd
	return nil
}

// Config configures the identitydemo binary: which anchor file to load
// or create, how hard to stretch passphrases, where to serve health and
// metrics, and how often to poll the (out-of-scope) revocation feed. The
// core packages under internal/idcore never see this type.
type Config struct {
	LogLevel string `yaml:"logLevel"` // info | debug | warn | error

	Agent struct {
		ID      string `yaml:"id"`
		Name    string `yaml:"name"`
		Listen  string `yaml:"listen"` // e.g., ":8080"
		AidPath string `yaml:"aidPath"`
	} `yaml:"agent"`

	Argon2 struct {
		MemoryKiB   uint32 `yaml:"memoryKiB"`
		Iterations  uint32 `yaml:"iterations"`
		Parallelism uint8  `yaml:"parallelism"`
	} `yaml:"argon2"`

	Metrics struct {
		Enable bool   `yaml:"enable"`
		Path   string `yaml:"path"` // e.g., "/metrics"
	} `yaml:"metrics"`

	RevocationFeed struct {
		Enable       bool     `yaml:"enable"`
		URL          string   `yaml:"url"`
		PollInterval Duration `yaml:"pollInterval"` // e.g., "30s"
	} `yaml:"revocationFeed"`

	Heartbeat struct {
		Enable   bool     `yaml:"enable"`
		Interval Duration `yaml:"interval"`
	} `yaml:"heartbeat"`
}

// Load reads and parses YAML, environment-expands known string fields,
// applies defaults, and validates.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// First pass: basic YAML → struct (strings may still contain ${} tokens)
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	// Expand environment variables (with defaults) on known string fields.
	cfg.LogLevel = expandEnvDefault(cfg.LogLevel)
	cfg.Agent.ID = expandEnvDefault(cfg.Agent.ID)
	cfg.Agent.Name = expandEnvDefault(cfg.Agent.Name)
	cfg.Agent.Listen = expandEnvDefault(cfg.Agent.Listen)
	cfg.Agent.AidPath = expandEnvDefault(cfg.Agent.AidPath)
	cfg.Metrics.Path = expandEnvDefault(cfg.Metrics.Path)
	cfg.RevocationFeed.URL = expandEnvDefault(cfg.RevocationFeed.URL)

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(c *Config) {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Agent.Listen == "" {
		c.Agent.Listen = ":8080"
	}
	if c.Agent.AidPath == "" {
		c.Agent.AidPath = "identity.aid"
	}
	if c.Argon2.MemoryKiB == 0 {
		c.Argon2.MemoryKiB = 64 * 1024
	}
	if c.Argon2.Iterations == 0 {
		c.Argon2.Iterations = 3
	}
	if c.Argon2.Parallelism == 0 {
		c.Argon2.Parallelism = 4
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
	if c.RevocationFeed.PollInterval.Duration == 0 {
		c.RevocationFeed.PollInterval = Duration{Duration: 30 * time.Second}
	}
	if c.Heartbeat.Interval.Duration == 0 {
		c.Heartbeat.Interval = Duration{Duration: 10 * time.Second}
	}
}

func validate(c *Config) error {
	if c.Agent.Listen == "" {
		return errors.New("agent.listen is required")
	}
	if c.Agent.AidPath == "" {
		return errors.New("agent.aidPath is required")
	}
	if c.RevocationFeed.Enable && c.RevocationFeed.URL == "" {
		return errors.New("revocationFeed.url is required when revocationFeed.enable is true")
	}
	if c.RevocationFeed.PollInterval.Duration < 200*time.Millisecond {
		return fmt.Errorf("revocationFeed.pollInterval too small: %s", c.RevocationFeed.PollInterval.Duration)
	}
	return nil
}

// --- env expansion with ${VAR} and ${VAR:default} ---

var envRe = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}`)

// expandEnvDefault replaces ${VAR} with os.Getenv("VAR"),
// and ${VAR:default} with env value or "default" if unset.
func expandEnvDefault(s string) string {
	if s == "" {
		return s
	}
	return envRe.ReplaceAllStringFunc(s, func(m string) string {
		parts := envRe.FindStringSubmatch(m)
		if len(parts) != 3 {
			return m
		}
		name := parts[1]
		def := parts[2]
		if val, ok := os.LookupEnv(name); ok {
			return val
		}
		return def
	})
}
