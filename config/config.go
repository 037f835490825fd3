// Package config provides configuration loading and hot reload.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/avinashfc/agentic-visionxtract/domain/call"
)

// Config is the root configuration for the visionxtract service.
type Config struct {
	Server  ServerConfig            `yaml:"server"`
	A2A     A2AConfig               `yaml:"a2a"`
	Modules map[string]ModuleConfig `yaml:"modules"`
	Logging LoggingConfig           `yaml:"logging"`
	Metrics MetricsConfig           `yaml:"metrics"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// A2AConfig controls how inter-module calls are dispatched.
type A2AConfig struct {
	// Mode is the default dispatch mode for clients that do not request
	// one explicitly: in_process, http, or auto.
	Mode    string        `yaml:"mode"`
	Timeout time.Duration `yaml:"timeout"`
}

// ModuleConfig holds per-module overrides. Module names use the
// canonical snake_case form (llm_judge, ocr, face_extraction).
type ModuleConfig struct {
	// URL overrides where HTTP calls to this module are sent.
	// Empty means derive the address from the well-known port table.
	URL string `yaml:"url"`
	// Port overrides the well-known port used to derive the default
	// address when URL is empty.
	Port int `yaml:"port"`
	// Disabled prevents the module's local surface from being served.
	Disabled bool `yaml:"disabled"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// MetricsConfig holds Prometheus settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads configuration from a YAML file, applies environment
// overrides, fills defaults, and validates.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadFromEnv builds configuration entirely from environment variables.
// Used when no config file is available.
func LoadFromEnv() (*Config, error) {
	var cfg Config
	applyEnvOverrides(&cfg)
	setDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

// LoadWithFallback loads from the file if it exists, otherwise from the
// environment alone.
func LoadWithFallback(path string) (*Config, error) {
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}
	return LoadFromEnv()
}

// HasEnvConfig reports whether any configuration is present in the
// environment, which allows running without a config file.
func HasEnvConfig() bool {
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "VISIONXTRACT_") {
			return true
		}
		if strings.HasPrefix(key, "MODULE_") && strings.HasSuffix(key, moduleURLSuffix) {
			return true
		}
	}
	return false
}

const moduleURLSuffix = "_URL"

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("VISIONXTRACT_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("VISIONXTRACT_SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("VISIONXTRACT_A2A_MODE"); v != "" {
		cfg.A2A.Mode = v
	}
	if v := os.Getenv("VISIONXTRACT_A2A_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.A2A.Timeout = d
		}
	}
	if v := os.Getenv("VISIONXTRACT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VISIONXTRACT_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("VISIONXTRACT_METRICS_ENABLED"); v != "" {
		cfg.Metrics.Enabled = parseBool(v)
	}
	if v := os.Getenv("VISIONXTRACT_METRICS_PATH"); v != "" {
		cfg.Metrics.Path = v
	}

	applyModuleURLOverrides(cfg, os.Environ())
}

// applyModuleURLOverrides scans the environment once for
// MODULE_<NAME>_URL variables and records them as per-module URL
// overrides. MODULE_LLM_JUDGE_URL=http://host:9000 maps to
// Modules["llm_judge"].URL.
func applyModuleURLOverrides(cfg *Config, environ []string) {
	for _, kv := range environ {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || value == "" {
			continue
		}
		if !strings.HasPrefix(key, "MODULE_") || !strings.HasSuffix(key, moduleURLSuffix) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(key, "MODULE_"), moduleURLSuffix)
		if name == "" {
			continue
		}
		name = strings.ToLower(name)

		if cfg.Modules == nil {
			cfg.Modules = make(map[string]ModuleConfig)
		}
		m := cfg.Modules[name]
		m.URL = value
		cfg.Modules[name] = m
	}
}

// parseBool parses a boolean from common string values.
func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func setDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8000
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 30 * time.Second
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.A2A.Mode == "" {
		cfg.A2A.Mode = string(call.ModeAuto)
	}
	if cfg.A2A.Timeout == 0 {
		cfg.A2A.Timeout = 30 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", cfg.Server.Port)
	}
	if _, err := call.ParseMode(cfg.A2A.Mode); err != nil {
		return fmt.Errorf("a2a.mode: %w", err)
	}
	if cfg.A2A.Timeout < 0 {
		return fmt.Errorf("a2a.timeout must not be negative")
	}
	for name, m := range cfg.Modules {
		if m.Port < 0 || m.Port > 65535 {
			return fmt.Errorf("modules.%s.port must be 0-65535, got %d", name, m.Port)
		}
		if m.URL == "" {
			continue
		}
		u, err := url.Parse(m.URL)
		if err != nil {
			return fmt.Errorf("modules.%s.url: %w", name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("modules.%s.url: scheme must be http or https, got %q", name, u.Scheme)
		}
		if u.Host == "" {
			return fmt.Errorf("modules.%s.url: missing host", name)
		}
	}
	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", cfg.Logging.Level)
	}
	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", cfg.Logging.Format)
	}
	return nil
}
