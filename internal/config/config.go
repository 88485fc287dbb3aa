package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.catalogd/catalogd.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version int                     `yaml:"version"`
	Store   StoreConfig             `yaml:"store"`
	Tenants map[string]TenantConfig `yaml:"tenants,omitempty"`
	Server  ServerConfig            `yaml:"server,omitempty"`
	Logging LogConfig               `yaml:"logging,omitempty"`
}

// StoreConfig defines the MongoDB catalog store connection.
type StoreConfig struct {
	ConnectionString string `yaml:"connection_string"`
	Database         string `yaml:"database"`
}

// TenantConfig defines one tenant's source database connection. Tenants may
// also be registered at runtime through onboarding; entries here take
// precedence over store-persisted connection records.
type TenantConfig struct {
	Type           string `yaml:"type"` // mysql, postgresql or oracle
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Schema         string `yaml:"schema"`
	Username       string `yaml:"username"`
	Password       string `yaml:"password"`
	SSL            bool   `yaml:"ssl,omitempty"`
	MaxConnections int    `yaml:"max_connections,omitempty"` // default 10, max 50
}

// ServerConfig defines the HTTP API server settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"` // default 8080
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level         string `yaml:"level,omitempty"`          // debug, info, warn, error
	Directory     string `yaml:"directory,omitempty"`      // default ~/.catalogd/logs/
	RetentionDays int    `yaml:"retention_days,omitempty"` // default 30
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	for name, t := range c.Tenants {
		if t.MaxConnections == 0 {
			t.MaxConnections = 10
		}
		if t.MaxConnections > 50 {
			t.MaxConnections = 50
		}
		c.Tenants[name] = t
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.catalogd/logs/")
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = 30
	}
}

func (c *Config) resolveSecrets() error {
	var err error
	c.Store.ConnectionString, err = ResolveValue(c.Store.ConnectionString)
	if err != nil {
		return fmt.Errorf("store connection string: %w", err)
	}
	for name, t := range c.Tenants {
		t.Password, err = ResolveValue(t.Password)
		if err != nil {
			return fmt.Errorf("tenant %s password: %w", name, err)
		}
		c.Tenants[name] = t
	}
	return nil
}

// ResolveValue resolves a secret reference in a string value.
// Supported forms: ${ENV:NAME}, ${VAULT:path#key}, ${AWS_SM:secret-name}.
// Plain values pass through unchanged.
func ResolveValue(val string) (string, error) {
	if !strings.HasPrefix(val, "${") || !strings.HasSuffix(val, "}") {
		return val, nil
	}
	provider, ref, ok := strings.Cut(val[2:len(val)-1], ":")
	if !ok {
		return val, nil
	}

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
