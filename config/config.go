package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration
type Config struct {
	// HTTP server settings
	HTTP struct {
		Address string `yaml:"address"`
		Port    string `yaml:"port"`
	} `yaml:"http"`

	// Upstream origin the gateway fronts
	Upstream struct {
		Origin  string        `yaml:"origin"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"upstream"`

	// Cache settings. Name is the version handle for the pre-cached asset
	// set: it must be bumped whenever the asset list changes, or stale
	// content keeps being served. Nothing enforces this.
	Cache struct {
		Name    string `yaml:"name"`
		Backend string `yaml:"backend"` // "file" or "bolt"
		Dir     string `yaml:"dir"`     // file backend
		Path    string `yaml:"path"`    // bolt backend
	} `yaml:"cache"`

	// Install settings
	Install struct {
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"install"`

	// Assets is the ordered list of paths pre-fetched at install time.
	// The list is stored as given, with no validation or deduplication.
	Assets []string `yaml:"assets"`

	// Logging settings
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	var errors []string

	if c.HTTP.Address == "" {
		errors = append(errors, "HTTP address is required")
	}
	if c.HTTP.Port == "" {
		errors = append(errors, "HTTP port is required")
	}

	if c.Upstream.Origin == "" {
		errors = append(errors, "Upstream origin is required")
	} else if u, err := url.Parse(c.Upstream.Origin); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("Upstream origin %q is not a valid URL", c.Upstream.Origin))
	}
	if c.Upstream.Timeout <= 0 {
		errors = append(errors, "Upstream timeout must be positive")
	}

	if c.Cache.Name == "" {
		errors = append(errors, "Cache name is required")
	}
	switch c.Cache.Backend {
	case "file":
		if c.Cache.Dir == "" {
			errors = append(errors, "Cache dir is required for the file backend")
		}
	case "bolt":
		if c.Cache.Path == "" {
			errors = append(errors, "Cache path is required for the bolt backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("Cache backend must be \"file\" or \"bolt\", got %q", c.Cache.Backend))
	}

	if c.Install.Timeout <= 0 {
		errors = append(errors, "Install timeout must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

// Default returns a Config with sensible default values
func Default() *Config {
	cfg := &Config{}

	// HTTP defaults
	cfg.HTTP.Address = "127.0.0.1"
	cfg.HTTP.Port = "8080"

	// Upstream defaults
	cfg.Upstream.Origin = "http://127.0.0.1:8501"
	cfg.Upstream.Timeout = 30 * time.Second

	// Cache defaults
	cfg.Cache.Name = "budget-tracker-v1"
	cfg.Cache.Backend = "file"
	cfg.Cache.Dir = "" // Required for file backend, no default

	// Install defaults
	cfg.Install.Timeout = 2 * time.Minute

	// Default asset list: the application shell of the fronted app
	cfg.Assets = []string{
		"/",
		"/manifest.json",
		"/sw.js",
		"/generated-icon-192.png",
		"/generated-icon-512.png",
	}

	// Logging defaults
	cfg.Log.Level = "INFO"

	return cfg
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load loads configuration from a file (if provided), applies environment
// variable overrides, and validates the result
func Load(path string) (*Config, error) {
	var cfg *Config
	var err error

	if path != "" {
		cfg, err = LoadFromFile(path)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = Default()
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the config
func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		c.HTTP.Address = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.HTTP.Port = v
	}
	if v := os.Getenv("UPSTREAM_ORIGIN"); v != "" {
		c.Upstream.Origin = v
	}
	if v := os.Getenv("UPSTREAM_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid UPSTREAM_TIMEOUT format (expected duration like '30s'): %w", err)
		}
		c.Upstream.Timeout = timeout
	}
	if v := os.Getenv("CACHE_NAME"); v != "" {
		c.Cache.Name = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("CACHE_DIR"); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for CACHE_DIR: %w", err)
		}
		c.Cache.Dir = abs
	}
	if v := os.Getenv("CACHE_DB_PATH"); v != "" {
		abs, err := filepath.Abs(v)
		if err != nil {
			return fmt.Errorf("failed to resolve absolute path for CACHE_DB_PATH: %w", err)
		}
		c.Cache.Path = abs
	}
	if v := os.Getenv("INSTALL_TIMEOUT"); v != "" {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid INSTALL_TIMEOUT format (expected duration like '2m'): %w", err)
		}
		c.Install.Timeout = timeout
	}
	if v := os.Getenv("ASSETS"); v != "" {
		var assets []string
		for _, a := range strings.Split(v, ",") {
			assets = append(assets, strings.TrimSpace(a))
		}
		c.Assets = assets
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	return nil
}
