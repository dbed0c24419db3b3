package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultHistoryDir = "scans"
	DefaultPorts      = "1-1000"
	DefaultProvider   = "gemini"
	DefaultModel      = "gemini-1.5-flash"
)

type AdvisorConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"api_key"`
}

type Config struct {
	HistoryDir        string        `yaml:"history_dir"`
	Ports             string        `yaml:"ports"`
	NmapPath          string        `yaml:"nmap_path"`
	SimulateOnMissing bool          `yaml:"simulate_on_missing"`
	LogFile           string        `yaml:"log_file"`
	MetricsFile       string        `yaml:"metrics_file"`
	HistoryDB         string        `yaml:"history_db"`
	Advisor           AdvisorConfig `yaml:"advisor"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		HistoryDir: DefaultHistoryDir,
		Ports:      DefaultPorts,
		Advisor: AdvisorConfig{
			Provider: DefaultProvider,
			Model:    DefaultModel,
		},
	}
}

func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".autorecon", "config.yaml"), nil
}

// LoadConfig reads path, or the default location when path is empty.
// A missing file yields Default().
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// 0600: the file may hold an api key
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.HistoryDir == "" {
		c.HistoryDir = DefaultHistoryDir
	}
	if c.Ports == "" {
		c.Ports = DefaultPorts
	}
	if c.Advisor.Provider == "" {
		c.Advisor.Provider = DefaultProvider
	}
	if c.Advisor.Model == "" {
		c.Advisor.Model = DefaultModel
	}
}

// AdvisorAPIKey returns the configured key, falling back to GOOGLE_API_KEY for gemini.
func (c *Config) AdvisorAPIKey() string {
	if c.Advisor.APIKey != "" {
		return c.Advisor.APIKey
	}
	if c.Advisor.Provider == "gemini" {
		return os.Getenv("GOOGLE_API_KEY")
	}
	return ""
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func stringField(p func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *p(c) },
		set: func(c *Config, v string) error { *p(c) = v; return nil },
	}
}

var fields = map[string]field{
	"history_dir":      stringField(func(c *Config) *string { return &c.HistoryDir }),
	"ports":            stringField(func(c *Config) *string { return &c.Ports }),
	"nmap_path":        stringField(func(c *Config) *string { return &c.NmapPath }),
	"log_file":         stringField(func(c *Config) *string { return &c.LogFile }),
	"metrics_file":     stringField(func(c *Config) *string { return &c.MetricsFile }),
	"history_db":       stringField(func(c *Config) *string { return &c.HistoryDB }),
	"advisor.provider": stringField(func(c *Config) *string { return &c.Advisor.Provider }),
	"advisor.model":    stringField(func(c *Config) *string { return &c.Advisor.Model }),
	"advisor.api_key":  stringField(func(c *Config) *string { return &c.Advisor.APIKey }),
	"simulate_on_missing": {
		get: func(c *Config) string { return strconv.FormatBool(c.SimulateOnMissing) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("simulate_on_missing: %w", err)
			}
			c.SimulateOnMissing = b
			return nil
		},
	},
}

// Keys lists the settable configuration keys.
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns value to the dotted key.
func (c *Config) Set(key, value string) error {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return fmt.Errorf("unknown config key %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return f.set(c, value)
}

// Get returns the value of the dotted key.
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[strings.ToLower(key)]
	if !ok {
		return "", fmt.Errorf("unknown config key %q", key)
	}
	return f.get(c), nil
}
