// Package config handles Bursar configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/bursar/config.yaml, /etc/bursar/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "bursar", "config.yaml"))
	}

	paths = append(paths, "/etc/bursar/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all Bursar configuration.
type Config struct {
	Listen   ListenConfig `yaml:"listen"`
	Oracle   OracleConfig `yaml:"oracle"`
	MQTT     MQTTConfig   `yaml:"mqtt"`
	Email    EmailConfig  `yaml:"email"`
	DataDir  string       `yaml:"data_dir"`
	LogLevel string       `yaml:"log_level"`
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// OracleConfig defines the LLM oracle backend. When Enabled is false
// the interview runs entirely on the deterministic fallbacks: pattern
// matching still classifies, but extraction and goal scoring degrade.
type OracleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Provider string `yaml:"provider"` // anthropic, ollama
	Model    string `yaml:"model"`

	Anthropic AnthropicConfig `yaml:"anthropic"`
	OllamaURL string          `yaml:"ollama_url"`

	// TimeoutSec bounds each oracle call. Default 30.
	TimeoutSec int `yaml:"timeout_sec"`
}

// AnthropicConfig defines Anthropic API settings.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
}

// Timeout returns the per-call oracle timeout in seconds, defaulted.
func (o OracleConfig) Timeout() int {
	if o.TimeoutSec <= 0 {
		return 30
	}
	return o.TimeoutSec
}

// MQTTConfig defines the optional interview-event publisher.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"` // mqtt://host:1883 or mqtts://host:8883
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// Instance names this deployment in topic paths
	// (bursar/<instance>/...). Default "bursar".
	Instance string `yaml:"instance"`
}

// EmailConfig defines the optional interview summary email.
type EmailConfig struct {
	Enabled  bool   `yaml:"enabled"`
	SMTPHost string `yaml:"smtp_host"`
	SMTPPort int    `yaml:"smtp_port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	To       string `yaml:"to"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen:  ListenConfig{Port: 8080},
		DataDir: "data",
		Oracle: OracleConfig{
			Enabled:    true,
			Provider:   "ollama",
			Model:      "qwen3:4b",
			TimeoutSec: 30,
		},
		MQTT: MQTTConfig{
			Instance: "bursar",
		},
		Email: EmailConfig{
			SMTPPort: 587,
		},
	}
}
