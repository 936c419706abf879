// Package config loads run settings from an optional YAML file with
// environment variable overrides. Precedence: environment > file > defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"stratdsl/llm"
)

// YAMLConfig is the on-disk file shape.
type YAMLConfig struct {
	LLM struct {
		APIKey  string `yaml:"api_key"`
		BaseURL string `yaml:"base_url"`
		Model   string `yaml:"model"`
	} `yaml:"llm"`

	Backtest struct {
		InitialCapital float64 `yaml:"initial_capital"`
	} `yaml:"backtest"`

	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`
}

// Config is the resolved runtime configuration.
type Config struct {
	// LLM endpoint for natural-language strategy extraction
	APIKey  string
	BaseURL string
	Model   string

	// Starting capital for simulations
	InitialCapital float64

	// HTTP server port
	Port int
}

// DefaultConfig mirrors the documented defaults.
var DefaultConfig = Config{
	BaseURL:        llm.DefaultBaseURL,
	Model:          llm.DefaultModel,
	InitialCapital: 10000,
	Port:           8080,
}

// LoadFromFile reads a YAML file over the defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := DefaultConfig
	if yc.LLM.APIKey != "" {
		cfg.APIKey = yc.LLM.APIKey
	}
	if yc.LLM.BaseURL != "" {
		cfg.BaseURL = yc.LLM.BaseURL
	}
	if yc.LLM.Model != "" {
		cfg.Model = yc.LLM.Model
	}
	if yc.Backtest.InitialCapital > 0 {
		cfg.InitialCapital = yc.Backtest.InitialCapital
	}
	if yc.Server.Port > 0 {
		cfg.Port = yc.Server.Port
	}
	return &cfg, nil
}

// Load resolves the configuration. A .env file in the working directory is
// applied first so GROQ_API_KEY can live there during development.
func Load(configPath string) *Config {
	_ = godotenv.Load()

	cfg := DefaultConfig
	if configPath != "" {
		if fileCfg, err := LoadFromFile(configPath); err == nil {
			cfg = *fileCfg
		} else {
			fmt.Fprintf(os.Stderr, "warning: config file %s: %v\n", configPath, err)
		}
	}

	if key := getAPIKey(); key != "" {
		cfg.APIKey = key
	}
	if url := os.Getenv("LLM_BASE_URL"); url != "" {
		cfg.BaseURL = url
	}
	if model := os.Getenv("LLM_MODEL"); model != "" {
		cfg.Model = model
	}
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	return &cfg
}

func getAPIKey() string {
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("LLM_API_KEY")
}
