package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Transport TransportConfig `yaml:"transport"`
	Memory    MemoryConfig    `yaml:"memory"`
	Assistant AssistantConfig `yaml:"assistant"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// TransportConfig selects how the MCP surface is served: "stdio" for a
// local client, "http" to serve both the REST API and the MCP endpoint.
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// MemoryConfig locates the assistant memory database.
type MemoryConfig struct {
	Path string `yaml:"path"`
}

// AssistantConfig configures the language model client. An empty API
// key disables chat; everything else keeps working.
type AssistantConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8000,
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Memory: MemoryConfig{
			Path: "chemostats.db",
		},
		Assistant: AssistantConfig{
			Model: "gpt-4o-mini",
		},
		Log: LogConfig{
			Level: "info",
		},
	}

	if path := os.Getenv("CHEMOSTATS_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if host := os.Getenv("CHEMOSTATS_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("CHEMOSTATS_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CHEMOSTATS_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if mode := os.Getenv("CHEMOSTATS_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if path := os.Getenv("CHEMOSTATS_MEMORY_PATH"); path != "" {
		cfg.Memory.Path = path
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Assistant.APIKey = key
	}
	if model := os.Getenv("CHEMOSTATS_ASSISTANT_MODEL"); model != "" {
		cfg.Assistant.Model = model
	}
	if baseURL := os.Getenv("CHEMOSTATS_ASSISTANT_BASE_URL"); baseURL != "" {
		cfg.Assistant.BaseURL = baseURL
	}
	if level := os.Getenv("CHEMOSTATS_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}

	if cfg.Transport.Mode != "stdio" && cfg.Transport.Mode != "http" {
		return Config{}, fmt.Errorf("invalid transport mode %q (want stdio or http)", cfg.Transport.Mode)
	}

	return cfg, nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
