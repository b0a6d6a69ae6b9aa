package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/okatzz/shotobump-sub000/internal/engine"
	"gopkg.in/yaml.v3"
)

// Config is the YAML session manifest. Every client node in a session
// loads the same file; which node runs the authoritative clock is decided
// by comparing USER_ID against the host id.
type Config struct {
	Session struct {
		ID      string `yaml:"id"`
		HostID  string `yaml:"host_id"`
		Players []struct {
			ID          string `yaml:"id"`
			DisplayName string `yaml:"display_name"`
		} `yaml:"players"`
	} `yaml:"session"`

	Engine engine.Config `yaml:"engine"`
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func (c *Config) sessionID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Session.ID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid session id %q: %w", c.Session.ID, err)
	}
	return id, nil
}

func (c *Config) hostID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Session.HostID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid host id %q: %w", c.Session.HostID, err)
	}
	return id, nil
}
