package main

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/mcdev12/scotchauction/go/internal/models"
)

// Config holds the full server configuration. A yaml file is optional;
// environment variables override whatever the file set.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Game struct {
		MaxTurns     int    `yaml:"max_turns"`
		StartBalance int    `yaml:"start_balance"`
		Settlement   string `yaml:"settlement"`
	} `yaml:"game"`

	Oracle struct {
		TimeoutSec int `yaml:"timeout_sec"`
	} `yaml:"oracle"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`

	Database struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		SSLMode  string `yaml:"sslmode"`
	} `yaml:"database"`
}

func defaultConfig() Config {
	var c Config
	c.Server.Port = "8080"
	c.Game.MaxTurns = 5
	c.Game.StartBalance = 100
	c.Game.Settlement = string(models.SettlementWinnerPays)
	c.Oracle.TimeoutSec = 5
	c.Database.Host = "localhost"
	c.Database.Port = 5432
	c.Database.User = "postgres"
	c.Database.Password = "postgres"
	c.Database.Database = "scotchauction"
	c.Database.SSLMode = "disable"
	return c
}

func loadConfig(path string) (*Config, error) {
	config := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	applyEnv(&config)

	if config.Game.Settlement != string(models.SettlementWinnerPays) &&
		config.Game.Settlement != string(models.SettlementBothPay) {
		return nil, fmt.Errorf("invalid settlement rule: %s", config.Game.Settlement)
	}

	return &config, nil
}

func applyEnv(config *Config) {
	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Game.MaxTurns = getEnvAsInt("GAME_MAX_TURNS", config.Game.MaxTurns)
	config.Game.StartBalance = getEnvAsInt("GAME_START_BALANCE", config.Game.StartBalance)
	config.Game.Settlement = getEnv("GAME_SETTLEMENT", config.Game.Settlement)
	config.Oracle.TimeoutSec = getEnvAsInt("ORACLE_TIMEOUT_SEC", config.Oracle.TimeoutSec)
	config.NATS.URL = getEnv("NATS_URL", config.NATS.URL)
	config.Database.Enabled = getEnvAsBool("DB_ENABLED", config.Database.Enabled)
	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnvAsInt("DB_PORT", config.Database.Port)
	config.Database.User = getEnv("DB_USER", config.Database.User)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.Database = getEnv("DB_NAME", config.Database.Database)
	config.Database.SSLMode = getEnv("DB_SSLMODE", config.Database.SSLMode)
}

// DSN returns the Postgres connection URL.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User, c.Database.Password, c.Database.Host,
		c.Database.Port, c.Database.Database, c.Database.SSLMode,
	)
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
