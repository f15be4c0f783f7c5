package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host            string `yaml:"host" env:"DB_HOST"`
		Port            string `yaml:"port" env:"DB_PORT"`
		User            string `yaml:"user" env:"DB_USER"`
		Password        string `yaml:"password" env:"DB_PASSWORD"`
		DBName          string `yaml:"dbname" env:"DB_NAME"`
		SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE"`
		URL             string `yaml:"url" env:"DATABASE_URL"`
		MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS"`
		MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME"`
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`

	Ingest struct {
		DataDir string `yaml:"data_dir" env:"INGEST_DATA_DIR"`
		Pattern string `yaml:"pattern" env:"INGEST_PATTERN"`
	} `yaml:"ingest"`

	Crawl struct {
		BaseURL            string `yaml:"base_url" env:"CRAWL_BASE_URL"`
		SchoolID           string `yaml:"school_id" env:"CRAWL_SCHOOL_ID"`
		Semester           string `yaml:"semester" env:"CRAWL_SEMESTER"`
		Year               int    `yaml:"year" env:"CRAWL_YEAR"`
		MatchLimit         int    `yaml:"match_limit" env:"CRAWL_MATCH_LIMIT"`
		StagnationLimit    int    `yaml:"stagnation_limit" env:"CRAWL_STAGNATION_LIMIT"`
		RatingsLimit       int    `yaml:"ratings_limit" env:"CRAWL_RATINGS_LIMIT"`
		Headless           bool   `yaml:"headless" env:"CRAWL_HEADLESS"`
		DryRun             bool   `yaml:"dry_run" env:"CRAWL_DRY_RUN"`
		UserAgent          string `yaml:"user_agent" env:"CRAWL_USER_AGENT"`
		InitialLoadTimeout string `yaml:"initial_load_timeout" env:"CRAWL_INITIAL_LOAD_TIMEOUT"`
		ActionTimeout      string `yaml:"action_timeout" env:"CRAWL_ACTION_TIMEOUT"`
		SettleDelay        string `yaml:"settle_delay" env:"CRAWL_SETTLE_DELAY"`
		FetchTimeout       string `yaml:"fetch_timeout" env:"CRAWL_FETCH_TIMEOUT"`
	} `yaml:"crawl"`
}

// LoadConfig loads configuration from a .env file, a YAML file and environment variables,
// in increasing order of precedence. A missing YAML file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			file, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(file, config); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	if err := loadFromEnv(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "courseatlas"
	config.Database.SSLMode = "disable"
	config.Database.MaxIdleConns = 1
	config.Database.MaxOpenConns = 4
	config.Database.ConnMaxLifetime = "1h"

	config.Logging.Level = "info"
	config.Logging.Format = "text"

	config.Ingest.DataDir = "data/processed"
	config.Ingest.Pattern = "*_cleaned.csv"

	config.Crawl.BaseURL = "https://www.ratemyprofessors.com"
	config.Crawl.SchoolID = "1320"
	config.Crawl.StagnationLimit = 4
	config.Crawl.RatingsLimit = 10
	config.Crawl.Headless = true
	config.Crawl.UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"
	config.Crawl.InitialLoadTimeout = "25s"
	config.Crawl.ActionTimeout = "1500ms"
	config.Crawl.SettleDelay = "900ms"
	config.Crawl.FetchTimeout = "30s"
}

// loadFromEnv overrides configuration with environment variables
func loadFromEnv(config *Config) error {
	return processStructFields(config)
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.URL == "" && config.Database.Host == "" {
		return fmt.Errorf("database host or url is required")
	}

	if config.Crawl.StagnationLimit < 1 {
		return fmt.Errorf("crawl stagnation limit must be at least 1")
	}

	if config.Crawl.MatchLimit < 0 {
		return fmt.Errorf("crawl match limit cannot be negative")
	}

	for name, value := range map[string]string{
		"initial_load_timeout": config.Crawl.InitialLoadTimeout,
		"action_timeout":       config.Crawl.ActionTimeout,
		"settle_delay":         config.Crawl.SettleDelay,
		"fetch_timeout":        config.Crawl.FetchTimeout,
		"conn_max_lifetime":    config.Database.ConnMaxLifetime,
	} {
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid %s duration %q: %w", name, value, err)
		}
	}

	return nil
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}

// PrettyLogs reports whether the console writer should be used
func (c *Config) PrettyLogs() bool {
	return strings.ToLower(c.Logging.Format) == "text"
}
