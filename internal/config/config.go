package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Paths    PathsConfig    `yaml:"paths" envconfig:"PATHS"`
	Fetch    FetchConfig    `yaml:"fetch" envconfig:"FETCH"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
}

// ServerConfig contains HTTP server configuration for the dashboard
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format   string `yaml:"format" envconfig:"FORMAT" default:"json"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"console"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// PathsConfig contains file system paths configuration
type PathsConfig struct {
	DataDir string `yaml:"data_dir" envconfig:"DATA_DIR" default:"data"`
	LogsDir string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs"`
}

// FetchConfig configures the filings API collaborator
type FetchConfig struct {
	BaseURL        string        `yaml:"base_url" envconfig:"BASE_URL" default:"https://projects.propublica.org/nonprofits/api/v2"`
	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"REQUEST_TIMEOUT" default:"10s"`
	RatePerSecond  float64       `yaml:"rate_per_second" envconfig:"RATE_PER_SECOND" default:"1"`
	MaxConcurrency int           `yaml:"max_concurrency" envconfig:"MAX_CONCURRENCY" default:"4"`
}

// PipelineConfig configures the classification pipeline
type PipelineConfig struct {
	// Fixed year window for trajectory building
	WindowStart int `yaml:"window_start" envconfig:"WINDOW_START" default:"2019"`
	WindowEnd   int `yaml:"window_end" envconfig:"WINDOW_END" default:"2023"`

	// Geographic filter for the registry extract
	State       string   `yaml:"state" envconfig:"STATE" default:"PA"`
	Cities      []string `yaml:"cities" envconfig:"CITIES"`
	ZIPPrefixes []string `yaml:"zip_prefixes" envconfig:"ZIP_PREFIXES" default:"151,152"`

	// Sector map file (single-character NTEE prefix -> sector label)
	SectorMapFile string `yaml:"sector_map_file" envconfig:"SECTOR_MAP_FILE" default:"data/sector_map.json"`
}

// Load loads configuration from environment variables and config file
func Load() (*Config, error) {
	var cfg Config

	// Load from environment variables first
	if err := envconfig.Process("NPO", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	// Load from config file if exists
	configFile := getConfigFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileConfig, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = mergeConfigs(*fileConfig, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// loadFromFile loads configuration from YAML file
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// getConfigFilePath returns the configuration file path
func getConfigFilePath() string {
	if path := os.Getenv("NPO_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

// mergeConfigs merges file config with env config, env takes precedence
func mergeConfigs(fileConfig, envConfig Config) Config {
	merged := fileConfig

	if envConfig.Server.Port != 0 {
		merged.Server.Port = envConfig.Server.Port
	}
	if envConfig.Logging.Level != "" {
		merged.Logging.Level = envConfig.Logging.Level
	}
	if envConfig.Logging.Output != "" {
		merged.Logging.Output = envConfig.Logging.Output
	}
	if envConfig.Paths.DataDir != "" {
		merged.Paths.DataDir = envConfig.Paths.DataDir
	}
	if envConfig.Fetch.BaseURL != "" {
		merged.Fetch.BaseURL = envConfig.Fetch.BaseURL
	}
	if envConfig.Pipeline.WindowStart != 0 {
		merged.Pipeline.WindowStart = envConfig.Pipeline.WindowStart
	}
	if envConfig.Pipeline.WindowEnd != 0 {
		merged.Pipeline.WindowEnd = envConfig.Pipeline.WindowEnd
	}

	return merged
}

// validate checks configuration consistency
func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	if c.Pipeline.WindowStart > c.Pipeline.WindowEnd {
		return fmt.Errorf("window start %d after window end %d",
			c.Pipeline.WindowStart, c.Pipeline.WindowEnd)
	}

	if c.Fetch.RatePerSecond <= 0 {
		return fmt.Errorf("fetch rate must be positive: %f", c.Fetch.RatePerSecond)
	}

	return nil
}
