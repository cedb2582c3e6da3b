package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/market-ar/market/internal/recap"
)

// DefaultPath is the config file read when none is given
const DefaultPath = "market.yaml"

type Config struct {
	APIURL      string        `yaml:"api_url"`
	DBPath      string        `yaml:"db_path"`
	WorkDir     string        `yaml:"work_dir"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`

	Recap RecapConfig `yaml:"recap"`

	// LLM suggestions
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`

	ServePort  string `yaml:"serve_port"`
	ColorTheme string `yaml:"color_theme"`
}

type RecapConfig struct {
	PollInterval    time.Duration `yaml:"poll_interval"`
	MaxPollAttempts int           `yaml:"max_poll_attempts"`
	PollTimeout     time.Duration `yaml:"poll_timeout"`
	ResultFormat    string        `yaml:"result_format"`
	SceneFormat     string        `yaml:"scene_format"`
	BatchSize       int           `yaml:"batch_size"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		APIURL:      "http://localhost:8080",
		DBPath:      "market.db",
		WorkDir:     "tmp/market",
		HTTPTimeout: 60 * time.Second,
		Recap: RecapConfig{
			PollInterval:    recap.DefaultPollInterval,
			MaxPollAttempts: recap.DefaultMaxPollAttempts,
			ResultFormat:    recap.DefaultResultFormat,
			SceneFormat:     recap.DefaultSceneFormat,
			BatchSize:       recap.DefaultBatchSize,
		},
		Provider:   "ollama",
		ServePort:  "8888",
		ColorTheme: "auto",
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// MARKET_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setDuration := func(key string, dst *time.Duration) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = d
		return nil
	}
	setInt := func(key string, dst *int) error {
		v := os.Getenv(key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	setString("MARKET_API_URL", &c.APIURL)
	setString("MARKET_DB_PATH", &c.DBPath)
	setString("MARKET_WORK_DIR", &c.WorkDir)
	setString("MARKET_RESULT_FORMAT", &c.Recap.ResultFormat)
	setString("MARKET_PROVIDER", &c.Provider)
	setString("MARKET_MODEL", &c.Model)

	if err := setDuration("MARKET_HTTP_TIMEOUT", &c.HTTPTimeout); err != nil {
		return err
	}
	if err := setDuration("MARKET_POLL_INTERVAL", &c.Recap.PollInterval); err != nil {
		return err
	}
	if err := setDuration("MARKET_POLL_TIMEOUT", &c.Recap.PollTimeout); err != nil {
		return err
	}
	if err := setInt("MARKET_MAX_POLL_ATTEMPTS", &c.Recap.MaxPollAttempts); err != nil {
		return err
	}
	return setInt("MARKET_BATCH_SIZE", &c.Recap.BatchSize)
}

// Validate rejects values the clients cannot work with
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url must not be empty")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout must not be negative")
	}
	if c.Recap.PollInterval <= 0 {
		return fmt.Errorf("recap.poll_interval must be positive")
	}
	if c.Recap.MaxPollAttempts <= 0 {
		return fmt.Errorf("recap.max_poll_attempts must be positive")
	}
	if c.Recap.BatchSize <= 0 {
		return fmt.Errorf("recap.batch_size must be positive")
	}
	return nil
}

// RecapOptions converts the recap section to workflow options
func (c *Config) RecapOptions() recap.Options {
	return recap.Options{
		PollInterval:    c.Recap.PollInterval,
		MaxPollAttempts: c.Recap.MaxPollAttempts,
		PollTimeout:     c.Recap.PollTimeout,
		ResultFormat:    c.Recap.ResultFormat,
		SceneFormat:     c.Recap.SceneFormat,
		BatchSize:       c.Recap.BatchSize,
	}
}
