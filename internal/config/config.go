package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// Configuration structs
// ---------------------------------------------------------------------------

// Config is the top-level configuration for the pulseboard daemon.
type Config struct {
	Backend Backend       `yaml:"backend"`
	Session SessionConfig `yaml:"session"`
	Server  Server        `yaml:"server"`
	Storage Storage       `yaml:"storage"`
	Alpaca  Alpaca        `yaml:"alpaca"`
	Logging Logging       `yaml:"logging"`
	Widgets Widgets       `yaml:"widgets"`
}

// Backend holds connection parameters for the trading backend API that the
// daemon polls.
type Backend struct {
	BaseURL string `yaml:"base_url"`
	// TimeoutSec bounds a single request; 0 means the 10s default.
	TimeoutSec int     `yaml:"timeout_sec"`
	RatePerSec float64 `yaml:"rate_per_sec"`
	RateBurst  int     `yaml:"rate_burst"`
}

// Timeout returns the request timeout as a duration, defaulting to 10s.
func (b Backend) Timeout() time.Duration {
	if b.TimeoutSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(b.TimeoutSec) * time.Second
}

// SessionConfig locates the persisted session credentials.
type SessionConfig struct {
	File string `yaml:"file"`
}

// Server holds network listener configuration for the local board API.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Storage holds paths for data persistence.
type Storage struct {
	DataDir    string `yaml:"data_dir"`
	SQLitePath string `yaml:"sqlite_path"`
}

// Alpaca holds optional credentials for sourcing flash headlines directly
// from the Alpaca market-data API.
type Alpaca struct {
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	DataURL   string `yaml:"data_url"`
}

// Logging configures the application logger.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Widgets holds per-widget parameters: request identities, seed payloads, and
// refresh interval overrides.
type Widgets struct {
	ChallengeEmail string `yaml:"challenge_email"`
	SignalSymbol   string `yaml:"signal_symbol"`
	ChatUserID     string `yaml:"chat_user_id"`

	// IntervalSec overrides a widget's default refresh interval, keyed by
	// widget name. Zero or absent keeps the default.
	IntervalSec map[string]int `yaml:"interval_sec"`

	// Seeds maps a widget name to a raw JSON payload. A widget with a
	// non-empty seed serves that value and never fetches on its own.
	Seeds map[string]string `yaml:"seeds"`
}

// Interval returns the configured refresh interval for a widget, or def when
// no override is set.
func (w Widgets) Interval(name string, def time.Duration) time.Duration {
	if sec, ok := w.IntervalSec[name]; ok && sec > 0 {
		return time.Duration(sec) * time.Second
	}
	return def
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// Load reads the YAML configuration file at the given path, parses it into a
// Config struct, and then applies environment variable overrides. A .env file
// in the working directory is loaded first, if present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

// applyEnvOverrides checks well-known environment variables and overrides the
// corresponding configuration fields when they are set.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("BACKEND_BASE_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}
	if v := os.Getenv("BACKEND_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutSec = n
		}
	}

	if v := os.Getenv("SESSION_FILE"); v != "" {
		cfg.Session.File = v
	}

	if v := os.Getenv("DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Storage.SQLitePath = v
	}

	if v := os.Getenv("ALPACA_API_KEY"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("ALPACA_API_SECRET"); v != "" {
		cfg.Alpaca.APISecret = v
	}
	if v := os.Getenv("ALPACA_DATA_URL"); v != "" {
		cfg.Alpaca.DataURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	// Canonical Alpaca env vars take priority over the ALPACA_* aliases.
	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		cfg.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		cfg.Alpaca.APISecret = v
	}
}
