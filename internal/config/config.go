// Package config loads the dashboard configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `yaml:"server"`
	Google GoogleConfig `yaml:"google"`
	Fetch  FetchConfig  `yaml:"fetch"`
	Cache  CacheConfig  `yaml:"cache"`
	Gemini GeminiConfig `yaml:"gemini"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host                  string   `yaml:"host"`
	Port                  int      `yaml:"port"`
	RequestTimeoutSeconds int      `yaml:"request_timeout_seconds"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
}

// Addr is the host:port the server listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RequestTimeout is the per-request deadline for dashboard aggregation.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSeconds) * time.Second
}

// GoogleConfig holds the service account and the spreadsheets it reads.
type GoogleConfig struct {
	ServiceAccountEmail string `yaml:"service_account_email"`
	PrivateKey          string `yaml:"private_key"`

	SignupSpreadsheetID     string `yaml:"signup_spreadsheet_id"`
	WhatsAppSpreadsheetID   string `yaml:"whatsapp_spreadsheet_id"`
	ConversionSpreadsheetID string `yaml:"conversion_spreadsheet_id"`
	DemoStatusSpreadsheetID string `yaml:"demo_status_spreadsheet_id"`

	ConversionSheetName string `yaml:"conversion_sheet_name"`
	DemoStatusSheetName string `yaml:"demo_status_sheet_name"`
}

// FetchConfig tunes sheet fetching and rate-limit backoff.
type FetchConfig struct {
	MaxRetries          int `yaml:"max_retries"`
	InitialDelayMillis  int `yaml:"initial_delay_ms"`
	MaxDelayMillis      int `yaml:"max_delay_ms"`
	InterSheetDelayMS   int `yaml:"inter_sheet_delay_ms"`
	InterSheetJitterMS  int `yaml:"inter_sheet_jitter_ms"`
	FallbackRecentCount int `yaml:"fallback_recent_count"`
}

// CacheConfig selects the cache backend. An empty RedisAddr means the
// in-process store.
type CacheConfig struct {
	TTLSeconds    int    `yaml:"ttl_seconds"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`
}

// TTL is the lifetime of cached dashboard responses.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// GeminiConfig holds the recommendation model settings.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.RequestTimeoutSeconds == 0 {
		cfg.Server.RequestTimeoutSeconds = 30
	}
	if cfg.Fetch.MaxRetries == 0 {
		cfg.Fetch.MaxRetries = 5
	}
	if cfg.Fetch.InitialDelayMillis == 0 {
		cfg.Fetch.InitialDelayMillis = 1000
	}
	if cfg.Fetch.MaxDelayMillis == 0 {
		cfg.Fetch.MaxDelayMillis = 15000
	}
	if cfg.Fetch.InterSheetDelayMS == 0 {
		cfg.Fetch.InterSheetDelayMS = 800
	}
	if cfg.Fetch.InterSheetJitterMS == 0 {
		cfg.Fetch.InterSheetJitterMS = 400
	}
	if cfg.Fetch.FallbackRecentCount == 0 {
		cfg.Fetch.FallbackRecentCount = 7
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = 300
	}
	if cfg.Gemini.Model == "" {
		cfg.Gemini.Model = "gemini-2.0-flash"
	}
}

// LoadFromEnv loads configuration with environment variable overrides.
// A .env file (if present) is loaded first, so secrets can live in .env
// locally and in real env vars in production. The YAML file is optional;
// if path is empty or missing, env vars alone configure the app.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg *Config
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			cfg = &Config{}
			cfg.applyDefaults()
		} else {
			cfg = loaded
		}
	} else {
		cfg = &Config{}
		cfg.applyDefaults()
	}

	if v := os.Getenv("SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GOOGLE_SERVICE_ACCOUNT_EMAIL"); v != "" {
		cfg.Google.ServiceAccountEmail = v
	}
	if v := os.Getenv("GOOGLE_PRIVATE_KEY"); v != "" {
		cfg.Google.PrivateKey = v
	}
	if v := os.Getenv("SIGNUP_SPREADSHEET_ID"); v != "" {
		cfg.Google.SignupSpreadsheetID = v
	}
	if v := os.Getenv("WHATSAPP_SPREADSHEET_ID"); v != "" {
		cfg.Google.WhatsAppSpreadsheetID = v
	}
	if v := os.Getenv("CONVERSION_SPREADSHEET_ID"); v != "" {
		cfg.Google.ConversionSpreadsheetID = v
	}
	if v := os.Getenv("DEMO_STATUS_SPREADSHEET_ID"); v != "" {
		cfg.Google.DemoStatusSpreadsheetID = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Cache.RedisPassword = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		cfg.Gemini.APIKey = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}

	return cfg, nil
}

// Validate reports the first missing required setting.
func (cfg *Config) Validate() error {
	if cfg.Google.ServiceAccountEmail == "" {
		return fmt.Errorf("google service account email is required")
	}
	if cfg.Google.PrivateKey == "" {
		return fmt.Errorf("google private key is required")
	}
	if cfg.Google.SignupSpreadsheetID == "" {
		return fmt.Errorf("signup spreadsheet id is required")
	}
	return nil
}
