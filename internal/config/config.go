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
	Server   ServerConfig   `yaml:"server"`
	Telegram TelegramConfig `yaml:"telegram"`
	Upload   UploadConfig   `yaml:"upload"`
	Delivery DeliveryConfig `yaml:"delivery"`
	Phone    PhoneConfig    `yaml:"phone"`
	Redis    RedisConfig    `yaml:"redis"`
	History  HistoryConfig  `yaml:"history"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig holds HTTP server configuration (webhook + health)
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with ECS detection
func (c ServerConfig) GetHost() string {
	// On ECS/container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// Addr returns host:port for http.Server.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.GetHost(), c.Port)
}

// Telegram update delivery modes.
const (
	ModePoll    = "poll"
	ModeWebhook = "webhook"
)

// TelegramConfig holds Bot API configuration
type TelegramConfig struct {
	BotToken           string `yaml:"bot_token"`
	BaseURL            string `yaml:"base_url"`
	Mode               string `yaml:"mode"` // poll | webhook
	WebhookURL         string `yaml:"webhook_url"`
	WebhookSecret      string `yaml:"webhook_secret"`
	PollTimeoutSeconds int    `yaml:"poll_timeout_seconds"`
	TimeoutSeconds     int    `yaml:"timeout_seconds"`
	MaxRetries         int    `yaml:"max_retries"`
	// PollLockTTLSeconds bounds how long a crashed poller keeps other
	// replicas from taking over.
	PollLockTTLSeconds int `yaml:"poll_lock_ttl_seconds"`
}

// Timeout returns the per-request timeout as a duration
func (c TelegramConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollTimeout returns the getUpdates long-poll timeout as a duration
func (c TelegramConfig) PollTimeout() time.Duration {
	return time.Duration(c.PollTimeoutSeconds) * time.Second
}

// PollLockTTL returns the poller leadership lock TTL as a duration
func (c TelegramConfig) PollLockTTL() time.Duration {
	return time.Duration(c.PollLockTTLSeconds) * time.Second
}

// UploadConfig holds upload window settings
type UploadConfig struct {
	QuietPeriodMs int `yaml:"quiet_period_ms"`
	CheckDelayMs  int `yaml:"check_delay_ms"`
	// MaxFiles caps files per mode, keyed by mode name (cv_v1, cv_v2, ...).
	MaxFiles     map[string]int `yaml:"max_files"`
	MaxFileBytes int64          `yaml:"max_file_bytes"`
}

// QuietPeriod returns the debounce quiet period as a duration
func (c UploadConfig) QuietPeriod() time.Duration {
	return time.Duration(c.QuietPeriodMs) * time.Millisecond
}

// CheckDelay returns the completion check delay as a duration
func (c UploadConfig) CheckDelay() time.Duration {
	return time.Duration(c.CheckDelayMs) * time.Millisecond
}

// DeliveryConfig holds outbound file pacing
type DeliveryConfig struct {
	SendDelayMs int `yaml:"send_delay_ms"`
}

// SendDelay returns the pause between file sends as a duration
func (c DeliveryConfig) SendDelay() time.Duration {
	return time.Duration(c.SendDelayMs) * time.Millisecond
}

// PhoneConfig holds number normalization policy
type PhoneConfig struct {
	CountryCode string `yaml:"country_code"`
}

// RedisConfig holds the Redis connection used for the poller lock
type RedisConfig struct {
	URL string `yaml:"url"`
}

// HistoryConfig holds the optional conversion history database
type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url"`
}

// StorageConfig holds the optional output archive
type StorageConfig struct {
	Type       string `yaml:"type"` // none | local | s3
	LocalPath  string `yaml:"local_path"`
	S3Bucket   string `yaml:"s3_bucket"`
	S3Prefix   string `yaml:"s3_prefix"`
	AWSRegion  string `yaml:"aws_region"`
	AWSProfile string `yaml:"aws_profile"` // Empty string uses default credential chain (IAM role on ECS)
}

// GetAWSProfile returns the AWS profile, with environment variable override
func (c StorageConfig) GetAWSProfile() string {
	if envProfile := os.Getenv("AWS_PROFILE_OVERRIDE"); envProfile != "" {
		if envProfile == "none" || envProfile == "iam" {
			return "" // Use default credential chain (IAM role)
		}
		return envProfile
	}
	// On ECS/Lambda, don't use a profile - use IAM role
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return ""
	}
	return c.AWSProfile
}

// LogConfig holds logger settings
type LogConfig struct {
	Level     string `yaml:"level"`
	RedactPII *bool  `yaml:"redact_pii"`
}

// Redact reports whether phone numbers are masked in logs. Defaults to true.
func (c LogConfig) Redact() bool {
	return c.RedactPII == nil || *c.RedactPII
}

// Default returns a configuration with every default applied, for runs
// without a config file.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
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

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Telegram.BaseURL == "" {
		cfg.Telegram.BaseURL = "https://api.telegram.org"
	}
	if cfg.Telegram.Mode == "" {
		cfg.Telegram.Mode = ModePoll
	}
	if cfg.Telegram.PollTimeoutSeconds == 0 {
		cfg.Telegram.PollTimeoutSeconds = 30
	}
	if cfg.Telegram.TimeoutSeconds == 0 {
		cfg.Telegram.TimeoutSeconds = 60
	}
	if cfg.Telegram.MaxRetries == 0 {
		cfg.Telegram.MaxRetries = 3
	}
	if cfg.Telegram.PollLockTTLSeconds == 0 {
		cfg.Telegram.PollLockTTLSeconds = 90
	}
	if cfg.Upload.QuietPeriodMs == 0 {
		cfg.Upload.QuietPeriodMs = 3000
	}
	if cfg.Upload.CheckDelayMs == 0 {
		cfg.Upload.CheckDelayMs = 4000
	}
	if cfg.Upload.MaxFiles == nil {
		cfg.Upload.MaxFiles = map[string]int{"cv_v2": 10}
	}
	if cfg.Upload.MaxFileBytes == 0 {
		cfg.Upload.MaxFileBytes = 20 << 20
	}
	if cfg.Delivery.SendDelayMs == 0 {
		cfg.Delivery.SendDelayMs = 300
	}
	if cfg.Phone.CountryCode == "" {
		cfg.Phone.CountryCode = "62"
	}
	if cfg.Storage.Type == "" {
		cfg.Storage.Type = "none"
	}
	if cfg.Storage.LocalPath == "" {
		cfg.Storage.LocalPath = "./data/outputs"
	}
	if cfg.Storage.AWSRegion == "" {
		cfg.Storage.AWSRegion = "us-west-2"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
}

// Validate checks the settings the bot cannot start without.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required (or TELEGRAM_BOT_TOKEN)")
	}
	switch c.Telegram.Mode {
	case ModePoll:
	case ModeWebhook:
		if c.Telegram.WebhookSecret == "" {
			return fmt.Errorf("telegram.webhook_secret is required in webhook mode")
		}
	default:
		return fmt.Errorf("telegram.mode must be %q or %q, got %q", ModePoll, ModeWebhook, c.Telegram.Mode)
	}
	if c.History.Enabled && c.History.DatabaseURL == "" {
		return fmt.Errorf("history.database_url is required when history is enabled")
	}
	switch c.Storage.Type {
	case "none", "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("storage.type must be none, local or s3, got %q", c.Storage.Type)
	}
	return nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env vars,
// so secrets can live in .env locally and in real env vars on ECS.
// An empty path skips the file and starts from defaults.
func LoadFromEnv(path string) (*Config, error) {
	// Load .env file if it exists (no error if missing)
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}

	// Override with environment variables if present
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_BASE_URL"); v != "" {
		cfg.Telegram.BaseURL = v
	}
	if v := os.Getenv("TELEGRAM_MODE"); v != "" {
		cfg.Telegram.Mode = v
	}
	if v := os.Getenv("TELEGRAM_WEBHOOK_URL"); v != "" {
		cfg.Telegram.WebhookURL = v
	}
	if v := os.Getenv("TELEGRAM_WEBHOOK_SECRET"); v != "" {
		cfg.Telegram.WebhookSecret = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}

	// Database override (ECS deployment, config.yaml has local defaults)
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.History.DatabaseURL = v
		if !cfg.History.Enabled {
			cfg.History.Enabled = true
		}
	}

	// Storage overrides
	if v := os.Getenv("VCFBOT_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("VCFBOT_STORAGE_S3_BUCKET"); v != "" {
		cfg.Storage.S3Bucket = v
		if cfg.Storage.Type == "none" {
			cfg.Storage.Type = "s3"
		}
	}
	if v := os.Getenv("VCFBOT_STORAGE_S3_REGION"); v != "" {
		cfg.Storage.AWSRegion = v
	}
	if v := os.Getenv("VCFBOT_PHONE_COUNTRY_CODE"); v != "" {
		cfg.Phone.CountryCode = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	return cfg, nil
}
