package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration tree, populated by Load from an
// optional config.json base file and then from environment variables.
// applyEnvOverrides sets almost every field to its environment
// variable or, when that is unset, to a built-in default, so a
// config.json value is kept only for the credential fields (JWT
// secret, Vault token, database password, quotes/exchange/AI keys)
// whose variables are unset.
type Config struct {
	LoggingConfig  LoggingConfig  `json:"logging"`
	ServerConfig   ServerConfig   `json:"server"`
	AuthConfig     AuthConfig     `json:"auth"`
	VaultConfig    VaultConfig    `json:"vault"`
	RedisConfig    RedisConfig    `json:"redis"`
	DatabaseConfig DatabaseConfig `json:"database"`
	ClockConfig    ClockConfig    `json:"clock"`
	QuotesConfig   QuotesConfig   `json:"quotes"`
	ExchangeConfig ExchangeConfig `json:"exchange"`
	AIConfig       AIConfig       `json:"ai"`
	ChartConfig    ChartConfig    `json:"chart"`
	SentimentConfig   SentimentConfig   `json:"sentiment"`
	TradeLifecycleConfig TradeLifecycleConfig `json:"trade_lifecycle"`
	FillSyncConfig FillSyncConfig `json:"fill_sync"`
}

type LoggingConfig struct {
	Level       string `json:"level"`        // DEBUG, INFO, WARN, ERROR
	Output      string `json:"output"`       // stdout, stderr, or file path
	JSONFormat  bool   `json:"json_format"`  // Output as JSON
	IncludeFile bool   `json:"include_file"` // Include file and line number
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"` // CORS allowed origins
	ReadTimeout     int    `json:"read_timeout"`     // Seconds
	WriteTimeout    int    `json:"write_timeout"`    // Seconds
	ShutdownTimeout int    `json:"shutdown_timeout"` // Seconds
}

// AuthConfig guards this module's mutating routes with a single
// service-level bearer token (see internal/auth) — there is no
// per-user account model in this backend.
type AuthConfig struct {
	Enabled      bool          `json:"enabled"`
	JWTSecret    string        `json:"jwt_secret"`
	TokenTTL     time.Duration `json:"token_ttl"`
}

// VaultConfig holds HashiCorp Vault configuration for the
// quotes/exchange/AI API keys.
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`  // KV secrets engine mount path
	SecretPath string `json:"secret_path"` // Path prefix for API keys
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// RedisConfig holds Redis configuration backing internal/cache.
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// ClockConfig configures the C1 scheduler's default tick behavior.
type ClockConfig struct {
	ShutdownGrace time.Duration `json:"shutdown_grace"`
}

// QuotesConfig configures the C3 quotes provider client and its
// token-bucket rate limiter, named after
// original_source/backend/app/rate_limiter.py's fields.
type QuotesConfig struct {
	APIKey            string        `json:"api_key"`
	BaseURL           string        `json:"base_url"`
	RateLimitRate     int           `json:"rate_limit_rate"`     // tokens
	RateLimitPer      time.Duration `json:"rate_limit_per"`      // per window
	RateLimitBurst    int           `json:"rate_limit_burst"`
	MaxConsecutive    int           `json:"max_consecutive"`     // consecutive failures before pausing
	PauseDuration     time.Duration `json:"pause_duration"`
	MaxRetries        int           `json:"max_retries"`
	RequestTimeout    time.Duration `json:"request_timeout"`
}

// ExchangeConfig configures the C4 exchange fills client.
type ExchangeConfig struct {
	BaseURL        string        `json:"base_url"`
	Accounts       []string      `json:"accounts"` // wallet addresses to sync
	APIWallet      string        `json:"api_wallet"`
	APISecret      string        `json:"api_secret"`
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxRetries     int           `json:"max_retries"`
	PageSize       int           `json:"page_size"`
}

// AIConfig configures the C5 multimodal AI client and C10's verdict
// parsing, extending the teacher's LLMProvider/LLMModel shape.
type AIConfig struct {
	Enabled        bool          `json:"enabled"`
	Provider       string        `json:"provider"` // "claude", "openai", "deepseek"
	ClaudeAPIKey   string        `json:"claude_api_key"`
	OpenAIAPIKey   string        `json:"openai_api_key"`
	DeepSeekAPIKey string        `json:"deepseek_api_key"`
	Model          string        `json:"model"`
	RequestTimeout time.Duration `json:"request_timeout"`
	MaxRetries     int           `json:"max_retries"`
}

// ChartConfig configures C6's PNG renders.
type ChartConfig struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// SentimentConfig configures C7's scan interval and debounce window.
type SentimentConfig struct {
	Enabled         bool          `json:"enabled"`
	ScanInterval    time.Duration `json:"scan_interval"`
	DebounceWindow  time.Duration `json:"debounce_window"`
	BootstrapOnInit bool          `json:"bootstrap_on_init"`
}

// TradeLifecycleConfig configures C8's sweep interval and
// orphan-reconciliation default.
type TradeLifecycleConfig struct {
	ScanInterval time.Duration `json:"scan_interval"`
	OrphanPolicy string        `json:"orphan_policy"` // "close" or "recreate"
}

// FillSyncConfig configures C9's scheduler, named after
// original_source/backend/services/hyperliquid_scheduler.py's
// SYNC_INTERVAL_MINUTES / AUTO_START_SYNC env vars.
type FillSyncConfig struct {
	Enabled          bool          `json:"enabled"`
	SyncInterval     time.Duration `json:"sync_interval"`
	AutoStart        bool          `json:"auto_start"`
	StopJoinTimeout  time.Duration `json:"stop_join_timeout"`
}

func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	// Logging config
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", "INFO")
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", "stdout")
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON", "true") == "true"
	cfg.LoggingConfig.IncludeFile = getEnvOrDefault("LOG_INCLUDE_FILE", "false") == "true"

	// Server config
	cfg.ServerConfig.Port = getEnvIntOrDefault("WEB_PORT", 8080)
	cfg.ServerConfig.Host = getEnvOrDefault("WEB_HOST", "0.0.0.0")
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", "*")
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", 30)
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", 30)
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10)

	// Auth config
	cfg.AuthConfig.Enabled = getEnvOrDefault("AUTH_ENABLED", "true") == "true"
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.TokenTTL = getEnvDurationOrDefault("AUTH_TOKEN_TTL", 24*time.Hour)

	// Vault config
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", "false") == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", "http://localhost:8200")
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", "secret")
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", "trading-analytics/api-keys")
	cfg.VaultConfig.TLSEnabled = getEnvOrDefault("VAULT_TLS_ENABLED", "false") == "true"
	cfg.VaultConfig.CACert = getEnvOrDefault("VAULT_CA_CERT", "")

	// Redis config
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", "true") == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", "localhost:6379")
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", "")
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", 0)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", 10)

	// Database config
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", "localhost")
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", 5432)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", "postgres")
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", "trading_analytics")
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSLMODE", "disable")

	// Clock config
	cfg.ClockConfig.ShutdownGrace = getEnvDurationOrDefault("CLOCK_SHUTDOWN_GRACE", 30*time.Second)

	// Quotes config
	cfg.QuotesConfig.APIKey = getEnvOrDefault("QUOTES_API_KEY", cfg.QuotesConfig.APIKey)
	cfg.QuotesConfig.BaseURL = getEnvOrDefault("QUOTES_BASE_URL", "https://pro-api.coinmarketcap.com")
	cfg.QuotesConfig.RateLimitRate = getEnvIntOrDefault("QUOTES_RATE_LIMIT_RATE", 30)
	cfg.QuotesConfig.RateLimitPer = getEnvDurationOrDefault("QUOTES_RATE_LIMIT_PER", time.Minute)
	cfg.QuotesConfig.RateLimitBurst = getEnvIntOrDefault("QUOTES_RATE_LIMIT_BURST", 5)
	cfg.QuotesConfig.MaxConsecutive = getEnvIntOrDefault("QUOTES_MAX_CONSECUTIVE", 3)
	cfg.QuotesConfig.PauseDuration = getEnvDurationOrDefault("QUOTES_PAUSE_DURATION", 30*time.Second)
	cfg.QuotesConfig.MaxRetries = getEnvIntOrDefault("QUOTES_MAX_RETRIES", 3)
	cfg.QuotesConfig.RequestTimeout = getEnvDurationOrDefault("QUOTES_REQUEST_TIMEOUT", 10*time.Second)

	// Exchange config
	cfg.ExchangeConfig.BaseURL = getEnvOrDefault("EXCHANGE_BASE_URL", "https://api.hyperliquid.xyz")
	cfg.ExchangeConfig.Accounts = splitNonEmpty(getEnvOrDefault("EXCHANGE_ACCOUNTS", ""), ",")
	cfg.ExchangeConfig.APIWallet = getEnvOrDefault("EXCHANGE_API_WALLET", cfg.ExchangeConfig.APIWallet)
	cfg.ExchangeConfig.APISecret = getEnvOrDefault("EXCHANGE_API_SECRET", cfg.ExchangeConfig.APISecret)
	cfg.ExchangeConfig.RequestTimeout = getEnvDurationOrDefault("EXCHANGE_REQUEST_TIMEOUT", 10*time.Second)
	cfg.ExchangeConfig.MaxRetries = getEnvIntOrDefault("EXCHANGE_MAX_RETRIES", 3)
	cfg.ExchangeConfig.PageSize = getEnvIntOrDefault("EXCHANGE_PAGE_SIZE", 500)

	// AI config
	cfg.AIConfig.Enabled = getEnvOrDefault("AI_ENABLED", "true") == "true"
	cfg.AIConfig.Provider = getEnvOrDefault("AI_PROVIDER", "claude")
	cfg.AIConfig.ClaudeAPIKey = getEnvOrDefault("AI_CLAUDE_API_KEY", cfg.AIConfig.ClaudeAPIKey)
	cfg.AIConfig.OpenAIAPIKey = getEnvOrDefault("AI_OPENAI_API_KEY", cfg.AIConfig.OpenAIAPIKey)
	cfg.AIConfig.DeepSeekAPIKey = getEnvOrDefault("AI_DEEPSEEK_API_KEY", cfg.AIConfig.DeepSeekAPIKey)
	cfg.AIConfig.Model = getEnvOrDefault("AI_MODEL", "claude-3-5-sonnet-20241022")
	cfg.AIConfig.RequestTimeout = getEnvDurationOrDefault("AI_REQUEST_TIMEOUT", 45*time.Second)
	cfg.AIConfig.MaxRetries = getEnvIntOrDefault("AI_MAX_RETRIES", 2)

	// Chart config
	cfg.ChartConfig.Width = getEnvIntOrDefault("CHART_WIDTH", 1024)
	cfg.ChartConfig.Height = getEnvIntOrDefault("CHART_HEIGHT", 512)

	// Sentiment config
	cfg.SentimentConfig.Enabled = getEnvOrDefault("SENTIMENT_ENABLED", "true") == "true"
	cfg.SentimentConfig.ScanInterval = getEnvDurationOrDefault("SENTIMENT_SCAN_INTERVAL", 15*time.Minute)
	cfg.SentimentConfig.DebounceWindow = getEnvDurationOrDefault("SENTIMENT_DEBOUNCE_WINDOW", 10*time.Minute)
	cfg.SentimentConfig.BootstrapOnInit = getEnvOrDefault("SENTIMENT_BOOTSTRAP_ON_INIT", "true") == "true"

	// Trade lifecycle config
	cfg.TradeLifecycleConfig.ScanInterval = getEnvDurationOrDefault("TRADE_LIFECYCLE_SCAN_INTERVAL", time.Minute)
	cfg.TradeLifecycleConfig.OrphanPolicy = getEnvOrDefault("TRADE_LIFECYCLE_ORPHAN_POLICY", "close")

	// Fill sync config
	cfg.FillSyncConfig.Enabled = getEnvOrDefault("FILL_SYNC_ENABLED", "true") == "true"
	cfg.FillSyncConfig.SyncInterval = getEnvDurationOrDefault("SYNC_INTERVAL_MINUTES_DURATION", 0)
	if cfg.FillSyncConfig.SyncInterval == 0 {
		cfg.FillSyncConfig.SyncInterval = time.Duration(getEnvIntOrDefault("SYNC_INTERVAL_MINUTES", 5)) * time.Minute
	}
	cfg.FillSyncConfig.AutoStart = getEnvOrDefault("AUTO_START_SYNC", "true") == "true"
	cfg.FillSyncConfig.StopJoinTimeout = getEnvDurationOrDefault("FILL_SYNC_STOP_JOIN_TIMEOUT", 30*time.Second)
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitNonEmpty(value, sep string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, sep)
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// GenerateSampleConfig creates a sample configuration file for local
// development.
func GenerateSampleConfig(filename string) error {
	cfg := Config{
		LoggingConfig: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
		ServerConfig: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			AllowedOrigins:  "*",
			ReadTimeout:     30,
			WriteTimeout:    30,
			ShutdownTimeout: 10,
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "trading_analytics",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Enabled:  true,
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		QuotesConfig: QuotesConfig{
			BaseURL:        "https://pro-api.coinmarketcap.com",
			RateLimitRate:  30,
			RateLimitPer:   time.Minute,
			RateLimitBurst: 5,
			MaxConsecutive: 3,
			PauseDuration:  30 * time.Second,
			MaxRetries:     3,
			RequestTimeout: 10 * time.Second,
		},
		SentimentConfig: SentimentConfig{
			Enabled:         true,
			ScanInterval:    15 * time.Minute,
			DebounceWindow:  10 * time.Minute,
			BootstrapOnInit: true,
		},
		FillSyncConfig: FillSyncConfig{
			Enabled:         true,
			SyncInterval:    5 * time.Minute,
			AutoStart:       true,
			StopJoinTimeout: 30 * time.Second,
		},
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
