package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	LogLevel    string           `mapstructure:"log_level"`
	Server      ServerConfig     `mapstructure:"server"`
	Database    DatabaseConfig   `mapstructure:"database"`
	Redis       RedisConfig      `mapstructure:"redis"`
	MarketData  MarketDataConfig `mapstructure:"market_data"`
	LLM         LLMConfig        `mapstructure:"llm"`
	Analysis    AnalysisConfig   `mapstructure:"analysis"`
	Sentiment   SentimentConfig  `mapstructure:"sentiment"`
	Decision    DecisionConfig   `mapstructure:"decision"`
	Cache       CacheConfig      `mapstructure:"cache"`
	Watchlist   WatchlistConfig  `mapstructure:"watchlist"`
	Security    SecurityConfig   `mapstructure:"security"`
	Telemetry   TelemetryConfig  `mapstructure:"telemetry"`
	Telegram    TelegramConfig   `mapstructure:"telegram"`
}

type ServerConfig struct {
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	ReadTimeout    string   `mapstructure:"read_timeout"`
	WriteTimeout   string   `mapstructure:"write_timeout"`
}

type DatabaseConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	DatabaseURL string `mapstructure:"database_url"`
	MaxConns    int    `mapstructure:"max_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MarketDataConfig struct {
	DefaultPeriod string `mapstructure:"default_period"`
	NewsBaseURL   string `mapstructure:"news_base_url"`
	NewsLimit     int    `mapstructure:"news_limit"`
	Timeout       string `mapstructure:"timeout"`
	MaxRetries    int    `mapstructure:"max_retries"`
}

// LLMConfig selects the polarity scorer. Provider "keyword" needs no API key.
type LLMConfig struct {
	Provider    string  `mapstructure:"provider"`
	APIKey      string  `mapstructure:"api_key" json:"-" yaml:"-"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
	Timeout     string  `mapstructure:"timeout"`
}

type AnalysisConfig struct {
	RSIPeriod int `mapstructure:"rsi_period"`
	MAPeriod  int `mapstructure:"ma_period"`
	MACDFast  int `mapstructure:"macd_fast"`
	MACDSlow  int `mapstructure:"macd_slow"`
}

type SentimentConfig struct {
	DeadZone float64 `mapstructure:"dead_zone"`
}

// DecisionConfig holds the numeric policy of the decision table.
type DecisionConfig struct {
	Oversold               float64 `mapstructure:"oversold"`
	Overbought             float64 `mapstructure:"overbought"`
	InsufficientConfidence float64 `mapstructure:"insufficient_confidence"`
	BaseConfidence         float64 `mapstructure:"base_confidence"`
	StrongConfidence       float64 `mapstructure:"strong_confidence"`
	NeutralConfidence      float64 `mapstructure:"neutral_confidence"`
	BiasConfidence         float64 `mapstructure:"bias_confidence"`
	MACDBiasThreshold      float64 `mapstructure:"macd_bias_threshold"`
	ConflictPenalty        float64 `mapstructure:"conflict_penalty"`
	ConflictFloor          float64 `mapstructure:"conflict_floor"`
	AgreementBoost         float64 `mapstructure:"agreement_boost"`
	AgreementCap           float64 `mapstructure:"agreement_cap"`
}

type CacheConfig struct {
	PriceTTL string `mapstructure:"price_ttl"`
	NewsTTL  string `mapstructure:"news_ttl"`
}

type WatchlistConfig struct {
	ScanEnabled    bool     `mapstructure:"scan_enabled"`
	ScanSchedule   string   `mapstructure:"scan_schedule"`
	MaxConcurrency int      `mapstructure:"max_concurrency"`
	Symbols        []string `mapstructure:"symbols"`
}

type SecurityConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" json:"-" yaml:"-"`
	JWTExpiry string `mapstructure:"jwt_expiry"`

	// AdminAPIKey guards /api/v1/admin; admin routes are off when empty.
	AdminAPIKey string `mapstructure:"admin_api_key" json:"-" yaml:"-"`
}

type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Exporter     string `mapstructure:"exporter"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

// TelegramConfig enables watchlist alerts. Alerts are off without a bot token.
type TelegramConfig struct {
	BotToken      string   `mapstructure:"bot_token" json:"-" yaml:"-"`
	ChatIDs       []string `mapstructure:"chat_ids"`
	MinConfidence float64  `mapstructure:"min_confidence"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.BindEnv("security.jwt_secret", "JWT_SECRET"); err != nil {
		return nil, fmt.Errorf("failed to bind JWT_SECRET environment variable: %w", err)
	}
	if err := v.BindEnv("security.admin_api_key", "ADMIN_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ADMIN_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("llm.api_key", "LLM_API_KEY", "ANTHROPIC_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind ANTHROPIC_API_KEY environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// Config file not found, use defaults and environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.Environment = strings.ToLower(config.Environment)
	config.LLM.Provider = strings.ToLower(config.LLM.Provider)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks cross-field constraints that defaults alone cannot guarantee.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Environment != "development" && c.Security.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required in non-development environments")
	}

	durations := map[string]string{
		"security.jwt_expiry":  c.Security.JWTExpiry,
		"server.read_timeout":  c.Server.ReadTimeout,
		"server.write_timeout": c.Server.WriteTimeout,
		"market_data.timeout":  c.MarketData.Timeout,
		"llm.timeout":          c.LLM.Timeout,
		"cache.price_ttl":      c.Cache.PriceTTL,
		"cache.news_ttl":       c.Cache.NewsTTL,
	}
	for key, value := range durations {
		if value == "" {
			continue
		}
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
	}

	d := c.Decision
	if d.Oversold <= 0 || d.Oversold >= d.Overbought || d.Overbought >= 100 {
		return fmt.Errorf("decision thresholds must satisfy 0 < oversold < overbought < 100, got %.1f and %.1f",
			d.Oversold, d.Overbought)
	}
	if d.ConflictFloor < 0 || d.AgreementCap > 1 {
		return fmt.Errorf("decision confidence bounds must stay within [0, 1]")
	}

	if c.Sentiment.DeadZone < 0 || c.Sentiment.DeadZone >= 1 {
		return fmt.Errorf("sentiment dead zone must be in [0, 1), got %.2f", c.Sentiment.DeadZone)
	}

	a := c.Analysis
	if a.RSIPeriod < 2 || a.MAPeriod < 1 || a.MACDFast < 1 || a.MACDFast >= a.MACDSlow {
		return fmt.Errorf("invalid indicator periods: rsi=%d ma=%d macd=%d/%d",
			a.RSIPeriod, a.MAPeriod, a.MACDFast, a.MACDSlow)
	}

	switch c.LLM.Provider {
	case "anthropic", "keyword":
	default:
		return fmt.Errorf("unsupported llm provider %q", c.LLM.Provider)
	}

	if c.Telegram.MinConfidence < 0 || c.Telegram.MinConfidence > 1 {
		return fmt.Errorf("telegram min_confidence must be in [0, 1], got %.2f", c.Telegram.MinConfidence)
	}

	switch c.Telemetry.Exporter {
	case "stdout", "otlp":
	default:
		return fmt.Errorf("unsupported telemetry exporter %q", c.Telemetry.Exporter)
	}

	return nil
}

// Duration parses a duration string, returning fallback when empty or invalid.
func Duration(value string, fallback time.Duration) time.Duration {
	if value == "" {
		return fallback
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return d
}

// PostgresDSN returns the configured connection URL, building one from parts when unset.
func (c DatabaseConfig) PostgresDSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// Addr returns host:port for the Redis client.
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setDefaults(v *viper.Viper) {
	// Environment
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")

	// Server
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")

	// Database
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "stockai")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.database_url", "")
	v.SetDefault("database.max_conns", 10)

	// Redis
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Market Data
	v.SetDefault("market_data.default_period", "1y")
	v.SetDefault("market_data.news_base_url", "https://query1.finance.yahoo.com")
	v.SetDefault("market_data.news_limit", 5)
	v.SetDefault("market_data.timeout", "15s")
	v.SetDefault("market_data.max_retries", 3)

	// LLM
	v.SetDefault("llm.provider", "keyword")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "claude-3-5-haiku-latest")
	v.SetDefault("llm.max_tokens", 256)
	v.SetDefault("llm.temperature", 0.1)
	v.SetDefault("llm.timeout", "30s")

	// Indicators
	v.SetDefault("analysis.rsi_period", 14)
	v.SetDefault("analysis.ma_period", 20)
	v.SetDefault("analysis.macd_fast", 12)
	v.SetDefault("analysis.macd_slow", 26)

	// Sentiment
	v.SetDefault("sentiment.dead_zone", 0.15)

	// Decision policy
	v.SetDefault("decision.oversold", 30.0)
	v.SetDefault("decision.overbought", 70.0)
	v.SetDefault("decision.insufficient_confidence", 0.4)
	v.SetDefault("decision.base_confidence", 0.8)
	v.SetDefault("decision.strong_confidence", 0.9)
	v.SetDefault("decision.neutral_confidence", 0.5)
	v.SetDefault("decision.bias_confidence", 0.6)
	v.SetDefault("decision.macd_bias_threshold", 0.0)
	v.SetDefault("decision.conflict_penalty", 0.2)
	v.SetDefault("decision.conflict_floor", 0.3)
	v.SetDefault("decision.agreement_boost", 0.1)
	v.SetDefault("decision.agreement_cap", 0.95)

	// Cache
	v.SetDefault("cache.price_ttl", "5m")
	v.SetDefault("cache.news_ttl", "10m")

	// Watchlist
	v.SetDefault("watchlist.scan_enabled", false)
	v.SetDefault("watchlist.scan_schedule", "@every 30m")
	v.SetDefault("watchlist.max_concurrency", 4)
	v.SetDefault("watchlist.symbols", []string{})

	// Security
	v.SetDefault("security.jwt_secret", "")
	v.SetDefault("security.jwt_expiry", "24h")
	v.SetDefault("security.admin_api_key", "")

	// Telemetry
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.exporter", "stdout")
	v.SetDefault("telemetry.otlp_endpoint", "http://localhost:4318")
	v.SetDefault("telemetry.service_name", "stockai-go")

	// Telegram
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_ids", []string{})
	v.SetDefault("telegram.min_confidence", 0.7)
}
