package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Backend   BackendConfig
	Exchange  ExchangeConfig
	Stream    StreamConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	AllowedOrigins []string
}

type BackendConfig struct {
	BaseURL string
	Timeout time.Duration
}

type ExchangeConfig struct {
	BaseURL       string
	Timeout       time.Duration
	BaseCurrency  string
	QuoteCurrency string
}

type StreamConfig struct {
	URL            string
	ReconnectDelay time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	RequestsPerWindow int
	Window            time.Duration
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("BACKEND_URL", "http://localhost:8000")
	viper.SetDefault("BACKEND_TIMEOUT_SECONDS", 10)
	viper.SetDefault("EXCHANGE_URL", "https://api.exchangerate.host")
	viper.SetDefault("EXCHANGE_TIMEOUT_SECONDS", 10)
	viper.SetDefault("EXCHANGE_BASE_CURRENCY", "CLP")
	viper.SetDefault("EXCHANGE_QUOTE_CURRENCY", "USD")
	viper.SetDefault("STOCK_STREAM_URL", "http://localhost:8000/sse/stock/")
	viper.SetDefault("STOCK_STREAM_RECONNECT_SECONDS", 5)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 60)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			AllowedOrigins: viper.GetStringSlice("ALLOWED_ORIGINS"),
		},
		Backend: BackendConfig{
			BaseURL: viper.GetString("BACKEND_URL"),
			Timeout: time.Duration(viper.GetInt("BACKEND_TIMEOUT_SECONDS")) * time.Second,
		},
		Exchange: ExchangeConfig{
			BaseURL:       viper.GetString("EXCHANGE_URL"),
			Timeout:       time.Duration(viper.GetInt("EXCHANGE_TIMEOUT_SECONDS")) * time.Second,
			BaseCurrency:  viper.GetString("EXCHANGE_BASE_CURRENCY"),
			QuoteCurrency: viper.GetString("EXCHANGE_QUOTE_CURRENCY"),
		},
		Stream: StreamConfig{
			URL:            viper.GetString("STOCK_STREAM_URL"),
			ReconnectDelay: time.Duration(viper.GetInt("STOCK_STREAM_RECONNECT_SECONDS")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerWindow: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:            time.Duration(viper.GetInt("RATE_LIMIT_WINDOW_SECONDS")) * time.Second,
		},
	}
}
