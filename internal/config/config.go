package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var ErrMissingAPIKey = errors.New("OPENWEATHER_API_KEY is not set")

type Config struct {
	Port              string
	OpenWeatherAPIKey string
	OpenWeatherURL    string
	LogLevel          string
	LogFormat         string
	Debounce          time.Duration
	SuggestionLimit   int
	HTTPTimeout       time.Duration
	CacheTTL          time.Duration
	RedisAddr         string
	RedisPassword     string
	SessionIdleTTL    time.Duration
	OTLPEndpoint      string
	AllowedOrigins    []string
}

// Load reads configuration from the environment, a .env file in the working
// directory, and the YAML file named by CONFIG_FILE, in decreasing precedence.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to read .env: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", "8095")
	v.SetDefault("openweather_base_url", "http://api.openweathermap.org")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("debounce_ms", 500)
	v.SetDefault("suggestion_limit", 5)
	v.SetDefault("http_timeout", "10s")
	v.SetDefault("cache_ttl", "0s")
	v.SetDefault("session_idle_ttl", "30m")
	v.SetDefault("allowed_origins", "*")

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
	}

	apiKey := strings.TrimSpace(v.GetString("openweather_api_key"))
	if apiKey == "" {
		// Key name used by the original browser build.
		apiKey = strings.TrimSpace(v.GetString("vite_openweathermap_api_key"))
	}
	if apiKey == "" {
		return Config{}, ErrMissingAPIKey
	}

	cfg := Config{
		Port:              v.GetString("port"),
		OpenWeatherAPIKey: apiKey,
		OpenWeatherURL:    v.GetString("openweather_base_url"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
		Debounce:          time.Duration(v.GetInt("debounce_ms")) * time.Millisecond,
		SuggestionLimit:   v.GetInt("suggestion_limit"),
		HTTPTimeout:       v.GetDuration("http_timeout"),
		CacheTTL:          v.GetDuration("cache_ttl"),
		RedisAddr:         strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:     v.GetString("redis_password"),
		SessionIdleTTL:    v.GetDuration("session_idle_ttl"),
		OTLPEndpoint:      strings.TrimSpace(v.GetString("otel_exporter_otlp_endpoint")),
		AllowedOrigins:    splitList(v.GetString("allowed_origins")),
	}
	if cfg.Debounce <= 0 {
		return Config{}, fmt.Errorf("invalid DEBOUNCE_MS %d", v.GetInt("debounce_ms"))
	}
	if cfg.SuggestionLimit <= 0 {
		return Config{}, fmt.Errorf("invalid SUGGESTION_LIMIT %d", cfg.SuggestionLimit)
	}

	slog.Info("weather-app config loaded", "port", cfg.Port, "base_url", cfg.OpenWeatherURL, "debounce", cfg.Debounce, "cache_ttl", cfg.CacheTTL, "redis", cfg.RedisAddr != "")
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
