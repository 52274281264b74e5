package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	SQLitePath        string
	RedisURL          string
	NATSURL           string
	EventChannel      string
	PoemCacheTTL      time.Duration
	AIProvider        string
	AITimeout         time.Duration
	AIRateLimit       int
	AIRateWindow      time.Duration
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiBaseURL     string
	GeminiSafetyLevel string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("GEMA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Unprefixed names are what the hosting platform and provider SDKs use.
	_ = v.BindEnv("ai.provider", "GEMA_AI_PROVIDER", "DEFAULT_AI_PROVIDER")
	_ = v.BindEnv("openai_api_key", "GEMA_OPENAI_API_KEY", "OPENAI_API_KEY")
	_ = v.BindEnv("gemini_api_key", "GEMA_GEMINI_API_KEY", "GEMINI_API_KEY")

	v.SetDefault("app.name", "GEMA Poem API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("database.sqlite_path", "gema-poems.db")
	v.SetDefault("events.channel", "gema:poems")
	v.SetDefault("poems.cache_ttl", "1m")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.timeout", "30s")
	v.SetDefault("ai.rate_limit", 10)
	v.SetDefault("ai.rate_window", "1m")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("gemini_safety", "BLOCK_NONE")

	ttl, err := parseDuration(v, "poems.cache_ttl", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid poem cache ttl: %w", err)
	}

	timeout, err := parseDuration(v, "ai.timeout", 30*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	window, err := parseDuration(v, "ai.rate_window", time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai rate window: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		SQLitePath:        v.GetString("database.sqlite_path"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		EventChannel:      v.GetString("events.channel"),
		PoemCacheTTL:      ttl,
		AIProvider:        strings.ToLower(strings.TrimSpace(v.GetString("ai.provider"))),
		AITimeout:         timeout,
		AIRateLimit:       v.GetInt("ai.rate_limit"),
		AIRateWindow:      window,
		OpenAIAPIKey:      v.GetString("openai_api_key"),
		OpenAIModel:       v.GetString("openai_model"),
		OpenAIBaseURL:     v.GetString("openai_base_url"),
		GeminiAPIKey:      v.GetString("gemini_api_key"),
		GeminiModel:       v.GetString("gemini_model"),
		GeminiBaseURL:     v.GetString("gemini_base_url"),
		GeminiSafetyLevel: strings.ToUpper(v.GetString("gemini_safety")),
	}

	if cfg.OpenAIAPIKey == "" && cfg.GeminiAPIKey == "" {
		return Config{}, fmt.Errorf("at least one of OPENAI_API_KEY or GEMINI_API_KEY must be provided")
	}

	if cfg.AIRateLimit <= 0 {
		cfg.AIRateLimit = 10
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return fallback, nil
	}
	return value, nil
}
