package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the SEO generation service.
type Config struct {
	DBPath        string
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration
	Provider      ProviderConfig
	Cache         CacheConfig
	RateLimit     RateLimitConfig
}

// ProviderConfig selects the LLM backend and carries credentials for both.
type ProviderConfig struct {
	Name             string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	AnthropicAPIKey  string
	AnthropicModel   string
	AnthropicBaseURL string
	Timeout          time.Duration
}

// CacheConfig selects the result cache backend.
type CacheConfig struct {
	Backend     string
	RedisURL    string
	TTL         time.Duration
	Deduplicate bool
}

// RateLimitConfig bounds generation requests per client. A zero rate disables the limit.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

const (
	defaultDBPath          = "./data/seopro.db"
	defaultServerPort      = 3000
	defaultLogLevel        = "info"
	defaultEnvironment     = "development"
	defaultShutdownGrace   = 10 * time.Second
	defaultProvider        = "openai"
	defaultOpenAIModel     = "gpt-4"
	defaultAnthropicModel  = "claude-3-opus-20240229"
	defaultProviderTimeout = 30 * time.Second
	defaultCacheBackend    = CacheBackendMemory
	defaultRedisURL        = "redis://localhost:6379/0"
	defaultCacheTTL        = 24 * time.Hour
	defaultRateLimitRPS    = 1.0
	defaultRateLimitBurst  = 5
	defaultRateLimitTTL    = 10 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   getEnv("ENV", defaultEnvironment),
		ShutdownGrace: defaultShutdownGrace,
		Provider: ProviderConfig{
			Name:             strings.ToLower(getEnv("AI_PROVIDER", defaultProvider)),
			OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
			OpenAIModel:      getEnv("OPENAI_MODEL", defaultOpenAIModel),
			OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
			AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
			AnthropicModel:   getEnv("ANTHROPIC_MODEL", defaultAnthropicModel),
			AnthropicBaseURL: os.Getenv("ANTHROPIC_BASE_URL"),
		},
		Cache: CacheConfig{
			Backend:  strings.ToLower(getEnv("CACHE_BACKEND", defaultCacheBackend)),
			RedisURL: getEnv("REDIS_URL", defaultRedisURL),
		},
	}

	portValue := getEnv("SERVER_PORT", strconv.Itoa(defaultServerPort))
	port, err := strconv.Atoi(portValue)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid SERVER_PORT value: %s", portValue)
	}
	cfg.ServerPort = port

	if cfg.Provider.Timeout, err = getDuration("PROVIDER_TIMEOUT", defaultProviderTimeout); err != nil {
		return nil, err
	}

	if cfg.Cache.TTL, err = getDuration("CACHE_TTL", defaultCacheTTL); err != nil {
		return nil, err
	}

	dedupValue := getEnv("CACHE_DEDUPLICATE", "false")
	if cfg.Cache.Deduplicate, err = strconv.ParseBool(dedupValue); err != nil {
		return nil, eris.Wrapf(err, "invalid CACHE_DEDUPLICATE value: %s", dedupValue)
	}

	rpsValue := getEnv("RATE_LIMIT_RPS", strconv.FormatFloat(defaultRateLimitRPS, 'f', -1, 64))
	if cfg.RateLimit.RequestsPerSecond, err = strconv.ParseFloat(rpsValue, 64); err != nil || cfg.RateLimit.RequestsPerSecond < 0 {
		return nil, eris.Errorf("invalid RATE_LIMIT_RPS value: %s", rpsValue)
	}

	burstValue := getEnv("RATE_LIMIT_BURST", strconv.Itoa(defaultRateLimitBurst))
	if cfg.RateLimit.Burst, err = strconv.Atoi(burstValue); err != nil || cfg.RateLimit.Burst <= 0 {
		return nil, eris.Errorf("invalid RATE_LIMIT_BURST value: %s", burstValue)
	}

	if cfg.RateLimit.ClientTTL, err = getDuration("RATE_LIMIT_CLIENT_TTL", defaultRateLimitTTL); err != nil {
		return nil, err
	}

	switch cfg.Cache.Backend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return nil, eris.Errorf("invalid CACHE_BACKEND value: %s", cfg.Cache.Backend)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	if value <= 0 {
		return 0, eris.Errorf("invalid %s value: %s must be positive", key, raw)
	}
	return value, nil
}
