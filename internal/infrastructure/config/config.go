package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	sharedConfig "github.com/quickrollcall/rollcall/internal/shared/config"
)

const (
	DefaultSubmitWindowSeconds = 60
	DefaultSubmitMax           = 6
	DefaultMintWindowSeconds   = 60
	DefaultMintMax             = 10
	DefaultSessionTTLSeconds   = 60 * 60
	DefaultServerPort          = 5000
	DefaultRedisPort           = 6379

	// DefaultFrontendBaseURL is used for links when FRONTEND_BASE_URL is unset
	// and the request carries no usable forwarding, Origin or Referer header.
	DefaultFrontendBaseURL = "http://localhost:5173"
)

type Config struct {
	Server    sharedConfig.ServerConfig    `mapstructure:"server"`
	Logger    sharedConfig.LoggerConfig    `mapstructure:"logger"`
	Redis     sharedConfig.RedisConfig     `mapstructure:"redis"`
	Session   sharedConfig.SessionConfig   `mapstructure:"session"`
	RateLimit sharedConfig.RateLimitConfig `mapstructure:"rate_limit"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// envBindings maps config keys to the flat environment variable names the
// deployment scripts already use.
var envBindings = map[string][]string{
	"server.host":                      {"HOST"},
	"server.port":                      {"PORT"},
	"server.frontend_base_url":         {"FRONTEND_BASE_URL"},
	"server.allowed_origins":           {"CORS_ORIGIN"},
	"logger.level":                     {"LOG_LEVEL"},
	"logger.format":                    {"LOG_FORMAT"},
	"logger.output_path":               {"LOG_OUTPUT"},
	"redis.url":                        {"REDIS_URL"},
	"redis.host":                       {"REDIS_HOST"},
	"redis.port":                       {"REDIS_PORT"},
	"redis.username":                   {"REDIS_USERNAME"},
	"redis.password":                   {"REDIS_PASSWORD"},
	"redis.db":                         {"REDIS_DB"},
	"session.ttl_seconds":              {"SESSION_TTL_SECONDS"},
	"rate_limit.submit.window_seconds": {"SUBMIT_LIMIT_WINDOW_SEC"},
	"rate_limit.submit.max":            {"SUBMIT_LIMIT_PER_WINDOW"},
	"rate_limit.mint.window_seconds":   {"MINT_LIMIT_WINDOW_SEC"},
	"rate_limit.mint.max":              {"MINT_LIMIT_PER_WINDOW"},
}

var numericKeys = []string{
	"server.port",
	"redis.port",
	"redis.db",
	"session.ttl_seconds",
	"rate_limit.submit.window_seconds",
	"rate_limit.submit.max",
	"rate_limit.mint.window_seconds",
	"rate_limit.mint.max",
}

// Load reads configs/config.yaml when present, then applies environment
// overrides. A .env file in the working directory is loaded first.
func Load(env string) (*Config, error) {
	// A missing .env is the normal case outside local development.
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../configs")
	v.AddConfigPath("../../configs")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if env != "" && env != "default" {
		v.Set("server.mode", env)
	}

	// Unparseable numbers become zero here and are replaced by defaults in normalize.
	for _, key := range numericKeys {
		v.Set(key, v.GetInt(key))
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Server.AllowedOrigins = splitOrigins(config.Server.AllowedOrigins)
	normalize(&config)

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the last loaded configuration, or nil before Load.
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.frontend_base_url", "")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stdout")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", DefaultRedisPort)
	v.SetDefault("redis.db", 0)

	v.SetDefault("session.ttl_seconds", DefaultSessionTTLSeconds)

	v.SetDefault("rate_limit.submit.window_seconds", DefaultSubmitWindowSeconds)
	v.SetDefault("rate_limit.submit.max", DefaultSubmitMax)
	v.SetDefault("rate_limit.mint.window_seconds", DefaultMintWindowSeconds)
	v.SetDefault("rate_limit.mint.max", DefaultMintMax)
}

// normalize replaces non-positive ports, limiter and TTL settings with defaults.
func normalize(c *Config) {
	c.Server.Port = positiveOr(c.Server.Port, DefaultServerPort)
	c.Redis.Port = positiveOr(c.Redis.Port, DefaultRedisPort)
	c.RateLimit.Submit.WindowSeconds = positiveOr(c.RateLimit.Submit.WindowSeconds, DefaultSubmitWindowSeconds)
	c.RateLimit.Submit.Max = positiveOr(c.RateLimit.Submit.Max, DefaultSubmitMax)
	c.RateLimit.Mint.WindowSeconds = positiveOr(c.RateLimit.Mint.WindowSeconds, DefaultMintWindowSeconds)
	c.RateLimit.Mint.Max = positiveOr(c.RateLimit.Mint.Max, DefaultMintMax)
	c.Session.TTLSeconds = positiveOr(c.Session.TTLSeconds, DefaultSessionTTLSeconds)
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

// splitOrigins accepts both a YAML list and a comma-separated CORS_ORIGIN value.
func splitOrigins(raw []string) []string {
	origins := make([]string, 0, len(raw))
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
