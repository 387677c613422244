// apps/go-server/internal/config/config.go
//
// Process configuration loaded from the environment (and .env in development).

package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port           string `envconfig:"PORT" default:"5175"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	Env            string `envconfig:"APP_ENV" default:"development"`
	DatabasePath   string `envconfig:"DATABASE_PATH" default:"./data/app.db"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev_secret_change_me"`
	JWTExpiresDays int    `envconfig:"JWT_EXPIRES_DAYS" default:"14"`
	CookieName     string `envconfig:"COOKIE_NAME" default:"vino_token"`
	ClientOrigin   string `envconfig:"CLIENT_ORIGIN" default:"http://localhost:5173"`
	DailySalt      string `envconfig:"DAILY_SALT" default:"local_dev_salt"`

	// RedisAddr enables the shared translation cache when set.
	RedisAddr           string        `envconfig:"REDIS_ADDR"`
	TranslationCacheTTL time.Duration `envconfig:"TRANSLATION_CACHE_TTL" default:"10m"`

	// GuessRateLimit caps Swirdle moves per IP per minute.
	GuessRateLimit int `envconfig:"GUESS_RATE_LIMIT" default:"30"`
}

// Production reports whether cookies should be Secure/SameSite=None.
func (c Config) Production() bool { return c.Env == "production" }

// JWTExpiry is the token lifetime.
func (c Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiresDays) * 24 * time.Hour
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()
	var c Config
	if err := envconfig.Process("", &c); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if c.JWTExpiresDays <= 0 {
		return Config{}, fmt.Errorf("config: JWT_EXPIRES_DAYS must be positive, got %d", c.JWTExpiresDays)
	}
	if c.Production() && c.JWTSecret == "dev_secret_change_me" {
		return Config{}, fmt.Errorf("config: JWT_SECRET must be set in production")
	}
	return c, nil
}

// Default returns the configuration with every default applied and no
// environment lookups; used by tests.
func Default() Config {
	return Config{
		Port:                "5175",
		LogLevel:            "info",
		Env:                 "development",
		DatabasePath:        "./data/app.db",
		JWTSecret:           "dev_secret_change_me",
		JWTExpiresDays:      14,
		CookieName:          "vino_token",
		ClientOrigin:        "http://localhost:5173",
		DailySalt:           "local_dev_salt",
		TranslationCacheTTL: 10 * time.Minute,
		GuessRateLimit:      30,
	}
}
