package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	BlacklistMemory = "memory"
	BlacklistRedis  = "redis"
	BlacklistDB     = "db"
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" env-default:"library"`
	ServerPort  int    `env:"SERVER_PORT" env-default:"8080"`
	LogLevel    string `env:"LOG_LEVEL" env-default:"info"`

	Database  DatabaseConfig
	JWT       JWTConfig
	Blacklist BlacklistConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	WebSocket WebSocketConfig
	Admin     AdminConfig
}

type DatabaseConfig struct {
	Driver string `env:"DATABASE_DRIVER" env-default:"postgres"`
	URL    string `env:"DATABASE_URL"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"JWT_SECRET"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET"`
	AccessTTL     time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTTL    time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"168h"`
}

type BlacklistConfig struct {
	Backend  string `env:"BLACKLIST_BACKEND" env-default:"memory"`
	RedisURL string `env:"REDIS_URL"`
}

type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" env-separator:","`
	Topic   string   `env:"KAFKA_TOPIC" env-default:"catalog_events"`
}

type RateLimitConfig struct {
	// Requests per second per client IP on /login and /register. Zero disables the limiter.
	Rate  float64 `env:"AUTH_RATE_LIMIT" env-default:"5"`
	Burst int     `env:"AUTH_RATE_BURST" env-default:"10"`
}

type WebSocketConfig struct {
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" env-default:"30s"`
	PongTimeout    time.Duration `env:"WS_PONG_TIMEOUT" env-default:"60s"`
	MaxMessageSize int64         `env:"WS_MAX_MESSAGE_SIZE" env-default:"4096"`
	SendBuffer     int           `env:"WS_SEND_BUFFER" env-default:"64"`
}

type AdminConfig struct {
	Username string `env:"ADMIN_USERNAME"`
	Password string `env:"ADMIN_PASSWORD"`
	Email    string `env:"ADMIN_EMAIL"`
}

// Load reads .env files (missing files are not an error) and then the process
// environment. Variables already present in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil {
			log.Printf("Notice: %s not loaded: %v. Using system environment variables", f, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	cfg.Kafka.Brokers = compact(cfg.Kafka.Brokers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	nonEmpty := func(value, envName string) {
		if strings.TrimSpace(value) == "" {
			errs = append(errs, fmt.Errorf("missing required env %s", envName))
		}
	}

	nonEmpty(c.Database.URL, "DATABASE_URL")
	nonEmpty(c.JWT.AccessSecret, "JWT_SECRET")
	nonEmpty(c.JWT.RefreshSecret, "JWT_REFRESH_SECRET")

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver))
	}

	switch c.Blacklist.Backend {
	case BlacklistMemory, BlacklistDB:
	case BlacklistRedis:
		nonEmpty(c.Blacklist.RedisURL, "REDIS_URL")
	default:
		errs = append(errs, fmt.Errorf("unsupported BLACKLIST_BACKEND %q", c.Blacklist.Backend))
	}

	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ"))
	}

	return errors.Join(errs...)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

func (c *Config) AdminSeedEnabled() bool {
	return c.Admin.Username != "" && c.Admin.Password != ""
}

func compact(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Getenv is used by cmd tooling that runs before Load.
func Getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
