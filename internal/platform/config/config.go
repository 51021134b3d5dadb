package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr               string        `env:"MXT_ADDR" envDefault:":8080"`
	JWTSigningKey      string        `env:"JWT_SIGNING_KEY" envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer          string        `env:"JWT_ISSUER" envDefault:"mxt"`
	JWTAudience        string        `env:"JWT_AUDIENCE" envDefault:"mxt-api"`
	BootstrapAdmin     string        `env:"BOOTSTRAP_ADMIN_USERNAME"`
	HistoryViewerRoles []string      `env:"HISTORY_VIEWER_ROLES" envSeparator:"," envDefault:"admin,manager"`
	CORSAllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	ShutdownTimeout    time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Log      LogConfig
	Database DatabaseConfig
	Tx       TxConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// DatabaseConfig holds Postgres settings. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// TxConfig bounds a single mutation unit of work.
type TxConfig struct {
	Timeout     time.Duration `env:"TX_TIMEOUT" envDefault:"5s"`
	MaxAttempts int           `env:"TX_MAX_ATTEMPTS" envDefault:"3"`
}

// RedisConfig holds Redis settings. An empty URL disables the history cache.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT" envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT" envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT" envDefault:"3s"`
	HistoryTTL   time.Duration `env:"REDIS_HISTORY_TTL" envDefault:"10m"`
}

// KafkaConfig holds the outbox publisher settings. No brokers disables publishing.
type KafkaConfig struct {
	Brokers      []string      `env:"KAFKA_BROKERS" envSeparator:","`
	Topic        string        `env:"KAFKA_INTERACTIONS_TOPIC" envDefault:"mxt.interactions"`
	PollInterval time.Duration `env:"OUTBOX_POLL_INTERVAL" envDefault:"2s"`
	BatchSize    int           `env:"OUTBOX_BATCH_SIZE" envDefault:"100"`

	// Consecutive publish failures that pause the outbox, and the pause length.
	BreakerThreshold int           `env:"OUTBOX_BREAKER_THRESHOLD" envDefault:"5"`
	BreakerCooldown  time.Duration `env:"OUTBOX_BREAKER_COOLDOWN" envDefault:"30s"`
}

// FromEnv loads an optional .env file and parses the environment into Server.
func FromEnv() (Server, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Server{}, fmt.Errorf("load .env: %w", err)
	}
	var cfg Server
	if err := env.Parse(&cfg); err != nil {
		return Server{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Tx.MaxAttempts < 1 {
		cfg.Tx.MaxAttempts = 1
	}
	return cfg, nil
}
