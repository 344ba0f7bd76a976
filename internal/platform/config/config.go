package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, read once in main.
type Config struct {
	Server    Server
	Session   Session
	Redis     Redis
	Postgres  Postgres
	Kafka     Kafka
	Catalog   Catalog
	Analytics Analytics
	Tracking  Tracking
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
	LogLevel        string
}

// Session controls the conversation window and the expiry sweeper.
type Session struct {
	TTL           time.Duration
	SweepInterval time.Duration
}

// Redis is optional; sessions stay in memory when URL is empty.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres is optional; applications and tracking references stay in memory when DSN is empty.
type Postgres struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Kafka is optional; analytics events are counted in memory when Brokers is empty.
type Kafka struct {
	Brokers  []string
	Topic    string
	ClientID string
}

// Catalog points at a YAML scheme catalog. The embedded catalog is used when Path is empty.
type Catalog struct {
	Path string
}

type Analytics struct {
	BufferSize int
}

type Tracking struct {
	Prefix string
}

// DefaultSessionTTL is the conversation window. Tests shorten it through Session.TTL.
const DefaultSessionTTL = 24 * time.Hour

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            envString("SCHEMEFLOW_ADDR", ":8080"),
			ShutdownTimeout: envDuration("SCHEMEFLOW_SHUTDOWN_TIMEOUT", 10*time.Second),
			LogLevel:        envString("SCHEMEFLOW_LOG_LEVEL", "info"),
		},
		Session: Session{
			TTL:           DefaultSessionTTL,
			SweepInterval: envDuration("SESSION_SWEEP_INTERVAL", 5*time.Minute),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			DSN:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Kafka: Kafka{
			Brokers:  envList("KAFKA_BROKERS"),
			Topic:    envString("KAFKA_ANALYTICS_TOPIC", "schemeflow.analytics"),
			ClientID: envString("KAFKA_CLIENT_ID", "schemeflow"),
		},
		Catalog: Catalog{
			Path: os.Getenv("SCHEME_CATALOG_PATH"),
		},
		Analytics: Analytics{
			BufferSize: envInt("ANALYTICS_BUFFER_SIZE", 1024),
		},
		Tracking: Tracking{
			Prefix: envString("TRACKING_REFERENCE_PREFIX", "SCH"),
		},
	}
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func envList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
