package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates all runtime settings required by the application.
type Config struct {
	AppName  string
	HTTP     HTTPConfig
	Kanboard KanboardConfig
	Refresh  RefreshConfig
	Notify   NotifyConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Outbox   OutboxConfig
	JWT      JWTConfig
	Context  ContextConfig
	Logger   LoggerConfig
}

type HTTPConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// KanboardConfig points at the JSON-RPC endpoint of the task server.
type KanboardConfig struct {
	URL           string
	Token         string
	Username      string
	Timeout       time.Duration
	IncludeClosed bool
}

// RefreshConfig drives the update coordinator.
type RefreshConfig struct {
	Interval    time.Duration
	MinInterval time.Duration
	DueSoonDays int
}

type NotifyConfig struct {
	QueueSize    int
	Dedup        bool
	RedisChannel string
}

// RedisConfig is optional; an empty URL disables the Redis sink.
type RedisConfig struct {
	URL      string
	Password string
	DB       int
}

// KafkaConfig is optional; no brokers disables the Kafka sink.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// OutboxConfig is optional; an empty path disables buffering of undelivered notifications.
type OutboxConfig struct {
	Path          string
	DrainInterval time.Duration
	MaxRetries    int
	BatchSize     int
}

type JWTConfig struct {
	Secret string
}

type ContextConfig struct {
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// Load reads configuration from environment variables (optionally .env)
// and applies defaults. Call Validate before wiring the coordinator.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		AppName: getString("APP_NAME", "boardwatch"),
		HTTP: HTTPConfig{
			Host:         getString("SERVER_HOST", "0.0.0.0"),
			Port:         getString("SERVER_PORT", "8080"),
			ReadTimeout:  getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:  getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
		},
		Kanboard: KanboardConfig{
			URL:           strings.TrimSpace(os.Getenv("KANBOARD_URL")),
			Token:         os.Getenv("KANBOARD_API_TOKEN"),
			Username:      os.Getenv("KANBOARD_USERNAME"),
			Timeout:       getDuration("KANBOARD_TIMEOUT", 15*time.Second),
			IncludeClosed: getBool("KANBOARD_INCLUDE_CLOSED", true),
		},
		Refresh: RefreshConfig{
			Interval:    getDuration("REFRESH_INTERVAL", 300*time.Second),
			MinInterval: getDuration("REFRESH_MIN_INTERVAL", 30*time.Second),
			DueSoonDays: getInt("DUE_SOON_DAYS", 2),
		},
		Notify: NotifyConfig{
			QueueSize:    getInt("NOTIFY_QUEUE_SIZE", 256),
			Dedup:        getBool("NOTIFY_DEDUP", false),
			RedisChannel: getString("NOTIFY_REDIS_CHANNEL", "kanboard.events"),
		},
		Redis: RedisConfig{
			URL:      os.Getenv("REDIS_URL"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers: getSlice("KAFKA_BROKERS"),
			Topic:   getString("KAFKA_TOPIC", "kanboard-events"),
		},
		Outbox: OutboxConfig{
			Path:          os.Getenv("OUTBOX_PATH"),
			DrainInterval: getDuration("OUTBOX_DRAIN_INTERVAL", 30*time.Second),
			MaxRetries:    getInt("OUTBOX_MAX_RETRIES", 5),
			BatchSize:     getInt("OUTBOX_BATCH_SIZE", 50),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		Context: ContextConfig{
			RequestTimeout:  getDuration("REQUEST_TIMEOUT_SECONDS", 5*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
		},
		Logger: LoggerConfig{
			Level:    getString("LOG_LEVEL", "info"),
			Encoding: getString("LOG_ENCODING", "json"),
		},
	}

	return cfg, nil
}

// Validate checks the settings the coordinator cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Kanboard.URL == "" {
		errs = append(errs, errors.New("KANBOARD_URL is required"))
	} else if u, err := url.Parse(c.Kanboard.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("KANBOARD_URL %q is not an absolute URL", c.Kanboard.URL))
	}
	if c.Kanboard.Token == "" {
		errs = append(errs, errors.New("KANBOARD_API_TOKEN is required"))
	}
	if c.Kanboard.Timeout <= 0 {
		errs = append(errs, errors.New("KANBOARD_TIMEOUT must be positive"))
	}
	if c.Refresh.Interval <= 0 {
		errs = append(errs, errors.New("REFRESH_INTERVAL must be positive"))
	}
	if c.Refresh.MinInterval < 0 {
		errs = append(errs, errors.New("REFRESH_MIN_INTERVAL must not be negative"))
	}
	if c.Refresh.DueSoonDays <= 0 {
		errs = append(errs, errors.New("DUE_SOON_DAYS must be positive"))
	}
	return errors.Join(errs...)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getSlice(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Address returns the HTTP listen address for the fasthttp server.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.HTTP.Host, c.HTTP.Port)
}
