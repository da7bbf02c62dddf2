package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the API server configuration, loadable from environment
// variables (RIG_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (RIG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL prepended to relative product image paths" flag:"image-base-url"`
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// AuthConfig verifies bearer tokens issued by the identity provider.
type AuthConfig struct {
	Secret   string `usage:"HS256 secret shared with the identity provider (RIG_AUTH_SECRET)"`
	Issuer   string `default:"" usage:"Expected token issuer; empty accepts any"`
	Audience string `default:"" usage:"Expected token audience; empty accepts any"`
}

// RateLimitConfig controls the sliding window rate limiter. Requests are
// counted per user, or per client IP for anonymous callers.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// RelayConfig holds the order relay configuration.
type RelayConfig struct {
	Addr        string `default:"0.0.0.0:8081" usage:"Health endpoint listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (RIG_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Kafka       KafkaConfig
	BatchSize   int           `default:"100" usage:"Outbox records published per poll" flag:"batch-size"`
	Interval    time.Duration `default:"1s" usage:"Poll interval once the outbox is drained"`
	MaxBacklog  int64         `default:"10000" usage:"Pending records above which the relay reports not ready" flag:"max-backlog"`
}

// KafkaConfig locates the broker.
type KafkaConfig struct {
	Brokers []string `default:"localhost:9092" usage:"Kafka bootstrap brokers"`
	// Topic overrides the topic stored with each outbox record.
	Topic string `default:"" usage:"Override topic for published events"`
}

var configFiles = []string{"config.yaml", "/etc/rigforge/config.yaml"}

func load(dst any) error {
	loader := aconfig.LoaderFor(dst, aconfig.Config{
		EnvPrefix: "RIG",
		Files:     configFiles,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return errors.Wrap(err, "load config")
	}
	return nil
}

// LoadConfig loads the API server configuration and applies platform
// defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := load(&cfg); err != nil {
		return nil, err
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set RIG_DATABASE_URL or DATABASE_URL")
	}
	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT.
func (c *Config) applyPlatformDefaults() {
	c.DatabaseURL = databaseURL(c.DatabaseURL)
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}

// LoadRelayConfig loads the order relay configuration.
func LoadRelayConfig() (*RelayConfig, error) {
	var cfg RelayConfig
	if err := load(&cfg); err != nil {
		return nil, err
	}
	cfg.DatabaseURL = databaseURL(cfg.DatabaseURL)

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set RIG_DATABASE_URL or DATABASE_URL")
	}
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, errors.New("at least one Kafka broker is required")
	}
	return &cfg, nil
}

func databaseURL(v string) string {
	if v != "" {
		return v
	}
	return os.Getenv("DATABASE_URL")
}
