package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sjlangley/social-golf-spa/pkg/observability"
)

// Environment names recognised by the auth bypass.
const (
	EnvironmentLocal      = "local"
	EnvironmentStaging    = "staging"
	EnvironmentProduction = "production"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Auth          AuthConfig          `yaml:"auth"`
	Handicap      HandicapConfig      `yaml:"handicap"`
	Publisher     PublisherConfig     `yaml:"publisher"`
	River         RiverConfig         `yaml:"river"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS JetStream configuration for the recalculation pipeline.
type NATSConfig struct {
	URL               string          `yaml:"url"`
	ConsumerName      string          `yaml:"consumer_name"`
	MaxDeliver        int             `yaml:"max_deliver"`
	AckWait           time.Duration   `yaml:"ack_wait"`
	MaxAckPending     int             `yaml:"max_ack_pending"`
	RedeliveryBackoff []time.Duration `yaml:"redelivery_backoff"`
}

// HTTPConfig holds the listen address and CORS origins.
type HTTPConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	RateLimitBurst int      `yaml:"rate_limit_burst"`
}

// AuthConfig holds bearer token verification settings.
type AuthConfig struct {
	ClientID    string `yaml:"client_id"`
	Issuer      string `yaml:"issuer"`
	Secret      string `yaml:"secret"`
	Disabled    bool   `yaml:"disabled"`
	Environment string `yaml:"environment"`
}

// HandicapConfig holds recalculation settings.
type HandicapConfig struct {
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	LeaseEnabled bool          `yaml:"lease_enabled"`
	LeaseTTL     time.Duration `yaml:"lease_ttl"`
}

// PublisherConfig bounds the retry loop around score.created publishing.
type PublisherConfig struct {
	MaxRetries      uint64        `yaml:"max_retries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// RiverConfig controls the backfill job queue.
type RiverConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxWorkers int  `yaml:"max_workers"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// AuthBypassed reports whether requests skip token verification. Only a local
// environment may disable auth.
func (c *Config) AuthBypassed() bool {
	return c.Auth.Disabled && c.Auth.Environment == EnvironmentLocal
}

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Postgres.DSN = os.Getenv("DATABASE_URL")
	if cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	cfg.NATS.URL = os.Getenv("NATS_URL")
	if cfg.NATS.URL == "" {
		return nil, fmt.Errorf("NATS_URL environment variable not set")
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("CLIENT_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("AUTH_CLIENT_ID"); v != "" {
		cfg.Auth.ClientID = v
	}
	if v := os.Getenv("AUTH_ISSUER"); v != "" {
		cfg.Auth.Issuer = v
	}
	if v := os.Getenv("AUTH_SECRET"); v != "" {
		cfg.Auth.Secret = v
	}
	if v := os.Getenv("AUTH_DISABLED"); v != "" {
		cfg.Auth.Disabled = v == "true"
	}
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		cfg.Auth.Environment = v
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("HANDICAP_LEASE_ENABLED"); v != "" {
		cfg.Handicap.LeaseEnabled = v == "true"
	}
	if v := os.Getenv("RIVER_ENABLED"); v != "" {
		cfg.River.Enabled = v == "true"
	}

	durations := map[string]*time.Duration{
		"HANDICAP_FETCH_TIMEOUT":     &cfg.Handicap.FetchTimeout,
		"HANDICAP_WRITE_TIMEOUT":     &cfg.Handicap.WriteTimeout,
		"HANDICAP_LEASE_TTL":         &cfg.Handicap.LeaseTTL,
		"NATS_ACK_WAIT":              &cfg.NATS.AckWait,
		"PUBLISHER_INITIAL_INTERVAL": &cfg.Publisher.InitialInterval,
	}
	for key, dst := range durations {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", key, err)
		}
		*dst = d
	}

	if v := os.Getenv("NATS_MAX_DELIVER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NATS_MAX_DELIVER value: %w", err)
		}
		cfg.NATS.MaxDeliver = n
	}
	if v := os.Getenv("PUBLISHER_MAX_RETRIES"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid PUBLISHER_MAX_RETRIES value: %w", err)
		}
		cfg.Publisher.MaxRetries = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if len(cfg.HTTP.AllowedOrigins) == 0 {
		cfg.HTTP.AllowedOrigins = []string{"http://localhost:5173"}
	}
	if cfg.HTTP.RateLimitRPS == 0 {
		cfg.HTTP.RateLimitRPS = 20
	}
	if cfg.HTTP.RateLimitBurst == 0 {
		cfg.HTTP.RateLimitBurst = 40
	}
	if cfg.Auth.Environment == "" {
		cfg.Auth.Environment = EnvironmentProduction
	}
	if cfg.Observability.Environment == "" {
		cfg.Observability.Environment = cfg.Auth.Environment
	}
	if cfg.Observability.MetricsAddress == "" {
		cfg.Observability.MetricsAddress = ":9090"
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}
	if cfg.NATS.ConsumerName == "" {
		cfg.NATS.ConsumerName = "handicap-calculator"
	}
	if cfg.NATS.MaxDeliver == 0 {
		cfg.NATS.MaxDeliver = 5
	}
	if cfg.NATS.AckWait == 0 {
		cfg.NATS.AckWait = 30 * time.Second
	}
	if cfg.NATS.MaxAckPending == 0 {
		cfg.NATS.MaxAckPending = 64
	}
	if len(cfg.NATS.RedeliveryBackoff) == 0 {
		cfg.NATS.RedeliveryBackoff = []time.Duration{time.Second, 5 * time.Second, 30 * time.Second, 2 * time.Minute}
	}
	if cfg.Handicap.FetchTimeout == 0 {
		cfg.Handicap.FetchTimeout = 5 * time.Second
	}
	if cfg.Handicap.WriteTimeout == 0 {
		cfg.Handicap.WriteTimeout = 5 * time.Second
	}
	if cfg.Handicap.LeaseTTL == 0 {
		cfg.Handicap.LeaseTTL = 30 * time.Second
	}
	if cfg.Publisher.MaxRetries == 0 {
		cfg.Publisher.MaxRetries = 3
	}
	if cfg.Publisher.InitialInterval == 0 {
		cfg.Publisher.InitialInterval = 100 * time.Millisecond
	}
	if cfg.Publisher.MaxInterval == 0 {
		cfg.Publisher.MaxInterval = 2 * time.Second
	}
	if cfg.River.MaxWorkers == 0 {
		cfg.River.MaxWorkers = 4
	}
}

func (c *Config) validate() error {
	// auth.disabled outside local is ignored, so a secret is still required there.
	if !c.AuthBypassed() && c.Auth.Secret == "" {
		return fmt.Errorf("auth secret must be set unless auth is disabled in the %q environment", EnvironmentLocal)
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ToObsConfig maps the app config onto the observability bootstrap config.
func ToObsConfig(appCfg *Config, serviceName string) observability.Config {
	return observability.Config{
		ServiceName: serviceName,
		Environment: appCfg.Observability.Environment,
		LogLevel:    appCfg.Observability.LogLevel,
	}
}
