// Package config handles configuration for the server, layering defaults,
// an optional JSON file, the environment (optionally seeded from a dotenv
// file) and command-line flags, in that order.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/celengan/internal/flagx"
)

// Config holds runtime settings for the celengan server.
//
// DatabaseDSN, SecretKey and FirebaseProjectID have no defaults and must be
// provided; Validate reports all of them at once. S3 and AMQP settings are
// optional: an empty S3Bucket disables avatar uploads and an empty AMQPURL
// disables event publishing.
type Config struct {
	HTTPAddr  string `env:"HTTP_ADDR"`
	APIPrefix string `env:"API_PREFIX"`

	DatabaseDSN string `env:"DATABASE_DSN"`

	SecretKey                    string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`

	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`

	LogLevel  string `env:"LOG_LEVEL"`
	LogFormat string `env:"LOG_FORMAT"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	FirebaseCertsURL  string `env:"FIREBASE_CERTS_URL"`

	S3RootUser     string `env:"S3_ROOT_USER"`
	S3RootPassword string `env:"S3_ROOT_PASSWORD"`
	S3Bucket       string `env:"S3_BUCKET"`
	S3Region       string `env:"S3_REGION"`
	S3BaseEndpoint string `env:"S3_BASE_ENDPOINT"`
	S3PublicURL    string `env:"S3_PUBLIC_URL"`

	AMQPURL   string `env:"AMQP_URL"`
	AMQPQueue string `env:"AMQP_QUEUE"`
}

// DefaultFirebaseCertsURL serves the x509 certificates that sign Firebase ID tokens.
const DefaultFirebaseCertsURL = "https://www.googleapis.com/robot/v1/metadata/x509/securetoken@system.gserviceaccount.com"

// LoadDefaults populates the optional settings. Secrets and the database
// DSN are deliberately left empty.
func (c *Config) LoadDefaults() {
	c.HTTPAddr = ":5000"
	c.APIPrefix = "/api"
	c.AccessTokenValidityDuration = time.Hour
	c.RefreshTokenValidityDuration = 7 * 24 * time.Hour
	c.RequestTimeout = 30 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.FirebaseCertsURL = DefaultFirebaseCertsURL
	c.S3Region = "us-east-1"
	c.AMQPQueue = "celengan.transactions"
}

// Validate checks that every required value is present and that lifetimes
// are positive. All problems are reported in a single error.
func (c *Config) Validate() error {
	var missing []string
	if c.DatabaseDSN == "" {
		missing = append(missing, "DATABASE_DSN")
	}
	if c.SecretKey == "" {
		missing = append(missing, "SECRET_KEY")
	}
	if c.FirebaseProjectID == "" {
		missing = append(missing, "FIREBASE_PROJECT_ID")
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", ")))
	}
	if c.AccessTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("access token lifetime must be positive"))
	}
	if c.RefreshTokenValidityDuration <= 0 {
		errs = append(errs, errors.New("refresh token lifetime must be positive"))
	}
	if c.S3Bucket != "" && c.S3PublicURL == "" {
		errs = append(errs, errors.New("S3_PUBLIC_URL is required when S3_BUCKET is set"))
	}
	return errors.Join(errs...)
}

// StorageEnabled reports whether avatar uploads to S3 are configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig builds a Config from defaults, the optional JSON file, the
// environment and finally command-line flags, then validates it.
func LoadConfig() (*Config, error) {
	files := flagx.ParseFileFlags()

	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, files.ConfigPath); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, files.EnvPath); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
