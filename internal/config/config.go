// Package config loads application configuration from environment variables,
// applies defaults, and validates everything on startup so misconfiguration
// fails fast.
package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	AI       AIConfig
	Job      JobConfig
	Files    FilesConfig
	Rate     RateLimitConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request (default: 30s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout per request (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`

	// MaxUploadSize is the maximum accepted upload body in bytes (default: 50MB)
	MaxUploadSize int64 `env:"SERVER_MAX_UPLOAD_SIZE" default:"52428800"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	// URL is the connection string (required). DB_URL also works.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the pool ceiling (default: 20)
	MaxConns int `env:"DB_MAX_CONNS" default:"20"`

	// MinConns is the number of connections kept open (default: 4)
	MinConns int `env:"DB_MIN_CONNS" default:"4"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
}

// AIConfig holds settings for the OpenAI-compatible completion provider.
// With no API key the pipeline runs on heuristics alone.
type AIConfig struct {
	// APIKey authenticates against the provider. Empty disables AI entirely.
	APIKey string `env:"AI_API_KEY"`

	// BaseURL overrides the provider endpoint for compatible services.
	BaseURL string `env:"AI_BASE_URL"`

	// Model is the primary classification and mapping model.
	Model string `env:"AI_MODEL" default:"gpt-4o-mini"`

	// VerifierModel is the second mapping opinion. Empty runs single-model
	// mode with a confidence floor instead of consensus.
	VerifierModel string `env:"AI_VERIFIER_MODEL"`

	// MaxAttempts is the per-call retry budget (default: 3)
	MaxAttempts int `env:"AI_MAX_ATTEMPTS" default:"3"`

	// RetryBackoff is the base backoff between attempts (default: 2s)
	RetryBackoff time.Duration `env:"AI_RETRY_BACKOFF" default:"2s"`

	// Timeout bounds each completion call (default: 30s)
	Timeout time.Duration `env:"AI_TIMEOUT" default:"30s"`
}

// JobConfig holds import job orchestration settings.
type JobConfig struct {
	// ChunkSize is the number of rows imported per job step (default: 5000)
	ChunkSize int `env:"JOB_CHUNK_SIZE" default:"5000"`

	// PollInterval is how often the runner scans for active jobs (default: 5s)
	PollInterval time.Duration `env:"JOB_POLL_INTERVAL" default:"5s"`
}

// FilesConfig holds local file storage settings.
type FilesConfig struct {
	// Dir is the root directory for uploaded files and payloads.
	Dir string `env:"FILES_DIR" default:"./data/imports"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default limit per IP (default: 100)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"100"`

	// UploadLimit is requests per minute for upload endpoints (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
