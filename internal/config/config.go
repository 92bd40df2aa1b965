// Package config provides centralized configuration management for the service.
// It loads configuration from environment variables with defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Upload   UploadConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: all interfaces)
	Host string `env:"SERVER_HOST"`

	// Port is the port to listen on (default: 3001)
	Port int `env:"SERVER_PORT" default:"3001"`

	// ReadTimeout is the maximum duration for reading the request (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing the response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StorageConfig locates the workbook that backs the dataset.
type StorageConfig struct {
	// DataFile is the path of the backing .xlsx file (default: base.xlsx)
	DataFile string `env:"DATA_FILE" default:"base.xlsx"`

	// Sheet is the name given to the single sheet on write (default: Sheet1)
	Sheet string `env:"DATA_SHEET" default:"Sheet1"`

	// CreateIfMissing writes an empty workbook at startup when DataFile is absent (default: true)
	CreateIfMissing bool `env:"DATA_CREATE_IF_MISSING" default:"true"`
}

// UploadConfig holds spreadsheet upload settings.
type UploadConfig struct {
	// Dir holds uploaded files while they are parsed (default: uploads)
	Dir string `env:"UPLOAD_DIR" default:"uploads"`

	// MaxFileSize is the maximum allowed request size in bytes (default: 32MiB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"33554432"`

	// MaxConcurrent is the maximum number of uploads parsed at once (default: 2)
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"2"`

	// MaxWaitTime is how long to wait for an upload slot (default: 30s)
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"30s"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the default rate limit per IP (default: 300)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"300"`

	// UploadLimit is requests per minute for the upload endpoint (default: 10)
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"10"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// AllowedOrigins is a comma-separated list of CORS origins (default: *)
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json, or tint (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
