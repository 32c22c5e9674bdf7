package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries system-wide settings for the HTTP server, the websocket
// transport, the sqlite store and token signing.
type Config struct {
	Database  *DatabaseConfig  `json:"database"`
	HTTP      *HTTPConfig      `json:"http"`
	WebSocket *WebSocketConfig `json:"websocket"`
	Auth      *AuthConfig      `json:"auth"`
}

type DatabaseConfig struct {
	Path string `json:"path"`
}

type HTTPConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type WebSocketConfig struct {
	PingInterval time.Duration `json:"ping_interval"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	BufferSize   int           `json:"buffer_size"`
}

type AuthConfig struct {
	JWTSecret string `json:"-"`
}

// DefaultConfig returns settings suitable for a single-classroom deployment:
// local sqlite file, standard port, 30s websocket heartbeat.
func DefaultConfig() *Config {
	return &Config{
		Database: &DatabaseConfig{
			Path: "./rollcall.db",
		},
		HTTP: &HTTPConfig{
			Host:         "0.0.0.0",
			Port:         3000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		WebSocket: &WebSocketConfig{
			PingInterval: 30 * time.Second,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 10 * time.Second,
			BufferSize:   100,
		},
		Auth: &AuthConfig{},
	}
}

// LoadFromEnv builds a Config from defaults overridden by ROLLCALL_*
// environment variables. A .env file in the working directory is applied
// first when present.
func LoadFromEnv() *Config {
	// Missing .env is fine; the environment may be set by the deployment.
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if host := os.Getenv("ROLLCALL_HTTP_HOST"); host != "" {
		cfg.HTTP.Host = host
	}
	if port := os.Getenv("ROLLCALL_HTTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.HTTP.Port = p
		}
	}
	if path := os.Getenv("ROLLCALL_DATABASE_PATH"); path != "" {
		cfg.Database.Path = path
	}
	if secret := os.Getenv("ROLLCALL_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
	if d := os.Getenv("ROLLCALL_HTTP_READ_TIMEOUT"); d != "" {
		if timeout, err := time.ParseDuration(d); err == nil {
			cfg.HTTP.ReadTimeout = timeout
		}
	}
	if d := os.Getenv("ROLLCALL_HTTP_WRITE_TIMEOUT"); d != "" {
		if timeout, err := time.ParseDuration(d); err == nil {
			cfg.HTTP.WriteTimeout = timeout
		}
	}
	if d := os.Getenv("ROLLCALL_WS_PING_INTERVAL"); d != "" {
		if interval, err := time.ParseDuration(d); err == nil {
			cfg.WebSocket.PingInterval = interval
		}
	}

	return cfg
}

// Validate rejects configurations that would fail at runtime.
func (c *Config) Validate() error {
	if c.Database == nil || c.Database.Path == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	if c.HTTP == nil {
		return fmt.Errorf("HTTP configuration is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP port must be between 1 and 65535")
	}
	if c.HTTP.Host == "" {
		return fmt.Errorf("HTTP host cannot be empty")
	}
	if c.HTTP.ReadTimeout <= 0 || c.HTTP.WriteTimeout <= 0 {
		return fmt.Errorf("HTTP timeouts must be positive")
	}
	if c.WebSocket == nil {
		return fmt.Errorf("WebSocket configuration is required")
	}
	if c.WebSocket.PingInterval <= 0 || c.WebSocket.ReadTimeout <= 0 || c.WebSocket.WriteTimeout <= 0 {
		return fmt.Errorf("WebSocket timeouts must be positive")
	}
	if c.WebSocket.BufferSize <= 0 {
		return fmt.Errorf("WebSocket buffer size must be positive")
	}
	if c.Auth == nil || c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret cannot be empty")
	}
	return nil
}
