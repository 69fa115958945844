// Package config provides configuration handling for flowgraph.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

// Config represents the application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Storage configuration
	Storage StorageConfig `json:"storage"`

	// Auth configuration
	Auth AuthConfig `json:"auth"`

	// Engine configuration
	Engine EngineConfig `json:"engine"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Host to bind to
	Host string `json:"host"`

	// Port to listen on
	Port int `json:"port"`
}

// StorageConfig contains execution store settings
type StorageConfig struct {
	// Type of storage to use: "memory", "redis" or "postgres"
	Type string `json:"type"`

	// Redis configuration
	Redis RedisConfig `json:"redis"`

	// PostgreSQL configuration
	Postgres PostgresConfig `json:"postgres"`
}

// RedisConfig contains redis settings
type RedisConfig struct {
	// Addr is the host:port of the redis server
	Addr string `json:"addr"`

	// Password for the redis server
	Password string `json:"password"`

	// DB index to use
	DB int `json:"db"`
}

// PostgresConfig contains PostgreSQL settings
type PostgresConfig struct {
	// Host is the database host
	Host string `json:"host"`

	// Port is the database port
	Port int `json:"port"`

	// Database is the database name
	Database string `json:"database"`

	// User is the database user
	User string `json:"user"`

	// Password is the database password
	Password string `json:"password"`

	// SSLMode is the SSL mode
	SSLMode string `json:"ssl_mode"`
}

// AuthConfig contains authentication settings
type AuthConfig struct {
	// JWTSecret is the secret for signing API tokens
	JWTSecret string `json:"jwt_secret"`

	// TokenExpirationHours is the token lifetime in hours
	TokenExpirationHours int `json:"token_expiration_hours"`

	// Username of the API operator
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the operator password
	PasswordHash string `json:"password_hash"`
}

// EngineConfig contains executor settings
type EngineConfig struct {
	// FanOutConcurrency bounds parallel fan-out work; <= 1 is sequential
	FanOutConcurrency int `json:"fan_out_concurrency"`

	// ScriptTimeoutMS is the default sandbox timeout in milliseconds
	ScriptTimeoutMS int `json:"script_timeout_ms"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Storage: StorageConfig{
			Type: "memory",
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "flowgraph",
				User:     "flowgraph",
				SSLMode:  "disable",
			},
		},
		Auth: AuthConfig{
			TokenExpirationHours: 24,
		},
		Engine: EngineConfig{
			FanOutConcurrency: 1,
			ScriptTimeoutMS:   5000,
		},
	}
}

// LoadConfig loads the configuration from a JSON file, starting from the
// defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// FromEnv overlays FLOWGRAPH_* environment variables onto the configuration.
func (c *Config) FromEnv() {
	if v := os.Getenv("FLOWGRAPH_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("FLOWGRAPH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("FLOWGRAPH_STORAGE_TYPE"); v != "" {
		c.Storage.Type = v
	}
	if v := os.Getenv("FLOWGRAPH_REDIS_ADDR"); v != "" {
		c.Storage.Redis.Addr = v
	}
	if v := os.Getenv("FLOWGRAPH_REDIS_PASSWORD"); v != "" {
		c.Storage.Redis.Password = v
	}
	if v := os.Getenv("FLOWGRAPH_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("FLOWGRAPH_USERNAME"); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv("FLOWGRAPH_PASSWORD_HASH"); v != "" {
		c.Auth.PasswordHash = v
	}
}
