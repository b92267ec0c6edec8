// Package config loads application configuration from environment
// variables (HV_ prefix) merged with an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server" envconfig:"SERVER"`
	Security  SecurityConfig  `yaml:"security" envconfig:"SECURITY"`
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Upload    UploadConfig    `yaml:"upload" envconfig:"UPLOAD"`
	Export    ExportConfig    `yaml:"export" envconfig:"EXPORT"`
	WebSocket WebSocketConfig `yaml:"websocket" envconfig:"WEBSOCKET"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
}

// SecurityConfig contains rate limiting and development toggles.
type SecurityConfig struct {
	RateLimit   RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Development bool            `yaml:"development" envconfig:"DEVELOPMENT" default:"false"`
}

// RateLimitConfig contains rate limiting configuration.
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" envconfig:"ENABLED" default:"true"`
	RPS     float64 `yaml:"rps" envconfig:"RPS" default:"50"`
	Burst   int     `yaml:"burst" envconfig:"BURST" default:"25"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/app.log"`
}

// UploadConfig bounds what the ingest endpoints accept.
type UploadConfig struct {
	MaxFileSize   int64 `yaml:"max_file_size" envconfig:"MAX_FILE_SIZE" default:"2147483648"`
	MaxChunkCount int   `yaml:"max_chunk_count" envconfig:"MAX_CHUNK_COUNT" default:"4096"`
}

// ExportConfig locates the on-demand export output.
type ExportConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR" default:"exports"`
}

// WebSocketConfig contains progress feed configuration.
type WebSocketConfig struct {
	ReadBufferSize  int           `yaml:"read_buffer_size" envconfig:"READ_BUFFER_SIZE" default:"1024"`
	WriteBufferSize int           `yaml:"write_buffer_size" envconfig:"WRITE_BUFFER_SIZE" default:"1024"`
	PingPeriod      time.Duration `yaml:"ping_period" envconfig:"PING_PERIOD" default:"30s"`
	PongWait        time.Duration `yaml:"pong_wait" envconfig:"PONG_WAIT" default:"60s"`
}

// Load loads configuration from environment variables and, when
// present, a config file. Environment values win.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("HV", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	configFile := configFilePath()
	if _, err := os.Stat(configFile); err == nil {
		fileCfg, err := loadFromFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
		cfg = merge(*fileCfg, cfg)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func configFilePath() string {
	if path := os.Getenv("HV_CONFIG_FILE"); path != "" {
		return path
	}
	return "config.yaml"
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	return &cfg, nil
}

// merge overlays file values onto the env-processed config. An env
// value that was explicitly set always wins; otherwise a non-zero file
// value replaces the envconfig default.
func merge(file, env Config) Config {
	out := env

	fromFile := func(envKey string, set func()) {
		if _, ok := os.LookupEnv(envKey); !ok {
			set()
		}
	}

	if file.Server.Port != 0 {
		fromFile("HV_SERVER_PORT", func() { out.Server.Port = file.Server.Port })
	}
	if file.Server.ReadTimeout != 0 {
		fromFile("HV_SERVER_READ_TIMEOUT", func() { out.Server.ReadTimeout = file.Server.ReadTimeout })
	}
	if file.Server.WriteTimeout != 0 {
		fromFile("HV_SERVER_WRITE_TIMEOUT", func() { out.Server.WriteTimeout = file.Server.WriteTimeout })
	}
	if file.Server.IdleTimeout != 0 {
		fromFile("HV_SERVER_IDLE_TIMEOUT", func() { out.Server.IdleTimeout = file.Server.IdleTimeout })
	}
	if file.Server.ShutdownTimeout != 0 {
		fromFile("HV_SERVER_SHUTDOWN_TIMEOUT", func() { out.Server.ShutdownTimeout = file.Server.ShutdownTimeout })
	}
	if file.Logging.Level != "" {
		fromFile("HV_LOGGING_LEVEL", func() { out.Logging.Level = file.Logging.Level })
	}
	if file.Logging.Output != "" {
		fromFile("HV_LOGGING_OUTPUT", func() { out.Logging.Output = file.Logging.Output })
	}
	if file.Logging.FilePath != "" {
		fromFile("HV_LOGGING_FILE_PATH", func() { out.Logging.FilePath = file.Logging.FilePath })
	}
	if file.Upload.MaxFileSize != 0 {
		fromFile("HV_UPLOAD_MAX_FILE_SIZE", func() { out.Upload.MaxFileSize = file.Upload.MaxFileSize })
	}
	if file.Upload.MaxChunkCount != 0 {
		fromFile("HV_UPLOAD_MAX_CHUNK_COUNT", func() { out.Upload.MaxChunkCount = file.Upload.MaxChunkCount })
	}
	if file.Export.Dir != "" {
		fromFile("HV_EXPORT_DIR", func() { out.Export.Dir = file.Export.Dir })
	}
	if file.Security.RateLimit.RPS != 0 {
		fromFile("HV_SECURITY_RATE_LIMIT_RPS", func() { out.Security.RateLimit.RPS = file.Security.RateLimit.RPS })
	}
	if file.Security.RateLimit.Burst != 0 {
		fromFile("HV_SECURITY_RATE_LIMIT_BURST", func() { out.Security.RateLimit.Burst = file.Security.RateLimit.Burst })
	}
	if file.WebSocket.ReadBufferSize != 0 {
		fromFile("HV_WEBSOCKET_READ_BUFFER_SIZE", func() { out.WebSocket.ReadBufferSize = file.WebSocket.ReadBufferSize })
	}
	if file.WebSocket.WriteBufferSize != 0 {
		fromFile("HV_WEBSOCKET_WRITE_BUFFER_SIZE", func() { out.WebSocket.WriteBufferSize = file.WebSocket.WriteBufferSize })
	}
	if file.WebSocket.PingPeriod != 0 {
		fromFile("HV_WEBSOCKET_PING_PERIOD", func() { out.WebSocket.PingPeriod = file.WebSocket.PingPeriod })
	}
	if file.WebSocket.PongWait != 0 {
		fromFile("HV_WEBSOCKET_PONG_WAIT", func() { out.WebSocket.PongWait = file.WebSocket.PongWait })
	}

	return out
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Upload.MaxFileSize <= 0 {
		return fmt.Errorf("max file size must be positive")
	}
	if c.Upload.MaxChunkCount <= 0 {
		return fmt.Errorf("max chunk count must be positive")
	}
	if c.WebSocket.PingPeriod >= c.WebSocket.PongWait {
		return fmt.Errorf("websocket ping period must be shorter than pong wait")
	}
	return nil
}
