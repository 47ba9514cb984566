package config

import "time"

// DefaultMaxMessageSize caps one request on every transport.
const DefaultMaxMessageSize int64 = 32 << 10

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	HTTPAddr          string        `mapstructure:"http_addr" yaml:"http_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxMessageSize    int64         `mapstructure:"max_message_size" yaml:"max_message_size"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	LogFormat         string        `mapstructure:"log_format" yaml:"log_format"`
	ExcludeSender     bool          `mapstructure:"exclude_sender" yaml:"exclude_sender"`
	OutboundBuffer    int           `mapstructure:"outbound_buffer" yaml:"outbound_buffer"`
	HistorySize       int           `mapstructure:"history_size" yaml:"history_size"`
	AuditDBPath       string        `mapstructure:"audit_db_path" yaml:"audit_db_path"`
	AdminJWTSecret    string        `mapstructure:"admin_jwt_secret" yaml:"admin_jwt_secret"`
	AdminJWTIssuer    string        `mapstructure:"admin_jwt_issuer" yaml:"admin_jwt_issuer"`
}

// RequestLimit returns MaxMessageSize, or the default when it is not positive.
func (c *Config) RequestLimit() int64 {
	if c.MaxMessageSize <= 0 {
		return DefaultMaxMessageSize
	}
	return c.MaxMessageSize
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              "localhost:9998",
		HTTPAddr:          "localhost:8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		WriteTimeout:      5 * time.Second,
		MaxMessageSize:    DefaultMaxMessageSize,
		LogLevel:          "info",
		LogFormat:         "console",
		OutboundBuffer:    32,
		HistorySize:       100,
		AdminJWTIssuer:    "linechat",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.HTTPAddr != "" {
		c.HTTPAddr = other.HTTPAddr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.WriteTimeout != 0 {
		c.WriteTimeout = other.WriteTimeout
	}
	if other.MaxMessageSize != 0 {
		c.MaxMessageSize = other.MaxMessageSize
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		c.LogFormat = other.LogFormat
	}
	if other.ExcludeSender {
		c.ExcludeSender = true
	}
	if other.OutboundBuffer != 0 {
		c.OutboundBuffer = other.OutboundBuffer
	}
	if other.HistorySize != 0 {
		c.HistorySize = other.HistorySize
	}
	if other.AuditDBPath != "" {
		c.AuditDBPath = other.AuditDBPath
	}
	if other.AdminJWTSecret != "" {
		c.AdminJWTSecret = other.AdminJWTSecret
	}
	if other.AdminJWTIssuer != "" {
		c.AdminJWTIssuer = other.AdminJWTIssuer
	}
}
