package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	StaticDir         string        `mapstructure:"static_dir" yaml:"static_dir"`
	TokenSecret       string        `mapstructure:"token_secret" yaml:"token_secret"`
	VitalityTicks     int           `mapstructure:"vitality_ticks" yaml:"vitality_ticks"`
	TickInterval      time.Duration `mapstructure:"tick_interval" yaml:"tick_interval"`
	PingInterval      time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		LogLevel:          "info",
		StaticDir:         "web",
		TokenSecret:       "dev-secret-change-me",
		VitalityTicks:     10,
		TickInterval:      time.Second,
		PingInterval:      time.Second,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.StaticDir != "" {
		c.StaticDir = other.StaticDir
	}
	if other.TokenSecret != "" {
		c.TokenSecret = other.TokenSecret
	}
	if other.VitalityTicks != 0 {
		c.VitalityTicks = other.VitalityTicks
	}
	if other.TickInterval != 0 {
		c.TickInterval = other.TickInterval
	}
	if other.PingInterval != 0 {
		c.PingInterval = other.PingInterval
	}
}
