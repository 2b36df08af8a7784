package config

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

const (
	EnvServerHost            = "MOODLENS_SERVER_HOST"
	EnvServerPort            = "MOODLENS_SERVER_PORT"
	EnvServerReadTimeout     = "MOODLENS_SERVER_READ_TIMEOUT"
	EnvServerWriteTimeout    = "MOODLENS_SERVER_WRITE_TIMEOUT"
	EnvServerShutdownTimeout = "MOODLENS_SERVER_SHUTDOWN_TIMEOUT"
	EnvServerMaxUploadMB     = "MOODLENS_SERVER_MAX_UPLOAD_MB"

	// EnvPort is honoured for compatibility with platforms that only set PORT.
	EnvPort = "PORT"
)

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	ReadTimeout     string `toml:"read_timeout"`
	WriteTimeout    string `toml:"write_timeout"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	MaxUploadMB     int    `toml:"max_upload_mb"`
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) ReadTimeoutDuration() time.Duration     { return duration(c.ReadTimeout) }
func (c *ServerConfig) WriteTimeoutDuration() time.Duration    { return duration(c.WriteTimeout) }
func (c *ServerConfig) ShutdownTimeoutDuration() time.Duration { return duration(c.ShutdownTimeout) }

// MaxUploadBytes is the multipart memory limit for uploads.
func (c *ServerConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func (c *ServerConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *ServerConfig) Merge(overlay *ServerConfig) {
	if overlay.Host != "" {
		c.Host = overlay.Host
	}
	if overlay.Port != 0 {
		c.Port = overlay.Port
	}
	if overlay.ReadTimeout != "" {
		c.ReadTimeout = overlay.ReadTimeout
	}
	if overlay.WriteTimeout != "" {
		c.WriteTimeout = overlay.WriteTimeout
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.MaxUploadMB != 0 {
		c.MaxUploadMB = overlay.MaxUploadMB
	}
}

func (c *ServerConfig) loadDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 5000
	}
	if c.ReadTimeout == "" {
		c.ReadTimeout = "30s"
	}
	if c.WriteTimeout == "" {
		c.WriteTimeout = "30s"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "10s"
	}
	if c.MaxUploadMB == 0 {
		c.MaxUploadMB = 10
	}
}

func (c *ServerConfig) loadEnv() {
	envString(EnvServerHost, &c.Host)
	envInt(EnvPort, &c.Port)
	envInt(EnvServerPort, &c.Port)
	envString(EnvServerReadTimeout, &c.ReadTimeout)
	envString(EnvServerWriteTimeout, &c.WriteTimeout)
	envString(EnvServerShutdownTimeout, &c.ShutdownTimeout)
	envInt(EnvServerMaxUploadMB, &c.MaxUploadMB)
}

func (c *ServerConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("invalid port: %d", c.Port)
	}
	if c.MaxUploadMB < 1 {
		return errors.Errorf("invalid max_upload_mb: %d", c.MaxUploadMB)
	}
	if err := parseDuration("read_timeout", c.ReadTimeout); err != nil {
		return err
	}
	if err := parseDuration("write_timeout", c.WriteTimeout); err != nil {
		return err
	}
	return parseDuration("shutdown_timeout", c.ShutdownTimeout)
}
