package config

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	EnvLogLevel  = "MOODLENS_LOG_LEVEL"
	EnvLogFormat = "MOODLENS_LOG_FORMAT"
)

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func (c *LogConfig) Finalize() error {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "text"
	}
	envString(EnvLogLevel, &c.Level)
	envString(EnvLogFormat, &c.Format)

	if _, err := logrus.ParseLevel(c.Level); err != nil {
		return errors.Wrap(err, "invalid level")
	}
	if c.Format != "text" && c.Format != "json" {
		return errors.Errorf("invalid format %q, expected text or json", c.Format)
	}
	return nil
}

// SetLevel overrides the level after Finalize, rejecting unknown names.
func (c *LogConfig) SetLevel(level string) error {
	if _, err := logrus.ParseLevel(level); err != nil {
		return errors.Wrap(err, "invalid level")
	}
	c.Level = level
	return nil
}

func (c *LogConfig) Merge(overlay *LogConfig) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
}
