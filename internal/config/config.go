package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvMoodlensEnv = "MOODLENS_ENV"
)

// Config is the root configuration shared by the server and the trainer.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Model    ModelConfig    `toml:"model"`
	Detector DetectorConfig `toml:"detector"`
	Capture  CaptureConfig  `toml:"capture"`
	CORS     CORSConfig     `toml:"cors"`
	Log      LogConfig      `toml:"log"`
	Train    TrainConfig    `toml:"train"`
}

// Env returns the MOODLENS_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvMoodlensEnv); env != "" {
		return env
	}
	return "local"
}

// Load reads the base config (if present), applies the environment overlay
// config.<env>.toml next to it (if present), and finalizes every section.
// An empty path means BaseConfigFile in the working directory.
func Load(path string) (*Config, error) {
	if path == "" {
		path = BaseConfigFile
	}

	cfg := &Config{}
	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if overlay := overlayPath(path); overlay != "" {
		if _, err := os.Stat(overlay); err == nil {
			loaded, err := load(overlay)
			if err != nil {
				return nil, err
			}
			cfg.Merge(loaded)
		}
	}

	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize applies defaults, environment overrides and validation to every section.
func (c *Config) Finalize() error {
	sections := []struct {
		name     string
		finalize func() error
	}{
		{"server", c.Server.Finalize},
		{"model", c.Model.Finalize},
		{"detector", c.Detector.Finalize},
		{"capture", c.Capture.Finalize},
		{"cors", c.CORS.Finalize},
		{"log", c.Log.Finalize},
		{"train", c.Train.Finalize},
	}
	for _, s := range sections {
		if err := s.finalize(); err != nil {
			return errors.Wrapf(err, "%s config", s.name)
		}
	}
	return nil
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	c.Server.Merge(&overlay.Server)
	c.Model.Merge(&overlay.Model)
	c.Detector.Merge(&overlay.Detector)
	c.Capture.Merge(&overlay.Capture)
	c.CORS.Merge(&overlay.CORS)
	c.Log.Merge(&overlay.Log)
	c.Train.Merge(&overlay.Train)
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return &cfg, nil
}

func overlayPath(base string) string {
	env := os.Getenv(EnvMoodlensEnv)
	if env == "" {
		return ""
	}
	return filepath.Join(filepath.Dir(base), fmt.Sprintf(OverlayConfigPattern, env))
}

func envString(name string, value *string) {
	if v := os.Getenv(name); v != "" {
		*value = v
	}
}

func envInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if n, err := strconv.Atoi(v); err == nil {
		*value = n
	}
}

func envFloat(name string, value *float64) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		*value = f
	}
}

func envBoolPtr(name string, value **bool) {
	if v, ok := lookupBool(name); ok {
		*value = &v
	}
}

func lookupBool(name string) (bool, bool) {
	switch strings.ToLower(os.Getenv(name)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

func envList(name string, value *[]string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	parts := strings.Split(v, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			list = append(list, trimmed)
		}
	}
	*value = list
}

func parseDuration(name, value string) error {
	if _, err := time.ParseDuration(value); err != nil {
		return errors.Wrapf(err, "invalid %s", name)
	}
	return nil
}

func duration(value string) time.Duration {
	d, _ := time.ParseDuration(value)
	return d
}
