package config

import "github.com/pkg/errors"

const (
	EnvDetectorCascade      = "MOODLENS_DETECTOR_CASCADE"
	EnvDetectorScaleFactor  = "MOODLENS_DETECTOR_SCALE_FACTOR"
	EnvDetectorMinNeighbors = "MOODLENS_DETECTOR_MIN_NEIGHBORS"
	EnvDetectorMinSize      = "MOODLENS_DETECTOR_MIN_SIZE"
)

// DetectorConfig configures the Haar cascade face detector.
type DetectorConfig struct {
	CascadePath  string  `toml:"cascade_path"`
	ScaleFactor  float64 `toml:"scale_factor"`
	MinNeighbors int     `toml:"min_neighbors"`
	MinSize      int     `toml:"min_size"`
}

func (c *DetectorConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *DetectorConfig) Merge(overlay *DetectorConfig) {
	if overlay.CascadePath != "" {
		c.CascadePath = overlay.CascadePath
	}
	if overlay.ScaleFactor != 0 {
		c.ScaleFactor = overlay.ScaleFactor
	}
	if overlay.MinNeighbors != 0 {
		c.MinNeighbors = overlay.MinNeighbors
	}
	if overlay.MinSize != 0 {
		c.MinSize = overlay.MinSize
	}
}

func (c *DetectorConfig) loadDefaults() {
	if c.CascadePath == "" {
		c.CascadePath = "models/haarcascade_frontalface_default.xml"
	}
	if c.ScaleFactor == 0 {
		c.ScaleFactor = 1.3
	}
	if c.MinNeighbors == 0 {
		c.MinNeighbors = 3
	}
}

func (c *DetectorConfig) loadEnv() {
	envString(EnvDetectorCascade, &c.CascadePath)
	envFloat(EnvDetectorScaleFactor, &c.ScaleFactor)
	envInt(EnvDetectorMinNeighbors, &c.MinNeighbors)
	envInt(EnvDetectorMinSize, &c.MinSize)
}

func (c *DetectorConfig) validate() error {
	if c.ScaleFactor <= 1 {
		return errors.Errorf("scale_factor must be > 1, got %g", c.ScaleFactor)
	}
	if c.MinNeighbors < 0 {
		return errors.Errorf("invalid min_neighbors: %d", c.MinNeighbors)
	}
	if c.MinSize < 0 {
		return errors.Errorf("invalid min_size: %d", c.MinSize)
	}
	return nil
}
