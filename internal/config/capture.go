package config

import (
	"slices"

	"github.com/pkg/errors"
)

const (
	CaptureNone  = "none"
	CaptureDisk  = "disk"
	CaptureS3    = "s3"
	CaptureAzure = "azure"

	EnvCaptureBackend          = "MOODLENS_CAPTURE_BACKEND"
	EnvCaptureDir              = "MOODLENS_CAPTURE_DIR"
	EnvCaptureKey              = "MOODLENS_CAPTURE_KEY"
	EnvCapturePerRequest       = "MOODLENS_CAPTURE_PER_REQUEST"
	EnvCaptureBucket           = "MOODLENS_CAPTURE_BUCKET"
	EnvCaptureRegion           = "MOODLENS_CAPTURE_REGION"
	EnvCaptureEndpoint         = "MOODLENS_CAPTURE_ENDPOINT"
	EnvCapturePrefix           = "MOODLENS_CAPTURE_PREFIX"
	EnvCaptureContainer        = "MOODLENS_CAPTURE_CONTAINER"
	EnvCaptureConnectionString = "MOODLENS_CAPTURE_CONNECTION_STRING"
)

var captureBackends = []string{CaptureNone, CaptureDisk, CaptureS3, CaptureAzure}

// CaptureConfig controls persistence of uploaded images for debugging.
// Only the fields of the selected backend are required.
type CaptureConfig struct {
	Backend          string `toml:"backend"`
	Key              string `toml:"key"`
	PerRequest       *bool  `toml:"per_request"`
	Dir              string `toml:"dir"`
	Bucket           string `toml:"bucket"`
	Region           string `toml:"region"`
	Endpoint         string `toml:"endpoint"`
	Prefix           string `toml:"prefix"`
	Container        string `toml:"container"`
	ConnectionString string `toml:"connection_string"`
}

func (c *CaptureConfig) Enabled() bool {
	return c.Backend != CaptureNone
}

// UniqueKeys reports whether every capture gets its own key instead of
// overwriting Key.
func (c *CaptureConfig) UniqueKeys() bool {
	return c.PerRequest != nil && *c.PerRequest
}

func (c *CaptureConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

func (c *CaptureConfig) Merge(overlay *CaptureConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Key != "" {
		c.Key = overlay.Key
	}
	if overlay.PerRequest != nil {
		c.PerRequest = overlay.PerRequest
	}
	if overlay.Dir != "" {
		c.Dir = overlay.Dir
	}
	if overlay.Bucket != "" {
		c.Bucket = overlay.Bucket
	}
	if overlay.Region != "" {
		c.Region = overlay.Region
	}
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.Prefix != "" {
		c.Prefix = overlay.Prefix
	}
	if overlay.Container != "" {
		c.Container = overlay.Container
	}
	if overlay.ConnectionString != "" {
		c.ConnectionString = overlay.ConnectionString
	}
}

func (c *CaptureConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = CaptureNone
	}
	if c.Key == "" {
		c.Key = "latest_capture.jpg"
	}
	if c.Dir == "" {
		c.Dir = "debug_images"
	}
	if c.Container == "" {
		c.Container = "captures"
	}
}

func (c *CaptureConfig) loadEnv() {
	envString(EnvCaptureBackend, &c.Backend)
	envString(EnvCaptureDir, &c.Dir)
	envString(EnvCaptureKey, &c.Key)
	envBoolPtr(EnvCapturePerRequest, &c.PerRequest)
	envString(EnvCaptureBucket, &c.Bucket)
	envString(EnvCaptureRegion, &c.Region)
	envString(EnvCaptureEndpoint, &c.Endpoint)
	envString(EnvCapturePrefix, &c.Prefix)
	envString(EnvCaptureContainer, &c.Container)
	envString(EnvCaptureConnectionString, &c.ConnectionString)
}

func (c *CaptureConfig) validate() error {
	if !slices.Contains(captureBackends, c.Backend) {
		return errors.Errorf("unknown backend %q, expected one of %v", c.Backend, captureBackends)
	}
	switch c.Backend {
	case CaptureS3:
		if c.Bucket == "" {
			return errors.New("bucket required for s3 capture")
		}
	case CaptureAzure:
		if c.ConnectionString == "" {
			return errors.New("connection_string required for azure capture")
		}
	}
	return nil
}
