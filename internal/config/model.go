package config

import (
	"slices"

	"github.com/pkg/errors"
)

const (
	BackendONNX   = "onnx"
	BackendGoMLX  = "gomlx"
	BackendRandom = "random"

	EnvModelBackend  = "MOODLENS_MODEL_BACKEND"
	EnvModelPath     = "MOODLENS_MODEL_PATH"
	EnvModelMetadata = "MOODLENS_MODEL_METADATA"
	EnvModelSeed     = "MOODLENS_MODEL_SEED"
	EnvModelRuntime  = "MOODLENS_ONNXRUNTIME_LIB"
)

var modelBackends = []string{BackendONNX, BackendGoMLX, BackendRandom}

// ModelConfig selects the classifier backend and where its weights live.
// Path is an .onnx file for the onnx backend and a checkpoint directory for gomlx.
type ModelConfig struct {
	Backend      string `toml:"backend"`
	Path         string `toml:"path"`
	MetadataPath string `toml:"metadata_path"`
	Seed         int64  `toml:"seed"`

	// RuntimeLibrary overrides the onnxruntime shared library location.
	RuntimeLibrary string `toml:"runtime_library"`
}

// Finalize reads the environment before filling defaults because the
// default path depends on the backend.
func (c *ModelConfig) Finalize() error {
	c.loadEnv()
	c.loadDefaults()
	return c.validate()
}

func (c *ModelConfig) Merge(overlay *ModelConfig) {
	if overlay.Backend != "" {
		c.Backend = overlay.Backend
	}
	if overlay.Path != "" {
		c.Path = overlay.Path
	}
	if overlay.MetadataPath != "" {
		c.MetadataPath = overlay.MetadataPath
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.RuntimeLibrary != "" {
		c.RuntimeLibrary = overlay.RuntimeLibrary
	}
}

func (c *ModelConfig) loadDefaults() {
	if c.Backend == "" {
		c.Backend = BackendGoMLX
	}
	if c.Path == "" {
		switch c.Backend {
		case BackendONNX:
			c.Path = "models/model_embedded.onnx"
		case BackendGoMLX:
			c.Path = "models/checkpoint"
		}
	}
	if c.MetadataPath == "" && c.Backend != BackendRandom {
		c.MetadataPath = "models/model_metadata.json"
	}
}

func (c *ModelConfig) loadEnv() {
	envString(EnvModelBackend, &c.Backend)
	envString(EnvModelPath, &c.Path)
	envString(EnvModelMetadata, &c.MetadataPath)
	envString(EnvModelRuntime, &c.RuntimeLibrary)
	var seed int
	envInt(EnvModelSeed, &seed)
	if seed != 0 {
		c.Seed = int64(seed)
	}
}

func (c *ModelConfig) validate() error {
	if !slices.Contains(modelBackends, c.Backend) {
		return errors.Errorf("unknown backend %q, expected one of %v", c.Backend, modelBackends)
	}
	if c.Backend != BackendRandom && c.Path == "" {
		return errors.New("path required")
	}
	return nil
}
