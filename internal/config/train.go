package config

import "github.com/pkg/errors"

const (
	EnvTrainDir           = "MOODLENS_TRAIN_DIR"
	EnvTrainValidationDir = "MOODLENS_TRAIN_VALIDATION_DIR"
	EnvTrainOutputDir     = "MOODLENS_TRAIN_OUTPUT_DIR"
	EnvTrainEpochs        = "MOODLENS_TRAIN_EPOCHS"
	EnvTrainBatchSize     = "MOODLENS_TRAIN_BATCH_SIZE"
	EnvTrainSeed          = "MOODLENS_TRAIN_SEED"
	EnvTrainWorkers       = "MOODLENS_TRAIN_WORKERS"
)

// MinImageSize is the smallest input that survives the four 3x3 valid
// convolutions and three 2x2 poolings of the network.
const MinImageSize = 24

// TrainConfig holds the fit parameters and the augmentation ranges applied
// to the training split. A negative range disables that augmentation.
type TrainConfig struct {
	TrainDir      string  `toml:"train_dir"`
	ValidationDir string  `toml:"validation_dir"`
	OutputDir     string  `toml:"output_dir"`
	ImageSize     int     `toml:"image_size"`
	Epochs        int     `toml:"epochs"`
	BatchSize     int     `toml:"batch_size"`
	LearningRate  float64 `toml:"learning_rate"`
	Seed          int64   `toml:"seed"`
	Workers       int     `toml:"workers"`

	RotationRange  float64 `toml:"rotation_range"`
	ShearRange     float64 `toml:"shear_range"`
	ZoomRange      float64 `toml:"zoom_range"`
	HorizontalFlip *bool   `toml:"horizontal_flip"`
}

func (c *TrainConfig) Flip() bool {
	return c.HorizontalFlip == nil || *c.HorizontalFlip
}

func (c *TrainConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Override applies non-zero fields of flags on top of a finalized config.
func (c *TrainConfig) Override(flags *TrainConfig) error {
	c.Merge(flags)
	return c.validate()
}

func (c *TrainConfig) Merge(overlay *TrainConfig) {
	if overlay.TrainDir != "" {
		c.TrainDir = overlay.TrainDir
	}
	if overlay.ValidationDir != "" {
		c.ValidationDir = overlay.ValidationDir
	}
	if overlay.OutputDir != "" {
		c.OutputDir = overlay.OutputDir
	}
	if overlay.ImageSize != 0 {
		c.ImageSize = overlay.ImageSize
	}
	if overlay.Epochs != 0 {
		c.Epochs = overlay.Epochs
	}
	if overlay.BatchSize != 0 {
		c.BatchSize = overlay.BatchSize
	}
	if overlay.LearningRate != 0 {
		c.LearningRate = overlay.LearningRate
	}
	if overlay.Seed != 0 {
		c.Seed = overlay.Seed
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.RotationRange != 0 {
		c.RotationRange = overlay.RotationRange
	}
	if overlay.ShearRange != 0 {
		c.ShearRange = overlay.ShearRange
	}
	if overlay.ZoomRange != 0 {
		c.ZoomRange = overlay.ZoomRange
	}
	if overlay.HorizontalFlip != nil {
		c.HorizontalFlip = overlay.HorizontalFlip
	}
}

func (c *TrainConfig) loadDefaults() {
	if c.TrainDir == "" {
		c.TrainDir = "data/train"
	}
	if c.ValidationDir == "" {
		c.ValidationDir = "data/test"
	}
	if c.OutputDir == "" {
		c.OutputDir = "models"
	}
	if c.ImageSize == 0 {
		c.ImageSize = 48
	}
	if c.Epochs == 0 {
		c.Epochs = 30
	}
	if c.BatchSize == 0 {
		c.BatchSize = 32
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.001
	}
	if c.Seed == 0 {
		c.Seed = 42
	}
	if c.Workers == 0 {
		c.Workers = 8
	}
	if c.RotationRange == 0 {
		c.RotationRange = 30
	}
	if c.ShearRange == 0 {
		c.ShearRange = 0.3
	}
	if c.ZoomRange == 0 {
		c.ZoomRange = 0.3
	}
}

func (c *TrainConfig) loadEnv() {
	envString(EnvTrainDir, &c.TrainDir)
	envString(EnvTrainValidationDir, &c.ValidationDir)
	envString(EnvTrainOutputDir, &c.OutputDir)
	envInt(EnvTrainEpochs, &c.Epochs)
	envInt(EnvTrainBatchSize, &c.BatchSize)
	envInt(EnvTrainWorkers, &c.Workers)
	var seed int
	envInt(EnvTrainSeed, &seed)
	if seed != 0 {
		c.Seed = int64(seed)
	}
}

func (c *TrainConfig) validate() error {
	if c.ImageSize < MinImageSize {
		return errors.Errorf("image_size must be at least %d, got %d", MinImageSize, c.ImageSize)
	}
	if c.Epochs < 1 {
		return errors.Errorf("invalid epochs: %d", c.Epochs)
	}
	if c.BatchSize < 1 {
		return errors.Errorf("invalid batch_size: %d", c.BatchSize)
	}
	if c.Workers < 1 {
		return errors.Errorf("invalid workers: %d", c.Workers)
	}
	if c.ZoomRange >= 1 {
		return errors.Errorf("zoom_range must be below 1, got %g", c.ZoomRange)
	}
	return nil
}
