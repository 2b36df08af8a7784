package training

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/default"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	mlctx "github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/gomlx/gomlx/pkg/ml/train"
	"github.com/gomlx/gomlx/pkg/ml/train/losses"
	"github.com/gomlx/gomlx/pkg/ml/train/metrics"
	"github.com/gomlx/gomlx/pkg/ml/train/optimizers"
	"github.com/gomlx/gomlx/ui/commandline"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/moodlens/internal/config"
	"github.com/Brownie44l1/moodlens/internal/model"
	"github.com/Brownie44l1/moodlens/internal/network"
)

const (
	CheckpointDir = "checkpoint"
	MetadataFile  = "model_metadata.json"
)

var (
	ErrNoBackend          = errors.New("no gomlx backend available")
	ErrBackendCannotTrain = errors.New("gomlx backend cannot compute max-pool gradients")
)

// NewBackend opens the default gomlx backend and checks it supports the
// gradient of MaxPool, which the pure Go backend lacks.
func NewBackend() (backends.Backend, error) {
	backend, err := backends.New()
	if err != nil {
		return nil, errors.Wrap(ErrNoBackend, err.Error())
	}
	if !backend.Capabilities().Operations[backends.OpTypeSelectAndScatterMax] {
		name := backend.Name()
		backend.Finalize()
		return nil, errors.Wrapf(ErrBackendCannotTrain, "backend %s", name)
	}
	return backend, nil
}

// EpochResult is the validation score after one epoch.
type EpochResult struct {
	Epoch    int
	Loss     float32
	Accuracy float32
}

type Options struct {
	Config   config.TrainConfig
	Logger   *logrus.Logger
	Progress bool
}

// Run loads both splits, fits the network and writes the checkpoint and
// metadata under Config.OutputDir. An existing checkpoint there is resumed.
func Run(ctx context.Context, opts Options) ([]EpochResult, error) {
	cfg := opts.Config
	log := opts.Logger

	loader := &Loader{Size: cfg.ImageSize, Workers: cfg.Workers, Progress: opts.Progress}
	log.WithField("dir", cfg.TrainDir).Info("loading training images")
	trainSamples, err := loader.Load(cfg.TrainDir)
	if err != nil {
		return nil, errors.Wrap(err, "load training split")
	}
	log.WithField("dir", cfg.ValidationDir).Info("loading validation images")
	validSamples, err := loader.Load(cfg.ValidationDir)
	if err != nil {
		return nil, errors.Wrap(err, "load validation split")
	}

	trainDS := NewBatches("train", trainSamples, cfg.BatchSize, cfg.ImageSize, NewAugmenter(cfg), true, cfg.Seed)
	validDS := NewBatches("validation", validSamples, cfg.BatchSize, cfg.ImageSize, nil, false, cfg.Seed)
	if trainDS.Steps() == 0 || validDS.Steps() == 0 {
		return nil, errors.Errorf("need at least one batch of %d per split, got %d train and %d validation images",
			cfg.BatchSize, len(trainSamples), len(validSamples))
	}
	log.WithFields(logrus.Fields{
		"train":            len(trainSamples),
		"validation":       len(validSamples),
		"steps_per_epoch":  trainDS.Steps(),
		"validation_steps": validDS.Steps(),
	}).Info("datasets ready")

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create output dir")
	}

	backend, err := NewBackend()
	if err != nil {
		return nil, err
	}
	defer backend.Finalize()
	log.WithField("backend", backend.Name()).Info("training backend")

	mctx := mlctx.New()
	if err := mctx.SetRNGStateFromSeed(cfg.Seed); err != nil {
		return nil, errors.Wrap(err, "seed rng")
	}

	checkpoint, err := checkpoints.Build(mctx).Dir(filepath.Join(cfg.OutputDir, CheckpointDir)).Keep(3).Done()
	if err != nil {
		return nil, errors.Wrap(err, "open checkpoint")
	}
	if step := optimizers.GetGlobalStep(mctx); step > 0 {
		log.WithField("global_step", step).Info("resuming from checkpoint")
	}

	trainer := train.NewTrainer(backend, mctx, network.Graph,
		losses.SparseCategoricalCrossEntropyLogits,
		optimizers.Adam().LearningRate(cfg.LearningRate).Done(),
		[]metrics.Interface{metrics.NewMovingAverageSparseCategoricalAccuracy("Moving Average Accuracy", "~acc", 0.01)},
		[]metrics.Interface{metrics.NewSparseCategoricalAccuracy("Mean Accuracy", "#acc")})

	loop := train.NewLoop(trainer)
	if opts.Progress {
		commandline.AttachProgressBar(loop)
	}

	results := make([]EpochResult, 0, cfg.Epochs)
	for epoch := 1; epoch <= cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		if _, err := loop.RunEpochs(trainDS, 1); err != nil {
			return results, errors.Wrapf(err, "epoch %d", epoch)
		}

		res, err := evaluate(trainer, validDS)
		if err != nil {
			return results, errors.Wrapf(err, "evaluate epoch %d", epoch)
		}
		res.Epoch = epoch
		results = append(results, res)

		log.WithFields(logrus.Fields{
			"epoch":    epoch,
			"val_loss": res.Loss,
			"val_acc":  res.Accuracy,
		}).Info("epoch done")

		if err := checkpoint.Save(); err != nil {
			return results, errors.Wrap(err, "save checkpoint")
		}
	}

	metadata := model.NewMetadata(model.FormatGoMLX, cfg.ImageSize)
	metadata.Epochs = cfg.Epochs
	metadata.TrainedAt = time.Now().UTC().Format(time.RFC3339)
	metadataPath := filepath.Join(cfg.OutputDir, MetadataFile)
	if err := metadata.Save(metadataPath); err != nil {
		return results, err
	}
	log.WithFields(logrus.Fields{
		"checkpoint": checkpoint.Dir(),
		"metadata":   metadataPath,
	}).Info("model saved")

	return results, nil
}

func evaluate(trainer *train.Trainer, ds train.Dataset) (EpochResult, error) {
	values, err := trainer.Eval(ds)
	if err != nil {
		return EpochResult{}, err
	}
	defer func() {
		for _, v := range values {
			v.FinalizeAll()
		}
	}()
	if len(values) < 2 {
		return EpochResult{}, errors.Errorf("expected loss and accuracy, got %d values", len(values))
	}
	return EpochResult{
		Loss:     tensors.ToScalar[float32](values[0]),
		Accuracy: tensors.ToScalar[float32](values[1]),
	}, nil
}
