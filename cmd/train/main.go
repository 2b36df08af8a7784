package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/moodlens/internal/config"
	"github.com/Brownie44l1/moodlens/internal/logging"
	"github.com/Brownie44l1/moodlens/internal/training"
)

type args struct {
	Config        string `arg:"-c,--config" help:"path to config.toml"`
	TrainDir      string `arg:"--train-dir" help:"directory with one subdirectory per emotion"`
	ValidationDir string `arg:"--validation-dir" help:"validation split, same layout as --train-dir"`
	Out           string `arg:"-o,--out" help:"directory for the checkpoint and model_metadata.json"`
	Epochs        int    `arg:"--epochs" help:"number of passes over the training split"`
	BatchSize     int    `arg:"--batch-size" help:"images per step"`
	Seed          int64  `arg:"--seed" help:"seed for shuffling, augmentation and initialization"`
	Quiet         bool   `arg:"-q,--quiet" help:"disable progress bars"`
}

func (args) Description() string {
	return "Train the facial emotion network on a directory-per-class dataset."
}

func main() {
	var args args
	arg.MustParse(&args)

	cfg, err := config.Load(args.Config)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	log := logging.New(cfg.Log)

	err = cfg.Train.Override(&config.TrainConfig{
		TrainDir:      args.TrainDir,
		ValidationDir: args.ValidationDir,
		OutputDir:     args.Out,
		Epochs:        args.Epochs,
		BatchSize:     args.BatchSize,
		Seed:          args.Seed,
	})
	if err != nil {
		log.WithError(err).Fatal("invalid training flags")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := training.Run(ctx, training.Options{
		Config:   cfg.Train,
		Logger:   log,
		Progress: !args.Quiet,
	})
	if err != nil {
		log.WithError(err).Fatal("training failed")
	}

	if len(results) > 0 {
		last := results[len(results)-1]
		log.WithFields(logrus.Fields{
			"val_loss": last.Loss,
			"val_acc":  last.Accuracy,
		}).Info("training complete")
	}
}
