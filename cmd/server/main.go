package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alexflint/go-arg"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/moodlens/internal/capture"
	"github.com/Brownie44l1/moodlens/internal/config"
	"github.com/Brownie44l1/moodlens/internal/faces"
	"github.com/Brownie44l1/moodlens/internal/faces/cascade"
	"github.com/Brownie44l1/moodlens/internal/handlers"
	"github.com/Brownie44l1/moodlens/internal/logging"
	"github.com/Brownie44l1/moodlens/internal/model"
	"github.com/Brownie44l1/moodlens/internal/network"
)

type args struct {
	Config   string `arg:"-c,--config" help:"path to config.toml (overlay config.<MOODLENS_ENV>.toml is read beside it)"`
	LogLevel string `arg:"--log-level" help:"override the configured log level"`
}

func (args) Description() string {
	return "moodlens serves facial emotion predictions over HTTP."
}

func main() {
	var args args
	arg.MustParse(&args)

	cfg, err := config.Load(args.Config)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}
	if args.LogLevel != "" {
		if err := cfg.Log.SetLevel(args.LogLevel); err != nil {
			logrus.WithError(err).Fatal("invalid --log-level")
		}
	}
	log := logging.New(cfg.Log)

	if err := run(cfg, log); err != nil {
		log.WithError(err).Fatal("server failed")
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	classifier, metadata, err := newClassifier(cfg.Model, log)
	if err != nil {
		return err
	}
	defer classifier.Close()

	opts := handlers.NewOptions(cfg, metadata)
	var detector faces.Detector
	if !opts.Stub {
		c, err := cascade.New(cfg.Detector)
		if err != nil {
			return err
		}
		defer c.Close()
		detector = c
		log.WithField("cascade", cfg.Detector.CascadePath).Info("face detector loaded")
	}

	store, err := capture.New(ctx, cfg.Capture)
	if err != nil {
		return errors.Wrap(err, "failed to create capture store")
	}
	if store != nil {
		log.WithField("backend", cfg.Capture.Backend).Info("debug capture enabled")
	}

	h := handlers.NewHandler(classifier, detector, store, opts, log)

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handlers.Chain(h.Routes(), handlers.RequestLogger(log), handlers.CORS(cfg.CORS)),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	errc := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{
			"addr":    srv.Addr,
			"backend": cfg.Model.Backend,
			"env":     cfg.Env(),
		}).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeoutDuration())
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "server shutdown")
	}
	log.Info("server shutdown complete")
	return nil
}

// newClassifier returns the metadata alongside the model so the handler
// crops faces at the size the weights were trained on.
func newClassifier(cfg config.ModelConfig, log *logrus.Logger) (model.Classifier, model.Metadata, error) {
	if cfg.Backend == config.BackendRandom {
		log.Warn("no model loaded, answering random moods")
		return model.NewRandom(cfg.Seed), model.NewMetadata("", model.DefaultImageSize), nil
	}

	metadata, err := model.LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, metadata, errors.Wrapf(err, "failed to load metadata from %s", cfg.MetadataPath)
	}
	if err := metadata.CheckFormat(cfg.Backend); err != nil {
		return nil, metadata, errors.Wrapf(err, "%s cannot be served by the %s backend", cfg.MetadataPath, cfg.Backend)
	}
	entry := log.WithFields(logrus.Fields{
		"backend": cfg.Backend,
		"path":    cfg.Path,
		"classes": metadata.Classes,
	})

	switch cfg.Backend {
	case config.BackendONNX:
		c, err := model.NewONNX(cfg.Path, metadata, cfg.RuntimeLibrary)
		if err != nil {
			return nil, metadata, err
		}
		entry.Info("model loaded")
		return c, metadata, nil
	case config.BackendGoMLX:
		c, err := network.NewClassifier(cfg.Path, metadata)
		if err != nil {
			return nil, metadata, err
		}
		entry.Info("model loaded")
		return c, metadata, nil
	}
	return nil, metadata, errors.Errorf("unknown backend %q", cfg.Backend)
}
