package network

import (
	"sync"

	"github.com/gomlx/gomlx/backends"
	_ "github.com/gomlx/gomlx/backends/default"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"
	"github.com/pkg/errors"

	"github.com/Brownie44l1/moodlens/internal/model"
)

// Classifier serves a checkpoint written by the trainer. The backend is
// chosen by gomlx defaults (GOMLX_BACKEND when set).
type Classifier struct {
	mu       sync.Mutex
	backend  backends.Backend
	exec     *context.Exec
	metadata model.Metadata
}

var _ model.Classifier = (*Classifier)(nil)

func NewClassifier(checkpointDir string, metadata model.Metadata) (*Classifier, error) {
	backend, err := backends.New()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create gomlx backend")
	}

	ctx := context.New()
	if _, err := checkpoints.Load(ctx).Dir(checkpointDir).Immediate().Done(); err != nil {
		backend.Finalize()
		return nil, errors.Wrapf(err, "failed to load checkpoint from %q", checkpointDir)
	}
	ctx = ctx.Reuse()

	exec, err := context.NewExec(backend, ctx, Probabilities)
	if err != nil {
		backend.Finalize()
		return nil, errors.Wrap(err, "failed to build inference graph")
	}

	return &Classifier{
		backend:  backend,
		exec:     exec,
		metadata: metadata,
	}, nil
}

func (c *Classifier) Predict(input []float32) (*model.Prediction, error) {
	if len(input) != c.metadata.InputSize() {
		return nil, errors.Errorf("expected %d input values, got %d", c.metadata.InputSize(), len(input))
	}

	dims := make([]int, len(c.metadata.InputShape))
	for i, d := range c.metadata.InputShape {
		dims[i] = int(d)
	}
	image := tensors.FromFlatDataAndDimensions(input, dims...)

	c.mu.Lock()
	probs, err := c.exec.Exec1(image)
	c.mu.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "inference failed")
	}
	defer probs.FinalizeAll()

	return model.Decode(tensors.MustCopyFlatData[float32](probs), c.metadata.Classes, false)
}

func (c *Classifier) Close() {
	c.exec.Finalize()
	c.backend.Finalize()
}
