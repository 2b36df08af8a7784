package network

import (
	"math"
	"slices"
	"testing"

	"github.com/gomlx/gomlx/backends"
	"github.com/gomlx/gomlx/pkg/core/graph"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/gomlx/gomlx/pkg/ml/context"
	"github.com/gomlx/gomlx/pkg/ml/context/checkpoints"

	"github.com/Brownie44l1/moodlens/internal/emotion"
	"github.com/Brownie44l1/moodlens/internal/model"
)

const size = model.DefaultImageSize

func constantImage(batch int, value float32) *tensors.Tensor {
	data := make([]float32, batch*size*size)
	for i := range data {
		data[i] = value
	}
	return tensors.FromFlatDataAndDimensions(data, batch, size, size, 1)
}

// newBackend skips the test when no gomlx backend can be created, e.g. when
// the XLA PJRT plugin is not installed.
func newBackend(t *testing.T) backends.Backend {
	t.Helper()
	backend, err := backends.New()
	if err != nil {
		t.Skipf("skipping, no gomlx backend available: %v", err)
	}
	t.Cleanup(backend.Finalize)
	return backend
}

func TestGraphShape(t *testing.T) {
	backend := newBackend(t)

	ctx := context.New()
	exec, err := context.NewExec(backend, ctx, func(ctx *context.Context, x *graph.Node) *graph.Node {
		return Graph(ctx, nil, []*graph.Node{x})[0]
	})
	if err != nil {
		t.Fatal(err)
	}

	logits, err := exec.Exec1(constantImage(3, 0.5))
	if err != nil {
		t.Fatal(err)
	}
	if got := logits.Shape().Dimensions; !slices.Equal(got, []int{3, emotion.Count}) {
		t.Errorf("logits dims = %v", got)
	}

	var weights int
	ctx.EnumerateVariables(func(v *context.Variable) {
		if v.Name() == "weights" {
			weights++
		}
	})
	if weights != 6 {
		t.Errorf("weight variables = %d, want 6 (4 conv + 2 dense)", weights)
	}
}

func TestClassifierFromCheckpoint(t *testing.T) {
	backend := newBackend(t)

	ctx := context.New()
	exec, err := context.NewExec(backend, ctx, Probabilities)
	if err != nil {
		t.Fatal(err)
	}
	input := constantImage(1, 0.25)
	want, err := exec.Exec1(input)
	if err != nil {
		t.Fatal(err)
	}
	wantProbs := tensors.MustCopyFlatData[float32](want)

	dir := t.TempDir()
	handler, err := checkpoints.Build(ctx).Dir(dir).Done()
	if err != nil {
		t.Fatal(err)
	}
	if err := handler.Save(); err != nil {
		t.Fatal(err)
	}

	classifier, err := NewClassifier(dir, model.NewMetadata(model.FormatGoMLX, size))
	if err != nil {
		t.Fatal(err)
	}
	defer classifier.Close()

	pred, err := classifier.Predict(tensors.MustCopyFlatData[float32](input))
	if err != nil {
		t.Fatal(err)
	}

	var sum float32
	for i, label := range emotion.Labels {
		got := pred.Predictions[label]
		if math.Abs(float64(got-wantProbs[i])) > 1e-5 {
			t.Errorf("%s = %f, want %f", label, got, wantProbs[i])
		}
		sum += got
	}
	if math.Abs(float64(sum-1)) > 1e-4 {
		t.Errorf("probabilities sum to %f", sum)
	}
	if pred.Label != pred.Emotion.String() {
		t.Errorf("label %q does not match emotion %d", pred.Label, pred.Emotion)
	}

	if _, err := classifier.Predict(make([]float32, 10)); err == nil {
		t.Error("expected error for short input")
	}
}
