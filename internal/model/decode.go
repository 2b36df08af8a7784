package model

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/Brownie44l1/moodlens/internal/emotion"
)

// Decode picks the highest-scoring class. When logits is set the scores are
// passed through a softmax first so Confidence is a probability.
func Decode(scores []float32, classes []string, logits bool) (*Prediction, error) {
	if len(scores) < len(classes) || len(classes) == 0 {
		return nil, errors.Errorf("got %d scores for %d classes", len(scores), len(classes))
	}

	values := make([]float64, len(classes))
	for i := range values {
		values[i] = float64(scores[i])
	}
	if logits {
		softmax(values)
	}

	idx := floats.MaxIdx(values)
	e := emotion.Emotion(idx)
	if !e.Valid() {
		return nil, errors.Wrapf(emotion.ErrUnknown, "index %d", idx)
	}

	predictions := make(map[string]float32, len(classes))
	for i, class := range classes {
		predictions[class] = float32(values[i])
	}

	return &Prediction{
		Emotion:     e,
		Label:       classes[idx],
		Confidence:  float32(values[idx]),
		Predictions: predictions,
	}, nil
}

func softmax(values []float64) {
	shift := floats.Max(values)
	for i, v := range values {
		values[i] = math.Exp(v - shift)
	}
	floats.Scale(1/floats.Sum(values), values)
}
