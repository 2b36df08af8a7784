package model

import (
	"math/rand"
	"sync"
	"time"

	"github.com/Brownie44l1/moodlens/internal/emotion"
)

// Random answers a uniformly random emotion without looking at the input.
// It stands in for a trained model while the UI is being built.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom seeds from the clock when seed is 0.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Predict(_ []float32) (*Prediction, error) {
	r.mu.Lock()
	e := emotion.Random(r.rng)
	r.mu.Unlock()

	return &Prediction{
		Emotion:    e,
		Label:      e.String(),
		Confidence: 1.0 / emotion.Count,
	}, nil
}

func (r *Random) Close() {}
