package model

import (
	"math"
	"testing"

	"github.com/Brownie44l1/moodlens/internal/emotion"
)

func TestDecodeProbabilities(t *testing.T) {
	scores := []float32{0.05, 0.05, 0.1, 0.6, 0.1, 0.05, 0.05}

	got, err := Decode(scores, emotion.Names(), false)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Emotion != emotion.Happy || got.Label != "Happy" {
		t.Errorf("got %d/%s, want Happy", got.Emotion, got.Label)
	}
	if math.Abs(float64(got.Confidence)-0.6) > 1e-6 {
		t.Errorf("confidence = %v", got.Confidence)
	}
	if len(got.Predictions) != emotion.Count {
		t.Errorf("predictions = %v", got.Predictions)
	}
}

func TestDecodeLogits(t *testing.T) {
	scores := []float32{1, 2, 3, 4, 5, 6, 12}

	got, err := Decode(scores, emotion.Names(), true)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Emotion != emotion.Surprise {
		t.Errorf("emotion = %v", got.Emotion)
	}

	var sum float64
	for _, p := range got.Predictions {
		sum += float64(p)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("softmax sums to %v", sum)
	}
	if got.Confidence < 0.99 {
		t.Errorf("confidence = %v", got.Confidence)
	}
}

func TestDecodeEveryIndex(t *testing.T) {
	for i := 0; i < emotion.Count; i++ {
		scores := make([]float32, emotion.Count)
		scores[i] = 1

		got, err := Decode(scores, emotion.Names(), false)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if int(got.Emotion) != i || got.Label != emotion.Labels[i] {
			t.Errorf("index %d decoded as %d/%s", i, got.Emotion, got.Label)
		}
	}
}

func TestDecodeShortScores(t *testing.T) {
	if _, err := Decode([]float32{1, 2}, emotion.Names(), false); err == nil {
		t.Fatal("expected error")
	}
}
