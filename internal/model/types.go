package model

import "github.com/Brownie44l1/moodlens/internal/emotion"

type PredictionRequest struct {
	Image []float32 `json:"image"`
}

type Prediction struct {
	Emotion     emotion.Emotion    `json:"mood"`
	Label       string             `json:"moodLabel"`
	Confidence  float32            `json:"confidence"`
	Predictions map[string]float32 `json:"predictions,omitempty"`
}

// Classifier runs a forward pass over one preprocessed face
// ([1, size, size, 1] grayscale scaled to [0,1], flattened row-major).
type Classifier interface {
	Predict(input []float32) (*Prediction, error)
	Close()
}
