package model

import (
	"encoding/json"
	"os"
	"slices"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/moodlens/internal/emotion"
)

const (
	FormatONNX  = "onnx"
	FormatGoMLX = "gomlx"

	DefaultImageSize = 48
)

var (
	ErrLabelMismatch  = errors.New("model classes do not match the emotion label set")
	ErrFormatMismatch = errors.New("model format does not match the configured backend")
)

// Metadata is written next to the weights by the trainer. Weights and class
// order are only valid together.
type Metadata struct {
	InputShape   []int64  `json:"input_shape"`
	OutputShape  []int64  `json:"output_shape"`
	Classes      []string `json:"classes"`
	ImageSize    int      `json:"image_size"`
	Format       string   `json:"format,omitempty"`
	InputName    string   `json:"input_name,omitempty"`
	OutputName   string   `json:"output_name,omitempty"`
	OutputLogits bool     `json:"output_logits,omitempty"`
	Epochs       int      `json:"epochs,omitempty"`
	TrainedAt    string   `json:"trained_at,omitempty"`
}

// NewMetadata describes the fixed-topology network for a square input of the given size.
func NewMetadata(format string, size int) Metadata {
	return Metadata{
		InputShape:  []int64{1, int64(size), int64(size), 1},
		OutputShape: []int64{1, emotion.Count},
		Classes:     emotion.Names(),
		ImageSize:   size,
		Format:      format,
		InputName:   "input",
		OutputName:  "output",
	}
}

func LoadMetadata(path string) (Metadata, error) {
	var metadata Metadata

	data, err := os.ReadFile(path)
	if err != nil {
		return metadata, errors.Wrap(err, "failed to read metadata")
	}
	if err := json.Unmarshal(data, &metadata); err != nil {
		return metadata, errors.Wrap(err, "failed to parse metadata")
	}

	metadata.applyDefaults()
	if err := metadata.Validate(); err != nil {
		return metadata, err
	}
	return metadata, nil
}

func (m Metadata) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode metadata")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write metadata")
	}
	return nil
}

func (m Metadata) Validate() error {
	if !slices.Equal(m.Classes, emotion.Labels[:]) {
		return errors.Wrapf(ErrLabelMismatch, "got %v", m.Classes)
	}
	if m.ImageSize <= 0 {
		return errors.Errorf("invalid image size %d", m.ImageSize)
	}
	if want := m.ImageSize * m.ImageSize; m.InputSize() != want {
		return errors.Errorf("input shape %v does not hold a %dx%d grayscale image", m.InputShape, m.ImageSize, m.ImageSize)
	}
	if m.OutputSize() != emotion.Count {
		return errors.Errorf("output shape %v does not hold %d scores", m.OutputShape, emotion.Count)
	}
	return nil
}

// CheckFormat rejects weights exported for a different runtime. Metadata
// without a format is accepted for any backend.
func (m Metadata) CheckFormat(backend string) error {
	if m.Format != "" && m.Format != backend {
		return errors.Wrapf(ErrFormatMismatch, "metadata format %q, backend %q", m.Format, backend)
	}
	return nil
}

// InputSize is the number of float32 values one prediction consumes.
func (m Metadata) InputSize() int {
	return product(m.InputShape)
}

func (m Metadata) OutputSize() int {
	return product(m.OutputShape)
}

func (m *Metadata) applyDefaults() {
	if m.ImageSize == 0 {
		m.ImageSize = DefaultImageSize
	}
	if len(m.InputShape) == 0 {
		m.InputShape = []int64{1, int64(m.ImageSize), int64(m.ImageSize), 1}
	}
	if len(m.OutputShape) == 0 {
		m.OutputShape = []int64{1, emotion.Count}
	}
	if m.InputName == "" {
		m.InputName = "input"
	}
	if m.OutputName == "" {
		m.OutputName = "output"
	}
}

func product(shape []int64) int {
	if len(shape) == 0 {
		return 0
	}
	n := 1
	for _, dim := range shape {
		n *= int(dim)
	}
	return n
}
