// Package cascade detects faces with an OpenCV Haar cascade.
package cascade

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/Brownie44l1/moodlens/internal/config"
)

// Cascade wraps a gocv CascadeClassifier. The classifier is not safe for
// concurrent use, so detections are serialized.
type Cascade struct {
	mu           sync.Mutex
	classifier   gocv.CascadeClassifier
	scaleFactor  float64
	minNeighbors int
	minSize      image.Point
}

func New(cfg config.DetectorConfig) (*Cascade, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(cfg.CascadePath) {
		classifier.Close()
		return nil, errors.Errorf("failed to load face cascade classifier from %s", cfg.CascadePath)
	}

	return &Cascade{
		classifier:   classifier,
		scaleFactor:  cfg.ScaleFactor,
		minNeighbors: cfg.MinNeighbors,
		minSize:      image.Pt(cfg.MinSize, cfg.MinSize),
	}, nil
}

func (c *Cascade) Detect(gray *image.Gray) ([]image.Rectangle, error) {
	mat, err := gocv.ImageGrayToMatGray(gray)
	if err != nil {
		return nil, errors.Wrap(err, "convert frame")
	}
	defer mat.Close()

	c.mu.Lock()
	defer c.mu.Unlock()

	rects := c.classifier.DetectMultiScaleWithParams(mat, c.scaleFactor, c.minNeighbors, 0, c.minSize, image.Point{})
	return rects, nil
}

func (c *Cascade) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.classifier.Close()
}
