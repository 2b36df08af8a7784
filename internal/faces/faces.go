// Package faces locates face regions in decoded frames.
package faces

import (
	"image"
	"image/draw"

	"github.com/pkg/errors"
)

var ErrNoFace = errors.New("no face detected")

// Detector finds candidate face regions in a grayscale frame.
type Detector interface {
	Detect(gray *image.Gray) ([]image.Rectangle, error)
	Close() error
}

// Grayscale converts img using ITU-R 601 luma weights (the ones OpenCV uses
// for BGR2GRAY). The result always starts at the origin with a packed stride.
func Grayscale(img image.Image) *image.Gray {
	bounds := img.Bounds()
	if g, ok := img.(*image.Gray); ok && bounds.Min == (image.Point{}) && g.Stride == bounds.Dx() {
		return g
	}
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(gray, gray.Bounds(), img, bounds.Min, draw.Src)
	return gray
}

// First returns the region that gets classified: the first one the detector reported.
func First(rects []image.Rectangle) (image.Rectangle, error) {
	if len(rects) == 0 {
		return image.Rectangle{}, ErrNoFace
	}
	return rects[0], nil
}
