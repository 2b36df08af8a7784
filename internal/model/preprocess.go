package model

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
)

var ErrEmptyRegion = errors.New("face region is empty")

// Preprocess crops the face out of a grayscale frame, resizes it to size x size
// and scales pixels to [0,1]. The result is laid out as [1, size, size, 1].
func Preprocess(gray *image.Gray, face image.Rectangle, size int) ([]float32, error) {
	region := face.Intersect(gray.Bounds())
	if region.Empty() {
		return nil, errors.Wrapf(ErrEmptyRegion, "%v within %v", face, gray.Bounds())
	}

	crop := gray.SubImage(region)
	resized := resize.Resize(uint(size), uint(size), crop, resize.Bilinear)

	bounds := resized.Bounds()
	input := make([]float32, size*size)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			px := color.GrayModel.Convert(resized.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			input[y*size+x] = float32(px.Y) / 255.0
		}
	}
	return input, nil
}
