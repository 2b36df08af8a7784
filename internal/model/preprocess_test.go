package model

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
)

func filledGray(w, h int, value uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = value
	}
	return img
}

func TestPreprocessShapeAndRange(t *testing.T) {
	img := filledGray(200, 150, 0)
	face := image.Rect(50, 40, 130, 120)
	for y := face.Min.Y; y < face.Max.Y; y++ {
		for x := face.Min.X; x < face.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 255})
		}
	}

	input, err := Preprocess(img, face, 48)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(input) != 48*48 {
		t.Fatalf("len = %d", len(input))
	}
	for i, v := range input {
		if v < 0.99 || v > 1 {
			t.Fatalf("input[%d] = %v, want ~1 for a white face region", i, v)
		}
	}
}

func TestPreprocessClipsToFrame(t *testing.T) {
	img := filledGray(60, 60, 51)

	input, err := Preprocess(img, image.Rect(30, 30, 90, 90), 48)
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	want := float32(51) / 255
	for i, v := range input {
		if diff := v - want; diff > 2.0/255 || diff < -2.0/255 {
			t.Fatalf("input[%d] = %v, want %v", i, v, want)
		}
	}
}

func TestPreprocessEmptyRegion(t *testing.T) {
	img := filledGray(20, 20, 0)

	_, err := Preprocess(img, image.Rect(30, 30, 40, 40), 48)
	if !errors.Is(err, ErrEmptyRegion) {
		t.Fatalf("error = %v, want ErrEmptyRegion", err)
	}
}
