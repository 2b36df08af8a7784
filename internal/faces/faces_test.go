package faces

import (
	"image"
	"image/color"
	"testing"

	"github.com/pkg/errors"
)

func TestGrayscaleLuma(t *testing.T) {
	img := image.NewRGBA(image.Rect(10, 10, 14, 12))
	img.Set(10, 10, color.RGBA{R: 255, A: 255})
	img.Set(11, 10, color.RGBA{G: 255, A: 255})
	img.Set(12, 10, color.RGBA{B: 255, A: 255})
	img.Set(13, 10, color.RGBA{R: 255, G: 255, B: 255, A: 255})

	gray := Grayscale(img)
	if gray.Bounds() != image.Rect(0, 0, 4, 2) {
		t.Fatalf("bounds = %v", gray.Bounds())
	}

	tests := []struct {
		x    int
		want uint8
	}{
		{0, 76},
		{1, 150},
		{2, 29},
		{3, 255},
	}
	for _, tt := range tests {
		got := gray.GrayAt(tt.x, 0).Y
		if diff := int(got) - int(tt.want); diff > 1 || diff < -1 {
			t.Errorf("pixel %d = %d, want ~%d", tt.x, got, tt.want)
		}
	}
}

func TestGrayscalePassThrough(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	if Grayscale(img) != img {
		t.Error("packed gray image should be returned as is")
	}

	sub := img.SubImage(image.Rect(2, 2, 6, 6)).(*image.Gray)
	out := Grayscale(sub)
	if out == sub || out.Bounds() != image.Rect(0, 0, 4, 4) {
		t.Errorf("sub image not repacked: %v", out.Bounds())
	}
}

func TestFirst(t *testing.T) {
	if _, err := First(nil); !errors.Is(err, ErrNoFace) {
		t.Fatalf("error = %v, want ErrNoFace", err)
	}

	rects := []image.Rectangle{image.Rect(1, 1, 5, 5), image.Rect(10, 10, 20, 20)}
	got, err := First(rects)
	if err != nil {
		t.Fatal(err)
	}
	if got != rects[0] {
		t.Errorf("First = %v", got)
	}
}
