package training

import (
	"image"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"golang.org/x/image/math/f64"

	"github.com/Brownie44l1/moodlens/internal/config"
	"github.com/Brownie44l1/moodlens/internal/faces"
)

// Augmenter applies a random affine transform and horizontal flip to each
// training image. Rotation and shear are in degrees; zoom factors are drawn
// per axis from [1-Zoom, 1+Zoom]. Pixels that map outside the source take
// the nearest edge value.
type Augmenter struct {
	Rotation float64
	Shear    float64
	Zoom     float64
	Flip     bool
}

func NewAugmenter(cfg config.TrainConfig) *Augmenter {
	return &Augmenter{
		Rotation: max(cfg.RotationRange, 0),
		Shear:    max(cfg.ShearRange, 0),
		Zoom:     max(cfg.ZoomRange, 0),
		Flip:     cfg.Flip(),
	}
}

func (a *Augmenter) Apply(src *image.Gray, rng *rand.Rand) *image.Gray {
	m := a.transform(rng)
	out := warp(src, m)
	if a.Flip && rng.Float64() < 0.5 {
		out = faces.Grayscale(imaging.FlipH(out))
	}
	return out
}

// transform draws one output-to-input matrix over (row, col) coordinates
// centred on the image.
func (a *Augmenter) transform(rng *rand.Rand) f64.Aff3 {
	m := identity()
	if a.Rotation > 0 {
		theta := radians(uniform(rng, -a.Rotation, a.Rotation))
		sin, cos := math.Sincos(theta)
		m = mul(m, f64.Aff3{cos, -sin, 0, sin, cos, 0})
	}
	if a.Shear > 0 {
		shear := radians(uniform(rng, -a.Shear, a.Shear))
		m = mul(m, f64.Aff3{1, -math.Sin(shear), 0, 0, math.Cos(shear), 0})
	}
	if a.Zoom > 0 {
		zx := uniform(rng, 1-a.Zoom, 1+a.Zoom)
		zy := uniform(rng, 1-a.Zoom, 1+a.Zoom)
		m = mul(m, f64.Aff3{zx, 0, 0, 0, zy, 0})
	}
	return m
}

// warp resamples src through m bilinearly, clamping at the edges.
func warp(src *image.Gray, m f64.Aff3) *image.Gray {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	cr, cc := float64(h)/2-0.5, float64(w)/2-0.5

	at := func(r, c int) float64 {
		r = min(max(r, 0), h-1)
		c = min(max(c, 0), w-1)
		return float64(src.Pix[src.PixOffset(b.Min.X+c, b.Min.Y+r)])
	}

	for r := 0; r < h; r++ {
		for c := 0; c < w; c++ {
			y, x := float64(r)-cr, float64(c)-cc
			sr := m[0]*y + m[1]*x + m[2] + cr
			sc := m[3]*y + m[4]*x + m[5] + cc

			sr = min(max(sr, 0), float64(h-1))
			sc = min(max(sc, 0), float64(w-1))
			r0, c0 := int(math.Floor(sr)), int(math.Floor(sc))
			fr, fc := sr-float64(r0), sc-float64(c0)

			top := at(r0, c0)*(1-fc) + at(r0, c0+1)*fc
			bottom := at(r0+1, c0)*(1-fc) + at(r0+1, c0+1)*fc
			v := top*(1-fr) + bottom*fr
			out.Pix[r*out.Stride+c] = uint8(math.Round(min(max(v, 0), 255)))
		}
	}
	return out
}

func identity() f64.Aff3 {
	return f64.Aff3{1, 0, 0, 0, 1, 0}
}

func mul(a, b f64.Aff3) f64.Aff3 {
	return f64.Aff3{
		a[0]*b[0] + a[1]*b[3], a[0]*b[1] + a[1]*b[4], a[0]*b[2] + a[1]*b[5] + a[2],
		a[3]*b[0] + a[4]*b[3], a[3]*b[1] + a[4]*b[4], a[3]*b[2] + a[4]*b[5] + a[5],
	}
}

func uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + rng.Float64()*(hi-lo)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
