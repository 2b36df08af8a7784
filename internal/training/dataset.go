// Package training fits the emotion network on a directory-per-class image
// dataset and writes a checkpoint plus metadata for serving.
package training

import (
	"image"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cheggaaa/pb/v3"
	"github.com/disintegration/imaging"
	"github.com/gomlx/gomlx/pkg/core/tensors"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/Brownie44l1/moodlens/internal/emotion"
	"github.com/Brownie44l1/moodlens/internal/faces"
)

var ErrClassMismatch = errors.New("class directories do not match the emotion labels")

var imageExts = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".tif", ".tiff"}

type Sample struct {
	Image *image.Gray
	Label emotion.Emotion
}

// Loader reads a dataset laid out as <dir>/<Label>/<image>.
type Loader struct {
	Size     int
	Workers  int
	Progress bool
}

func (l *Loader) Load(dir string) ([]Sample, error) {
	files, labels, err := l.scan(dir)
	if err != nil {
		return nil, err
	}

	var bar *pb.ProgressBar
	if l.Progress {
		bar = pb.StartNew(len(files))
		defer bar.Finish()
	}

	samples := make([]Sample, len(files))
	var g errgroup.Group
	g.SetLimit(l.Workers)
	for i, path := range files {
		g.Go(func() error {
			img, err := l.read(path)
			if err != nil {
				return err
			}
			samples[i] = Sample{Image: img, Label: labels[i]}
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return samples, nil
}

// scan lists image files in label order, then by file name.
func (l *Loader) scan(dir string) ([]string, []emotion.Emotion, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "read dataset %s", dir)
	}

	var classes []string
	for _, e := range entries {
		if e.IsDir() {
			classes = append(classes, e.Name())
		}
	}
	if !slices.Equal(classes, emotion.Names()) {
		return nil, nil, errors.Wrapf(ErrClassMismatch, "%s has %v", dir, classes)
	}

	var files []string
	var labels []emotion.Emotion
	for i, class := range classes {
		entries, err := os.ReadDir(filepath.Join(dir, class))
		if err != nil {
			return nil, nil, errors.Wrapf(err, "read class %s", class)
		}
		for _, e := range entries {
			if e.IsDir() || !slices.Contains(imageExts, strings.ToLower(filepath.Ext(e.Name()))) {
				continue
			}
			files = append(files, filepath.Join(dir, class, e.Name()))
			labels = append(labels, emotion.Emotion(i))
		}
	}
	return files, labels, nil
}

func (l *Loader) read(path string) (*image.Gray, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if b := img.Bounds(); b.Dx() != l.Size || b.Dy() != l.Size {
		img = imaging.Resize(img, l.Size, l.Size, imaging.NearestNeighbor)
	}
	return faces.Grayscale(img), nil
}

// Batches yields fixed-size batches of [B, size, size, 1] float32 images
// scaled to [0,1] and [B, 1] int32 labels. The trailing partial batch is
// dropped. With an Augmenter set, every yield draws fresh transforms.
type Batches struct {
	name      string
	samples   []Sample
	batchSize int
	size      int
	augmenter *Augmenter
	shuffle   bool
	rng       *rand.Rand
	order     []int
	pos       int
}

func NewBatches(name string, samples []Sample, batchSize, size int, augmenter *Augmenter, shuffle bool, seed int64) *Batches {
	b := &Batches{
		name:      name,
		samples:   samples,
		batchSize: batchSize,
		size:      size,
		augmenter: augmenter,
		shuffle:   shuffle,
		rng:       rand.New(rand.NewSource(seed)),
		order:     make([]int, len(samples)),
	}
	for i := range b.order {
		b.order[i] = i
	}
	b.Reset()
	return b
}

func (b *Batches) Name() string {
	return b.name
}

// Steps is the number of batches in one pass.
func (b *Batches) Steps() int {
	return len(b.samples) / b.batchSize
}

func (b *Batches) Reset() {
	b.pos = 0
	if b.shuffle {
		b.rng.Shuffle(len(b.order), func(i, j int) {
			b.order[i], b.order[j] = b.order[j], b.order[i]
		})
	}
}

func (b *Batches) Yield() (spec any, inputs, labels []*tensors.Tensor, err error) {
	if b.pos+b.batchSize > len(b.order) {
		return nil, nil, nil, io.EOF
	}

	pixels := b.size * b.size
	images := make([]float32, b.batchSize*pixels)
	classes := make([]int32, b.batchSize)
	for i := 0; i < b.batchSize; i++ {
		s := b.samples[b.order[b.pos+i]]
		img := s.Image
		if b.augmenter != nil {
			img = b.augmenter.Apply(img, b.rng)
		}
		scale(images[i*pixels:(i+1)*pixels], img)
		classes[i] = int32(s.Label)
	}
	b.pos += b.batchSize

	inputs = []*tensors.Tensor{tensors.FromFlatDataAndDimensions(images, b.batchSize, b.size, b.size, 1)}
	labels = []*tensors.Tensor{tensors.FromFlatDataAndDimensions(classes, b.batchSize, 1)}
	return nil, inputs, labels, nil
}

func scale(dst []float32, img *image.Gray) {
	bounds := img.Bounds()
	w := bounds.Dx()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			dst[(y-bounds.Min.Y)*w+(x-bounds.Min.X)] = float32(img.GrayAt(x, y).Y) / 255
		}
	}
}
