// Package emotion defines the fixed seven-category label set shared by
// training and inference.
package emotion

import (
	"math/rand"
	"strings"

	"github.com/pkg/errors"
)

type Emotion int

const (
	Angry Emotion = iota
	Disgust
	Fear
	Happy
	Neutral
	Sad
	Surprise
)

// Count is the number of classes the network predicts.
const Count = 7

// Labels is ordered by class index. Training class directories are matched
// against these names, so the order must stay alphabetical.
var Labels = [Count]string{"Angry", "Disgust", "Fear", "Happy", "Neutral", "Sad", "Surprise"}

var ErrUnknown = errors.New("unknown emotion")

func (e Emotion) Valid() bool {
	return e >= 0 && int(e) < Count
}

func (e Emotion) String() string {
	if !e.Valid() {
		return "Unknown"
	}
	return Labels[e]
}

// Label maps a class index to its label.
func Label(index int) (string, error) {
	if !Emotion(index).Valid() {
		return "", errors.Wrapf(ErrUnknown, "index %d", index)
	}
	return Labels[index], nil
}

// Parse maps a label back to its class index, ignoring case.
func Parse(name string) (Emotion, error) {
	for i, label := range Labels {
		if strings.EqualFold(label, strings.TrimSpace(name)) {
			return Emotion(i), nil
		}
	}
	return -1, errors.Wrapf(ErrUnknown, "label %q", name)
}

// Names returns the labels as a slice, in class order.
func Names() []string {
	return append([]string(nil), Labels[:]...)
}

func Random(r *rand.Rand) Emotion {
	return Emotion(r.Intn(Count))
}
