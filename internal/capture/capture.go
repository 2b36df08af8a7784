// Package capture persists uploaded frames for debugging.
package capture

import (
	"context"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Brownie44l1/moodlens/internal/config"
)

var (
	ErrEmptyKey   = errors.New("capture key is empty")
	ErrInvalidKey = errors.New("capture key contains path traversal")
)

// Store saves a captured upload under key.
type Store interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
}

// New builds the store selected by cfg. It returns nil when capture is disabled.
func New(ctx context.Context, cfg config.CaptureConfig) (Store, error) {
	switch cfg.Backend {
	case config.CaptureNone:
		return nil, nil
	case config.CaptureDisk:
		return NewDisk(cfg.Dir), nil
	case config.CaptureS3:
		s3, err := NewS3(cfg)
		if err != nil {
			return nil, err
		}
		return s3, nil
	case config.CaptureAzure:
		az, err := NewAzure(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return az, nil
	default:
		return nil, errors.Errorf("unknown capture backend %q", cfg.Backend)
	}
}

// Keys names captures. With PerRequest unset every upload overwrites the
// same key, so only the latest frame is kept.
type Keys struct {
	Name       string
	Prefix     string
	PerRequest bool
}

func NewKeys(cfg config.CaptureConfig) Keys {
	return Keys{Name: cfg.Key, Prefix: cfg.Prefix, PerRequest: cfg.UniqueKeys()}
}

func (k Keys) Next() string {
	name := k.Name
	if k.PerRequest {
		name = uuid.NewString() + path.Ext(k.Name)
	}
	if k.Prefix == "" {
		return name
	}
	return path.Join(k.Prefix, name)
}

func validateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	if strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}
