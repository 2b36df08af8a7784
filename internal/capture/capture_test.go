package capture

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/moodlens/internal/config"
)

func TestDiskSave(t *testing.T) {
	dir := t.TempDir()
	store := NewDisk(dir)

	data := []byte("frame")
	if err := store.Save(context.Background(), "latest_capture.jpg", data, "image/jpeg"); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(dir, "latest_capture.jpg"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("file content = %q", got)
	}

	if err := store.Save(context.Background(), "latest_capture.jpg", []byte("next"), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	got, err = store.Read("latest_capture.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "next" {
		t.Errorf("overwrite content = %q", got)
	}
}

func TestDiskSavePrefixed(t *testing.T) {
	dir := t.TempDir()
	store := NewDisk(dir)

	if err := store.Save(context.Background(), "debug/a.jpg", []byte("x"), "image/jpeg"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "debug_a.jpg")); err != nil {
		t.Errorf("prefixed key not flattened: %v", err)
	}
}

func TestSaveRejectsBadKeys(t *testing.T) {
	store := NewDisk(t.TempDir())

	tests := []struct {
		key  string
		want error
	}{
		{"", ErrEmptyKey},
		{"../escape.jpg", ErrInvalidKey},
	}
	for _, tt := range tests {
		err := store.Save(context.Background(), tt.key, []byte("x"), "image/jpeg")
		if !errors.Is(err, tt.want) {
			t.Errorf("Save(%q) error = %v, want %v", tt.key, err, tt.want)
		}
	}
}

func TestKeys(t *testing.T) {
	fixed := Keys{Name: "latest_capture.jpg"}
	if got := fixed.Next(); got != "latest_capture.jpg" {
		t.Errorf("fixed key = %q", got)
	}

	prefixed := Keys{Name: "latest_capture.jpg", Prefix: "debug"}
	if got := prefixed.Next(); got != "debug/latest_capture.jpg" {
		t.Errorf("prefixed key = %q", got)
	}

	unique := Keys{Name: "latest_capture.jpg", PerRequest: true}
	a, b := unique.Next(), unique.Next()
	if a == b {
		t.Errorf("per request keys should differ: %q", a)
	}
	if !strings.HasSuffix(a, ".jpg") {
		t.Errorf("per request key lost extension: %q", a)
	}
}

func TestNew(t *testing.T) {
	store, err := New(context.Background(), config.CaptureConfig{Backend: config.CaptureNone})
	if err != nil || store != nil {
		t.Errorf("none backend = %v, %v", store, err)
	}

	store, err = New(context.Background(), config.CaptureConfig{Backend: config.CaptureDisk, Dir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := store.(*Disk); !ok {
		t.Errorf("disk backend = %T", store)
	}

	if _, err := New(context.Background(), config.CaptureConfig{Backend: "ftp"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}
