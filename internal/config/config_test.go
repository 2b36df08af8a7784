package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Addr() != "0.0.0.0:5000" {
		t.Errorf("addr = %s", cfg.Server.Addr())
	}
	if cfg.Server.ShutdownTimeoutDuration() != 10*time.Second {
		t.Errorf("shutdown timeout = %v", cfg.Server.ShutdownTimeoutDuration())
	}
	if cfg.Server.MaxUploadBytes() != 10<<20 {
		t.Errorf("max upload = %d", cfg.Server.MaxUploadBytes())
	}
	if cfg.Model.Backend != BackendGoMLX || cfg.Model.Path != "models/checkpoint" {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Detector.ScaleFactor != 1.3 || cfg.Detector.MinNeighbors != 3 {
		t.Errorf("detector = %+v", cfg.Detector)
	}
	if cfg.Capture.Enabled() {
		t.Error("capture enabled by default")
	}
	if cfg.Train.Epochs != 30 || cfg.Train.BatchSize != 32 || cfg.Train.ImageSize != 48 {
		t.Errorf("train = %+v", cfg.Train)
	}
	if !cfg.Train.Flip() {
		t.Error("horizontal flip disabled by default")
	}
	if len(cfg.CORS.Origins) != 1 || cfg.CORS.Origins[0] != "*" {
		t.Errorf("cors origins = %v", cfg.CORS.Origins)
	}
}

func TestLoadFileAndOverlay(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "config.toml", `
[server]
port = 9000

[model]
backend = "onnx"

[train]
epochs = 5
horizontal_flip = false
`)
	writeFile(t, dir, "config.test.toml", `
[server]
port = 9100

[capture]
backend = "disk"
dir = "/tmp/captures"
`)
	t.Setenv(EnvMoodlensEnv, "test")

	cfg, err := Load(base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want overlay 9100", cfg.Server.Port)
	}
	if cfg.Model.Backend != BackendONNX || cfg.Model.Path != "models/model_embedded.onnx" {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Train.Epochs != 5 {
		t.Errorf("epochs = %d", cfg.Train.Epochs)
	}
	if cfg.Train.Flip() {
		t.Error("horizontal flip should be disabled")
	}
	if cfg.Capture.Backend != CaptureDisk || cfg.Capture.Dir != "/tmp/captures" {
		t.Errorf("capture = %+v", cfg.Capture)
	}
	if cfg.Env() != "test" {
		t.Errorf("env = %s", cfg.Env())
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvServerPort, "7000")
	t.Setenv(EnvModelBackend, BackendRandom)
	t.Setenv(EnvDetectorScaleFactor, "1.1")
	t.Setenv(EnvCORSOrigins, "http://a.test, http://b.test")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvTrainSeed, "7")

	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 7000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Model.Backend != BackendRandom || cfg.Model.Path != "" || cfg.Model.MetadataPath != "" {
		t.Errorf("model = %+v", cfg.Model)
	}
	if cfg.Detector.ScaleFactor != 1.1 {
		t.Errorf("scale factor = %g", cfg.Detector.ScaleFactor)
	}
	if len(cfg.CORS.Origins) != 2 || cfg.CORS.Origins[1] != "http://b.test" {
		t.Errorf("origins = %v", cfg.CORS.Origins)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %s", cfg.Log.Level)
	}
	if cfg.Train.Seed != 7 {
		t.Errorf("seed = %d", cfg.Train.Seed)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad port", map[string]string{EnvServerPort: "70000"}},
		{"bad timeout", map[string]string{EnvServerReadTimeout: "soon"}},
		{"bad backend", map[string]string{EnvModelBackend: "tflite"}},
		{"bad scale", map[string]string{EnvDetectorScaleFactor: "0.9"}},
		{"s3 without bucket", map[string]string{EnvCaptureBackend: CaptureS3}},
		{"azure without connection", map[string]string{EnvCaptureBackend: CaptureAzure}},
		{"bad log level", map[string]string{EnvLogLevel: "loud"}},
		{"bad log format", map[string]string{EnvLogFormat: "xml"}},
		{"bad epochs", map[string]string{EnvTrainEpochs: "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.toml", "[server\nport = ")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestTrainOverride(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := cfg.Train.Override(&TrainConfig{Epochs: 2, TrainDir: "faces/train"}); err != nil {
		t.Fatal(err)
	}
	if cfg.Train.Epochs != 2 || cfg.Train.TrainDir != "faces/train" || cfg.Train.BatchSize != 32 {
		t.Errorf("train = %+v", cfg.Train)
	}

	if err := cfg.Train.Override(&TrainConfig{ZoomRange: 1.5}); err == nil {
		t.Error("expected validation error")
	}
}

func TestOverlayTurnsOffBooleans(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "config.toml", `
[capture]
backend = "disk"
dir = "/tmp/captures"
per_request = true

[cors]
disabled = true
`)
	writeFile(t, dir, "config.test.toml", `
[capture]
per_request = false

[cors]
disabled = false
`)
	t.Setenv(EnvMoodlensEnv, "test")

	cfg, err := Load(base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capture.UniqueKeys() {
		t.Error("overlay per_request = false was ignored")
	}
	if !cfg.CORS.Enabled() {
		t.Error("overlay disabled = false was ignored")
	}
}

func TestTrainImageSizeMinimum(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := cfg.Train.Override(&TrainConfig{ImageSize: MinImageSize - 1}); err == nil {
		t.Errorf("image_size %d accepted", MinImageSize-1)
	}
	if err := cfg.Train.Override(&TrainConfig{ImageSize: MinImageSize}); err != nil {
		t.Errorf("image_size %d: %v", MinImageSize, err)
	}
}

func TestLogSetLevel(t *testing.T) {
	var cfg LogConfig
	if err := cfg.SetLevel("warn"); err != nil {
		t.Fatal(err)
	}
	if cfg.Level != "warn" {
		t.Errorf("level = %s", cfg.Level)
	}
	if err := cfg.SetLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
	if cfg.Level != "warn" {
		t.Errorf("level changed to %s after failed SetLevel", cfg.Level)
	}
}
