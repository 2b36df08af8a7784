package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/Brownie44l1/moodlens/internal/capture"
	"github.com/Brownie44l1/moodlens/internal/config"
	"github.com/Brownie44l1/moodlens/internal/faces"
	"github.com/Brownie44l1/moodlens/internal/model"
)

const imageField = "image"

const (
	msgNoImage         = "No image provided"
	msgNoFileSelected  = "No image file selected"
	msgInvalidImage    = "Invalid image format"
	msgNoFace          = "No face detected"
	msgTooLarge        = "Image too large"
	msgPredictionError = "Prediction failed"
)

type Options struct {
	ImageSize      int
	MaxUploadBytes int64
	// Stub answers a random mood without running detection.
	Stub bool
	Keys capture.Keys
}

// NewOptions sizes the face crop from the loaded model rather than the
// network default, so a model trained at another resolution is fed correctly.
func NewOptions(cfg *config.Config, metadata model.Metadata) Options {
	return Options{
		ImageSize:      metadata.ImageSize,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
		Stub:           cfg.Model.Backend == config.BackendRandom,
		Keys:           capture.NewKeys(cfg.Capture),
	}
}

type Handler struct {
	classifier model.Classifier
	detector   faces.Detector
	store      capture.Store
	opts       Options
	logger     *logrus.Logger
}

// NewHandler wires the pipeline. detector may be nil in stub mode and store
// is nil when capture is disabled.
func NewHandler(classifier model.Classifier, detector faces.Detector, store capture.Store, opts Options, logger *logrus.Logger) *Handler {
	if opts.ImageSize == 0 {
		opts.ImageSize = model.DefaultImageSize
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		classifier: classifier,
		detector:   detector,
		store:      store,
		opts:       opts,
		logger:     logger,
	}
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("POST /predict", h.Predict)
	mux.HandleFunc("POST /predict_emotion", h.PredictEmotion)
	return mux
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Predict classifies an already preprocessed face sent as a flat float array.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)

	var req model.PredictionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if want := h.opts.ImageSize * h.opts.ImageSize; len(req.Image) != want {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Expected %d values, got %d", want, len(req.Image)))
		return
	}

	result, err := h.classifier.Predict(req.Image)
	if err != nil {
		log.WithError(err).Error("prediction failed")
		writeError(w, http.StatusInternalServerError, msgPredictionError)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// PredictEmotion runs the full pipeline on a multipart upload: decode,
// detect, crop the first face, classify.
func (h *Handler) PredictEmotion(w http.ResponseWriter, r *http.Request) {
	log := h.log(r)

	data, header, status, msg := h.readUpload(w, r)
	if status != 0 {
		writeError(w, status, msg)
		return
	}
	log = log.WithField("filename", header.Filename)

	h.capture(r, log, data, header)

	if h.opts.Stub {
		h.respond(w, log, nil)
		return
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		log.WithError(err).Warn("undecodable upload")
		writeError(w, http.StatusBadRequest, msgInvalidImage)
		return
	}
	log = log.WithField("format", format)

	gray := faces.Grayscale(img)
	rects, err := h.detector.Detect(gray)
	if err != nil {
		log.WithError(err).Error("face detection failed")
		writeError(w, http.StatusInternalServerError, msgPredictionError)
		return
	}
	log = log.WithField("faces", len(rects))

	face, err := faces.First(rects)
	if err != nil {
		writeError(w, http.StatusBadRequest, msgNoFace)
		return
	}

	input, err := model.Preprocess(gray, face, h.opts.ImageSize)
	if err != nil {
		log.WithError(err).Error("preprocessing failed")
		writeError(w, http.StatusInternalServerError, msgPredictionError)
		return
	}

	h.respond(w, log, input)
}

func (h *Handler) respond(w http.ResponseWriter, log *logrus.Entry, input []float32) {
	result, err := h.classifier.Predict(input)
	if err != nil {
		log.WithError(err).Error("prediction failed")
		writeError(w, http.StatusInternalServerError, msgPredictionError)
		return
	}

	log.WithFields(logrus.Fields{
		"mood":       result.Label,
		"confidence": result.Confidence,
	}).Info("emotion predicted")
	writeJSON(w, http.StatusOK, moodResponse{Mood: int(result.Emotion), MoodLabel: result.Label})
}

// readUpload returns the bytes of the image field, or a status and message
// describing why the request carries no usable file.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, *multipart.FileHeader, int, string) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, http.StatusRequestEntityTooLarge, msgTooLarge
		}
		return nil, nil, http.StatusBadRequest, msgNoImage
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		// A file input submitted with nothing selected arrives as a part
		// with an empty filename, which multipart keeps as a plain value.
		if _, ok := r.MultipartForm.Value[imageField]; ok {
			return nil, nil, http.StatusBadRequest, msgNoFileSelected
		}
		return nil, nil, http.StatusBadRequest, msgNoImage
	}
	defer file.Close()

	if header.Filename == "" {
		return nil, nil, http.StatusBadRequest, msgNoFileSelected
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, http.StatusBadRequest, msgNoImage
	}
	return data, header, 0, ""
}

func (h *Handler) capture(r *http.Request, log *logrus.Entry, data []byte, header *multipart.FileHeader) {
	if h.store == nil {
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	key := h.opts.Keys.Next()
	if err := h.store.Save(r.Context(), key, data, contentType); err != nil {
		log.WithError(err).WithField("key", key).Warn("capture failed")
		return
	}
	log.WithField("key", key).Debug("upload captured")
}
