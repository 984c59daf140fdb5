package handlers

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mathsym/mathsym/internal/classifier"
	"github.com/mathsym/mathsym/internal/history"
	"github.com/mathsym/mathsym/internal/symbols"
)

// Recognizer is the part of the classifier the API needs.
type Recognizer interface {
	Recognize(img image.Image) classifier.Result
	RecognizeTensor(t classifier.Tensor) classifier.Result
	Info() classifier.Info
}

// HistoryStore persists recognized symbols.
type HistoryStore interface {
	Insert(ctx context.Context, rec history.Record) (history.Record, error)
	List(ctx context.Context, limit int) ([]history.Record, error)
}

type Options struct {
	ModelName        string
	Dataset          string
	MaxUploadBytes   int64
	MaxImagePixels   int
	RecordRecognized bool
}

// Handler handles HTTP requests
type Handler struct {
	recognizer Recognizer
	history    HistoryStore
	opts       Options
	logger     *zap.Logger
}

// NewHandler creates a new API handler. store may be nil when history is disabled.
func NewHandler(recognizer Recognizer, store HistoryStore, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 << 20
	}
	if opts.MaxImagePixels <= 0 {
		opts.MaxImagePixels = classifier.DefaultMaxPixels
	}
	if opts.ModelName == "" {
		opts.ModelName = "Handwritten Math Symbol Recognition"
	}
	return &Handler{
		recognizer: recognizer,
		history:    store,
		opts:       opts,
		logger:     logger,
	}
}

// PredictionResponse is the JSON body of every prediction endpoint.
type PredictionResponse struct {
	Success           bool    `json:"success"`
	Status            string  `json:"status"`
	Symbol            string  `json:"symbol,omitempty"`
	Unicode           string  `json:"unicode,omitempty"`
	LaTeX             string  `json:"latex,omitempty"`
	Confidence        float32 `json:"confidence"`
	ConfidencePercent float32 `json:"confidence_percent"`
	ClassIndex        int     `json:"class_index"`
	LabelID           int     `json:"label_id"`
	Width             int     `json:"width,omitempty"`
	Height            int     `json:"height,omitempty"`
	Reason            string  `json:"reason,omitempty"`
	Message           string  `json:"message,omitempty"`
	Error             string  `json:"error,omitempty"`
}

type tensorRequest struct {
	Image []float32 `json:"image" binding:"required"`
}

type renderRequest struct {
	Text string `json:"text"`
}

type historyRequest struct {
	Text       string  `json:"text"`
	LaTeX      string  `json:"latex"`
	Confidence float64 `json:"confidence"`
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")
	{
		api.GET("/info", h.Info)

		api.POST("/predict", h.Predict)
		api.POST("/predict/image", h.PredictFromImage)

		api.POST("/render", h.Render)

		api.GET("/history", h.ListHistory)
		api.POST("/history", h.AddHistory)
	}

	r.GET("/health", h.Health)
	r.POST("/predict", h.PredictFromImage)
}

// Health reports whether the model and labels are loaded.
func (h *Handler) Health(c *gin.Context) {
	info := h.recognizer.Info()
	body := gin.H{
		"status":        "healthy",
		"model_loaded":  info.Initialized,
		"labels_loaded": info.Labels > 0,
		"num_classes":   info.Classes,
	}
	if info.Error != "" {
		body["status"] = "degraded"
		body["error"] = info.Error
	}
	c.JSON(http.StatusOK, body)
}

// Info describes the loaded model.
func (h *Handler) Info(c *gin.Context) {
	info := h.recognizer.Info()
	if !info.Initialized {
		msg := "model not loaded"
		if info.Error != "" {
			msg = info.Error
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"model_name":           h.opts.ModelName,
		"num_classes":          info.Classes,
		"num_labels":           info.Labels,
		"input_shape":          info.InputShape,
		"image_size":           info.ImageSize,
		"confidence_threshold": info.Threshold,
		"framework":            "ONNX Runtime",
		"dataset":              h.opts.Dataset,
	})
}

// PredictFromImage recognizes the symbol in the uploaded "image" file.
func (h *Handler) PredictFromImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	file, _, err := c.Request.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("image exceeds %d bytes", h.opts.MaxUploadBytes))
			return
		}
		h.fail(c, http.StatusBadRequest, "No image provided in the request.")
		return
	}
	defer file.Close()

	img, format, err := classifier.DecodeImage(file, h.opts.MaxImagePixels)
	if err != nil {
		h.fail(c, statusFor(err), fmt.Sprintf("Failed to decode image: %v", err))
		return
	}
	h.logger.Debug("Image decoded",
		zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()),
		zap.Int("height", img.Bounds().Dy()))

	h.respond(c, h.recognizer.Recognize(img))
}

// Predict recognizes a preprocessed tensor, sent either as JSON {"image": [...]}
// or as raw little-endian float32 with Content-Type application/octet-stream.
func (h *Handler) Predict(c *gin.Context) {
	info := h.recognizer.Info()
	if !info.Initialized {
		h.fail(c, http.StatusServiceUnavailable, classifier.ErrNotInitialized.Error())
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	var tensor classifier.Tensor
	if strings.HasPrefix(c.ContentType(), "application/octet-stream") {
		raw, err := io.ReadAll(c.Request.Body)
		if err != nil {
			h.fail(c, http.StatusBadRequest, "Failed to read request body")
			return
		}
		tensor, err = classifier.DecodeTensor(raw, info.InputShape)
		if err != nil {
			h.fail(c, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req tensorRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			h.fail(c, http.StatusBadRequest, "Invalid JSON")
			return
		}
		expected := 1
		for _, dim := range info.InputShape {
			expected *= int(dim)
		}
		if len(req.Image) != expected {
			h.fail(c, http.StatusBadRequest,
				fmt.Sprintf("Expected %d values, got %d", expected, len(req.Image)))
			return
		}
		tensor = classifier.Tensor{
			Shape: append([]int64(nil), info.InputShape...),
			Data:  req.Image,
		}
	}

	h.respond(c, h.recognizer.RecognizeTensor(tensor))
}

// Render replaces LaTeX commands in free text with their Unicode glyphs.
func (h *Handler) Render(c *gin.Context) {
	var req renderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"text":     req.Text,
		"rendered": symbols.Replace(req.Text),
	})
}

// ListHistory returns saved records, newest first.
func (h *Handler) ListHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = n
	}

	records, err := h.history.List(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   len(records),
	})
}

// AddHistory saves a record sent by the client.
func (h *Handler) AddHistory(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "history is disabled"})
		return
	}

	var req historyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "text is required"})
		return
	}

	rec, err := h.history.Insert(c.Request.Context(), history.Record{
		Text:       req.Text,
		LaTeX:      req.LaTeX,
		Confidence: req.Confidence,
	})
	if err != nil {
		h.logger.Error("Failed to save history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save history"})
		return
	}

	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) respond(c *gin.Context, res classifier.Result) {
	resp := PredictionResponse{
		Status:            string(res.Status),
		Confidence:        res.Confidence,
		ConfidencePercent: res.Confidence * 100,
		ClassIndex:        res.ClassIndex,
		LabelID:           res.LabelID,
		Width:             res.Width,
		Height:            res.Height,
		Reason:            res.Reason,
	}

	switch {
	case res.Recognized():
		resp.Success = true
		resp.Symbol = res.Symbol
		resp.Unicode = res.Symbol
		resp.LaTeX = res.LaTeX
		h.record(c.Request.Context(), res)
		c.JSON(http.StatusOK, resp)
	case res.Rejected():
		resp.Success = true
		resp.Message = res.Message
		c.JSON(http.StatusOK, resp)
	default:
		status := statusFor(res.Err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Prediction failed", zap.Error(res.Err))
		}
		resp.Error = res.Message
		c.JSON(status, resp)
	}
}

func (h *Handler) record(ctx context.Context, res classifier.Result) {
	if h.history == nil || !h.opts.RecordRecognized {
		return
	}
	if _, err := h.history.Insert(ctx, history.Record{
		Text:       res.Symbol,
		LaTeX:      res.LaTeX,
		Confidence: float64(res.Confidence),
	}); err != nil {
		h.logger.Warn("Failed to record recognition", zap.Error(err))
	}
}

func (h *Handler) fail(c *gin.Context, status int, msg string) {
	c.JSON(status, PredictionResponse{
		Status:     string(classifier.StatusFailed),
		ClassIndex: -1,
		LabelID:    -1,
		Error:      msg,
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, classifier.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, classifier.ErrNotInitialized):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
