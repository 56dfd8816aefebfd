package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pair-scheduler/pkg/clients/appsscript"
	"pair-scheduler/pkg/middleware"
	"pair-scheduler/pkg/services"
)

const (
	msgRosterFailed = "Failed to get data from Google Apps Script"
	msgSubmitFailed = "Failed to send data to Google Apps Script"

	// UpstreamTimeoutHeader marks a 500 caused by the upstream not answering in time
	UpstreamTimeoutHeader = "X-Upstream-Timeout"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	relayService services.RelayService
	logger       *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(relayService services.RelayService, logger *zap.Logger) *Handlers {
	return &Handlers{
		relayService: relayService,
		logger:       logger,
	}
}

// HealthCheck handler for monitoring
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// GetDevelopers returns the upstream roster body untouched
// GET /api/get-developers
func (h *Handlers) GetDevelopers(c *gin.Context) {
	resp, err := h.relayService.GetRoster(c.Request.Context())
	if err != nil {
		h.upstreamError(c, err, msgRosterFailed)
		return
	}

	passThrough(c, resp)
}

// SendData forwards the submitted JSON object to the upstream script
// POST /api/send-data
func (h *Handlers) SendData(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"})
			return
		}
		h.logger.Warn("error reading request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Error reading request"})
		return
	}

	payload := map[string]any{}
	if len(bytes.TrimSpace(body)) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := decodeObject(dec, &payload); err != nil {
			h.logger.Warn("error parsing JSON", zap.Error(err), zap.String("request_id", c.GetString(middleware.RequestIDKey)))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON format"})
			return
		}
	}

	resp, err := h.relayService.SubmitForm(c.Request.Context(), payload)
	if err != nil {
		h.upstreamError(c, err, msgSubmitFailed)
		return
	}

	passThrough(c, resp)
}

// decodeObject reads exactly one JSON object and nothing after it
func decodeObject(dec *json.Decoder, payload *map[string]any) error {
	if err := dec.Decode(payload); err != nil {
		return err
	}
	if *payload == nil {
		return errors.New("body is null, not an object")
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

func (h *Handlers) upstreamError(c *gin.Context, err error, message string) {
	_ = c.Error(err)
	if errors.Is(err, services.ErrUpstreamTimeout) {
		c.Header(UpstreamTimeoutHeader, "true")
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": message})
}

func passThrough(c *gin.Context, resp *appsscript.Response) {
	contentType := resp.ContentType
	if contentType == "" {
		contentType = "application/json"
	}
	c.Data(http.StatusOK, contentType, resp.Body)
}
