package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mossy-p/webrtc-recorder/internal/catalog"
	"github.com/mossy-p/webrtc-recorder/internal/middleware"
	"github.com/mossy-p/webrtc-recorder/internal/models"
	"github.com/mossy-p/webrtc-recorder/internal/recording"
	"github.com/mossy-p/webrtc-recorder/internal/signaling"
)

// RecordingCatalog is the read/delete side of the recording catalog.
type RecordingCatalog interface {
	ListCallRecordings(ctx context.Context, limit, offset int) ([]models.CallRecording, error)
	GetCallRecording(ctx context.Context, callID string) (*models.CallRecording, error)
	DeleteCallRecording(ctx context.Context, callID string) error
}

type listRecordingsQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// FinalizeResponse is returned when finalization is triggered manually
type FinalizeResponse struct {
	Recording  *models.CallRecording `json:"recording"`
	Discovered int                   `json:"discovered"`
	Registered int64                 `json:"registered"`
}

// RecordingsHandler serves the operator API over the recording catalog
type RecordingsHandler struct {
	catalog   RecordingCatalog
	finalizer signaling.CallFinalizer
	logger    *slog.Logger
}

func NewRecordingsHandler(cat RecordingCatalog, finalizer signaling.CallFinalizer, logger *slog.Logger) *RecordingsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordingsHandler{catalog: cat, finalizer: finalizer, logger: logger}
}

// ListRecordings returns recordings newest first
func (h *RecordingsHandler) ListRecordings(c *gin.Context) {
	var q listRecordingsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recs, err := h.catalog.ListCallRecordings(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.logger.Error("failed to list recordings", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list recordings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"recordings": recs})
}

// GetRecording returns one recording with its files
func (h *RecordingsHandler) GetRecording(c *gin.Context) {
	rec, err := h.catalog.GetCallRecording(c.Request.Context(), c.Param("callId"))
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to load recording", "call_id", c.Param("callId"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load recording"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// DeleteRecording removes a recording and its file entries from the catalog
func (h *RecordingsHandler) DeleteRecording(c *gin.Context) {
	callID := c.Param("callId")
	err := h.catalog.DeleteCallRecording(c.Request.Context(), callID)
	if errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recording not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed to delete recording", "call_id", callID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete recording"})
		return
	}

	h.logger.Info("recording deleted", "call_id", callID, "operator", c.GetString(middleware.ContextKeyOperator))
	c.JSON(http.StatusOK, gin.H{"message": "Recording deleted"})
}

// FinalizeRecording re-runs finalization for a call, registering any media
// files the catalog does not know about yet
func (h *RecordingsHandler) FinalizeRecording(c *gin.Context) {
	callID := c.Param("callId")
	if err := recording.ValidateCallID(callID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.finalizer.Finalize(c.Request.Context(), callID)
	if err != nil {
		h.logger.Error("manual finalize failed", "call_id", callID, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize recording"})
		return
	}

	c.JSON(http.StatusOK, FinalizeResponse{
		Recording:  res.Recording,
		Discovered: res.Discovered,
		Registered: res.Registered,
	})
}
