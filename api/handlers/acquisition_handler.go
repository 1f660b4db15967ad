package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/lecture-fetch/internal/app"
	"github.com/yourusername/lecture-fetch/internal/domain"
)

// AcquisitionService is the part of app.AcquisitionService the API uses
type AcquisitionService interface {
	Acquire(ctx context.Context, req domain.AcquisitionRequest, opts app.AcquireOptions) (*app.Result, error)
	Plan(raw string) (domain.SourceClassification, []domain.ProviderID)
	DefaultDir() string
	Get(id string) (*domain.Acquisition, error)
	List(filter domain.AcquisitionFilter) ([]*domain.Acquisition, error)
	Stats() (*domain.AcquisitionStats, error)
	Delete(id string) error
}

// AcquisitionHandler handles acquisition-related HTTP requests
type AcquisitionHandler struct {
	service AcquisitionService
	logger  *zap.Logger
}

// NewAcquisitionHandler creates a new acquisition handler
func NewAcquisitionHandler(service AcquisitionService, logger *zap.Logger) *AcquisitionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AcquisitionHandler{
		service: service,
		logger:  logger,
	}
}

// AcquireRequest represents a request to acquire one input.
// Destination is relative to the server's output directory.
type AcquireRequest struct {
	Input        string `json:"input" binding:"required"`
	Destination  string `json:"destination,omitempty"`
	SkipExisting bool   `json:"skip_existing,omitempty"`
}

// AcquireResponse is returned for completed and failed acquisitions alike
type AcquireResponse struct {
	Acquisition *domain.Acquisition  `json:"acquisition,omitempty"`
	File        *domain.AcquiredFile `json:"file,omitempty"`
	Skipped     bool                 `json:"skipped"`
	Error       string               `json:"error,omitempty"`
}

// Acquire handles POST /api/v1/acquisitions. It blocks until the acquisition finishes.
func (h *AcquisitionHandler) Acquire(c *gin.Context) {
	var req AcquireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dest, err := app.ResolveDestination(h.service.DefaultDir(), req.Destination)
	if err != nil {
		c.JSON(http.StatusBadRequest, AcquireResponse{Error: err.Error()})
		return
	}

	result, err := h.service.Acquire(c.Request.Context(), domain.AcquisitionRequest{
		RawInput:       req.Input,
		DestinationDir: dest,
	}, app.AcquireOptions{SkipExisting: req.SkipExisting})

	var response AcquireResponse
	if result != nil {
		response.Acquisition = result.Acquisition
		response.File = result.File
		response.Skipped = result.Skipped
	}

	if err != nil {
		h.logger.Warn("Acquisition failed", zap.String("input", req.Input), zap.Error(err))
		response.Error = err.Error()
		c.JSON(statusFor(err), response)
		return
	}

	c.JSON(http.StatusOK, response)
}

// ClassifyRequest asks how an input would be handled
type ClassifyRequest struct {
	Input string `json:"input" binding:"required"`
}

// ClassifyResponse describes the classification and the providers that would be tried
type ClassifyResponse struct {
	Input          string                      `json:"input"`
	Classification domain.SourceClassification `json:"classification"`
	Providers      []domain.ProviderID         `json:"providers"`
}

// Classify handles POST /api/v1/classify
func (h *AcquisitionHandler) Classify(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	classification, providers := h.service.Plan(req.Input)
	c.JSON(http.StatusOK, ClassifyResponse{
		Input:          req.Input,
		Classification: classification,
		Providers:      providers,
	})
}

// GetAcquisition handles GET /api/v1/acquisitions/:id
func (h *AcquisitionHandler) GetAcquisition(c *gin.Context) {
	acquisition, err := h.service.Get(c.Param("id"))
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, acquisition)
}

// ListAcquisitions handles GET /api/v1/acquisitions
func (h *AcquisitionHandler) ListAcquisitions(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	acquisitions, err := h.service.List(filter)
	if err != nil {
		h.logger.Error("Failed to list acquisitions", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	if acquisitions == nil {
		acquisitions = []*domain.Acquisition{}
	}
	c.JSON(http.StatusOK, acquisitions)
}

// GetStats handles GET /api/v1/acquisitions/stats
func (h *AcquisitionHandler) GetStats(c *gin.Context) {
	stats, err := h.service.Stats()
	if err != nil {
		h.logger.Error("Failed to get stats", zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// DeleteAcquisition handles DELETE /api/v1/acquisitions/:id
func (h *AcquisitionHandler) DeleteAcquisition(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.Delete(id); err != nil {
		h.logger.Warn("Failed to delete acquisition", zap.String("id", id), zap.Error(err))
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "acquisition deleted"})
}

func parseFilter(c *gin.Context) (domain.AcquisitionFilter, error) {
	filter := domain.AcquisitionFilter{
		Status:   domain.AcquisitionStatus(c.Query("status")),
		Provider: domain.ProviderID(c.Query("provider")),
		Kind:     domain.SourceKind(c.Query("kind")),
	}

	if filter.Status != "" && !domain.ValidateStatus(filter.Status) {
		return filter, errors.New("invalid status: " + string(filter.Status))
	}
	if filter.Provider != "" && !domain.ValidateProvider(filter.Provider) {
		return filter, errors.New("invalid provider: " + string(filter.Provider))
	}
	if filter.Kind != "" && filter.Kind != domain.KindDirectURL && filter.Kind != domain.KindSearchQuery {
		return filter, errors.New("invalid kind: " + string(filter.Kind))
	}

	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			return filter, errors.New("invalid limit: " + limit)
		}
		filter.Limit = n
	}

	return filter, nil
}

// statusFor maps service errors to HTTP status codes
func statusFor(err error) int {
	var exhausted *domain.ExhaustedError
	var provErr *domain.ProviderError

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrOutsideOutputDir):
		return http.StatusBadRequest
	case errors.Is(err, app.ErrHistoryDisabled):
		return http.StatusNotImplemented
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	case errors.As(err, &exhausted), errors.As(err, &provErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
