package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Skufu/symptomatch/internal/apperrors"
	"github.com/Skufu/symptomatch/internal/history"
	"github.com/Skufu/symptomatch/internal/observability"
	"github.com/Skufu/symptomatch/internal/predictor"
)

// UserIDHeader identifies the caller. Authentication happens upstream.
const UserIDHeader = "X-User-ID"

type handlers struct {
	deps Deps
}

type predictRequest struct {
	Symptoms []string `json:"symptoms" binding:"required"`
}

type predictResponse struct {
	Success     bool                   `json:"success"`
	Symptoms    []string               `json:"symptoms"`
	Predictions []predictor.Prediction `json:"predictions"`
	Timestamp   string                 `json:"timestamp"`
}

func (h *handlers) predict(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("symptoms must be an array of exactly %d strings", predictor.RequiredSymptoms),
			"code":  apperrors.ErrorTypeInvalidInput,
		})
		return
	}
	if err := predictor.ValidateSymptoms(req.Symptoms); err != nil {
		respondError(c, err)
		return
	}

	ctx := c.Request.Context()
	predictions, err := h.deps.Predictor.Predict(ctx, req.Symptoms)
	if err != nil {
		respondError(c, err)
		return
	}

	userID := userIDFrom(c)
	if err := h.deps.Recorder.Record(ctx, userID, req.Symptoms, predictions); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).
			Str("user_id", userID).
			Msg("query log write failed")
	}

	c.JSON(http.StatusOK, predictResponse{
		Success:     true,
		Symptoms:    req.Symptoms,
		Predictions: predictions,
		Timestamp:   h.deps.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handlers) history(c *gin.Context) {
	if h.deps.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "prediction history is disabled"})
		return
	}

	userID := strings.TrimSpace(c.GetHeader(UserIDHeader))
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": UserIDHeader + " header is required",
			"code":  apperrors.ErrorTypeInvalidInput,
		})
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be a positive integer",
				"code":  apperrors.ErrorTypeInvalidInput,
			})
			return
		}
		limit = n
	}

	records, err := h.deps.History.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "history": records})
}

func (h *handlers) diseases(c *gin.Context) {
	records, err := h.deps.Catalog.FetchAll(c.Request.Context())
	if err != nil {
		if !apperrors.Is(err, apperrors.ErrorTypeCatalogUnavailable) {
			err = apperrors.NewCatalogUnavailableError("load disease catalog", err)
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(records), "diseases": records})
}

func userIDFrom(c *gin.Context) string {
	if id := strings.TrimSpace(c.GetHeader(UserIDHeader)); id != "" {
		return id
	}
	return history.AnonymousUser
}

func respondError(c *gin.Context, err error) {
	errType := apperrors.TypeOf(err)
	status := statusFor(errType)

	var appErr *apperrors.AppError
	isApp := errors.As(err, &appErr)
	retryable := isApp && appErr.Retryable()

	message := "internal server error"
	if isApp && (status < http.StatusInternalServerError || retryable) {
		message = appErr.Message
	}

	logger := observability.LoggerFromContext(c.Request.Context())
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	if retryable {
		c.Header("Retry-After", "5")
	}

	c.JSON(status, gin.H{"error": message, "code": errType})
}

func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case apperrors.ErrorTypeCatalogUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
