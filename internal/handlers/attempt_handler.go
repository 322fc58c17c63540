package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
	"github.com/akylbek/payment-system/advisor-checkout/internal/repository"
	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
)

type AttemptReader interface {
	GetByAttemptID(ctx context.Context, attemptID string) (*models.AttemptStateInfo, error)
}

type AttemptHandler struct {
	repo AttemptReader
}

func NewAttemptHandler(repo AttemptReader) *AttemptHandler {
	return &AttemptHandler{repo: repo}
}

func (h *AttemptHandler) GetAttempt(c *gin.Context) {
	attemptID := c.Param("id")

	info, err := h.repo.GetByAttemptID(c.Request.Context(), attemptID)
	if errors.Is(err, repository.ErrAttemptNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout attempt not found"})
		return
	}
	if err != nil {
		telemetry.Logger.Error("Failed to fetch checkout attempt",
			zap.String("attempt_id", attemptID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch checkout attempt"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"attempt_id":        info.AttemptID,
		"session_id":        info.SessionID,
		"state":             info.State,
		"previous_state":    info.PreviousState,
		"payment_intent_id": info.PaymentIntentID,
		"failure_reason":    info.FailureReason,
		"created_at":        info.CreatedAt,
		"updated_at":        info.UpdatedAt,
	})
}
