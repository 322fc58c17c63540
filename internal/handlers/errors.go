package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/service"
	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
	"github.com/akylbek/payment-system/advisor-checkout/internal/validation"
)

// respondError writes err as JSON. rejected is the status used when the
// backend turned the call down; extra fields are merged into the body.
func respondError(c *gin.Context, err error, rejected int, extra gin.H) {
	status, body := errorBody(err, rejected)
	for k, v := range extra {
		body[k] = v
	}
	if status >= http.StatusInternalServerError {
		telemetry.Logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err),
		)
	}
	c.JSON(status, body)
}

func errorBody(err error, rejected int) (int, gin.H) {
	var (
		verrs   validation.Errors
		failure *service.Failure
	)
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, gin.H{"error": "validation failed", "fields": verrs}
	case errors.Is(err, service.ErrSubmissionInProgress),
		errors.Is(err, service.ErrRequestInProgress),
		errors.Is(err, service.ErrCooldownActive):
		return http.StatusConflict, gin.H{"error": err.Error()}
	case errors.Is(err, service.ErrViewNotFound):
		return http.StatusNotFound, gin.H{"error": err.Error()}
	case errors.As(err, &failure):
		status := rejected
		switch failure.Kind {
		case service.KindNetwork:
			status = http.StatusBadGateway
		case service.KindAuth:
			status = http.StatusUnauthorized
		}
		return status, gin.H{"error": failure.Message, "kind": failure.Kind}
	}
	return http.StatusInternalServerError, gin.H{"error": "internal error"}
}
