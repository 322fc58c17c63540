package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/advisor-checkout/internal/service"
)

type ResetService interface {
	RequestReset(ctx context.Context, view *service.RecoveryView, email string) error
}

type RecoveryHandler struct {
	registry *service.Registry
	recovery ResetService
}

func NewRecoveryHandler(registry *service.Registry, recovery ResetService) *RecoveryHandler {
	return &RecoveryHandler{registry: registry, recovery: recovery}
}

func (h *RecoveryHandler) CreateView(c *gin.Context) {
	view := h.registry.CreateView()
	c.JSON(http.StatusCreated, view.Status())
}

func (h *RecoveryHandler) GetView(c *gin.Context) {
	view, err := h.registry.View(c.Param("id"))
	if err != nil {
		respondError(c, err, http.StatusBadRequest, nil)
		return
	}
	c.JSON(http.StatusOK, view.Status())
}

func (h *RecoveryHandler) DeleteView(c *gin.Context) {
	if !h.registry.DeleteView(c.Param("id")) {
		respondError(c, service.ErrViewNotFound, http.StatusBadRequest, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

type resetRequest struct {
	Email string `json:"email"`
}

func (h *RecoveryHandler) Submit(c *gin.Context) {
	view, err := h.registry.View(c.Param("id"))
	if err != nil {
		respondError(c, err, http.StatusBadRequest, nil)
		return
	}

	var req resetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.recovery.RequestReset(c.Request.Context(), view, req.Email); err != nil {
		respondError(c, err, http.StatusBadRequest, gin.H{"status": view.Status()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": service.MsgResetLinkSent, "status": view.Status()})
}
