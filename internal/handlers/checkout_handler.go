package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/akylbek/payment-system/advisor-checkout/internal/format"
	"github.com/akylbek/payment-system/advisor-checkout/internal/models"
	"github.com/akylbek/payment-system/advisor-checkout/internal/service"
	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
)

// CheckoutService is the part of *service.Orchestrator the handler drives.
type CheckoutService interface {
	Submit(ctx context.Context, sess models.CheckoutSession, form models.PaymentForm) (models.CheckoutSession, string, error)
	ApplyCoupon(ctx context.Context, sess models.CheckoutSession, coupon string) (models.CheckoutSession, error)
}

type CheckoutHandler struct {
	registry     *service.Registry
	orchestrator CheckoutService
}

func NewCheckoutHandler(registry *service.Registry, orchestrator CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{registry: registry, orchestrator: orchestrator}
}

func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	sess := h.registry.CreateSession()
	telemetry.Logger.Info("Checkout session created", zap.String("session_id", sess.ID))
	c.JSON(http.StatusCreated, service.SessionSnapshot{CheckoutSession: sess})
}

func (h *CheckoutHandler) GetSession(c *gin.Context) {
	snap, err := h.registry.Session(c.Param("id"))
	if err != nil {
		respondError(c, err, http.StatusPaymentRequired, nil)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *CheckoutHandler) DeleteSession(c *gin.Context) {
	if !h.registry.DeleteSession(c.Param("id")) {
		respondError(c, service.ErrViewNotFound, http.StatusPaymentRequired, nil)
		return
	}
	c.Status(http.StatusNoContent)
}

type couponRequest struct {
	Coupon string `json:"coupon"`
}

func (h *CheckoutHandler) ApplyCoupon(c *gin.Context) {
	var req couponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.runOperation(c, service.MsgCouponApplied, func(ctx context.Context, sess models.CheckoutSession) (models.CheckoutSession, string, error) {
		next, err := h.orchestrator.ApplyCoupon(ctx, sess, req.Coupon)
		return next, "", err
	})
}

func (h *CheckoutHandler) Submit(c *gin.Context) {
	var form models.PaymentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.runOperation(c, service.MsgPaymentSuccess, func(ctx context.Context, sess models.CheckoutSession) (models.CheckoutSession, string, error) {
		return h.orchestrator.Submit(ctx, sess, form)
	})
}

type operation func(context.Context, models.CheckoutSession) (models.CheckoutSession, string, error)

// runOperation marks the session busy for the duration of op and stores
// whatever session op hands back, failed or not. A panicking op leaves the
// session as it was, but never busy. The attempt id, when op started one, is
// returned as attemptId.
func (h *CheckoutHandler) runOperation(c *gin.Context, success string, op operation) {
	sess, err := h.registry.BeginOperation(c.Param("id"))
	if err != nil {
		respondError(c, err, http.StatusPaymentRequired, nil)
		return
	}

	next := sess
	defer func() { h.registry.EndOperation(next) }()

	var attemptID string
	next, attemptID, err = op(c.Request.Context(), sess)

	body := gin.H{"session": service.SessionSnapshot{CheckoutSession: next}}
	if attemptID != "" {
		body["attemptId"] = attemptID
	}
	if err != nil {
		respondError(c, err, http.StatusPaymentRequired, body)
		return
	}
	body["message"] = success
	c.JSON(http.StatusOK, body)
}

type formatRequest struct {
	CardNumber string `json:"cardNumber"`
	Expiry     string `json:"expiry"`
	CVV        string `json:"cvv"`
}

// Format applies the keystroke formatting of the card fields.
func (h *CheckoutHandler) Format(c *gin.Context) {
	var req formatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	c.JSON(http.StatusOK, formatRequest{
		CardNumber: format.FormatCardNumber(req.CardNumber),
		Expiry:     format.FormatExpiry(req.Expiry),
		CVV:        format.FormatCVV(req.CVV),
	})
}
