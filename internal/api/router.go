package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/akylbek/payment-system/advisor-checkout/internal/handlers"
	"github.com/akylbek/payment-system/advisor-checkout/internal/middleware"
	"github.com/akylbek/payment-system/advisor-checkout/internal/telemetry"
)

const serviceName = "advisor-checkout"

type Handlers struct {
	Checkout *handlers.CheckoutHandler
	Recovery *handlers.RecoveryHandler
	Attempts *handlers.AttemptHandler
}

func NewRouter(h Handlers, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(telemetry.TracingMiddleware())

	// Prometheus metrics
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	})

	checkout := r.Group("/checkout", middleware.BearerToken())
	checkout.POST("/sessions", h.Checkout.CreateSession)
	checkout.GET("/sessions/:id", h.Checkout.GetSession)
	checkout.DELETE("/sessions/:id", h.Checkout.DeleteSession)
	checkout.POST("/sessions/:id/coupon", h.Checkout.ApplyCoupon)
	checkout.POST("/sessions/:id/submit", h.Checkout.Submit)
	checkout.POST("/format", h.Checkout.Format)
	checkout.GET("/attempts/:id", h.Attempts.GetAttempt)

	recovery := r.Group("/password-recovery", middleware.BearerToken())
	recovery.POST("/views", h.Recovery.CreateView)
	recovery.GET("/views/:id", h.Recovery.GetView)
	recovery.DELETE("/views/:id", h.Recovery.DeleteView)
	recovery.POST("/views/:id/submit", limiter.Handler(), h.Recovery.Submit)

	return r
}
