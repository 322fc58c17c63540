package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/akylbek/payment-system/advisor-checkout/internal/client"
)

// BearerToken forwards the caller's Authorization bearer token to backend
// calls made while serving the request.
func BearerToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := client.BearerFromHeader(c.GetHeader("Authorization")); tok != "" {
			c.Request = c.Request.WithContext(client.WithToken(c.Request.Context(), tok))
		}
		c.Next()
	}
}
