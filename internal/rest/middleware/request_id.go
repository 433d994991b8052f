package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/loopcart/loopcart/internal/types"
)

// RequestIDMiddleware attaches a request id to the context and response,
// honoring an inbound X-Request-ID when the caller supplies one.
func RequestIDMiddleware(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = types.GenerateRequestID()
	}

	ctx := context.WithValue(c.Request.Context(), types.CtxRequestID, requestID)
	c.Request = c.Request.WithContext(ctx)
	c.Writer.Header().Set("X-Request-ID", requestID)
	c.Next()
}
