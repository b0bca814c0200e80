package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/Payphone-Digital/tracker/internal/constants"
	ctxutil "github.com/Payphone-Digital/tracker/pkg/context"
	"github.com/Payphone-Digital/tracker/pkg/logger"
	"github.com/gin-gonic/gin"
)

// ContextMiddleware stamps request id, client data and module on the request context
func ContextMiddleware(module string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.NewContextWithRequest(c.Request.Context(), c.Request, module, c.FullPath())
		c.Request = c.Request.WithContext(ctx)

		c.Header(constants.HeaderXRequestID, ctxutil.GetRequestID(ctx))

		c.Next()
	}
}

// CorrelationMiddleware propagates the caller's correlation id, defaulting to the request id
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationID := c.GetHeader(constants.HeaderXCorrelationID)
		if correlationID == "" {
			correlationID = c.GetHeader(constants.HeaderXRequestID)
		}

		ctx := ctxutil.NewContext(c.Request.Context())
		if correlationID == "" {
			correlationID = ctxutil.GetRequestID(ctx)
		}
		ctx = context.WithValue(ctx, ctxutil.CorrelationIDKey, correlationID)

		c.Header(constants.HeaderXCorrelationID, correlationID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestTimeoutMiddleware bounds the request context by timeout
func RequestTimeoutMiddleware(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := ctxutil.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// Check if context is done before processing
		if err := ctx.Err(); err != nil {
			logger.WarnWithContext(ctx, "Request cancelled before processing").
				Duration(timeout).
				Err(err).
				Log()
			c.AbortWithStatusJSON(http.StatusRequestTimeout, constants.BuildResultResponse(false, []string{"Request timeout."}))
			return
		}

		c.Next()
	}
}

// DefaultContextMiddleware is the context chain applied to every API route
func DefaultContextMiddleware(module string, timeout time.Duration) []gin.HandlerFunc {
	return []gin.HandlerFunc{
		CorrelationMiddleware(),
		ContextMiddleware(module),
		RequestTimeoutMiddleware(timeout),
	}
}
