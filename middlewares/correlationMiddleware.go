package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mmdatafocus/insights_backend/appctx"
)

const correlationHeader = "X-Correlation-Id"

// CorrelationMiddleware tags every request with a correlation id. An id
// supplied by the caller is kept; otherwise a fresh UUID is generated. The id
// lands in the request context for the engines and recorder, and is echoed in
// the response header.
func CorrelationMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlationId := c.GetHeader(correlationHeader)
		if correlationId == "" {
			correlationId = uuid.NewString()
		}

		ctx := appctx.Set(c.Request.Context(), appctx.ContextKeyCorrelationId, correlationId)
		ctx = appctx.Set(ctx, appctx.ContextKeyRequestSource, "api")
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(correlationHeader, correlationId)

		c.Next()
	}
}
