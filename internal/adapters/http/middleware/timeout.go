package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/jokeboard/internal/adapters/http/dto"
)

// Timeout returns middleware that bounds each request with a context
// deadline. Handlers and the joke source client observe the deadline
// through the request context; the handler chain always runs on the
// request goroutine.
//
// If the deadline passed and the handler wrote nothing, a 504 envelope
// is written. Paths listed in skipPaths run without a deadline.
func Timeout(timeout time.Duration, skipPaths ...string) gin.HandlerFunc {
	skipMap := make(map[string]struct{}, len(skipPaths))
	for _, path := range skipPaths {
		skipMap[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, skip := skipMap[c.Request.URL.Path]; skip || timeout <= 0 {
			c.Next()
			return
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if !errors.Is(ctx.Err(), context.DeadlineExceeded) || c.Writer.Written() {
			return
		}

		traceID := dto.GetTraceID(c)

		requestLogger(c, nil).Warn("request timeout",
			slog.String("path", c.Request.URL.Path),
			slog.String("method", c.Request.Method),
			slog.Duration("timeout", timeout),
			slog.String("trace_id", traceID),
		)

		errResp := dto.NewErrorResponse(dto.ErrorCodeTimeout, "request timeout exceeded")
		c.AbortWithStatusJSON(http.StatusGatewayTimeout, errResp.WithTraceID(traceID))
	}
}
