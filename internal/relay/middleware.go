package relay

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/diogo/cleansight/internal/logging"
	"github.com/diogo/cleansight/internal/models"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestLogger assigns a request id, puts a logger carrying it into the
// request context and logs one line per completed request. The query string
// is never logged.
func RequestLogger(base zerolog.Logger) app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		path := string(c.Path())

		requestID := string(c.Request.Header.Peek(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Response.Header.Set(RequestIDHeader, requestID)

		logger := logging.WithRequestID(base, requestID)
		c.Next(logger.WithContext(ctx))

		// Skip health check noise
		if path == models.HealthPath {
			return
		}

		status := c.Response.StatusCode()
		var event *zerolog.Event
		switch {
		case status >= 500:
			event = logger.Error()
		case status >= 400:
			event = logger.Warn()
		default:
			event = logger.Info()
		}
		event.
			Str("method", string(c.Method())).
			Str("path", path).
			Str("client_ip", c.ClientIP()).
			Int("status", status).
			Int("bytes", len(c.Response.Body())).
			Dur("latency", time.Since(start)).
			Msg("request completed")
	}
}

// GetRequestID returns the id RequestLogger assigned to the request
func GetRequestID(c *app.RequestContext) string {
	return string(c.Response.Header.Peek(RequestIDHeader))
}

// Recovery turns a panic into a generic 500. A buffered partial response is
// replaced; a response that is already streaming is left alone.
func Recovery() app.HandlerFunc {
	return func(ctx context.Context, c *app.RequestContext) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.FromContext(ctx).Error().
					Str("method", string(c.Method())).
					Str("path", string(c.Path())).
					Str("panic", fmt.Sprintf("%v", rec)).
					Str("stack", string(debug.Stack())).
					Msg("panic recovered")

				if responseStarted(c) {
					c.Abort()
					return
				}
				c.Response.ResetBody()
				c.AbortWithStatusJSON(consts.StatusInternalServerError, models.ErrorBody{Error: models.MsgInternalError})
			}
		}()

		c.Next(ctx)
	}
}

// responseStarted reports whether bytes may already be on the wire
func responseStarted(c *app.RequestContext) bool {
	return c.Response.IsBodyStream() || c.Response.GetHijackWriter() != nil
}

// CORS sets cross-origin headers and answers preflight requests with 204
func CORS(allowedOrigin string) app.HandlerFunc {
	if allowedOrigin == "" {
		allowedOrigin = "*"
	}
	return func(ctx context.Context, c *app.RequestContext) {
		h := &c.Response.Header
		h.Set("Access-Control-Allow-Origin", allowedOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
		h.Set("Access-Control-Expose-Headers", RequestIDHeader)
		h.Set("Access-Control-Max-Age", "86400")
		if allowedOrigin != "*" {
			h.Add("Vary", "Origin")
		}

		if string(c.Method()) == consts.MethodOptions {
			c.AbortWithStatus(consts.StatusNoContent)
			return
		}

		c.Next(ctx)
	}
}
