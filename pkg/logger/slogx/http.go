package slogx

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// AccessLog logs every handled request once it has been served.
func AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		ctx := c.Request.Context()
		attrs := []slog.Attr{
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("duration", time.Since(start)),
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			Error(ctx, "request failed", attrs...)
		case status >= 400:
			Warn(ctx, "request rejected", attrs...)
		default:
			Info(ctx, "request served", attrs...)
		}
	}
}
