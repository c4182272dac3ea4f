package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"minutes/internal/api"
	"minutes/internal/logging"
	"minutes/internal/services"
)

// RequestIDHeader carries the correlation id in both directions.
const RequestIDHeader = "X-Request-ID"

// cors stamps the permissive CORS headers on every response.
func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type")
		c.Next()
	}
}

// requestContext assigns a request id (reusing a sane inbound one) and
// records the endpoint on the request context for logging.
func requestContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)

		ctx := services.WithRequestID(c.Request.Context(), id)
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = c.Request.URL.Path
		}
		ctx = services.WithEndpoint(ctx, endpoint)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.Method == http.MethodOptions {
			return
		}
		status := c.Writer.Status()
		attrs := []logging.Attr{
			logging.String("method", c.Request.Method),
			logging.Int("status", status),
			logging.Duration("duration", time.Since(start)),
		}
		logger := logging.WithContext(c.Request.Context(), s.logger)
		switch {
		case status >= http.StatusInternalServerError:
			logger.Error("request failed", logging.Args(attrs...)...)
		case status >= http.StatusBadRequest:
			logger.Warn("request rejected", logging.Args(attrs...)...)
		default:
			logger.Info("request served", logging.Args(attrs...)...)
		}
	}
}

func (s *Server) recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logging.WithContext(c.Request.Context(), s.logger).Error("handler panic",
			logging.Any("panic", recovered),
			logging.String(logging.FieldEventType, "handler_panic"),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, api.ErrorResponse{
			Error: "internal server error",
			Kind:  services.KindTransportError,
		})
	})
}

func methodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, api.ErrorResponse{
		Error:   "Method not allowed",
		Details: c.Request.Method + " " + c.Request.URL.Path,
	})
}

func notFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, api.ErrorResponse{
		Error:   "Not found",
		Details: c.Request.URL.Path,
	})
}

func preflight(c *gin.Context) {
	c.Status(http.StatusOK)
}
