package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"checkout-core/internal/handler/httperr"

	"github.com/gin-gonic/gin"
)

// ErrorHandler turns the last public gin error into the JSON envelope when
// the handler did not write one, and logs the wrapped cause of every 5xx.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		var last *httperr.Response
		for _, ginErr := range c.Errors {
			if !ginErr.IsType(gin.ErrorTypePublic) {
				continue
			}
			resp, ok := ginErr.Meta.(httperr.Response)
			if !ok {
				continue
			}
			if resp.Status >= http.StatusInternalServerError {
				logger.Error("request failed",
					"request_id", httperr.RequestID(c),
					"path", c.FullPath(),
					"code", resp.Error.Code,
					"error", fmt.Sprintf("%+v", ginErr.Err))
			}
			last = &resp
		}

		if c.Writer.Written() {
			return
		}
		if last != nil {
			c.JSON(last.Status, last)
			return
		}
		if status := c.Writer.Status(); status != http.StatusOK {
			c.Status(status)
			c.Writer.WriteHeaderNow()
			return
		}
		c.JSON(http.StatusInternalServerError, internalError(c))
	}
}

// CustomRecovery answers a panic with the generic 500 envelope.
func CustomRecovery(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("recovered from panic",
					"panic", rec,
					"request_id", httperr.RequestID(c),
					"path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, internalError(c))
			}
		}()
		c.Next()
	}
}

func internalError(c *gin.Context) httperr.Response {
	return httperr.Response{
		Status: http.StatusInternalServerError,
		Error: httperr.ErrorBody{
			Message:   "Internal server error",
			Code:      "internal",
			RequestID: httperr.RequestID(c),
		},
	}
}
