package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"salesledger/internal/core/apperror"
	"salesledger/pkg/logger"
)

// Recovery middleware turns panics into a 500 response through ErrorHandler.
// The stack trace is logged, never returned.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error(c.Request.Context(), "panic recovered",
					"panic", rec,
					"path", c.Request.URL.Path,
					"stack", string(debug.Stack()),
				)

				_ = c.Error(apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
				c.Abort()
			}
		}()
		c.Next()
	}
}
