// Package middleware provides HTTP middleware for the sales ledger API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "salesledger/internal/core/context"
)

const (
	HeaderUserID     = "X-User-ID"
	HeaderTerminalID = "X-Terminal-ID"
)

// UserContext puts the acting staff member into the request context.
//
// Authentication happens upstream; the gateway forwards the user id in
// X-User-ID. Requests without it proceed anonymously and the domain falls
// back to the default account where a user is required.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID != "" {
			ctx := appctx.WithUser(c.Request.Context(), &appctx.UserContext{
				UserID:   userID,
				Terminal: strings.TrimSpace(c.GetHeader(HeaderTerminalID)),
			})
			c.Request = c.Request.WithContext(ctx)
			c.Set("user_id", userID)
		}
		c.Next()
	}
}
