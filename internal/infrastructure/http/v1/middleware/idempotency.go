package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"salesledger/internal/core/apperror"
	appctx "salesledger/internal/core/context"
	"salesledger/internal/infrastructure/storage/postgres"
)

const (
	HeaderIdempotencyKey       = "Idempotency-Key"
	HeaderLegacyIdempotencyKey = "X-Idempotency-Key"
)

const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

// Gin context keys shared with handlers and the error handler.
const (
	ctxIdempotencyKey   = "idempotency_key"
	ctxIdempotencyStore = "idempotency_store"
)

// IdempotencyStore records the outcome of keyed requests for replay.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
	FailKey(ctx context.Context, key string, statusCode int, contentType string, response any) error
}

// Idempotency middleware protects against duplicate requests.
// A repeated key with the same body replays the stored response.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost &&
			c.Request.Method != http.MethodPut &&
			c.Request.Method != http.MethodPatch {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			key = c.GetHeader(HeaderLegacyIdempotencyKey)
		}
		if key == "" {
			c.Next()
			return
		}

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		// Operation name from the route pattern plus the concrete path, so a
		// key reused against another sale is a mismatch.
		operation := c.Request.Method + " " + c.Request.URL.Path
		userID := appctx.GetUserID(c.Request.Context())

		replay, err := store.AcquireKey(c.Request.Context(), key, userID, operation, requestHash)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				_ = c.Error(appErr)
				c.Abort()
				return
			}
			_ = c.Error(apperror.NewInternal(err).WithDetail("component", "idempotency"))
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(ctxIdempotencyKey, key)
		c.Set(ctxIdempotencyStore, store)

		c.Next()
	}
}

// CompleteIdempotency stores a successful response for the request's key, if any.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, response any) {
	key, store, ok := idempotencyOf(c)
	if !ok {
		return
	}
	_ = store.CompleteKey(c.Request.Context(), key, statusCode, contentType, response)
}

// failIdempotency stores an error response for the request's key, if any.
func failIdempotency(c *gin.Context, statusCode int, body any) {
	key, store, ok := idempotencyOf(c)
	if !ok {
		return
	}
	_ = store.FailKey(c.Request.Context(), key, statusCode, "application/json", body)
}

func idempotencyOf(c *gin.Context) (string, IdempotencyStore, bool) {
	key := c.GetString(ctxIdempotencyKey)
	if key == "" {
		return "", nil, false
	}
	v, ok := c.Get(ctxIdempotencyStore)
	if !ok {
		return "", nil, false
	}
	store, ok := v.(IdempotencyStore)
	return key, store, ok && store != nil
}
