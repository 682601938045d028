package memory

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"salesledger/internal/core/apperror"
	"salesledger/internal/infrastructure/storage/postgres"
)

type idempotencyRecord struct {
	userID      string
	operation   string
	requestHash string
	status      postgres.IdempotencyStatus
	replay      postgres.IdempotencyReplay
}

// IdempotencyStore keeps idempotency keys in memory. Keys never expire.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]*idempotencyRecord
}

// NewIdempotencyStore creates an empty store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]*idempotencyRecord)}
}

// AcquireKey mirrors postgres.IdempotencyStore.AcquireKey.
func (s *IdempotencyStore) AcquireKey(_ context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.keys[key]
	if !ok {
		s.keys[key] = &idempotencyRecord{
			userID:      userID,
			operation:   operation,
			requestHash: requestHash,
			status:      postgres.IdempotencyStatusPending,
		}
		return nil, nil
	}

	if rec.userID != userID || rec.operation != operation || rec.requestHash != requestHash {
		return nil, apperror.NewIdempotencyMismatch(key)
	}
	if rec.status == postgres.IdempotencyStatusPending {
		return nil, apperror.NewIdempotencyConflict(key)
	}
	replay := rec.replay
	return &replay, nil
}

// CompleteKey stores a successful response.
func (s *IdempotencyStore) CompleteKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, postgres.IdempotencyStatusSuccess, statusCode, contentType, response)
}

// FailKey stores an error response.
func (s *IdempotencyStore) FailKey(_ context.Context, key string, statusCode int, contentType string, response any) error {
	return s.finish(key, postgres.IdempotencyStatusFailed, statusCode, contentType, response)
}

func (s *IdempotencyStore) finish(key string, status postgres.IdempotencyStatus, statusCode int, contentType string, response any) error {
	body, err := json.Marshal(response)
	if err != nil {
		return err
	}
	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.keys[key]
	if !ok {
		return apperror.NewNotFound("idempotency key", key)
	}
	rec.status = status
	rec.replay = postgres.IdempotencyReplay{StatusCode: statusCode, ContentType: contentType, Body: body}
	return nil
}
