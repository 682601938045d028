// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"salesledger/internal/core/types"
)

// --- Pagination ---

// PaginationRequest contains pagination parameters.
type PaginationRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=500"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any `json:"items"`
	TotalCount int `json:"totalCount"`
	Limit      int `json:"limit"`
	Offset     int `json:"offset"`
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Credit ---

// CreditResponse is a customer's available credit.
type CreditResponse struct {
	CustomerID      string      `json:"customerId"`
	AvailableCredit types.Money `json:"availableCredit"`
}

// --- Audit ---

// AuditEntryResponse is one audit record.
type AuditEntryResponse struct {
	ID        string         `json:"id"`
	Action    string         `json:"action"`
	UserID    string         `json:"userId"`
	RequestID string         `json:"requestId,omitempty"`
	Changes   map[string]any `json:"changes,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
