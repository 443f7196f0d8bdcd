package dispatch

import (
	"context"
	"errors"

	"github.com/tinywideclouds/go-platform/pkg/notification/v1"
)

// Notification is the payload relayed to every addressed device.
type Notification struct {
	Content notification.NotificationContent
	Data    map[string]string
}

// Dispatcher defines the contract for a component that forwards a notification
// to the messaging provider.
type Dispatcher interface {
	// Send delivers the notification to a single device token and returns the
	// provider's message ID.
	Send(ctx context.Context, token string, n Notification) (string, error)

	// SendBatch fans the same notification out to every token and reports
	// per-token outcomes in token order.
	SendBatch(ctx context.Context, tokens []string, n Notification) (*BatchResult, error)
}

// BatchResult mirrors the provider's batch response.
type BatchResult struct {
	SuccessCount int           `json:"successCount"`
	FailureCount int           `json:"failureCount"`
	Responses    []TokenResult `json:"responses"`
}

// TokenResult is the outcome for one token of a batch.
type TokenResult struct {
	Token     string         `json:"token"`
	Success   bool           `json:"success"`
	MessageID string         `json:"messageId,omitempty"`
	Error     *ProviderError `json:"error,omitempty"`
}

// Codes attached to failures that do not originate from a provider response.
const (
	CodeUnknown        = "messaging/unknown-error"
	CodeNotInitialized = "app/no-app"
)

// ProviderError carries the provider's error code next to its message.
// Message is the provider's error text, unmodified.
type ProviderError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// NewProviderError wraps err with the given provider code.
func NewProviderError(code string, err error) *ProviderError {
	return &ProviderError{Code: code, Message: err.Error(), cause: err}
}

func (e *ProviderError) Error() string {
	return e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.cause
}

// CodeOf returns the provider code attached to err, or fallback when err
// carries none.
func CodeOf(err error, fallback string) string {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.Code != "" {
		return pe.Code
	}
	return fallback
}
