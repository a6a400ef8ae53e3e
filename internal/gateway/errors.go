package gateway

import (
	"context"
	"errors"
	"fmt"
)

// TransportError covers network failures and non-2xx responses.
// Message is surfaced to users verbatim.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	return e.Message
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ProtocolError means the response arrived but could not be decoded or failed validation
type ProtocolError struct {
	Message string
	Err     error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid metrics response: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("invalid metrics response: %s", e.Message)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// CancelledError is returned when the caller's context was cancelled mid-fetch
type CancelledError struct {
	Err error
}

func (e *CancelledError) Error() string {
	return "request cancelled"
}

func (e *CancelledError) Unwrap() error {
	if e.Err == nil {
		return context.Canceled
	}
	return e.Err
}

// ConfigurationError is a fatal startup problem with the gateway settings
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Msg)
}

// IsCancelled reports whether err stems from a cancelled context
func IsCancelled(err error) bool {
	var cancelled *CancelledError
	return errors.As(err, &cancelled) || errors.Is(err, context.Canceled)
}
