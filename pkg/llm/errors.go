package llm

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrorType categorizes LLM failures for retry decisions and logging.
type ErrorType string

const (
	ErrorTypeConnection ErrorType = "connection"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeBadRequest ErrorType = "bad_request"
	ErrorTypeServer     ErrorType = "server"
	ErrorTypeUnknown    ErrorType = "unknown"
)

// Error is a structured LLM error carrying its classification.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("llm %s error: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("llm %s error: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the failure is transient. Auth and bad-request
// errors are permanent; everything network-shaped is worth retrying.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeConnection, ErrorTypeTimeout, ErrorTypeRateLimit, ErrorTypeServer:
		return true
	default:
		return false
	}
}

// ClassifyError wraps err in a structured *Error with a best-effort type.
// Already-classified errors pass through unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Type: ErrorTypeTimeout, Message: "request timed out", Err: err}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "no such host"),
		strings.Contains(msg, "broken pipe"):
		return &Error{Type: ErrorTypeConnection, Message: "endpoint unreachable", Err: err}
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "timed out"),
		strings.Contains(msg, "deadline exceeded"):
		return &Error{Type: ErrorTypeTimeout, Message: "request timed out", Err: err}
	case strings.Contains(msg, "429"), strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "too many requests"):
		return &Error{Type: ErrorTypeRateLimit, Message: "rate limited", Err: err}
	case strings.Contains(msg, "401"), strings.Contains(msg, "403"),
		strings.Contains(msg, "unauthorized"), strings.Contains(msg, "invalid api key"):
		return &Error{Type: ErrorTypeAuth, Message: "authentication failed", Err: err}
	case strings.Contains(msg, "400"), strings.Contains(msg, "invalid request"),
		strings.Contains(msg, "context length"):
		return &Error{Type: ErrorTypeBadRequest, Message: "request rejected", Err: err}
	case strings.Contains(msg, "500"), strings.Contains(msg, "502"),
		strings.Contains(msg, "503"), strings.Contains(msg, "504"):
		return &Error{Type: ErrorTypeServer, Message: "server error", Err: err}
	default:
		return &Error{Type: ErrorTypeUnknown, Message: "request failed", Err: err}
	}
}
