package llm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotewise/quote-engine/pkg/retry"
)

func TestClassifyError_Types(t *testing.T) {
	cases := []struct {
		msg       string
		wantType  ErrorType
		retryable bool
	}{
		{"dial tcp: connection refused", ErrorTypeConnection, true},
		{"context deadline exceeded", ErrorTypeTimeout, true},
		{"429 Too Many Requests", ErrorTypeRateLimit, true},
		{"401 Unauthorized", ErrorTypeAuth, false},
		{"400 invalid request body", ErrorTypeBadRequest, false},
		{"502 Bad Gateway", ErrorTypeServer, true},
		{"something odd happened", ErrorTypeUnknown, false},
	}

	for _, tc := range cases {
		t.Run(tc.msg, func(t *testing.T) {
			classified := ClassifyError(errors.New(tc.msg))

			var llmErr *Error
			require.ErrorAs(t, classified, &llmErr)
			assert.Equal(t, tc.wantType, llmErr.Type)
			assert.Equal(t, tc.retryable, llmErr.IsRetryable())
		})
	}
}

func TestClassifyError_Passthrough(t *testing.T) {
	orig := &Error{Type: ErrorTypeAuth, Message: "authentication failed"}
	assert.Same(t, orig, ClassifyError(orig).(*Error))
	assert.NoError(t, ClassifyError(nil))
}

func TestClassifyError_IntegratesWithRetry(t *testing.T) {
	// A classified auth error must not be retried even though it came from
	// an HTTP layer full of transient-looking strings.
	assert.False(t, retry.IsRetryable(ClassifyError(errors.New("401 unauthorized"))))
	assert.True(t, retry.IsRetryable(ClassifyError(errors.New("503 service unavailable"))))
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	wrapped := ClassifyError(inner)
	assert.ErrorIs(t, wrapped, inner)
}
