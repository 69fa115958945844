package scripting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// maxErrorLength caps sanitized messages so host detail never leaks through
// long evaluator output.
const maxErrorLength = 200

// TimeoutError reports a script exceeding its execution deadline.
type TimeoutError struct {
	// Timeout that was exceeded
	Timeout time.Duration
}

// Error implements the error interface
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("script execution timed out after %s", e.Timeout)
}

// ScriptExecutionError is the single error type surfaced for any script
// failure: syntax errors, thrown values, disallowed async results. The
// message is sanitized; raw host stack traces never reach the caller.
type ScriptExecutionError struct {
	// Message is the sanitized failure description
	Message string
}

// Error implements the error interface
func (e *ScriptExecutionError) Error() string {
	return fmt.Sprintf("script execution failed: %s", e.Message)
}

// IsTimeout reports whether an error is a script timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// sanitizeMessage keeps only the first line of an evaluator error and caps
// its length, stripping stack frames and host paths.
func sanitizeMessage(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimSpace(msg)
	if len(msg) > maxErrorLength {
		msg = msg[:maxErrorLength] + "..."
	}
	if msg == "" {
		msg = "unknown error"
	}
	return msg
}
