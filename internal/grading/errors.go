package grading

import (
	"errors"
	"strings"
)

// ErrFatalRun marks failures that abort the whole run before any batch
// starts, i.e. a context document that cannot be extracted.
var ErrFatalRun = errors.New("fatal run error")

// ErrSchemaViolation marks a model response that failed parsing or schema
// validation. Violations consume a retry attempt like a transient provider
// error: model output is nondeterministic and a reissued request usually
// conforms.
var ErrSchemaViolation = errors.New("model output violates result schema")

// sanitizeError flattens an error into a single bounded line suitable for a
// user-facing failure message.
func sanitizeError(err error) string {
	if err == nil {
		return ""
	}
	msg := strings.ReplaceAll(err.Error(), "\n", " ")
	msg = strings.ReplaceAll(msg, "\r", " ")
	msg = strings.TrimSpace(msg)
	const maxLen = 500
	if len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}
