package frame

import (
	"fmt"

	"github.com/pkg/errors"

	"epaperdash/pkg/settings"
)

// ValidationError reports malformed caller input, rejected before any side
// effect.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func invalidf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// Invalid builds a ValidationError for callers outside this package, such as
// transport-level request checks.
func Invalid(msg string) error {
	return &ValidationError{msg: msg}
}

// IsValidationError reports whether err is caller-input validation failure,
// from this package or the settings store.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || settings.IsValidationError(err)
}
