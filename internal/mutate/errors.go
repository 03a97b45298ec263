package mutate

import (
	"errors"
	"fmt"
)

// ValidationError is bad user input to a mutation. It is returned before
// anything is changed, so callers must not persist.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

func errEmptyTime() error {
	return ValidationError{Field: "time", Message: "Time cannot be empty."}
}

func errTimeExists(timeKey string) error {
	return ValidationError{Field: "time", Message: fmt.Sprintf("Time %q already exists.", timeKey)}
}

func errInvalidDate(key string) error {
	return ValidationError{Field: "date", Message: fmt.Sprintf("invalid date %q (expected YYYY-MM-DD)", key)}
}

// IsValidation reports whether err (or anything it wraps) is a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}
