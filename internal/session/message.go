package session

import (
	"errors"

	"timebuddy/internal/auth"
	"timebuddy/internal/csvcodec"
	"timebuddy/internal/mutate"
	"timebuddy/internal/store"
)

// UserMessage is the one line shown to the user for err, in the wording the
// app uses on screen.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ae *auth.Error
	if errors.As(err, &ae) {
		return ae.Message()
	}
	var ve mutate.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	var pe *store.PersistenceError
	if errors.As(err, &pe) {
		if pe.Err == nil {
			return pe.Message()
		}
		return pe.Message() + " (" + pe.Err.Error() + ")"
	}
	switch {
	case errors.Is(err, csvcodec.ErrEmptyExport):
		return "No activities found to export."
	case errors.Is(err, csvcodec.ErrEmptyFile):
		return "CSV file is empty or has no data."
	}
	return err.Error()
}
