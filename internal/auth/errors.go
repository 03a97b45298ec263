package auth

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindGeneric Kind = iota
	KindInvalidCredential
	KindAccountExists
	KindInvalidInput
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredential:
		return "invalid_credential"
	case KindAccountExists:
		return "account_exists"
	case KindInvalidInput:
		return "invalid_input"
	default:
		return "generic"
	}
}

// Operation labels used for Generic error messages.
const (
	OpSignUp  = "signup"
	OpSignIn  = "signin"
	OpReset   = "reset"
	OpConfirm = "confirm_reset"
	OpGoogle  = "google"
	OpSignOut = "signout"
	OpVerify  = "verify"
)

// Error is what every Service method returns on failure.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("auth %s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("auth %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Message is the text shown to the user.
func (e *Error) Message() string {
	switch e.Kind {
	case KindInvalidCredential:
		return "Incorrect email or password. Please try again."
	case KindAccountExists:
		return "An account already exists with this email. Please sign in instead."
	case KindInvalidInput:
		if e.Err != nil {
			return e.Err.Error()
		}
		return "Invalid input."
	}
	detail := "unknown error"
	if e.Err != nil {
		detail = e.Err.Error()
	}
	switch e.Op {
	case OpSignUp:
		return "Sign-up failed: " + detail
	case OpSignIn:
		return "Sign-in failed: " + detail
	case OpReset:
		return "Error sending reset email: " + detail
	case OpGoogle:
		return "Google sign-in failed: " + detail
	case OpSignOut:
		return "Sign-out failed: " + detail
	default:
		return detail
	}
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

func invalidInput(op, msg string) error {
	return &Error{Kind: KindInvalidInput, Op: op, Err: errors.New(msg)}
}

func generic(op string, err error) error {
	return &Error{Kind: KindGeneric, Op: op, Err: err}
}
