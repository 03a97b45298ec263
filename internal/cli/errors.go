package cli

import (
	"errors"
	"fmt"

	"timebuddy/internal/session"
)

var errNotSignedIn = errors.New("not signed in; run `timebuddy auth signin` or `timebuddy auth offline`")

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

func userMessage(err error) string {
	return session.UserMessage(err)
}
