package store

import (
	"context"
	"fmt"

	"timebuddy/internal/model"
)

// Backend persists the whole activity document for one user.
type Backend interface {
	Name() string
	Load(ctx context.Context) (model.UserActivityData, error)
	Save(ctx context.Context, data model.UserActivityData) error
	Clear(ctx context.Context) error
}

// Subscription delivers the latest full document every time it changes
// remotely. Updates is closed after Close or when the feed ends.
type Subscription interface {
	Updates() <-chan model.UserActivityData
	Close() error
}

// Subscriber is implemented by backends that can push changes.
type Subscriber interface {
	Subscribe(ctx context.Context) (Subscription, error)
}

// PersistenceError wraps a failed backend call. The store's snapshot is
// left as it was before the failed operation.
type PersistenceError struct {
	Backend string
	Op      string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Backend, e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Message is the text shown to the user.
func (e *PersistenceError) Message() string {
	remote := e.Backend != BackendLocal
	switch {
	case e.Op == "load" && remote:
		return "Could not load data from the cloud."
	case e.Op == "load":
		return "Could not load local data."
	case e.Op == "clear" && remote:
		return "Failed to reset cloud data."
	case e.Op == "clear":
		return "Failed to reset local data."
	case remote:
		return "Error: Could not save data to the cloud."
	default:
		return "Could not save data locally."
	}
}
