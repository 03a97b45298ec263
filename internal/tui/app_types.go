package tui

import (
	"time"

	"timebuddy/internal/model"
)

type screen int

const (
	screenLogin screen = iota
	screenMonth
	screenDay
)

func (s screen) String() string {
	switch s {
	case screenLogin:
		return "login"
	case screenMonth:
		return "month"
	case screenDay:
		return "day"
	default:
		return "unknown"
	}
}

type modalKind int

const (
	modalNone modalKind = iota
	modalEditText
	modalEditTime
	modalEditNote
	modalImport
	modalGoogleCode
	modalConfirmReset
	modalConfirmLogout
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

const minibufferAutoClearAfter = 4 * time.Second

// snapshotMsg carries a document published by the activity store, either
// after a local change or from the remote change feed.
type snapshotMsg struct{ data model.UserActivityData }

type mutationDoneMsg struct {
	message string
	err     error
}

// sessionDoneMsg reports a session switch (login, offline, logout).
type sessionDoneMsg struct {
	message string
	err     error
}

type resetSentMsg struct {
	email string
	err   error
}

type googleURLMsg struct {
	url string
	err error
}

type urlOpenDoneMsg struct{ err error }

type clearTickMsg struct{}
