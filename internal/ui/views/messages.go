package views

import (
	"github.com/okeefe/taskdeck/internal/model"
)

// Messages crossing screen boundaries; the root model routes these.

// LoggedIn is emitted after a successful login. The token is already
// persisted and decoded by the time this fires.
type LoggedIn struct {
	Claims model.Claims
}

// LoggedOut is emitted after an explicit logout; the token is cleared.
type LoggedOut struct{}

// SessionExpired is emitted when a task list fetch fails. The token is
// already cleared; the user has to authenticate again.
type SessionExpired struct{}

// SwitchToSignup requests the signup screen.
type SwitchToSignup struct{}

// SwitchToLogin requests the login screen, optionally with a notice to
// show above the form (e.g. after a successful signup).
type SwitchToLogin struct {
	Notice string
}

// ErrorFlash puts an error on the root status line.
type ErrorFlash struct {
	Err error
}

// StatusFlash puts a message on the root status line.
type StatusFlash struct {
	Message string
}
