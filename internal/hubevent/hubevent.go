// Package hubevent reacts to the lifecycle transitions of a user: admission,
// refused login, refused info update, nick change and logout. The handlers
// hold no state; everything they touch belongs to the Hub and the User.
//
// Handlers for one user must run on that user's control path, one at a time.
// Handlers for different users may run concurrently.
package hubevent

import (
	"errors"
	"fmt"

	"github.com/adchub/hub/internal/audit"
	"github.com/adchub/hub/internal/session"
	"github.com/adchub/hub/internal/status"
)

// Hub is the set of collaborators the handlers drive.
type Hub interface {
	// LockAdmission serializes roster delivery and registration across
	// concurrent logins.
	LockAdmission()
	UnlockAdmission()
	// AddUser fails with session.ErrNotLoggedIn when u was disconnected
	// after its state transition.
	AddUser(u *session.User) error

	SendRoster(u *session.User) bool
	BroadcastInfo(u *session.User)
	SendMOTD(u *session.User) bool
	SendRules(u *session.User) bool
	SendStatus(u *session.User, code status.Code, level status.Level)

	Disconnect(u *session.User, reason session.QuitReason)
	ClearTimeout(u *session.User)

	StatusMessageLog(code status.Code) string
	Sink() audit.Sink

	// LogoutLog performs the hub's bookkeeping for a user that has left.
	LogoutLog(u *session.User)
}

// OnLoginSuccess admits u: roster, state, registry, audit, then the
// best-effort welcome sends. A user that cannot receive the roster is not
// admitted.
func OnLoginSuccess(h Hub, u *session.User) {
	delivered, admitted := admit(h, u)
	if !delivered {
		return
	}

	if admitted {
		h.Sink().LoginSuccess(u)

		// Each send, and the sink above, can end in a disconnect.
		if u.IsLoggedIn() {
			h.BroadcastInfo(u)
		}
		if u.IsLoggedIn() {
			h.SendMOTD(u)
		}
		if u.IsLoggedIn() {
			h.SendRules(u)
		}
	}

	h.ClearTimeout(u)
}

// admit delivers the roster and registers u while holding the admission
// lock. admitted is false when u started disconnecting before it could be
// registered.
func admit(h Hub, u *session.User) (delivered, admitted bool) {
	h.LockAdmission()
	defer h.UnlockAdmission()

	if !h.SendRoster(u) {
		return false, false
	}
	if !u.Admit() {
		return true, false
	}
	if err := h.AddUser(u); err != nil {
		if errors.Is(err, session.ErrNotLoggedIn) {
			return true, false
		}
		panic(fmt.Sprintf("hubevent: admitting %s: %v", u.SID, err))
	}
	return true, true
}

// OnLoginFailure reports code to u and disconnects it.
func OnLoginFailure(h Hub, u *session.User, code status.Code) {
	h.Sink().LoginError(u, h.StatusMessageLog(code))
	h.SendStatus(u, code, status.LevelFatal)
	h.Disconnect(u, session.QuitLogonError)
}

// OnUpdateFailure reports code to u and disconnects it.
func OnUpdateFailure(h Hub, u *session.User, code status.Code) {
	h.Sink().UpdateError(u, h.StatusMessageLog(code))
	h.SendStatus(u, code, status.LevelFatal)
	h.Disconnect(u, session.QuitUpdateError)
}

// OnNickChange records a nick change by an admitted user. Committing the
// nick is the caller's job.
func OnNickChange(h Hub, u *session.User, nick string) {
	if u.IsLoggedIn() {
		h.Sink().NickChange(u, nick)
	}
}

// OnLogoutUser records that u left and runs the hub's logout bookkeeping.
func OnLogoutUser(h Hub, u *session.User) {
	reason := u.QuitReason().String()
	h.Sink().Logout(u, reason)
	h.LogoutLog(u)
}
