package session

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies user lifecycle events.
type EventKind int

const (
	EventLoginSuccess EventKind = iota // user admitted
	EventLoginError                    // login rejected
	EventUpdateError                   // info update rejected
	EventNickChange                    // admitted user changed nick
	EventLogout                        // user left
)

var eventKindNames = map[EventKind]string{
	EventLoginSuccess: "LoginOK",
	EventLoginError:   "LoginError",
	EventUpdateError:  "UpdateError",
	EventNickChange:   "NickChange",
	EventLogout:       "Logout",
}

func (k EventKind) String() string {
	if n, ok := eventKindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// Event carries a user snapshot to observers.
type Event struct {
	ID     string    `json:"id"`
	Time   time.Time `json:"time"`
	Kind   EventKind `json:"-"`
	Name   string    `json:"event"`
	User   Info      `json:"user"`
	Detail string    `json:"detail,omitempty"`
	// NewNick is set for EventNickChange.
	NewNick string `json:"newNick,omitempty"`
}

// NewEvent snapshots u for an event of the given kind.
func NewEvent(kind EventKind, u *User, detail string) Event {
	return Event{
		ID:     uuid.NewString(),
		Time:   time.Now(),
		Kind:   kind,
		Name:   kind.String(),
		User:   u.Info(),
		Detail: detail,
	}
}
