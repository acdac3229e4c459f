package session

import (
	"encoding/json"
)

// State is the lifecycle state of a connected user. Transitions only move
// forward: Connecting -> Normal -> Disconnecting, or Connecting -> Disconnecting.
type State int32

const (
	StateConnecting State = iota
	StateNormal
	StateDisconnecting
)

var stateNames = map[State]string{
	StateConnecting:    "connecting",
	StateNormal:        "normal",
	StateDisconnecting: "disconnecting",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Credentials is the authorization level granted at login.
type Credentials int

const (
	CredNone Credentials = iota
	CredBot
	CredGuest
	CredUser
	CredOperator
	CredSuper
	CredLink
	CredAdmin
)

var credentialNames = map[Credentials]string{
	CredNone:     "none",
	CredBot:      "bot",
	CredGuest:    "guest",
	CredUser:     "user",
	CredOperator: "operator",
	CredSuper:    "super",
	CredLink:     "link",
	CredAdmin:    "admin",
}

var credentialsFromName = map[string]Credentials{
	"none":     CredNone,
	"bot":      CredBot,
	"guest":    CredGuest,
	"user":     CredUser,
	"operator": CredOperator,
	"super":    CredSuper,
	"link":     CredLink,
	"admin":    CredAdmin,
}

func (c Credentials) String() string {
	if n, ok := credentialNames[c]; ok {
		return n
	}
	return "unknown"
}

// IsOperator reports whether c carries operator privileges.
func (c Credentials) IsOperator() bool {
	return c == CredOperator || c == CredSuper || c == CredAdmin
}

func (c Credentials) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Credentials) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if v, ok := credentialsFromName[s]; ok {
		*c = v
	}
	return nil
}

// ParseCredentials maps a configured credential name to its level.
func ParseCredentials(name string) (Credentials, bool) {
	c, ok := credentialsFromName[name]
	return c, ok
}

// QuitReason records why a user left the hub.
type QuitReason int

const (
	QuitUnknown QuitReason = iota
	QuitDisconnected
	QuitKicked
	QuitBanned
	QuitTimeout
	QuitSendQueue
	QuitSocketError
	QuitProtocolError
	QuitLogonError
	QuitUpdateError
	QuitHubDisabled
	QuitGhost
)

var quitNames = map[QuitReason]string{
	QuitUnknown:       "unknown",
	QuitDisconnected:  "disconnected",
	QuitKicked:        "kicked",
	QuitBanned:        "banned",
	QuitTimeout:       "timeout",
	QuitSendQueue:     "send queue",
	QuitSocketError:   "socket error",
	QuitProtocolError: "protocol error",
	QuitLogonError:    "logon error",
	QuitUpdateError:   "update error",
	QuitHubDisabled:   "hub disabled",
	QuitGhost:         "ghost",
}

func (q QuitReason) String() string {
	if n, ok := quitNames[q]; ok {
		return n
	}
	return "unknown"
}
