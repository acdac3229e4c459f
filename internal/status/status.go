// Package status defines the reasons a login or info update is refused and
// their two renderings: the display text sent to the client, which the hub
// operator may override, and the fixed short text used in logs.
package status

import (
	"encoding/json"
	"fmt"
)

type Code int

const (
	OK Code = iota
	HubFull
	HubDisabled
	RegisteredUsersOnly
	NickEmpty
	NickTooShort
	NickTooLong
	NickSpaces
	NickBadChars
	NickTaken
	CIDTaken
	CIDInvalid
	InvalidPassword
	VersionMismatch
	LoginRequired
)

type entry struct {
	name    string
	display string
	log     string
}

var codes = map[Code]entry{
	OK:                  {"ok", "OK", "ok"},
	HubFull:             {"hub_full", "Hub is full", "hub full"},
	HubDisabled:         {"hub_disabled", "Hub is disabled", "hub disabled"},
	RegisteredUsersOnly: {"hub_registered_users_only", "Hub is for registered users only", "registered users only"},
	NickEmpty:           {"inv_nick_empty", "No nickname given", "nick invalid (empty)"},
	NickTooShort:        {"inv_nick_short", "Nickname too short", "nick invalid (too short)"},
	NickTooLong:         {"inv_nick_long", "Nickname too long", "nick invalid (too long)"},
	NickSpaces:          {"inv_nick_spaces", "Nickname cannot start with spaces", "nick invalid (spaces)"},
	NickBadChars:        {"inv_nick_bad_chars", "Nickname contains invalid characters", "nick invalid (bad chars)"},
	NickTaken:           {"nick_taken", "Nickname is already in use", "nick taken"},
	CIDTaken:            {"cid_taken", "CID is already in use", "cid taken"},
	CIDInvalid:          {"inv_cid", "Invalid CID", "cid invalid"},
	InvalidPassword:     {"inv_password", "Wrong password", "invalid password"},
	VersionMismatch:     {"proto_version", "Protocol version is not supported", "version mismatch"},
	LoginRequired:       {"login_required", "Log in before sending this message", "not logged in"},
}

func (c Code) String() string {
	if e, ok := codes[c]; ok {
		return e.name
	}
	return fmt.Sprintf("status(%d)", int(c))
}

func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

func (c *Code) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	code, ok := ParseCode(name)
	if !ok {
		return fmt.Errorf("unknown status code %q", name)
	}
	*c = code
	return nil
}

// ParseCode maps a configuration key such as "nick_taken" to its code.
func ParseCode(name string) (Code, bool) {
	for c, e := range codes {
		if e.name == name {
			return c, true
		}
	}
	return 0, false
}

// Level is the severity of a status notification.
type Level int

const (
	LevelInfo Level = iota
	LevelRecoverable
	LevelFatal
)

var levelNames = map[Level]string{
	LevelInfo:        "info",
	LevelRecoverable: "recoverable",
	LevelFatal:       "fatal",
}

func (l Level) String() string {
	if n, ok := levelNames[l]; ok {
		return n
	}
	return "unknown"
}

func (l Level) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

func (l *Level) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for level, n := range levelNames {
		if n == name {
			*l = level
			return nil
		}
	}
	return fmt.Errorf("unknown status level %q", name)
}

// Resolver renders status codes. Display text comes from the operator's
// overrides when present; log text is fixed.
type Resolver struct {
	overrides map[Code]string
}

// NewResolver builds a resolver from configured overrides keyed by code
// name. Unknown keys are reported as an error.
func NewResolver(messages map[string]string) (*Resolver, error) {
	r := &Resolver{overrides: make(map[Code]string)}
	for name, text := range messages {
		c, ok := ParseCode(name)
		if !ok {
			return nil, fmt.Errorf("unknown status message %q", name)
		}
		r.overrides[c] = text
	}
	return r, nil
}

// Message returns the text shown to the user.
func (r *Resolver) Message(c Code) string {
	if r != nil {
		if text, ok := r.overrides[c]; ok {
			return text
		}
	}
	if e, ok := codes[c]; ok {
		return e.display
	}
	return "Unknown error"
}

// LogMessage returns the text written to the audit log.
func (r *Resolver) LogMessage(c Code) string {
	if e, ok := codes[c]; ok {
		return e.log
	}
	return "unknown"
}
