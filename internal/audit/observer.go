package audit

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/adchub/hub/internal/session"
)

// Plugin consumes lifecycle events. OnEvent runs synchronously on the
// calling user's control path. A plugin disconnects u by returning a
// *DisconnectError.
type Plugin interface {
	Name() string
	OnEvent(ev session.Event, u *session.User) error
	Close() error
}

// DisconnectError asks the observer to disconnect the event's user.
type DisconnectError struct {
	Reason session.QuitReason
	Msg    string
}

func (e *DisconnectError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("disconnect: %s", e.Reason)
	}
	return fmt.Sprintf("disconnect: %s: %s", e.Reason, e.Msg)
}

// Observer fans events out to registered plugins in registration order.
type Observer struct {
	mu         sync.RWMutex
	plugins    []Plugin
	disconnect func(*session.User, session.QuitReason)
}

func NewObserver(plugins ...Plugin) *Observer {
	return &Observer{plugins: plugins}
}

// Register adds p. Must be called before the hub starts serving.
func (o *Observer) Register(p Plugin) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.plugins = append(o.plugins, p)
}

// SetDisconnect installs the function used to act on a DisconnectError.
// Without one, such errors are only logged.
func (o *Observer) SetDisconnect(fn func(*session.User, session.QuitReason)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disconnect = fn
}

func (o *Observer) Plugins() []Plugin {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]Plugin, len(o.plugins))
	copy(out, o.plugins)
	return out
}

func (o *Observer) dispatch(ev session.Event, u *session.User) {
	o.mu.RLock()
	disconnect := o.disconnect
	o.mu.RUnlock()

	for _, p := range o.Plugins() {
		err := p.OnEvent(ev, u)
		if err == nil {
			continue
		}
		var de *DisconnectError
		if errors.As(err, &de) && disconnect != nil {
			log.Printf("plugin %s: disconnecting %s: %v", p.Name(), ev.User.SID, err)
			disconnect(u, de.Reason)
			continue
		}
		log.Printf("plugin %s: %s event for %s: %v", p.Name(), ev.Name, ev.User.SID, err)
	}
}

func (o *Observer) LoginSuccess(u *session.User) {
	o.dispatch(session.NewEvent(session.EventLoginSuccess, u, u.Credentials().String()), u)
}

func (o *Observer) LoginError(u *session.User, message string) {
	o.dispatch(session.NewEvent(session.EventLoginError, u, message), u)
}

func (o *Observer) UpdateError(u *session.User, message string) {
	o.dispatch(session.NewEvent(session.EventUpdateError, u, message), u)
}

func (o *Observer) NickChange(u *session.User, nick string) {
	ev := session.NewEvent(session.EventNickChange, u, "")
	ev.NewNick = nick
	o.dispatch(ev, u)
}

func (o *Observer) Logout(u *session.User, reason string) {
	o.dispatch(session.NewEvent(session.EventLogout, u, reason), u)
}

// Close closes every plugin and returns the first error.
func (o *Observer) Close() error {
	var first error
	for _, p := range o.Plugins() {
		if err := p.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
