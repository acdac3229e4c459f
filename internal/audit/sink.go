// Package audit records user lifecycle events. Exactly one Sink is active in
// a running hub: either the Logger, which writes one audit line per event,
// or the Observer, which hands events to plugins instead.
package audit

import (
	"fmt"
	"os"

	"github.com/adchub/hub/internal/config"
	"github.com/adchub/hub/internal/session"
)

// Sink receives lifecycle events synchronously from the hub event handlers.
type Sink interface {
	LoginSuccess(u *session.User)
	LoginError(u *session.User, message string)
	UpdateError(u *session.User, message string)
	NickChange(u *session.User, nick string)
	Logout(u *session.User, reason string)
	Close() error
}

// Open builds the sink selected by cfg.
func Open(cfg config.AuditConfig) (Sink, error) {
	switch cfg.Sink {
	case config.SinkLog, "":
		if cfg.File == "" {
			return NewLogger(os.Stderr), nil
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("opening audit log: %w", err)
		}
		l := NewLogger(f)
		l.closer = f
		return l, nil

	case config.SinkObserver:
		obs := NewObserver()
		for _, pc := range cfg.Plugins {
			p, err := openPlugin(pc)
			if err != nil {
				obs.Close()
				return nil, fmt.Errorf("plugin %q: %w", pc.Name, err)
			}
			obs.Register(p)
		}
		return obs, nil

	default:
		return nil, fmt.Errorf("unknown audit sink %q", cfg.Sink)
	}
}

func openPlugin(pc config.PluginConfig) (Plugin, error) {
	switch pc.Name {
	case "jsonlog":
		if pc.Path == "" {
			return NewJSONWriterPlugin(os.Stdout), nil
		}
		f, err := os.OpenFile(pc.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		p := NewJSONWriterPlugin(f)
		p.closer = f
		return p, nil
	case "redis":
		if pc.Addr == "" {
			return nil, fmt.Errorf("addr is required")
		}
		stream := pc.Stream
		if stream == "" {
			stream = defaultStream
		}
		maxLen := pc.MaxLen
		if maxLen == 0 {
			maxLen = defaultStreamMaxLen
		}
		return DialRedisPlugin(pc.Addr, stream, maxLen)
	case "banlist":
		return NewBanPlugin(pc.Nicks, pc.CIDs), nil
	default:
		return nil, fmt.Errorf("unknown plugin")
	}
}
