package audit

import (
	"github.com/adchub/hub/internal/session"
)

// BanPlugin disconnects users whose nick or CID is banned, both at login
// and when they change nick.
type BanPlugin struct {
	nicks map[string]struct{}
	cids  map[string]struct{}
}

func NewBanPlugin(nicks, cids []string) *BanPlugin {
	p := &BanPlugin{
		nicks: make(map[string]struct{}, len(nicks)),
		cids:  make(map[string]struct{}, len(cids)),
	}
	for _, n := range nicks {
		p.nicks[n] = struct{}{}
	}
	for _, c := range cids {
		p.cids[c] = struct{}{}
	}
	return p
}

func (p *BanPlugin) Name() string { return "banlist" }

func (p *BanPlugin) OnEvent(ev session.Event, _ *session.User) error {
	switch ev.Kind {
	case session.EventLoginSuccess:
		if _, ok := p.cids[ev.User.CID]; ok {
			return &DisconnectError{Reason: session.QuitBanned, Msg: "cid " + ev.User.CID}
		}
		if _, ok := p.nicks[ev.User.Nick]; ok {
			return &DisconnectError{Reason: session.QuitBanned, Msg: "nick " + ev.User.Nick}
		}
	case session.EventNickChange:
		if _, ok := p.nicks[ev.NewNick]; ok {
			return &DisconnectError{Reason: session.QuitBanned, Msg: "nick " + ev.NewNick}
		}
	}
	return nil
}

func (p *BanPlugin) Close() error { return nil }
