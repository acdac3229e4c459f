package hub

import (
	"encoding/json"
	"log"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/adchub/hub/internal/hubevent"
	"github.com/adchub/hub/internal/session"
	"github.com/adchub/hub/internal/status"
)

const maxCIDLength = 64

// HandleMessage decodes one client message and acts on it. It must be
// called from u's read loop only.
func (h *Hub) HandleMessage(u *session.User, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("user %s: malformed message: %v", u.SID, err)
		h.Disconnect(u, session.QuitProtocolError)
		return
	}

	switch msg.Type {
	case MsgLogin:
		var p LoginPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.Disconnect(u, session.QuitProtocolError)
			return
		}
		h.handleLogin(u, p)
	case MsgUpdate:
		var p UpdatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.Disconnect(u, session.QuitProtocolError)
			return
		}
		h.handleUpdate(u, p)
	case MsgChat:
		var p ChatPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			h.Disconnect(u, session.QuitProtocolError)
			return
		}
		h.handleChat(u, p)
	default:
		log.Printf("user %s: unknown message type %q", u.SID, msg.Type)
		h.Disconnect(u, session.QuitProtocolError)
	}
}

func (h *Hub) handleLogin(u *session.User, p LoginPayload) {
	if u.State() != session.StateConnecting {
		h.Disconnect(u, session.QuitProtocolError)
		return
	}

	// Identity is recorded first so a refused login is logged with it.
	u.SetIdentity(p.CID, p.Nick, p.Agent)

	code, creds := h.checkLogin(p)
	if code != status.OK {
		hubevent.OnLoginFailure(h, u, code)
		return
	}

	limit := h.cfg.Hub.MaxUsers
	if creds.IsOperator() {
		limit = 0
	}
	if code := h.claims.claim(h.registry, u, p.CID, p.Nick, limit); code != status.OK {
		hubevent.OnLoginFailure(h, u, code)
		return
	}
	defer h.claims.release(u, p.CID, p.Nick)

	u.SetCredentials(creds)
	hubevent.OnLoginSuccess(h, u)
}

// checkLogin applies every login rule that does not depend on other users.
func (h *Hub) checkLogin(p LoginPayload) (status.Code, session.Credentials) {
	if !h.cfg.Hub.Enabled {
		return status.HubDisabled, session.CredNone
	}
	if p.Version != ProtocolVersion {
		return status.VersionMismatch, session.CredNone
	}
	if code := validateCID(p.CID); code != status.OK {
		return code, session.CredNone
	}
	if code := h.validateNick(p.Nick); code != status.OK {
		return code, session.CredNone
	}

	creds := session.CredGuest
	if acct, ok := h.cfg.Account(p.Nick); ok {
		if !acct.CheckPassword(p.Password) {
			return status.InvalidPassword, session.CredNone
		}
		creds = acct.AccountCredentials()
	} else if h.cfg.Hub.RegisteredUsersOnly {
		return status.RegisteredUsersOnly, session.CredNone
	}

	return status.OK, creds
}

func (h *Hub) handleUpdate(u *session.User, p UpdatePayload) {
	if !u.IsLoggedIn() {
		h.SendStatus(u, status.LoginRequired, status.LevelRecoverable)
		return
	}
	if p.Nick == "" || p.Nick == u.Nick() {
		return
	}

	if code := h.validateNick(p.Nick); code != status.OK {
		hubevent.OnUpdateFailure(h, u, code)
		return
	}
	if code := h.claims.claim(h.registry, u, "", p.Nick, 0); code != status.OK {
		hubevent.OnUpdateFailure(h, u, code)
		return
	}
	defer h.claims.release(u, "", p.Nick)

	hubevent.OnNickChange(h, u, p.Nick)
	if err := h.registry.Rename(u, p.Nick); err != nil {
		// u was disconnected by an observer plugin.
		return
	}
	u.SetNick(p.Nick)
	h.BroadcastInfo(u)
}

func (h *Hub) handleChat(u *session.User, p ChatPayload) {
	if !u.IsLoggedIn() {
		h.SendStatus(u, status.LoginRequired, status.LevelRecoverable)
		return
	}
	text := strings.TrimSpace(p.Text)
	if text == "" {
		return
	}
	h.broadcastChat(u, text)
}

func (h *Hub) validateNick(nick string) status.Code {
	if nick == "" {
		return status.NickEmpty
	}
	if !utf8.ValidString(nick) {
		return status.NickBadChars
	}
	n := utf8.RuneCountInString(nick)
	if n < h.cfg.Hub.NickMinLength {
		return status.NickTooShort
	}
	if n > h.cfg.Hub.NickMaxLength {
		return status.NickTooLong
	}
	first, _ := utf8.DecodeRuneInString(nick)
	if unicode.IsSpace(first) {
		return status.NickSpaces
	}
	for _, r := range nick {
		if unicode.IsControl(r) || r == '$' || r == '|' {
			return status.NickBadChars
		}
	}
	return status.OK
}

func validateCID(cid string) status.Code {
	if cid == "" || len(cid) > maxCIDLength {
		return status.CIDInvalid
	}
	for _, r := range cid {
		if !(r >= 'A' && r <= 'Z' || r >= '2' && r <= '7') {
			return status.CIDInvalid
		}
	}
	return status.OK
}

// claim reserves nick and, when non-empty, cid for u. It fails when an
// admitted user other than u or another pending claim holds either. A
// positive limit caps admitted users plus pending logins.
func (c *claims) claim(reg *session.Registry, u *session.User, cid, nick string, limit int) status.Code {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit > 0 {
		pending := 0
		for _, other := range c.cids {
			if other != u && !reg.Contains(other) {
				pending++
			}
		}
		if reg.Count()+pending >= limit {
			return status.HubFull
		}
	}

	if other, ok := reg.FindByNick(nick); ok && other != u {
		return status.NickTaken
	}
	if other, ok := c.nicks[nick]; ok && other != u {
		return status.NickTaken
	}
	if cid != "" {
		if other, ok := reg.FindByCID(cid); ok && other != u {
			return status.CIDTaken
		}
		if other, ok := c.cids[cid]; ok && other != u {
			return status.CIDTaken
		}
		c.cids[cid] = u
	}
	c.nicks[nick] = u
	return status.OK
}

func (c *claims) release(u *session.User, cid, nick string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nicks[nick] == u {
		delete(c.nicks, nick)
	}
	if cid != "" && c.cids[cid] == u {
		delete(c.cids, cid)
	}
}
