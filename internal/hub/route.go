package hub

import (
	"errors"

	"github.com/adchub/hub/internal/session"
	"github.com/adchub/hub/internal/status"
)

// sendTo queues data for u. A user whose queue is full is disconnected.
func (h *Hub) sendTo(u *session.User, data []byte) bool {
	c := u.Conn()
	if c == nil || data == nil {
		return false
	}
	err := c.Send(data)
	if err == nil {
		return true
	}
	if errors.Is(err, session.ErrSendQueueFull) {
		h.Disconnect(u, session.QuitSendQueue)
	}
	return false
}

// infoFor renders info as viewer may see it.
func (h *Hub) infoFor(info session.Info, viewer *session.User) session.Info {
	if h.privacy.IsNoop() {
		return info
	}
	return h.privacy.Apply(info, viewer.Credentials())
}

// SendRoster sends u the info of every admitted user.
func (h *Hub) SendRoster(u *session.User) bool {
	members := h.registry.Snapshot()
	infos := make([]session.Info, 0, len(members))
	for _, m := range members {
		if m == u || !m.IsLoggedIn() {
			continue
		}
		infos = append(infos, h.infoFor(m.Info(), u))
	}
	return h.sendTo(u, encode(MsgRoster, RosterPayload{Users: infos}))
}

// BroadcastInfo announces u's info to every other admitted user.
func (h *Hub) BroadcastInfo(u *session.User) {
	info := u.Info()
	h.broadcast(u, func(viewer *session.User) []byte {
		return encode(MsgInfo, InfoPayload{User: h.infoFor(info, viewer)})
	})
}

// BroadcastQuit tells every admitted user that u left.
func (h *Hub) BroadcastQuit(u *session.User, reason session.QuitReason) {
	data := encode(MsgQuit, QuitPayload{SID: u.SID.String(), Reason: reason.String()})
	h.broadcast(u, func(*session.User) []byte { return data })
}

func (h *Hub) broadcastChat(from *session.User, text string) {
	data := encode(MsgChat, ChatMessagePayload{From: from.SID.String(), Nick: from.Nick(), Text: text})
	h.broadcast(nil, func(*session.User) []byte { return data })
}

// broadcast sends to a snapshot of the registry, skipping except. Render is
// called once per recipient; failures are per recipient.
func (h *Hub) broadcast(except *session.User, render func(viewer *session.User) []byte) {
	for _, m := range h.registry.Snapshot() {
		if m == except || !m.IsLoggedIn() {
			continue
		}
		h.sendTo(m, render(m))
	}
}

// SendMOTD sends the message of the day, if one is configured.
func (h *Hub) SendMOTD(u *session.User) bool {
	if h.cfg.Hub.MOTD == "" {
		return true
	}
	return h.sendTo(u, encode(MsgMOTD, TextPayload{Text: h.cfg.Hub.MOTD}))
}

// SendRules sends the hub rules, if configured.
func (h *Hub) SendRules(u *session.User) bool {
	if h.cfg.Hub.Rules == "" {
		return true
	}
	return h.sendTo(u, encode(MsgRules, TextPayload{Text: h.cfg.Hub.Rules}))
}

func (h *Hub) SendStatus(u *session.User, code status.Code, level status.Level) {
	h.sendTo(u, encode(MsgStatus, StatusPayload{
		Code:    code,
		Level:   level,
		Message: h.resolver.Message(code),
	}))
}

// Users lists the admitted users as a viewer with the given credentials may
// see them.
func (h *Hub) Users(viewer session.Credentials) []session.Info {
	members := h.registry.Snapshot()
	infos := make([]session.Info, 0, len(members))
	for _, m := range members {
		infos = append(infos, m.Info())
	}
	if h.privacy.IsNoop() {
		return infos
	}
	return h.privacy.FilterSlice(infos, viewer)
}
