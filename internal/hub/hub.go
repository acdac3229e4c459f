// Package hub ties the registry, the status resolver and the audit sink
// together. It implements the collaborators the hubevent handlers drive and
// the protocol-level login and update checks that decide which handler runs.
package hub

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adchub/hub/internal/audit"
	"github.com/adchub/hub/internal/config"
	"github.com/adchub/hub/internal/history"
	"github.com/adchub/hub/internal/hubevent"
	"github.com/adchub/hub/internal/session"
	"github.com/adchub/hub/internal/status"
)

var ErrHubFull = errors.New("no free session ids")

type Hub struct {
	cfg      *config.Config
	registry *session.Registry
	sids     *session.SIDPool
	resolver *status.Resolver
	sink     audit.Sink
	privacy  *session.PrivacyFilter
	started  time.Time

	claims *claims

	// conns holds every connected user; the value records whether it was
	// ever registered.
	connMu sync.Mutex
	conns  map[*session.User]bool

	history *history.Store
	past    history.Totals
	peakAt  atomic.Int64

	logins         atomic.Uint64
	loginFailures  atomic.Uint64
	updateFailures atomic.Uint64
	logouts        atomic.Uint64
}

var _ hubevent.Hub = (*Hub)(nil)

func New(cfg *config.Config, sink audit.Sink) (*Hub, error) {
	resolver, err := status.NewResolver(cfg.Messages)
	if err != nil {
		return nil, fmt.Errorf("status messages: %w", err)
	}
	if sink == nil {
		return nil, errors.New("hub: nil audit sink")
	}

	h := &Hub{
		cfg:      cfg,
		registry: session.NewRegistry(),
		sids:     session.NewSIDPool(2 * cfg.Hub.MaxUsers),
		resolver: resolver,
		sink:     sink,
		privacy:  cfg.Privacy.NewPrivacyFilter(),
		started:  time.Now(),
		claims:   newClaims(),
		conns:    make(map[*session.User]bool),
	}

	if obs, ok := sink.(*audit.Observer); ok {
		obs.SetDisconnect(h.Disconnect)
	}

	if cfg.Hub.StateDir != "" {
		h.history = history.NewStore(cfg.Hub.StateDir)
		past, err := h.history.Load()
		if err != nil {
			return nil, fmt.Errorf("hub history: %w", err)
		}
		h.past = *past
	}
	return h, nil
}

// Connect creates a user for a new connection and greets it with its SID.
func (h *Hub) Connect(addr string, conn session.Conn) (*session.User, error) {
	sid, ok := h.sids.Allocate()
	if !ok {
		return nil, ErrHubFull
	}
	u := session.NewUser(sid, addr, conn)
	h.connMu.Lock()
	h.conns[u] = false
	h.connMu.Unlock()

	h.sendTo(u, encode(MsgHello, HelloPayload{
		SID:         sid.String(),
		HubName:     h.cfg.Hub.Name,
		Description: h.cfg.Hub.Description,
		Version:     ProtocolVersion,
	}))
	return u, nil
}

// Leave is called once from the user's read loop when the connection ends.
// Only users that were admitted get a logout.
func (h *Hub) Leave(u *session.User) {
	h.Disconnect(u, session.QuitDisconnected)

	h.connMu.Lock()
	registered := h.conns[u]
	delete(h.conns, u)
	h.connMu.Unlock()

	if registered {
		hubevent.OnLogoutUser(h, u)
	}
	h.sids.Release(u.SID)
}

// Connections is the number of connections that have not yet left.
func (h *Hub) Connections() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return len(h.conns)
}

// Shutdown disconnects every connected user, logged in or not.
func (h *Hub) Shutdown() {
	h.connMu.Lock()
	users := make([]*session.User, 0, len(h.conns))
	for u := range h.conns {
		users = append(users, u)
	}
	h.connMu.Unlock()

	for _, u := range users {
		h.Disconnect(u, session.QuitHubDisabled)
	}
}

func (h *Hub) LockAdmission() {
	h.registry.LockAdmission()
}

func (h *Hub) UnlockAdmission() {
	h.registry.UnlockAdmission()
}

func (h *Hub) AddUser(u *session.User) error {
	if err := h.registry.Add(u); err != nil {
		return err
	}
	h.connMu.Lock()
	if _, ok := h.conns[u]; ok {
		h.conns[u] = true
	}
	h.connMu.Unlock()
	h.logins.Add(1)
	if h.registry.Count() >= h.registry.Peak() {
		h.peakAt.Store(time.Now().UnixNano())
	}
	return nil
}

// Disconnect is idempotent. An admitted user is removed from the registry
// and the remaining users are told it quit.
func (h *Hub) Disconnect(u *session.User, reason session.QuitReason) {
	prev, ok := u.BeginDisconnect(reason)
	if !ok {
		return
	}

	switch reason {
	case session.QuitLogonError:
		h.loginFailures.Add(1)
	case session.QuitUpdateError:
		h.updateFailures.Add(1)
	}

	if prev == session.StateNormal && h.registry.Remove(u) {
		h.BroadcastQuit(u, reason)
	}
	if c := u.Conn(); c != nil {
		c.Close()
	}
}

func (h *Hub) ClearTimeout(u *session.User) {
	if c := u.Conn(); c != nil {
		c.ClearTimeout()
	}
}

func (h *Hub) StatusMessage(code status.Code) string {
	return h.resolver.Message(code)
}

func (h *Hub) StatusMessageLog(code status.Code) string {
	return h.resolver.LogMessage(code)
}

func (h *Hub) Sink() audit.Sink {
	return h.sink
}

// SaveHistory folds this run's counters into the persisted totals. It is a
// no-op when no state directory is configured.
func (h *Hub) SaveHistory() error {
	if h.history == nil {
		return nil
	}
	t := h.allTime()
	return h.history.Save(&t)
}

func (h *Hub) allTime() history.Totals {
	t := h.past
	run := history.Totals{
		Logins:         h.logins.Load(),
		LoginFailures:  h.loginFailures.Load(),
		UpdateFailures: h.updateFailures.Load(),
		Logouts:        h.logouts.Load(),
		PeakUsers:      h.registry.Peak(),
	}
	if at := h.peakAt.Load(); at != 0 {
		run.PeakUsersAt = time.Unix(0, at).UTC()
	}
	t.Add(run)
	return t
}

// LogoutLog removes u from the registry if it is still there and records
// the session in the hub counters.
func (h *Hub) LogoutLog(u *session.User) {
	h.registry.Remove(u)
	h.logouts.Add(1)

	if at := u.LoggedInAt(); !at.IsZero() {
		log.Printf("user %s %q online for %s", u.SID, u.Nick(), time.Since(at).Round(time.Second))
	}
}

// claims reserves nicks and CIDs for users between validation and
// registration, so two concurrent logins cannot both pass the "taken" checks.
type claims struct {
	mu    sync.Mutex
	nicks map[string]*session.User
	cids  map[string]*session.User
}

func newClaims() *claims {
	return &claims{
		nicks: make(map[string]*session.User),
		cids:  make(map[string]*session.User),
	}
}
