package session

import (
	"sync"
	"sync/atomic"
	"time"
)

// Conn is the transport side of a user: a bounded, non-blocking outbound
// queue plus the handshake timer.
type Conn interface {
	Send(data []byte) error
	Close()
	ClearTimeout()
}

// User is one connected client. Identity fields are written by the owning
// connection's read loop and read concurrently by fan-out, so they are
// guarded by mu. State is atomic so that a disconnect triggered elsewhere is
// visible between the steps of a login sequence.
type User struct {
	SID         SID
	Addr        string
	ConnectedAt time.Time

	conn Conn

	mu          sync.RWMutex
	cid         string
	nick        string
	agent       string
	credentials Credentials
	credSet     bool
	loggedInAt  time.Time

	state atomic.Int32
	quit  atomic.Int32
}

func NewUser(sid SID, addr string, conn Conn) *User {
	return &User{
		SID:         sid,
		Addr:        addr,
		ConnectedAt: time.Now(),
		conn:        conn,
	}
}

func (u *User) Conn() Conn {
	return u.conn
}

func (u *User) CID() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.cid
}

func (u *User) Nick() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.nick
}

func (u *User) UserAgent() string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.agent
}

func (u *User) Credentials() Credentials {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.credentials
}

func (u *User) LoggedInAt() time.Time {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.loggedInAt
}

// SetIdentity records the client-presented identity during the handshake.
func (u *User) SetIdentity(cid, nick, agent string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.cid = cid
	u.nick = nick
	u.agent = agent
}

func (u *User) SetNick(nick string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.nick = nick
}

// SetCredentials assigns the credentials once. Later calls are ignored and
// report false.
func (u *User) SetCredentials(c Credentials) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.credSet {
		return false
	}
	u.credentials = c
	u.credSet = true
	return true
}

func (u *User) State() State {
	return State(u.state.Load())
}

// IsLoggedIn reports whether the user is admitted (StateNormal).
func (u *User) IsLoggedIn() bool {
	return u.State() == StateNormal
}

// Admit moves a connecting user to StateNormal. It fails if the user is
// already normal or has started disconnecting.
func (u *User) Admit() bool {
	if !u.state.CompareAndSwap(int32(StateConnecting), int32(StateNormal)) {
		return false
	}
	u.mu.Lock()
	u.loggedInAt = time.Now()
	u.mu.Unlock()
	return true
}

// BeginDisconnect moves the user to StateDisconnecting and records reason.
// Only the first call succeeds; it returns the state the user was in.
func (u *User) BeginDisconnect(reason QuitReason) (State, bool) {
	for {
		cur := u.state.Load()
		if State(cur) == StateDisconnecting {
			return StateDisconnecting, false
		}
		if u.state.CompareAndSwap(cur, int32(StateDisconnecting)) {
			u.quit.Store(int32(reason))
			return State(cur), true
		}
	}
}

func (u *User) QuitReason() QuitReason {
	return QuitReason(u.quit.Load())
}

// Info is a point-in-time copy of the user's public identity.
type Info struct {
	SID         string      `json:"sid"`
	CID         string      `json:"cid"`
	Nick        string      `json:"nick"`
	UserAgent   string      `json:"agent,omitempty"`
	Addr        string      `json:"addr,omitempty"`
	Credentials Credentials `json:"credentials"`
}

func (u *User) Info() Info {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return Info{
		SID:         u.SID.String(),
		CID:         u.cid,
		Nick:        u.nick,
		UserAgent:   u.agent,
		Addr:        u.Addr,
		Credentials: u.credentials,
	}
}
