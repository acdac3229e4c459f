package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	ErrDuplicate   = errors.New("duplicate user")
	ErrNotLoggedIn = errors.New("user is not logged in")
)

// Registry is the set of admitted users, indexed by SID, CID and nick.
//
// Snapshot returns a point-in-time consistent copy of the membership taken
// under the read lock. Admissions are additionally serialized through
// LockAdmission so that a roster snapshot and the matching Add happen without
// another admission in between.
//
// Only users in StateNormal can be added. The state is checked under the
// write lock, so a disconnect racing an Add either sees the user registered
// and removes it, or the Add is refused.
type Registry struct {
	admitMu sync.Mutex

	mu     sync.RWMutex
	bySID  map[SID]*member
	byCID  map[string]*User
	byNick map[string]*User
	peak   int
}

// member remembers the keys a user was indexed under, since the user's own
// fields may change while it is registered.
type member struct {
	user *User
	cid  string
	nick string
}

func NewRegistry() *Registry {
	return &Registry{
		bySID:  make(map[SID]*member),
		byCID:  make(map[string]*User),
		byNick: make(map[string]*User),
	}
}

func (r *Registry) LockAdmission() {
	r.admitMu.Lock()
}

func (r *Registry) UnlockAdmission() {
	r.admitMu.Unlock()
}

func (r *Registry) Add(u *User) error {
	info := u.Info()

	r.mu.Lock()
	defer r.mu.Unlock()
	if !u.IsLoggedIn() {
		return fmt.Errorf("sid %s: %w", info.SID, ErrNotLoggedIn)
	}
	if _, ok := r.bySID[u.SID]; ok {
		return fmt.Errorf("sid %s: %w", info.SID, ErrDuplicate)
	}
	if _, ok := r.byCID[info.CID]; ok {
		return fmt.Errorf("cid %s: %w", info.CID, ErrDuplicate)
	}
	if _, ok := r.byNick[info.Nick]; ok {
		return fmt.Errorf("nick %q: %w", info.Nick, ErrDuplicate)
	}
	r.bySID[u.SID] = &member{user: u, cid: info.CID, nick: info.Nick}
	r.byCID[info.CID] = u
	r.byNick[info.Nick] = u
	if len(r.bySID) > r.peak {
		r.peak = len(r.bySID)
	}
	return nil
}

// Remove deletes u and reports whether it was a member.
func (r *Registry) Remove(u *User) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.bySID[u.SID]
	if !ok || m.user != u {
		return false
	}
	delete(r.bySID, u.SID)
	delete(r.byCID, m.cid)
	delete(r.byNick, m.nick)
	return true
}

// Rename moves u's nick index entry. The caller commits the nick on the user.
func (r *Registry) Rename(u *User, newNick string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.bySID[u.SID]
	if !ok || m.user != u {
		return fmt.Errorf("sid %s not registered", u.SID)
	}
	if other, ok := r.byNick[newNick]; ok && other != u {
		return fmt.Errorf("nick %q: %w", newNick, ErrDuplicate)
	}
	delete(r.byNick, m.nick)
	r.byNick[newNick] = u
	m.nick = newNick
	return nil
}

func (r *Registry) FindByNick(nick string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byNick[nick]
	return u, ok
}

func (r *Registry) FindByCID(cid string) (*User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byCID[cid]
	return u, ok
}

func (r *Registry) Contains(u *User) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.bySID[u.SID]
	return ok && m.user == u
}

// Snapshot returns the current members ordered by SID.
func (r *Registry) Snapshot() []*User {
	r.mu.RLock()
	result := make([]*User, 0, len(r.bySID))
	for _, m := range r.bySID {
		result = append(result, m.user)
	}
	r.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool { return result[i].SID < result[j].SID })
	return result
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.bySID)
}

// Peak is the highest member count seen.
func (r *Registry) Peak() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.peak
}
