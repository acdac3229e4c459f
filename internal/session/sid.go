package session

import (
	"sync"
)

const (
	sidAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ234567"
	sidChars    = 4
	// MaxSID is the largest SID representable in four base32 characters.
	MaxSID = 1<<(5*sidChars) - 1
)

// SID is the hub-assigned session identifier, rendered as four base32
// characters on the wire and in logs.
type SID uint32

func (s SID) String() string {
	var buf [sidChars]byte
	v := uint32(s)
	for i := sidChars - 1; i >= 0; i-- {
		buf[i] = sidAlphabet[v&0x1f]
		v >>= 5
	}
	return string(buf[:])
}

// SIDPool hands out SIDs to new connections. SID 0 is never used.
type SIDPool struct {
	mu    sync.Mutex
	inUse map[SID]bool
	next  SID
	max   SID
}

func NewSIDPool(capacity int) *SIDPool {
	if capacity <= 0 || capacity > MaxSID {
		capacity = MaxSID
	}
	return &SIDPool{
		inUse: make(map[SID]bool),
		next:  1,
		max:   SID(capacity),
	}
}

// Allocate returns a free SID, or false when the pool is exhausted.
func (p *SIDPool) Allocate() (SID, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.inUse) >= int(p.max) {
		return 0, false
	}
	for {
		sid := p.next
		p.next++
		if p.next > p.max {
			p.next = 1
		}
		if !p.inUse[sid] {
			p.inUse[sid] = true
			return sid, true
		}
	}
}

func (p *SIDPool) Release(sid SID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inUse, sid)
}

func (p *SIDPool) InUse() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.inUse)
}
