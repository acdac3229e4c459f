package ws

import (
	"sync"
	"time"

	"github.com/adchub/hub/internal/session"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 64 * 1024
)

// Conn is a websocket connection with a bounded outgoing queue drained by a
// single writer goroutine.
type Conn struct {
	ws   *websocket.Conn
	send chan []byte

	mu      sync.Mutex
	closed  bool
	timeout *time.Timer
}

var _ session.Conn = (*Conn)(nil)

func newConn(ws *websocket.Conn, queueSize int) *Conn {
	c := &Conn{
		ws:   ws,
		send: make(chan []byte, queueSize),
	}
	go c.writePump()
	return c
}

// writePump writes queued messages until the queue is closed, then sends a
// close frame. Messages queued before Close are still delivered.
func (c *Conn) writePump() {
	defer c.ws.Close()
	for msg := range c.send {
		c.ws.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// Send queues data without blocking.
func (c *Conn) Send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return session.ErrConnClosed
	}
	select {
	case c.send <- data:
		return nil
	default:
		return session.ErrSendQueueFull
	}
}

func (c *Conn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	if c.timeout != nil {
		c.timeout.Stop()
	}
}

// StartTimeout calls fn after d unless ClearTimeout or Close runs first.
func (c *Conn) StartTimeout(d time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timeout != nil {
		c.timeout.Stop()
	}
	c.timeout = time.AfterFunc(d, fn)
}

func (c *Conn) ClearTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timeout != nil {
		c.timeout.Stop()
		c.timeout = nil
	}
}
