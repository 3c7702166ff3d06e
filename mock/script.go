package mock

import (
	"io"
	"sync"

	"github.com/counsel-cli/counsel"
)

// ScriptConn is a Conn that replays a fixed sequence of events and then
// reports a clean close. Next blocks forever after the script is
// exhausted until Close is called, mirroring a server that holds the
// connection open; pass trailing nil entries or call Close from the test
// to release a blocked reader.
type ScriptConn struct {
	mu     sync.Mutex
	events []counsel.Event
	closed chan struct{}
	once   sync.Once
	sent   []string
}

// NewScriptConn creates a ScriptConn replaying the given events.
func NewScriptConn(events ...counsel.Event) *ScriptConn {
	return &ScriptConn{
		events: events,
		closed: make(chan struct{}),
	}
}

// Send records the outbound text for later assertions.
func (c *ScriptConn) Send(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.closed:
		return counsel.ErrConnClosed
	default:
	}
	c.sent = append(c.sent, text)
	return nil
}

// Sent returns a snapshot of everything sent on the connection.
func (c *ScriptConn) Sent() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

// Next replays the next scripted event, then blocks until Close, then
// returns io.EOF.
func (c *ScriptConn) Next() (counsel.Event, error) {
	c.mu.Lock()
	if len(c.events) > 0 {
		ev := c.events[0]
		c.events = c.events[1:]
		c.mu.Unlock()
		return ev, nil
	}
	c.mu.Unlock()

	<-c.closed
	return nil, io.EOF
}

// Close releases any blocked Next. Idempotent.
func (c *ScriptConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

// Closed reports whether Close has been called.
func (c *ScriptConn) Closed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

// Interface compliance check.
var _ counsel.Conn = (*ScriptConn)(nil)
