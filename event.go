package counsel

// Event is a sealed interface representing one inbound protocol envelope,
// decoded from the wire by a transport. Events are purely semantic:
// transport failures come from Conn.Next()'s error return, not from events.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventStart signals that the backend has begun generating a reply. The
// client opens a new empty assistant message and starts playback.
type EventStart struct{}

func (EventStart) event() {}

// EventToken carries a text fragment of the reply. Fragments go into the
// playback buffer, not directly into the visible message.
type EventToken struct {
	Text string
}

func (EventToken) event() {}

// EventStatus carries a transient human-readable progress label such as
// "thinking". It does not affect the playback buffer.
type EventStatus struct {
	Label string
}

func (EventStatus) event() {}

// EventMeta delivers the server-assigned session identifier. Sent at most
// once per exchange, only when the exchange created a new session.
type EventMeta struct {
	SessionID string
}

func (EventMeta) event() {}

// EventError reports a generation failure. The message is surfaced to the
// user verbatim and the exchange terminates.
type EventError struct {
	Message string
}

func (EventError) event() {}

// EventEnd marks server-side completion of the reply. SessionID may be
// empty; when present it names the session the exchange belongs to.
type EventEnd struct {
	SessionID string
}

func (EventEnd) event() {}

// Interface compliance checks.
var (
	_ Event = EventStart{}
	_ Event = EventToken{}
	_ Event = EventStatus{}
	_ Event = EventMeta{}
	_ Event = EventError{}
	_ Event = EventEnd{}
)
