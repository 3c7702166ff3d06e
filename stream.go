package counsel

import "context"

// StreamState describes the lifecycle of one exchange. Exactly one
// StreamState exists per controller at a time; transitions happen only
// inside the Controller's envelope interpretation.
type StreamState int

const (
	StateIdle       StreamState = iota // No exchange in progress.
	StateConnecting                    // Dialing the backend.
	StateOpen                          // Connected, awaiting the first start envelope.
	StateStreaming                     // Receiving token envelopes.
	StateCompleting                    // End received, playback still draining.
	StateClosed                        // Playback drained, exchange finished.
	StateErrored                       // Transport or protocol error terminated the exchange.
)

// String returns a short lowercase name for logging and status display.
func (s StreamState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateStreaming:
		return "streaming"
	case StateCompleting:
		return "completing"
	case StateClosed:
		return "closed"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Conn is one persistent bidirectional connection for a single exchange.
// Send transmits the user's text exactly once after the connection opens.
// Next blocks for the next decoded envelope; it returns io.EOF when the
// backend closes the connection normally, and a non-EOF error on transport
// failure. Close is safe to call concurrently with a blocked Next.
type Conn interface {
	Send(text string) error
	Next() (Event, error)
	Close() error
}

// Dialer establishes a fresh connection for an exchange. sessionID is
// empty when the conversation does not yet exist server-side; the backend
// then creates one and reports its identifier via a meta envelope.
type Dialer interface {
	Dial(ctx context.Context, credential, sessionID string) (Conn, error)
}
