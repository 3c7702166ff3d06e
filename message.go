package counsel

import "time"

// Message is one turn in a conversation. ID is empty until the backend has
// persisted the message; Content is mutable only while the message is the
// open assistant message of an active stream.
type Message struct {
	ID        string
	Role      Role
	Content   string
	CreatedAt time.Time
}

// History is the authoritative record of a session as returned by the
// backend after a stream completes.
type History struct {
	Title    string
	Messages []Message
}
