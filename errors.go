package counsel

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrNoCredential indicates Submit was refused because no
	// authentication credential is available. No connection is attempted.
	ErrNoCredential = errors.New("no credential available")

	// ErrEmptySubmit indicates Submit was called with neither text nor
	// pending attachments.
	ErrEmptySubmit = errors.New("nothing to submit")

	// ErrNoSession indicates an operation that requires a server-side
	// session was attempted before one exists.
	ErrNoSession = errors.New("no session")

	// ErrConnClosed indicates an operation on a closed connection.
	ErrConnClosed = errors.New("connection closed")
)
