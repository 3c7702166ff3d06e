package counsel

// Notification is a sealed interface for progress reports from the
// Controller to its observer. Notifications replace ambient broadcast
// signalling: the UI registers a single handler and receives typed values.
// The unexported marker method prevents external implementations.
type Notification interface {
	notification()
}

// NoteState reports a StreamState transition.
type NoteState struct {
	From StreamState
	To   StreamState
}

func (NoteState) notification() {}

// NoteMessages reports that the message list or the open assistant
// message's content changed. Observers re-read via Controller.Messages.
type NoteMessages struct{}

func (NoteMessages) notification() {}

// NoteStatus reports a transient progress label. An empty label clears it.
type NoteStatus struct {
	Label string
}

func (NoteStatus) notification() {}

// NoteSessionAdopted reports that the backend assigned an identifier to a
// previously unsaved conversation.
type NoteSessionAdopted struct {
	SessionID string
}

func (NoteSessionAdopted) notification() {}

// NoteError reports a user-visible failure. The exchange has already been
// moved to a consistent terminal state when this is delivered.
type NoteError struct {
	Message string
}

func (NoteError) notification() {}

// NoteHistorySynced reports that reconciliation replaced the local
// message list with the backend's authoritative record.
type NoteHistorySynced struct{}

func (NoteHistorySynced) notification() {}

// Interface compliance checks.
var (
	_ Notification = NoteState{}
	_ Notification = NoteMessages{}
	_ Notification = NoteStatus{}
	_ Notification = NoteSessionAdopted{}
	_ Notification = NoteError{}
	_ Notification = NoteHistorySynced{}
)
