package counsel

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultSettleDelay is how long the Controller waits after playback
// drains before reconciling with the history store, giving server-side
// persistence time to catch up.
const DefaultSettleDelay = 1500 * time.Millisecond

// Controller owns the persistent connection for one rendered session,
// interprets inbound envelopes, feeds text into the playback Buffer, and
// maintains the in-memory session and message state. All state transitions
// happen here and nowhere else.
//
// Envelope handling and the drain tick run on different goroutines; both
// serialize through the Controller's mutex, which is the single owner of
// the pending queue and the open assistant message.
type Controller struct {
	dialer   Dialer
	history  HistoryStore
	creds    CredentialSource
	uploader AttachmentUploader
	notify   func(Notification)
	logger   *slog.Logger
	settle   time.Duration

	mu        sync.Mutex
	sessionID string
	title     string
	messages  []Message
	state     StreamState
	status    string
	buf       *Buffer
	conn      Conn
	open      bool // last message is the open assistant message
	gen       int  // exchange generation; stale callbacks are dropped
	skipFetch bool // suppress the next LoadHistory after identity adoption
}

// Option configures a Controller.
type Option func(*Controller)

// WithUploader sets the attachment upload collaborator. Without one,
// submissions with attachments are refused.
func WithUploader(u AttachmentUploader) Option {
	return func(c *Controller) { c.uploader = u }
}

// WithNotify sets the notification handler. If not set, notifications are
// silently discarded. The handler is called from controller goroutines
// and must not call back into the Controller synchronously.
func WithNotify(fn func(Notification)) Option {
	return func(c *Controller) { c.notify = fn }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSettleDelay overrides the pre-reconciliation settle delay.
// Tests set this to zero.
func WithSettleDelay(d time.Duration) Option {
	return func(c *Controller) { c.settle = d }
}

// NewController creates a Controller for one conversation. sessionID may
// be empty for a conversation not yet created server-side.
func NewController(dialer Dialer, history HistoryStore, creds CredentialSource, sessionID string, opts ...Option) *Controller {
	c := &Controller{
		dialer:    dialer,
		history:   history,
		creds:     creds,
		sessionID: sessionID,
		logger:    slog.Default(),
		settle:    DefaultSettleDelay,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SessionID returns the current session identifier, empty if the
// conversation has not been created server-side yet.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// Title returns the conversation title from the last reconciliation.
func (c *Controller) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.title
}

// State returns the current stream state.
func (c *Controller) State() StreamState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the current transient progress label, if any.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Messages returns a snapshot of the in-memory message list.
func (c *Controller) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// SetTitle updates the conversation title through the history store and,
// on success, the local copy.
func (c *Controller) SetTitle(ctx context.Context, title string) error {
	c.mu.Lock()
	id := c.sessionID
	c.mu.Unlock()
	if id == "" {
		return ErrNoSession
	}
	if err := c.history.UpdateTitle(ctx, id, title); err != nil {
		return fmt.Errorf("update title: %w", err)
	}
	c.mu.Lock()
	c.title = title
	c.mu.Unlock()
	return nil
}

// DeleteMessage removes a persisted message from the backend and from the
// local list.
func (c *Controller) DeleteMessage(ctx context.Context, messageID string) error {
	if err := c.history.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	c.mu.Lock()
	kept := c.messages[:0]
	for _, m := range c.messages {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	c.messages = kept
	c.mu.Unlock()
	c.emit(NoteMessages{})
	return nil
}

// LoadHistory replaces the local message list and title with the
// backend's record. It is skipped while an exchange is mid-stream, and
// skipped exactly once after a meta envelope adopted a new session
// identity, since that fetch would target the old, absent id.
func (c *Controller) LoadHistory(ctx context.Context) error {
	c.mu.Lock()
	if c.skipFetch {
		c.skipFetch = false
		c.mu.Unlock()
		return nil
	}
	if c.streamingLocked() {
		c.mu.Unlock()
		c.logger.Debug("history sync skipped during active stream")
		return nil
	}
	id := c.sessionID
	c.mu.Unlock()

	if id == "" {
		return ErrNoSession
	}
	return c.fetchAndReplace(ctx, id)
}

// Submit sends user text on a fresh connection, tearing down any prior
// exchange first. It fails fast without a connection attempt when there is
// nothing to send or no credential is available, and aborts before dialing
// when an attachment upload fails. Protocol progress after a successful
// return is observed through notifications.
func (c *Controller) Submit(ctx context.Context, text string, attachments ...Attachment) error {
	text = strings.TrimSpace(text)
	if text == "" && len(attachments) == 0 {
		return ErrEmptySubmit
	}
	if text == "" {
		text = "(document submitted)"
	}

	credential, ok := c.creds.Credential()
	if !ok {
		return ErrNoCredential
	}

	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()

	// Uploads happen before the prior exchange is torn down: a failed
	// upload aborts the submission with no connection opened.
	if len(attachments) > 0 {
		if c.uploader == nil || sessionID == "" {
			return fmt.Errorf("attachments require an existing conversation: %w", ErrNoSession)
		}
		for _, att := range attachments {
			if err := c.uploader.Upload(ctx, sessionID, att); err != nil {
				return fmt.Errorf("upload %s: %w", att.Name, err)
			}
		}
	}

	c.mu.Lock()
	c.teardownLocked()
	c.gen++
	gen := c.gen
	from := c.state
	c.state = StateConnecting
	c.mu.Unlock()
	c.emit(NoteState{From: from, To: StateConnecting})

	exchangeID := uuid.NewString()
	logger := c.logger.With("exchange_id", exchangeID, "session_id", sessionID)
	logger.Debug("dialing")

	conn, err := c.dialer.Dial(ctx, credential, sessionID)
	if err != nil {
		c.mu.Lock()
		current := c.gen == gen
		if current {
			c.state = StateIdle
		}
		c.mu.Unlock()
		if current {
			c.emit(NoteState{From: StateConnecting, To: StateIdle})
			c.emit(NoteError{Message: "connection failed"})
		}
		return fmt.Errorf("dial: %w", err)
	}

	c.mu.Lock()
	if c.gen != gen {
		// A concurrent Submit superseded this exchange mid-dial.
		c.mu.Unlock()
		conn.Close()
		return nil
	}
	c.conn = conn
	c.state = StateOpen
	c.messages = append(c.messages, Message{
		Role:      RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	})
	c.open = false
	c.mu.Unlock()
	c.emit(NoteState{From: StateConnecting, To: StateOpen})
	c.emit(NoteMessages{})

	// The single outbound send of the exchange.
	if err := conn.Send(text); err != nil {
		c.failExchange(gen, "connection failed")
		return fmt.Errorf("send: %w", err)
	}

	go c.readLoop(ctx, conn, gen, logger)
	return nil
}

// Cancel closes the underlying connection early. Whatever text has been
// revealed stays as-is; queued but unrevealed text is dropped. Idempotent
// and safe to call from a teardown path.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if c.conn == nil && !c.streamingLocked() {
		c.mu.Unlock()
		return
	}
	c.teardownLocked()
	c.gen++
	from := c.state
	c.state = StateClosed
	c.mu.Unlock()
	if from != StateClosed {
		c.emit(NoteState{From: from, To: StateClosed})
	}
}

// Tick drains one playback batch into the open assistant message. It
// returns true while the exchange still needs ticking. When playback
// fully drains after an end envelope, the exchange closes and
// reconciliation is scheduled after the settle delay.
func (c *Controller) Tick() bool {
	c.mu.Lock()
	if c.state != StateStreaming && c.state != StateCompleting {
		c.mu.Unlock()
		return false
	}
	emitted, done := c.buf.Tick()
	if emitted != "" && c.open && len(c.messages) > 0 {
		c.messages[len(c.messages)-1].Content += emitted
	}
	closed := false
	var gen int
	if done && c.state == StateCompleting {
		c.state = StateClosed
		c.open = false
		c.closeConnLocked()
		closed = true
		gen = c.gen
	}
	c.mu.Unlock()

	if emitted != "" {
		c.emit(NoteMessages{})
	}
	if closed {
		c.emit(NoteState{From: StateCompleting, To: StateClosed})
		go c.reconcileAfterSettle(gen)
		return false
	}
	return true
}

// readLoop pulls envelopes off the connection until it ends. It runs as
// its own goroutine; every handled envelope takes the mutex, so envelope
// interpretation serializes with Tick and Submit.
func (c *Controller) readLoop(ctx context.Context, conn Conn, gen int, logger *slog.Logger) {
	for {
		ev, err := conn.Next()
		if err != nil {
			c.handleDisconnect(gen, err, logger)
			return
		}
		if done := c.handleEvent(ctx, gen, ev, logger); done {
			return
		}
	}
}

// handleEvent interprets one inbound envelope. Returns true when the read
// loop should stop.
func (c *Controller) handleEvent(ctx context.Context, gen int, ev Event, logger *slog.Logger) bool {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return true
	}

	switch ev := ev.(type) {
	case EventStart:
		if c.state != StateOpen {
			c.mu.Unlock()
			logger.Warn("duplicate start envelope dropped", "state", c.state.String())
			return false
		}
		c.buf = NewBuffer()
		c.messages = append(c.messages, Message{
			Role:      RoleAssistant,
			CreatedAt: time.Now(),
		})
		c.open = true
		c.state = StateStreaming
		c.mu.Unlock()
		c.emit(NoteState{From: StateOpen, To: StateStreaming})
		c.emit(NoteMessages{})

	case EventToken:
		if c.state != StateStreaming {
			c.mu.Unlock()
			logger.Warn("token outside streaming dropped", "state", c.state.String())
			return false
		}
		c.buf.Enqueue(ev.Text)
		hadStatus := c.status != ""
		c.status = ""
		c.mu.Unlock()
		if hadStatus {
			c.emit(NoteStatus{})
		}

	case EventStatus:
		c.status = ev.Label
		c.mu.Unlock()
		c.emit(NoteStatus{Label: ev.Label})

	case EventMeta:
		if c.sessionID != "" {
			c.mu.Unlock()
			return false
		}
		c.sessionID = ev.SessionID
		c.skipFetch = true
		c.mu.Unlock()
		logger.Debug("session adopted", "session_id", ev.SessionID)
		c.emit(NoteSessionAdopted{SessionID: ev.SessionID})

	case EventError:
		from := c.state
		c.state = StateErrored
		c.status = ""
		c.open = false
		if c.buf != nil {
			c.buf.DiscardPending()
		}
		c.closeConnLocked()
		c.mu.Unlock()
		c.emit(NoteState{From: from, To: StateErrored})
		c.emit(NoteError{Message: ev.Message})
		return true

	case EventEnd:
		if c.sessionID == "" && ev.SessionID != "" {
			c.sessionID = ev.SessionID
		}
		if c.buf == nil {
			// End without start: nothing was streamed.
			c.buf = NewBuffer()
		}
		c.buf.MarkExhausted()
		from := c.state
		c.state = StateCompleting
		c.status = ""
		c.mu.Unlock()
		c.emit(NoteState{From: from, To: StateCompleting})
		// Playback may still be draining; the connection stays open
		// until the backend closes it or Tick finishes the drain.

	default:
		c.mu.Unlock()
		logger.Debug("unknown event ignored", "event", fmt.Sprintf("%T", ev))
	}
	return false
}

// handleDisconnect interprets the end of the envelope stream. A normal
// close after end is expected; anything else mid-stream errors the
// exchange.
func (c *Controller) handleDisconnect(gen int, err error, logger *slog.Logger) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	switch c.state {
	case StateCompleting, StateClosed, StateErrored:
		// Expected: the backend closes after end, or we already failed.
		c.mu.Unlock()
		return
	default:
	}
	c.mu.Unlock()

	if err == io.EOF {
		logger.Warn("connection closed before end envelope")
	} else {
		logger.Warn("transport error", "err", err)
	}
	c.failExchange(gen, "connection lost")
}

// failExchange moves the exchange to Errored, preserving revealed content.
func (c *Controller) failExchange(gen int, msg string) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	from := c.state
	c.state = StateErrored
	c.status = ""
	c.open = false
	if c.buf != nil {
		c.buf.DiscardPending()
	}
	c.closeConnLocked()
	c.mu.Unlock()
	c.emit(NoteState{From: from, To: StateErrored})
	c.emit(NoteError{Message: msg})
}

// reconcileAfterSettle waits out the settle delay, then replaces the
// local message list with the backend's authoritative record. A failed
// refetch is reported; the local list stays authoritative until the next
// successful sync.
func (c *Controller) reconcileAfterSettle(gen int) {
	if c.settle > 0 {
		time.Sleep(c.settle)
	}

	c.mu.Lock()
	if c.gen != gen || c.state != StateClosed {
		c.mu.Unlock()
		return
	}
	id := c.sessionID
	c.mu.Unlock()

	if id == "" {
		return
	}
	if err := c.fetchAndReplace(context.Background(), id); err != nil {
		c.logger.Warn("history sync failed", "session_id", id, "err", err)
		c.emit(NoteError{Message: "history sync failed"})
	}
}

func (c *Controller) fetchAndReplace(ctx context.Context, id string) error {
	h, err := c.history.FetchHistory(ctx, id)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	c.mu.Lock()
	c.title = h.Title
	c.messages = make([]Message, len(h.Messages))
	copy(c.messages, h.Messages)
	c.open = false
	c.mu.Unlock()
	c.emit(NoteHistorySynced{})
	c.emit(NoteMessages{})
	return nil
}

// streamingLocked reports whether an exchange is in flight. Callers hold mu.
func (c *Controller) streamingLocked() bool {
	switch c.state {
	case StateConnecting, StateOpen, StateStreaming, StateCompleting:
		return true
	}
	return false
}

// teardownLocked releases the current exchange's resources without
// touching message content. Callers hold mu.
func (c *Controller) teardownLocked() {
	c.closeConnLocked()
	if c.buf != nil {
		c.buf.DiscardPending()
	}
	c.open = false
	c.status = ""
}

func (c *Controller) closeConnLocked() {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// emit delivers a notification outside the mutex.
func (c *Controller) emit(n Notification) {
	if c.notify != nil {
		c.notify(n)
	}
}
