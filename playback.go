package counsel

import (
	"sync"
	"time"
)

// DefaultTickInterval is the recommended cadence for draining a Buffer.
// The batch-size step function in BatchSize assumes roughly this rate.
const DefaultTickInterval = 15 * time.Millisecond

// BatchSize returns how many characters a single tick releases for a
// pending queue of length n. Larger backlogs release proportionally more
// so a reader returning from a backgrounded terminal catches up quickly
// instead of watching a multi-second replay at normal speed.
func BatchSize(n int) int {
	switch {
	case n > 200:
		return 50
	case n > 50:
		return 15
	case n > 20:
		return 5
	default:
		return 2
	}
}

// Buffer decouples the arrival rate of streamed text from its reveal
// rate. Enqueue appends pending text; Tick releases the next batch in
// FIFO order. Draining is finished only when the queue is empty and the
// source is exhausted; an empty queue alone merely idles the drain, since
// more tokens may still arrive.
//
// Buffer is safe for concurrent use: envelope arrival (producer) and the
// tick scheduler (consumer) run on different goroutines.
type Buffer struct {
	mu        sync.Mutex
	pending   []rune
	exhausted bool
}

// NewBuffer returns an empty Buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Enqueue appends text to the pending queue. Text is queued as runes so a
// tick boundary never splits a multi-byte character.
func (b *Buffer) Enqueue(text string) {
	if text == "" {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, []rune(text)...)
	b.mu.Unlock()
}

// MarkExhausted records that no further text will arrive.
func (b *Buffer) MarkExhausted() {
	b.mu.Lock()
	b.exhausted = true
	b.mu.Unlock()
}

// DiscardPending drops all queued but unrevealed text and marks the
// source exhausted. Used when an exchange errors out: already-revealed
// content is left alone, nothing further is revealed.
func (b *Buffer) DiscardPending() {
	b.mu.Lock()
	b.pending = nil
	b.exhausted = true
	b.mu.Unlock()
}

// Len returns the current pending queue length in characters.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Tick is the pure drain transition: it removes the next batch from the
// queue and returns it, along with whether draining is finished. done is
// true only when the queue is empty and the source is exhausted, never
// merely because the queue is momentarily empty.
func (b *Buffer) Tick() (emitted string, done bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.pending) == 0 {
		return "", b.exhausted
	}

	n := BatchSize(len(b.pending))
	if n > len(b.pending) {
		n = len(b.pending)
	}
	emitted = string(b.pending[:n])
	b.pending = b.pending[n:]

	return emitted, len(b.pending) == 0 && b.exhausted
}
