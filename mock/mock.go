// Package mock provides test doubles for the counsel interfaces.
// Doubles follow a function-field pattern: set the fields for the methods
// a test needs. Methods whose field is nil either panic (to catch missing
// setup) or no-op, documented per method.
package mock

import (
	"context"

	"github.com/counsel-cli/counsel"
)

// Interface compliance checks.
var (
	_ counsel.Dialer             = (*Dialer)(nil)
	_ counsel.Conn               = (*Conn)(nil)
	_ counsel.HistoryStore       = (*HistoryStore)(nil)
	_ counsel.CredentialSource   = (*CredentialSource)(nil)
	_ counsel.AttachmentUploader = (*Uploader)(nil)
)

// Dialer is a test double for counsel.Dialer. DialFn panics when nil.
type Dialer struct {
	DialFn func(ctx context.Context, credential, sessionID string) (counsel.Conn, error)
}

// Dial delegates to DialFn.
func (d *Dialer) Dial(ctx context.Context, credential, sessionID string) (counsel.Conn, error) {
	return d.DialFn(ctx, credential, sessionID)
}

// Conn is a test double for counsel.Conn. NextFn panics when nil; SendFn
// and CloseFn are nil-safe no-ops because tests commonly only script the
// inbound side.
type Conn struct {
	SendFn  func(text string) error
	NextFn  func() (counsel.Event, error)
	CloseFn func() error
}

// Send delegates to SendFn. Returns nil when SendFn is not set.
func (c *Conn) Send(text string) error {
	if c.SendFn == nil {
		return nil
	}
	return c.SendFn(text)
}

// Next delegates to NextFn.
func (c *Conn) Next() (counsel.Event, error) {
	return c.NextFn()
}

// Close delegates to CloseFn. Returns nil when CloseFn is not set.
func (c *Conn) Close() error {
	if c.CloseFn == nil {
		return nil
	}
	return c.CloseFn()
}

// HistoryStore is a test double for counsel.HistoryStore. Unset fields
// no-op: FetchHistoryFn returns an empty History, the rest return nil.
type HistoryStore struct {
	FetchHistoryFn  func(ctx context.Context, sessionID string) (counsel.History, error)
	UpdateTitleFn   func(ctx context.Context, sessionID, title string) error
	DeleteMessageFn func(ctx context.Context, messageID string) error
	DeleteSessionFn func(ctx context.Context, sessionID string) error
}

// FetchHistory delegates to FetchHistoryFn.
func (h *HistoryStore) FetchHistory(ctx context.Context, sessionID string) (counsel.History, error) {
	if h.FetchHistoryFn == nil {
		return counsel.History{}, nil
	}
	return h.FetchHistoryFn(ctx, sessionID)
}

// UpdateTitle delegates to UpdateTitleFn.
func (h *HistoryStore) UpdateTitle(ctx context.Context, sessionID, title string) error {
	if h.UpdateTitleFn == nil {
		return nil
	}
	return h.UpdateTitleFn(ctx, sessionID, title)
}

// DeleteMessage delegates to DeleteMessageFn.
func (h *HistoryStore) DeleteMessage(ctx context.Context, messageID string) error {
	if h.DeleteMessageFn == nil {
		return nil
	}
	return h.DeleteMessageFn(ctx, messageID)
}

// DeleteSession delegates to DeleteSessionFn.
func (h *HistoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	if h.DeleteSessionFn == nil {
		return nil
	}
	return h.DeleteSessionFn(ctx, sessionID)
}

// CredentialSource is a test double for counsel.CredentialSource.
type CredentialSource struct {
	CredentialFn func() (string, bool)
}

// Credential delegates to CredentialFn. Returns absent when not set.
func (c *CredentialSource) Credential() (string, bool) {
	if c.CredentialFn == nil {
		return "", false
	}
	return c.CredentialFn()
}

// Uploader is a test double for counsel.AttachmentUploader.
type Uploader struct {
	UploadFn func(ctx context.Context, sessionID string, att counsel.Attachment) error
}

// Upload delegates to UploadFn. Returns nil when not set.
func (u *Uploader) Upload(ctx context.Context, sessionID string, att counsel.Attachment) error {
	if u.UploadFn == nil {
		return nil
	}
	return u.UploadFn(ctx, sessionID, att)
}
