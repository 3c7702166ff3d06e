// Package rest implements the request/response collaborators the stream
// core depends on: history fetch, title update, message and session
// deletion, and attachment upload. All calls attach the bearer credential;
// a 401 response triggers the credential-invalidated hook so the host can
// force re-authentication.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/counsel-cli/counsel"
)

// ErrUnauthorized indicates the backend rejected the credential.
var ErrUnauthorized = errors.New("unauthorized")

// Client talks to the legal-assistant REST API.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	creds         counsel.CredentialSource
	onInvalidated func()
}

// Interface compliance checks.
var (
	_ counsel.HistoryStore       = (*Client)(nil)
	_ counsel.AttachmentUploader = (*Client)(nil)
)

// Option configures a [Client].
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCredentialInvalidated sets a hook called whenever the backend
// returns 401. Forced logout is the host's concern, not this client's.
func WithCredentialInvalidated(fn func()) Option {
	return func(c *Client) { c.onInvalidated = fn }
}

// New creates a REST client for the given API base URL.
func New(baseURL string, creds counsel.CredentialSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		creds:      creds,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// historyResponse is the wire shape of GET /history/{id}.
type historyResponse struct {
	Conversation struct {
		Title string `json:"title"`
	} `json:"conversation"`
	Messages []struct {
		ID        string    `json:"id"`
		Role      string    `json:"role"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"created_at"`
	} `json:"messages"`
}

// FetchHistory implements [counsel.HistoryStore].
func (c *Client) FetchHistory(ctx context.Context, sessionID string) (counsel.History, error) {
	body, err := c.do(ctx, http.MethodGet, "/history/"+sessionID, nil, "")
	if err != nil {
		return counsel.History{}, err
	}
	defer body.Close()

	var resp historyResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return counsel.History{}, fmt.Errorf("rest: decode history: %w", err)
	}

	h := counsel.History{
		Title:    resp.Conversation.Title,
		Messages: make([]counsel.Message, len(resp.Messages)),
	}
	for i, m := range resp.Messages {
		h.Messages[i] = counsel.Message{
			ID:        m.ID,
			Role:      counsel.Role(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return h, nil
}

// UpdateTitle implements [counsel.HistoryStore].
func (c *Client) UpdateTitle(ctx context.Context, sessionID, title string) error {
	payload, err := json.Marshal(map[string]string{"title": title})
	if err != nil {
		return fmt.Errorf("rest: marshal title: %w", err)
	}
	body, err := c.do(ctx, http.MethodPatch, "/conversations/"+sessionID, bytes.NewReader(payload), "application/json")
	if err != nil {
		return err
	}
	return body.Close()
}

// DeleteMessage implements [counsel.HistoryStore].
func (c *Client) DeleteMessage(ctx context.Context, messageID string) error {
	body, err := c.do(ctx, http.MethodDelete, "/messages/"+messageID, nil, "")
	if err != nil {
		return err
	}
	return body.Close()
}

// DeleteSession implements [counsel.HistoryStore].
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	body, err := c.do(ctx, http.MethodDelete, "/conversations/"+sessionID, nil, "")
	if err != nil {
		return err
	}
	return body.Close()
}

// Upload implements [counsel.AttachmentUploader] as a multipart POST.
func (c *Client) Upload(ctx context.Context, sessionID string, att counsel.Attachment) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", att.Name)
	if err != nil {
		return fmt.Errorf("rest: build upload: %w", err)
	}
	if _, err := fw.Write(att.Data); err != nil {
		return fmt.Errorf("rest: build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("rest: build upload: %w", err)
	}

	body, err := c.do(ctx, http.MethodPost, "/chat/upload/"+sessionID+"?silent=true", &buf, mw.FormDataContentType())
	if err != nil {
		return err
	}
	return body.Close()
}

// do runs one authenticated request and returns the response body on 2xx.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("rest: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token, ok := c.creds.Credential(); ok {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("rest: %s %s: %w", method, path, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if c.onInvalidated != nil {
			c.onInvalidated()
		}
		return nil, fmt.Errorf("rest: %s %s: %w", method, path, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("rest: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	return resp.Body, nil
}
