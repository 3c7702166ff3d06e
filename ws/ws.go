// Package ws implements [counsel.Dialer] over a WebSocket transport.
//
// Each Submit opens a fresh connection to the backend's chat endpoint,
// authenticated by a token query parameter and, when resuming, a
// conversation identifier. Inbound frames carry JSON envelopes with a
// kind discriminator; unknown kinds are skipped for forward compatibility
// and malformed frames are logged and dropped, never fatal.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/counsel-cli/counsel"
)

const (
	chatPath                = "/ws/chat"
	defaultHandshakeTimeout = 30 * time.Second
	writeTimeout            = 30 * time.Second
)

// Dialer dials the backend chat endpoint. BaseURL accepts http(s) or
// ws(s) schemes; http(s) is rewritten to the WebSocket equivalent the way
// a browser client would.
type Dialer struct {
	BaseURL          string
	HandshakeTimeout time.Duration
	Logger           *slog.Logger
}

// Interface compliance check.
var _ counsel.Dialer = (*Dialer)(nil)

// Dial implements [counsel.Dialer].
func (d *Dialer) Dial(ctx context.Context, credential, sessionID string) (counsel.Conn, error) {
	endpoint, err := d.endpoint(credential, sessionID)
	if err != nil {
		return nil, err
	}

	timeout := d.HandshakeTimeout
	if timeout == 0 {
		timeout = defaultHandshakeTimeout
	}
	dialer := &websocket.Dialer{HandshakeTimeout: timeout}

	ws, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial: %w", err)
	}

	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &conn{ws: ws, logger: logger}, nil
}

// endpoint builds the chat URL with the credential and optional session id.
func (d *Dialer) endpoint(credential, sessionID string) (string, error) {
	base := d.BaseURL
	switch {
	case strings.HasPrefix(base, "https://"):
		base = "wss://" + strings.TrimPrefix(base, "https://")
	case strings.HasPrefix(base, "http://"):
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}

	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("ws: parse base URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("ws: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + chatPath

	q := u.Query()
	q.Set("token", credential)
	if sessionID != "" {
		q.Set("conversation_id", sessionID)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// envelope is the wire format of one inbound protocol message.
type envelope struct {
	Type           string `json:"type"`
	Content        string `json:"content"`
	ConversationID string `json:"conversation_id"`
}

// conn adapts a gorilla websocket connection to [counsel.Conn].
type conn struct {
	ws     *websocket.Conn
	logger *slog.Logger
}

// Interface compliance check.
var _ counsel.Conn = (*conn)(nil)

// Send transmits the user's text as a single text frame.
func (c *conn) Send(text string) error {
	c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("ws: send: %w", err)
	}
	return nil
}

// Next reads frames until one decodes to a known envelope kind. Returns
// io.EOF on a normal close.
func (c *conn) Next() (counsel.Event, error) {
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, io.EOF
			}
			return nil, fmt.Errorf("ws: read: %w", err)
		}

		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.logger.Warn("malformed envelope dropped", "err", err)
			continue
		}

		switch env.Type {
		case "start":
			return counsel.EventStart{}, nil
		case "token":
			return counsel.EventToken{Text: env.Content}, nil
		case "status":
			return counsel.EventStatus{Label: env.Content}, nil
		case "meta":
			if env.ConversationID == "" {
				c.logger.Warn("meta envelope without conversation id dropped")
				continue
			}
			return counsel.EventMeta{SessionID: env.ConversationID}, nil
		case "error":
			return counsel.EventError{Message: env.Content}, nil
		case "end":
			return counsel.EventEnd{SessionID: env.ConversationID}, nil
		default:
			c.logger.Debug("unknown envelope kind skipped", "kind", env.Type)
		}
	}
}

// Close closes the underlying connection. Safe to call more than once.
func (c *conn) Close() error {
	return c.ws.Close()
}
