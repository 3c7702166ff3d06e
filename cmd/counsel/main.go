// Command counsel is a terminal client for a legal-assistant backend.
//
// Usage:
//
//	COUNSEL_TOKEN=... counsel [flags]
//
// Flags:
//
//	-server string      API base URL (default: COUNSEL_SERVER or http://localhost:8000/api/v1)
//	-session string     Conversation id to resume
//	-transcript string  Transcript file to resume from and save to
//	-attach string      Glob of PDF documents to attach to the first message (repeatable)
//	-token string       Credential (overrides COUNSEL_TOKEN)
//
// A .env file in the working directory is loaded before flags are read.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/counsel-cli/counsel"
	bt "github.com/counsel-cli/counsel/bubbletea"
	"github.com/counsel-cli/counsel/rest"
	"github.com/counsel-cli/counsel/transcript"
	"github.com/counsel-cli/counsel/ws"
)

const (
	defaultServer  = "http://localhost:8000/api/v1"
	maxAttachments = 5
)

// stringList collects a repeatable flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "counsel: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; environment variables win over it either way.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("load .env: %w", err)
	}

	var (
		server         = flag.String("server", envOr("COUNSEL_SERVER", defaultServer), "API base URL")
		sessionID      = flag.String("session", "", "Conversation id to resume")
		transcriptPath = flag.String("transcript", "", "Transcript file to resume from and save to")
		token          = flag.String("token", os.Getenv("COUNSEL_TOKEN"), "Credential (overrides COUNSEL_TOKEN)")
		attachFlags    stringList
	)
	flag.Var(&attachFlags, "attach", "Glob of PDF documents to attach to the first message (repeatable)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(logWriter(), nil))

	attachments, err := collectAttachments(attachFlags)
	if err != nil {
		return err
	}

	// Resume the session id from a transcript when not given explicitly.
	startID := *sessionID
	if startID == "" && *transcriptPath != "" {
		if t, err := transcript.Load(*transcriptPath); err == nil {
			startID = t.SessionID
		} else if !errors.Is(err, os.ErrNotExist) {
			logger.Warn("transcript not resumed", "path", *transcriptPath, "err", err)
		}
	}

	creds := counsel.StaticCredential(*token)
	notify, notes := bt.NewNotifier()

	restClient := rest.New(*server, creds, rest.WithCredentialInvalidated(func() {
		logger.Warn("credential invalidated by backend")
	}))
	dialer := &ws.Dialer{BaseURL: *server, Logger: logger}

	ctrl := counsel.NewController(dialer, restClient, creds, startID,
		counsel.WithUploader(restClient),
		counsel.WithNotify(notify),
		counsel.WithLogger(logger),
	)

	if startID != "" {
		if err := ctrl.LoadHistory(ctx); err != nil {
			logger.Warn("initial history load failed", "session_id", startID, "err", err)
		}
	}

	theme := counsel.DefaultTheme()
	model := bt.New(ctrl, notes, theme, attachments...)

	_, err = bt.Run(ctx, model)
	ctrl.Cancel()
	if err != nil {
		return fmt.Errorf("TUI: %w", err)
	}

	return saveTranscript(*transcriptPath, ctrl)
}

// collectAttachments expands attach globs, keeps PDFs, and enforces the
// backend's limit.
func collectAttachments(patterns []string) ([]counsel.Attachment, error) {
	var attachments []counsel.Attachment
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("attach %q: %w", pattern, err)
		}
		for _, path := range matches {
			if !strings.EqualFold(filepath.Ext(path), ".pdf") {
				fmt.Fprintf(os.Stderr, "counsel: skipping non-PDF attachment %s\n", path)
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("attach %s: %w", path, err)
			}
			attachments = append(attachments, counsel.Attachment{
				Name: filepath.Base(path),
				Data: data,
			})
		}
	}
	if len(attachments) > maxAttachments {
		fmt.Fprintf(os.Stderr, "counsel: keeping first %d of %d attachments\n", maxAttachments, len(attachments))
		attachments = attachments[:maxAttachments]
	}
	return attachments, nil
}

// saveTranscript writes the conversation to disk on exit. Without an
// explicit path, unsaved conversations go to a default location.
func saveTranscript(path string, ctrl *counsel.Controller) error {
	messages := ctrl.Messages()
	if len(messages) == 0 {
		return nil
	}
	if path == "" {
		name := ctrl.SessionID()
		if name == "" {
			name = uuid.NewString()
		}
		path = filepath.Join(".counsel", "transcripts", name+".json")
		defer fmt.Fprintf(os.Stderr, "Transcript saved to %s\n", path)
	}
	t := transcript.Transcript{
		SessionID: ctrl.SessionID(),
		Title:     ctrl.Title(),
		SavedAt:   time.Now(),
		Messages:  messages,
	}
	if err := transcript.Save(path, t); err != nil {
		return fmt.Errorf("save transcript: %w", err)
	}
	return nil
}

// logWriter keeps structured logs off the TUI's terminal.
func logWriter() *os.File {
	f, err := os.OpenFile(filepath.Join(os.TempDir(), "counsel.log"),
		os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return os.Stderr
	}
	return f
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
