// Package transcript persists a local JSON copy of a conversation. The
// backend's history store stays authoritative; transcripts are an export
// for offline reading and resuming a session id across runs.
package transcript

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/counsel-cli/counsel"
)

// envelope is the v1 wire format for a saved transcript.
type envelope struct {
	Version   int          `json:"version"`
	SessionID string       `json:"session_id"`
	Title     string       `json:"title"`
	SavedAt   time.Time    `json:"saved_at"`
	Messages  []messageDTO `json:"messages"`
}

// messageDTO is the JSON representation of a Message.
type messageDTO struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is a locally saved conversation snapshot.
type Transcript struct {
	SessionID string
	Title     string
	SavedAt   time.Time
	Messages  []counsel.Message
}

// Marshal serializes a Transcript to JSON in v1 envelope format.
func Marshal(t Transcript) ([]byte, error) {
	env := envelope{
		Version:   1,
		SessionID: t.SessionID,
		Title:     t.Title,
		SavedAt:   t.SavedAt,
		Messages:  make([]messageDTO, len(t.Messages)),
	}
	for i, m := range t.Messages {
		env.Messages[i] = messageDTO{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt,
		}
	}
	return json.MarshalIndent(env, "", "  ")
}

// Unmarshal deserializes a Transcript from JSON in v1 envelope format.
func Unmarshal(data []byte) (Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Transcript{}, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return Transcript{}, fmt.Errorf("unsupported envelope version: %d", env.Version)
	}
	t := Transcript{
		SessionID: env.SessionID,
		Title:     env.Title,
		SavedAt:   env.SavedAt,
		Messages:  make([]counsel.Message, len(env.Messages)),
	}
	for i, dto := range env.Messages {
		role := counsel.Role(dto.Role)
		if role != counsel.RoleUser && role != counsel.RoleAssistant {
			return Transcript{}, fmt.Errorf("message %d: unknown role %q", i, dto.Role)
		}
		t.Messages[i] = counsel.Message{
			ID:        dto.ID,
			Role:      role,
			Content:   dto.Content,
			CreatedAt: dto.CreatedAt,
		}
	}
	return t, nil
}

// Save writes a Transcript to a JSON file, creating parent directories as
// needed. The write is atomic: temp file then rename.
func Save(path string, t Transcript) error {
	data, err := Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

// Load reads a Transcript from a JSON file.
func Load(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("read file: %w", err)
	}
	t, err := Unmarshal(data)
	if err != nil {
		return Transcript{}, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}
