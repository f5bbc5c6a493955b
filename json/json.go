// Package json persists chat transcripts as JSON files.
package json

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jsdzhang/occhat"
)

// Transcript is a persisted chat session: the context it was connected with
// and the messages accumulated before disconnect.
type Transcript struct {
	Context  occhat.ChatContext
	SavedAt  time.Time
	Messages []occhat.Message
}

// envelope is the v1 wire format for a persisted transcript.
type envelope struct {
	Version  int          `json:"version"`
	Context  contextDTO   `json:"context"`
	SavedAt  time.Time    `json:"saved_at"`
	Messages []messageDTO `json:"messages"`
}

// contextDTO captures the chat context minus the auth token, which must
// never land on disk.
type contextDTO struct {
	ConversationID string `json:"conversation_id,omitempty"`
	CorpusID       string `json:"corpus_id,omitempty"`
	DocumentID     string `json:"document_id,omitempty"`
	AgentID        string `json:"agent_id,omitempty"`
}

type messageDTO struct {
	ID             string          `json:"id"`
	Role           string          `json:"role"`
	Content        string          `json:"content"`
	IsComplete     bool            `json:"is_complete"`
	Timeline       []timelineDTO   `json:"timeline,omitempty"`
	Sources        []occhat.Source `json:"sources,omitempty"`
	ApprovalStatus string          `json:"approval_status,omitempty"`
	Error          string          `json:"error,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
}

type timelineDTO struct {
	Kind string          `json:"kind"`
	Text string          `json:"text,omitempty"`
	Tool string          `json:"tool,omitempty"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Marshal serializes a transcript to JSON in v1 envelope format.
func Marshal(tr Transcript) ([]byte, error) {
	env := envelope{
		Version: 1,
		Context: contextDTO{
			ConversationID: tr.Context.ConversationID,
			CorpusID:       tr.Context.CorpusID,
			DocumentID:     tr.Context.DocumentID,
			AgentID:        tr.Context.AgentID,
		},
		SavedAt:  tr.SavedAt,
		Messages: make([]messageDTO, len(tr.Messages)),
	}
	for i, msg := range tr.Messages {
		env.Messages[i] = marshalMessage(msg)
	}
	return json.MarshalIndent(env, "", "  ")
}

// Unmarshal deserializes a transcript from JSON in v1 envelope format.
func Unmarshal(data []byte) (Transcript, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Transcript{}, fmt.Errorf("json: unmarshal envelope: %w", err)
	}
	if env.Version != 1 {
		return Transcript{}, fmt.Errorf("json: unsupported envelope version: %d", env.Version)
	}
	tr := Transcript{
		Context: occhat.ChatContext{
			ConversationID: env.Context.ConversationID,
			CorpusID:       env.Context.CorpusID,
			DocumentID:     env.Context.DocumentID,
			AgentID:        env.Context.AgentID,
		},
		SavedAt:  env.SavedAt,
		Messages: make([]occhat.Message, len(env.Messages)),
	}
	for i, dto := range env.Messages {
		tr.Messages[i] = unmarshalMessage(dto)
	}
	return tr, nil
}

// Save writes a transcript to a JSON file, creating parent directories as
// needed. The write is atomic: a temp file is renamed into place.
func Save(path string, tr Transcript) error {
	data, err := Marshal(tr)
	if err != nil {
		return fmt.Errorf("json: marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("json: create directories: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("json: write temp file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("json: rename temp file: %w", err)
	}
	return nil
}

// Load reads a transcript from a JSON file.
func Load(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("json: read file: %w", err)
	}
	return Unmarshal(data)
}

func marshalMessage(msg occhat.Message) messageDTO {
	dto := messageDTO{
		ID:             msg.ID,
		Role:           string(msg.Role),
		Content:        msg.Content,
		IsComplete:     msg.IsComplete,
		Sources:        msg.Sources,
		ApprovalStatus: string(msg.ApprovalStatus),
		Error:          msg.Error,
		Timestamp:      msg.Timestamp,
	}
	for _, e := range msg.Timeline {
		dto.Timeline = append(dto.Timeline, timelineDTO{
			Kind: string(e.Kind),
			Text: e.Text,
			Tool: e.Tool,
			Args: e.Args,
		})
	}
	return dto
}

func unmarshalMessage(dto messageDTO) occhat.Message {
	msg := occhat.Message{
		ID:             dto.ID,
		Role:           occhat.Role(dto.Role),
		Content:        dto.Content,
		IsComplete:     dto.IsComplete,
		Sources:        dto.Sources,
		ApprovalStatus: occhat.ApprovalStatus(dto.ApprovalStatus),
		Error:          dto.Error,
		Timestamp:      dto.Timestamp,
	}
	for _, e := range dto.Timeline {
		msg.Timeline = append(msg.Timeline, occhat.TimelineEntry{
			Kind: occhat.TimelineKind(e.Kind),
			Text: e.Text,
			Tool: e.Tool,
			Args: e.Args,
		})
	}
	return msg
}
