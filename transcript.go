package occhat

import (
	"time"

	"github.com/google/uuid"
)

// Transcript is the in-memory message log for one chat session. It owns the
// accumulation semantics of the streaming protocol: incremental token
// append, timeline tracking, source merging, and the tool-approval gate.
// State is discarded wholesale on Reset; nothing persists beyond the
// owning session's lifetime.
//
// Transcript is not safe for concurrent use. The owning session serializes
// access, which preserves frame-arrival order.
type Transcript struct {
	messages []*Message
	byID     map[string]*Message
	pending  *PendingApproval
	newID    func() string
	now      func() time.Time
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{
		byID:  make(map[string]*Message),
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// AppendUser appends a complete user message and returns its ID.
func (t *Transcript) AppendUser(content string) string {
	msg := &Message{
		ID:         t.newID(),
		Role:       RoleUser,
		Content:    content,
		IsComplete: true,
		Timestamp:  t.now(),
	}
	t.add(msg)
	return msg.ID
}

// AppendToken appends an incremental token. If the most recent message is an
// open assistant message the token extends its content; otherwise a new
// assistant message is created, seeded with the token and identified by
// messageID (or a generated ID when empty). It returns the effective message
// ID, whether a message was created, and whether the token implicitly
// resolved a pending approval for that message.
func (t *Transcript) AppendToken(token, messageID string) (id string, created, resolved bool) {
	if last := t.lastOpenAssistant(); last != nil {
		last.Content += token
		return last.ID, false, t.resolveImplicit(last)
	}
	msg := &Message{
		ID:        messageID,
		Role:      RoleAssistant,
		Content:   token,
		Timestamp: t.now(),
	}
	if msg.ID == "" {
		msg.ID = t.newID()
	}
	t.add(msg)
	return msg.ID, true, t.resolveImplicit(msg)
}

// Finalize freezes a message with its authoritative final content. The
// target is located by messageID, falling back to the most recent assistant
// message still streaming, and created outright when neither exists (the
// synchronous response path). Finalizing an already-complete message overwrites its
// content without creating a duplicate. Non-empty sources and timeline
// replace streaming-time accumulations as the final record.
func (t *Transcript) Finalize(content string, sources []Source, messageID string, timeline []TimelineEntry) (id string, resolved bool) {
	msg := t.lookup(messageID)
	if msg == nil {
		msg = t.openAssistant()
	}
	if msg == nil {
		msg = &Message{
			ID:        messageID,
			Role:      RoleAssistant,
			Timestamp: t.now(),
		}
		if msg.ID == "" {
			msg.ID = t.newID()
		}
		t.add(msg)
	}
	msg.Content = content
	msg.IsComplete = true
	if len(sources) > 0 {
		t.mergeInto(msg, sources)
	}
	if len(timeline) > 0 {
		msg.Timeline = append([]TimelineEntry(nil), timeline...)
	}
	return msg.ID, t.resolveImplicit(msg)
}

// AppendThought appends a reasoning entry to a message's timeline. Both a
// message ID and non-empty text are required; anything else is a no-op. The
// entry kind is inferred from the tool fields: a tool name with arguments is
// a call, a tool name alone is a result, neither is a plain thought. A
// message that does not exist yet is created so reasoning can arrive before
// content tokens.
func (t *Transcript) AppendThought(text, messageID, toolName string, args []byte) (TimelineEntry, bool) {
	if text == "" || messageID == "" {
		return TimelineEntry{}, false
	}
	msg := t.ensure(messageID)
	entry := TimelineEntry{Kind: TimelineThought, Text: text}
	if toolName != "" {
		entry.Tool = toolName
		if len(args) > 0 {
			entry.Kind = TimelineToolCall
			entry.Args = append([]byte(nil), args...)
		} else {
			entry.Kind = TimelineToolResult
		}
	}
	msg.Timeline = append(msg.Timeline, entry)
	return entry, true
}

// MergeSources merges citations into a message's source set, skipping any
// whose annotation ID is already present (first write wins). A missing
// message is created as a placeholder to hold the merged sources. It
// returns the records actually added.
func (t *Transcript) MergeSources(messageID string, sources []Source) []Source {
	if messageID == "" || len(sources) == 0 {
		return nil
	}
	msg := t.ensure(messageID)
	return t.mergeInto(msg, sources)
}

// RequireApproval suspends a message on a human decision for the given tool
// call. A second request before the first is resolved replaces it
// (last write wins). It reports false when messageID is empty.
func (t *Transcript) RequireApproval(messageID string, call ToolCall) (PendingApproval, bool) {
	if messageID == "" {
		return PendingApproval{}, false
	}
	msg := t.ensure(messageID)
	msg.ApprovalStatus = ApprovalAwaiting
	t.pending = &PendingApproval{MessageID: messageID, ToolCall: call}
	return *t.pending, true
}

// ResolveApproval applies the client's decision to the pending approval,
// marks the message complete, and clears the pending record. It returns the
// approval that was resolved so the caller can notify the server.
func (t *Transcript) ResolveApproval(approved bool) (PendingApproval, error) {
	if t.pending == nil {
		return PendingApproval{}, ErrNoPendingApproval
	}
	resolved := *t.pending
	if msg := t.lookup(resolved.MessageID); msg != nil {
		if approved {
			msg.ApprovalStatus = ApprovalApproved
		} else {
			msg.ApprovalStatus = ApprovalRejected
		}
		msg.IsComplete = true
	}
	t.pending = nil
	return resolved, nil
}

// ApplyDecision applies a server-reported approval decision to a message,
// independent of the frame type that carried it. A matching pending record
// is cleared.
func (t *Transcript) ApplyDecision(upd ApprovalUpdate) bool {
	msg := t.lookup(upd.MessageID)
	if msg == nil {
		return false
	}
	msg.ApprovalStatus = upd.Status
	if t.pending != nil && t.pending.MessageID == upd.MessageID {
		t.pending = nil
	}
	return true
}

// SetError records a protocol error as a message's terminal state. With no
// ID match the error attaches to the most recent open assistant message,
// creating one when the transcript is empty.
func (t *Transcript) SetError(messageID, text string) string {
	msg := t.lookup(messageID)
	if msg == nil {
		msg = t.openAssistant()
	}
	if msg == nil {
		msg = t.ensure(messageID)
	}
	msg.Error = text
	msg.IsComplete = true
	return msg.ID
}

// Pending returns a copy of the pending approval, or nil.
func (t *Transcript) Pending() *PendingApproval {
	if t.pending == nil {
		return nil
	}
	p := *t.pending
	return &p
}

// Messages returns a snapshot of the transcript in append order.
func (t *Transcript) Messages() []Message {
	out := make([]Message, len(t.messages))
	for i, m := range t.messages {
		out[i] = m.clone()
	}
	return out
}

// Len returns the number of messages.
func (t *Transcript) Len() int { return len(t.messages) }

// Reset discards all messages and any pending approval.
func (t *Transcript) Reset() {
	t.messages = nil
	t.byID = make(map[string]*Message)
	t.pending = nil
}

func (t *Transcript) add(msg *Message) {
	t.messages = append(t.messages, msg)
	t.byID[msg.ID] = msg
}

func (t *Transcript) lookup(id string) *Message {
	if id == "" {
		return nil
	}
	return t.byID[id]
}

// ensure returns the message with the given ID, creating an open assistant
// placeholder when absent. A generated ID is used when id is empty.
func (t *Transcript) ensure(id string) *Message {
	if msg := t.lookup(id); msg != nil {
		return msg
	}
	msg := &Message{
		ID:        id,
		Role:      RoleAssistant,
		Timestamp: t.now(),
	}
	if msg.ID == "" {
		msg.ID = t.newID()
	}
	t.add(msg)
	return msg
}

// openAssistant finds the most recent assistant message still streaming.
// Completed turns are never revisited, so a stray finalize cannot clobber
// an earlier answer.
func (t *Transcript) openAssistant() *Message {
	for i := len(t.messages) - 1; i >= 0; i-- {
		if t.messages[i].Role == RoleAssistant && !t.messages[i].IsComplete {
			return t.messages[i]
		}
	}
	return nil
}

func (t *Transcript) lastOpenAssistant() *Message {
	if n := len(t.messages); n > 0 {
		last := t.messages[n-1]
		if last.Role == RoleAssistant && !last.IsComplete {
			return last
		}
	}
	return nil
}

// resolveImplicit treats new content for a message awaiting approval as an
// out-of-band approval: the server moved on, so the gate opens.
func (t *Transcript) resolveImplicit(msg *Message) bool {
	if t.pending == nil || t.pending.MessageID != msg.ID {
		return false
	}
	msg.ApprovalStatus = ApprovalApproved
	t.pending = nil
	return true
}

func (t *Transcript) mergeInto(msg *Message, sources []Source) []Source {
	seen := make(map[string]struct{}, len(msg.Sources))
	for _, s := range msg.Sources {
		seen[s.AnnotationID] = struct{}{}
	}
	var added []Source
	for _, s := range sources {
		if _, dup := seen[s.AnnotationID]; dup {
			continue
		}
		seen[s.AnnotationID] = struct{}{}
		msg.Sources = append(msg.Sources, s)
		added = append(added, s)
	}
	return added
}
