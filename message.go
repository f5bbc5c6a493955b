package occhat

import (
	"encoding/json"
	"time"
)

// ApprovalStatus tracks the human decision on a tool call that requires
// approval before the server will run it.
type ApprovalStatus string

const (
	ApprovalNone     ApprovalStatus = ""
	ApprovalAwaiting ApprovalStatus = "awaiting"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// TimelineKind tags a TimelineEntry variant.
type TimelineKind string

const (
	TimelineThought    TimelineKind = "thought"
	TimelineToolCall   TimelineKind = "tool_call"
	TimelineToolResult TimelineKind = "tool_result"
)

// TimelineEntry is one reasoning step attached to an assistant message.
// Entries are append-only and preserve arrival order.
type TimelineEntry struct {
	Kind TimelineKind
	Text string
	Tool string
	Args json.RawMessage
}

// Source is a citation record pointing at an annotation in the document
// being discussed. AnnotationID is the stable identity used to de-duplicate
// when merging source sets.
type Source struct {
	AnnotationID string          `json:"annotation_id"`
	Page         int             `json:"page"`
	Label        string          `json:"label"`
	LabelID      string          `json:"label_id"`
	RawText      string          `json:"rawText"`
	Bounds       json.RawMessage `json:"json"`
}

// ToolCall describes a tool invocation the server has suspended pending a
// human decision.
type ToolCall struct {
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments"`
	ToolCallID string          `json:"tool_call_id"`
}

// PendingApproval references the message whose tool call is awaiting a
// decision. At most one exists per session; a later approval request
// replaces an earlier unresolved one.
type PendingApproval struct {
	MessageID string
	ToolCall  ToolCall
}

// Message is one entry in the session transcript. Content is mutable while
// the message streams and frozen once IsComplete is set. Timeline entries
// and sources accumulate independently of the content stream.
type Message struct {
	ID             string
	Role           Role
	Content        string
	IsComplete     bool
	Timeline       []TimelineEntry
	Sources        []Source
	ApprovalStatus ApprovalStatus
	Error          string
	Timestamp      time.Time
}

// HasTimeline reports whether any reasoning entries have arrived.
func (m *Message) HasTimeline() bool { return len(m.Timeline) > 0 }

// HasSources reports whether any citations have been merged.
func (m *Message) HasSources() bool { return len(m.Sources) > 0 }

// clone returns a deep copy so snapshots are immune to later mutation.
func (m *Message) clone() Message {
	out := *m
	if m.Timeline != nil {
		out.Timeline = make([]TimelineEntry, len(m.Timeline))
		copy(out.Timeline, m.Timeline)
	}
	if m.Sources != nil {
		out.Sources = make([]Source, len(m.Sources))
		copy(out.Sources, m.Sources)
	}
	return out
}
