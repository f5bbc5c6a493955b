package occhat

import (
	"encoding/json"
	"fmt"
)

// Inbound frame type tags. The set is closed; anything else decodes to
// UnknownFrame so newer servers don't break older clients.
const (
	FrameTypeAsyncStart     = "ASYNC_START"
	FrameTypeAsyncContent   = "ASYNC_CONTENT"
	FrameTypeAsyncThought   = "ASYNC_THOUGHT"
	FrameTypeAsyncSources   = "ASYNC_SOURCES"
	FrameTypeApprovalNeeded = "ASYNC_APPROVAL_NEEDED"
	FrameTypeAsyncFinish    = "ASYNC_FINISH"
	FrameTypeAsyncError     = "ASYNC_ERROR"
	FrameTypeSyncContent    = "SYNC_CONTENT"
	FrameTypeConnected      = "CONNECTED"
	FrameTypePong           = "pong"
	FrameTypeHeartbeatAck   = "heartbeat_ack"
)

// Frame is a sealed interface over inbound protocol frames. Each variant
// carries exactly the fields its frame type may populate.
// The unexported marker method prevents external implementations.
type Frame interface {
	frame()
}

// StartFrame opens (or continues) an assistant message stream.
type StartFrame struct {
	MessageID string
	Content   string
}

func (StartFrame) frame() {}

// ContentFrame carries an incremental token for the open message.
type ContentFrame struct {
	MessageID string
	Content   string
}

func (ContentFrame) frame() {}

// SyncContentFrame carries a complete, non-streamed assistant response.
type SyncContentFrame struct {
	MessageID string
	Content   string
	Sources   []Source
}

func (SyncContentFrame) frame() {}

// ThoughtFrame appends a reasoning entry to a message's timeline.
type ThoughtFrame struct {
	MessageID string
	Text      string
	Tool      string
	Args      json.RawMessage
}

func (ThoughtFrame) frame() {}

// SourcesFrame merges citation records into a message's source set.
type SourcesFrame struct {
	MessageID string
	Sources   []Source
}

func (SourcesFrame) frame() {}

// ApprovalNeededFrame suspends a message on a human decision for a tool call.
type ApprovalNeededFrame struct {
	MessageID string
	ToolCall  *ToolCall
}

func (ApprovalNeededFrame) frame() {}

// FinishFrame closes a message with its authoritative final content.
type FinishFrame struct {
	MessageID string
	Content   string
	Sources   []Source
	Timeline  []TimelineEntry
}

func (FinishFrame) frame() {}

// ErrorFrame marks a message as terminally failed.
type ErrorFrame struct {
	MessageID string
	Text      string
}

func (ErrorFrame) frame() {}

// ConnectedFrame is the server's post-handshake greeting.
type ConnectedFrame struct {
	Content string
}

func (ConnectedFrame) frame() {}

// PongFrame acknowledges a heartbeat ping ("pong" or "heartbeat_ack").
type PongFrame struct{}

func (PongFrame) frame() {}

// UnknownFrame preserves the tag of a frame type this client does not know.
type UnknownFrame struct {
	Type string
}

func (UnknownFrame) frame() {}

// Interface compliance checks.
var (
	_ Frame = StartFrame{}
	_ Frame = ContentFrame{}
	_ Frame = SyncContentFrame{}
	_ Frame = ThoughtFrame{}
	_ Frame = SourcesFrame{}
	_ Frame = ApprovalNeededFrame{}
	_ Frame = FinishFrame{}
	_ Frame = ErrorFrame{}
	_ Frame = ConnectedFrame{}
	_ Frame = PongFrame{}
	_ Frame = UnknownFrame{}
)

// ApprovalUpdate is the approval-decision side channel. A frame of any type
// may carry one; it is applied before the frame's own handling.
type ApprovalUpdate struct {
	MessageID string
	Status    ApprovalStatus
}

// frameEnvelope is the wire shape of every inbound frame.
type frameEnvelope struct {
	Type    string     `json:"type"`
	Content string     `json:"content"`
	Data    *frameData `json:"data"`
}

type frameData struct {
	Sources          []Source            `json:"sources"`
	Timeline         []wireTimelineEntry `json:"timeline"`
	MessageID        string              `json:"message_id"`
	ToolName         string              `json:"tool_name"`
	Args             json.RawMessage     `json:"args"`
	Error            string              `json:"error"`
	PendingToolCall  *ToolCall           `json:"pending_tool_call"`
	ApprovalDecision string              `json:"approval_decision"`
}

type wireTimelineEntry struct {
	Type string          `json:"type"`
	Text string          `json:"text"`
	Tool string          `json:"tool"`
	Args json.RawMessage `json:"args"`
}

// DecodeFrame parses a raw inbound frame into its typed variant plus the
// optional approval side channel. A JSON parse failure is the only error;
// unknown frame types decode successfully to UnknownFrame.
func DecodeFrame(raw []byte) (Frame, *ApprovalUpdate, error) {
	var env frameEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, fmt.Errorf("occhat: malformed frame: %w", err)
	}
	data := env.Data
	if data == nil {
		data = &frameData{}
	}

	var upd *ApprovalUpdate
	if data.ApprovalDecision != "" && data.MessageID != "" {
		upd = &ApprovalUpdate{
			MessageID: data.MessageID,
			Status:    ApprovalStatus(data.ApprovalDecision),
		}
	}

	switch env.Type {
	case FrameTypeAsyncStart:
		return StartFrame{MessageID: data.MessageID, Content: env.Content}, upd, nil
	case FrameTypeAsyncContent:
		return ContentFrame{MessageID: data.MessageID, Content: env.Content}, upd, nil
	case FrameTypeSyncContent:
		return SyncContentFrame{MessageID: data.MessageID, Content: env.Content, Sources: data.Sources}, upd, nil
	case FrameTypeAsyncThought:
		return ThoughtFrame{MessageID: data.MessageID, Text: env.Content, Tool: data.ToolName, Args: data.Args}, upd, nil
	case FrameTypeAsyncSources:
		return SourcesFrame{MessageID: data.MessageID, Sources: data.Sources}, upd, nil
	case FrameTypeApprovalNeeded:
		return ApprovalNeededFrame{MessageID: data.MessageID, ToolCall: data.PendingToolCall}, upd, nil
	case FrameTypeAsyncFinish:
		return FinishFrame{
			MessageID: data.MessageID,
			Content:   env.Content,
			Sources:   data.Sources,
			Timeline:  timelineFromWire(data.Timeline),
		}, upd, nil
	case FrameTypeAsyncError:
		text := data.Error
		if text == "" {
			text = env.Content
		}
		return ErrorFrame{MessageID: data.MessageID, Text: text}, upd, nil
	case FrameTypeConnected:
		return ConnectedFrame{Content: env.Content}, upd, nil
	case FrameTypePong, FrameTypeHeartbeatAck:
		return PongFrame{}, upd, nil
	default:
		return UnknownFrame{Type: env.Type}, upd, nil
	}
}

func timelineFromWire(entries []wireTimelineEntry) []TimelineEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]TimelineEntry, len(entries))
	for i, e := range entries {
		kind := TimelineKind(e.Type)
		switch kind {
		case TimelineThought, TimelineToolCall, TimelineToolResult:
		default:
			kind = TimelineThought
		}
		out[i] = TimelineEntry{Kind: kind, Text: e.Text, Tool: e.Tool, Args: e.Args}
	}
	return out
}

// QueryFrame is the outbound user-message frame.
type QueryFrame struct {
	Query string `json:"query"`
}

// ApprovalDecisionFrame resolves a pending tool-call approval. LLMMessageID
// references the assistant message the approval suspended.
type ApprovalDecisionFrame struct {
	ApprovalDecision bool   `json:"approval_decision"`
	LLMMessageID     string `json:"llm_message_id"`
}

// PingFrame is the heartbeat frame.
type PingFrame struct {
	Type string `json:"type"`
}

// NewPingFrame returns the outbound heartbeat frame.
func NewPingFrame() PingFrame { return PingFrame{Type: "ping"} }
