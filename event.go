package occhat

// Event is a sealed interface over session updates delivered to the view
// layer. Events arrive in frame-processing order on a single channel; the
// transcript snapshot remains the authoritative state.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventConnected signals that the socket is open.
type EventConnected struct{}

func (EventConnected) event() {}

// EventDisconnected signals that the socket closed. Err is nil for a clean
// shutdown and carries the transport failure otherwise.
type EventDisconnected struct {
	Err error
}

func (EventDisconnected) event() {}

// EventMessageStarted signals a new assistant message opened for streaming.
type EventMessageStarted struct {
	MessageID string
}

func (EventMessageStarted) event() {}

// EventToken carries an incremental content token.
type EventToken struct {
	MessageID string
	Token     string
}

func (EventToken) event() {}

// EventThought carries a timeline entry appended to a message.
type EventThought struct {
	MessageID string
	Entry     TimelineEntry
}

func (EventThought) event() {}

// EventSourcesMerged carries the citations newly merged into a message's
// source set (duplicates already filtered out).
type EventSourcesMerged struct {
	MessageID string
	Sources   []Source
}

func (EventSourcesMerged) event() {}

// EventApprovalRequested signals that a tool call awaits a human decision.
type EventApprovalRequested struct {
	Approval PendingApproval
}

func (EventApprovalRequested) event() {}

// EventApprovalResolved signals that a pending approval was decided, either
// by the client or by the server moving on.
type EventApprovalResolved struct {
	MessageID string
	Status    ApprovalStatus
}

func (EventApprovalResolved) event() {}

// EventMessageFinalized signals a message froze with its final content.
type EventMessageFinalized struct {
	MessageID string
	Content   string
}

func (EventMessageFinalized) event() {}

// EventMessageError signals a message terminated with a protocol error.
type EventMessageError struct {
	MessageID string
	Text      string
}

func (EventMessageError) event() {}

// Interface compliance checks.
var (
	_ Event = EventConnected{}
	_ Event = EventDisconnected{}
	_ Event = EventMessageStarted{}
	_ Event = EventToken{}
	_ Event = EventThought{}
	_ Event = EventSourcesMerged{}
	_ Event = EventApprovalRequested{}
	_ Event = EventApprovalResolved{}
	_ Event = EventMessageFinalized{}
	_ Event = EventMessageError{}
)
