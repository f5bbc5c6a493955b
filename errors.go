package occhat

import "errors"

// Sentinel errors for common failure modes.
var (
	// ErrMissingContext indicates a chat context with no conversation,
	// corpus, document, or agent identifier.
	ErrMissingContext = errors.New("chat context missing identifiers")

	// ErrNotConnected indicates a send was attempted without an open socket.
	ErrNotConnected = errors.New("not connected")

	// ErrNoPendingApproval indicates a decision was sent with no tool call
	// awaiting approval.
	ErrNoPendingApproval = errors.New("no pending approval")

	// ErrSessionClosed indicates an operation on a closed session.
	ErrSessionClosed = errors.New("session closed")
)
