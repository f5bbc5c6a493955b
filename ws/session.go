package ws

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jsdzhang/occhat"
)

const (
	defaultHeartbeatInterval = 30 * time.Second
	defaultReconnectDelay    = 3 * time.Second
	defaultEventBuffer       = 256
)

// Options configure a Session. Zero values select defaults.
type Options struct {
	// AutoReconnect schedules a redial after an abnormal close.
	AutoReconnect bool
	// HeartbeatInterval is the ping cadence while connected.
	HeartbeatInterval time.Duration
	// ReconnectDelay is the wait before a redial attempt.
	ReconnectDelay time.Duration
	// EventBuffer sizes the event channel.
	EventBuffer int

	Dialer Dialer
	Clock  occhat.Clock
	Logger *zap.Logger
}

// Session owns one WebSocket connection to the agent-chat endpoint and the
// transcript derived from it. The read loop is the single writer of
// transcript state; consumers observe it through the event channel and
// Messages snapshots. All failures surface as state (Err, events), never as
// panics from socket callbacks.
type Session struct {
	base string
	opts Options
	log  *zap.Logger

	events chan occhat.Event

	mu         sync.Mutex
	chatCtx    occhat.ChatContext
	conn       Conn
	gen        int // connection generation; bumped on every dial and teardown
	connected  bool
	lastErr    string
	transcript *occhat.Transcript
	heartbeat  occhat.Timer
	reconnect  occhat.Timer
	closed     bool
}

// NewSession creates a session for the given base endpoint URL.
func NewSession(base string, opts Options) *Session {
	if opts.Dialer == nil {
		opts.Dialer = NewDialer()
	}
	if opts.Clock == nil {
		opts.Clock = occhat.NewClock()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = defaultHeartbeatInterval
	}
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = defaultReconnectDelay
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}
	return &Session{
		base:       base,
		opts:       opts,
		log:        opts.Logger,
		events:     make(chan occhat.Event, opts.EventBuffer),
		transcript: occhat.NewTranscript(),
	}
}

// Connect opens the socket for the given context. Connecting again with the
// same context while the socket is open is a no-op. A different context
// closes the previous socket and discards its state before dialing, so two
// sockets never overlap and stale read loops cannot deliver into the new
// transcript.
func (s *Session) Connect(ctx context.Context, chatCtx occhat.ChatContext) error {
	if !chatCtx.Valid() {
		return occhat.ErrMissingContext
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return occhat.ErrSessionClosed
	}
	if s.conn != nil && chatCtx == s.chatCtx {
		return nil
	}
	s.teardownLocked()
	s.chatCtx = chatCtx
	return s.dialLocked(ctx)
}

// Disconnect closes the socket with a normal-closure code and discards all
// derived state: messages, pending approval, heartbeat and any scheduled
// reconnect.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	wasOpen := s.conn != nil
	s.teardownLocked()
	if wasOpen {
		s.emit(occhat.EventDisconnected{})
	}
}

// Close disconnects and permanently closes the event channel. The session
// cannot be reused afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.teardownLocked()
	s.closed = true
	close(s.events)
}

// SendQuery sends a user message to the agent and appends it to the
// transcript, returning the new message's ID.
func (s *Session) SendQuery(text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return "", occhat.ErrNotConnected
	}
	if err := s.conn.WriteJSON(occhat.QueryFrame{Query: text}); err != nil {
		s.lastErr = fmt.Sprintf("send failed: %v", err)
		return "", fmt.Errorf("ws: send query: %w", err)
	}
	return s.transcript.AppendUser(text), nil
}

// SendApprovalDecision resolves the pending tool-call approval. On a send
// failure the pending record is kept so the decision can be retried.
func (s *Session) SendApprovalDecision(approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.transcript.Pending()
	if pending == nil {
		return occhat.ErrNoPendingApproval
	}
	if s.conn == nil {
		return occhat.ErrNotConnected
	}
	frame := occhat.ApprovalDecisionFrame{
		ApprovalDecision: approved,
		LLMMessageID:     pending.MessageID,
	}
	if err := s.conn.WriteJSON(frame); err != nil {
		s.lastErr = fmt.Sprintf("approval send failed: %v", err)
		return fmt.Errorf("ws: send approval decision: %w", err)
	}
	resolved, err := s.transcript.ResolveApproval(approved)
	if err != nil {
		return err
	}
	status := occhat.ApprovalApproved
	if !approved {
		status = occhat.ApprovalRejected
	}
	s.emit(occhat.EventApprovalResolved{MessageID: resolved.MessageID, Status: status})
	return nil
}

// Events returns the session's event channel. Events arrive in
// frame-processing order; the channel closes when the session closes.
func (s *Session) Events() <-chan occhat.Event { return s.events }

// Connected reports whether the socket is open.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Err returns the last transport error as human-readable text, empty when
// the session is healthy.
func (s *Session) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Messages returns a snapshot of the transcript.
func (s *Session) Messages() []occhat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Messages()
}

// Pending returns a copy of the pending approval, or nil.
func (s *Session) Pending() *occhat.PendingApproval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Pending()
}

// Context returns the chat context of the current or most recent connection.
func (s *Session) Context() occhat.ChatContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chatCtx
}

// dialLocked opens a socket for the current chat context and starts the
// read loop and heartbeat.
func (s *Session) dialLocked(ctx context.Context) error {
	urlStr, err := BuildURL(s.base, s.chatCtx)
	if err != nil {
		return err
	}
	conn, err := s.opts.Dialer.DialContext(ctx, urlStr)
	if err != nil {
		s.connected = false
		s.lastErr = fmt.Sprintf("connection failed: %v", err)
		return err
	}
	s.gen++
	gen := s.gen
	s.conn = conn
	s.connected = true
	s.lastErr = ""
	s.emit(occhat.EventConnected{})
	s.scheduleHeartbeatLocked(gen)
	go s.readLoop(conn, gen)
	s.log.Info("connected", zap.String("url", urlStr))
	return nil
}

// teardownLocked closes the current socket, cancels timers, and discards
// transcript state. Bumping the generation detaches the old read loop and
// any in-flight timer callbacks before a new socket can open.
func (s *Session) teardownLocked() {
	s.gen++
	s.stopTimersLocked()
	if s.conn != nil {
		_ = s.conn.WriteClose(websocket.CloseNormalClosure)
		_ = s.conn.Close()
		s.conn = nil
	}
	s.connected = false
	s.lastErr = ""
	s.transcript.Reset()
}

func (s *Session) stopTimersLocked() {
	if s.heartbeat != nil {
		s.heartbeat.Stop()
		s.heartbeat = nil
	}
	if s.reconnect != nil {
		s.reconnect.Stop()
		s.reconnect = nil
	}
}

func (s *Session) readLoop(conn Conn, gen int) {
	for {
		data, err := conn.ReadMessage()
		if err != nil {
			s.handleClose(gen, err)
			return
		}
		s.handleFrame(gen, data)
	}
}

// handleClose reacts to the read loop ending. The heartbeat is cleared
// before any reconnect is scheduled so timers never leak across cycles.
func (s *Session) handleClose(gen int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return // superseded by disconnect or redial
	}
	s.gen++
	s.stopTimersLocked()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	s.connected = false

	code := closeCode(err)
	if code == websocket.CloseNormalClosure {
		s.emit(occhat.EventDisconnected{})
		return
	}
	s.lastErr = fmt.Sprintf("connection lost: %v", err)
	s.log.Warn("abnormal close", zap.Int("code", code), zap.Error(err))
	s.emit(occhat.EventDisconnected{Err: err})
	if s.opts.AutoReconnect && !s.closed {
		s.scheduleReconnectLocked()
	}
}

func (s *Session) scheduleReconnectLocked() {
	gen := s.gen
	s.reconnect = s.opts.Clock.AfterFunc(s.opts.ReconnectDelay, func() { s.redial(gen) })
	s.log.Info("reconnect scheduled", zap.Duration("delay", s.opts.ReconnectDelay))
}

func (s *Session) redial(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return
	}
	s.reconnect = nil
	if err := s.dialLocked(context.Background()); err != nil {
		s.log.Warn("reconnect failed", zap.Error(err))
		s.scheduleReconnectLocked()
	}
}

func (s *Session) scheduleHeartbeatLocked(gen int) {
	s.heartbeat = s.opts.Clock.AfterFunc(s.opts.HeartbeatInterval, func() { s.heartbeatTick(gen) })
}

func (s *Session) heartbeatTick(gen int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.conn == nil {
		return
	}
	if err := s.conn.WriteJSON(occhat.NewPingFrame()); err != nil {
		s.log.Warn("heartbeat send failed", zap.Error(err))
	}
	s.scheduleHeartbeatLocked(gen)
}

// handleFrame parses one inbound frame and routes it. A malformed frame is
// logged and dropped; it never propagates to the read loop.
func (s *Session) handleFrame(gen int, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	frame, upd, err := occhat.DecodeFrame(raw)
	if err != nil {
		s.log.Warn("dropping malformed frame", zap.Error(err))
		return
	}
	// The approval side channel applies before type-specific handling.
	if upd != nil {
		if s.transcript.ApplyDecision(*upd) {
			s.emit(occhat.EventApprovalResolved{MessageID: upd.MessageID, Status: upd.Status})
		}
	}

	switch f := frame.(type) {
	case occhat.StartFrame:
		s.applyToken(f.Content, f.MessageID)
	case occhat.ContentFrame:
		s.applyToken(f.Content, f.MessageID)
	case occhat.SyncContentFrame:
		id, resolved := s.transcript.Finalize(f.Content, f.Sources, f.MessageID, nil)
		s.emitResolved(id, resolved)
		s.emit(occhat.EventMessageFinalized{MessageID: id, Content: f.Content})
	case occhat.ThoughtFrame:
		if entry, ok := s.transcript.AppendThought(f.Text, f.MessageID, f.Tool, f.Args); ok {
			s.emit(occhat.EventThought{MessageID: f.MessageID, Entry: entry})
		}
	case occhat.SourcesFrame:
		if added := s.transcript.MergeSources(f.MessageID, f.Sources); len(added) > 0 {
			s.emit(occhat.EventSourcesMerged{MessageID: f.MessageID, Sources: added})
		}
	case occhat.ApprovalNeededFrame:
		if f.MessageID == "" || f.ToolCall == nil {
			s.log.Warn("approval request missing message id or tool call")
			return
		}
		if pending, ok := s.transcript.RequireApproval(f.MessageID, *f.ToolCall); ok {
			s.emit(occhat.EventApprovalRequested{Approval: pending})
		}
	case occhat.FinishFrame:
		id, resolved := s.transcript.Finalize(f.Content, f.Sources, f.MessageID, f.Timeline)
		s.emitResolved(id, resolved)
		s.emit(occhat.EventMessageFinalized{MessageID: id, Content: f.Content})
	case occhat.ErrorFrame:
		id := s.transcript.SetError(f.MessageID, f.Text)
		s.emit(occhat.EventMessageError{MessageID: id, Text: f.Text})
	case occhat.ConnectedFrame:
		s.log.Debug("server greeting", zap.String("content", f.Content))
	case occhat.PongFrame:
		s.log.Debug("heartbeat acknowledged")
	case occhat.UnknownFrame:
		s.log.Warn("ignoring unknown frame type", zap.String("type", f.Type))
	}
}

func (s *Session) applyToken(token, messageID string) {
	id, created, resolved := s.transcript.AppendToken(token, messageID)
	if created {
		s.emit(occhat.EventMessageStarted{MessageID: id})
	}
	if token != "" {
		s.emit(occhat.EventToken{MessageID: id, Token: token})
	}
	s.emitResolved(id, resolved)
}

func (s *Session) emitResolved(id string, resolved bool) {
	if resolved {
		s.emit(occhat.EventApprovalResolved{MessageID: id, Status: occhat.ApprovalApproved})
	}
}

// emit delivers an event without blocking the read loop. The transcript
// snapshot stays authoritative, so dropping an event under backpressure
// only delays a redraw.
func (s *Session) emit(ev occhat.Event) {
	select {
	case s.events <- ev:
	default:
		s.log.Warn("event buffer full, dropping event")
	}
}
