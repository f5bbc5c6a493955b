// Package ws owns the WebSocket lifecycle for one agent-chat session:
// dialing, heartbeat, reconnection, and dispatch of inbound frames into a
// transcript.
package ws

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

const closeWriteTimeout = time.Second

// Conn is the subset of a WebSocket connection the session uses.
type Conn interface {
	// ReadMessage blocks until the next text frame arrives.
	ReadMessage() ([]byte, error)
	// WriteJSON marshals v and sends it as a text frame.
	WriteJSON(v any) error
	// WriteClose sends a close control frame with the given status code.
	WriteClose(code int) error
	// Close tears down the underlying transport.
	Close() error
}

// Dialer opens connections. The default implementation wraps
// gorilla/websocket; tests substitute function-field mocks.
type Dialer interface {
	DialContext(ctx context.Context, url string) (Conn, error)
}

// NewDialer returns a Dialer backed by gorilla/websocket.
func NewDialer() Dialer {
	return gorillaDialer{d: websocket.DefaultDialer}
}

type gorillaDialer struct {
	d *websocket.Dialer
}

func (g gorillaDialer) DialContext(ctx context.Context, urlStr string) (Conn, error) {
	c, resp, err := g.d.DialContext(ctx, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("ws: dial %s: %w", urlStr, err)
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return gorillaConn{c: c}, nil
}

type gorillaConn struct {
	c *websocket.Conn
}

func (g gorillaConn) ReadMessage() ([]byte, error) {
	_, data, err := g.c.ReadMessage()
	return data, err
}

func (g gorillaConn) WriteJSON(v any) error {
	return g.c.WriteJSON(v)
}

func (g gorillaConn) WriteClose(code int) error {
	msg := websocket.FormatCloseMessage(code, "")
	return g.c.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
}

func (g gorillaConn) Close() error {
	return g.c.Close()
}

// Interface compliance checks.
var (
	_ Dialer = gorillaDialer{}
	_ Conn   = gorillaConn{}
)

// closeCode extracts the close status code from a read error. Transport
// failures that carry no close frame count as abnormal closure.
func closeCode(err error) int {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return websocket.CloseAbnormalClosure
}
