// Package mock provides test doubles for occhat interfaces using function
// fields.
package mock

import (
	"context"

	"github.com/jsdzhang/occhat/ws"
)

// Interface compliance checks.
var (
	_ ws.Dialer = (*Dialer)(nil)
	_ ws.Conn   = (*Conn)(nil)
)

// Dialer is a test double for ws.Dialer.
// Set DialContextFn before calling DialContext.
type Dialer struct {
	DialContextFn func(ctx context.Context, url string) (ws.Conn, error)
}

// DialContext delegates to DialContextFn.
func (d *Dialer) DialContext(ctx context.Context, url string) (ws.Conn, error) {
	return d.DialContextFn(ctx, url)
}

// Conn is a test double for ws.Conn.
// Set the function fields for the methods you need; unset WriteClose and
// Close default to no-ops so teardown paths don't require wiring.
type Conn struct {
	ReadMessageFn func() ([]byte, error)
	WriteJSONFn   func(v any) error
	WriteCloseFn  func(code int) error
	CloseFn       func() error
}

// ReadMessage delegates to ReadMessageFn.
func (c *Conn) ReadMessage() ([]byte, error) {
	return c.ReadMessageFn()
}

// WriteJSON delegates to WriteJSONFn.
func (c *Conn) WriteJSON(v any) error {
	return c.WriteJSONFn(v)
}

// WriteClose delegates to WriteCloseFn when set.
func (c *Conn) WriteClose(code int) error {
	if c.WriteCloseFn == nil {
		return nil
	}
	return c.WriteCloseFn(code)
}

// Close delegates to CloseFn when set.
func (c *Conn) Close() error {
	if c.CloseFn == nil {
		return nil
	}
	return c.CloseFn()
}
