// internal/game/gametest/conn.go
// Package gametest provides an in-memory game.Conn for tests.
package gametest

import (
	"encoding/json"
	"errors"

	"github.com/tidwall/gjson"

	"github.com/erilali/tictactoe/internal/game"
	"github.com/erilali/tictactoe/internal/message"
)

var ErrClosed = errors.New("gametest: connection closed")

// Conn records every frame sent to it and lets tests drive its lifecycle.
type Conn struct {
	game.EventTarget
	state game.ReadyState
	sent  []string
}

// NewConn returns an open connection.
func NewConn() *Conn {
	return &Conn{state: game.Open}
}

// NewConnecting returns a connection that has not opened yet.
func NewConnecting() *Conn {
	return &Conn{state: game.Connecting}
}

func (c *Conn) Send(text string) error {
	if c.state != game.Open {
		return ErrClosed
	}
	c.sent = append(c.sent, text)
	return nil
}

func (c *Conn) ReadyState() game.ReadyState {
	return c.state
}

func (c *Conn) Open() {
	c.state = game.Open
	c.Dispatch(game.Event{Type: game.EventOpen})
}

// Receive simulates a frame arriving from the client.
func (c *Conn) Receive(text string) {
	c.Dispatch(game.Event{Type: game.EventMessage, Data: text})
}

// ReceiveMessage encodes a single message and delivers it as a frame.
func (c *Conn) ReceiveMessage(kind message.Kind, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}
	frame, err := json.Marshal(map[string]json.RawMessage{string(kind): raw})
	if err != nil {
		panic(err)
	}
	c.Receive(string(frame))
}

func (c *Conn) Close() {
	c.state = game.Closed
	c.Dispatch(game.Event{Type: game.EventClose})
}

// Sent returns the raw frames written so far.
func (c *Conn) Sent() []string {
	return append([]string(nil), c.sent...)
}

// Kinds lists the kinds of all frames written so far, in order.
func (c *Conn) Kinds() []message.Kind {
	var kinds []message.Kind
	for _, text := range c.sent {
		gjson.Parse(text).ForEach(func(key, _ gjson.Result) bool {
			kinds = append(kinds, message.Kind(key.String()))
			return true
		})
	}
	return kinds
}

// Messages returns the raw payloads of every frame of the given kind.
func (c *Conn) Messages(kind message.Kind) []string {
	var out []string
	for _, text := range c.sent {
		if v := gjson.Get(text, string(kind)); v.Exists() {
			out = append(out, v.Raw)
		}
	}
	return out
}

// Count is the number of frames of the given kind written so far.
func (c *Conn) Count(kind message.Kind) int {
	return len(c.Messages(kind))
}

// Last decodes the latest payload of the given kind into v.
func (c *Conn) Last(kind message.Kind, v any) bool {
	msgs := c.Messages(kind)
	if len(msgs) == 0 {
		return false
	}
	return json.Unmarshal([]byte(msgs[len(msgs)-1]), v) == nil
}

// Reset forgets the frames written so far.
func (c *Conn) Reset() {
	c.sent = nil
}
