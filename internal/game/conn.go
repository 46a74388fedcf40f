// internal/game/conn.go
// Transport abstraction consumed by players: a duplex text endpoint that
// reports its lifecycle through events.
package game

import (
	"slices"

	"github.com/erilali/tictactoe/internal/logger"
)

type ReadyState int

const (
	Connecting ReadyState = iota
	Open
	Closing
	Closed
)

func (s ReadyState) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Open:
		return "OPEN"
	case Closing:
		return "CLOSING"
	case Closed:
		return "CLOSED"
	}
	return "UNKNOWN"
}

type EventType int

const (
	EventOpen EventType = iota
	EventMessage
	EventClose
)

// Event is a transport lifecycle notification. Data is set for EventMessage.
type Event struct {
	Type EventType
	Data string
}

type EventHandler interface {
	HandleEvent(Event)
}

// Conn is the transport a Player owns. Messages are ordered and reliable,
// and there is a single active connection per endpoint.
type Conn interface {
	Send(text string) error
	ReadyState() ReadyState
	AddEventListener(typ EventType, handler EventHandler, once bool)
	RemoveEventListener(typ EventType, handler EventHandler)
}

type listener struct {
	handler EventHandler
	once    bool
}

// EventTarget implements listener bookkeeping for Conn implementations.
// It is not safe for concurrent use: adapters dispatch on the lobby loop.
type EventTarget struct {
	listeners map[EventType][]listener
}

// AddEventListener registers handler for typ. Adding the same handler twice
// has no effect.
func (t *EventTarget) AddEventListener(typ EventType, handler EventHandler, once bool) {
	if t.listeners == nil {
		t.listeners = make(map[EventType][]listener)
	}
	for _, l := range t.listeners[typ] {
		if l.handler == handler {
			return
		}
	}
	t.listeners[typ] = append(t.listeners[typ], listener{handler: handler, once: once})
}

func (t *EventTarget) RemoveEventListener(typ EventType, handler EventHandler) {
	t.listeners[typ] = slices.DeleteFunc(t.listeners[typ], func(l listener) bool {
		return l.handler == handler
	})
}

// Dispatch calls every listener registered for ev.Type in registration
// order. Once listeners are removed before they run. A panicking listener
// is logged and does not stop the others.
func (t *EventTarget) Dispatch(ev Event) {
	for _, l := range slices.Clone(t.listeners[ev.Type]) {
		if l.once {
			t.RemoveEventListener(ev.Type, l.handler)
		}
		dispatchOne(l.handler, ev)
	}
}

func dispatchOne(handler EventHandler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			logger.NewLogger("transport").Errorf("event listener %T panicked: %v", handler, r)
		}
	}()
	handler.HandleEvent(ev)
}
