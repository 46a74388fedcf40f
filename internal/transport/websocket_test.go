package transport

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/erilali/tictactoe/internal/game"
	"github.com/erilali/tictactoe/internal/logger"
)

type eventLog chan game.Event

func (l eventLog) HandleEvent(ev game.Event) { l <- ev }

// serial runs posted functions one at a time on a single goroutine.
func serial(t *testing.T) func(func()) {
	tasks := make(chan func(), 64)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case f := <-tasks:
				f()
			case <-done:
				return
			}
		}
	}()
	t.Cleanup(func() { close(done) })
	return func(f func()) { tasks <- f }
}

// pair starts a server and returns the server side Conn with its event log
// and the client side websocket.
func pair(t *testing.T) (*Conn, eventLog, *websocket.Conn) {
	t.Helper()
	post := serial(t)
	conns := make(chan *Conn, 1)
	events := make(eventLog, 16)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		c := NewConn(ws, post, logger.Nop())
		c.AddEventListener(game.EventMessage, events, false)
		c.AddEventListener(game.EventClose, events, true)
		c.Start()
		conns <- c
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	select {
	case c := <-conns:
		return c, events, client
	case <-time.After(2 * time.Second):
		t.Fatal("server never accepted the connection")
	}
	return nil, nil, nil
}

func next(t *testing.T, events eventLog) game.Event {
	t.Helper()
	select {
	case ev := <-events:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("no event")
	}
	return game.Event{}
}

func TestConnRoundTrip(t *testing.T) {
	conn, events, client := pair(t)

	if conn.ReadyState() != game.Open {
		t.Fatalf("state = %s, want OPEN", conn.ReadyState())
	}
	if err := client.WriteMessage(websocket.TextMessage, []byte(`{"NewWorld":{}}`)); err != nil {
		t.Fatalf("client write: %v", err)
	}
	if ev := next(t, events); ev.Type != game.EventMessage || ev.Data != `{"NewWorld":{}}` {
		t.Fatalf("event = %+v", ev)
	}

	if err := conn.Send(`{"Draw":{}}`); err != nil {
		t.Fatalf("Send: %v", err)
	}
	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := client.ReadMessage()
	if err != nil || string(data) != `{"Draw":{}}` {
		t.Fatalf("client read %q, %v", data, err)
	}
}

func TestConnPeerClose(t *testing.T) {
	conn, events, client := pair(t)

	client.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	client.Close()

	if ev := next(t, events); ev.Type != game.EventClose {
		t.Fatalf("event = %+v, want close", ev)
	}
	if conn.ReadyState() != game.Closed {
		t.Fatalf("state = %s, want CLOSED", conn.ReadyState())
	}
	if err := conn.Send("late"); !errors.Is(err, ErrClosed) {
		t.Fatalf("Send after close = %v, want ErrClosed", err)
	}
}

func TestConnServerClose(t *testing.T) {
	conn, events, client := pair(t)

	conn.Close()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := client.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("client read error = %v, want normal closure", err)
	}
	if ev := next(t, events); ev.Type != game.EventClose {
		t.Fatalf("event = %+v, want close", ev)
	}
}
