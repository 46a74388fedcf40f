// internal/transport/websocket.go
// Websocket adapter for game.Conn.
package transport

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/erilali/tictactoe/internal/game"
	"github.com/erilali/tictactoe/internal/logger"
)

const (
	webSocketReadDeadline  = 60 * time.Second
	webSocketWriteDeadline = 10 * time.Second
	webSocketPingPeriod    = (webSocketReadDeadline * 9) / 10 // Must be less than readDeadline
	maxMessageSize         = 4096
	sendBufferSize         = 256
)

var (
	ErrClosed         = errors.New("connection closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is a game.Conn over a websocket. Frames are read and written on
// their own goroutines; events are handed to post so listeners run
// wherever the caller serializes game logic.
type Conn struct {
	game.EventTarget

	ws        *websocket.Conn
	send      chan string
	done      chan struct{}
	state     atomic.Int32
	post      func(func())
	closeOnce sync.Once
	log       *logger.Logger
}

// NewConn wraps an upgraded websocket. A nil post runs events on the read
// goroutine.
func NewConn(ws *websocket.Conn, post func(func()), log *logger.Logger) *Conn {
	if post == nil {
		post = func(f func()) { f() }
	}
	if log == nil {
		log = logger.NewLogger("transport")
	}
	c := &Conn{
		ws:   ws,
		send: make(chan string, sendBufferSize),
		done: make(chan struct{}),
		post: post,
		log:  log.WithField("remote", ws.RemoteAddr().String()),
	}
	c.state.Store(int32(game.Open))
	return c
}

// Start launches the read and write pumps. Listeners should be registered
// before calling it.
func (c *Conn) Start() {
	go c.readPump()
	go c.writePump()
}

func (c *Conn) ReadyState() game.ReadyState {
	return game.ReadyState(c.state.Load())
}

// Send queues text for writing. A client too slow to drain its buffer is
// disconnected.
func (c *Conn) Send(text string) error {
	if c.ReadyState() != game.Open {
		return ErrClosed
	}
	select {
	case c.send <- text:
		return nil
	default:
		c.log.Warn("Send buffer full, closing connection")
		c.Close()
		return ErrSendBufferFull
	}
}

// Close starts a normal closure. The close event fires once the peer is
// gone.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.state.CompareAndSwap(int32(game.Open), int32(game.Closing))
		close(c.done)
	})
}

func (c *Conn) readPump() {
	defer func() {
		c.Close()
		c.state.Store(int32(game.Closed))
		c.ws.Close()
		c.post(func() { c.Dispatch(game.Event{Type: game.EventClose}) })
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(webSocketReadDeadline))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(webSocketReadDeadline))
		return nil
	})

	for {
		typ, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warnf("WebSocket error: %v", err)
			}
			return
		}
		if typ != websocket.TextMessage {
			c.log.Debug("Ignoring non-text frame")
			continue
		}
		text := string(data)
		c.post(func() { c.Dispatch(game.Event{Type: game.EventMessage, Data: text}) })
	}
}

func (c *Conn) writePump() {
	ticker := time.NewTicker(webSocketPingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case text := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(webSocketWriteDeadline))
			if err := c.ws.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
				c.log.Debugf("Write failed: %v", err)
				c.Close()
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(webSocketWriteDeadline))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.Close()
				return // Client connection is likely broken
			}

		case <-c.done:
			c.ws.SetWriteDeadline(time.Now().Add(webSocketWriteDeadline))
			c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}
