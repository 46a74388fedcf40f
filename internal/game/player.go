// internal/game/player.go
package game

import (
	"github.com/google/uuid"

	"github.com/erilali/tictactoe/internal/logger"
	"github.com/erilali/tictactoe/internal/message"
	"github.com/erilali/tictactoe/internal/origin"
)

type ConnectionState int

const (
	StatePending ConnectionState = iota
	StateConnected
	StateInWorld
	StateInGame
	StateDisconnected
)

func (s ConnectionState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateConnected:
		return "connected"
	case StateInWorld:
		return "inWorld"
	case StateInGame:
		return "inGame"
	case StateDisconnected:
		return "disconnected"
	}
	return "unknown"
}

// PlayerState is a player's lifecycle position. Name is only meaningful in
// inWorld and inGame, Sign only in inGame.
type PlayerState struct {
	Connection ConnectionState
	Name       *string
	Sign       message.Sign
}

// AddPlayer asks a world to admit a player.
type AddPlayer struct {
	Player *Player
}

// Disconnected is delivered to a player's subscribers when its transport
// closes. Previous is the state the player was in before. When relayed to
// a remaining opponent the player reference is not sent.
type Disconnected struct {
	Player   *Player
	Previous ConnectionState
}

func (Disconnected) MarshalJSON() ([]byte, error) {
	return []byte("{}"), nil
}

// origins maps payloads produced by a player back to that player for the
// duration of their dispatch.
var origins = origin.New[*Player]()

// PlayerOf returns the player a payload originated from, or nil.
func PlayerOf(payload any) *Player {
	p, _ := origins.Get(payload)
	return p
}

// ReportMissing logs a payload that should have carried an origin.
func ReportMissing(kind message.Kind, payload any) {
	logger.NewLogger("player").
		WithField("payload", payload).
		Errorf("the %s message did not have a player associated with it", kind)
}

// Player is a single client connection and its lifecycle. It acts as a
// Channel: Send writes to the client and subscribers receive whatever the
// client sends.
type Player struct {
	id        string
	State     PlayerState
	conn      Conn
	receivers subscribers
	log       *logger.Logger
}

func NewPlayer(conn Conn) *Player {
	p := &Player{id: uuid.NewString()[:8], conn: conn}
	p.log = logger.NewLogger("player").WithField("player", p.id)

	switch state := conn.ReadyState(); state {
	case Open:
		p.State.Connection = StateConnected
	case Connecting:
		conn.AddEventListener(EventOpen, p, true)
	default:
		p.log.Errorf("cannot use a %s connection for a player", state)
		p.State.Connection = StateDisconnected
		return p
	}
	conn.AddEventListener(EventMessage, p, false)
	conn.AddEventListener(EventClose, p, true)
	return p
}

func (p *Player) ID() string {
	return p.id
}

// Send encodes the message and writes it to the client. Messages that
// originated from this player are not echoed back, and nothing is written
// unless the transport is open.
func (p *Player) Send(kind message.Kind, payload any) {
	if PlayerOf(payload) == p {
		return
	}
	if state := p.conn.ReadyState(); state != Open {
		p.log.Warnf("dropping %s, connection is %s", kind, state)
		return
	}
	text, err := message.Encode(kind, payload)
	if err != nil {
		p.log.Errorf("cannot encode %s: %v", kind, err)
		return
	}
	if err := p.conn.Send(text); err != nil {
		p.log.Warnf("cannot send %s: %v", kind, err)
	}
}

func (p *Player) Subscribe(r Receiver) {
	p.receivers.add(r)
}

func (p *Player) Unsubscribe(r Receiver) {
	p.receivers.remove(r)
}

// HandleEvent reacts to the transport's lifecycle.
func (p *Player) HandleEvent(ev Event) {
	switch ev.Type {
	case EventOpen:
		if p.State.Connection != StatePending {
			return
		}
		p.State.Connection = StateConnected
		p.dispatch(message.KindConnected, &message.Connected{})
	case EventMessage:
		p.receive(ev.Data)
	case EventClose:
		p.disconnect()
	}
}

func (p *Player) receive(text string) {
	frames, err := message.Decode(text)
	if err != nil {
		p.log.Warnf("discarding part of a frame: %v", err)
	}
	for _, f := range frames {
		p.dispatch(f.Kind, f.Payload)
	}
}

// dispatch delivers a locally received message to every subscriber,
// attributing it to this player while it is being handled.
func (p *Player) dispatch(kind message.Kind, payload any) {
	if kind.Attributable() || kind == message.KindConnected {
		if origins.Set(payload, p) {
			defer origins.Delete(payload)
		}
	}
	deliver(p.receivers.snapshot(), kind, payload, p.log)
}

func (p *Player) disconnect() {
	if p.State.Connection == StateDisconnected {
		return
	}
	previous := p.State.Connection
	p.State.Connection = StateDisconnected
	p.conn.RemoveEventListener(EventMessage, p)
	p.conn.RemoveEventListener(EventOpen, p)

	receivers := p.receivers.release()
	deliver(receivers, message.KindDisconnected, &Disconnected{Player: p, Previous: previous}, p.log)
	p.log.LogEvent("info", "player_disconnected", p.id, previous.String())
}
