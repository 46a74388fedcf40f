// internal/game/world.go
package game

import (
	"math/rand/v2"
	"slices"
	"time"

	"github.com/erilali/tictactoe/internal/logger"
	"github.com/erilali/tictactoe/internal/message"
)

const maxPlayers = 2

type WorldConnection int

const (
	WorldWaiting WorldConnection = iota
	WorldInGame
)

func (c WorldConnection) String() string {
	if c == WorldInGame {
		return "inGame"
	}
	return "waiting"
}

// WorldState is the authoritative game state of a world. Board and Turn are
// only meaningful while Connection is WorldInGame.
type WorldState struct {
	Connection WorldConnection
	Board      message.Board
	Turn       message.Sign
}

// Handler reacts to one message kind inside a world.
type Handler func(payload any, w *World)

// On adapts a typed function into a Handler. Payloads of the wrong type are
// logged and skipped.
func On[P any](fn func(P, *World)) Handler {
	return func(payload any, w *World) {
		p, ok := payload.(P)
		if !ok {
			w.log.Warnf("handler expected %T, got %T", *new(P), payload)
			return
		}
		fn(p, w)
	}
}

// System is a named bundle of handlers.
type System struct {
	Name     string
	Handlers map[message.Kind]Handler
}

// receivable lists the kinds a world accepts from its members.
var receivable = map[message.Kind]bool{
	message.KindDisconnected:   true,
	message.KindUpdateColors:   true,
	message.KindMark:           true,
	message.KindPlayerProfile:  true,
	message.KindRequestRematch: true,
}

type WorldOption func(*World)

// WithRand sets the source used to assign signs and the first turn.
func WithRand(r *rand.Rand) WorldOption {
	return func(w *World) { w.rand = r }
}

func WithClock(now func() time.Time) WorldOption {
	return func(w *World) { w.now = now }
}

// WithObserver subscribes r to everything the world broadcasts.
func WithObserver(r Receiver) WorldOption {
	return func(w *World) {
		if r != nil {
			w.channel.receivers.add(r)
		}
	}
}

// World is one game room. It holds at most two players and runs its
// systems, in a fixed order, for every message it processes.
type World struct {
	name    string
	players []*Player
	State   WorldState

	channel  *broadcast
	handlers map[message.Kind][]Handler

	colors   message.UpdateColors
	hasColor bool
	profiles map[string]*message.PlayerProfile

	rand       *rand.Rand
	now        func() time.Time
	lastActive time.Time
	log        *logger.Logger
}

func NewWorld(name string, opts ...WorldOption) *World {
	w := &World{
		name:     name,
		players:  make([]*Player, 0, maxPlayers),
		handlers: make(map[message.Kind][]Handler),
		profiles: make(map[string]*message.PlayerProfile),
		now:      time.Now,
		log:      logger.NewLogger("world").WithField("world", name),
	}
	w.channel = &broadcast{world: w}
	for _, opt := range opts {
		opt(w)
	}
	for _, sys := range Systems {
		for kind, h := range sys.Handlers {
			w.handlers[kind] = append(w.handlers[kind], h)
		}
	}
	w.lastActive = w.now()
	return w
}

func (w *World) Name() string {
	return w.name
}

// Channel broadcasts to every member and to local observers.
func (w *World) Channel() Channel {
	return w.channel
}

// Update runs every system handler registered for kind, in system order.
// A nil payload is replaced by an empty one. Handlers may call Update.
func (w *World) Update(kind message.Kind, payload any) {
	if payload == nil {
		payload = message.New(kind)
	}
	for _, h := range w.handlers[kind] {
		h(payload, w)
	}
}

// Receive accepts messages from member players.
func (w *World) Receive(kind message.Kind, payload any) {
	w.lastActive = w.now()
	if !receivable[kind] {
		return
	}
	w.Update(kind, payload)
}

func (w *World) Has(p *Player) bool {
	return slices.Contains(w.players, p)
}

func (w *World) Len() int {
	return len(w.players)
}

// Players returns the members in join order.
func (w *World) Players() []*Player {
	return slices.Clone(w.players)
}

// LastActive is when the world last received a message from a member.
func (w *World) LastActive() time.Time {
	return w.lastActive
}

func (w *World) addPlayer(p *Player) {
	w.players = append(w.players, p)
	w.lastActive = w.now()
}

// admits reports whether p would be added by an AddPlayer.
func (w *World) admits(p *Player) bool {
	return p != nil && !w.Has(p) && p.State.Connection == StateConnected && w.Len() < maxPlayers
}

func (w *World) removePlayer(p *Player) bool {
	i := slices.Index(w.players, p)
	if i < 0 {
		return false
	}
	w.players = slices.Delete(w.players, i, i+1)
	return true
}

// others returns the members other than p.
func (w *World) others(p *Player) []*Player {
	var out []*Player
	for _, other := range w.players {
		if other != p {
			out = append(out, other)
		}
	}
	return out
}

func (w *World) all(state ConnectionState) bool {
	for _, p := range w.players {
		if p.State.Connection != state {
			return false
		}
	}
	return true
}

func (w *World) coin() bool {
	if w.rand != nil {
		return w.rand.IntN(2) == 0
	}
	return rand.IntN(2) == 0
}

// broadcast is the world's outbound channel.
type broadcast struct {
	world     *World
	receivers subscribers
}

func (b *broadcast) Send(kind message.Kind, payload any) {
	for _, p := range b.world.Players() {
		p.Send(kind, payload)
	}
	deliver(b.receivers.snapshot(), kind, payload, b.world.log)
}

func (b *broadcast) Subscribe(r Receiver) {
	b.receivers.add(r)
}

func (b *broadcast) Unsubscribe(r Receiver) {
	b.receivers.remove(r)
}
