// internal/lobby/lobby.go
// Matchmaking registry: tracks players that are not in a world yet, creates
// and joins worlds, and relays lobby cursor positions.
package lobby

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/erilali/tictactoe/internal/game"
	"github.com/erilali/tictactoe/internal/logger"
	"github.com/erilali/tictactoe/internal/message"
	"github.com/erilali/tictactoe/internal/throttle"
)

var (
	ErrNamesExhausted = errors.New("no free world name")
	ErrStopped        = errors.New("lobby stopped")
)

// Config tunes the lobby.
type Config struct {
	CursorInterval  time.Duration
	ReapInterval    time.Duration
	WorldIdleTTL    time.Duration
	MaxNameAttempts int
}

func DefaultConfig() Config {
	return Config{
		CursorInterval:  50 * time.Millisecond,
		ReapInterval:    time.Minute,
		WorldIdleTTL:    10 * time.Minute,
		MaxNameAttempts: 100,
	}
}

// Events is notified about world lifecycle changes.
type Events interface {
	WorldCreated(name string)
	WorldEvicted(name string)
	// WorldObserver returns a receiver subscribed to the world's broadcasts,
	// or nil.
	WorldObserver(name string) game.Receiver
}

type noEvents struct{}

func (noEvents) WorldCreated(string)                {}
func (noEvents) WorldEvicted(string)                {}
func (noEvents) WorldObserver(string) game.Receiver { return nil }

type Option func(*Lobby)

func WithNames(g NameGenerator) Option {
	return func(l *Lobby) { l.names = g }
}

func WithEvents(e Events) Option {
	return func(l *Lobby) { l.events = e }
}

// WithScheduler replaces the timer used to throttle cursor broadcasts.
// Callbacks from the given scheduler run directly, not on the loop.
func WithScheduler(s throttle.Scheduler) Option {
	return func(l *Lobby) { l.sched = s }
}

func WithClock(now func() time.Time) Option {
	return func(l *Lobby) { l.now = now }
}

// WithWorldOptions applies opts to every world the lobby creates.
func WithWorldOptions(opts ...game.WorldOption) Option {
	return func(l *Lobby) { l.worldOpts = append(l.worldOpts, opts...) }
}

// Stats is a point-in-time view of the lobby.
type Stats struct {
	Worlds  int `json:"worlds"`
	Players int `json:"players"`
}

// Lobby owns every world and every player not yet in one. All of its state
// is confined to the goroutine running Run; other goroutines go through Do.
type Lobby struct {
	cfg       Config
	worlds    map[string]*game.World
	players   []*game.Player
	cursors   []message.CursorPosition
	names     NameGenerator
	events    Events
	worldOpts []game.WorldOption

	sched      throttle.Scheduler
	cursorSync *throttle.Throttle[struct{}]

	tasks chan func()
	done  chan struct{}
	now   func() time.Time
	log   *logger.Logger
}

func New(cfg Config, opts ...Option) *Lobby {
	l := &Lobby{
		cfg:    cfg,
		worlds: make(map[string]*game.World),
		names:  WordNames(nil),
		events: noEvents{},
		tasks:  make(chan func(), 256),
		done:   make(chan struct{}),
		now:    time.Now,
		log:    logger.NewLogger("lobby"),
	}
	if l.cfg.MaxNameAttempts <= 0 {
		l.cfg.MaxNameAttempts = DefaultConfig().MaxNameAttempts
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.sched == nil {
		l.sched = loopScheduler{lobby: l}
	}
	l.cursorSync = throttle.New(l.cfg.CursorInterval, l.flushCursors, l.sched)
	return l
}

// Run processes tasks until ctx is cancelled.
func (l *Lobby) Run(ctx context.Context) error {
	defer close(l.done)

	var reap <-chan time.Time
	if l.cfg.ReapInterval > 0 {
		ticker := time.NewTicker(l.cfg.ReapInterval)
		defer ticker.Stop()
		reap = ticker.C
	}

	l.log.Info("Lobby started")
	for {
		select {
		case task := <-l.tasks:
			l.run(task)
		case <-reap:
			l.Reap()
		case <-ctx.Done():
			l.cursorSync.Stop()
			l.log.Info("Lobby stopped")
			return ctx.Err()
		}
	}
}

// Do queues task to run on the lobby goroutine. It is dropped once the
// lobby has stopped.
func (l *Lobby) Do(task func()) {
	select {
	case l.tasks <- task:
	case <-l.done:
	}
}

func (l *Lobby) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			l.log.Errorf("lobby task failed: %v", r)
		}
	}()
	task()
}

func (l *Lobby) Stats(ctx context.Context) (Stats, error) {
	result := make(chan Stats, 1)
	l.Do(func() {
		result <- Stats{Worlds: len(l.worlds), Players: len(l.players)}
	})
	select {
	case s := <-result:
		return s, nil
	case <-l.done:
		return Stats{}, ErrStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Enter wraps conn in a player and starts tracking it.
func (l *Lobby) Enter(conn game.Conn) *game.Player {
	p := game.NewPlayer(conn)
	if p.State.Connection == game.StateDisconnected {
		return p
	}
	l.players = append(l.players, p)
	p.Subscribe(l)
	if p.State.Connection == game.StateConnected {
		l.sendCursors(p)
	}
	return p
}

// Receive handles messages from players in the lobby.
func (l *Lobby) Receive(kind message.Kind, payload any) {
	switch kind {
	case message.KindConnected:
		if p := game.PlayerOf(payload); p != nil {
			l.sendCursors(p)
		}
	case message.KindDisconnected:
		if d, ok := payload.(*game.Disconnected); ok && d.Player != nil {
			l.exit(d.Player)
		}
	case message.KindNewWorld:
		l.newWorld(payload)
	case message.KindJoinWorld:
		l.joinWorld(payload)
	case message.KindCursorMove:
		l.moveCursor(payload)
	}
}

func (l *Lobby) newWorld(payload any) {
	p := game.PlayerOf(payload)
	if p == nil {
		game.ReportMissing(message.KindNewWorld, payload)
		return
	}
	name, err := l.uniqueName()
	if err != nil {
		l.log.Errorf("cannot create a world for %s: %v", p.ID(), err)
		return
	}

	opts := append(slices.Clone(l.worldOpts), game.WithClock(l.now))
	if obs := l.events.WorldObserver(name); obs != nil {
		opts = append(opts, game.WithObserver(obs))
	}
	w := game.NewWorld(name, opts...)
	l.worlds[name] = w
	l.log.LogEvent("info", "world_created", p.ID(), name)
	l.events.WorldCreated(name)

	l.admit(w, p)
}

func (l *Lobby) joinWorld(payload any) {
	p := game.PlayerOf(payload)
	if p == nil {
		game.ReportMissing(message.KindJoinWorld, payload)
		return
	}
	join, ok := payload.(*message.JoinWorld)
	if !ok {
		return
	}
	w, ok := l.worlds[join.World]
	if !ok {
		l.log.Infof("%s asked for unknown world %q", p.ID(), join.World)
		p.Send(message.KindWorldNotFound, &message.WorldNotFound{World: join.World})
		return
	}
	l.admit(w, p)
}

// admit hands p over to w. The lobby keeps tracking p if w turns it away.
func (l *Lobby) admit(w *game.World, p *game.Player) {
	w.Update(message.KindAddPlayer, &game.AddPlayer{Player: p})
	if w.Has(p) {
		l.exit(p)
	}
}

func (l *Lobby) exit(p *game.Player) {
	p.Unsubscribe(l)
	l.players = slices.DeleteFunc(l.players, func(other *game.Player) bool { return other == p })
	l.cursors = slices.DeleteFunc(l.cursors, func(c message.CursorPosition) bool { return c.ID == p.ID() })
	l.cursorSync.Call(struct{}{})
}

func (l *Lobby) uniqueName() (string, error) {
	for range l.cfg.MaxNameAttempts {
		name := l.names.Generate()
		if _, taken := l.worlds[name]; name != "" && !taken {
			return name, nil
		}
	}
	return "", ErrNamesExhausted
}

func (l *Lobby) moveCursor(payload any) {
	p := game.PlayerOf(payload)
	if p == nil {
		game.ReportMissing(message.KindCursorMove, payload)
		return
	}
	move, ok := payload.(*message.CursorMove)
	if !ok {
		return
	}
	pos := message.CursorPosition{ID: p.ID(), X: move[0], Y: move[1]}
	if i := slices.IndexFunc(l.cursors, func(c message.CursorPosition) bool { return c.ID == pos.ID }); i >= 0 {
		l.cursors[i] = pos
	} else {
		l.cursors = append(l.cursors, pos)
	}
	l.cursorSync.Call(struct{}{})
}

func (l *Lobby) sendCursors(p *game.Player) {
	snapshot := message.CursorSync(slices.Clone(l.cursors))
	if snapshot == nil {
		snapshot = message.CursorSync{}
	}
	p.Send(message.KindCursorSync, &snapshot)
}

// flushCursors sends every tracked player the cursors of the others.
func (l *Lobby) flushCursors(struct{}) {
	for _, p := range l.players {
		others := make(message.CursorSync, 0, len(l.cursors))
		for _, c := range l.cursors {
			if c.ID != p.ID() {
				others = append(others, c)
			}
		}
		if len(others) > 0 {
			p.Send(message.KindCursorSync, &others)
		}
	}
}

// loopScheduler runs throttled callbacks on the lobby goroutine.
type loopScheduler struct {
	lobby *Lobby
}

func (s loopScheduler) AfterFunc(d time.Duration, f func()) throttle.Timer {
	return time.AfterFunc(d, func() { s.lobby.Do(f) })
}
