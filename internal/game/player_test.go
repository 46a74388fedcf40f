package game_test

import (
	"testing"

	"github.com/erilali/tictactoe/internal/game"
	"github.com/erilali/tictactoe/internal/game/gametest"
	"github.com/erilali/tictactoe/internal/message"
)

// recorder captures what it receives, including the origin of each payload
// at delivery time.
type recorder struct {
	kinds     []message.Kind
	payloads  []any
	origins   []*game.Player
	onReceive func(kind message.Kind, payload any)
}

func (r *recorder) Receive(kind message.Kind, payload any) {
	r.kinds = append(r.kinds, kind)
	r.payloads = append(r.payloads, payload)
	r.origins = append(r.origins, game.PlayerOf(payload))
	if r.onReceive != nil {
		r.onReceive(kind, payload)
	}
}

type panicker struct{}

func (panicker) Receive(message.Kind, any) { panic("boom") }

func TestNewPlayerOnOpenConnection(t *testing.T) {
	p := game.NewPlayer(gametest.NewConn())
	if p.State.Connection != game.StateConnected {
		t.Fatalf("state = %s, want connected", p.State.Connection)
	}
	if len(p.ID()) != 8 {
		t.Fatalf("id %q should be 8 characters", p.ID())
	}
	if other := game.NewPlayer(gametest.NewConn()); other.ID() == p.ID() {
		t.Fatal("two players share an id")
	}
}

func TestPlayerSynthesizesConnectedOnOpen(t *testing.T) {
	conn := gametest.NewConnecting()
	p := game.NewPlayer(conn)
	if p.State.Connection != game.StatePending {
		t.Fatalf("state = %s, want pending", p.State.Connection)
	}

	rec := &recorder{}
	p.Subscribe(rec)
	conn.Open()
	conn.Open()

	if p.State.Connection != game.StateConnected {
		t.Fatalf("state = %s, want connected", p.State.Connection)
	}
	if len(rec.kinds) != 1 || rec.kinds[0] != message.KindConnected {
		t.Fatalf("received %v, want a single Connected", rec.kinds)
	}
	if rec.origins[0] != p {
		t.Fatal("Connected did not resolve to its player during delivery")
	}
	if game.PlayerOf(rec.payloads[0]) != nil {
		t.Fatal("origin survived the dispatch")
	}
}

func TestPlayerDispatchesFramesInOrderWithOrigins(t *testing.T) {
	conn := gametest.NewConn()
	p := game.NewPlayer(conn)
	rec := &recorder{}
	p.Subscribe(rec)

	conn.Receive(`{"Sync":{"turn":"X"},"Mark":{"place":5},"Bogus":{},"JoinedWorld":{"world":"w"}}`)

	want := []message.Kind{message.KindSync, message.KindMark}
	if len(rec.kinds) != len(want) {
		t.Fatalf("received %v, want %v", rec.kinds, want)
	}
	for i := range want {
		if rec.kinds[i] != want[i] {
			t.Fatalf("received %v, want %v", rec.kinds, want)
		}
	}
	if rec.origins[0] != nil {
		t.Error("Sync is not attributable but carried an origin")
	}
	if rec.origins[1] != p {
		t.Error("Mark did not carry its origin")
	}
	if mark := rec.payloads[1].(*message.Mark); mark.Place != 5 {
		t.Errorf("mark place = %d, want 5", mark.Place)
	}
}

func TestPlayerIgnoresMalformedFrames(t *testing.T) {
	conn := gametest.NewConn()
	p := game.NewPlayer(conn)
	rec := &recorder{}
	p.Subscribe(rec)

	conn.Receive(`not json`)
	conn.Receive(`[1,2]`)
	conn.Receive(`{"Mark":{"place":"five"}}`)

	if len(rec.kinds) != 0 {
		t.Fatalf("received %v from malformed frames", rec.kinds)
	}
}

func TestPlayerSendSuppressesEcho(t *testing.T) {
	connA, connB := gametest.NewConn(), gametest.NewConn()
	a, b := game.NewPlayer(connA), game.NewPlayer(connB)

	rec := &recorder{onReceive: func(kind message.Kind, payload any) {
		a.Send(kind, payload)
		b.Send(kind, payload)
	}}
	a.Subscribe(rec)
	connA.ReceiveMessage(message.KindMark, message.Mark{Place: 3})

	if n := len(connA.Sent()); n != 0 {
		t.Fatalf("sender got its own message back %d times", n)
	}
	if n := connB.Count(message.KindMark); n != 1 {
		t.Fatalf("other player got %d Mark frames, want 1", n)
	}

	// Once the dispatch is over the same payload is no longer attributed.
	a.Send(message.KindMark, rec.payloads[0])
	if n := connA.Count(message.KindMark); n != 1 {
		t.Fatalf("untagged payload sent %d times, want 1", n)
	}
}

func TestPlayerSendRequiresOpenConnection(t *testing.T) {
	conn := gametest.NewConnecting()
	p := game.NewPlayer(conn)
	p.Send(message.KindDraw, &message.Draw{})
	if n := len(conn.Sent()); n != 0 {
		t.Fatalf("sent %d frames on a connecting transport", n)
	}
}

func TestPlayerSendRejectsClientOnlyKinds(t *testing.T) {
	conn := gametest.NewConn()
	p := game.NewPlayer(conn)
	p.Send(message.KindJoinWorld, &message.JoinWorld{World: "x"})
	p.Send(message.KindAddPlayer, &game.AddPlayer{Player: p})
	if n := len(conn.Sent()); n != 0 {
		t.Fatalf("sent %d frames of kinds the server never emits", n)
	}
}

func TestPlayerDisconnect(t *testing.T) {
	conn := gametest.NewConn()
	p := game.NewPlayer(conn)
	first, second := &recorder{}, &recorder{}
	p.Subscribe(first)
	p.Subscribe(second)

	conn.Close()

	if p.State.Connection != game.StateDisconnected {
		t.Fatalf("state = %s, want disconnected", p.State.Connection)
	}
	for i, rec := range []*recorder{first, second} {
		if len(rec.kinds) != 1 || rec.kinds[0] != message.KindDisconnected {
			t.Fatalf("subscriber %d received %v, want Disconnected", i, rec.kinds)
		}
		d := rec.payloads[0].(*game.Disconnected)
		if d.Player != p || d.Previous != game.StateConnected {
			t.Fatalf("subscriber %d got %+v", i, d)
		}
	}

	conn.Receive(`{"Mark":{"place":1}}`)
	conn.Close()
	if len(first.kinds) != 1 || len(second.kinds) != 1 {
		t.Fatal("subscribers were not released on disconnect")
	}
}

func TestPlayerReceiverFailureIsIsolated(t *testing.T) {
	conn := gametest.NewConn()
	p := game.NewPlayer(conn)
	rec := &recorder{}
	p.Subscribe(panicker{})
	p.Subscribe(rec)

	conn.ReceiveMessage(message.KindMark, message.Mark{Place: 1})

	if len(rec.kinds) != 1 {
		t.Fatalf("receiver after a failing one got %v", rec.kinds)
	}
}

func TestPlayerSubscribeIsIdempotent(t *testing.T) {
	conn := gametest.NewConn()
	p := game.NewPlayer(conn)
	rec := &recorder{}
	p.Subscribe(rec)
	p.Subscribe(rec)

	conn.ReceiveMessage(message.KindMark, message.Mark{Place: 1})
	if len(rec.kinds) != 1 {
		t.Fatalf("received %d times, want 1", len(rec.kinds))
	}

	p.Unsubscribe(rec)
	conn.ReceiveMessage(message.KindMark, message.Mark{Place: 2})
	if len(rec.kinds) != 1 {
		t.Fatal("received after Unsubscribe")
	}
}
