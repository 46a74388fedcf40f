// internal/events/events.go
// Publishes world lifecycle events to NATS.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/erilali/tictactoe/internal/game"
	"github.com/erilali/tictactoe/internal/logger"
	"github.com/erilali/tictactoe/internal/message"
)

const (
	EventCreated      = "created"
	EventEvicted      = "evicted"
	EventVictory      = "victory"
	EventDraw         = "draw"
	EventDisconnected = "disconnected"
)

// Publisher is the part of *nats.Conn the bus needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is the body of every published message.
type Event struct {
	World     string          `json:"world"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// Bus publishes world events under <prefix>.worlds.<name>.<event>.
// A Bus without a publisher does nothing.
type Bus struct {
	pub    Publisher
	prefix string
	now    func() time.Time
	log    *logger.Logger
}

func NewBus(pub Publisher, prefix string) *Bus {
	return &Bus{
		pub:    pub,
		prefix: prefix,
		now:    time.Now,
		log:    logger.NewLogger("events"),
	}
}

// Enabled reports whether events are actually sent anywhere.
func (b *Bus) Enabled() bool {
	return b != nil && b.pub != nil
}

// Subject returns the subject an event about world is published on.
func (b *Bus) Subject(world, event string) string {
	return fmt.Sprintf("%s.worlds.%s.%s", b.prefix, world, event)
}

func (b *Bus) WorldCreated(name string) {
	b.publish(name, EventCreated, nil)
}

func (b *Bus) WorldEvicted(name string) {
	b.publish(name, EventEvicted, nil)
}

// WorldObserver returns a receiver that publishes the outcome messages a
// world broadcasts, or nil when the bus is disabled.
func (b *Bus) WorldObserver(name string) game.Receiver {
	if !b.Enabled() {
		return nil
	}
	return &worldObserver{bus: b, world: name}
}

func (b *Bus) publish(world, event string, payload any) {
	if !b.Enabled() {
		return
	}
	e := Event{World: world, Kind: event, Timestamp: b.now().Unix()}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			b.log.Errorf("Failed to marshal %s payload: %v", event, err)
			return
		}
		e.Payload = raw
	}
	data, err := json.Marshal(e)
	if err != nil {
		b.log.Errorf("Failed to marshal %s event: %v", event, err)
		return
	}
	if err := b.pub.Publish(b.Subject(world, event), data); err != nil {
		b.log.Errorf("Failed to publish %s to NATS: %v", event, err)
	}
}

type worldObserver struct {
	bus   *Bus
	world string
}

func (o *worldObserver) Receive(kind message.Kind, payload any) {
	switch kind {
	case message.KindVictory:
		o.bus.publish(o.world, EventVictory, payload)
	case message.KindDraw:
		o.bus.publish(o.world, EventDraw, nil)
	case message.KindDisconnected:
		o.bus.publish(o.world, EventDisconnected, nil)
	}
}

// Connect dials NATS. On failure it logs and returns nil so the server can
// run without events.
func Connect(url string, log *logger.Logger, opts ...nats.Option) *nats.Conn {
	log.Infof("Connecting to NATS at %s", url)
	opts = append([]nats.Option{
		nats.Name("tictactoe"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("Disconnected from NATS: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("Reconnected to NATS at %s", nc.ConnectedUrl())
		}),
	}, opts...)

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		log.Errorf("Error connecting to NATS: %v", err)
		log.Warn("Running without NATS connection. World events will not be published.")
		return nil
	}
	log.Info("Successfully connected to NATS")
	return nc
}
