// internal/game/channel.go
package game

import (
	"slices"

	"github.com/erilali/tictactoe/internal/logger"
	"github.com/erilali/tictactoe/internal/message"
)

// Receiver consumes messages delivered by a Channel.
type Receiver interface {
	Receive(kind message.Kind, payload any)
}

// Channel is a one-to-many message endpoint. Send goes to the remote side,
// subscribers see what arrives locally.
type Channel interface {
	Send(kind message.Kind, payload any)
	Subscribe(r Receiver)
	Unsubscribe(r Receiver)
}

// subscribers is an ordered set of receivers.
type subscribers struct {
	list []Receiver
}

func (s *subscribers) add(r Receiver) {
	if slices.Contains(s.list, r) {
		return
	}
	s.list = append(s.list, r)
}

func (s *subscribers) remove(r Receiver) {
	s.list = slices.DeleteFunc(s.list, func(other Receiver) bool { return other == r })
}

// snapshot copies the set so receivers may (un)subscribe during delivery.
func (s *subscribers) snapshot() []Receiver {
	return slices.Clone(s.list)
}

// release empties the set and returns what it held.
func (s *subscribers) release() []Receiver {
	list := s.list
	s.list = nil
	return list
}

// deliver hands the message to each receiver in order. A receiver that
// panics is logged and the rest still run.
func deliver(receivers []Receiver, kind message.Kind, payload any, log *logger.Logger) {
	for _, r := range receivers {
		deliverOne(r, kind, payload, log)
	}
}

func deliverOne(r Receiver, kind message.Kind, payload any, log *logger.Logger) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("receiver %T failed on %s: %v", r, kind, rec)
		}
	}()
	r.Receive(kind, payload)
}
