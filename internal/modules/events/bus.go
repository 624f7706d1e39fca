// README: Event bus: synchronous hub delivery plus asynchronous fan-out to external sinks.
package events

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	busBuffer   = 1024
	sinkTimeout = 5 * time.Second
)

// Sink is an external destination for events. Write is called from the bus
// worker, never from inside a loop step.
type Sink interface {
	Name() string
	Write(ctx context.Context, e Event) error
}

type Bus struct {
	hub   *Hub
	sinks []Sink
	queue chan Event
	log   logrus.FieldLogger
}

func NewBus(hub *Hub, log logrus.FieldLogger, sinks ...Sink) *Bus {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Bus{
		hub:   hub,
		sinks: sinks,
		queue: make(chan Event, busBuffer),
		log:   log,
	}
}

func (b *Bus) Hub() *Hub {
	return b.hub
}

func (b *Bus) Publish(e Event) {
	b.hub.Publish(e)
	if len(b.sinks) == 0 {
		return
	}
	select {
	case b.queue <- e:
	default:
		b.log.WithFields(logrus.Fields{"event": e.Type, "ride_id": e.RideID}).Warn("event bus full, dropping event for sinks")
	}
}

// Run forwards queued events to every sink until ctx is done. Sink failures
// are logged and never stop the worker.
func (b *Bus) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case e := <-b.queue:
			b.dispatch(ctx, e)
		}
	}
}

func (b *Bus) dispatch(ctx context.Context, e Event) {
	for _, s := range b.sinks {
		wctx, cancel := context.WithTimeout(ctx, sinkTimeout)
		if err := s.Write(wctx, e); err != nil {
			b.log.WithError(err).WithFields(logrus.Fields{
				"sink":    s.Name(),
				"event":   e.Type,
				"ride_id": e.RideID,
			}).Error("event sink write failed")
		}
		cancel()
	}
}
