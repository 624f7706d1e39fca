// README: Per-ride chat: passenger messages, simulated driver replies and live sessions.
package chat

import (
	"strings"

	"github.com/sirupsen/logrus"

	"quickride/internal/config"
	"quickride/internal/modules/events"
	"quickride/internal/modules/ride"
	"quickride/internal/sched"
	"quickride/internal/types"
)

const replyTaskName = "chat.reply"

type Service struct {
	reg    *ride.Registry
	loop   *sched.Loop
	hub    *events.Hub
	cfg    config.ChatConfig
	log    logrus.FieldLogger
	events events.Publisher
}

type Option func(*Service)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithEvents routes chat events through p instead of straight to the hub.
func WithEvents(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func NewService(reg *ride.Registry, loop *sched.Loop, hub *events.Hub, cfg config.ChatConfig, opts ...Option) *Service {
	s := &Service{
		reg:    reg,
		loop:   loop,
		hub:    hub,
		cfg:    cfg,
		log:    logrus.StandardLogger(),
		events: hub,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Send appends a message to the ride exactly as typed. A passenger message
// also schedules the driver's reply, which is dropped if the ride is
// cancelled before it fires. Send reports false when the ride is unknown,
// the sender is not a ride party or text is blank.
func (s *Service) Send(rideID types.ID, sender ride.Sender, text string) (ride.ChatMessage, bool) {
	if !sender.Valid() || strings.TrimSpace(text) == "" {
		return ride.ChatMessage{}, false
	}
	var (
		msg ride.ChatMessage
		ok  bool
	)
	s.loop.Do(func() {
		msg, ok = s.appendMessage(rideID, sender, text)
		if !ok || sender != ride.SenderPassenger {
			return
		}
		s.loop.After(s.cfg.ReplyDelay, replyTaskName, func() {
			if _, ok := s.appendMessage(rideID, ride.SenderDriver, s.cfg.ReplyText); !ok {
				s.log.WithField("ride_id", rideID).Debug("driver reply dropped")
			}
		})
	})
	if ok {
		s.log.WithFields(logrus.Fields{"ride_id": rideID, "sender": sender}).Debug("chat message sent")
	}
	return msg, ok
}

// Messages returns the ride's conversation in order.
func (s *Service) Messages(rideID types.ID) ([]ride.ChatMessage, bool) {
	var (
		r  ride.Ride
		ok bool
	)
	s.loop.Do(func() { r, _, ok = s.reg.FindByID(rideID) })
	if !ok {
		return nil, false
	}
	return r.Messages, true
}

// Open starts a live session on the ride's chat. The session's Events
// channel is closed when the ride is cancelled.
func (s *Service) Open(rideID types.ID) (*events.Subscriber, bool) {
	var sub *events.Subscriber
	s.loop.Do(func() {
		if _, _, ok := s.reg.FindByID(rideID); !ok {
			return
		}
		sub = s.hub.Subscribe(string(rideID))
	})
	return sub, sub != nil
}

func (s *Service) Leave(sub *events.Subscriber) {
	s.hub.Unsubscribe(sub)
}

// CloseRide ends every session on the ride. Callers hold the loop step.
func (s *Service) CloseRide(rideID types.ID) {
	s.events.Publish(events.Event{Type: events.ChatClosed, RideID: rideID, At: s.loop.Now()})
	if n := s.hub.CloseTopic(string(rideID)); n > 0 {
		s.log.WithField("ride_id", rideID).WithField("sessions", n).Info("chat sessions closed")
	}
}

// appendMessage adds a message to whichever collection holds the ride.
// Timestamps never go backwards within one conversation.
func (s *Service) appendMessage(rideID types.ID, sender ride.Sender, text string) (ride.ChatMessage, bool) {
	var msg ride.ChatMessage
	now := s.loop.Now()
	_, ok := s.reg.Update(rideID, func(r *ride.Ride) {
		ts := now
		if n := len(r.Messages); n > 0 && ts.Before(r.Messages[n-1].Timestamp) {
			ts = r.Messages[n-1].Timestamp
		}
		msg = ride.ChatMessage{ID: types.NewID(), Sender: sender, Text: text, Timestamp: ts}
		r.Messages = append(r.Messages, msg)
	})
	if ok {
		s.events.Publish(events.Event{Type: events.ChatMessage, RideID: rideID, At: msg.Timestamp, Data: msg})
	}
	return msg, ok
}
