// README: Ride service wires the registry to the scheduler loop and event bus.
package ride

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/sirupsen/logrus"

	"quickride/internal/config"
	"quickride/internal/modules/events"
	"quickride/internal/sched"
	"quickride/internal/types"
)

var (
	ErrInvalidRideParameters = errors.New("invalid ride parameters")
	ErrNotFound              = errors.New("ride not found")
	ErrDuplicateRide         = errors.New("ride id already registered")
	ErrInvalidState          = errors.New("invalid state transition")
)

// ChatCloser ends every chat session bound to a ride.
type ChatCloser interface {
	CloseRide(id types.ID)
}

type Service struct {
	reg    *Registry
	loop   *sched.Loop
	cfg    config.LifecycleConfig
	log    logrus.FieldLogger
	events events.Publisher
	chat   ChatCloser
	rng    *rand.Rand
	finish func() bool
	tickID sched.TaskID
}

type Option func(*Service)

func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

func WithEvents(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

func WithChatCloser(c ChatCloser) Option {
	return func(s *Service) { s.chat = c }
}

// WithFinishDraw replaces the random finish decision, typically in tests.
func WithFinishDraw(fn func() bool) Option {
	return func(s *Service) { s.finish = fn }
}

func NewService(reg *Registry, loop *sched.Loop, cfg config.LifecycleConfig, opts ...Option) *Service {
	seed := uint64(cfg.RandSeed)
	if cfg.RandSeed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	s := &Service{
		reg:    reg,
		loop:   loop,
		cfg:    cfg,
		log:    logrus.StandardLogger(),
		events: events.Discard,
		rng:    rand.New(rand.NewPCG(seed, seed>>1|1)),
	}
	s.finish = func() bool { return s.rng.Float64() < s.cfg.FinishProbability }
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create validates cmd and registers a new ride, already accepted by its
// driver. It returns the ride as it stood when the creating step ended.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (Ride, error) {
	if err := ctx.Err(); err != nil {
		return Ride{}, err
	}
	cmd = cmd.normalize()
	if err := cmd.Validate(); err != nil {
		return Ride{}, err
	}
	var (
		created Ride
		err     error
	)
	s.loop.Do(func() {
		now := s.loop.Now()
		r := s.build(cmd, now)
		if err = s.reg.InsertActive(r); err != nil {
			return
		}
		s.publish(events.RideCreated, r.ID, now, r.Clone())
		if err = s.transition(r, StatusAccepted, now); err != nil {
			return
		}
		created = r.Clone()
	})
	if err != nil {
		return Ride{}, err
	}
	s.log.WithFields(logrus.Fields{
		"ride_id":  created.ID,
		"category": cmd.Category,
	}).Info("ride created")
	return created, nil
}

// Get returns a copy of the ride and the collection that holds it.
func (s *Service) Get(id types.ID) (Ride, Collection, error) {
	var (
		r  Ride
		c  Collection
		ok bool
	)
	s.loop.Do(func() { r, c, ok = s.reg.FindByID(id) })
	if !ok {
		return Ride{}, 0, ErrNotFound
	}
	return r, c, nil
}

func (s *Service) ListActive() []Ride {
	var out []Ride
	s.loop.Do(func() { out = s.reg.Active() })
	return out
}

func (s *Service) ListHistory() []Ride {
	var out []Ride
	s.loop.Do(func() { out = s.reg.History() })
	return out
}

// transition moves r to status to, recording the change. Callers hold the step.
func (s *Service) transition(r *Ride, to Status, at time.Time) error {
	from := r.Status
	if !CanTransition(from, to) {
		return ErrInvalidState
	}
	r.Status = to
	s.publish(events.RideStatusChanged, r.ID, at, events.StatusChange{From: string(from), To: string(to)})
	return nil
}

func (s *Service) publish(t events.Type, id types.ID, at time.Time, data any) {
	s.events.Publish(events.Event{Type: t, RideID: id, At: at, Data: data})
}
