// README: Periodic lifecycle tick: approach, finish and archive rides.
package ride

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"quickride/internal/modules/events"
)

const (
	MinDistanceKm     = 0.1
	ApproachStepKm    = 0.1
	HistoryApproachKm = 0.05
	lifecycleTaskName = "ride.lifecycle"
)

// Start registers the recurring lifecycle tick on the loop.
func (s *Service) Start() error {
	id, err := s.loop.Every(s.cfg.Tick, lifecycleTaskName, s.tick)
	if err != nil {
		return err
	}
	s.tickID = id
	s.log.WithField("tick", s.cfg.Tick).Info("ride lifecycle started")
	return nil
}

// Stop cancels the recurring tick. Rides keep their current state.
func (s *Service) Stop() {
	if s.tickID != 0 {
		s.loop.Cancel(s.tickID)
		s.tickID = 0
	}
}

// Tick runs one lifecycle pass as its own step.
func (s *Service) Tick() {
	s.loop.Do(s.tick)
}

// tick evaluates every active ride against the snapshot taken at its start,
// then approaches accepted history rides that are still far away.
func (s *Service) tick() {
	now := s.loop.Now()
	for _, r := range s.reg.Active() {
		if r.Status != StatusAccepted || r.DistanceKm == nil {
			continue
		}
		d := *r.DistanceKm
		if d > MinDistanceKm {
			next := approach(d, ApproachStepKm)
			s.reg.UpdateByID(CollectionActive, r.ID, func(x *Ride) { x.DistanceKm = &next })
			s.publish(events.RideApproach, r.ID, now, events.Approach{DistanceKm: next})
			s.log.WithField("ride_id", r.ID).WithField("distance_km", next).Debug("ride approaching")
			continue
		}
		if !s.finish() {
			continue
		}
		var err error
		s.reg.Archive(r.ID, func(x *Ride) {
			if err = s.transition(x, StatusFinished, now); err != nil {
				return
			}
			finished := now
			x.DistanceKm = nil
			x.FinishedAt = &finished
		})
		if err != nil {
			s.log.WithError(err).WithField("ride_id", r.ID).Error("finish ride")
			continue
		}
		s.log.WithFields(logrus.Fields{
			"ride_id":  r.ID,
			"duration": now.Sub(r.CreatedAt).Round(time.Second),
		}).Info("ride finished")
	}

	for _, r := range s.reg.History() {
		if r.Status != StatusAccepted || r.DistanceKm == nil || *r.DistanceKm <= MinDistanceKm {
			continue
		}
		next := approach(*r.DistanceKm, HistoryApproachKm)
		s.reg.UpdateByID(CollectionHistory, r.ID, func(x *Ride) { x.DistanceKm = &next })
		s.publish(events.RideApproach, r.ID, now, events.Approach{DistanceKm: next, Archived: true})
	}
}

// approach reduces d by step, never below the floor. Results are rounded to
// the meter so repeated float steps land exactly on the floor.
func approach(d, step float64) float64 {
	next := math.Round((d-step)*1000) / 1000
	return math.Max(MinDistanceKm, next)
}
