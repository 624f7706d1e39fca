// README: Ride cancellation and demo history seeding.
package ride

import (
	"time"

	"quickride/internal/modules/events"
	"quickride/internal/types"
)

// Cancel deletes the ride from whichever collection holds it and closes its
// chat. It reports whether a ride was removed; unknown ids are a no-op.
func (s *Service) Cancel(id types.ID) bool {
	var (
		removed bool
		coll    Collection
	)
	s.loop.Do(func() {
		coll, removed = s.reg.RemoveByID(id)
		if !removed {
			return
		}
		s.publish(events.RideCancelled, id, s.loop.Now(), nil)
		if s.chat != nil {
			s.chat.CloseRide(id)
		}
	})
	if !removed {
		return false
	}
	entry := s.log.WithField("ride_id", id).WithField("collection", coll.String())
	if coll == CollectionHistory {
		entry.Warn("ride cancelled from history")
	} else {
		entry.Info("ride cancelled")
	}
	return true
}

// SeedHistory registers a demo ride that is still on its way, so the
// history view is populated on a fresh start.
func (s *Service) SeedHistory() (types.ID, error) {
	var (
		id  types.ID
		err error
	)
	s.loop.Do(func() {
		now := s.loop.Now()
		distance := 1.2
		r := &Ride{
			ID:                types.NewID(),
			OSNumber:          "29384756",
			PassengerName:     "Carlos Oliveira",
			PassengerCPF:      "123.***.***-45",
			PassengerWhatsapp: "(93) 98118-3360",
			Destination:       "Terminal Rodoviário, Plataforma A",
			Category:          CategoryCarro,
			Status:            StatusAccepted,
			Driver: &DriverInfo{
				Name:    "Marcos Souza",
				Photo:   "https://i.pravatar.cc/150?u=marcos",
				Rating:  4.9,
				Vehicle: "Fiat Cronos Branco",
				Plate:   "QWJ-9012",
			},
			DistanceKm: &distance,
			Messages: []ChatMessage{{
				ID:        types.NewID(),
				Sender:    SenderDriver,
				Text:      "Estou chegando no ponto de encontro!",
				Timestamp: now.Add(-2 * time.Minute),
			}},
			CreatedAt: now.Add(-5 * time.Minute),
		}
		if err = s.reg.SeedHistory(r); err == nil {
			id = r.ID
		}
	})
	return id, err
}
