// README: Engine event vocabulary published on every observable state change.
package events

import (
	"time"

	"quickride/internal/types"
)

type Type string

const (
	RideCreated       Type = "ride.created"
	RideStatusChanged Type = "ride.status_changed"
	RideApproach      Type = "ride.approach"
	RideCancelled     Type = "ride.cancelled"
	ChatMessage       Type = "chat.message"
	ChatClosed        Type = "chat.closed"
)

type Event struct {
	Type   Type      `json:"type"`
	RideID types.ID  `json:"ride_id,omitempty"`
	At     time.Time `json:"at"`
	Data   any       `json:"data,omitempty"`
}

// StatusChange is the payload of RideStatusChanged.
type StatusChange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Approach is the payload of RideApproach.
type Approach struct {
	DistanceKm float64 `json:"distance_km"`
	Archived   bool    `json:"archived"`
}

// Publisher accepts events from inside loop steps and must never block.
type Publisher interface {
	Publish(e Event)
}

type discard struct{}

func (discard) Publish(Event) {}

// Discard drops every event.
var Discard Publisher = discard{}
