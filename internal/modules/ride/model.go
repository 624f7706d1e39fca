// README: Ride aggregate, chat message and status definitions.
package ride

import (
	"time"

	"quickride/internal/types"
)

type Status string

const (
	StatusWaiting  Status = "WAITING"
	StatusAccepted Status = "ACCEPTED"
	StatusFinished Status = "FINISHED"
)

type Category string

const (
	CategoryMoto  Category = "MOTO"
	CategoryCarro Category = "CARRO"
	CategorySUV   Category = "SUV"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryMoto, CategoryCarro, CategorySUV:
		return true
	}
	return false
}

type Sender string

const (
	SenderPassenger Sender = "passenger"
	SenderDriver    Sender = "driver"
)

func (s Sender) Valid() bool {
	return s == SenderPassenger || s == SenderDriver
}

type DriverInfo struct {
	Name    string  `json:"name" validate:"required"`
	Photo   string  `json:"photo"`
	Rating  float64 `json:"rating" validate:"gte=0,lte=5"`
	Vehicle string  `json:"vehicle" validate:"required"`
	Plate   string  `json:"plate" validate:"required"`
}

type ChatMessage struct {
	ID        types.ID  `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type Ride struct {
	ID                types.ID      `json:"id"`
	OSNumber          string        `json:"os_number"`
	PassengerName     string        `json:"passenger_name"`
	PassengerCPF      string        `json:"passenger_cpf"`
	PassengerWhatsapp string        `json:"passenger_whatsapp"`
	Destination       string        `json:"destination"`
	Category          Category      `json:"category"`
	Status            Status        `json:"status"`
	Driver            *DriverInfo   `json:"driver,omitempty"`
	DistanceKm        *float64      `json:"distance_km,omitempty"`
	Messages          []ChatMessage `json:"messages"`
	CreatedAt         time.Time     `json:"created_at"`
	FinishedAt        *time.Time    `json:"finished_at,omitempty"`
}

// Clone returns a deep copy safe to hand out of a loop step.
func (r *Ride) Clone() Ride {
	c := *r
	if r.Driver != nil {
		d := *r.Driver
		c.Driver = &d
	}
	if r.DistanceKm != nil {
		d := *r.DistanceKm
		c.DistanceKm = &d
	}
	if r.FinishedAt != nil {
		f := *r.FinishedAt
		c.FinishedAt = &f
	}
	c.Messages = make([]ChatMessage, len(r.Messages))
	copy(c.Messages, r.Messages)
	return c
}

// Collection names the registry list a ride currently lives in.
type Collection int

const (
	CollectionActive Collection = iota + 1
	CollectionHistory
)

func (c Collection) String() string {
	switch c {
	case CollectionActive:
		return "active"
	case CollectionHistory:
		return "history"
	}
	return "none"
}

// AllowedTransitions represents the ride state flow as code. Cancellation is
// not a status: a cancelled ride is deleted.
var AllowedTransitions = map[Status][]Status{
	StatusWaiting:  {StatusAccepted},
	StatusAccepted: {StatusFinished},
}

func CanTransition(from, to Status) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
