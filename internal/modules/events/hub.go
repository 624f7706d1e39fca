// README: In-process subscription hub keyed by ride id, plus a global topic for dashboards.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// GlobalTopic receives every event regardless of ride.
const GlobalTopic = "*"

const subscriberBuffer = 64

type Subscriber struct {
	ID     string
	Topic  string
	Events chan Event
	Done   chan struct{}
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[string]*Subscriber // topic -> subscriber id -> subscriber
}

func NewHub() *Hub {
	return &Hub{subscribers: make(map[string]map[string]*Subscriber)}
}

func (h *Hub) Subscribe(topic string) *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{
		ID:     uuid.NewString(),
		Topic:  topic,
		Events: make(chan Event, subscriberBuffer),
		Done:   make(chan struct{}),
	}
	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[string]*Subscriber)
	}
	h.subscribers[topic][sub.ID] = sub
	return sub
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[sub.Topic]
	if !ok {
		return
	}
	if _, ok := subs[sub.ID]; !ok {
		return
	}
	close(sub.Done)
	close(sub.Events)
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(h.subscribers, sub.Topic)
	}
}

// CloseTopic ends every subscription on topic and reports how many were open.
func (h *Hub) CloseTopic(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[topic]
	for _, sub := range subs {
		close(sub.Done)
		close(sub.Events)
	}
	delete(h.subscribers, topic)
	return len(subs)
}

func (h *Hub) Count(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[topic])
}

// Publish delivers e to its ride topic and to the global topic. Full buffers
// drop the event for that subscriber instead of blocking the caller.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if e.RideID != "" {
		h.deliver(string(e.RideID), e)
	}
	h.deliver(GlobalTopic, e)
}

func (h *Hub) deliver(topic string, e Event) {
	for _, sub := range h.subscribers[topic] {
		select {
		case sub.Events <- e:
		default:
		}
	}
}
