// Package notify fans events out to connected admin clients. Topics are role
// names; anything needing to notify clients depends on the Publisher
// interface, never on a process-wide handle.
package notify

import "sync"

// Event is one notification delivered to subscribers of a topic.
type Event struct {
	Topic   string `json:"topic"`
	Name    string `json:"name"`
	Payload any    `json:"payload,omitempty"`
}

// Publisher delivers events to a topic. Publish must never block the caller.
type Publisher interface {
	Publish(topic string, event Event)
}

// Hub is an in-process topic-based publisher. Subscribers receive events on
// buffered channels; a slow subscriber drops events rather than stalling
// the publishing request.
type Hub struct {
	mu   sync.RWMutex
	subs map[string][]chan Event
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string][]chan Event)}
}

// Subscribe registers interest in a topic and returns the receive channel
// plus a cancel function.
func (h *Hub) Subscribe(topic string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subs[topic] = append(h.subs[topic], ch)
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		chans := h.subs[topic]
		for i, c := range chans {
			if c == ch {
				h.subs[topic] = append(chans[:i], chans[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish delivers the event to every subscriber of the topic. Full buffers
// are skipped.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, ch := range h.subs[topic] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Noop discards every event. Useful where notifications are irrelevant.
type Noop struct{}

func (Noop) Publish(string, Event) {}
