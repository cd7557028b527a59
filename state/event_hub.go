package state

import (
	"sync"
	"time"
)

// PipelineEvent is one stage notification pushed to websocket subscribers.
type PipelineEvent struct {
	VideoID int64     `json:"videoId"`
	Stage   string    `json:"stage"`
	Status  string    `json:"status"`
	Detail  string    `json:"detail,omitempty"`
	At      time.Time `json:"at"`
}

// EventHub fans pipeline events out to subscribers. Publishing never
// blocks: a subscriber that falls behind misses events rather than stalling
// a request.
type EventHub struct {
	mu          sync.RWMutex
	subscribers map[int64]chan PipelineEvent
	nextID      int64
}

func NewEventHub() *EventHub {
	return &EventHub{
		subscribers: make(map[int64]chan PipelineEvent),
	}
}

// Subscribe registers a listener and returns its channel plus an
// unsubscribe func. The channel is buffered; the caller must drain it.
func (h *EventHub) Subscribe() (<-chan PipelineEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan PipelineEvent, 16)
	h.subscribers[id] = ch

	return ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if ch, ok := h.subscribers[id]; ok {
			delete(h.subscribers, id)
			close(ch)
		}
	}
}

// Publish delivers the event to every subscriber with room in its buffer
func (h *EventHub) Publish(event PipelineEvent) {
	if event.At.IsZero() {
		event.At = time.Now()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

// SubscriberCount reports how many listeners are connected
func (h *EventHub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
