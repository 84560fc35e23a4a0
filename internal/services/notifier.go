package services

import (
	"sync"

	"imagefeed/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const defaultSubscriberBuffer = 16

// Notifier fans change events out to subscribers
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]chan models.Event
	buffer      int
}

// NewNotifier creates a notifier whose subscribers buffer up to buffer events
func NewNotifier(buffer int) *Notifier {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Notifier{
		subscribers: make(map[string]chan models.Event),
		buffer:      buffer,
	}
}

// Subscribe registers a new subscriber and returns its id and event channel
func (n *Notifier) Subscribe() (string, <-chan models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()

	id := uuid.New().String()
	ch := make(chan models.Event, n.buffer)
	n.subscribers[id] = ch

	log.Debug().Str("subscriber_id", id).Msg("Subscriber registered")
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel
func (n *Notifier) Unsubscribe(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if ch, exists := n.subscribers[id]; exists {
		close(ch)
		delete(n.subscribers, id)
		log.Debug().Str("subscriber_id", id).Msg("Subscriber unregistered")
	}
}

// Publish delivers event to every subscriber without blocking.
// A subscriber whose buffer is full misses the event.
func (n *Notifier) Publish(event models.Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for id, ch := range n.subscribers {
		select {
		case ch <- event:
		default:
			log.Warn().
				Str("subscriber_id", id).
				Str("type", string(event.Type)).
				Msg("Subscriber buffer full, event dropped")
		}
	}
}

// SubscriberCount returns the number of registered subscribers
func (n *Notifier) SubscriberCount() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.subscribers)
}
