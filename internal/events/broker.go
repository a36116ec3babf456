// Package events fans out session status transitions to live subscribers.
package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ashureev/productlens/internal/domain"
)

const subscriberBuffer = 16

// Event is a status transition of one session.
type Event struct {
	SessionID string        `json:"sessionId"`
	Status    domain.Status `json:"status"`
	At        time.Time     `json:"at"`
	Error     string        `json:"error,omitempty"`
}

// Publisher accepts status events. Publish must not block.
type Publisher interface {
	Publish(ev Event)
}

type subscriber struct {
	ch chan Event
}

// Broker delivers events to the subscribers of each session.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

// NewBroker creates an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[*subscriber]struct{})}
}

// Subscribe registers interest in sessionID. The returned cancel function
// unregisters and closes the channel; it is safe to call more than once.
func (b *Broker) Subscribe(sessionID string) (<-chan Event, func()) {
	sub := &subscriber{ch: make(chan Event, subscriberBuffer)}

	b.mu.Lock()
	if _, ok := b.subs[sessionID]; !ok {
		b.subs[sessionID] = make(map[*subscriber]struct{})
	}
	b.subs[sessionID][sub] = struct{}{}
	b.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() { b.remove(sessionID, sub) })
	}
}

func (b *Broker) remove(sessionID string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subs[sessionID]
	if !ok {
		return
	}
	if _, exists := subs[sub]; !exists {
		return
	}
	delete(subs, sub)
	close(sub.ch)
	if len(subs) == 0 {
		delete(b.subs, sessionID)
	}
}

// Publish delivers ev to every subscriber of its session. Slow subscribers
// miss events rather than block the publisher.
func (b *Broker) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[ev.SessionID] {
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("Dropping session event for slow subscriber",
				"session_id", ev.SessionID, "status", ev.Status)
		}
	}
}

// CloseSession closes every subscription of sessionID.
func (b *Broker) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for sub := range b.subs[sessionID] {
		close(sub.ch)
	}
	delete(b.subs, sessionID)
}

// Subscribers returns the number of live subscriptions for sessionID.
func (b *Broker) Subscribers(sessionID string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[sessionID])
}

var _ Publisher = (*Broker)(nil)
