// Package realtime fans persisted alerts out to currently-connected
// viewers. Delivery is at-most-once per subscriber with no replay:
// a subscriber attached after a publish never sees that alert.
package realtime

import (
	"sync"

	"github.com/reliefgrid/relief-api/internal/models"
	"github.com/rs/zerolog"
)

const defaultSubscriberBuffer = 16

// Bus is an in-process publish/subscribe channel for alerts. Publish
// never blocks: a subscriber whose buffer is full has the message
// dropped.
type Bus struct {
	mu     sync.Mutex
	subs   map[uint64]chan models.Alert
	nextID uint64
	buffer int
	closed bool
	logger zerolog.Logger
}

func NewBus(buffer int, logger zerolog.Logger) *Bus {
	if buffer <= 0 {
		buffer = defaultSubscriberBuffer
	}
	return &Bus{
		subs:   make(map[uint64]chan models.Alert),
		buffer: buffer,
		logger: logger.With().Str("component", "realtime_bus").Logger(),
	}
}

// Subscribe registers a new viewer session and returns its id and
// receive channel. The channel is closed on Unsubscribe or Close.
func (b *Bus) Subscribe() (uint64, <-chan models.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		ch := make(chan models.Alert)
		close(ch)
		return 0, ch
	}
	b.nextID++
	id := b.nextID
	ch := make(chan models.Alert, b.buffer)
	b.subs[id] = ch
	return id, ch
}

// Unsubscribe removes a viewer session; safe to call more than once.
func (b *Bus) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers the alert to every connected subscriber, dropping
// it for any subscriber whose buffer is full.
func (b *Bus) Publish(alert models.Alert) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	dropped := 0
	for _, ch := range b.subs {
		select {
		case ch <- alert:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.logger.Warn().
			Str("alert_id", alert.ID).
			Int("dropped", dropped).
			Msg("slow subscribers dropped alert broadcast")
	}
}

// SubscriberCount reports the number of connected sessions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
