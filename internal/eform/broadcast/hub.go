// Package broadcast fans newly persisted responses out to every live
// stream session. The hub is created once at startup and lives for the
// process lifetime; filtering by form happens in the sessions, not here.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/sirreidlos/e-form/internal/eform/entity"
)

// DefaultCapacity is the per-subscriber queue size.
const DefaultCapacity = 1024

// ErrClosed is returned by Recv once the hub has shut down and all
// buffered messages have been drained.
var ErrClosed = errors.New("broadcast: hub closed")

// LagError reports that a slow subscriber had its oldest buffered
// messages dropped. It is a resume signal: the subscriber keeps
// receiving, with Missed messages lost.
type LagError struct {
	Missed uint64
}

func (e *LagError) Error() string {
	return fmt.Sprintf("broadcast: subscriber lagged, %d messages dropped", e.Missed)
}

// Hub distributes every published response to all current subscribers.
// Publish never blocks: a full subscriber queue loses its oldest entry
// instead. Safe for concurrent use without external locking.
type Hub struct {
	logger   *zap.Logger
	capacity int

	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	closed bool
}

// NewHub creates a hub with the given per-subscriber queue capacity.
// A capacity <= 0 selects DefaultCapacity.
func NewHub(capacity int, logger *zap.Logger) *Hub {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger:   logger,
		capacity: capacity,
		subs:     make(map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber observing responses published
// after this call. There is no replay of earlier messages.
func (h *Hub) Subscribe() *Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{hub: h, ch: make(chan *entity.Response, h.capacity)}
	if h.closed {
		close(sub.ch)
		return sub
	}
	h.subs[sub] = struct{}{}
	h.logger.Debug("subscriber registered", zap.Int("total", len(h.subs)))
	return sub
}

// Publish delivers response to every subscriber queue. Queues that are
// full lose their oldest entry and the owning subscriber is flagged as
// lagged. Publish order is the delivery order for each subscriber.
func (h *Hub) Publish(response *entity.Response) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	for sub := range h.subs {
		select {
		case sub.ch <- response:
			continue
		default:
		}

		// Queue full: drop the oldest buffered message to make room.
		// The receive can miss if the consumer drained concurrently;
		// either way a slot is free for the retry.
		select {
		case <-sub.ch:
			atomic.AddUint64(&sub.missed, 1)
		default:
		}
		select {
		case sub.ch <- response:
		default:
			atomic.AddUint64(&sub.missed, 1)
		}
		h.logger.Debug("subscriber lagging, dropped oldest message",
			zap.String("response_id", response.ID))
	}
}

// Close shuts the hub down at process exit. Every subscriber drains its
// remaining queue and then receives ErrClosed. Publish becomes a no-op.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for sub := range h.subs {
		close(sub.ch)
		delete(h.subs, sub)
	}
}

// Subscriber is one receive handle onto the hub. Not safe for concurrent
// Recv calls; each streaming session owns exactly one.
type Subscriber struct {
	hub    *Hub
	ch     chan *entity.Response
	missed uint64
}

// Recv returns the next published response. It returns a *LagError when
// messages were dropped since the last call (the caller should continue
// receiving), ErrClosed once the hub has shut down, or the context error
// if ctx is done first.
func (s *Subscriber) Recv(ctx context.Context) (*entity.Response, error) {
	if missed := atomic.SwapUint64(&s.missed, 0); missed > 0 {
		return nil, &LagError{Missed: missed}
	}

	select {
	case response, ok := <-s.ch:
		if !ok {
			return nil, ErrClosed
		}
		return response, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Unsubscribe releases the subscription. Further publishes are no longer
// delivered; a pending Recv observes ErrClosed.
func (s *Subscriber) Unsubscribe() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()

	if _, ok := s.hub.subs[s]; ok {
		delete(s.hub.subs, s)
		close(s.ch)
	}
}
