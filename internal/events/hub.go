// Package events fans out hierarchy change notifications so the UI layer
// can re-read authoritative state after a mutation. One process, one hub;
// this is a single-user change feed, not a collaboration channel.
package events

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/classkit/planner/internal/curriculum"
)

const (
	subscriberBuffer = 16
	writeTimeout     = 5 * time.Second
)

// Hub implements curriculum.Publisher. Publish never blocks: a subscriber
// that falls behind has events dropped, and re-reads the store when it
// catches up.
type Hub struct {
	mu   sync.Mutex
	subs map[int]chan curriculum.Change
	next int
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]chan curriculum.Change)}
}

// Publish delivers a change to every subscriber without blocking.
func (h *Hub) Publish(c curriculum.Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		select {
		case ch <- c:
		default:
			slog.Debug("change feed subscriber lagging, event dropped", "subscriber", id)
		}
	}
}

// Subscribe registers a listener. The returned cancel func must be called
// to release the channel.
func (h *Hub) Subscribe() (<-chan curriculum.Change, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan curriculum.Change, subscriberBuffer)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// ServeHTTP upgrades the request to a websocket and streams changes as JSON
// messages until the client goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	ch, cancel := h.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case c, ok := <-ch:
			if !ok {
				return
			}
			writeCtx, done := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, c)
			done()
			if err != nil {
				slog.Debug("change feed write failed, closing", "error", err)
				return
			}
		}
	}
}
