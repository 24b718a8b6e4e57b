package sse

import (
	"net/http"
	"sync"

	"github.com/thebtf/refineloop/pkg/models"
)

// Hub owns one Broadcaster per active session, created lazily and
// torn down on endSession.
type Hub struct {
	broadcasters map[string]*Broadcaster
	mu           sync.Mutex
}

// NewHub creates an empty session event hub.
func NewHub() *Hub {
	return &Hub{broadcasters: make(map[string]*Broadcaster)}
}

// Get returns the broadcaster for sessionID, creating it on first use.
func (h *Hub) Get(sessionID string) *Broadcaster {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.broadcasters[sessionID]
	if !ok {
		b = NewBroadcaster()
		h.broadcasters[sessionID] = b
	}
	return b
}

// Publish broadcasts a submitCandidate projection to every client
// subscribed to sessionID's event stream. A no-op when nobody is
// listening.
func (h *Hub) Publish(sessionID string, projection models.Projection) {
	h.mu.Lock()
	b, ok := h.broadcasters[sessionID]
	h.mu.Unlock()
	if !ok {
		return
	}
	b.Broadcast(projection)
}

// HandleSSE subscribes the request's client to sessionID's event
// stream, creating the broadcaster if this is the first subscriber.
func (h *Hub) HandleSSE(sessionID string, w http.ResponseWriter, r *http.Request) {
	h.Get(sessionID).HandleSSE(w, r)
}

// Close removes sessionID's broadcaster, e.g. once endSession runs.
// Connected clients observe their request context cancel on their own.
func (h *Hub) Close(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.broadcasters, sessionID)
}
