// Package registry implements SessionRegistry: the process-wide
// mapping from session id to session state, created and destroyed by
// StartSession/EndSession (spec.md §2 component 14, §5).
package registry

import (
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"github.com/thebtf/refineloop/internal/historyindex"
	"github.com/thebtf/refineloop/pkg/models"
)

// Entry bundles a Session with the per-session lock that serializes
// every tool operation against it (spec.md §5's "single-threaded
// cooperative per session" scheduling model), plus its query-
// acceleration history index. Index is nil until the transport layer
// opens one (SPEC_FULL.md "History index") — callers must always
// nil-check before using it, since tests that never call
// EnsureHistoryIndex still exercise the plain in-memory scan path.
type Entry struct {
	Session *models.Session
	Lock    *semaphore.Weighted
	Index   *historyindex.Index
}

// Registry is the only shared mutable structure across sessions; it
// requires only a short-lived lock for membership changes (spec.md
// §5). Cross-session operations on distinct entries proceed without
// contending on Registry's own mutex once the Entry is looked up.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{sessions: make(map[string]*Entry)}
}

// Start registers session under its own ID, failing if that ID is
// already in use (session IDs are caller-supplied UUIDs, so a
// collision indicates a bug upstream rather than a normal race).
func (r *Registry) Start(session *models.Session) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.sessions[session.ID]; ok {
		return existing
	}
	entry := &Entry{Session: session, Lock: semaphore.NewWeighted(1)}
	r.sessions[session.ID] = entry
	log.Info().Str("sessionId", session.ID).Str("repoRoot", session.RepoRoot).Msg("session started")
	return entry
}

// Get returns the entry for id, or (nil, false) if no such session
// exists.
func (r *Registry) Get(id string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[id]
	return e, ok
}

// End removes id from the registry. It does not abort any in-flight
// submission already holding the entry's lock (spec.md §5).
func (r *Registry) End(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[id]
	if !ok {
		return false
	}
	if e.Index != nil {
		if err := e.Index.Close(); err != nil {
			log.Warn().Err(err).Str("sessionId", id).Msg("failed to close history index")
		}
	}
	delete(r.sessions, id)
	log.Info().Str("sessionId", id).Msg("session ended")
	return true
}

// Count returns the number of live sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
