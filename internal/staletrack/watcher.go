package staletrack

import (
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watcher proactively invalidates a session's file-snapshot cache when
// a watched path changes on disk outside of the engine's own writes
// (e.g. the repository is also open in an editor). It never mutates
// Session fields directly from its event goroutine — invalidated
// paths are buffered on a channel and drained synchronously by
// DrainInvalidations, which the caller invokes while holding the
// session's own lock, keeping the engine's single-threaded-per-session
// model intact.
type Watcher struct {
	fsw     *fsnotify.Watcher
	log     zerolog.Logger
	pending chan string
	done    chan struct{}
}

// NewWatcher starts watching root (and, best-effort, its existing
// subdirectories) for write/remove/rename events. Failure to start
// the underlying watcher is non-fatal: ContextTracker's core
// before/after-apply logic (tracker.go) works correctly without it,
// so callers should log and continue rather than abort the session.
func NewWatcher(root string, log zerolog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := addRecursive(fsw, root); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		fsw:     fsw,
		log:     log.With().Str("component", "staletrack.watcher").Logger(),
		pending: make(chan string, 256),
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *Watcher) run() {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				select {
				case w.pending <- event.Name:
				default:
					w.log.Warn().Str("path", event.Name).Msg("invalidation buffer full, dropping event")
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		case <-w.done:
			return
		}
	}
}

// DrainInvalidations returns every path that changed since the last
// call and clears the buffer. Call this while holding the session's
// lock, before comparing against FileSnapshots.
func (w *Watcher) DrainInvalidations() []string {
	var paths []string
	for {
		select {
		case p := <-w.pending:
			paths = append(paths, p)
		default:
			return paths
		}
	}
}

// Close stops the watcher goroutine and releases the underlying
// fsnotify handle.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}
