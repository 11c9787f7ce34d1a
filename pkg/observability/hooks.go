// Package observability provides hooks for metrics, tracing, and logging.
//
// The annotation engine reports what it does through hook interfaces with
// no-op defaults, so the engine never depends on a concrete backend. The
// CLI registers a logging implementation at startup; tests register
// recorders.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSessionHooks(&mySessionHooks{})
//	    observability.SetWatchHooks(&myWatchHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Session().OnShowStart(ctx, editorID)
//	// ... read and parse the lock file ...
//	observability.Session().OnShowComplete(ctx, editorID, count, duration, err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Session Hooks
// =============================================================================

// SessionHooks receives events from annotation sessions.
type SessionHooks interface {
	// Show events
	OnShowStart(ctx context.Context, editorID string)
	OnShowComplete(ctx context.Context, editorID string, annotations int, duration time.Duration, err error)

	// OnDiff records an incremental redraw after a buffer edit.
	OnDiff(ctx context.Context, editorID string, generation uint64, added, removed int)

	// OnLockReload records a full redraw after the lock file changed.
	OnLockReload(ctx context.Context, editorID string, generation uint64, annotations int, err error)

	// OnStaleResult records a lock-file read that was discarded because the
	// session moved on while it was in flight.
	OnStaleResult(ctx context.Context, editorID string, started, current uint64)
}

// =============================================================================
// Watch Hooks
// =============================================================================

// WatchHooks receives events from file watchers.
type WatchHooks interface {
	// OnFileEvent records a change notification delivered for path.
	OnFileEvent(ctx context.Context, path, op string)

	// OnWatchError records a watcher failure.
	OnWatchError(ctx context.Context, path string, err error)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopSessionHooks is a no-op implementation of SessionHooks.
type NoopSessionHooks struct{}

func (NoopSessionHooks) OnShowStart(context.Context, string) {}
func (NoopSessionHooks) OnShowComplete(context.Context, string, int, time.Duration, error) {
}
func (NoopSessionHooks) OnDiff(context.Context, string, uint64, int, int)         {}
func (NoopSessionHooks) OnLockReload(context.Context, string, uint64, int, error) {}
func (NoopSessionHooks) OnStaleResult(context.Context, string, uint64, uint64)    {}

// NoopWatchHooks is a no-op implementation of WatchHooks.
type NoopWatchHooks struct{}

func (NoopWatchHooks) OnFileEvent(context.Context, string, string)   {}
func (NoopWatchHooks) OnWatchError(context.Context, string, error) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	sessionHooks SessionHooks = NoopSessionHooks{}
	watchHooks   WatchHooks   = NoopWatchHooks{}
	hooksMu      sync.RWMutex
)

// SetSessionHooks registers custom session hooks.
// This should be called once at application startup before any session is shown.
func SetSessionHooks(h SessionHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		sessionHooks = h
	}
}

// SetWatchHooks registers custom watch hooks.
// This should be called once at application startup before any file is watched.
func SetWatchHooks(h WatchHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		watchHooks = h
	}
}

// Session returns the registered session hooks.
func Session() SessionHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return sessionHooks
}

// Watch returns the registered watch hooks.
func Watch() WatchHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return watchHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	sessionHooks = NoopSessionHooks{}
	watchHooks = NoopWatchHooks{}
}
