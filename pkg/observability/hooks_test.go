package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	s := NoopSessionHooks{}
	s.OnShowStart(ctx, "editor-1")
	s.OnShowComplete(ctx, "editor-1", 12, time.Millisecond, nil)
	s.OnDiff(ctx, "editor-1", 3, 1, 1)
	s.OnLockReload(ctx, "editor-1", 4, 12, errors.New("gone"))
	s.OnStaleResult(ctx, "editor-1", 4, 5)

	w := NoopWatchHooks{}
	w.OnFileEvent(ctx, "/app/Gemfile.lock", "write")
	w.OnWatchError(ctx, "/app/Gemfile.lock", nil)
}

func TestGlobalHooksRegistry(t *testing.T) {
	// Reset to known state
	Reset()

	// Verify defaults are noop
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Session() should return NoopSessionHooks by default")
	}
	if _, ok := Watch().(NoopWatchHooks); !ok {
		t.Error("Watch() should return NoopWatchHooks by default")
	}

	// Set custom hooks
	customSession := &testSessionHooks{}
	SetSessionHooks(customSession)
	if Session() != customSession {
		t.Error("SetSessionHooks should set custom hooks")
	}

	customWatch := &testWatchHooks{}
	SetWatchHooks(customWatch)
	if Watch() != customWatch {
		t.Error("SetWatchHooks should set custom hooks")
	}

	// Reset and verify
	Reset()
	if _, ok := Session().(NoopSessionHooks); !ok {
		t.Error("Reset() should restore NoopSessionHooks")
	}
	if _, ok := Watch().(NoopWatchHooks); !ok {
		t.Error("Reset() should restore NoopWatchHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testSessionHooks{}
	SetSessionHooks(custom)

	// Setting nil should be ignored
	SetSessionHooks(nil)

	if Session() != custom {
		t.Error("SetSessionHooks(nil) should be ignored")
	}

	Reset()
}

// Test implementations
type testSessionHooks struct{ NoopSessionHooks }
type testWatchHooks struct{ NoopWatchHooks }
