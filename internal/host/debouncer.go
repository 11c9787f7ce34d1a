package host

import (
	"sync"
	"time"
)

// debouncer coalesces bursts of events per key. fire runs once per key after
// the key has been quiet for window.
type debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timers map[string]*time.Timer
	fire   func(key string)
	closed bool
}

func newDebouncer(window time.Duration, fire func(key string)) *debouncer {
	return &debouncer{
		window: window,
		timers: make(map[string]*time.Timer),
		fire:   fire,
	}
}

// trigger records an event for key, restarting its quiet period. fire
// always runs on its own goroutine.
func (d *debouncer) trigger(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	if d.window <= 0 {
		go d.fire(key)
		return
	}
	if t, ok := d.timers[key]; ok {
		t.Stop()
	}
	d.timers[key] = time.AfterFunc(d.window, func() {
		d.mu.Lock()
		delete(d.timers, key)
		closed := d.closed
		d.mu.Unlock()
		if !closed {
			d.fire(key)
		}
	})
}

// stop drops all pending events.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	for key, t := range d.timers {
		t.Stop()
		delete(d.timers, key)
	}
}
