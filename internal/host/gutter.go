package host

import (
	"sort"
	"sync"

	"github.com/matzehuels/gemgutter/pkg/annotate"
	"github.com/matzehuels/gemgutter/pkg/session"
)

var _ session.Gutter = (*Gutter)(nil)

// Gutter stores the decorations of one editor in memory.
type Gutter struct {
	mu      sync.Mutex
	visible bool
	next    session.Handle
	items   map[session.Handle]annotate.Annotation
	changes chan struct{}
}

func newGutter() *Gutter {
	return &Gutter{
		items:   make(map[session.Handle]annotate.Annotation),
		changes: make(chan struct{}, 1),
	}
}

// Show makes the gutter visible.
func (g *Gutter) Show() {
	g.mu.Lock()
	g.visible = true
	g.mu.Unlock()
	g.changed()
}

// Hide hides the gutter. Decorations are kept.
func (g *Gutter) Hide() {
	g.mu.Lock()
	g.visible = false
	g.mu.Unlock()
	g.changed()
}

// Decorate stores a and returns its handle.
func (g *Gutter) Decorate(a annotate.Annotation) session.Handle {
	g.mu.Lock()
	g.next++
	h := g.next
	g.items[h] = a
	g.mu.Unlock()
	g.changed()
	return h
}

// Remove drops the decoration behind h. Unknown handles are ignored.
func (g *Gutter) Remove(h session.Handle) {
	g.mu.Lock()
	_, ok := g.items[h]
	delete(g.items, h)
	g.mu.Unlock()
	if ok {
		g.changed()
	}
}

// Visible reports whether the gutter is shown.
func (g *Gutter) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}

// Len returns the number of stored decorations.
func (g *Gutter) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.items)
}

// Snapshot returns the stored decorations ordered by line.
func (g *Gutter) Snapshot() []annotate.Annotation {
	g.mu.Lock()
	out := make([]annotate.Annotation, 0, len(g.items))
	for _, a := range g.items {
		out = append(out, a)
	}
	g.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Line != out[j].Line {
			return out[i].Line < out[j].Line
		}
		return out[i].Kind < out[j].Kind
	})
	return out
}

// Changes returns a channel that receives a value after any mutation.
// Bursts of mutations collapse into a single pending value.
func (g *Gutter) Changes() <-chan struct{} {
	return g.changes
}

func (g *Gutter) changed() {
	select {
	case g.changes <- struct{}{}:
	default:
	}
}
