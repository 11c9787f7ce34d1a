package session

import (
	"sort"
	"sync"

	"github.com/matzehuels/gemgutter/pkg/errors"
)

// Registry maps editors to their sessions. Sessions are created lazily and
// exactly once per editor.
type Registry struct {
	host Host
	opts []Option

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewRegistry creates an empty registry. opts are applied to every session
// it creates.
func NewRegistry(host Host, opts ...Option) *Registry {
	return &Registry{
		host:     host,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session of editorID, creating it on first use.
func (r *Registry) GetOrCreate(editorID string) (*Session, error) {
	if err := errors.ValidateEditorID(editorID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New(errors.ErrCodeDisposed, "registry is closed")
	}
	if s, ok := r.sessions[editorID]; ok {
		return s, nil
	}
	s := New(editorID, r.host, r.opts...)
	r.sessions[editorID] = s
	return s, nil
}

// Lookup returns the session of editorID without creating one.
func (r *Registry) Lookup(editorID string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[editorID]
	return s, ok
}

// Remove disposes and forgets the session of editorID. Unknown ids are
// ignored.
func (r *Registry) Remove(editorID string) {
	r.mu.Lock()
	s, ok := r.sessions[editorID]
	delete(r.sessions, editorID)
	r.mu.Unlock()

	if ok {
		s.Dispose()
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// IDs returns the editor ids with a live session, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close disposes every session. The registry cannot be used afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.closed = true
	r.mu.Unlock()

	for _, s := range sessions {
		s.Dispose()
	}
}
