package host

import (
	"context"
	"path/filepath"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gemgutter/pkg/errors"
	"github.com/matzehuels/gemgutter/pkg/session"
)

var (
	_ session.BufferProvider = (*Editors)(nil)
	_ session.GutterProvider = (*Editors)(nil)
)

// Editors tracks the open buffers and their gutters.
type Editors struct {
	files  *Files
	logger *log.Logger

	mu      sync.Mutex
	buffers map[string]buffer
	gutters map[gutterKey]*Gutter
}

type gutterKey struct {
	editor string
	name   string
}

type buffer interface {
	session.Buffer
	close()
}

// NewEditors returns an empty editor set reading through files.
func NewEditors(files *Files, logger *log.Logger) *Editors {
	if logger == nil {
		logger = log.Default()
	}
	return &Editors{
		files:   files,
		logger:  logger,
		buffers: make(map[string]buffer),
		gutters: make(map[gutterKey]*Gutter),
	}
}

// Host returns the collaborators a session needs, backed by e.
func (e *Editors) Host() session.Host {
	return session.Host{Buffers: e, Files: e.files, Gutters: e}
}

// Open loads the file at path into a buffer that follows the file on disk.
// The editor ID is the absolute path. Opening the same path twice returns
// the existing editor.
func (e *Editors) Open(ctx context.Context, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "resolve %s", path)
	}

	e.mu.Lock()
	_, ok := e.buffers[abs]
	e.mu.Unlock()
	if ok {
		return abs, nil
	}

	b, err := openFileBuffer(ctx, abs, e.files, e.logger)
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.buffers[abs]; ok {
		b.close()
		return abs, nil
	}
	e.buffers[abs] = b
	e.logger.Debug("opened editor", "editor", abs)
	return abs, nil
}

// OpenText registers an unsaved buffer holding text under id.
func (e *Editors) OpenText(id, text string) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if old, ok := e.buffers[id]; ok {
		old.close()
	}
	e.buffers[id] = &textBuffer{text: text}
	return id
}

// Buffer implements [session.BufferProvider].
func (e *Editors) Buffer(editorID string) (session.Buffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.buffers[editorID]
	if !ok {
		return nil, errors.New(errors.ErrCodeFileNotFound, "no editor %q", editorID)
	}
	return b, nil
}

// Gutter implements [session.GutterProvider].
func (e *Editors) Gutter(editorID, name string) session.Gutter {
	return e.GutterOf(editorID, name)
}

// GutterOf returns the concrete gutter so callers can render it.
func (e *Editors) GutterOf(editorID, name string) *Gutter {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := gutterKey{editor: editorID, name: name}
	g, ok := e.gutters[key]
	if !ok {
		g = newGutter()
		e.gutters[key] = g
	}
	return g
}

// IDs returns the open editor IDs in sorted order.
func (e *Editors) IDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.buffers))
	for id := range e.buffers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close releases the buffer of editorID and its gutters.
func (e *Editors) Close(editorID string) {
	e.mu.Lock()
	b, ok := e.buffers[editorID]
	delete(e.buffers, editorID)
	for key := range e.gutters {
		if key.editor == editorID {
			delete(e.gutters, key)
		}
	}
	e.mu.Unlock()
	if ok {
		b.close()
	}
}
