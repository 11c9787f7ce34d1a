package session

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gemgutter/pkg/annotate"
)

const (
	testEditor   = "editor-1"
	testManifest = "/app/Gemfile"
	testLockfile = "/app/Gemfile.lock"
)

type fakeBuffer struct {
	mu   sync.Mutex
	text string
	path string
	subs map[int]func()
	next int
}

func (b *fakeBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *fakeBuffer) Path() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.path, b.path != ""
}

func (b *fakeBuffer) OnDidStopChanging(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs == nil {
		b.subs = make(map[int]func())
	}
	b.next++
	id := b.next
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs, id)
	}
}

// edit replaces the text and notifies subscribers synchronously.
func (b *fakeBuffer) edit(text string) {
	b.mu.Lock()
	b.text = text
	var subs []func()
	for _, fn := range b.subs {
		subs = append(subs, fn)
	}
	b.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}

func (b *fakeBuffer) subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

type fakeFiles struct {
	mu       sync.Mutex
	files    map[string]string
	reads    int
	watchers map[string]map[int]func()
	next     int
	block    chan struct{}
	started  chan struct{}
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{
		files:    make(map[string]string),
		watchers: make(map[string]map[int]func()),
	}
}

func (f *fakeFiles) Exists(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.files[path]
	return ok, nil
}

func (f *fakeFiles) Read(ctx context.Context, path string) (string, error) {
	f.mu.Lock()
	f.reads++
	block, started := f.block, f.started
	f.mu.Unlock()

	if block != nil {
		started <- struct{}{}
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	text, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return text, nil
}

func (f *fakeFiles) Watch(path string, fn func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.watchers[path] == nil {
		f.watchers[path] = make(map[int]func())
	}
	f.next++
	id := f.next
	f.watchers[path][id] = fn
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.watchers[path], id)
	}, nil
}

// set changes a file without notifying watchers.
func (f *fakeFiles) set(path, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = text
}

func (f *fakeFiles) remove(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.files, path)
}

// write changes a file and notifies watchers synchronously.
func (f *fakeFiles) write(path, text string) {
	f.set(path, text)
	f.fire(path)
}

func (f *fakeFiles) fire(path string) {
	f.mu.Lock()
	var fns []func()
	for _, fn := range f.watchers[path] {
		fns = append(fns, fn)
	}
	f.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (f *fakeFiles) watcherCount(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.watchers[path])
}

func (f *fakeFiles) readCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// blockReads makes every Read wait until release is called. Each blocked
// Read sends on started first.
func (f *fakeFiles) blockReads() (release func(), started <-chan struct{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	block := make(chan struct{})
	ch := make(chan struct{}, 16)
	f.block, f.started = block, ch
	return func() {
		f.mu.Lock()
		f.block, f.started = nil, nil
		f.mu.Unlock()
		close(block)
	}, ch
}

type fakeGutter struct {
	mu        sync.Mutex
	visible   bool
	next      Handle
	items     map[Handle]annotate.Annotation
	decorated int
	removed   int
	unknown   int
}

func (g *fakeGutter) Show() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = true
}

func (g *fakeGutter) Hide() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = false
}

func (g *fakeGutter) Decorate(a annotate.Annotation) Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	g.items[g.next] = a
	g.decorated++
	return g.next
}

func (g *fakeGutter) Remove(h Handle) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.items[h]; !ok {
		g.unknown++
		return
	}
	delete(g.items, h)
	g.removed++
}

// handles maps line index to the handle drawn on that line.
func (g *fakeGutter) handles() map[int]Handle {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[int]Handle, len(g.items))
	for h, a := range g.items {
		out[a.Line] = h
	}
	return out
}

func (g *fakeGutter) annotations() []annotate.Annotation {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]annotate.Annotation, 0, len(g.items))
	for _, a := range g.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

func (g *fakeGutter) counts() (visible bool, items, decorated, removed, unknown int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible, len(g.items), g.decorated, g.removed, g.unknown
}

type fakeEditors struct {
	mu      sync.Mutex
	buffers map[string]*fakeBuffer
	gutters map[string]*fakeGutter
}

func (e *fakeEditors) Buffer(editorID string) (Buffer, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.buffers[editorID]
	if !ok {
		return nil, fmt.Errorf("no editor %q", editorID)
	}
	return b, nil
}

func (e *fakeEditors) Gutter(editorID, name string) Gutter {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := editorID + "/" + name
	g, ok := e.gutters[key]
	if !ok {
		g = &fakeGutter{items: make(map[Handle]annotate.Annotation)}
		e.gutters[key] = g
	}
	return g
}

func (e *fakeEditors) gutter(editorID string) *fakeGutter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gutters[editorID+"/"+GutterName]
}

type testEnv struct {
	buffer  *fakeBuffer
	files   *fakeFiles
	editors *fakeEditors
	host    Host
}

func newTestEnv(path, manifest string) *testEnv {
	buf := &fakeBuffer{text: manifest, path: path}
	editors := &fakeEditors{
		buffers: map[string]*fakeBuffer{testEditor: buf},
		gutters: make(map[string]*fakeGutter),
	}
	files := newFakeFiles()
	return &testEnv{
		buffer:  buf,
		files:   files,
		editors: editors,
		host:    Host{Buffers: editors, Files: files, Gutters: editors},
	}
}

func (e *testEnv) gutter() *fakeGutter { return e.editors.gutter(testEditor) }

func quietLogger() *log.Logger { return log.New(io.Discard) }

// newShownSession returns a session over testManifest that has been shown
// successfully against lock.
func newShownSession(t *testing.T, manifest, lock string) (*Session, *testEnv) {
	t.Helper()
	env := newTestEnv(testManifest, manifest)
	env.files.set(testLockfile, lock)
	s := New(testEditor, env.host, WithLogger(quietLogger()))
	if err := s.Show(context.Background()); err != nil {
		t.Fatalf("Show() error: %v", err)
	}
	return s, env
}
