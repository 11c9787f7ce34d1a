package host

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// fileBuffer mirrors a file on disk. An on-disk change reloads the text and
// counts as the buffer having stopped changing.
type fileBuffer struct {
	path   string
	files  *Files
	logger *log.Logger

	mu     sync.Mutex
	text   string
	subs   map[uint64]func()
	nextID uint64
	cancel func()
}

func openFileBuffer(ctx context.Context, path string, files *Files, logger *log.Logger) (*fileBuffer, error) {
	text, err := files.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	b := &fileBuffer{
		path:   path,
		files:  files,
		logger: logger,
		text:   text,
		subs:   make(map[uint64]func()),
	}
	cancel, err := files.Watch(path, b.reload)
	if err != nil {
		return nil, err
	}
	b.cancel = cancel
	return b, nil
}

func (b *fileBuffer) Text() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text
}

func (b *fileBuffer) Path() (string, bool) {
	return b.path, true
}

func (b *fileBuffer) OnDidStopChanging(fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

func (b *fileBuffer) reload() {
	text, err := b.files.Read(context.Background(), b.path)
	if err != nil {
		// Keep the last known text while the file is being replaced.
		b.logger.Debug("buffer reload failed", "path", b.path, "err", err)
		return
	}

	b.mu.Lock()
	b.text = text
	fns := make([]func(), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

func (b *fileBuffer) close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// textBuffer is an unsaved buffer. It has no path and never changes.
type textBuffer struct {
	text string
}

func (b *textBuffer) Text() string                    { return b.text }
func (b *textBuffer) Path() (string, bool)            { return "", false }
func (b *textBuffer) OnDidStopChanging(func()) func() { return func() {} }
func (b *textBuffer) close()                          {}
