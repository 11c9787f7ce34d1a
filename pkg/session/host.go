package session

import (
	"context"

	"github.com/matzehuels/gemgutter/pkg/annotate"
)

// GutterName is the name of the side channel a session draws into.
const GutterName = "gemgutter"

// Buffer is the text of one open editor.
type Buffer interface {
	// Text returns the full current content.
	Text() string
	// Path returns the saved file path. ok is false for unsaved buffers.
	Path() (path string, ok bool)
	// OnDidStopChanging registers fn to run once editing activity settles.
	// The returned cancel func must not wait for in-flight callbacks.
	OnDidStopChanging(fn func()) (cancel func())
}

// BufferProvider resolves an editor identity to its buffer.
type BufferProvider interface {
	Buffer(editorID string) (Buffer, error)
}

// FileProvider gives access to files on disk.
type FileProvider interface {
	Exists(ctx context.Context, path string) (bool, error)
	Read(ctx context.Context, path string) (string, error)
	// Watch registers fn to run whenever the on-disk content of path
	// changes. The returned cancel func must not wait for in-flight callbacks.
	Watch(path string, fn func()) (cancel func(), err error)
}

// Handle identifies one decoration within a gutter.
type Handle uint64

// Gutter is a per-editor rendering surface for line-aligned decorations.
type Gutter interface {
	Show()
	Hide()
	Decorate(a annotate.Annotation) Handle
	Remove(h Handle)
}

// GutterProvider returns the named gutter of an editor, creating it on
// first use.
type GutterProvider interface {
	Gutter(editorID, name string) Gutter
}

// Host bundles the editor collaborators a session works against.
type Host struct {
	Buffers BufferProvider
	Files   FileProvider
	Gutters GutterProvider
}
