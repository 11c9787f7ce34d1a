// Package session keeps the version annotations of one open Gemfile in sync
// with its buffer and its lock file.
//
// # Lifecycle
//
// A [Session] starts [Hidden]. [Session.Show] resolves the companion lock
// file, reads it, joins it with the scanned buffer and draws the result into
// the editor's gutter. While shown, the session reacts to two notifications:
//
//   - The buffer stopped changing: the buffer is re-scanned against the
//     cached lock versions and only the annotations that differ are removed
//     or added.
//   - The lock file changed on disk: the lock file is re-read and every
//     annotation is replaced.
//
// [Session.Hide] removes everything it drew, and [Session.Dispose] does the
// same from any state before releasing the session for good.
//
// # Generations
//
// Every re-parse bumps a generation counter. Lock-file reads happen outside
// the session lock; when one completes after the generation moved on, its
// result is dropped and reported as [errors.ErrCodeSuperseded]. In-flight
// reads are never aborted.
//
// # Registry
//
// A [Registry] owns at most one session per editor:
//
//	reg := session.NewRegistry(host, session.WithLogger(logger))
//	defer reg.Close()
//
//	s, err := reg.GetOrCreate(editorID)
//	if err != nil {
//	    return err
//	}
//	if _, err := s.Toggle(ctx); err != nil {
//	    fmt.Println(errors.UserMessage(err))
//	}
//
// [errors.ErrCodeSuperseded]: github.com/matzehuels/gemgutter/pkg/errors.ErrCodeSuperseded
package session

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/gemgutter/pkg/annotate"
	"github.com/matzehuels/gemgutter/pkg/deps/ruby"
	"github.com/matzehuels/gemgutter/pkg/errors"
	"github.com/matzehuels/gemgutter/pkg/observability"
)

// State is the visibility state of a session.
type State int

const (
	Hidden State = iota
	Loading
	Shown
	// Failed is entered when the buffer has no path or the lock file
	// cannot be read. Status reports the reason.
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Shown:
		return "shown"
	case Failed:
		return "error"
	default:
		return "hidden"
	}
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger used for state transitions.
func WithLogger(l *log.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

type decoration struct {
	annotation annotate.Annotation
	handle     Handle
}

// Session manages the annotations of one editor.
type Session struct {
	id     string
	host   Host
	logger *log.Logger

	// op serializes Show, Hide and Toggle.
	op sync.Mutex

	mu         sync.Mutex
	state      State
	err        error
	generation uint64
	disposed   bool
	buffer     Buffer
	gutter     Gutter
	lockPath   string
	mode       ruby.Mode
	versions   ruby.Versions
	drawn      []decoration
	cancels    []func()
}

// New creates a hidden session for editorID.
func New(editorID string, host Host, opts ...Option) *Session {
	s := &Session{
		id:     editorID,
		host:   host,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the editor identity.
func (s *Session) ID() string { return s.id }

// Status returns the current state. The error is set only in Failed.
func (s *Session) Status() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.err
}

// Generation returns the current generation counter.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// LockPath returns the lock file resolved by the last Show.
func (s *Session) LockPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lockPath
}

// Annotations returns a copy of the annotations currently drawn.
func (s *Session) Annotations() []annotate.Annotation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]annotate.Annotation, len(s.drawn))
	for i, d := range s.drawn {
		out[i] = d.annotation
	}
	return out
}

// Show reads the lock file and draws the annotations. It is a no-op when
// the session is already shown.
func (s *Session) Show(ctx context.Context) error {
	s.op.Lock()
	defer s.op.Unlock()
	return s.show(ctx)
}

// Hide removes every annotation drawn by the session.
func (s *Session) Hide() error {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return errors.New(errors.ErrCodeDisposed, "session %s is disposed", s.id)
	}
	s.hideLocked()
	return nil
}

// Toggle hides a shown session and shows any other. It reports whether the
// session is visible afterwards.
func (s *Session) Toggle(ctx context.Context) (bool, error) {
	s.op.Lock()
	defer s.op.Unlock()

	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return false, errors.New(errors.ErrCodeDisposed, "session %s is disposed", s.id)
	}
	if s.state == Shown {
		s.hideLocked()
		s.mu.Unlock()
		return false, nil
	}
	s.mu.Unlock()

	if err := s.show(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Dispose hides the session and releases it. It is safe to call from any
// state, including while Show is reading the lock file, and more than once.
func (s *Session) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed {
		return
	}
	s.hideLocked()
	s.disposed = true
	s.buffer = nil
	s.gutter = nil
	s.logger.Debug("session disposed", "editor", s.id)
}

func (s *Session) show(ctx context.Context) error {
	hooks := observability.Session()
	start := time.Now()
	hooks.OnShowStart(ctx, s.id)

	n, err := s.load(ctx)

	hooks.OnShowComplete(ctx, s.id, n, time.Since(start), err)
	return err
}

func (s *Session) load(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return 0, errors.New(errors.ErrCodeDisposed, "session %s is disposed", s.id)
	}
	if s.state == Shown {
		n := len(s.drawn)
		s.mu.Unlock()
		return n, nil
	}

	buf, err := s.host.Buffers.Buffer(s.id)
	if err != nil {
		err = errors.Wrap(errors.ErrCodeInternal, err, "look up buffer for %s", s.id)
		s.failLocked(err)
		s.mu.Unlock()
		return 0, err
	}
	path, ok := buf.Path()
	if !ok || path == "" {
		err := errors.New(errors.ErrCodeNoPath, "buffer %s has no file on disk; save it first", s.id)
		s.failLocked(err)
		s.mu.Unlock()
		return 0, err
	}

	s.buffer = buf
	s.mode = ruby.ModeFor(path)
	s.lockPath = ruby.LockfilePath(path)
	s.state = Loading
	s.err = nil
	s.generation++
	gen, lockPath := s.generation, s.lockPath
	s.mu.Unlock()

	s.logger.Debug("reading lock file", "editor", s.id, "path", lockPath, "generation", gen)
	text, readErr := s.readLockfile(ctx, lockPath)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || s.state != Loading || s.generation != gen {
		observability.Session().OnStaleResult(ctx, s.id, gen, s.generation)
		if s.disposed {
			return 0, errors.New(errors.ErrCodeDisposed, "session %s was disposed while loading", s.id)
		}
		return 0, errors.New(errors.ErrCodeSuperseded, "lock file read for generation %d superseded by %d", gen, s.generation)
	}
	if readErr != nil {
		s.failLocked(readErr)
		return 0, readErr
	}

	s.versions = ruby.ParseLockfile(text)
	next := annotate.Join(ruby.ScanGemfile(s.buffer.Text(), s.mode), s.versions)

	s.gutter = s.host.Gutters.Gutter(s.id, GutterName)
	s.gutter.Show()
	s.replaceLocked(next)
	s.subscribeLocked()
	s.state = Shown

	return len(next), nil
}

func (s *Session) readLockfile(ctx context.Context, path string) (string, error) {
	exists, err := s.host.Files.Exists(ctx, path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNoLockFile, err, "check %s", path)
	}
	if !exists {
		return "", errors.New(errors.ErrCodeNoLockFile, "no lock file found at %s", path)
	}
	text, err := s.host.Files.Read(ctx, path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeNoLockFile, err, "read %s", path)
	}
	return text, nil
}

func (s *Session) subscribeLocked() {
	s.cancels = append(s.cancels, s.buffer.OnDidStopChanging(s.bufferChanged))

	cancel, err := s.host.Files.Watch(s.lockPath, s.lockfileChanged)
	if err != nil {
		s.logger.Warn("lock file changes will not be picked up", "path", s.lockPath, "err", err)
		return
	}
	s.cancels = append(s.cancels, cancel)
}

// bufferChanged re-joins the buffer against the cached versions and
// redraws only what changed.
func (s *Session) bufferChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.state != Shown {
		return
	}

	s.generation++
	next := annotate.Join(ruby.ScanGemfile(s.buffer.Text(), s.mode), s.versions)
	added, removed := s.diffLocked(next)

	observability.Session().OnDiff(context.Background(), s.id, s.generation, added, removed)
}

// lockfileChanged re-reads the lock file and replaces every annotation.
func (s *Session) lockfileChanged() {
	ctx := context.Background()

	s.mu.Lock()
	if s.disposed || s.state != Shown {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen, path := s.generation, s.lockPath
	s.mu.Unlock()

	text, err := s.readLockfile(ctx, path)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.disposed || s.state != Shown || s.generation != gen {
		observability.Session().OnStaleResult(ctx, s.id, gen, s.generation)
		return
	}

	if err != nil {
		s.hideLocked()
		s.failLocked(err)
		observability.Session().OnLockReload(ctx, s.id, gen, 0, err)
		s.logger.Warn("lock file became unreadable", "editor", s.id, "err", err)
		return
	}

	s.versions = ruby.ParseLockfile(text)
	next := annotate.Join(ruby.ScanGemfile(s.buffer.Text(), s.mode), s.versions)
	s.replaceLocked(next)

	observability.Session().OnLockReload(ctx, s.id, gen, len(next), nil)
}

// diffLocked removes the drawn annotations missing from next and decorates
// the new ones, keeping the handles of unchanged annotations.
func (s *Session) diffLocked(next []annotate.Annotation) (added, removed int) {
	prev := make([]annotate.Annotation, len(s.drawn))
	handles := make(map[uuid.UUID]Handle, len(s.drawn))
	for i, d := range s.drawn {
		prev[i] = d.annotation
		handles[d.annotation.ID] = d.handle
	}

	add, remove := annotate.Diff(prev, next)
	for _, a := range remove {
		s.gutter.Remove(handles[a.ID])
	}

	fresh := make(map[uuid.UUID]bool, len(add))
	for _, a := range add {
		fresh[a.ID] = true
	}

	drawn := make([]decoration, 0, len(next))
	for _, a := range next {
		if fresh[a.ID] {
			drawn = append(drawn, decoration{annotation: a, handle: s.gutter.Decorate(a)})
			continue
		}
		drawn = append(drawn, decoration{annotation: a, handle: handles[a.ID]})
	}
	s.drawn = drawn
	return len(add), len(remove)
}

// replaceLocked removes everything drawn and decorates next.
func (s *Session) replaceLocked(next []annotate.Annotation) {
	s.clearLocked()
	drawn := make([]decoration, 0, len(next))
	for _, a := range next {
		drawn = append(drawn, decoration{annotation: a, handle: s.gutter.Decorate(a)})
	}
	s.drawn = drawn
}

func (s *Session) clearLocked() {
	if s.gutter != nil {
		for _, d := range s.drawn {
			s.gutter.Remove(d.handle)
		}
	}
	s.drawn = nil
}

func (s *Session) hideLocked() {
	for _, cancel := range s.cancels {
		cancel()
	}
	s.cancels = nil

	s.clearLocked()
	if s.gutter != nil {
		s.gutter.Hide()
	}
	s.versions = nil
	s.state = Hidden
	s.err = nil
	s.generation++
}

func (s *Session) failLocked(err error) {
	s.state = Failed
	s.err = err
	s.logger.Debug("session failed", "editor", s.id, "code", errors.GetCode(err))
}
