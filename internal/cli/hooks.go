package cli

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/gemgutter/pkg/errors"
	"github.com/matzehuels/gemgutter/pkg/observability"
)

var (
	_ observability.SessionHooks = (*logHooks)(nil)
	_ observability.WatchHooks   = (*logHooks)(nil)
)

// logHooks reports engine events as debug logs.
type logHooks struct {
	logger *log.Logger
}

func newLogHooks(l *log.Logger) *logHooks {
	return &logHooks{logger: l.WithPrefix("engine")}
}

func (h *logHooks) OnShowStart(_ context.Context, editorID string) {
	h.logger.Debug("show", "editor", editorID)
}

func (h *logHooks) OnShowComplete(_ context.Context, editorID string, annotations int, d time.Duration, err error) {
	if err != nil {
		h.logger.Debug("show failed", "editor", editorID, "code", errors.GetCode(err), "elapsed", d.Round(time.Microsecond))
		return
	}
	h.logger.Debug("show complete", "editor", editorID, "annotations", annotations, "elapsed", d.Round(time.Microsecond))
}

func (h *logHooks) OnDiff(_ context.Context, editorID string, generation uint64, added, removed int) {
	h.logger.Debug("diff", "editor", editorID, "generation", generation, "added", added, "removed", removed)
}

func (h *logHooks) OnLockReload(_ context.Context, editorID string, generation uint64, annotations int, err error) {
	if err != nil {
		h.logger.Debug("lock reload failed", "editor", editorID, "generation", generation, "err", err)
		return
	}
	h.logger.Debug("lock reload", "editor", editorID, "generation", generation, "annotations", annotations)
}

func (h *logHooks) OnStaleResult(_ context.Context, editorID string, started, current uint64) {
	h.logger.Debug("stale result dropped", "editor", editorID, "started", started, "current", current)
}

func (h *logHooks) OnFileEvent(_ context.Context, path, op string) {
	h.logger.Debug("file event", "path", path, "op", op)
}

func (h *logHooks) OnWatchError(_ context.Context, path string, err error) {
	h.logger.Debug("watch error", "path", path, "err", err)
}
