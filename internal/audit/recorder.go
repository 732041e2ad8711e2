package audit

import (
	"context"
	"time"
)

// writeTimeout bounds a single audit insert.
const writeTimeout = 2 * time.Second

// Logger is the logging interface the recorder needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder writes entries without failing the caller.
//
// A nil *Recorder is valid and records nothing, so surfaces can run
// without a database.
type Recorder struct {
	repo   Repository
	logger Logger
}

// NewRecorder creates a recorder backed by repo.
func NewRecorder(repo Repository, logger Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// Record stores one entry. Errors are logged and dropped.
func (r *Recorder) Record(ctx context.Context, action, source string, details map[string]any) {
	if r == nil || r.repo == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), writeTimeout)
	defer cancel()

	entry := &Entry{Action: action, Source: source, Details: details}
	if err := r.repo.Create(ctx, entry); err != nil && r.logger != nil {
		r.logger.Warn("audit write failed", "action", action, "source", source, "error", err)
	}
}

// List proxies to the repository. A nil recorder returns an empty page.
func (r *Recorder) List(ctx context.Context, filter Filter) (*ListResult, error) {
	if r == nil || r.repo == nil {
		return &ListResult{Entries: []Entry{}, Limit: filter.Limit, Offset: filter.Offset}, nil
	}
	return r.repo.List(ctx, filter)
}
