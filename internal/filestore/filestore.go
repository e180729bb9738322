// Package filestore applies task edits to markdown files on disk. Every edit
// holds an advisory lock on a sibling ".lock" file and replaces the document
// atomically, so concurrent processes never interleave or see half a file.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/natefinch/atomic"

	"github.com/dgallion1/taskdoc/internal/config"
	"github.com/dgallion1/taskdoc/internal/engine"
	"github.com/dgallion1/taskdoc/internal/stats"
)

const (
	lockRetryDelay = 50 * time.Millisecond
	filePerms      = 0o644
)

// ErrLocked is returned when the lock cannot be taken within the timeout.
var ErrLocked = errors.New("document is locked by another process")

// Files edits documents on the local filesystem.
type Files struct {
	opts        engine.Options
	lockTimeout time.Duration
	maxBytes    int64
	ops         *stats.Ops
	log         *slog.Logger
}

// New returns a Files configured from cfg. ops may be nil.
func New(cfg config.Config, ops *stats.Ops, log *slog.Logger) *Files {
	if ops == nil {
		ops = stats.NewOps(time.Hour)
	}
	return &Files{
		opts:        cfg.EngineOptions(),
		lockTimeout: cfg.LockTimeout,
		maxBytes:    cfg.MaxDocumentBytes,
		ops:         ops,
		log:         log,
	}
}

// Options returns the edit options used for every change.
func (f *Files) Options() engine.Options {
	return f.opts
}

// Read returns the document text. A missing file reads as an empty document.
func (f *Files) Read(path string) (string, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the caller
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if int64(len(data)) > f.maxBytes {
		return "", fmt.Errorf("%s is %d bytes, limit is %d", path, len(data), f.maxBytes)
	}
	return string(data), nil
}

// Edit locks path, hands the current text to fn and writes back what fn
// returns. Nothing is written when fn fails or leaves the text unchanged.
func (f *Files) Edit(ctx context.Context, path string, fn func(text string) (string, error)) error {
	lock := flock.New(path + ".lock")

	lockCtx, cancel := context.WithTimeout(ctx, f.lockTimeout)
	defer cancel()
	locked, err := lock.TryLockContext(lockCtx, lockRetryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s", ErrLocked, path)
		}
		return fmt.Errorf("acquiring lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("%w: %s", ErrLocked, path)
	}
	defer func() { _ = lock.Unlock() }()

	_, statErr := os.Stat(path)
	isNew := errors.Is(statErr, fs.ErrNotExist)

	text, err := f.Read(path)
	if err != nil {
		return err
	}
	next, err := fn(text)
	if err != nil {
		return err
	}
	if next == text && !isNew {
		return nil
	}

	if err := atomic.WriteFile(path, strings.NewReader(next)); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if isNew {
		if err := os.Chmod(path, filePerms); err != nil {
			return fmt.Errorf("setting permissions on %s: %w", path, err)
		}
	}
	return nil
}

// Apply runs op against the file and reports the task it touched.
func (f *Files) Apply(ctx context.Context, path string, op engine.Operation) (engine.Result, error) {
	var res engine.Result
	err := f.Edit(ctx, path, func(text string) (string, error) {
		err := f.ops.Time(string(op.Kind), func() error {
			var err error
			res, err = engine.Run(text, op, f.opts)
			return err
		})
		if err != nil {
			return "", err
		}
		return res.Text, nil
	})
	if err != nil {
		f.log.Debug("edit failed", "path", path, "op", op.Kind, "task_id", op.ID, "error", err)
		return engine.Result{}, err
	}
	f.log.Debug("edit applied", "path", path, "op", op.Kind, "task_id", res.ID)
	return res, nil
}
