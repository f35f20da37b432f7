// Package executor applies an organization plan to the filesystem.
package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"fs-organizer/internal/contextutil"
	"fs-organizer/internal/planner"
)

// PlacementRecorder remembers where an item was moved to.
type PlacementRecorder interface {
	MarkPlaced(ctx context.Context, id int64, dest string) error
}

// Options tune an Executor.
type Options struct {
	DryRun   bool
	Recorder PlacementRecorder // Optional
}

// Placement is one completed (or, in a dry run, intended) move.
type Placement struct {
	ItemID      int64
	Source      string
	Destination string
}

// Report summarizes an Apply call.
type Report struct {
	DirsCreated int
	Moved       []Placement
	Skipped     int
	Errors      []error // Non-fatal failures, such as recording a placement
}

// MoveError aborts the remaining plan. Moves already applied stand.
type MoveError struct {
	Movement planner.Movement
	Err      error
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move %s: %v", e.Movement.Source, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}

// Executor materializes plans. Re-applying a plan is safe: sources that
// are already gone are skipped.
type Executor struct {
	opts Options

	rename    func(oldpath, newpath string) error
	copy      func(src, dst string) error
	removeAll func(path string) error
}

// New creates an Executor.
func New(opts Options) *Executor {
	return &Executor{
		opts:      opts,
		rename:    os.Rename,
		copy:      copyPath,
		removeAll: os.RemoveAll,
	}
}

// Apply creates every cabinet and shelf directory, then performs each
// movement in plan order. A vanished source is skipped; any other
// filesystem failure stops the run with a *MoveError.
func (e *Executor) Apply(ctx context.Context, plan *planner.Plan) (*Report, error) {
	logger := contextutil.LoggerFromContext(ctx)
	report := &Report{}

	for _, dir := range plan.Directories() {
		created, err := e.ensureDir(dir)
		if err != nil {
			return report, fmt.Errorf("create %s: %w", dir, err)
		}
		if created {
			report.DirsCreated++
		}
	}

	for _, m := range plan.Movements {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		dest, err := e.move(ctx, plan.Root, m)
		if err != nil {
			return report, &MoveError{Movement: m, Err: err}
		}
		if dest == "" {
			report.Skipped++
			continue
		}

		report.Moved = append(report.Moved, Placement{ItemID: m.ItemID, Source: m.Source, Destination: dest})
		if e.opts.DryRun {
			continue
		}
		logger.InfoContext(ctx, "moved", "source", m.Source, "destination", dest)

		if e.opts.Recorder != nil {
			if err := e.opts.Recorder.MarkPlaced(ctx, m.ItemID, dest); err != nil {
				logger.WarnContext(ctx, "failed to record placement", "item_id", m.ItemID, "error", err)
				report.Errors = append(report.Errors, fmt.Errorf("record placement of %s: %w", m.Source, err))
			}
		}
	}

	return report, nil
}

func (e *Executor) ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, err
	}
	if e.opts.DryRun {
		return true, nil
	}
	return true, os.MkdirAll(dir, 0o755)
}

// move relocates one item and returns its destination, or "" when the
// movement was skipped.
func (e *Executor) move(ctx context.Context, root string, m planner.Movement) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	info, err := os.Lstat(m.Source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.DebugContext(ctx, "source gone, skipping", "source", m.Source)
			return "", nil
		}
		return "", err
	}

	target := m.Destination(root)
	if target == m.Source {
		return "", nil
	}
	if isWithin(target, m.Source) {
		logger.WarnContext(ctx, "destination inside source, skipping", "source", m.Source, "destination", target)
		return "", nil
	}

	destDir := filepath.Dir(target)
	if _, err := e.ensureDir(destDir); err != nil {
		return "", err
	}
	target, err = uniquePath(target)
	if err != nil {
		return "", err
	}
	if e.opts.DryRun {
		return target, nil
	}

	err = e.rename(m.Source, target)
	if err == nil {
		return target, nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return "", fmt.Errorf("rename: %w", err)
	}
	logger.DebugContext(ctx, "rename crosses devices, copying", "source", m.Source, "destination", target)

	if err := e.copy(m.Source, target); err != nil {
		_ = os.RemoveAll(target)
		return "", fmt.Errorf("copy: %w", err)
	}
	if _, err := os.Lstat(target); err != nil {
		return "", fmt.Errorf("confirm copy: %w", err)
	}
	if err := e.removeAll(m.Source); err != nil {
		// A file source is still whole, so dropping the copy leaves the item
		// where a rerun finds it. A directory may be partly removed; its copy
		// is kept.
		if !info.IsDir() {
			if rmErr := os.RemoveAll(target); rmErr != nil {
				logger.ErrorContext(ctx, "failed to undo copy", "destination", target, "error", rmErr)
			}
		}
		return "", fmt.Errorf("remove source after copy: %w", err)
	}
	return target, nil
}

// uniquePath inserts " (n)" before the extension until path is free.
func uniquePath(path string) (string, error) {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return path, nil
	} else if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func isWithin(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
