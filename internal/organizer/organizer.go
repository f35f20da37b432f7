// Package organizer wires the scan, enrich, classify, plan and apply
// stages into runs against a single root.
package organizer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"fs-organizer/internal/classifier"
	"fs-organizer/internal/contextutil"
	"fs-organizer/internal/enricher"
	"fs-organizer/internal/executor"
	"fs-organizer/internal/oracle"
	"fs-organizer/internal/planner"
	"fs-organizer/internal/scanner"
	"fs-organizer/internal/storage"
)

var (
	// ErrBatchesFailed is returned by Run when at least one batch was rejected.
	ErrBatchesFailed = errors.New("some batches failed")
	// ErrNotOrganized is returned when a root has no state database yet.
	ErrNotOrganized = errors.New("root has not been organized yet")
)

// Options size the pipeline stages. Zero values use each stage's default.
type Options struct {
	BatchSize      int
	Workers        int
	ExtractTimeout time.Duration
	OracleTimeout  time.Duration
}

// Pipeline runs organize passes. It holds no per-root state and may be
// shared; concurrent runs on the same root are rejected by the root lock.
type Pipeline struct {
	oracle    oracle.Oracle
	extractor enricher.ContentExtractor
	opts      Options
}

// New creates a Pipeline.
func New(o oracle.Oracle, extractor enricher.ContentExtractor, opts Options) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = classifier.DefaultBatchSize
	}
	return &Pipeline{oracle: o, extractor: extractor, opts: opts}
}

// RunSummary reports what one Run did.
type RunSummary struct {
	RunID         string
	Root          string
	Scanned       int
	Enriched      int
	Classified    int
	FailedBatches int
}

// Run classifies every unprocessed path under root down to depth and
// records the outcome as a run. Committed batches persist even when Run
// returns an error; running again resumes where this run stopped.
func (p *Pipeline) Run(ctx context.Context, root string, depth int) (*RunSummary, error) {
	root, err := checkRoot(root)
	if err != nil {
		return nil, err
	}

	lock, err := storage.Lock(root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = lock.Unlock() }()

	store, err := storage.Open(root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	run, err := store.Runs.Start(ctx, "", root)
	if err != nil {
		return nil, err
	}
	ctx = contextutil.WithRunID(ctx, run.ID)
	ctx = contextutil.WithLogger(ctx, contextutil.LoggerFromContext(ctx).With("root", root))
	logger := contextutil.LoggerFromContext(ctx)
	logger.InfoContext(ctx, "run started", "depth", depth)

	summary := &RunSummary{RunID: run.ID, Root: root}
	runErr := p.run(ctx, store, root, depth, summary)

	counts := storage.RunCounts{
		Scanned:       summary.Scanned,
		Enriched:      summary.Enriched,
		Classified:    summary.Classified,
		FailedBatches: summary.FailedBatches,
	}
	if err := store.Runs.Finish(context.WithoutCancel(ctx), run.ID, counts, runErr); err != nil {
		logger.ErrorContext(ctx, "failed to record run outcome", "error", err)
	}

	if runErr != nil {
		logger.ErrorContext(ctx, "run failed", "error", runErr,
			"scanned", summary.Scanned, "classified", summary.Classified, "failed_batches", summary.FailedBatches)
		return summary, runErr
	}
	logger.InfoContext(ctx, "run completed",
		"scanned", summary.Scanned, "enriched", summary.Enriched, "classified", summary.Classified)
	return summary, nil
}

func (p *Pipeline) run(ctx context.Context, store *storage.Store, root string, depth int, summary *RunSummary) error {
	logger := contextutil.LoggerFromContext(ctx)

	processed, err := store.Items.ProcessedPaths(ctx)
	if err != nil {
		return fmt.Errorf("load processed paths: %w", err)
	}
	cabinets, shelves, err := store.Catalog(ctx)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}

	paths, err := scanner.Scan(ctx, root, scanner.Options{
		MaxDepth:  depth,
		Processed: processed,
		Reserved:  planner.ReservedPaths(root, cabinets, shelves),
	})
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	summary.Scanned = len(paths)
	logger.InfoContext(ctx, "scan complete", "candidates", len(paths), "already_processed", len(processed))
	if len(paths) == 0 {
		return nil
	}

	items := enricher.New(p.extractor, p.opts.Workers, p.opts.ExtractTimeout).
		Stream(ctx, paths, 2*p.opts.BatchSize)
	stats := classifier.New(store, p.oracle, p.opts.BatchSize, p.opts.OracleTimeout).Run(ctx, items)

	summary.Enriched = stats.Received
	summary.Classified = stats.Classified
	summary.FailedBatches = stats.FailedBatches

	if err := ctx.Err(); err != nil {
		return err
	}
	if stats.FailedBatches > 0 {
		return fmt.Errorf("%w: %d of %d", ErrBatchesFailed, stats.FailedBatches, stats.Batches)
	}
	return nil
}

// Plan derives the current plan for root from its store.
func (p *Pipeline) Plan(ctx context.Context, root string) (*planner.Plan, error) {
	root, err := checkRoot(root)
	if err != nil {
		return nil, err
	}
	store, err := openExisting(root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()

	snap, err := store.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return planner.Build(root, snap), nil
}

// Apply builds the plan for root and executes it, recording each
// placement in the store. With dryRun nothing on disk changes.
func (p *Pipeline) Apply(ctx context.Context, root string, dryRun bool) (*planner.Plan, *executor.Report, error) {
	root, err := checkRoot(root)
	if err != nil {
		return nil, nil, err
	}
	if !storage.Exists(root) {
		return nil, nil, fmt.Errorf("%s: %w", root, ErrNotOrganized)
	}

	lock, err := storage.Lock(root)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = lock.Unlock() }()

	store, err := openExisting(root)
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = store.Close() }()

	snap, err := store.Snapshot(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}
	plan := planner.Build(root, snap)

	opts := executor.Options{DryRun: dryRun}
	if !dryRun {
		opts.Recorder = store.Items
	}
	report, err := executor.New(opts).Apply(ctx, plan)
	if err != nil {
		return plan, report, err
	}

	contextutil.LoggerFromContext(ctx).InfoContext(ctx, "plan applied",
		"root", root, "dry_run", dryRun, "moved", len(report.Moved), "skipped", report.Skipped)
	return plan, report, nil
}

// LatestRun returns the most recent run recorded for root.
func (p *Pipeline) LatestRun(ctx context.Context, root string) (*storage.Run, error) {
	root, err := checkRoot(root)
	if err != nil {
		return nil, err
	}
	store, err := openExisting(root)
	if err != nil {
		return nil, err
	}
	defer func() { _ = store.Close() }()
	return store.Runs.Latest(ctx)
}

func checkRoot(root string) (string, error) {
	root, err := scanner.Normalize(root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(root)
	if err != nil {
		return "", fmt.Errorf("root %s: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root %s is not a directory", root)
	}
	return root, nil
}

func openExisting(root string) (*storage.Store, error) {
	if !storage.Exists(root) {
		return nil, fmt.Errorf("%s: %w", root, ErrNotOrganized)
	}
	return storage.Open(root)
}
