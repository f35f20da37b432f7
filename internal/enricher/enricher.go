// Package enricher turns scanned paths into classification-ready records.
package enricher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"fs-organizer/internal/contextutil"
	"fs-organizer/internal/extract"
)

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_content_extractor.go -package=mocks fs-organizer/internal/enricher ContentExtractor

// ContentExtractor describes the type and content of a single file.
type ContentExtractor interface {
	Extract(ctx context.Context, path string) (extract.Result, error)
}

const (
	DefaultWorkers        = 10
	DefaultExtractTimeout = 5 * time.Second
)

// Enricher runs a fixed-size worker pool over scanned paths.
type Enricher struct {
	extractor ContentExtractor
	workers   int
	timeout   time.Duration
}

// New creates an Enricher. Non-positive workers or timeout fall back to the defaults.
func New(extractor ContentExtractor, workers int, timeout time.Duration) *Enricher {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if timeout <= 0 {
		timeout = DefaultExtractTimeout
	}
	return &Enricher{
		extractor: extractor,
		workers:   workers,
		timeout:   timeout,
	}
}

// Stream enriches paths in parallel and delivers results on the returned
// channel, which holds at most buffer records and is closed once every
// path was handled or ctx is done. Paths that cannot be enriched are
// logged and skipped. Delivery order is unspecified.
func (e *Enricher) Stream(ctx context.Context, paths []string, buffer int) <-chan Item {
	if buffer < 0 {
		buffer = 0
	}
	out := make(chan Item, buffer)
	queue := make(chan string)

	go func() {
		defer close(queue)
		for _, path := range paths {
			select {
			case queue <- path:
			case <-ctx.Done():
				return
			}
		}
	}()

	var g errgroup.Group
	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			return e.work(ctx, queue, out)
		})
	}

	go func() {
		_ = g.Wait()
		close(out)
	}()

	return out
}

func (e *Enricher) work(ctx context.Context, queue <-chan string, out chan<- Item) error {
	logger := contextutil.LoggerFromContext(ctx)
	for path := range queue {
		item, err := e.Enrich(ctx, path)
		if err != nil {
			logger.WarnContext(ctx, "skipping path", "path", path, "error", err)
			continue
		}
		select {
		case out <- item:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Enrich builds the record for a single path.
func (e *Enricher) Enrich(ctx context.Context, path string) (Item, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Item{}, fmt.Errorf("stat %s: %w", path, err)
	}

	name := filepath.Base(path)
	if info.IsDir() {
		samples := sampleChildren(path)
		return Item{
			Path:        path,
			Name:        name,
			Stem:        name,
			IsDir:       true,
			TypeLabel:   "Directory",
			Parsable:    true,
			Samples:     samples,
			IsOpaqueDir: IsOpaqueDirectory(name, samples),
		}, nil
	}
	if !info.Mode().IsRegular() {
		return Item{}, fmt.Errorf("%s is not a regular file", path)
	}

	ext := filepath.Ext(name)
	result := e.extract(ctx, path)
	return Item{
		Path:      path,
		Name:      name,
		Stem:      strings.TrimSuffix(name, ext),
		Extension: strings.TrimPrefix(ext, "."),
		Size:      info.Size(),
		TypeLabel: result.TypeLabel,
		Preview:   result.Preview,
		Parsable:  result.Parsable,
	}, nil
}

// extract calls the extractor under the per-path time box. Type detection
// and the preview share the box since both come from one read of the file
// head. The extractor goroutine is abandoned on timeout; its late result
// is discarded.
func (e *Enricher) extract(ctx context.Context, path string) extract.Result {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type outcome struct {
		result extract.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := e.extractor.Extract(ctx, path)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			contextutil.LoggerFromContext(ctx).DebugContext(ctx, "content unparsable", "path", path, "error", o.err)
			return extract.Unparsable()
		}
		return o.result
	case <-ctx.Done():
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "content extraction timed out", "path", path)
		return extract.Unparsable()
	}
}

// sampleChildren lists up to MaxSamples non-hidden children in name order.
// An unreadable directory yields no samples.
func sampleChildren(dir string) []ChildSample {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	samples := make([]ChildSample, 0, min(len(entries), MaxSamples))
	for _, entry := range entries {
		if len(samples) == MaxSamples {
			break
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		sample := ChildSample{Name: name, IsFile: !entry.IsDir()}
		if sample.IsFile {
			sample.Extension = strings.TrimPrefix(filepath.Ext(name), ".")
		}
		samples = append(samples, sample)
	}
	return samples
}
