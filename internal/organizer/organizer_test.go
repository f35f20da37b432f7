package organizer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fs-organizer/internal/extract"
	"fs-organizer/internal/oracle"
	"fs-organizer/internal/storage"
)

// stubOracle places items by stem and can be told to fail.
type stubOracle struct {
	mu     sync.Mutex
	calls  int
	failOn map[int]bool
	places map[string][2]string
}

func (s *stubOracle) Classify(ctx context.Context, req *oracle.Request) (*oracle.Response, error) {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()
	if s.failOn[call] {
		return nil, errors.New("oracle unavailable")
	}

	resp := &oracle.Response{}
	for _, item := range req.Items {
		place, ok := s.places[item.Name]
		if !ok {
			place = [2]string{"Misc", "Other"}
		}
		resp.Items = append(resp.Items, oracle.ItemAnalysis{
			ID:          item.ID,
			Description: "about " + item.Name,
			Cabinet:     oracle.New{Name: place[0], Description: place[0] + " cabinet"},
			Shelf:       oracle.New{Name: place[1], Description: place[1] + " shelf"},
		})
	}
	return resp, nil
}

func newStub() *stubOracle {
	return &stubOracle{places: map[string][2]string{
		"file1":  {"Documents", "TextFiles"},
		"doc123": {"Documents", "TextFiles"},
		"recipe": {"Recipes", "Markdown"},
	}}
}

func seedRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"file1.txt":  "first file",
		"doc123.txt": "a document",
		"recipe.md":  "# Pancakes\nMix and fry.",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, name), []byte(content), 0o644))
	}
	return root
}

func newPipeline(o oracle.Oracle) *Pipeline {
	return New(o, extract.New(extract.DefaultPreviewChars), Options{BatchSize: 10, Workers: 2})
}

func TestPipeline_EndToEnd(t *testing.T) {
	root := seedRoot(t)
	ctx := context.Background()
	pipeline := newPipeline(newStub())

	summary, err := pipeline.Run(ctx, root, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Scanned)
	assert.Equal(t, 3, summary.Enriched)
	assert.Equal(t, 3, summary.Classified)
	assert.NotEmpty(t, summary.RunID)

	plan, err := pipeline.Plan(ctx, root)
	require.NoError(t, err)
	require.Len(t, plan.Cabinets, 2)
	assert.Equal(t, 3, plan.ItemCount())
	assert.Len(t, plan.Movements, 3)

	_, report, err := pipeline.Apply(ctx, root, false)
	require.NoError(t, err)
	assert.Len(t, report.Moved, 3)

	for _, rel := range []string{
		"Documents/TextFiles/file1.txt",
		"Documents/TextFiles/doc123.txt",
		"Recipes/Markdown/recipe.md",
	} {
		assert.FileExists(t, filepath.Join(root, rel))
	}
	for _, name := range []string{"file1.txt", "doc123.txt", "recipe.md"} {
		assert.NoFileExists(t, filepath.Join(root, name))
	}

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	var hidden []string
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") && !strings.HasPrefix(entry.Name(), storage.StateFileName+"-") {
			hidden = append(hidden, entry.Name())
		}
	}
	assert.Equal(t, []string{storage.StateFileName}, hidden, "the state database is the only file the pipeline leaves under root")

	store, err := storage.Open(root)
	require.NoError(t, err)
	snap, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.NoError(t, store.Close())
	assert.Len(t, snap.Cabinets, 2)
	assert.Len(t, snap.Shelves, 2)
	assert.Len(t, snap.Items, 3)
	for _, item := range snap.Items {
		assert.NotEmpty(t, item.PlacedPath)
	}

	run, err := pipeline.LatestRun(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, storage.RunCompleted, run.Status)
	assert.Equal(t, 3, run.Classified)
}

func TestPipeline_RerunIsIdempotent(t *testing.T) {
	root := seedRoot(t)
	ctx := context.Background()
	stub := newStub()
	pipeline := newPipeline(stub)

	_, err := pipeline.Run(ctx, root, 1)
	require.NoError(t, err)
	_, _, err = pipeline.Apply(ctx, root, false)
	require.NoError(t, err)

	summary, err := pipeline.Run(ctx, root, 2)
	require.NoError(t, err)
	assert.Zero(t, summary.Scanned, "organized files and category directories are not rescanned")
	assert.Equal(t, 1, stub.calls)

	_, report, err := pipeline.Apply(ctx, root, false)
	require.NoError(t, err)
	assert.Empty(t, report.Moved)
}

func TestPipeline_ResumesAfterFailedBatch(t *testing.T) {
	root := seedRoot(t)
	ctx := context.Background()
	stub := newStub()
	stub.failOn = map[int]bool{1: true}
	pipeline := newPipeline(stub)

	summary, err := pipeline.Run(ctx, root, 1)
	require.ErrorIs(t, err, ErrBatchesFailed)
	assert.Equal(t, 1, summary.FailedBatches)
	assert.Zero(t, summary.Classified)

	run, err := pipeline.LatestRun(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, storage.RunFailed, run.Status)

	summary, err = pipeline.Run(ctx, root, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Classified)
}

func TestPipeline_RejectsConcurrentRun(t *testing.T) {
	root := seedRoot(t)
	lock, err := storage.Lock(root)
	require.NoError(t, err)
	defer func() { _ = lock.Unlock() }()

	_, err = newPipeline(newStub()).Run(context.Background(), root, 1)
	assert.ErrorIs(t, err, storage.ErrLocked)
}

func TestPipeline_PlanRequiresState(t *testing.T) {
	_, err := newPipeline(newStub()).Plan(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNotOrganized)
}

func TestPipeline_ApplyRequiresState(t *testing.T) {
	root := t.TempDir()
	_, _, err := newPipeline(newStub()).Apply(context.Background(), root, false)
	assert.ErrorIs(t, err, ErrNotOrganized)
	assert.NoFileExists(t, filepath.Join(root, storage.StateFileName))
}

func TestPipeline_RootMustBeDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := newPipeline(newStub()).Run(context.Background(), file, 1)
	assert.Error(t, err)
}
