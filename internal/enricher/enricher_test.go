package enricher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fs-organizer/internal/enricher/mocks"
	"fs-organizer/internal/extract"
)

func samplesOf(names ...string) []ChildSample {
	samples := make([]ChildSample, 0, len(names))
	for _, name := range names {
		ext := filepath.Ext(name)
		samples = append(samples, ChildSample{Name: name, IsFile: true, Extension: trimDot(ext)})
	}
	return samples
}

func trimDot(ext string) string {
	if ext == "" {
		return ""
	}
	return ext[1:]
}

func TestIsOpaqueDirectory(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		samples []ChildSample
		want    bool
	}{
		{
			name: "deny-listed name regardless of contents",
			dir:  "node_modules",
			want: true,
		},
		{
			name:    "numbered homogeneous logs",
			dir:     "logs",
			samples: samplesOf("a1.log", "a2.log", "a3.log", "a4.log", "a5.log"),
			want:    true,
		},
		{
			name:    "unrelated mixed samples",
			dir:     "stuff",
			samples: samplesOf("apple.txt", "banana.jpg", "cherry.pdf", "notes.md", "readme"),
			want:    false,
		},
		{
			name:    "too few samples",
			dir:     "shots",
			samples: samplesOf("s1.png", "s2.png", "s3.png", "s4.png"),
			want:    false,
		},
		{
			name:    "numbered but mixed extensions",
			dir:     "exports",
			samples: samplesOf("r1.csv", "r2.json", "r3.csv", "r4.xml", "r5.csv"),
			want:    false,
		},
		{
			name:    "exactly eighty percent numbered is not enough",
			dir:     "photos",
			samples: samplesOf("p1.jpg", "p2.jpg", "p3.jpg", "p4.jpg", "cover.jpg"),
			want:    false,
		},
		{
			name: "numbered directories without extensions",
			dir:  "releases",
			samples: []ChildSample{
				{Name: "v1"}, {Name: "v2"}, {Name: "v3"}, {Name: "v4"}, {Name: "v5"},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsOpaqueDirectory(tt.dir, tt.samples); got != tt.want {
				t.Errorf("IsOpaqueDirectory(%q) = %v, want %v", tt.dir, got, tt.want)
			}
		})
	}
}

func TestEnrich_File(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockContentExtractor(ctrl)

	root := t.TempDir()
	path := filepath.Join(root, "recipe.md")
	require.NoError(t, os.WriteFile(path, []byte("# Pancakes"), 0o644))

	extractor.EXPECT().
		Extract(gomock.Any(), path).
		Return(extract.Result{TypeLabel: "Markdown document", Preview: "Pancakes", Parsable: true}, nil)

	item, err := New(extractor, 1, time.Second).Enrich(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "recipe.md", item.Name)
	assert.Equal(t, "recipe", item.Stem)
	assert.Equal(t, "md", item.Extension)
	assert.Equal(t, int64(10), item.Size)
	assert.Equal(t, "Pancakes", item.Preview)
	assert.Equal(t, ItemFile, item.Type())
}

func TestEnrich_ExtractorFailureDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockContentExtractor(ctrl)

	path := filepath.Join(t.TempDir(), "locked.txt")
	require.NoError(t, os.WriteFile(path, []byte("secret"), 0o644))

	extractor.EXPECT().
		Extract(gomock.Any(), path).
		Return(extract.Result{}, errors.New("permission denied"))

	item, err := New(extractor, 1, time.Second).Enrich(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, extract.UnparsablePreview, item.Preview)
	assert.Equal(t, extract.UnknownType, item.TypeLabel)
}

func TestEnrich_ExtractorTimeoutDegrades(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockContentExtractor(ctrl)

	path := filepath.Join(t.TempDir(), "slow.txt")
	require.NoError(t, os.WriteFile(path, []byte("slow"), 0o644))

	release := make(chan struct{})
	defer close(release)
	extractor.EXPECT().
		Extract(gomock.Any(), path).
		DoAndReturn(func(ctx context.Context, path string) (extract.Result, error) {
			<-release
			return extract.Result{Preview: "too late"}, nil
		})

	start := time.Now()
	item, err := New(extractor, 1, 20*time.Millisecond).Enrich(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, extract.UnparsablePreview, item.Preview)
	assert.Less(t, time.Since(start), time.Second)
}

func TestEnrich_Directory(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockContentExtractor(ctrl)

	dir := filepath.Join(t.TempDir(), "project")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), nil, 0o644))
	for i := 0; i < 25; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, fmt.Sprintf("f%02d.go", i)), nil, 0o644))
	}

	item, err := New(extractor, 1, time.Second).Enrich(context.Background(), dir)
	require.NoError(t, err)

	assert.True(t, item.IsDir)
	assert.Len(t, item.Samples, MaxSamples)
	assert.Equal(t, "f00.go", item.Samples[0].Name)
	assert.Equal(t, "go", item.Samples[0].Extension)
	for _, s := range item.Samples {
		assert.NotEqual(t, ".env", s.Name)
	}
	assert.True(t, item.IsOpaqueDir)
	assert.Equal(t, ItemOpaqueDirectory, item.Type())
}

func TestEnrich_MissingPath(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockContentExtractor(ctrl)

	_, err := New(extractor, 1, time.Second).Enrich(context.Background(), filepath.Join(t.TempDir(), "gone"))
	assert.Error(t, err)
}

func TestStream(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockContentExtractor(ctrl)
	extractor.EXPECT().
		Extract(gomock.Any(), gomock.Any()).
		Return(extract.Result{TypeLabel: "Text file", Preview: "x", Parsable: true}, nil).
		AnyTimes()

	root := t.TempDir()
	var paths, want []string
	for i := 0; i < 25; i++ {
		path := filepath.Join(root, fmt.Sprintf("file%02d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		paths = append(paths, path)
		want = append(want, path)
	}
	// vanished between scan and enrichment
	paths = append(paths, filepath.Join(root, "vanished.txt"))

	var got []string
	for item := range New(extractor, 3, time.Second).Stream(context.Background(), paths, 4) {
		got = append(got, item.Path)
	}

	sort.Strings(got)
	assert.Equal(t, want, got)
}

func TestStream_StopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	extractor := mocks.NewMockContentExtractor(ctrl)
	extractor.EXPECT().
		Extract(gomock.Any(), gomock.Any()).
		Return(extract.Result{Preview: "x", Parsable: true}, nil).
		AnyTimes()

	root := t.TempDir()
	var paths []string
	for i := 0; i < 10; i++ {
		path := filepath.Join(root, fmt.Sprintf("file%02d.txt", i))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		paths = append(paths, path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := New(extractor, 2, time.Second).Stream(ctx, paths, 0)
	<-out
	cancel()

	done := make(chan struct{})
	go func() {
		for range out {
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stream() did not close its output after cancel")
	}
}
