package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestExtract(t *testing.T) {
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	tests := []struct {
		name        string
		file        string
		data        []byte
		wantKind    Kind
		wantLabel   string
		wantPreview string
	}{
		{
			name:        "short text",
			file:        "notes.txt",
			data:        []byte("buy milk\n"),
			wantKind:    KindText,
			wantLabel:   "Text file",
			wantPreview: "buy milk\n",
		},
		{
			name:        "empty file",
			file:        "empty.txt",
			data:        nil,
			wantKind:    KindText,
			wantLabel:   "Text file",
			wantPreview: "",
		},
		{
			name:        "markdown flattened",
			file:        "recipe.md",
			data:        []byte("# Pancakes\n\nMix *flour* and eggs.\n\n- stir\n- fry\n"),
			wantKind:    KindMarkdown,
			wantLabel:   "Markdown document",
			wantPreview: "Pancakes\nMix flour and eggs.\nstir\nfry",
		},
		{
			name:        "png image",
			file:        "photo.png",
			data:        pngHeader,
			wantKind:    KindImage,
			wantLabel:   "Image (image/png)",
			wantPreview: "[Image (image/png)]",
		},
		{
			name:        "pdf",
			file:        "paper.pdf",
			data:        []byte("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n"),
			wantKind:    KindPDF,
			wantLabel:   "PDF document",
			wantPreview: "[PDF document]",
		},
		{
			name:        "binary",
			file:        "blob.bin",
			data:        []byte{0x00, 0x01, 0x02, 0x03, 0xfe, 0xff, 0x00, 0x10},
			wantKind:    KindBinary,
			wantLabel:   "Binary file",
			wantPreview: "[Binary file]",
		},
	}

	extractor := New(0)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.data)

			got, err := extractor.Extract(context.Background(), path)
			require.NoError(t, err)

			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantLabel, got.TypeLabel)
			assert.Equal(t, tt.wantPreview, got.Preview)
			assert.True(t, got.Parsable)
		})
	}
}

func TestExtract_TruncatesPreview(t *testing.T) {
	path := writeFile(t, "long.txt", []byte(strings.Repeat("a", 600)))

	got, err := New(500).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, strings.Repeat("a", 500)+"...", got.Preview)
}

func TestExtract_MarksFilesLongerThanWindow(t *testing.T) {
	path := writeFile(t, "huge.log", []byte(strings.Repeat("x", SniffBytes+100)))

	got, err := New(SniffBytes*2).Extract(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(got.Preview, "..."))
	assert.Len(t, got.Preview, SniffBytes+3)
}

func TestExtract_MissingFile(t *testing.T) {
	_, err := New(0).Extract(context.Background(), filepath.Join(t.TempDir(), "gone.txt"))
	assert.Error(t, err)
}

func TestExtract_CancelledContext(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("hello"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(0).Extract(ctx, path)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestUnparsable(t *testing.T) {
	got := Unparsable()
	assert.Equal(t, UnparsablePreview, got.Preview)
	assert.Equal(t, UnknownType, got.TypeLabel)
	assert.False(t, got.Parsable)
}
