// Package extract produces short type labels and content previews for files.
package extract

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

const (
	// SniffBytes is how much of a file is read for detection and preview.
	SniffBytes = 8 * 1024

	// DefaultPreviewChars bounds the preview length in characters.
	DefaultPreviewChars = 500

	// UnparsablePreview marks a file whose content could not be read in time.
	UnparsablePreview = "[unparsable]"
	// UnknownType is the type label paired with UnparsablePreview.
	UnknownType = "unknown"
)

// Kind is the coarse family a file was detected as.
type Kind int

const (
	KindBinary Kind = iota
	KindText
	KindMarkdown
	KindImage
	KindPDF
	KindAudio
	KindVideo
	KindArchive
)

// Result is the outcome of extracting one file.
type Result struct {
	Kind      Kind
	MIME      string
	TypeLabel string
	Preview   string
	Parsable  bool
}

// Unparsable is the degraded result used when extraction fails or times out.
func Unparsable() Result {
	return Result{Kind: KindBinary, TypeLabel: UnknownType, Preview: UnparsablePreview}
}

var archiveTypes = []string{
	"application/zip",
	"application/x-rar-compressed",
	"application/x-tar",
	"application/gzip",
	"application/x-7z-compressed",
	"application/x-bzip2",
	"application/x-xz",
	"application/zstd",
}

var markdownExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
}

// Extractor reads the head of a file and describes it.
type Extractor struct {
	previewChars int
	markdown     goldmark.Markdown
}

// New creates an Extractor. A non-positive previewChars uses DefaultPreviewChars.
func New(previewChars int) *Extractor {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	return &Extractor{
		previewChars: previewChars,
		markdown: goldmark.New(
			goldmark.WithExtensions(extension.Table),
		),
	}
}

// Extract detects the type of the file at path and builds its preview.
// Only the first SniffBytes bytes are read.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	head, truncated, err := readHead(path)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	mtype := mimetype.Detect(head)
	result := Result{MIME: mtype.String(), Parsable: true}
	mime := baseMIME(mtype.String())

	switch {
	case len(head) == 0 || isText(mtype):
		// drops a multi-byte rune split by the read window
		body := strings.ToValidUTF8(string(head), "")
		result.Kind = KindText
		result.TypeLabel = "Text file"
		if markdownExts[strings.ToLower(filepath.Ext(path))] {
			result.Kind = KindMarkdown
			result.TypeLabel = "Markdown document"
			body = e.markdownText([]byte(body))
		}
		result.Preview = truncate(body, e.previewChars, truncated)
	case mtype.Is("application/pdf"):
		result.Kind = KindPDF
		result.TypeLabel = "PDF document"
		result.Preview = "[PDF document]"
	case strings.HasPrefix(mime, "image/"):
		result.Kind = KindImage
		result.TypeLabel = fmt.Sprintf("Image (%s)", mime)
		result.Preview = "[" + result.TypeLabel + "]"
	case strings.HasPrefix(mime, "audio/"):
		result.Kind = KindAudio
		result.TypeLabel = fmt.Sprintf("Audio (%s)", mime)
		result.Preview = "[" + result.TypeLabel + "]"
	case strings.HasPrefix(mime, "video/"):
		result.Kind = KindVideo
		result.TypeLabel = fmt.Sprintf("Video (%s)", mime)
		result.Preview = "[" + result.TypeLabel + "]"
	case isArchive(mtype):
		result.Kind = KindArchive
		result.TypeLabel = fmt.Sprintf("Archive (%s)", mime)
		result.Preview = "[" + result.TypeLabel + "]"
	default:
		result.Kind = KindBinary
		result.TypeLabel = "Binary file"
		result.Preview = "[Binary file]"
	}

	return result, nil
}

func readHead(path string) ([]byte, bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	// One extra byte tells us whether the file continues past the window
	buf := make([]byte, SniffBytes+1)
	n, err := io.ReadFull(file, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, false, fmt.Errorf("read %s: %w", path, err)
	}
	if n > SniffBytes {
		return buf[:SniffBytes], true, nil
	}
	return buf[:n], false, nil
}

func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}

func isArchive(mtype *mimetype.MIME) bool {
	for _, candidate := range archiveTypes {
		if mtype.Is(candidate) {
			return true
		}
	}
	return false
}

func baseMIME(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}

// truncate keeps the first limit runes and appends "..." when anything was cut.
func truncate(value string, limit int, more bool) string {
	if utf8.RuneCountInString(value) > limit {
		runes := []rune(value)
		return string(runes[:limit]) + "..."
	}
	if more {
		return value + "..."
	}
	return value
}

// markdownText flattens a markdown document into plain text.
func (e *Extractor) markdownText(content []byte) string {
	doc := e.markdown.Parser().Parse(text.NewReader(content))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				b.WriteByte('\n')
			}
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(content))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.CodeBlock, *ast.FencedCodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				segment := lines.At(i)
				b.Write(segment.Value(content))
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return collapseSpace(b.String())
}

func collapseSpace(value string) string {
	lines := strings.Split(value, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
