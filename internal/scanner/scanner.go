// Package scanner enumerates candidate paths under an organized root.
package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"fs-organizer/internal/contextutil"
	"fs-organizer/internal/enricher"
	"fs-organizer/internal/storage"
)

// DefaultMaxDepth only looks at the direct children of the root.
const DefaultMaxDepth = 1

// Options controls one scan.
type Options struct {
	// MaxDepth is the deepest level emitted; 1 means direct children of the root.
	MaxDepth int
	// Processed holds normalized paths already recorded in the store.
	Processed map[string]struct{}
	// Reserved holds cabinet and shelf directories; they are neither emitted nor descended into.
	Reserved map[string]struct{}
}

// Scan walks root up to opts.MaxDepth and returns the paths that still need
// classification, in lexical walk order. Hidden entries, state files,
// reserved directories and processed paths are left out. Deny-listed opaque
// directories are emitted but not descended into.
func Scan(ctx context.Context, root string, opts Options) ([]string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	root, err := Normalize(root)
	if err != nil {
		return nil, err
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to access root %s: %w", root, err)
			}
			logger.WarnContext(ctx, "skipping unreadable path", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if path == root {
			return nil
		}

		name := d.Name()
		if strings.HasPrefix(name, ".") || storage.IsStateFile(name) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := opts.Reserved[path]; ok {
			return filepath.SkipDir
		}

		depth := depthOf(root, path)
		descend := d.IsDir() && depth < maxDepth && !enricher.IsOpaqueName(name)

		if _, ok := opts.Processed[path]; !ok {
			paths = append(paths, path)
		}

		if d.IsDir() && !descend {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return paths, nil
}

// Normalize returns the absolute, cleaned form of path used for membership tests.
func Normalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	return filepath.Clean(abs), nil
}

func depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}
