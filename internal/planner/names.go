package planner

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const fallbackName = "unnamed"

// SanitizeName makes name safe to use as a single path element. It
// normalizes to NFC, drops path separators and control characters, and
// strips surrounding spaces and leading dots so the result is never hidden.
func SanitizeName(name string) string {
	name = norm.NFC.String(name)
	cleaned := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.TrimLeft(cleaned, ".")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return fallbackName
	}
	return cleaned
}

// CabinetDir returns the directory a cabinet materializes as.
func CabinetDir(root, cabinet string) string {
	return filepath.Join(root, SanitizeName(cabinet))
}

// ShelfDir returns the directory a shelf materializes as.
func ShelfDir(root, cabinet, shelf string) string {
	return filepath.Join(CabinetDir(root, cabinet), SanitizeName(shelf))
}

// TargetName is the base name an item is given at its destination: the
// sanitized suggestion, keeping the source extension, or the original name.
func TargetName(originalName, suggestedName string, isDir bool) string {
	suggested := strings.TrimSpace(suggestedName)
	if suggested == "" {
		return originalName
	}
	name := SanitizeName(suggested)
	if isDir {
		return name
	}
	ext := filepath.Ext(originalName)
	if ext != "" && !strings.EqualFold(filepath.Ext(name), ext) {
		name += ext
	}
	return name
}
