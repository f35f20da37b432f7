package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fs-organizer/internal/storage"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Documents", want: "Documents"},
		{in: "  Tax / Returns  ", want: "Tax  Returns"},
		{in: "a\\b", want: "ab"},
		{in: "line\nbreak\t", want: "linebreak"},
		{in: ".hidden", want: "hidden"},
		{in: "..", want: "unnamed"},
		{in: "", want: "unnamed"},
		{in: "Café", want: "Café"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := SanitizeName(tt.in); got != tt.want {
				t.Errorf("SanitizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTargetName(t *testing.T) {
	tests := []struct {
		name      string
		original  string
		suggested string
		isDir     bool
		want      string
	}{
		{name: "no suggestion", original: "IMG_0001.jpg", want: "IMG_0001.jpg"},
		{name: "suggestion without extension", original: "doc123.txt", suggested: "meeting notes", want: "meeting notes.txt"},
		{name: "suggestion with extension", original: "doc123.txt", suggested: "notes.TXT", want: "notes.TXT"},
		{name: "suggestion with separators", original: "a.pdf", suggested: "2024/invoice", want: "2024invoice.pdf"},
		{name: "directory keeps suggestion", original: "proj", suggested: "website", isDir: true, want: "website"},
		{name: "blank suggestion", original: "a.md", suggested: "  ", want: "a.md"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TargetName(tt.original, tt.suggested, tt.isDir); got != tt.want {
				t.Errorf("TargetName(%q, %q) = %q, want %q", tt.original, tt.suggested, got, tt.want)
			}
		})
	}
}

func snapshot() *storage.Snapshot {
	return &storage.Snapshot{
		Cabinets: []storage.Cabinet{
			{ID: 2, Name: "Recipes", Description: "Cooking"},
			{ID: 1, Name: "Documents", Description: "Docs"},
		},
		Shelves: []storage.Shelf{
			{ID: 10, CabinetID: 1, Name: "TextFiles", Description: "Text"},
			{ID: 11, CabinetID: 2, Name: "Markdown", Description: "Markdown recipes"},
			{ID: 12, CabinetID: 1, Name: "Archives", Description: "Old"},
		},
		Items: []storage.Item{
			{ID: 1, ShelfID: 10, Path: "/data/file1.txt", OriginalName: "file1.txt", Description: "first"},
			{ID: 2, ShelfID: 10, Path: "/data/doc123.txt", OriginalName: "doc123.txt", SuggestedName: "report", Description: "second"},
			{ID: 3, ShelfID: 11, Path: "/data/recipe.md", OriginalName: "recipe.md", Description: "pancakes"},
			{ID: 4, ShelfID: 12, Path: "/data/logs", OriginalName: "logs", FileType: "directory", IsOpaqueDir: true},
			{ID: 5, ShelfID: 12, Path: "/data/logs/a1.log", OriginalName: "a1.log"},
			{ID: 6, ShelfID: 10, Path: "/data/projects/readme.txt", OriginalName: "readme.txt"},
			{ID: 7, ShelfID: 10, Path: "/data/old.txt", OriginalName: "old.txt", PlacedPath: "/data/Documents/TextFiles/old.txt"},
		},
	}
}

func TestBuild_CategoryTree(t *testing.T) {
	plan := Build("/data", snapshot())

	require.Len(t, plan.Cabinets, 2)
	assert.Equal(t, "Documents", plan.Cabinets[0].Name)
	assert.Equal(t, "Recipes", plan.Cabinets[1].Name)

	docs := plan.Cabinets[0].Shelves
	require.Len(t, docs, 2)
	// the opaque directory counts once, its contents not at all
	assert.Equal(t, ShelfPlan{ID: 12, Name: "Archives", Description: "Old", ItemCount: 1}, docs[0])
	assert.Equal(t, ShelfPlan{ID: 10, Name: "TextFiles", Description: "Text", ItemCount: 4}, docs[1])
	assert.Equal(t, 6, plan.ItemCount())

	assert.Equal(t, []string{
		"/data/Documents",
		"/data/Documents/Archives",
		"/data/Documents/TextFiles",
		"/data/Recipes",
		"/data/Recipes/Markdown",
	}, plan.Directories())
}

func TestBuild_Movements(t *testing.T) {
	plan := Build("/data", snapshot())

	var sources []string
	for _, m := range plan.Movements {
		sources = append(sources, m.Source)
	}
	// deepest first; opaque contents and placed items omitted
	assert.Equal(t, []string{
		"/data/projects/readme.txt",
		"/data/doc123.txt",
		"/data/file1.txt",
		"/data/logs",
		"/data/recipe.md",
	}, sources)

	doc := plan.Movements[1]
	assert.Equal(t, "Documents", doc.Cabinet)
	assert.Equal(t, "TextFiles", doc.Shelf)
	assert.Equal(t, "second", doc.Rationale)
	assert.Equal(t, "/data/Documents/TextFiles/report.txt", doc.Destination("/data"))

	logs := plan.Movements[3]
	assert.True(t, logs.IsDir)
	assert.Equal(t, "/data/Documents/Archives/logs", logs.Destination("/data"))
}

func TestBuild_Deterministic(t *testing.T) {
	first := Build("/data", snapshot())
	snap := snapshot()
	// reversed input order
	for i, j := 0, len(snap.Items)-1; i < j; i, j = i+1, j-1 {
		snap.Items[i], snap.Items[j] = snap.Items[j], snap.Items[i]
	}
	assert.Equal(t, first, Build("/data", snap))
}

func TestBuild_EmptySnapshot(t *testing.T) {
	plan := Build("/data", &storage.Snapshot{})
	assert.Empty(t, plan.Cabinets)
	assert.Empty(t, plan.Movements)
	assert.Empty(t, plan.Directories())
}

func TestReservedPaths(t *testing.T) {
	reserved := ReservedPaths("/data",
		[]storage.Cabinet{{ID: 1, Name: "Documents"}},
		[]storage.Shelf{{ID: 10, CabinetID: 1, Name: "Text/Files"}, {ID: 11, CabinetID: 9, Name: "Orphan"}},
	)
	assert.Equal(t, map[string]struct{}{
		"/data/Documents":           {},
		"/data/Documents/TextFiles": {},
	}, reserved)
}

func TestPlan_Relative(t *testing.T) {
	plan := &Plan{Root: "/data"}
	assert.Equal(t, "notes/a.txt", plan.Relative("/data/notes/a.txt"))
	assert.Equal(t, "/elsewhere/b.txt", plan.Relative("/elsewhere/b.txt"))
	assert.Equal(t, "..hidden", plan.Relative("/data/..hidden"))
}
