// Package planner derives an organization plan from a store snapshot.
// It performs no I/O; the same snapshot always yields the same plan.
package planner

import (
	"path/filepath"
	"sort"
	"strings"

	"fs-organizer/internal/storage"
)

// ShelfPlan is one shelf in the category tree.
type ShelfPlan struct {
	ID          int64
	Name        string
	Description string
	ItemCount   int
}

// CabinetPlan is one cabinet in the category tree.
type CabinetPlan struct {
	ID          int64
	Name        string
	Description string
	Shelves     []ShelfPlan
}

// Movement relocates one item into its shelf directory.
type Movement struct {
	ItemID    int64
	Source    string
	Cabinet   string
	Shelf     string
	NewName   string // Suggested rename, empty to keep the current name
	Rationale string
	IsDir     bool
}

// TargetName is the base name the item receives at its destination.
func (m Movement) TargetName() string {
	return TargetName(filepath.Base(m.Source), m.NewName, m.IsDir)
}

// Destination returns where the item lands under root, before collision handling.
func (m Movement) Destination(root string) string {
	return filepath.Join(ShelfDir(root, m.Cabinet, m.Shelf), m.TargetName())
}

// Plan is the category tree plus the ordered list of pending movements.
type Plan struct {
	Root      string
	Cabinets  []CabinetPlan
	Movements []Movement
}

// Build derives the plan for root. Cabinets and shelves are sorted by
// name. Movements are ordered deepest source first, then lexically, so
// nested items move before their parents. Items already placed and items
// inside an opaque directory are left out.
func Build(root string, snap *storage.Snapshot) *Plan {
	plan := &Plan{Root: root}
	if snap == nil {
		return plan
	}

	var opaque []string
	for _, item := range snap.Items {
		if item.IsOpaqueDir {
			opaque = append(opaque, item.Path)
		}
	}

	// contents of an opaque directory travel with it and are not counted
	counts := make(map[int64]int)
	for _, item := range snap.Items {
		if insideAny(item.Path, opaque) {
			continue
		}
		counts[item.ShelfID]++
	}

	cabinetsByID := make(map[int64]*CabinetPlan, len(snap.Cabinets))
	cabinets := append([]storage.Cabinet(nil), snap.Cabinets...)
	sort.Slice(cabinets, func(i, j int) bool { return cabinets[i].Name < cabinets[j].Name })
	plan.Cabinets = make([]CabinetPlan, 0, len(cabinets))
	for _, c := range cabinets {
		plan.Cabinets = append(plan.Cabinets, CabinetPlan{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	for i := range plan.Cabinets {
		cabinetsByID[plan.Cabinets[i].ID] = &plan.Cabinets[i]
	}

	type shelfRef struct {
		cabinet string
		shelf   string
	}
	shelvesByID := make(map[int64]shelfRef, len(snap.Shelves))
	for _, s := range snap.Shelves {
		cabinet, ok := cabinetsByID[s.CabinetID]
		if !ok {
			continue
		}
		cabinet.Shelves = append(cabinet.Shelves, ShelfPlan{
			ID:          s.ID,
			Name:        s.Name,
			Description: s.Description,
			ItemCount:   counts[s.ID],
		})
		shelvesByID[s.ID] = shelfRef{cabinet: cabinet.Name, shelf: s.Name}
	}
	for i := range plan.Cabinets {
		shelves := plan.Cabinets[i].Shelves
		sort.Slice(shelves, func(a, b int) bool { return shelves[a].Name < shelves[b].Name })
	}

	for _, item := range snap.Items {
		if item.PlacedPath != "" || insideAny(item.Path, opaque) {
			continue
		}
		ref, ok := shelvesByID[item.ShelfID]
		if !ok {
			continue
		}
		plan.Movements = append(plan.Movements, Movement{
			ItemID:    item.ID,
			Source:    item.Path,
			Cabinet:   ref.cabinet,
			Shelf:     ref.shelf,
			NewName:   item.SuggestedName,
			Rationale: item.Description,
			IsDir:     item.FileType == "directory",
		})
	}
	sort.SliceStable(plan.Movements, func(i, j int) bool {
		di, dj := depth(plan.Movements[i].Source), depth(plan.Movements[j].Source)
		if di != dj {
			return di > dj
		}
		return plan.Movements[i].Source < plan.Movements[j].Source
	})

	return plan
}

// Directories lists every cabinet and shelf directory, parents first.
func (p *Plan) Directories() []string {
	var dirs []string
	for _, c := range p.Cabinets {
		dirs = append(dirs, CabinetDir(p.Root, c.Name))
		for _, s := range c.Shelves {
			dirs = append(dirs, ShelfDir(p.Root, c.Name, s.Name))
		}
	}
	return dirs
}

// ItemCount is the number of items across all shelves.
func (p *Plan) ItemCount() int {
	total := 0
	for _, c := range p.Cabinets {
		for _, s := range c.Shelves {
			total += s.ItemCount
		}
	}
	return total
}

// Relative returns path relative to the plan root, or path itself when it
// lies outside the root.
func (p *Plan) Relative(path string) string {
	rel, err := filepath.Rel(p.Root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// ReservedPaths returns the cabinet and shelf directories under root,
// which the scanner must neither emit nor descend into.
func ReservedPaths(root string, cabinets []storage.Cabinet, shelves []storage.Shelf) map[string]struct{} {
	names := make(map[int64]string, len(cabinets))
	reserved := make(map[string]struct{}, len(cabinets)+len(shelves))
	for _, c := range cabinets {
		names[c.ID] = c.Name
		reserved[CabinetDir(root, c.Name)] = struct{}{}
	}
	for _, s := range shelves {
		if cabinet, ok := names[s.CabinetID]; ok {
			reserved[ShelfDir(root, cabinet, s.Name)] = struct{}{}
		}
	}
	return reserved
}

func insideAny(path string, dirs []string) bool {
	for _, dir := range dirs {
		if path != dir && strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func depth(path string) int {
	return strings.Count(filepath.Clean(path), string(filepath.Separator))
}
