package storage

import "time"

// Cabinet is a top-level category. Names are globally unique.
type Cabinet struct {
	ID          int64
	Name        string
	Description string
	CreatedAt   time.Time
}

// Shelf is a second-level category nested under exactly one cabinet.
// Names are unique within their cabinet.
type Shelf struct {
	ID          int64
	CabinetID   int64 // Foreign key to cabinets.id
	Name        string
	Description string
	CreatedAt   time.Time
}

// Item is the persisted record of one classified file or directory.
// Its presence marks Path as processed.
type Item struct {
	ID            int64
	ShelfID       int64  // Foreign key to shelves.id
	Path          string // Absolute, cleaned path at scan time
	OriginalName  string
	SuggestedName string // Empty when the current name is fine
	Description   string
	FileType      string
	IsOpaqueDir   bool
	ProcessedAt   time.Time
	PlacedPath    string // Destination after a confirmed move, empty until then
}

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run records one organize pass over a root.
type Run struct {
	ID            string // UUID
	Root          string
	Status        RunStatus
	StartedAt     time.Time
	FinishedAt    time.Time
	Scanned       int
	Enriched      int
	Classified    int
	FailedBatches int
	Error         string
}

// RunCounts carries the counters written when a run finishes.
type RunCounts struct {
	Scanned       int
	Enriched      int
	Classified    int
	FailedBatches int
}
