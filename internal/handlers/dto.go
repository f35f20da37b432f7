package handlers

import (
	"time"

	"fs-organizer/internal/executor"
	"fs-organizer/internal/planner"
	"fs-organizer/internal/service"
)

// ShelfDTO is one shelf in the category tree.
type ShelfDTO struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ItemCount   int    `json:"item_count"`
}

// CabinetDTO is one cabinet in the category tree.
type CabinetDTO struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Shelves     []ShelfDTO `json:"shelves"`
}

// MovementDTO is one pending move.
type MovementDTO struct {
	ItemID      int64  `json:"item_id"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Cabinet     string `json:"cabinet"`
	Shelf       string `json:"shelf"`
	NewName     string `json:"new_name,omitempty"`
	Rationale   string `json:"rationale"`
}

// CatalogResponse is the category tree of a root.
type CatalogResponse struct {
	Root     string       `json:"root"`
	Cabinets []CabinetDTO `json:"cabinets"`
	Items    int          `json:"items"`
}

// PlanResponse is the category tree plus pending movements.
type PlanResponse struct {
	CatalogResponse
	Movements []MovementDTO `json:"movements"`
}

// PlacementDTO is one completed move.
type PlacementDTO struct {
	ItemID      int64  `json:"item_id"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// ApplyResponse reports an apply call.
type ApplyResponse struct {
	DryRun      bool           `json:"dry_run"`
	DirsCreated int            `json:"dirs_created"`
	Moved       []PlacementDTO `json:"moved"`
	Skipped     int            `json:"skipped"`
	Errors      []string       `json:"errors,omitempty"`
}

// JobResponse is the state of a background organize job.
type JobResponse struct {
	ID            string     `json:"id"`
	Root          string     `json:"root"`
	State         string     `json:"state"`
	Apply         bool       `json:"apply"`
	StartedAt     time.Time  `json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
	RunID         string     `json:"run_id,omitempty"`
	Scanned       int        `json:"scanned"`
	Classified    int        `json:"classified"`
	FailedBatches int        `json:"failed_batches"`
	Moved         int        `json:"moved"`
	Error         string     `json:"error,omitempty"`
}

func catalogFromPlan(plan *planner.Plan) CatalogResponse {
	resp := CatalogResponse{
		Root:     plan.Root,
		Cabinets: make([]CabinetDTO, 0, len(plan.Cabinets)),
		Items:    plan.ItemCount(),
	}
	for _, c := range plan.Cabinets {
		cabinet := CabinetDTO{ID: c.ID, Name: c.Name, Description: c.Description, Shelves: make([]ShelfDTO, 0, len(c.Shelves))}
		for _, s := range c.Shelves {
			cabinet.Shelves = append(cabinet.Shelves, ShelfDTO{ID: s.ID, Name: s.Name, Description: s.Description, ItemCount: s.ItemCount})
		}
		resp.Cabinets = append(resp.Cabinets, cabinet)
	}
	return resp
}

func planFromPlan(plan *planner.Plan) PlanResponse {
	resp := PlanResponse{
		CatalogResponse: catalogFromPlan(plan),
		Movements:       make([]MovementDTO, 0, len(plan.Movements)),
	}
	for _, m := range plan.Movements {
		resp.Movements = append(resp.Movements, MovementDTO{
			ItemID:      m.ItemID,
			Source:      m.Source,
			Destination: m.Destination(plan.Root),
			Cabinet:     m.Cabinet,
			Shelf:       m.Shelf,
			NewName:     m.NewName,
			Rationale:   m.Rationale,
		})
	}
	return resp
}

func applyFromReport(report *executor.Report, dryRun bool) ApplyResponse {
	resp := ApplyResponse{DryRun: dryRun, Moved: make([]PlacementDTO, 0)}
	if report == nil {
		return resp
	}
	resp.DirsCreated = report.DirsCreated
	resp.Skipped = report.Skipped
	for _, p := range report.Moved {
		resp.Moved = append(resp.Moved, PlacementDTO{ItemID: p.ItemID, Source: p.Source, Destination: p.Destination})
	}
	for _, err := range report.Errors {
		resp.Errors = append(resp.Errors, err.Error())
	}
	return resp
}

func jobFromService(job service.Job) JobResponse {
	resp := JobResponse{
		ID:        job.ID,
		Root:      job.Root,
		State:     string(job.State),
		Apply:     job.Apply,
		StartedAt: job.StartedAt,
		Moved:     job.Moved,
		Error:     job.Error,
	}
	if !job.FinishedAt.IsZero() {
		finished := job.FinishedAt
		resp.FinishedAt = &finished
	}
	if job.Summary != nil {
		resp.RunID = job.Summary.RunID
		resp.Scanned = job.Summary.Scanned
		resp.Classified = job.Summary.Classified
		resp.FailedBatches = job.Summary.FailedBatches
	}
	return resp
}
