package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_pipeline.go -package=mocks fs-organizer/internal/service Pipeline
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_organize_service.go -package=mocks fs-organizer/internal/service OrganizeService

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"fs-organizer/internal/contextutil"
	"fs-organizer/internal/executor"
	"fs-organizer/internal/oracle"
	"fs-organizer/internal/organizer"
	"fs-organizer/internal/planner"
	"fs-organizer/internal/storage"
)

// MaxDepth caps the scan depth accepted from callers.
const MaxDepth = 10

// Pipeline is the organize pipeline as seen by the service layer.
type Pipeline interface {
	Run(ctx context.Context, root string, depth int) (*organizer.RunSummary, error)
	Plan(ctx context.Context, root string) (*planner.Plan, error)
	Apply(ctx context.Context, root string, dryRun bool) (*planner.Plan, *executor.Report, error)
}

// OrganizeRequest asks for one organize pass over Root.
type OrganizeRequest struct {
	Root  string
	Depth int
	Apply bool
}

// JobState is the lifecycle state of a background organize job.
type JobState string

const (
	JobRunning   JobState = "running"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// Job tracks one background organize pass.
type Job struct {
	ID         string
	Root       string
	Apply      bool
	State      JobState
	StartedAt  time.Time
	FinishedAt time.Time
	Summary    *organizer.RunSummary
	Moved      int
	Error      string
}

// ApplyResult is the plan that was applied and what happened.
type ApplyResult struct {
	Plan   *planner.Plan
	Report *executor.Report
}

// OrganizeService runs and inspects organize passes.
type OrganizeService interface {
	// StartOrganize validates req and runs it in the background.
	StartOrganize(ctx context.Context, req OrganizeRequest) (Job, error)
	// Job returns the current state of a job started by StartOrganize.
	Job(ctx context.Context, id string) (Job, error)
	// Plan returns the current plan for root.
	Plan(ctx context.Context, root string) (*planner.Plan, error)
	// Apply executes the current plan for root.
	Apply(ctx context.Context, root string, dryRun bool) (ApplyResult, error)
}

// organizeService implements OrganizeService.
type organizeService struct {
	pipeline Pipeline

	mu   sync.Mutex
	jobs map[string]*Job
}

// NewOrganizeService creates a new OrganizeService.
func NewOrganizeService(pipeline Pipeline) OrganizeService {
	return &organizeService{
		pipeline: pipeline,
		jobs:     make(map[string]*Job),
	}
}

// StartOrganize validates the request, registers a job and runs it detached
// from ctx so the caller may return immediately.
func (s *organizeService) StartOrganize(ctx context.Context, req OrganizeRequest) (Job, error) {
	logger := contextutil.LoggerFromContext(ctx)

	root, err := validateRoot(req.Root)
	if err != nil {
		logger.WarnContext(ctx, "invalid organize request", "error", err)
		return Job{}, err
	}
	depth := req.Depth
	if depth == 0 {
		depth = 1
	}
	if depth < 0 || depth > MaxDepth {
		return Job{}, &ValidationError{Field: "depth", Message: "must be between 1 and 10"}
	}

	s.mu.Lock()
	for _, job := range s.jobs {
		if job.Root == root && job.State == JobRunning {
			s.mu.Unlock()
			return Job{}, fmt.Errorf("job %s is already organizing %s: %w", job.ID, root, ErrConflict)
		}
	}
	job := &Job{
		ID:        uuid.New().String(),
		Root:      root,
		Apply:     req.Apply,
		State:     JobRunning,
		StartedAt: time.Now().UTC(),
	}
	s.jobs[job.ID] = job
	snapshot := *job
	s.mu.Unlock()

	jobCtx := contextutil.WithLogger(context.WithoutCancel(ctx), logger.With("job_id", job.ID))
	go s.runJob(jobCtx, job.ID, root, depth, req.Apply)

	logger.InfoContext(ctx, "organize job started", "job_id", job.ID, "root", root, "depth", depth)
	return snapshot, nil
}

func (s *organizeService) runJob(ctx context.Context, id, root string, depth int, apply bool) {
	logger := contextutil.LoggerFromContext(ctx)

	summary, err := s.pipeline.Run(ctx, root, depth)
	moved := 0
	if err == nil && apply {
		var report *executor.Report
		_, report, err = s.pipeline.Apply(ctx, root, false)
		if report != nil {
			moved = len(report.Moved)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	job := s.jobs[id]
	job.Summary = summary
	job.Moved = moved
	job.FinishedAt = time.Now().UTC()
	if err != nil {
		job.State = JobFailed
		job.Error = err.Error()
		logger.ErrorContext(ctx, "organize job failed", "error", err)
		return
	}
	job.State = JobSucceeded
	logger.InfoContext(ctx, "organize job finished", "moved", moved)
}

// Job returns a copy of the job's current state.
func (s *organizeService) Job(ctx context.Context, id string) (Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return Job{}, WrapError(ErrNotFound, "job "+id)
	}
	return *job, nil
}

// Plan returns the current plan for root.
func (s *organizeService) Plan(ctx context.Context, root string) (*planner.Plan, error) {
	root, err := validateRoot(root)
	if err != nil {
		return nil, err
	}
	plan, err := s.pipeline.Plan(ctx, root)
	if err != nil {
		contextutil.LoggerFromContext(ctx).ErrorContext(ctx, "failed to build plan", "root", root, "error", err)
		return nil, mapError(err, "failed to build plan")
	}
	return plan, nil
}

// Apply executes the current plan for root.
func (s *organizeService) Apply(ctx context.Context, root string, dryRun bool) (ApplyResult, error) {
	logger := contextutil.LoggerFromContext(ctx)

	root, err := validateRoot(root)
	if err != nil {
		return ApplyResult{}, err
	}
	plan, report, err := s.pipeline.Apply(ctx, root, dryRun)
	if err != nil {
		logger.ErrorContext(ctx, "failed to apply plan", "root", root, "error", err)
		return ApplyResult{Plan: plan, Report: report}, mapError(err, "failed to apply plan")
	}
	logger.InfoContext(ctx, "plan applied", "root", root, "dry_run", dryRun, "moved", len(report.Moved))
	return ApplyResult{Plan: plan, Report: report}, nil
}

func validateRoot(root string) (string, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", &ValidationError{Field: "root", Message: "cannot be empty"}
	}
	if !filepath.IsAbs(root) {
		return "", &ValidationError{Field: "root", Message: "must be an absolute path"}
	}
	return filepath.Clean(root), nil
}

// mapError classifies pipeline errors into the service sentinels.
func mapError(err error, msg string) error {
	switch {
	case errors.Is(err, organizer.ErrNotOrganized), errors.Is(err, fs.ErrNotExist):
		return wrapKind(ErrNotFound, err, msg)
	case errors.Is(err, storage.ErrLocked):
		return wrapKind(ErrConflict, err, msg)
	case errors.Is(err, organizer.ErrBatchesFailed), errors.Is(err, oracle.ErrContract):
		return wrapKind(ErrExternalService, err, msg)
	default:
		return WrapError(err, msg)
	}
}
