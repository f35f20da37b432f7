// Package classifier batches enriched items, asks the oracle where they
// belong, and commits each batch to the store as a single transaction.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"fs-organizer/internal/contextutil"
	"fs-organizer/internal/enricher"
	"fs-organizer/internal/oracle"
	"fs-organizer/internal/storage"
)

const (
	DefaultBatchSize = 10
	DefaultTimeout   = 60 * time.Second
	directoryType    = "directory"
)

// Classifier turns enriched items into persisted, shelved item rows.
type Classifier struct {
	store     *storage.Store
	oracle    oracle.Oracle
	batchSize int
	timeout   time.Duration
}

// New creates a Classifier. Non-positive batchSize or timeout fall back to the defaults.
func New(store *storage.Store, o oracle.Oracle, batchSize int, timeout time.Duration) *Classifier {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Classifier{
		store:     store,
		oracle:    o,
		batchSize: batchSize,
		timeout:   timeout,
	}
}

// Stats summarizes a Run.
type Stats struct {
	Received      int
	Classified    int
	Batches       int
	FailedBatches int
}

// Run drains items into batches of the configured size and classifies each
// one. A failed batch is logged and counted; the remaining batches proceed.
// Run returns once items is closed or ctx is done.
func (c *Classifier) Run(ctx context.Context, items <-chan enricher.Item) Stats {
	logger := contextutil.LoggerFromContext(ctx)
	var stats Stats

	flush := func(batch []enricher.Item) {
		stats.Batches++
		index := stats.Batches
		rows, err := c.ClassifyBatch(ctx, batch)
		if err != nil {
			stats.FailedBatches++
			logger.ErrorContext(ctx, "batch failed", "batch", index, "items", len(batch), "error", err)
			return
		}
		stats.Classified += len(rows)
		logger.InfoContext(ctx, "batch committed", "batch", index, "items", len(rows))
	}

	batch := make([]enricher.Item, 0, c.batchSize)
	for {
		select {
		case item, ok := <-items:
			if !ok {
				if len(batch) > 0 {
					flush(batch)
				}
				return stats
			}
			stats.Received++
			batch = append(batch, item)
			if len(batch) == c.batchSize {
				flush(batch)
				batch = make([]enricher.Item, 0, c.batchSize)
			}
		case <-ctx.Done():
			logger.WarnContext(ctx, "classification interrupted", "pending", len(batch), "error", ctx.Err())
			return stats
		}
	}
}

// ClassifyBatch classifies one batch. It reads the catalog fresh, makes a
// single oracle call and commits one item row per input, all or nothing.
func (c *Classifier) ClassifyBatch(ctx context.Context, batch []enricher.Item) ([]storage.Item, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	if len(batch) > c.batchSize {
		return nil, fmt.Errorf("batch of %d exceeds limit %d", len(batch), c.batchSize)
	}

	cabinets, shelves, err := c.store.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	req := BuildRequest(batch, cabinets, shelves)

	resp, err := c.classify(ctx, req)
	if err != nil {
		return nil, err
	}

	var rows []storage.Item
	err = c.store.WithTx(ctx, func(tx *storage.Store) error {
		rows, err = commit(ctx, tx, batch, resp)
		return err
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Classifier) classify(ctx context.Context, req *oracle.Request) (*oracle.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.oracle.Classify(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("oracle: %w", err)
	}
	if err := resp.Validate(req); err != nil {
		return nil, err
	}
	return resp, nil
}

// BuildRequest presents a batch and the current catalog to the oracle.
// Item ids are batch positions.
func BuildRequest(batch []enricher.Item, cabinets []storage.Cabinet, shelves []storage.Shelf) *oracle.Request {
	req := &oracle.Request{
		Items:            make([]oracle.ItemMetadata, 0, len(batch)),
		ExistingCabinets: make([]oracle.CabinetInfo, 0, len(cabinets)),
		ExistingShelves:  make([]oracle.ShelfInfo, 0, len(shelves)),
	}
	for i, item := range batch {
		meta := oracle.ItemMetadata{
			ID:        oracle.PositionalID(i),
			Name:      item.Stem,
			ItemType:  string(item.Type()),
			Extension: item.Extension,
			SizeBytes: item.Size,
		}
		if item.IsDir {
			meta.SampledContents = make([]string, 0, len(item.Samples))
			for _, s := range item.Samples {
				meta.SampledContents = append(meta.SampledContents, s.Name)
			}
		} else {
			meta.ContentPreview = item.Preview
		}
		req.Items = append(req.Items, meta)
	}
	for _, c := range cabinets {
		req.ExistingCabinets = append(req.ExistingCabinets, oracle.CabinetInfo{ID: c.ID, Name: c.Name, Description: c.Description})
	}
	for _, s := range shelves {
		req.ExistingShelves = append(req.ExistingShelves, oracle.ShelfInfo{ID: s.ID, CabinetID: s.CabinetID, Name: s.Name, Description: s.Description})
	}
	return req
}

type shelfKey struct {
	cabinetID int64
	name      string
}

// resolver maps assignments onto row ids inside one batch transaction.
// Its caches live for a single batch.
type resolver struct {
	tx       *storage.Store
	cabinets map[string]int64
	shelves  map[shelfKey]int64
}

func commit(ctx context.Context, tx *storage.Store, batch []enricher.Item, resp *oracle.Response) ([]storage.Item, error) {
	logger := contextutil.LoggerFromContext(ctx)
	r := &resolver{
		tx:       tx,
		cabinets: make(map[string]int64),
		shelves:  make(map[shelfKey]int64),
	}

	rows := make([]storage.Item, 0, len(batch))
	for i, item := range batch {
		analysis := resp.Items[i]
		field := fmt.Sprintf("items[%d]", i)

		cabinetID, err := r.cabinet(ctx, field+".cabinet", analysis.Cabinet)
		if err != nil {
			return nil, err
		}
		shelfID, err := r.shelf(ctx, field+".shelf", cabinetID, analysis.Shelf)
		if err != nil {
			return nil, err
		}

		if item.IsDir && analysis.IsOpaqueDirectory != item.IsOpaqueDir {
			logger.DebugContext(ctx, "oracle disagrees on opaque directory",
				"path", item.Path, "local", item.IsOpaqueDir, "oracle", analysis.IsOpaqueDirectory)
		}

		row := storage.Item{
			ShelfID:       shelfID,
			Path:          item.Path,
			OriginalName:  item.Name,
			SuggestedName: strings.TrimSpace(analysis.SuggestedName),
			Description:   strings.TrimSpace(analysis.Description),
			FileType:      fileType(item),
			IsOpaqueDir:   item.IsOpaqueDir,
		}
		if _, err := tx.Items.Insert(ctx, &row); err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (r *resolver) cabinet(ctx context.Context, field string, a oracle.Assignment) (int64, error) {
	switch v := a.(type) {
	case oracle.Existing:
		cabinet, err := r.tx.Cabinets.GetByID(ctx, v.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return 0, &oracle.ContractError{Field: field, Reason: fmt.Sprintf("cabinet %d does not exist", v.ID)}
		}
		if err != nil {
			return 0, err
		}
		return cabinet.ID, nil
	case oracle.New:
		if id, ok := r.cabinets[v.Name]; ok {
			return id, nil
		}
		id, err := r.findOrCreateCabinet(ctx, v)
		if err != nil {
			return 0, err
		}
		r.cabinets[v.Name] = id
		return id, nil
	default:
		return 0, &oracle.ContractError{Field: field, Reason: "assignment missing"}
	}
}

// findOrCreateCabinet reuses a cabinet the oracle asked to create under a
// name that is already taken.
func (r *resolver) findOrCreateCabinet(ctx context.Context, v oracle.New) (int64, error) {
	existing, err := r.tx.Cabinets.GetByName(ctx, v.Name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}
	return r.tx.Cabinets.Create(ctx, v.Name, v.Description)
}

func (r *resolver) shelf(ctx context.Context, field string, cabinetID int64, a oracle.Assignment) (int64, error) {
	switch v := a.(type) {
	case oracle.Existing:
		shelf, err := r.tx.Shelves.GetByID(ctx, v.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return 0, &oracle.ContractError{Field: field, Reason: fmt.Sprintf("shelf %d does not exist", v.ID)}
		}
		if err != nil {
			return 0, err
		}
		if shelf.CabinetID != cabinetID {
			return 0, &oracle.ContractError{
				Field:  field,
				Reason: fmt.Sprintf("shelf %d belongs to cabinet %d, not %d", v.ID, shelf.CabinetID, cabinetID),
			}
		}
		return shelf.ID, nil
	case oracle.New:
		key := shelfKey{cabinetID: cabinetID, name: v.Name}
		if id, ok := r.shelves[key]; ok {
			return id, nil
		}
		id, err := r.findOrCreateShelf(ctx, cabinetID, v)
		if err != nil {
			return 0, err
		}
		r.shelves[key] = id
		return id, nil
	default:
		return 0, &oracle.ContractError{Field: field, Reason: "assignment missing"}
	}
}

func (r *resolver) findOrCreateShelf(ctx context.Context, cabinetID int64, v oracle.New) (int64, error) {
	existing, err := r.tx.Shelves.GetByName(ctx, cabinetID, v.Name)
	if err == nil {
		return existing.ID, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return 0, err
	}
	return r.tx.Shelves.Create(ctx, cabinetID, v.Name, v.Description)
}

func fileType(item enricher.Item) string {
	if item.IsDir {
		return directoryType
	}
	return item.TypeLabel
}
