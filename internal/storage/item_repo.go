package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const itemColumns = `id, shelf_id, path, original_name, suggested_name, description,
	file_type, is_opaque_dir, processed_at, placed_path`

// ItemRepo provides methods for item operations.
type ItemRepo struct {
	db querier
}

// Insert stores a newly classified item and returns its ID.
// Returns ErrAlreadyExists if the path was already recorded and
// ErrInvalidReference if the shelf does not exist.
func (r *ItemRepo) Insert(ctx context.Context, item *Item) (int64, error) {
	processedAt := item.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO items (shelf_id, path, original_name, suggested_name, description,
			file_type, is_opaque_dir, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ShelfID, item.Path, item.OriginalName, nullableString(item.SuggestedName),
		item.Description, item.FileType, item.IsOpaqueDir, formatTime(processedAt),
	)
	if err != nil {
		return 0, classify(fmt.Sprintf("insert item %s", item.Path), err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert item %s: last insert id: %w", item.Path, err)
	}
	item.ID = id
	item.ProcessedAt = processedAt
	return id, nil
}

// GetByPath gets an item by its recorded path. Returns ErrNotFound if absent.
func (r *ItemRepo) GetByPath(ctx context.Context, path string) (*Item, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+itemColumns+" FROM items WHERE path = ?", path)
	item, err := scanItem(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("get item %s", path), err)
	}
	return item, nil
}

// ListAll returns every item ordered by shelf then original name.
func (r *ItemRepo) ListAll(ctx context.Context) ([]Item, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+itemColumns+" FROM items ORDER BY shelf_id, original_name, path")
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("list items: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// ProcessedPaths returns every path ever recorded, including the
// destinations of items that were already placed.
func (r *ItemRepo) ProcessedPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT path, placed_path FROM items")
	if err != nil {
		return nil, fmt.Errorf("list processed paths: %w", err)
	}
	defer rows.Close()

	paths := make(map[string]struct{})
	for rows.Next() {
		var path string
		var placed sql.NullString
		if err := rows.Scan(&path, &placed); err != nil {
			return nil, fmt.Errorf("list processed paths: %w", err)
		}
		paths[path] = struct{}{}
		if placed.Valid && placed.String != "" {
			paths[placed.String] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list processed paths: %w", err)
	}
	return paths, nil
}

// CountByShelf returns the number of items on each shelf.
func (r *ItemRepo) CountByShelf(ctx context.Context) (map[int64]int, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT shelf_id, COUNT(*) FROM items GROUP BY shelf_id")
	if err != nil {
		return nil, fmt.Errorf("count items: %w", err)
	}
	defer rows.Close()

	counts := make(map[int64]int)
	for rows.Next() {
		var shelfID int64
		var count int
		if err := rows.Scan(&shelfID, &count); err != nil {
			return nil, fmt.Errorf("count items: %w", err)
		}
		counts[shelfID] = count
	}
	return counts, rows.Err()
}

// UpdateShelf re-shelves an item. The path is never changed.
func (r *ItemRepo) UpdateShelf(ctx context.Context, id, shelfID int64) error {
	result, err := r.db.ExecContext(ctx, "UPDATE items SET shelf_id = ? WHERE id = ?", shelfID, id)
	if err != nil {
		return classify(fmt.Sprintf("re-shelve item %d", id), err)
	}
	return requireAffected(result, fmt.Sprintf("re-shelve item %d", id))
}

// MarkPlaced records where an item ended up after a confirmed move.
func (r *ItemRepo) MarkPlaced(ctx context.Context, id int64, dest string) error {
	result, err := r.db.ExecContext(ctx, "UPDATE items SET placed_path = ? WHERE id = ?", dest, id)
	if err != nil {
		return classify(fmt.Sprintf("mark item %d placed", id), err)
	}
	return requireAffected(result, fmt.Sprintf("mark item %d placed", id))
}

func scanItem(row rowScanner) (*Item, error) {
	var item Item
	var suggested, placed sql.NullString
	var processedAt string
	if err := row.Scan(
		&item.ID, &item.ShelfID, &item.Path, &item.OriginalName, &suggested,
		&item.Description, &item.FileType, &item.IsOpaqueDir, &processedAt, &placed,
	); err != nil {
		return nil, err
	}
	item.SuggestedName = suggested.String
	item.PlacedPath = placed.String

	var err error
	if item.ProcessedAt, err = parseTime(processedAt); err != nil {
		return nil, err
	}
	return &item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
