package storage

import (
	"context"
	"fmt"
	"time"
)

// ShelfRepo provides methods for shelf operations.
type ShelfRepo struct {
	db querier
}

// Create inserts a new shelf under cabinetID and returns its ID.
// Returns ErrAlreadyExists if the cabinet already has a shelf with that name,
// and ErrInvalidReference if the cabinet does not exist.
func (r *ShelfRepo) Create(ctx context.Context, cabinetID int64, name, description string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO shelves (cabinet_id, name, description, created_at) VALUES (?, ?, ?, ?)",
		cabinetID, name, description, formatTime(time.Now()),
	)
	if err != nil {
		return 0, classify(fmt.Sprintf("create shelf %q in cabinet %d", name, cabinetID), err)
	}
	return result.LastInsertId()
}

// GetByID gets a shelf by ID. Returns ErrNotFound if it does not exist.
func (r *ShelfRepo) GetByID(ctx context.Context, id int64) (*Shelf, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, cabinet_id, name, description, created_at FROM shelves WHERE id = ?", id)
	shelf, err := scanShelf(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("get shelf %d", id), err)
	}
	return shelf, nil
}

// GetByName gets the shelf called name inside cabinetID.
func (r *ShelfRepo) GetByName(ctx context.Context, cabinetID int64, name string) (*Shelf, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, cabinet_id, name, description, created_at FROM shelves WHERE cabinet_id = ? AND name = ?",
		cabinetID, name)
	shelf, err := scanShelf(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("get shelf %q in cabinet %d", name, cabinetID), err)
	}
	return shelf, nil
}

// List returns shelves ordered by cabinet then name. A non-nil cabinetID
// restricts the result to that cabinet.
func (r *ShelfRepo) List(ctx context.Context, cabinetID *int64) ([]Shelf, error) {
	query := "SELECT id, cabinet_id, name, description, created_at FROM shelves ORDER BY cabinet_id, name"
	var args []any
	if cabinetID != nil {
		query = "SELECT id, cabinet_id, name, description, created_at FROM shelves WHERE cabinet_id = ? ORDER BY name"
		args = append(args, *cabinetID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	defer rows.Close()

	var shelves []Shelf
	for rows.Next() {
		shelf, err := scanShelf(rows)
		if err != nil {
			return nil, fmt.Errorf("list shelves: %w", err)
		}
		shelves = append(shelves, *shelf)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list shelves: %w", err)
	}
	return shelves, nil
}

// Update renames or re-describes a shelf within its cabinet.
func (r *ShelfRepo) Update(ctx context.Context, id int64, name, description string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE shelves SET name = ?, description = ? WHERE id = ?",
		name, description, id,
	)
	if err != nil {
		return classify(fmt.Sprintf("update shelf %d", id), err)
	}
	return requireAffected(result, fmt.Sprintf("update shelf %d", id))
}

// Delete removes an empty shelf. Returns ErrNotEmpty while items reference it.
func (r *ShelfRepo) Delete(ctx context.Context, id int64) error {
	var items int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM items WHERE shelf_id = ?", id,
	).Scan(&items); err != nil {
		return fmt.Errorf("count items of shelf %d: %w", id, err)
	}
	if items > 0 {
		return fmt.Errorf("delete shelf %d: %w: %d items", id, ErrNotEmpty, items)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM shelves WHERE id = ?", id)
	if err != nil {
		return classify(fmt.Sprintf("delete shelf %d", id), err)
	}
	return requireAffected(result, fmt.Sprintf("delete shelf %d", id))
}

func scanShelf(row rowScanner) (*Shelf, error) {
	var shelf Shelf
	var createdAt string
	if err := row.Scan(&shelf.ID, &shelf.CabinetID, &shelf.Name, &shelf.Description, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if shelf.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &shelf, nil
}
