package storage

import (
	"context"
	"fmt"
	"time"
)

// CabinetRepo provides methods for cabinet operations.
type CabinetRepo struct {
	db querier
}

// Create inserts a new cabinet and returns its ID.
// Returns ErrAlreadyExists if a cabinet with the same name exists.
func (r *CabinetRepo) Create(ctx context.Context, name, description string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO cabinets (name, description, created_at) VALUES (?, ?, ?)",
		name, description, formatTime(time.Now()),
	)
	if err != nil {
		return 0, classify(fmt.Sprintf("create cabinet %q", name), err)
	}
	return result.LastInsertId()
}

// GetByID gets a cabinet by ID. Returns ErrNotFound if it does not exist.
func (r *CabinetRepo) GetByID(ctx context.Context, id int64) (*Cabinet, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at FROM cabinets WHERE id = ?", id)
	cabinet, err := scanCabinet(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("get cabinet %d", id), err)
	}
	return cabinet, nil
}

// GetByName gets a cabinet by its unique name. Returns ErrNotFound if it does not exist.
func (r *CabinetRepo) GetByName(ctx context.Context, name string) (*Cabinet, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, name, description, created_at FROM cabinets WHERE name = ?", name)
	cabinet, err := scanCabinet(row)
	if err != nil {
		return nil, classify(fmt.Sprintf("get cabinet %q", name), err)
	}
	return cabinet, nil
}

// List returns all cabinets ordered by name.
func (r *CabinetRepo) List(ctx context.Context) ([]Cabinet, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, name, description, created_at FROM cabinets ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("list cabinets: %w", err)
	}
	defer rows.Close()

	var cabinets []Cabinet
	for rows.Next() {
		cabinet, err := scanCabinet(rows)
		if err != nil {
			return nil, fmt.Errorf("list cabinets: %w", err)
		}
		cabinets = append(cabinets, *cabinet)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cabinets: %w", err)
	}
	return cabinets, nil
}

// Update renames or re-describes a cabinet. The new name must still be unique.
func (r *CabinetRepo) Update(ctx context.Context, id int64, name, description string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE cabinets SET name = ?, description = ? WHERE id = ?",
		name, description, id,
	)
	if err != nil {
		return classify(fmt.Sprintf("update cabinet %d", id), err)
	}
	return requireAffected(result, fmt.Sprintf("update cabinet %d", id))
}

// Delete removes an empty cabinet. Returns ErrNotEmpty while shelves reference it.
func (r *CabinetRepo) Delete(ctx context.Context, id int64) error {
	var shelves int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM shelves WHERE cabinet_id = ?", id,
	).Scan(&shelves); err != nil {
		return fmt.Errorf("count shelves of cabinet %d: %w", id, err)
	}
	if shelves > 0 {
		return fmt.Errorf("delete cabinet %d: %w: %d shelves", id, ErrNotEmpty, shelves)
	}

	result, err := r.db.ExecContext(ctx, "DELETE FROM cabinets WHERE id = ?", id)
	if err != nil {
		return classify(fmt.Sprintf("delete cabinet %d", id), err)
	}
	return requireAffected(result, fmt.Sprintf("delete cabinet %d", id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCabinet(row rowScanner) (*Cabinet, error) {
	var cabinet Cabinet
	var createdAt string
	if err := row.Scan(&cabinet.ID, &cabinet.Name, &cabinet.Description, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if cabinet.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &cabinet, nil
}

type rowsAffected interface {
	RowsAffected() (int64, error)
}

func requireAffected(result rowsAffected, op string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}
