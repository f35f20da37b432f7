package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
)

// querier is the subset of *sql.DB and *sql.Tx the repos need.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is the durable repository for one organized root.
// It exclusively owns all persistence; other components go through its repos.
type Store struct {
	db   *sql.DB
	root string

	Cabinets *CabinetRepo
	Shelves  *ShelfRepo
	Items    *ItemRepo
	Runs     *RunRepo
}

// Open opens (or creates) the state database under root and applies migrations.
func Open(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}

	db, err := New(StatePath(abs))
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state database: %w", err)
	}

	return newStore(db, abs), nil
}

func newStore(db *sql.DB, root string) *Store {
	s := &Store{db: db, root: root}
	s.bind(db)
	return s
}

func (s *Store) bind(q querier) {
	s.Cabinets = &CabinetRepo{db: q}
	s.Shelves = &ShelfRepo{db: q}
	s.Items = &ItemRepo{db: q}
	s.Runs = &RunRepo{db: q}
}

// Root returns the absolute root this store belongs to.
func (s *Store) Root() string {
	return s.root
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// WithTx runs fn against repos bound to a single transaction. The transaction
// commits when fn returns nil and rolls back otherwise.
// fn must only use the Store it is handed; the outer Store shares the same
// single connection and would block until the transaction ends.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	txStore := &Store{root: s.root}
	txStore.bind(sqlTx)

	if err := fn(txStore); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Catalog returns every cabinet and shelf, the context handed to the oracle.
func (s *Store) Catalog(ctx context.Context) ([]Cabinet, []Shelf, error) {
	cabinets, err := s.Cabinets.List(ctx)
	if err != nil {
		return nil, nil, err
	}
	shelves, err := s.Shelves.List(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	return cabinets, shelves, nil
}

// Snapshot is a consistent read of the catalog plus all items.
type Snapshot struct {
	Cabinets []Cabinet
	Shelves  []Shelf
	Items    []Item
}

// Snapshot reads cabinets, shelves, and items inside one read transaction.
func (s *Store) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	err := s.WithTx(ctx, func(tx *Store) error {
		var err error
		if snap.Cabinets, snap.Shelves, err = tx.Catalog(ctx); err != nil {
			return err
		}
		snap.Items, err = tx.Items.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
