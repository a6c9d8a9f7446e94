package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/service"
	"github.com/Veraticus/feeledger/internal/sheets"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore implements service.ValueStore on a local SQLite file that holds
// the same worksheet grid as the spreadsheet.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

var _ service.ValueStore = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := validateString(dbPath, "dbPath"); err != nil {
		return nil, err
	}

	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps :memory: databases alive and serializes writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// EnsureSheets creates any worksheet in titles that does not exist yet.
func (s *SQLiteStore) EnsureSheets(ctx context.Context, titles ...string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	for _, title := range titles {
		if err := validateString(title, "title"); err != nil {
			return err
		}
		if _, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO worksheets (title) VALUES (?)`, title); err != nil {
			return fmt.Errorf("failed to create worksheet %s: %w", title, err)
		}
	}
	return nil
}

// SheetTitles implements service.ValueStore.
func (s *SQLiteStore) SheetTitles(ctx context.Context) ([]string, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT title FROM worksheets ORDER BY created_at, title`)
	if err != nil {
		return nil, fmt.Errorf("%w: listing worksheets: %w", common.ErrStoreRead, err)
	}
	defer func() { _ = rows.Close() }()

	var titles []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("%w: scanning worksheet: %w", common.ErrStoreRead, err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

// GetRange implements service.ValueStore.
func (s *SQLiteStore) GetRange(ctx context.Context, rng string) ([][]any, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	r, err := sheets.ParseRange(rng)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreRead, err)
	}

	exists, err := s.sheetExists(ctx, s.db, r.Sheet)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("%w: %w: %s", common.ErrStoreRead, common.ErrMissingSheet, r.Sheet)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT row_num, col_num, value FROM cells
		WHERE sheet = ?
		  AND row_num >= ? AND (? = 0 OR row_num <= ?)
		  AND col_num BETWEEN ? AND ?
		  AND value <> ''`,
		r.Sheet, r.StartRow, r.EndRow, r.EndRow, r.StartCol, r.EndCol)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", common.ErrStoreRead, rng, err)
	}
	defer func() { _ = rows.Close() }()

	var cells []sheets.Cell
	for rows.Next() {
		var c sheets.Cell
		if err := rows.Scan(&c.Row, &c.Col, &c.Value); err != nil {
			return nil, fmt.Errorf("%w: scanning cell: %w", common.ErrStoreRead, err)
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", common.ErrStoreRead, rng, err)
	}

	return sheets.AssembleRows(r, cells), nil
}

// BatchUpdate implements service.ValueStore inside one transaction.
func (s *SQLiteStore) BatchUpdate(ctx context.Context, updates []service.ValueUpdate) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", common.ErrStoreWrite, err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cells (sheet, row_num, col_num, value, updated_at) VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (sheet, row_num, col_num)
		DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`)
	if err != nil {
		return fmt.Errorf("%w: failed to prepare statement: %w", common.ErrStoreWrite, err)
	}
	defer func() { _ = stmt.Close() }()

	for _, u := range updates {
		sheet, cells, err := sheets.ExpandUpdate(u)
		if err != nil {
			return fmt.Errorf("%w: %w", common.ErrStoreWrite, err)
		}

		exists, err := s.sheetExists(ctx, tx, sheet)
		if err != nil {
			return err
		}
		if !exists {
			return fmt.Errorf("%w: %w: %s", common.ErrStoreWrite, common.ErrMissingSheet, sheet)
		}

		for _, c := range cells {
			if _, err := stmt.ExecContext(ctx, sheet, c.Row, c.Col, c.Value); err != nil {
				return fmt.Errorf("%w: writing %s: %w", common.ErrStoreWrite, u.Range, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit: %w", common.ErrStoreWrite, err)
	}
	return nil
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) sheetExists(ctx context.Context, q querier, title string) (bool, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM worksheets WHERE title = ?`, title).Scan(&n); err != nil {
		return false, fmt.Errorf("%w: looking up worksheet %s: %w", common.ErrStoreRead, title, err)
	}
	return n > 0, nil
}
