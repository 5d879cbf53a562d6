package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"tresorier/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite-backed entity store. All engine writes go
// through its transaction helper; callers receive typed core errors for
// expected rejections and wrapped storage errors otherwise.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Pragmas go on the DSN so every pooled connection gets them.
	dsn := "file:" + dbPath +
		"?_pragma=journal_mode(WAL)" +
		"&_pragma=synchronous(NORMAL)" +
		"&_pragma=foreign_keys(1)" +
		"&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// withTx runs fn inside one transaction: committed when fn returns nil,
// rolled back entirely otherwise. fn's error is returned unchanged so typed
// rejections survive the rollback.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const dateTimeLayout = "2006-01-02 15:04:05"

// dateArg maps an empty date to NULL.
func dateArg(d core.Date) any {
	if d.IsEmpty() {
		return nil
	}
	return d.String()
}

func dateFromDB(s sql.NullString) (core.Date, error) {
	if !s.Valid || s.String == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s.String)
	if err != nil {
		return core.Date{}, fmt.Errorf("parse stored date %q: %w", s.String, err)
	}
	return d, nil
}

func int64PtrFromDB(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func intPtrFromDB(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func stringFromDB(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	return s.String
}

// notFound converts a zero-row update or delete into a typed error.
func notFound(res sql.Result, entity string, id int64) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return &core.NotFoundError{Entity: entity, ID: id}
	}
	return nil
}
