package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tresorier/internal/core"
)

const categoryListSQL = `SELECT c.id, c.label, c.account_number, c.account_name, c.account_type, c.is_internal_move,
	(
		SELECT COUNT(1)
		FROM accounting_operation ao
		WHERE ao.category = c.id
	) AS operation_count
	FROM accounting_operation_category c
	ORDER BY c.label ASC`

func (r *Repository) ListCategories(ctx context.Context) ([]core.CategoryRow, error) {
	rows, err := r.db.QueryContext(ctx, categoryListSQL)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []core.CategoryRow
	for rows.Next() {
		var (
			row            core.CategoryRow
			number, name   sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.Label, &number, &name,
			&row.AccountType, &row.IsInternalMove, &row.OperationCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		row.AccountNumber = stringFromDB(number)
		row.AccountName = stringFromDB(name)
		categories = append(categories, row)
	}
	return categories, rows.Err()
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (*core.OperationCategory, error) {
	var (
		c            core.OperationCategory
		number, name sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, label, account_number, account_name, account_type, is_internal_move FROM accounting_operation_category WHERE id = ?", id).
		Scan(&c.ID, &c.Label, &number, &name, &c.AccountType, &c.IsInternalMove)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: "operation category", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	c.AccountNumber = stringFromDB(number)
	c.AccountName = stringFromDB(name)
	return &c, nil
}

func (r *Repository) SaveCategory(ctx context.Context, c *core.OperationCategory) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if c.ID != 0 {
			res, err := tx.ExecContext(ctx,
				"UPDATE accounting_operation_category SET label = ?, account_number = ?, account_name = ?, account_type = ?, is_internal_move = ? WHERE id = ?",
				c.Label, c.AccountNumber, c.AccountName, c.AccountType, c.IsInternalMove, c.ID)
			if err != nil {
				return fmt.Errorf("update category: %w", err)
			}
			return notFound(res, "operation category", c.ID)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO accounting_operation_category (label, account_number, account_name, account_type, is_internal_move) VALUES (?, ?, ?, ?, ?)",
			c.Label, c.AccountNumber, c.AccountName, c.AccountType, c.IsInternalMove)
		if err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("category insert id: %w", err)
		}
		c.ID = id
		return nil
	})
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM accounting_operation WHERE category = ?", id).Scan(&count); err != nil {
			return fmt.Errorf("count category dependents: %w", err)
		}
		if count > 0 {
			return &core.ReferencedError{Entity: "operation category", Relation: "accounting_operation"}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM accounting_operation_category WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete category: %w", err)
		}
		return notFound(res, "operation category", id)
	})
}
