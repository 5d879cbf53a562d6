package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tresorier/internal/core"
)

const accountListSQL = `SELECT a.id, a.label, a.type,
	(
		SELECT COUNT(1)
		FROM accounting_operation ao
		WHERE ao.account_id = a.id
	) AS operation_count,
	(
		SELECT IFNULL(SUM(ao.amount_credit), 0)
		FROM accounting_operation ao
		WHERE ao.account_id = a.id AND ao.date_effective IS NOT NULL
	) AS income_amount,
	(
		SELECT IFNULL(SUM(ao.amount_debit), 0)
		FROM accounting_operation ao
		WHERE ao.account_id = a.id AND ao.date_effective IS NOT NULL
	) AS outcome_amount
	FROM accounting_account a
	ORDER BY a.type DESC, a.label ASC`

// ListAccounts returns every account with its operation count and the
// settled income/outcome sums (operations with an effective date).
func (r *Repository) ListAccounts(ctx context.Context) ([]core.AccountRow, error) {
	rows, err := r.db.QueryContext(ctx, accountListSQL)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []core.AccountRow
	for rows.Next() {
		var row core.AccountRow
		if err := rows.Scan(&row.ID, &row.Label, &row.Type,
			&row.OperationCount, &row.IncomeAmount, &row.OutcomeAmount); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, row)
	}
	return accounts, rows.Err()
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (*core.Account, error) {
	var a core.Account
	err := r.db.QueryRowContext(ctx,
		"SELECT id, label, type FROM accounting_account WHERE id = ?", id).
		Scan(&a.ID, &a.Label, &a.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: "accounting account", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return &a, nil
}

func (r *Repository) SaveAccount(ctx context.Context, a *core.Account) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if a.ID != 0 {
			res, err := tx.ExecContext(ctx,
				"UPDATE accounting_account SET label = ?, type = ? WHERE id = ?",
				a.Label, a.Type, a.ID)
			if err != nil {
				return fmt.Errorf("update account: %w", err)
			}
			return notFound(res, "accounting account", a.ID)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO accounting_account (label, type) VALUES (?, ?)", a.Label, a.Type)
		if err != nil {
			return fmt.Errorf("insert account: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("account insert id: %w", err)
		}
		a.ID = id
		return nil
	})
}

func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM accounting_operation WHERE account_id = ?", id).Scan(&count); err != nil {
			return fmt.Errorf("count account dependents: %w", err)
		}
		if count > 0 {
			return &core.ReferencedError{Entity: "accounting account", Relation: "accounting_operation"}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM accounting_account WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete account: %w", err)
		}
		return notFound(res, "accounting account", id)
	})
}
