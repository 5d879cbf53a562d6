package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tresorier/internal/core"
)

const fiscalYearListSQL = `SELECT fy.id, fy.title, fy.start_date, fy.end_date, fy.is_current,
	(
		SELECT COUNT(1)
		FROM membership m
		WHERE m.fiscal_year_id = fy.id
	) AS membership_count,
	(
		SELECT IFNULL(SUM(mc.amount), 0)
		FROM membership m
		LEFT JOIN membership_cotisation mc ON mc.membership_id = m.id
		WHERE m.fiscal_year_id = fy.id
	) AS membership_amount,
	(
		SELECT COUNT(1)
		FROM accounting_operation ao
		WHERE ao.fiscal_year_id = fy.id
	) AS operation_count,
	(
		SELECT IFNULL(SUM(ao.amount_credit), 0)
		FROM accounting_operation ao
		JOIN accounting_operation_category c ON c.id = ao.category
		WHERE ao.fiscal_year_id = fy.id AND c.is_internal_move = 0
	) AS income_amount,
	(
		SELECT IFNULL(SUM(ao.amount_debit), 0)
		FROM accounting_operation ao
		JOIN accounting_operation_category c ON c.id = ao.category
		WHERE ao.fiscal_year_id = fy.id AND c.is_internal_move = 0
	) AS outcome_amount
	FROM fiscal_year fy`

// ListFiscalYears returns every fiscal year with its membership and ledger
// aggregates. Income and outcome sums skip internal-move categories.
func (r *Repository) ListFiscalYears(ctx context.Context, order core.YearOrder) ([]core.FiscalYearRow, error) {
	query := fiscalYearListSQL
	switch order {
	case core.YearOrderAsc:
		query += " ORDER BY fy.end_date ASC"
	case core.YearOrderDesc:
		query += " ORDER BY fy.end_date DESC"
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list fiscal years: %w", err)
	}
	defer rows.Close()

	var years []core.FiscalYearRow
	for rows.Next() {
		var (
			row        core.FiscalYearRow
			start, end sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.Title, &start, &end, &row.IsCurrent,
			&row.MembershipCount, &row.MembershipAmount,
			&row.OperationCount, &row.IncomeAmount, &row.OutcomeAmount); err != nil {
			return nil, fmt.Errorf("scan fiscal year: %w", err)
		}
		if row.StartDate, err = dateFromDB(start); err != nil {
			return nil, err
		}
		if row.EndDate, err = dateFromDB(end); err != nil {
			return nil, err
		}
		years = append(years, row)
	}
	return years, rows.Err()
}

func (r *Repository) GetFiscalYear(ctx context.Context, id int64) (*core.FiscalYear, error) {
	var (
		fy         core.FiscalYear
		start, end sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, title, start_date, end_date, is_current FROM fiscal_year WHERE id = ?", id).
		Scan(&fy.ID, &fy.Title, &start, &end, &fy.IsCurrent)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: "fiscal year", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get fiscal year: %w", err)
	}
	if fy.StartDate, err = dateFromDB(start); err != nil {
		return nil, err
	}
	if fy.EndDate, err = dateFromDB(end); err != nil {
		return nil, err
	}
	return &fy, nil
}

// SaveFiscalYear inserts when the id is zero, updates otherwise. Saving a
// year with is_current set does not clear the flag on other years.
func (r *Repository) SaveFiscalYear(ctx context.Context, fy *core.FiscalYear) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if fy.ID != 0 {
			res, err := tx.ExecContext(ctx,
				"UPDATE fiscal_year SET title = ?, start_date = ?, end_date = ?, is_current = ? WHERE id = ?",
				fy.Title, dateArg(fy.StartDate), dateArg(fy.EndDate), fy.IsCurrent, fy.ID)
			if err != nil {
				return fmt.Errorf("update fiscal year: %w", err)
			}
			return notFound(res, "fiscal year", fy.ID)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO fiscal_year (title, start_date, end_date, is_current) VALUES (?, ?, ?, ?)",
			fy.Title, dateArg(fy.StartDate), dateArg(fy.EndDate), fy.IsCurrent)
		if err != nil {
			return fmt.Errorf("insert fiscal year: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("fiscal year insert id: %w", err)
		}
		fy.ID = id
		return nil
	})
}

// DeleteFiscalYear refuses to delete a year that still owns cotisations,
// memberships or operations.
func (r *Repository) DeleteFiscalYear(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		dependents := []struct {
			query    string
			relation string
		}{
			{"SELECT COUNT(*) FROM cotisation WHERE fiscal_year_id = ?", "cotisation"},
			{"SELECT COUNT(*) FROM membership WHERE fiscal_year_id = ?", "membership"},
			{"SELECT COUNT(*) FROM accounting_operation WHERE fiscal_year_id = ?", "accounting_operation"},
		}
		for _, dep := range dependents {
			var count int64
			if err := tx.QueryRowContext(ctx, dep.query, id).Scan(&count); err != nil {
				return fmt.Errorf("count %s dependents: %w", dep.relation, err)
			}
			if count > 0 {
				return &core.ReferencedError{Entity: "fiscal year", Relation: dep.relation}
			}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM fiscal_year WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete fiscal year: %w", err)
		}
		return notFound(res, "fiscal year", id)
	})
}
