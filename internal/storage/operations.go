package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tresorier/internal/core"
)

const operationListSQL = `SELECT ao.id, ao.date_value, ao.date_effective, ao.label, ao.category,
	ao.op_method, ao.op_number, ao.amount_debit, ao.amount_credit, ao.project_id,
	ao.checked, ao.fiscal_year_id, ao.account_id, ao.label_bank,
	c.label AS category_label,
	c.account_number AS category_account_number,
	fy.title AS fiscal_year_title,
	acc.label AS account_label
	FROM accounting_operation ao
	LEFT JOIN accounting_operation_category c ON c.id = ao.category
	LEFT JOIN fiscal_year fy ON fy.id = ao.fiscal_year_id
	LEFT JOIN accounting_account acc ON acc.id = ao.account_id`

// ListOperations returns the filtered ledger, newest operation id first,
// each row carrying the labels of its referenced entities and the derived
// signed amount. The running accumulation is filled by the caller.
func (r *Repository) ListOperations(ctx context.Context, filter core.OperationFilter) ([]core.OperationRow, error) {
	where, args := operationWhere(filter)
	query := operationListSQL + where + " ORDER BY ao.id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list operations: %w", err)
	}
	defer rows.Close()

	var list []core.OperationRow
	for rows.Next() {
		var (
			row                                    core.OperationRow
			dateValue, dateEffective               sql.NullString
			category, projectID, accountID         sql.NullInt64
			opNumber, labelBank                    sql.NullString
			catLabel, catNumber, fyTitle, accLabel sql.NullString
		)
		if err := rows.Scan(&row.Operation.ID, &dateValue, &dateEffective, &row.Label, &category,
			&row.OpMethod, &opNumber, &row.AmountDebit, &row.AmountCredit, &projectID,
			&row.Checked, &row.FiscalYearID, &accountID, &labelBank,
			&catLabel, &catNumber, &fyTitle, &accLabel); err != nil {
			return nil, fmt.Errorf("scan operation: %w", err)
		}
		if row.DateValue, err = dateFromDB(dateValue); err != nil {
			return nil, err
		}
		if row.DateEffective, err = dateFromDB(dateEffective); err != nil {
			return nil, err
		}
		row.CategoryID = int64PtrFromDB(category)
		row.ProjectID = int64PtrFromDB(projectID)
		row.AccountID = int64PtrFromDB(accountID)
		row.OpNumber = stringFromDB(opNumber)
		row.LabelBank = stringFromDB(labelBank)
		row.CategoryLabel = stringFromDB(catLabel)
		row.CategoryAccountNumber = stringFromDB(catNumber)
		row.FiscalYearTitle = stringFromDB(fyTitle)
		row.AccountLabel = stringFromDB(accLabel)
		row.Amount = row.Operation.Amount()
		list = append(list, row)
	}
	return list, rows.Err()
}

func (r *Repository) GetOperation(ctx context.Context, id int64) (*core.Operation, error) {
	var (
		op                             core.Operation
		dateValue, dateEffective       sql.NullString
		category, projectID, accountID sql.NullInt64
		opNumber, labelBank            sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, date_value, date_effective, label, category, op_method, op_number,
		amount_debit, amount_credit, project_id, checked, fiscal_year_id, account_id, label_bank
		FROM accounting_operation WHERE id = ?`, id).
		Scan(&op.ID, &dateValue, &dateEffective, &op.Label, &category, &op.OpMethod, &opNumber,
			&op.AmountDebit, &op.AmountCredit, &projectID, &op.Checked, &op.FiscalYearID,
			&accountID, &labelBank)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: "accounting operation", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get operation: %w", err)
	}
	if op.DateValue, err = dateFromDB(dateValue); err != nil {
		return nil, err
	}
	if op.DateEffective, err = dateFromDB(dateEffective); err != nil {
		return nil, err
	}
	op.CategoryID = int64PtrFromDB(category)
	op.ProjectID = int64PtrFromDB(projectID)
	op.AccountID = int64PtrFromDB(accountID)
	op.OpNumber = stringFromDB(opNumber)
	op.LabelBank = stringFromDB(labelBank)
	return &op, nil
}

func (r *Repository) SaveOperation(ctx context.Context, op *core.Operation) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if op.ID != 0 {
			res, err := tx.ExecContext(ctx,
				`UPDATE accounting_operation
				SET date_value = ?, label = ?, category = ?, op_method = ?, op_number = ?,
				amount_debit = ?, amount_credit = ?, date_effective = ?, project_id = ?,
				checked = ?, fiscal_year_id = ?, account_id = ?, label_bank = ?
				WHERE id = ?`,
				dateArg(op.DateValue), op.Label, op.CategoryID, op.OpMethod, op.OpNumber,
				op.AmountDebit, op.AmountCredit, dateArg(op.DateEffective), op.ProjectID,
				op.Checked, op.FiscalYearID, op.AccountID, op.LabelBank, op.ID)
			if err != nil {
				return fmt.Errorf("update operation: %w", err)
			}
			return notFound(res, "accounting operation", op.ID)
		}

		res, err := tx.ExecContext(ctx,
			`INSERT INTO accounting_operation
			(date_value, label, category, op_method, op_number, amount_debit, amount_credit,
			date_effective, project_id, checked, fiscal_year_id, account_id, label_bank)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			dateArg(op.DateValue), op.Label, op.CategoryID, op.OpMethod, op.OpNumber,
			op.AmountDebit, op.AmountCredit, dateArg(op.DateEffective), op.ProjectID,
			op.Checked, op.FiscalYearID, op.AccountID, op.LabelBank)
		if err != nil {
			return fmt.Errorf("insert operation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("operation insert id: %w", err)
		}
		op.ID = id
		return nil
	})
}

func (r *Repository) DeleteOperation(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM accounting_operation WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete operation: %w", err)
		}
		return notFound(res, "accounting operation", id)
	})
}
