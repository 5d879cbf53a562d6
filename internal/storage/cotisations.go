package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tresorier/internal/core"
)

const cotisationListSQL = `SELECT c.id, c.label, c.amount, c.start_date, c.end_date, c.fiscal_year_id, c.type,
	(
		SELECT COUNT(DISTINCT mc.membership_id)
		FROM membership_cotisation mc
		WHERE mc.cotisation_id = c.id
	) AS members_count,
	(
		SELECT IFNULL(SUM(mc.amount), 0)
		FROM membership_cotisation mc
		WHERE mc.cotisation_id = c.id
	) AS collected_amount
	FROM cotisation c
	ORDER BY c.start_date DESC, c.end_date DESC, c.label ASC`

// ListCotisations returns every cotisation with the number of distinct
// memberships holding a line for it and the total amount collected.
func (r *Repository) ListCotisations(ctx context.Context) ([]core.CotisationRow, error) {
	rows, err := r.db.QueryContext(ctx, cotisationListSQL)
	if err != nil {
		return nil, fmt.Errorf("list cotisations: %w", err)
	}
	defer rows.Close()

	var cotisations []core.CotisationRow
	for rows.Next() {
		var (
			row        core.CotisationRow
			start, end sql.NullString
		)
		if err := rows.Scan(&row.ID, &row.Label, &row.Amount, &start, &end,
			&row.FiscalYearID, &row.Type, &row.MembersCount, &row.CollectedAmount); err != nil {
			return nil, fmt.Errorf("scan cotisation: %w", err)
		}
		if row.StartDate, err = dateFromDB(start); err != nil {
			return nil, err
		}
		if row.EndDate, err = dateFromDB(end); err != nil {
			return nil, err
		}
		cotisations = append(cotisations, row)
	}
	return cotisations, rows.Err()
}

func (r *Repository) GetCotisation(ctx context.Context, id int64) (*core.Cotisation, error) {
	var (
		c          core.Cotisation
		start, end sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, label, amount, start_date, end_date, fiscal_year_id, type FROM cotisation WHERE id = ?", id).
		Scan(&c.ID, &c.Label, &c.Amount, &start, &end, &c.FiscalYearID, &c.Type)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &core.NotFoundError{Entity: "cotisation", ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("get cotisation: %w", err)
	}
	if c.StartDate, err = dateFromDB(start); err != nil {
		return nil, err
	}
	if c.EndDate, err = dateFromDB(end); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *Repository) SaveCotisation(ctx context.Context, c *core.Cotisation) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		if c.ID != 0 {
			res, err := tx.ExecContext(ctx,
				"UPDATE cotisation SET label = ?, amount = ?, start_date = ?, end_date = ?, fiscal_year_id = ?, type = ? WHERE id = ?",
				c.Label, c.Amount, dateArg(c.StartDate), dateArg(c.EndDate), c.FiscalYearID, c.Type, c.ID)
			if err != nil {
				return fmt.Errorf("update cotisation: %w", err)
			}
			return notFound(res, "cotisation", c.ID)
		}

		res, err := tx.ExecContext(ctx,
			"INSERT INTO cotisation (label, amount, start_date, end_date, fiscal_year_id, type) VALUES (?, ?, ?, ?, ?, ?)",
			c.Label, c.Amount, dateArg(c.StartDate), dateArg(c.EndDate), c.FiscalYearID, c.Type)
		if err != nil {
			return fmt.Errorf("insert cotisation: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("cotisation insert id: %w", err)
		}
		c.ID = id
		return nil
	})
}

func (r *Repository) DeleteCotisation(ctx context.Context, id int64) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		var count int64
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM membership_cotisation WHERE cotisation_id = ?", id).Scan(&count); err != nil {
			return fmt.Errorf("count cotisation dependents: %w", err)
		}
		if count > 0 {
			return &core.ReferencedError{Entity: "cotisation", Relation: "membership_cotisation"}
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM cotisation WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("delete cotisation: %w", err)
		}
		return notFound(res, "cotisation", id)
	})
}
