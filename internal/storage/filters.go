package storage

import (
	"strings"

	"tresorier/internal/core"
)

// derivedAmountExpr is the SQL form of an operation's single signed amount:
// the credit when present, the debit otherwise.
const derivedAmountExpr = "(CASE WHEN ao.amount_credit IS NOT NULL THEN ao.amount_credit ELSE ao.amount_debit END)"

// operationWhere turns an OperationFilter into a WHERE clause and its bind
// arguments. Omitted filters contribute nothing; an empty filter yields an
// empty clause.
func operationWhere(f core.OperationFilter) (string, []any) {
	var conds []string
	var args []any

	if f.FiscalYearID != nil {
		conds = append(conds, "ao.fiscal_year_id = ?")
		args = append(args, *f.FiscalYearID)
	}
	if f.AccountID != nil {
		conds = append(conds, "ao.account_id = ?")
		args = append(args, *f.AccountID)
	}
	if f.CategoryID != nil {
		conds = append(conds, "ao.category = ?")
		args = append(args, *f.CategoryID)
	}
	if f.Checked != nil {
		conds = append(conds, "ao.checked = ?")
		args = append(args, *f.Checked)
	}
	if f.Year != nil {
		conds = append(conds, "CAST(strftime('%Y', ao.date_value) AS INTEGER) = ?")
		args = append(args, *f.Year)
	}
	if !f.DateStart.IsEmpty() {
		conds = append(conds, "ao.date_value >= ?")
		args = append(args, f.DateStart.String())
	}
	if !f.DateEnd.IsEmpty() {
		conds = append(conds, "ao.date_value <= ?")
		args = append(args, f.DateEnd.String())
	}
	// decimal binds as text; the cast keeps the comparison numeric.
	if f.AmountMin != nil {
		conds = append(conds, derivedAmountExpr+" >= CAST(? AS NUMERIC)")
		args = append(args, *f.AmountMin)
	}
	if f.AmountMax != nil {
		conds = append(conds, derivedAmountExpr+" <= CAST(? AS NUMERIC)")
		args = append(args, *f.AmountMax)
	}

	return whereClause(conds), args
}

func membershipWhere(f core.MembershipFilter) (string, []any) {
	var conds []string
	var args []any

	if f.FiscalYearID != nil {
		conds = append(conds, "m.fiscal_year_id = ?")
		args = append(args, *f.FiscalYearID)
	}
	if f.PersonID != nil {
		conds = append(conds, "m.person_id = ?")
		args = append(args, *f.PersonID)
	}

	return whereClause(conds), args
}

func membershipOrder(f core.MembershipFilter) string {
	if f.SortByDate {
		return " ORDER BY m.membership_date DESC, p.lastname ASC, p.firstname ASC"
	}
	return " ORDER BY m.fiscal_year_id DESC, m.membership_date DESC, p.lastname ASC, p.firstname ASC"
}

func memberWhere(f core.MemberFilter) (string, []any) {
	var conds []string
	var args []any

	if f.FiscalYearID != nil {
		conds = append(conds, "EXISTS (SELECT 1 FROM membership mf WHERE mf.person_id = p.id AND mf.fiscal_year_id = ?)")
		args = append(args, *f.FiscalYearID)
	}

	return whereClause(conds), args
}

func whereClause(conds []string) string {
	if len(conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conds, " AND ")
}
