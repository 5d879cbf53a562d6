package core

import "github.com/shopspring/decimal"

// Accumulate fills the Accumulation column of a newest-first operation
// list: each row's accumulation is its own amount plus the accumulation of
// the row below it. The fold is recomputed for the current filtered result
// set and never persisted.
func Accumulate(rows []OperationRow) {
	acc := decimal.Zero
	for i := len(rows) - 1; i >= 0; i-- {
		acc = acc.Add(rows[i].Amount)
		rows[i].Accumulation = acc
	}
}

type ReportOperation struct {
	ID     int64           `json:"id"`
	Label  string          `json:"label"`
	Date   Date            `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// ReportGroup is one category within a report side, with its member
// operations and their total.
type ReportGroup struct {
	CategoryID    int64             `json:"category_id"`
	CategoryLabel string            `json:"category_label"`
	AccountNumber string            `json:"account_number"`
	Total         decimal.Decimal   `json:"total_amount"`
	Operations    []ReportOperation `json:"operations"`
}

type ReportSide struct {
	Groups []ReportGroup   `json:"items"`
	Total  decimal.Decimal `json:"total"`
}

type FinancialReport struct {
	Incomes  ReportSide      `json:"incomes"`
	Outcomes ReportSide      `json:"outcomes"`
	Balance  decimal.Decimal `json:"balance"`
}

// BuildReport partitions a filtered operation set into incomes (derived
// amount >= 0) and outcomes (< 0), grouped by category in order of first
// appearance. Uncategorized operations group under category id 0.
func BuildReport(rows []OperationRow) FinancialReport {
	report := FinancialReport{
		Incomes:  ReportSide{Groups: []ReportGroup{}, Total: decimal.Zero},
		Outcomes: ReportSide{Groups: []ReportGroup{}, Total: decimal.Zero},
	}

	incomeIdx := map[int64]int{}
	outcomeIdx := map[int64]int{}

	for _, row := range rows {
		var categoryID int64
		if row.CategoryID != nil {
			categoryID = *row.CategoryID
		}

		op := ReportOperation{
			ID:     row.Operation.ID,
			Label:  row.Label,
			Date:   row.DateValue,
			Amount: row.Amount,
		}

		side := &report.Incomes
		idx := incomeIdx
		if row.Amount.IsNegative() {
			side = &report.Outcomes
			idx = outcomeIdx
		}

		i, ok := idx[categoryID]
		if !ok {
			i = len(side.Groups)
			idx[categoryID] = i
			side.Groups = append(side.Groups, ReportGroup{
				CategoryID:    categoryID,
				CategoryLabel: row.CategoryLabel,
				AccountNumber: row.CategoryAccountNumber,
				Total:         decimal.Zero,
			})
		}
		side.Groups[i].Total = side.Groups[i].Total.Add(row.Amount)
		side.Groups[i].Operations = append(side.Groups[i].Operations, op)
		side.Total = side.Total.Add(row.Amount)
	}

	report.Balance = report.Incomes.Total.Add(report.Outcomes.Total)
	return report
}
