package core

import "github.com/shopspring/decimal"

// OperationFilter selects ledger operations. Every field is optional; a nil
// field imposes no constraint. Date bounds are inclusive; a single bound
// gives an open-ended range. Amount bounds compare against the derived
// signed amount (credit if present, else debit).
type OperationFilter struct {
	FiscalYearID *int64
	AccountID    *int64
	CategoryID   *int64
	Checked      *bool
	Year         *int // calendar year of date_value
	DateStart    Date
	DateEnd      Date
	AmountMin    *decimal.Decimal
	AmountMax    *decimal.Decimal
}

// MembershipFilter selects memberships. Default ordering is fiscal year
// desc, membership date desc, then name; SortByDate drops the fiscal year
// key.
type MembershipFilter struct {
	FiscalYearID *int64
	PersonID     *int64
	SortByDate   bool
}

// MemberFilter restricts the person list to those with at least one
// membership in the given fiscal year.
type MemberFilter struct {
	FiscalYearID *int64
}

// YearOrder orders the fiscal year list by end date.
type YearOrder string

const (
	YearOrderNone YearOrder = ""
	YearOrderAsc  YearOrder = "asc"
	YearOrderDesc YearOrder = "desc"
)
