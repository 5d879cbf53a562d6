package core

import "github.com/shopspring/decimal"

// List rows carry the derived, non-stored values computed at read time.

type FiscalYearRow struct {
	FiscalYear
	MembershipCount  int64           `json:"membership_count"`
	MembershipAmount decimal.Decimal `json:"membership_amount"`
	OperationCount   int64           `json:"operation_count"`
	IncomeAmount     decimal.Decimal `json:"income_amount"`
	OutcomeAmount    decimal.Decimal `json:"outcome_amount"`
}

// Balance is the year's net result. Outcome amounts are non-positive, so
// the sum is a true net.
func (r FiscalYearRow) Balance() decimal.Decimal {
	return r.IncomeAmount.Add(r.OutcomeAmount)
}

type AccountRow struct {
	Account
	OperationCount int64           `json:"operation_count"`
	IncomeAmount   decimal.Decimal `json:"income_amount"`
	OutcomeAmount  decimal.Decimal `json:"outcome_amount"`
}

type CategoryRow struct {
	OperationCategory
	OperationCount int64 `json:"operation_count"`
}

type CotisationRow struct {
	Cotisation
	MembersCount    int64           `json:"members_count"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
}

type PersonRow struct {
	Person
	MembershipCount int64           `json:"membership_count"`
	CollectedAmount decimal.Decimal `json:"collected_amount"`
}

// OperationRow is one line of a filtered operation list: the operation, the
// labels of its referenced entities, the derived amount and the running
// accumulation over the current result set.
type OperationRow struct {
	Operation
	CategoryLabel         string          `json:"category_label"`
	CategoryAccountNumber string          `json:"category_account_number"`
	FiscalYearTitle       string          `json:"fiscal_year_title"`
	AccountLabel          string          `json:"account_label"`
	Amount                decimal.Decimal `json:"amount"`
	Accumulation          decimal.Decimal `json:"accumulation"`
}

type MembershipRow struct {
	Membership
	FiscalYearTitle      string          `json:"fiscal_year_title"`
	CollectedAmount      decimal.Decimal `json:"collected_amount"`
	PaymentMethods       []PaymentMethod `json:"payment_methods"`
	PrimaryPaymentMethod *PaymentMethod  `json:"primary_payment_method"`
}

type LineRow struct {
	CotisationID  int64           `json:"cotisation_id"`
	Label         string          `json:"label"`
	Date          Date            `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod *PaymentMethod  `json:"payment_method"`
}

// MembershipDetail is one membership with its person and its cotisation
// lines ordered by date then cotisation id.
type MembershipDetail struct {
	Membership
	Person Person    `json:"person"`
	Lines  []LineRow `json:"cotisations"`
}
