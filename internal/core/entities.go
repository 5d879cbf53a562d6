package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account types for bank/cash accounts.
const (
	AccountOther AccountType = 0
	AccountCash  AccountType = 1
	AccountBank  AccountType = 2
)

// Category account types follow the French chart of accounts:
// class 6 for charges, class 7 for income.
const (
	CategoryUnknown CategoryKind = 0
	CategoryCharge  CategoryKind = 6
	CategoryIncome  CategoryKind = 7
)

const (
	CotisationMembership CotisationType = 1
	CotisationCourse     CotisationType = 2
	CotisationDonation   CotisationType = 3
	CotisationCredit     CotisationType = 4
)

type (
	AccountType    int
	CategoryKind   int
	CotisationType int
	Gender         int
	MembershipType int
	PaymentMethod  int

	// FiscalYear is the organization's accounting period. Uniqueness of
	// IsCurrent across years is not enforced by the engine.
	FiscalYear struct {
		ID        int64  `json:"id"`
		Title     string `json:"title"`
		StartDate Date   `json:"start_date"`
		EndDate   Date   `json:"end_date"`
		IsCurrent bool   `json:"is_current"`
	}

	Account struct {
		ID    int64       `json:"id"`
		Label string      `json:"label"`
		Type  AccountType `json:"type"`
	}

	OperationCategory struct {
		ID             int64        `json:"id"`
		Label          string       `json:"label"`
		AccountNumber  string       `json:"account_number"`
		AccountName    string       `json:"account_name"`
		AccountType    CategoryKind `json:"account_type"`
		IsInternalMove bool         `json:"is_internal_move"`
	}

	// Operation is a single ledger row with an optional debit and/or
	// credit amount. At least one of the two must be present.
	Operation struct {
		ID            int64               `json:"id"`
		DateValue     Date                `json:"date_value"`
		DateEffective Date                `json:"date_effective"`
		Label         string              `json:"label"`
		CategoryID    *int64              `json:"category"`
		OpMethod      int                 `json:"op_method"`
		OpNumber      string              `json:"op_number"`
		AmountDebit   decimal.NullDecimal `json:"amount_debit"`
		AmountCredit  decimal.NullDecimal `json:"amount_credit"`
		ProjectID     *int64              `json:"project_id"`
		Checked       bool                `json:"checked"`
		FiscalYearID  int64               `json:"fiscal_year_id"`
		AccountID     *int64              `json:"account_id"`
		LabelBank     string              `json:"label_bank"`
	}

	Cotisation struct {
		ID           int64           `json:"id"`
		Label        string          `json:"label"`
		Amount       decimal.Decimal `json:"amount"`
		StartDate    Date            `json:"start_date"`
		EndDate      Date            `json:"end_date"`
		FiscalYearID int64           `json:"fiscal_year_id"`
		Type         CotisationType  `json:"type"`
	}

	Person struct {
		ID           int64     `json:"id"`
		Lastname     string    `json:"lastname"`
		Firstname    string    `json:"firstname"`
		Gender       Gender    `json:"gender"`
		Birthdate    Date      `json:"birthdate"`
		Email        string    `json:"email"`
		PhoneNumber  string    `json:"phonenumber"`
		PhoneNumber2 string    `json:"phonenumber2"`
		CreationDate time.Time `json:"creation_date"`
		Password     string    `json:"-"`
		IsMember     bool      `json:"is_member"`
		ImageRights  bool      `json:"image_rights"`
		Comments     string    `json:"comments"`
		Address      string    `json:"address"`
		Zipcode      *int      `json:"zipcode"`
		City         string    `json:"city"`
	}

	// Membership stores a denormalized snapshot of the person at save
	// time, alongside the owning person id.
	Membership struct {
		ID             int64          `json:"id"`
		PersonID       int64          `json:"person_id"`
		Lastname       string         `json:"lastname"`
		Firstname      string         `json:"firstname"`
		Gender         Gender         `json:"gender"`
		Birthdate      Date           `json:"birthdate"`
		Address        string         `json:"address"`
		Zipcode        *int           `json:"zipcode"`
		City           string         `json:"city"`
		Email          string         `json:"email"`
		PhoneNumber    string         `json:"phonenumber"`
		ImageRights    bool           `json:"image_rights"`
		MembershipDate Date           `json:"membership_date"`
		MembershipType MembershipType `json:"membership_type"`
		FiscalYearID   int64          `json:"fiscal_year_id"`
		Comments       string         `json:"comments"`
	}

	// CotisationLine is owned by a Membership; lines are replaced as a
	// unit whenever the membership is saved.
	CotisationLine struct {
		MembershipID  int64           `json:"membership_id"`
		CotisationID  int64           `json:"cotisation_id"`
		Date          Date            `json:"date"`
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod *PaymentMethod  `json:"payment_method"`
	}
)

// Amount returns the single signed amount of an operation: the credit when
// present and non-zero, the debit otherwise. Outcome amounts are stored
// non-positive, so sums over Amount yield a true net.
func (o Operation) Amount() decimal.Decimal {
	if o.AmountCredit.Valid && !o.AmountCredit.Decimal.IsZero() {
		return o.AmountCredit.Decimal
	}
	if o.AmountDebit.Valid {
		return o.AmountDebit.Decimal
	}
	return decimal.Zero
}

func (f FiscalYear) Validate() error {
	if strings.TrimSpace(f.Title) == "" {
		return &ValidationError{Field: "title", Reason: "title is required"}
	}
	return nil
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Label) == "" {
		return &ValidationError{Field: "label", Reason: "label is required"}
	}
	return nil
}

func (c OperationCategory) Validate() error {
	if strings.TrimSpace(c.Label) == "" {
		return &ValidationError{Field: "label", Reason: "label is required"}
	}
	return nil
}

func (o Operation) Validate() error {
	if strings.TrimSpace(o.Label) == "" {
		return &ValidationError{Field: "label", Reason: "label is required"}
	}
	if o.DateValue.IsEmpty() {
		return &ValidationError{Field: "date_value", Reason: "date_value is required"}
	}
	if o.FiscalYearID == 0 {
		return &ValidationError{Field: "fiscal_year_id", Reason: "fiscal_year_id is required"}
	}
	if !o.AmountDebit.Valid && !o.AmountCredit.Valid {
		return &ValidationError{Field: "amount", Reason: "amount_debit or amount_credit is required"}
	}
	return nil
}

func (c Cotisation) Validate() error {
	if strings.TrimSpace(c.Label) == "" {
		return &ValidationError{Field: "label", Reason: "label is required"}
	}
	if c.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Reason: "amount cannot be negative"}
	}
	if c.StartDate.IsEmpty() {
		return &ValidationError{Field: "start_date", Reason: "start_date is required"}
	}
	if c.EndDate.IsEmpty() {
		return &ValidationError{Field: "end_date", Reason: "end_date is required"}
	}
	if c.FiscalYearID == 0 {
		return &ValidationError{Field: "fiscal_year_id", Reason: "fiscal_year_id is required"}
	}
	return nil
}

func (p Person) Validate() error {
	if strings.TrimSpace(p.Lastname) == "" {
		return &ValidationError{Field: "lastname", Reason: "lastname is required"}
	}
	if strings.TrimSpace(p.Firstname) == "" {
		return &ValidationError{Field: "firstname", Reason: "firstname is required"}
	}
	return nil
}

// MembershipInput carries the payload of a composite membership save:
// person fields, membership fields and the replacement cotisation lines.
type MembershipInput struct {
	ID             int64
	PersonID       int64 // 0 creates a new person
	Lastname       string
	Firstname      string
	Gender         Gender
	Birthdate      Date
	Address        string
	Zipcode        *int
	City           string
	Email          string
	PhoneNumber    string
	PhoneNumber2   string
	ImageRights    bool
	MembershipDate Date
	MembershipType MembershipType
	FiscalYearID   int64
	Comments       string
	Lines          []LineInput
}

// LineInput is one requested cotisation line. A nil Checked counts as
// checked; unchecked lines and lines without a cotisation id are skipped.
type LineInput struct {
	CotisationID  int64
	Date          Date
	Amount        decimal.Decimal
	PaymentMethod *PaymentMethod
	Checked       *bool
}

func (l LineInput) Included() bool {
	return l.CotisationID != 0 && (l.Checked == nil || *l.Checked)
}

func (m MembershipInput) Validate() error {
	if strings.TrimSpace(m.Lastname) == "" {
		return &ValidationError{Field: "lastname", Reason: "lastname is required"}
	}
	if strings.TrimSpace(m.Firstname) == "" {
		return &ValidationError{Field: "firstname", Reason: "firstname is required"}
	}
	if m.FiscalYearID == 0 {
		return &ValidationError{Field: "fiscal_year_id", Reason: "fiscal_year_id is required"}
	}
	if m.MembershipDate.IsEmpty() {
		return &ValidationError{Field: "membership_date", Reason: "membership_date is required"}
	}
	return nil
}
