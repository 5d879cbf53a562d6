package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tresorier/internal/core"
)

func ptr[T any](v T) *T { return &v }

func TestOperationRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy := seedFiscalYear(t, repo, "2024/2025")
	acc := seedAccount(t, repo, "checking", core.AccountBank)
	cat := seedCategory(t, repo, "rent", false)

	op := &core.Operation{
		DateValue:    core.NewDate(2024, 10, 1),
		Label:        "october rent",
		CategoryID:   &cat.ID,
		OpMethod:     2,
		OpNumber:     "CHQ-104",
		AmountDebit:  debit("-400.50"),
		Checked:      true,
		FiscalYearID: fy.ID,
		AccountID:    &acc.ID,
		LabelBank:    "VIR SEPA LOYER",
	}
	require.NoError(t, repo.SaveOperation(ctx, op))
	require.NotZero(t, op.ID)

	got, err := repo.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	require.Equal(t, "october rent", got.Label)
	require.Equal(t, "CHQ-104", got.OpNumber)
	require.Equal(t, cat.ID, *got.CategoryID)
	require.True(t, got.Checked)
	require.True(t, got.AmountDebit.Valid)
	requireDecimal(t, "-400.50", got.AmountDebit.Decimal)
	require.False(t, got.AmountCredit.Valid)
	require.True(t, got.DateEffective.IsEmpty())

	got.DateEffective = core.NewDate(2024, 10, 5)
	got.Label = "october rent (settled)"
	require.NoError(t, repo.SaveOperation(ctx, got))

	again, err := repo.GetOperation(ctx, op.ID)
	require.NoError(t, err)
	require.Equal(t, "2024-10-05", again.DateEffective.String())
	require.Equal(t, "october rent (settled)", again.Label)
}

func TestListOperationsNewestFirst(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy := seedFiscalYear(t, repo, "2024/2025")
	for _, label := range []string{"first", "second", "third"} {
		op := core.Operation{Label: label, DateValue: core.NewDate(2024, 10, 1),
			FiscalYearID: fy.ID, AmountCredit: debit("10")}
		require.NoError(t, repo.SaveOperation(ctx, &op))
	}

	rows, err := repo.ListOperations(ctx, core.OperationFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, "third", rows[0].Label)
	require.Equal(t, "first", rows[2].Label)
}

func TestListOperationsJoinsLabels(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy := seedFiscalYear(t, repo, "2024/2025")
	acc := seedAccount(t, repo, "checking", core.AccountBank)
	cat := &core.OperationCategory{Label: "rent", AccountNumber: "613"}
	require.NoError(t, repo.SaveCategory(ctx, cat))

	op := core.Operation{Label: "october rent", DateValue: core.NewDate(2024, 10, 1),
		FiscalYearID: fy.ID, CategoryID: &cat.ID, AccountID: &acc.ID, AmountDebit: debit("-400")}
	require.NoError(t, repo.SaveOperation(ctx, &op))

	rows, err := repo.ListOperations(ctx, core.OperationFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "rent", rows[0].CategoryLabel)
	require.Equal(t, "613", rows[0].CategoryAccountNumber)
	require.Equal(t, "2024/2025", rows[0].FiscalYearTitle)
	require.Equal(t, "checking", rows[0].AccountLabel)
	requireDecimal(t, "-400", rows[0].Amount)
}

func TestListOperationsFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy1 := seedFiscalYear(t, repo, "2023/2024")
	fy2 := seedFiscalYear(t, repo, "2024/2025")
	acc := seedAccount(t, repo, "checking", core.AccountBank)
	cat := seedCategory(t, repo, "rent", false)

	ops := []core.Operation{
		{Label: "old income", DateValue: core.NewDate(2023, 11, 10), FiscalYearID: fy1.ID,
			AccountID: &acc.ID, AmountCredit: debit("100"), Checked: true},
		{Label: "new outcome", DateValue: core.NewDate(2024, 10, 1), FiscalYearID: fy2.ID,
			CategoryID: &cat.ID, AmountDebit: debit("-400")},
		{Label: "new income", DateValue: core.NewDate(2024, 12, 24), FiscalYearID: fy2.ID,
			AmountCredit: debit("50"), Checked: true},
	}
	for i := range ops {
		require.NoError(t, repo.SaveOperation(ctx, &ops[i]))
	}

	cases := []struct {
		name   string
		filter core.OperationFilter
		labels []string
	}{
		{"fiscal year", core.OperationFilter{FiscalYearID: &fy1.ID}, []string{"old income"}},
		{"account", core.OperationFilter{AccountID: &acc.ID}, []string{"old income"}},
		{"category", core.OperationFilter{CategoryID: &cat.ID}, []string{"new outcome"}},
		{"checked", core.OperationFilter{Checked: ptr(true)}, []string{"new income", "old income"}},
		{"unchecked", core.OperationFilter{Checked: ptr(false)}, []string{"new outcome"}},
		{"calendar year", core.OperationFilter{Year: ptr(2024)}, []string{"new income", "new outcome"}},
		{"date range", core.OperationFilter{
			DateStart: core.NewDate(2024, 10, 1), DateEnd: core.NewDate(2024, 10, 31),
		}, []string{"new outcome"}},
		{"open-ended start", core.OperationFilter{DateStart: core.NewDate(2024, 1, 1)},
			[]string{"new income", "new outcome"}},
		{"amount min", core.OperationFilter{AmountMin: ptr(decimal.RequireFromString("60"))},
			[]string{"old income"}},
		{"amount max", core.OperationFilter{AmountMax: ptr(decimal.RequireFromString("0"))},
			[]string{"new outcome"}},
		{"combined", core.OperationFilter{FiscalYearID: &fy2.ID, Checked: ptr(true)},
			[]string{"new income"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, err := repo.ListOperations(ctx, tc.filter)
			require.NoError(t, err)
			var labels []string
			for _, row := range rows {
				labels = append(labels, row.Label)
			}
			require.Equal(t, tc.labels, labels)
		})
	}
}

func TestOperationNotFound(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	var nf *core.NotFoundError
	_, err := repo.GetOperation(ctx, 42)
	require.ErrorAs(t, err, &nf)
	require.EqualValues(t, 42, nf.ID)

	require.ErrorAs(t, repo.DeleteOperation(ctx, 42), &nf)

	op := &core.Operation{ID: 42, Label: "ghost", DateValue: core.NewDate(2024, 1, 1),
		FiscalYearID: 1, AmountCredit: debit("1")}
	require.ErrorAs(t, repo.SaveOperation(ctx, op), &nf)
}
