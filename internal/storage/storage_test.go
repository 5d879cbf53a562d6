package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tresorier/internal/core"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "tresorier.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func seedFiscalYear(t *testing.T, repo *Repository, title string) *core.FiscalYear {
	t.Helper()
	fy := &core.FiscalYear{
		Title:     title,
		StartDate: core.NewDate(2024, 9, 1),
		EndDate:   core.NewDate(2025, 8, 31),
	}
	require.NoError(t, repo.SaveFiscalYear(context.Background(), fy))
	return fy
}

func seedAccount(t *testing.T, repo *Repository, label string, typ core.AccountType) *core.Account {
	t.Helper()
	a := &core.Account{Label: label, Type: typ}
	require.NoError(t, repo.SaveAccount(context.Background(), a))
	return a
}

func seedCategory(t *testing.T, repo *Repository, label string, internalMove bool) *core.OperationCategory {
	t.Helper()
	c := &core.OperationCategory{Label: label, IsInternalMove: internalMove}
	require.NoError(t, repo.SaveCategory(context.Background(), c))
	return c
}

func seedCotisation(t *testing.T, repo *Repository, fiscalYearID int64, label, amount string) *core.Cotisation {
	t.Helper()
	c := &core.Cotisation{
		Label:        label,
		Amount:       decimal.RequireFromString(amount),
		StartDate:    core.NewDate(2024, 9, 1),
		EndDate:      core.NewDate(2025, 8, 31),
		FiscalYearID: fiscalYearID,
		Type:         core.CotisationMembership,
	}
	require.NoError(t, repo.SaveCotisation(context.Background(), c))
	return c
}

func debit(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, got.Equal(decimal.RequireFromString(want)),
		"expected %s, got %s", want, got)
}

func TestFiscalYearRoundTrip(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy := seedFiscalYear(t, repo, "2024/2025")
	require.NotZero(t, fy.ID)

	got, err := repo.GetFiscalYear(ctx, fy.ID)
	require.NoError(t, err)
	require.Equal(t, "2024/2025", got.Title)
	require.Equal(t, "2024-09-01", got.StartDate.String())
	require.False(t, got.IsCurrent)

	got.Title = "saison 2024/2025"
	got.IsCurrent = true
	require.NoError(t, repo.SaveFiscalYear(ctx, got))

	again, err := repo.GetFiscalYear(ctx, fy.ID)
	require.NoError(t, err)
	require.Equal(t, "saison 2024/2025", again.Title)
	require.True(t, again.IsCurrent)
}

func TestFiscalYearNotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetFiscalYear(context.Background(), 42)
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
	require.Equal(t, "fiscal year", nf.Entity)

	err = repo.DeleteFiscalYear(context.Background(), 42)
	require.ErrorAs(t, err, &nf)
}

func TestIsCurrentNotExclusive(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	a := &core.FiscalYear{Title: "a", IsCurrent: true}
	b := &core.FiscalYear{Title: "b", IsCurrent: true}
	require.NoError(t, repo.SaveFiscalYear(ctx, a))
	require.NoError(t, repo.SaveFiscalYear(ctx, b))

	// Saving a second current year does not clear the first.
	years, err := repo.ListFiscalYears(ctx, "")
	require.NoError(t, err)
	require.Len(t, years, 2)
	require.True(t, years[0].IsCurrent)
	require.True(t, years[1].IsCurrent)
}

func TestListFiscalYearsOrder(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	old := &core.FiscalYear{Title: "old", EndDate: core.NewDate(2024, 8, 31)}
	recent := &core.FiscalYear{Title: "recent", EndDate: core.NewDate(2025, 8, 31)}
	require.NoError(t, repo.SaveFiscalYear(ctx, old))
	require.NoError(t, repo.SaveFiscalYear(ctx, recent))

	years, err := repo.ListFiscalYears(ctx, core.YearOrderDesc)
	require.NoError(t, err)
	require.Equal(t, "recent", years[0].Title)

	years, err = repo.ListFiscalYears(ctx, core.YearOrderAsc)
	require.NoError(t, err)
	require.Equal(t, "old", years[0].Title)
}

func TestFiscalYearAggregates(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy := seedFiscalYear(t, repo, "2024/2025")
	regular := seedCategory(t, repo, "rent", false)
	internal := seedCategory(t, repo, "transfer", true)

	ops := []core.Operation{
		{Label: "subs", DateValue: core.NewDate(2024, 10, 1), FiscalYearID: fy.ID,
			CategoryID: &regular.ID, AmountCredit: debit("120")},
		{Label: "rent", DateValue: core.NewDate(2024, 10, 2), FiscalYearID: fy.ID,
			CategoryID: &regular.ID, AmountDebit: debit("-400")},
		{Label: "move", DateValue: core.NewDate(2024, 10, 3), FiscalYearID: fy.ID,
			CategoryID: &internal.ID, AmountCredit: debit("1000")},
	}
	for i := range ops {
		require.NoError(t, repo.SaveOperation(ctx, &ops[i]))
	}

	cot := seedCotisation(t, repo, fy.ID, "annual", "20")
	input := &core.MembershipInput{
		Lastname: "Martin", Firstname: "Claire",
		FiscalYearID: fy.ID, MembershipDate: core.NewDate(2024, 9, 15),
		Lines: []core.LineInput{{CotisationID: cot.ID, Amount: decimal.RequireFromString("20")}},
	}
	require.NoError(t, repo.SaveMembership(ctx, input))

	years, err := repo.ListFiscalYears(ctx, "")
	require.NoError(t, err)
	require.Len(t, years, 1)

	row := years[0]
	require.Equal(t, int64(1), row.MembershipCount)
	requireDecimal(t, "20", row.MembershipAmount)
	require.Equal(t, int64(3), row.OperationCount)
	// Internal moves stay out of the income and outcome sums.
	requireDecimal(t, "120", row.IncomeAmount)
	requireDecimal(t, "-400", row.OutcomeAmount)
	requireDecimal(t, "-280", row.Balance())
}

func TestDeleteFiscalYearGuards(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy := seedFiscalYear(t, repo, "guarded")
	seedCotisation(t, repo, fy.ID, "annual", "20")

	err := repo.DeleteFiscalYear(ctx, fy.ID)
	var ref *core.ReferencedError
	require.ErrorAs(t, err, &ref)
	require.Equal(t, "cotisation", ref.Relation)

	// The year survives a refused delete.
	_, err = repo.GetFiscalYear(ctx, fy.ID)
	require.NoError(t, err)

	empty := seedFiscalYear(t, repo, "empty")
	require.NoError(t, repo.DeleteFiscalYear(ctx, empty.ID))
	_, err = repo.GetFiscalYear(ctx, empty.ID)
	var nf *core.NotFoundError
	require.ErrorAs(t, err, &nf)
}

func TestAccountSettledSums(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy := seedFiscalYear(t, repo, "2024/2025")
	bank := seedAccount(t, repo, "checking", core.AccountBank)
	cash := seedAccount(t, repo, "till", core.AccountCash)

	ops := []core.Operation{
		{Label: "settled income", DateValue: core.NewDate(2024, 10, 1),
			DateEffective: core.NewDate(2024, 10, 3), FiscalYearID: fy.ID,
			AccountID: &bank.ID, AmountCredit: debit("250")},
		{Label: "settled outcome", DateValue: core.NewDate(2024, 10, 2),
			DateEffective: core.NewDate(2024, 10, 4), FiscalYearID: fy.ID,
			AccountID: &bank.ID, AmountDebit: debit("-100")},
		{Label: "pending", DateValue: core.NewDate(2024, 10, 5), FiscalYearID: fy.ID,
			AccountID: &bank.ID, AmountCredit: debit("999")},
	}
	for i := range ops {
		require.NoError(t, repo.SaveOperation(ctx, &ops[i]))
	}

	accounts, err := repo.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 2)

	// Bank accounts sort before cash (type DESC).
	require.Equal(t, "checking", accounts[0].Label)
	require.Equal(t, int64(3), accounts[0].OperationCount)
	requireDecimal(t, "250", accounts[0].IncomeAmount)
	requireDecimal(t, "-100", accounts[0].OutcomeAmount)

	require.Equal(t, "till", accounts[1].Label)
	require.Equal(t, int64(0), accounts[1].OperationCount)

	err = repo.DeleteAccount(ctx, bank.ID)
	var ref *core.ReferencedError
	require.ErrorAs(t, err, &ref)

	require.NoError(t, repo.DeleteAccount(ctx, cash.ID))
}

func TestCategoryRoundTripAndGuard(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	fy := seedFiscalYear(t, repo, "2024/2025")
	cat := &core.OperationCategory{
		Label:         "rent",
		AccountNumber: "613",
		AccountName:   "locations",
		AccountType:   core.CategoryCharge,
	}
	require.NoError(t, repo.SaveCategory(ctx, cat))

	got, err := repo.GetCategory(ctx, cat.ID)
	require.NoError(t, err)
	require.Equal(t, "613", got.AccountNumber)
	require.Equal(t, core.CategoryCharge, got.AccountType)

	op := core.Operation{Label: "october rent", DateValue: core.NewDate(2024, 10, 1),
		FiscalYearID: fy.ID, CategoryID: &cat.ID, AmountDebit: debit("-400")}
	require.NoError(t, repo.SaveOperation(ctx, &op))

	cats, err := repo.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Equal(t, int64(1), cats[0].OperationCount)

	err = repo.DeleteCategory(ctx, cat.ID)
	var ref *core.ReferencedError
	require.ErrorAs(t, err, &ref)

	require.NoError(t, repo.DeleteOperation(ctx, op.ID))
	require.NoError(t, repo.DeleteCategory(ctx, cat.ID))
}
