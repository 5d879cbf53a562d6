package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tresorier/internal/core"
	"tresorier/internal/storage"
)

func newTestMemberService(t *testing.T) *MemberService {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "tresorier.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewMemberService(repo, nil, nil)
}

func TestSaveCotisationRejectsNegativeAmount(t *testing.T) {
	svc := newTestMemberService(t)

	c := &core.Cotisation{
		Label:        "annual",
		Amount:       decimal.RequireFromString("-5"),
		StartDate:    core.NewDate(2024, 9, 1),
		EndDate:      core.NewDate(2025, 8, 31),
		FiscalYearID: 1,
	}
	err := svc.SaveCotisation(context.Background(), c)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "amount", verr.Field)
}

func TestSavePersonRejectsBlankName(t *testing.T) {
	svc := newTestMemberService(t)

	err := svc.SavePerson(context.Background(), &core.Person{Lastname: "Martin"})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "firstname", verr.Field)
}

func TestMembershipLifecycle(t *testing.T) {
	svc := newTestMemberService(t)
	ctx := context.Background()

	fy := &core.FiscalYear{Title: "2024/2025"}
	require.NoError(t, svc.storage.SaveFiscalYear(ctx, fy))

	cot := &core.Cotisation{
		Label:        "annual",
		Amount:       decimal.RequireFromString("20"),
		StartDate:    core.NewDate(2024, 9, 1),
		EndDate:      core.NewDate(2025, 8, 31),
		FiscalYearID: fy.ID,
		Type:         core.CotisationMembership,
	}
	require.NoError(t, svc.SaveCotisation(ctx, cot))

	input := &core.MembershipInput{
		Lastname:       "Martin",
		Firstname:      "Claire",
		MembershipDate: core.NewDate(2024, 9, 15),
		FiscalYearID:   fy.ID,
		Lines: []core.LineInput{
			{CotisationID: cot.ID, Amount: decimal.RequireFromString("20")},
		},
	}
	require.NoError(t, svc.SaveMembership(ctx, input))
	require.NotZero(t, input.ID)
	require.NotZero(t, input.PersonID)

	detail, err := svc.GetMembership(ctx, input.ID)
	require.NoError(t, err)
	require.Len(t, detail.Lines, 1)

	rows, err := svc.ListMemberships(ctx, core.MembershipFilter{FiscalYearID: &fy.ID})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.True(t, rows[0].CollectedAmount.Equal(decimal.RequireFromString("20")))

	require.NoError(t, svc.DeleteMembership(ctx, input.ID))

	// The person outlives the membership.
	person, err := svc.GetPerson(ctx, input.PersonID)
	require.NoError(t, err)
	require.Equal(t, "Martin", person.Lastname)
}

func TestSaveMembershipRejectsMissingFields(t *testing.T) {
	svc := newTestMemberService(t)

	err := svc.SaveMembership(context.Background(), &core.MembershipInput{
		Lastname:  "Martin",
		Firstname: "Claire",
	})
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}
