package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"tresorier/internal/core"
)

func TestParseID(t *testing.T) {
	cases := []struct {
		name  string
		query string
		id    int64
		ok    bool
	}{
		{"valid", "id=12", 12, true},
		{"missing", "", 0, false},
		{"zero", "id=0", 0, false},
		{"negative", "id=-3", 0, false},
		{"not a number", "id=abc", 0, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/members/get?"+tc.query, nil)
			id, err := parseID(r)
			if tc.ok {
				require.NoError(t, err)
				require.Equal(t, tc.id, id)
			} else {
				var verr *core.ValidationError
				require.ErrorAs(t, err, &verr)
			}
		})
	}
}

func TestOperationFilterFromQuery(t *testing.T) {
	r := httptest.NewRequest("GET",
		"/api/accounting/operations/list?fiscal_year_id=3&account_id=2&category=7&checked=true"+
			"&year=2024&date_start=2024-01-01&date_end=2024-12-31&amount_min=-10&amount_max=99.5", nil)

	filter, err := operationFilterFromQuery(r)
	require.NoError(t, err)
	require.EqualValues(t, 3, *filter.FiscalYearID)
	require.EqualValues(t, 2, *filter.AccountID)
	require.EqualValues(t, 7, *filter.CategoryID)
	require.True(t, *filter.Checked)
	require.Equal(t, 2024, *filter.Year)
	require.Equal(t, "2024-01-01", filter.DateStart.String())
	require.Equal(t, "2024-12-31", filter.DateEnd.String())
	require.Equal(t, "-10", filter.AmountMin.String())
	require.Equal(t, "99.5", filter.AmountMax.String())
}

func TestOperationFilterLegacyAliases(t *testing.T) {
	r := httptest.NewRequest("GET",
		"/api/accounting/operations/list?fiscalyear_id=3&accounting_account_id=2&accounting_operations_category=7", nil)

	filter, err := operationFilterFromQuery(r)
	require.NoError(t, err)
	require.EqualValues(t, 3, *filter.FiscalYearID)
	require.EqualValues(t, 2, *filter.AccountID)
	require.EqualValues(t, 7, *filter.CategoryID)
}

func TestOperationFilterEmpty(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/accounting/operations/list", nil)

	filter, err := operationFilterFromQuery(r)
	require.NoError(t, err)
	require.Nil(t, filter.FiscalYearID)
	require.Nil(t, filter.Checked)
	require.Nil(t, filter.AmountMin)
	require.True(t, filter.DateStart.IsEmpty())
}

func TestOperationFilterRejectsBadValues(t *testing.T) {
	for _, query := range []string{
		"fiscal_year_id=abc",
		"checked=maybe",
		"date_start=01/02/2024",
		"amount_min=ten",
	} {
		r := httptest.NewRequest("GET", "/api/accounting/operations/list?"+query, nil)
		_, err := operationFilterFromQuery(r)
		var verr *core.ValidationError
		require.ErrorAs(t, err, &verr, "query %q should be rejected", query)
	}
}

func TestMembershipFilterFromQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/memberships/list?member_id=5&sort=date", nil)

	filter, err := membershipFilterFromQuery(r)
	require.NoError(t, err)
	require.EqualValues(t, 5, *filter.PersonID)
	require.True(t, filter.SortByDate)
	require.Nil(t, filter.FiscalYearID)
}

func TestYearOrderFromQuery(t *testing.T) {
	for query, want := range map[string]core.YearOrder{
		"":           core.YearOrderNone,
		"order=asc":  core.YearOrderAsc,
		"order=desc": core.YearOrderDesc,
	} {
		r := httptest.NewRequest("GET", "/api/fiscal_years/list?"+query, nil)
		order, err := yearOrderFromQuery(r)
		require.NoError(t, err)
		require.Equal(t, want, order)
	}

	r := httptest.NewRequest("GET", "/api/fiscal_years/list?order=sideways", nil)
	_, err := yearOrderFromQuery(r)
	var verr *core.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestMembershipPayloadToInput(t *testing.T) {
	payload := membershipPayload{
		Lastname:       "Martin",
		Firstname:      "Claire",
		FiscalYearID:   1,
		MembershipDate: core.NewDate(2024, 9, 15),
		Cotisations: []linePayload{
			{CotisationID: 3},
			{LegacyID: 4},
		},
	}

	in := payload.toInput()
	require.Len(t, in.Lines, 2)
	require.EqualValues(t, 3, in.Lines[0].CotisationID)
	// The legacy id key names the cotisation too.
	require.EqualValues(t, 4, in.Lines[1].CotisationID)
}
