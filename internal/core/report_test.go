package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func opRow(id int64, categoryID *int64, label string, amount string) OperationRow {
	return OperationRow{
		Operation: Operation{ID: id, Label: label, CategoryID: categoryID},
		Amount:    decimal.RequireFromString(amount),
	}
}

func TestAccumulate(t *testing.T) {
	// Newest first, as the list endpoint returns them.
	rows := []OperationRow{
		opRow(3, nil, "c", "10"),
		opRow(2, nil, "b", "-40"),
		opRow(1, nil, "a", "100"),
	}

	Accumulate(rows)

	want := []string{"70", "60", "100"}
	for i, w := range want {
		if !rows[i].Accumulation.Equal(decimal.RequireFromString(w)) {
			t.Fatalf("row %d: expected accumulation %s, got %s", i, w, rows[i].Accumulation)
		}
	}
}

func TestAccumulateEmpty(t *testing.T) {
	Accumulate(nil) // must not panic
}

func TestBuildReport(t *testing.T) {
	catA := int64(1)
	catB := int64(2)
	rows := []OperationRow{
		opRow(1, &catA, "subs q1", "50"),
		opRow(2, &catA, "subs q2", "20"),
		opRow(3, &catB, "rent", "-30"),
	}
	rows[0].CategoryLabel = "subscriptions"
	rows[1].CategoryLabel = "subscriptions"
	rows[2].CategoryLabel = "rent"

	report := BuildReport(rows)

	if len(report.Incomes.Groups) != 1 {
		t.Fatalf("expected 1 income group, got %d", len(report.Incomes.Groups))
	}
	in := report.Incomes.Groups[0]
	if in.CategoryID != catA || len(in.Operations) != 2 {
		t.Fatalf("unexpected income group: %+v", in)
	}
	if !in.Total.Equal(decimal.RequireFromString("70")) {
		t.Fatalf("expected income group total 70, got %s", in.Total)
	}

	if len(report.Outcomes.Groups) != 1 {
		t.Fatalf("expected 1 outcome group, got %d", len(report.Outcomes.Groups))
	}
	if !report.Outcomes.Total.Equal(decimal.RequireFromString("-30")) {
		t.Fatalf("expected outcome total -30, got %s", report.Outcomes.Total)
	}
	if !report.Balance.Equal(decimal.RequireFromString("40")) {
		t.Fatalf("expected balance 40, got %s", report.Balance)
	}
}

func TestBuildReportUncategorized(t *testing.T) {
	rows := []OperationRow{opRow(1, nil, "donation", "15")}

	report := BuildReport(rows)

	if len(report.Incomes.Groups) != 1 || report.Incomes.Groups[0].CategoryID != 0 {
		t.Fatalf("expected one income group under category 0, got %+v", report.Incomes.Groups)
	}
}

func TestBuildReportZeroAmountIsIncome(t *testing.T) {
	rows := []OperationRow{opRow(1, nil, "placeholder", "0")}

	report := BuildReport(rows)

	if len(report.Incomes.Groups) != 1 || len(report.Outcomes.Groups) != 0 {
		t.Fatalf("zero amount should land on the income side: %+v", report)
	}
}

func TestBuildReportGroupOrderIsFirstAppearance(t *testing.T) {
	catA := int64(1)
	catB := int64(2)
	rows := []OperationRow{
		opRow(1, &catB, "b first", "10"),
		opRow(2, &catA, "a second", "10"),
		opRow(3, &catB, "b again", "10"),
	}

	report := BuildReport(rows)

	if len(report.Incomes.Groups) != 2 {
		t.Fatalf("expected 2 income groups, got %d", len(report.Incomes.Groups))
	}
	if report.Incomes.Groups[0].CategoryID != catB || report.Incomes.Groups[1].CategoryID != catA {
		t.Fatalf("groups not in first-appearance order: %+v", report.Incomes.Groups)
	}
}
