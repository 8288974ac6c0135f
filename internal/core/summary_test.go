package core

import (
	"math"
	"testing"
	"time"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRateTableToBase(t *testing.T) {
	rates := RateTable{"USD": 1, "EUR": 0.9, "ZRR": 0}
	cases := []struct {
		amount   float64
		currency string
		want     float64
	}{
		{100, "USD", 100},
		{100, "EUR", 100 / 0.9},
		{100, "XXX", 100}, // unknown currency: silent passthrough
		{100, "ZRR", 100}, // zero rate: passthrough, never a division by zero
		{0, "EUR", 0},
	}
	for _, tc := range cases {
		if got := rates.ToBase(tc.amount, tc.currency); !approx(got, tc.want) {
			t.Fatalf("ToBase(%v, %s) = %v, want %v", tc.amount, tc.currency, got, tc.want)
		}
	}
}

func TestTotalsEmpty(t *testing.T) {
	s := Totals(nil, RateTable{"USD": 1})
	if s.Income != 0 || s.Expense != 0 || s.Balance != 0 {
		t.Fatalf("empty input: expected zero summary, got %+v", s)
	}
}

func TestTotalsMixedCurrency(t *testing.T) {
	rates := RateTable{"USD": 1, "EUR": 0.9}
	entries := []Entry{
		{Title: "salary", Amount: 1000, Currency: "USD", Category: "Salary", Type: Income, Date: time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)},
		{Title: "rent", Amount: 100, Currency: "EUR", Category: "Bills", Type: Expense, Date: time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)},
	}
	s := Totals(entries, rates)
	if !approx(s.Expense, 100/0.9) {
		t.Fatalf("expected expense %v, got %v", 100/0.9, s.Expense)
	}
	if s.Balance != s.Income-s.Expense {
		t.Fatalf("balance identity violated: %v != %v - %v", s.Balance, s.Income, s.Expense)
	}
}

func TestMonthlySeriesCompleteness(t *testing.T) {
	rates := RateTable{"USD": 1}
	series := MonthlySeries(nil, rates, 2025)
	if len(series) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(series))
	}
	labels := []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
	for i, b := range series {
		if b.Label != labels[i] {
			t.Fatalf("bucket %d: expected label %q, got %q", i, labels[i], b.Label)
		}
		if b.Income != 0 || b.Expense != 0 {
			t.Fatalf("bucket %d: expected zero totals, got %+v", i, b)
		}
	}

	entries := []Entry{
		{Title: "a", Amount: 50, Currency: "USD", Category: "Food", Type: Expense, Date: time.Date(2025, 2, 10, 0, 0, 0, 0, time.UTC)},
		{Title: "b", Amount: 70, Currency: "USD", Category: "Salary", Type: Income, Date: time.Date(2025, 2, 11, 0, 0, 0, 0, time.UTC)},
		{Title: "wrong year", Amount: 999, Currency: "USD", Category: "Food", Type: Expense, Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)},
	}
	series = MonthlySeries(entries, rates, 2025)
	if !approx(series[1].Expense, 50) || !approx(series[1].Income, 70) {
		t.Fatalf("February bucket wrong: %+v", series[1])
	}
	if series[0].Expense != 0 {
		t.Fatalf("January should be zero, got %+v", series[0])
	}
}

func TestCategoryBreakdown(t *testing.T) {
	rates := RateTable{"USD": 1, "EUR": 0.9}
	cats := []string{"Food", "Transport", "Bills"}
	entries := []Entry{
		{Title: "a", Amount: 30, Currency: "USD", Category: "Bills", Type: Expense, Date: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)},
		{Title: "b", Amount: 90, Currency: "EUR", Category: "Food", Type: Expense, Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)},
		{Title: "income ignored", Amount: 500, Currency: "USD", Category: "Food", Type: Income, Date: time.Date(2025, 4, 2, 0, 0, 0, 0, time.UTC)},
		{Title: "other month", Amount: 10, Currency: "USD", Category: "Transport", Type: Expense, Date: time.Date(2025, 5, 2, 0, 0, 0, 0, time.UTC)},
	}
	out := CategoryBreakdown(entries, rates, cats, 2025, 4)
	if len(out) != 2 {
		t.Fatalf("expected 2 categories with spend, got %d", len(out))
	}
	// Fixed category-list order, not sorted by value.
	if out[0].Name != "Food" || out[1].Name != "Bills" {
		t.Fatalf("wrong order: %v, %v", out[0].Name, out[1].Name)
	}
	if !approx(out[0].Amount, 100) {
		t.Fatalf("expected Food spend 100, got %v", out[0].Amount)
	}
	// Transport spend this month is exactly zero and must not appear.
	for _, c := range out {
		if c.Name == "Transport" {
			t.Fatal("zero-spend category must be excluded")
		}
	}
}

func TestCategoryBreakdownEmpty(t *testing.T) {
	out := CategoryBreakdown(nil, RateTable{}, ExpenseCategories, 2025, 1)
	if len(out) != 0 {
		t.Fatalf("expected empty breakdown, got %d", len(out))
	}
}
