package core

import (
	"testing"
	"time"
)

func TestEntryValidate(t *testing.T) {
	good := Entry{
		Title:    "Groceries",
		Amount:   42.50,
		Currency: "USD",
		Category: "Food",
		Type:     Expense,
		Date:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Entry{
		func(e Entry) Entry { e.Title = "  "; return e }(good),
		func(e Entry) Entry { e.Amount = 0; return e }(good),
		func(e Entry) Entry { e.Amount = -5; return e }(good),
		func(e Entry) Entry { e.Currency = ""; return e }(good),
		func(e Entry) Entry { e.Category = ""; return e }(good),
		func(e Entry) Entry { e.Type = "transfer"; return e }(good),
		func(e Entry) Entry { e.Date = time.Time{}; return e }(good),
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestBudgetValidate(t *testing.T) {
	cases := []struct {
		b  Budget
		ok bool
	}{
		{Budget{Category: "Food", Year: 2025, Month: 1, Amount: 100}, true},
		{Budget{Category: "Food", Year: 2025, Month: 12, Amount: 0}, true}, // zero = unset, allowed
		{Budget{Category: "", Year: 2025, Month: 1, Amount: 100}, false},
		{Budget{Category: "Food", Year: 0, Month: 1, Amount: 100}, false},
		{Budget{Category: "Food", Year: 2025, Month: 0, Amount: 100}, false},
		{Budget{Category: "Food", Year: 2025, Month: 13, Amount: 100}, false},
		{Budget{Category: "Food", Year: 2025, Month: 1, Amount: -1}, false},
	}
	for i, tc := range cases {
		err := tc.b.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}
