package core

import (
	"testing"
	"time"
)

func TestProgress(t *testing.T) {
	rates := RateTable{"USD": 1, "EUR": 0.9}
	budgets := []Budget{
		{Category: "Food", Year: 2025, Month: 4, Amount: 200},
		{Category: "Bills", Year: 2025, Month: 4, Amount: 0},   // configured blank
		{Category: "Food", Year: 2025, Month: 3, Amount: 999},  // other month, ignored
	}
	entries := []Entry{
		{Title: "a", Amount: 90, Currency: "EUR", Category: "Food", Type: Expense, Date: time.Date(2025, 4, 3, 0, 0, 0, 0, time.UTC)},
		{Title: "b", Amount: 40, Currency: "USD", Category: "Bills", Type: Expense, Date: time.Date(2025, 4, 4, 0, 0, 0, 0, time.UTC)},
	}

	progress := Progress(entries, budgets, rates, []string{"Food", "Bills", "Transport"}, 2025, 4)
	if len(progress) != 3 {
		t.Fatalf("expected every listed category, got %d", len(progress))
	}
	food := progress["Food"]
	if !approx(food.Spent, 100) || food.Budget != 200 || !approx(food.Percent, 50) {
		t.Fatalf("food progress wrong: %+v", food)
	}
	bills := progress["Bills"]
	if bills.Budget != 0 || bills.Percent != 0 {
		t.Fatalf("unset budget must yield zero percent: %+v", bills)
	}
	transport := progress["Transport"]
	if transport.Spent != 0 || transport.Budget != 0 || transport.Percent != 0 {
		t.Fatalf("untouched category must be all zero: %+v", transport)
	}
}

func TestEvaluateHysteresis(t *testing.T) {
	// Budget 100, spend sequence 50, 85, 110, 90, 110: notifications fire at
	// 85 (approaching), 110 (exceeded), silence at 90, then exceeded again.
	spends := []float64{50, 85, 110, 90, 110}
	wantNotes := []int{0, 1, 1, 0, 1}
	wantSeverity := []Severity{"", SeverityWarning, SeverityError, "", SeverityError}

	state := AlertState{}
	total := 0
	for i, spent := range spends {
		progress := map[string]BudgetProgress{
			"Food": {Spent: spent, Budget: 100, Percent: spent},
		}
		var notes []Notification
		state, notes = Evaluate(state, progress)
		if len(notes) != wantNotes[i] {
			t.Fatalf("step %d (spent=%v): expected %d notifications, got %d", i, spent, wantNotes[i], len(notes))
		}
		if len(notes) == 1 && notes[0].Severity != wantSeverity[i] {
			t.Fatalf("step %d: expected severity %s, got %s", i, wantSeverity[i], notes[0].Severity)
		}
		total += len(notes)
	}
	if total != 3 {
		t.Fatalf("expected exactly 3 notifications over the sequence, got %d", total)
	}
}

func TestEvaluateNotesCarryCategory(t *testing.T) {
	progress := map[string]BudgetProgress{
		"Transport": {Spent: 85, Budget: 100, Percent: 85},
		"Food":      {Spent: 150, Budget: 100, Percent: 150},
		"Bills":     {Spent: 10, Budget: 100, Percent: 10},
	}
	_, notes := Evaluate(AlertState{}, progress)
	if len(notes) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(notes))
	}
	bySeverity := map[Severity]string{}
	for _, n := range notes {
		bySeverity[n.Severity] = n.Category
	}
	if bySeverity[SeverityError] != "Food" {
		t.Fatalf("exceeded note attributed to %q, want Food", bySeverity[SeverityError])
	}
	if bySeverity[SeverityWarning] != "Transport" {
		t.Fatalf("approaching note attributed to %q, want Transport", bySeverity[SeverityWarning])
	}
}

func TestEvaluateSkipsQuietCategories(t *testing.T) {
	progress := map[string]BudgetProgress{
		"NoBudget": {Spent: 500, Budget: 0, Percent: 0},
		"NoSpend":  {Spent: 0, Budget: 100, Percent: 0},
	}
	prev := AlertState{"NoBudget": AlertExceeded}
	next, notes := Evaluate(prev, progress)
	if len(notes) != 0 {
		t.Fatalf("expected no notifications, got %d", len(notes))
	}
	// Skipped categories keep their previous state untouched.
	if next["NoBudget"] != AlertExceeded {
		t.Fatalf("skipped category state changed: %v", next["NoBudget"])
	}
}

func TestEvaluateDoesNotMutatePrev(t *testing.T) {
	prev := AlertState{"Food": AlertNone}
	progress := map[string]BudgetProgress{
		"Food": {Spent: 110, Budget: 100, Percent: 110},
	}
	next, _ := Evaluate(prev, progress)
	if prev["Food"] != AlertNone {
		t.Fatalf("previous state mutated: %v", prev["Food"])
	}
	if next["Food"] != AlertExceeded {
		t.Fatalf("next state not advanced: %v", next["Food"])
	}
}

func TestEvaluateBandEdges(t *testing.T) {
	cases := []struct {
		percent float64
		level   AlertLevel
		notes   int
	}{
		{80, AlertNone, 0},     // 80 exactly is below the approaching band
		{80.1, AlertApproaching, 1},
		{100, AlertApproaching, 1}, // 100 exactly stays approaching
		{100.1, AlertExceeded, 1},
	}
	for _, tc := range cases {
		progress := map[string]BudgetProgress{
			"Food": {Spent: tc.percent, Budget: 100, Percent: tc.percent},
		}
		next, notes := Evaluate(AlertState{}, progress)
		if len(notes) != tc.notes {
			t.Fatalf("percent %v: expected %d notifications, got %d", tc.percent, tc.notes, len(notes))
		}
		if tc.notes > 0 && next["Food"] != tc.level {
			t.Fatalf("percent %v: expected level %s, got %s", tc.percent, tc.level, next["Food"])
		}
	}
}
