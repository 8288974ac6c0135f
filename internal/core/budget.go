package core

import (
	"fmt"
	"math"
	"sort"
)

const (
	AlertNone        AlertLevel = "none"
	AlertApproaching AlertLevel = "approaching"
	AlertExceeded    AlertLevel = "exceeded"
)

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

type (
	// AlertLevel is the band a category's utilization last crossed into.
	AlertLevel string

	// AlertState records the previous alert band per category. It is owned
	// by a single session and reset whenever the budget set is reloaded.
	AlertState map[string]AlertLevel

	Severity string

	// Notification is the event delivered to the caller's notification sink.
	// Category names the budget category the alert is about.
	Notification struct {
		Severity Severity `json:"severity"`
		Message  string   `json:"message"`
		Category string   `json:"category"`
	}

	// BudgetProgress is the utilization of one category for a month.
	BudgetProgress struct {
		Spent   float64 `json:"spent"`
		Budget  float64 `json:"budget"`
		Percent float64 `json:"percent"`
	}
)

// Progress computes per-category spend against configured budgets for the
// given year and month. Every category in the list gets an entry; budget is
// 0 when unset, and percent is 0 unless budget > 0. Callers must check
// budget > 0 before displaying a bar.
func Progress(entries []Entry, budgets []Budget, rates RateTable, categories []string, year, month int) map[string]BudgetProgress {
	byCat := make(map[string]float64, len(budgets))
	for _, b := range budgets {
		if b.Year == year && b.Month == month {
			byCat[b.Category] = b.Amount
		}
	}

	progress := make(map[string]BudgetProgress, len(categories))
	for _, cat := range categories {
		spent := CategorySpend(entries, rates, cat, year, month)
		budget := byCat[cat]
		percent := 0.0
		if budget > 0 {
			percent = spent / budget * 100
		}
		progress[cat] = BudgetProgress{Spent: spent, Budget: budget, Percent: percent}
	}
	return progress
}

// Evaluate applies the alert transition rule to each category's progress and
// returns the next state plus the notifications to emit. Only a transition
// into a higher band triggers a notification; dropping to a lower band
// silently rewrites the marker so a later re-crossing alerts again. Categories
// with no budget, no spend, or a non-numeric percent are skipped entirely.
//
// The previous state is not mutated; callers thread the returned state into
// the next evaluation. Callers in an edit/unsaved-changes mode simply do not
// call Evaluate.
func Evaluate(prev AlertState, progress map[string]BudgetProgress) (AlertState, []Notification) {
	next := make(AlertState, len(prev))
	for cat, level := range prev {
		next[cat] = level
	}

	cats := make([]string, 0, len(progress))
	for cat := range progress {
		cats = append(cats, cat)
	}
	sort.Strings(cats)

	var notes []Notification
	for _, cat := range cats {
		p := progress[cat]
		if p.Budget <= 0 || p.Spent <= 0 || math.IsNaN(p.Percent) {
			continue
		}
		was := prev[cat]
		if was == "" {
			was = AlertNone
		}
		switch {
		case p.Percent > 100:
			if was != AlertExceeded {
				notes = append(notes, Notification{
					Severity: SeverityError,
					Message:  fmt.Sprintf("Budget exceeded for %s!", cat),
					Category: cat,
				})
				next[cat] = AlertExceeded
			}
		case p.Percent > 80:
			// Dropping back from exceeded is a silent downgrade; only a
			// rise from the quiet band announces itself.
			if was == AlertNone {
				notes = append(notes, Notification{
					Severity: SeverityWarning,
					Message:  fmt.Sprintf("Budget approaching limit for %s", cat),
					Category: cat,
				})
			}
			next[cat] = AlertApproaching
		default:
			if was != AlertNone {
				next[cat] = AlertNone
			}
		}
	}
	return next, notes
}
