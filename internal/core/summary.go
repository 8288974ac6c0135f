package core

import "time"

type (
	// Summary holds consolidated totals in the base currency.
	Summary struct {
		Income  float64
		Expense float64
		Balance float64
	}

	// MonthBucket is one month of the yearly series.
	MonthBucket struct {
		Label   string
		Income  float64
		Expense float64
	}

	// CategoryAmount is converted spend aggregated under one category.
	CategoryAmount struct {
		Name   string
		Amount float64
	}
)

// Totals folds the full entry set into income, expense, and balance, all
// converted to the base currency. Balance is income minus expense by
// construction. Empty input yields the zero Summary.
func Totals(entries []Entry, rates RateTable) Summary {
	var s Summary
	for _, e := range entries {
		amt := rates.ToBase(e.Amount, e.Currency)
		if e.Type == Income {
			s.Income += amt
		} else {
			s.Expense += amt
		}
	}
	s.Balance = s.Income - s.Expense
	return s
}

// MonthlySeries produces exactly 12 buckets, January through December, for
// the given year. Months with no entries yield zero totals, never omissions.
func MonthlySeries(entries []Entry, rates RateTable, year int) []MonthBucket {
	series := make([]MonthBucket, 12)
	for i := range series {
		series[i].Label = time.Month(i + 1).String()[:3]
	}
	for _, e := range entries {
		if e.Date.Year() != year {
			continue
		}
		b := &series[int(e.Date.Month())-1]
		amt := rates.ToBase(e.Amount, e.Currency)
		if e.Type == Income {
			b.Income += amt
		} else {
			b.Expense += amt
		}
	}
	return series
}

// CategoryBreakdown computes converted expense spend per category for the
// given year and month. Categories appear in the order of the supplied list,
// and only when their spend is strictly positive.
func CategoryBreakdown(entries []Entry, rates RateTable, categories []string, year, month int) []CategoryAmount {
	var out []CategoryAmount
	for _, cat := range categories {
		spent := CategorySpend(entries, rates, cat, year, month)
		if spent > 0 {
			out = append(out, CategoryAmount{Name: cat, Amount: spent})
		}
	}
	return out
}

// CategorySpend sums converted expense amounts for one category in a month.
func CategorySpend(entries []Entry, rates RateTable, category string, year, month int) float64 {
	var sum float64
	for _, e := range entries {
		if e.Type != Expense || e.Category != category {
			continue
		}
		if e.Date.Year() != year || int(e.Date.Month()) != month {
			continue
		}
		sum += rates.ToBase(e.Amount, e.Currency)
	}
	return sum
}
