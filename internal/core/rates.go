// Package core implements the aggregation and budget-alert engine: pure,
// synchronous computations over entries, budgets, and exchange rates.
//
// This file handles currency conversion to the base currency.
package core

// RateTable maps a currency code to its exchange rate relative to the base
// currency: units of that currency per one unit of base. The base currency
// itself maps to 1.0. A table is a wholesale snapshot, valid for the session.
type RateTable map[string]float64

// ToBase converts an amount in the given currency to the base currency.
//
// If the currency has a known non-zero rate r, the result is amount / r.
// An unknown or zero rate is a silent passthrough: the amount is returned
// unchanged. Never fails; rounding is a presentation concern.
func (t RateTable) ToBase(amount float64, currency string) float64 {
	if r, ok := t[currency]; ok && r != 0 {
		return amount / r
	}
	return amount
}

// Clone returns a copy of the table so callers can hold a stable snapshot.
func (t RateTable) Clone() RateTable {
	out := make(RateTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
