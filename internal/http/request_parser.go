// This file implements utilities for parsing and validating HTTP request
// data: JSON body decoding with a size cap, amount parsing, and period
// parameter extraction.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"

	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// DecodeJSONBody decodes the request body into dst, rejecting unknown fields
// and oversized payloads.
func DecodeJSONBody(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

// ParseAmount validates a decimal amount string and returns its float value.
// Rejects non-numeric input, zero, negatives, and more than 2 decimal places.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("amount is required")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.Sign() <= 0 {
		return 0, errors.New("amount must be positive")
	}
	if d.Exponent() < -2 {
		return 0, errors.New("amount has more than 2 decimal places")
	}

	f, _ := d.Float64()
	return f, nil
}

// ParseBudgetAmount is ParseAmount with zero permitted: an empty string or
// any zero-valued decimal ("0", "0.00", "-0") clears the budget.
func ParseBudgetAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	if d.Sign() == 0 {
		return 0, nil
	}
	if d.Sign() < 0 {
		return 0, errors.New("amount must not be negative")
	}
	if d.Exponent() < -2 {
		return 0, errors.New("amount has more than 2 decimal places")
	}

	f, _ := d.Float64()
	return f, nil
}

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams extracts year and month from query parameters, using the
// current date as defaults.
func ParseMonthParams(query url.Values) MonthParams {
	now := time.Now()
	params := MonthParams{
		Year:  now.Year(),
		Month: int(now.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			params.Month = m
		}
	}

	return params
}

// ParsePeriodSelector extracts period and anchor query parameters. Anchor
// format is 2006-01-02; it defaults to today. An absent period yields
// ok = false, meaning no period filtering was requested.
func ParsePeriodSelector(query url.Values) (core.PeriodSelector, bool, error) {
	period := core.Granularity(strings.TrimSpace(query.Get("period")))
	if period == "" {
		return core.PeriodSelector{}, false, nil
	}
	if !period.Valid() {
		return core.PeriodSelector{}, false, fmt.Errorf("invalid period %q", period)
	}

	anchor := time.Now()
	if v := strings.TrimSpace(query.Get("anchor")); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return core.PeriodSelector{}, false, fmt.Errorf("invalid anchor %q", v)
		}
		anchor = parsed
	}

	return core.PeriodSelector{Granularity: period, Anchor: anchor}, true, nil
}
