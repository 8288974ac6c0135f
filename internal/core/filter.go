package core

import (
	"strings"
	"time"
)

const (
	GranularityDay   Granularity = "day"
	GranularityMonth Granularity = "month"
	GranularityYear  Granularity = "year"
)

type (
	// Granularity is the time-bucket size used to filter entries.
	Granularity string

	// PeriodSelector anchors a granularity at a reference date.
	// Transient selection state; never persisted.
	PeriodSelector struct {
		Granularity Granularity
		Anchor      time.Time
	}
)

func (g Granularity) Valid() bool {
	switch g {
	case GranularityDay, GranularityMonth, GranularityYear:
		return true
	}
	return false
}

// Matches reports whether d falls inside the selected period. The comparison
// uses calendar components, so an entry dated exactly on the anchor's day
// matches under day granularity regardless of time of day.
func (s PeriodSelector) Matches(d time.Time) bool {
	switch s.Granularity {
	case GranularityDay:
		return d.Day() == s.Anchor.Day() &&
			d.Month() == s.Anchor.Month() &&
			d.Year() == s.Anchor.Year()
	case GranularityMonth:
		return d.Month() == s.Anchor.Month() && d.Year() == s.Anchor.Year()
	case GranularityYear:
		return d.Year() == s.Anchor.Year()
	}
	return false
}

// FilterEntries returns the entries matching the period selector and, when
// search is non-empty after trimming, whose title or category contains the
// term case-insensitively. The result preserves input order (stable filter).
// Pure function of its inputs; callable repeatedly.
func FilterEntries(entries []Entry, sel PeriodSelector, search string) []Entry {
	term := strings.ToLower(strings.TrimSpace(search))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if !sel.Matches(e.Date) {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(e.Title), term) &&
			!strings.Contains(strings.ToLower(e.Category), term) {
			continue
		}
		out = append(out, e)
	}
	return out
}
