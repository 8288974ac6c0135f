package core

import (
	"errors"
	"strings"
	"time"
)

// BaseCurrency is the currency all aggregates are reported in.
const BaseCurrency = "USD"

const (
	Income  EntryType = "income"
	Expense EntryType = "expense"
)

type (
	EntryType string

	// Entry is a single income or expense record. Entries are immutable
	// once created; the only mutation is deletion.
	Entry struct {
		ID       int64
		Title    string
		Amount   float64
		Currency string
		Category string
		Type     EntryType
		Date     time.Time
		UserID   int64
	}

	// Budget is the configured monthly limit for one expense category.
	// Amount 0 means "no budget configured" and is excluded from progress.
	Budget struct {
		Category string
		Year     int
		Month    int // 1-12
		Amount   float64
		UserID   int64
	}
)

// Default taxonomy presented by clients. The aggregation functions take
// category lists as parameters; these are the seed values.
var (
	ExpenseCategories = []string{"Food", "Transport", "Shopping", "Bills", "Entertainment", "Other"}
	IncomeCategories  = []string{"Salary", "Bonus", "Investment", "Gift", "Freelance", "Other"}
	Currencies        = []string{"USD", "EUR", "GBP", "LBP"}
)

var (
	ErrEmptyTitle    = errors.New("empty title")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidType   = errors.New("invalid entry type")
	ErrEmptyCategory = errors.New("empty category")
	ErrEmptyCurrency = errors.New("empty currency")
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidYear   = errors.New("invalid year")
)

func (t EntryType) Valid() bool {
	return t == Income || t == Expense
}

func (e Entry) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if e.Amount <= 0 {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(e.Currency) == "" {
		return ErrEmptyCurrency
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if !e.Type.Valid() {
		return ErrInvalidType
	}
	if e.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Year < 1 {
		return ErrInvalidYear
	}
	if b.Month < 1 || b.Month > 12 {
		return ErrInvalidMonth
	}
	if b.Amount < 0 {
		return ErrInvalidAmount
	}
	return nil
}
