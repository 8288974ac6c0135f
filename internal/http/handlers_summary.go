package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
)

type summaryResponse struct {
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
	Balance float64 `json:"balance"`
}

type monthBucketResponse struct {
	Label   string  `json:"label"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

type categoryAmountResponse struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
}

type ratesResponse struct {
	Base  string             `json:"base"`
	Rates map[string]float64 `json:"rates"`
}

type categoriesResponse struct {
	Expense    []string `json:"expense"`
	Income     []string `json:"income"`
	Currencies []string `json:"currencies"`
}

func cacheUserPrefix(userID int64) string {
	return fmt.Sprintf("user:%d:", userID)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	ctx := r.Context()
	claims := claimsFrom(ctx)

	key := cacheUserPrefix(claims.UserID) + "summary"
	if cached, ok := s.summaryCache.Get(key); ok {
		NewJSONResponse().Body(cached).Write(w)
		return
	}

	entries, err := s.entries.ListEntries(ctx, claims.UserID)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "List entries failed", log.FieldError, err)
		InternalServerError("failed to compute summary").Write(w)
		return
	}

	totals := core.Totals(entries, s.rates.Get())
	resp := summaryResponse{
		Income:  totals.Income,
		Expense: totals.Expense,
		Balance: totals.Balance,
	}
	s.summaryCache.Set(key, resp)

	NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleSummaryMonthly(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	ctx := r.Context()
	claims := claimsFrom(ctx)

	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			BadRequestError("invalid year").Write(w)
			return
		}
		year = parsed
	}

	key := fmt.Sprintf("%smonthly:%d", cacheUserPrefix(claims.UserID), year)
	if cached, ok := s.monthlyCache.Get(key); ok {
		NewJSONResponse().Body(cached).Write(w)
		return
	}

	entries, err := s.entries.ListEntries(ctx, claims.UserID)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "List entries failed", log.FieldError, err)
		InternalServerError("failed to compute monthly series").Write(w)
		return
	}

	series := core.MonthlySeries(entries, s.rates.Get(), year)
	resp := make([]monthBucketResponse, len(series))
	for i, b := range series {
		resp[i] = monthBucketResponse{Label: b.Label, Income: b.Income, Expense: b.Expense}
	}
	s.monthlyCache.Set(key, resp)

	NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleSummaryCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	ctx := r.Context()
	claims := claimsFrom(ctx)
	params := ParseMonthParams(r.URL.Query())

	key := fmt.Sprintf("%scategories:%d-%02d", cacheUserPrefix(claims.UserID), params.Year, params.Month)
	if cached, ok := s.categoryCache.Get(key); ok {
		NewJSONResponse().Body(cached).Write(w)
		return
	}

	entries, err := s.entries.ListEntries(ctx, claims.UserID)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "List entries failed", log.FieldError, err)
		InternalServerError("failed to compute category breakdown").Write(w)
		return
	}

	breakdown := core.CategoryBreakdown(entries, s.rates.Get(), core.ExpenseCategories, params.Year, params.Month)
	resp := make([]categoryAmountResponse, len(breakdown))
	for i, c := range breakdown {
		resp[i] = categoryAmountResponse{Name: c.Name, Amount: c.Amount}
	}
	s.categoryCache.Set(key, resp)

	NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	NewJSONResponse().Body(ratesResponse{
		Base:  core.BaseCurrency,
		Rates: s.rates.Get(),
	}).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}

	NewJSONResponse().Body(categoriesResponse{
		Expense:    core.ExpenseCategories,
		Income:     core.IncomeCategories,
		Currencies: core.Currencies,
	}).Write(w)
}
