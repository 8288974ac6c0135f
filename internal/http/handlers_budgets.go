package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/notify"
)

type budgetResponse struct {
	Category string  `json:"category"`
	Year     int     `json:"year"`
	Month    int     `json:"month"`
	Amount   float64 `json:"amount"`
}

type upsertBudgetRequest struct {
	Category string      `json:"category"`
	Year     int         `json:"year"`
	Month    int         `json:"month"`
	Amount   json.Number `json:"amount"`
}

type progressResponse struct {
	Progress      map[string]core.BudgetProgress `json:"progress"`
	Notifications []core.Notification            `json:"notifications"`
}

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListBudgets(w, r)
	case http.MethodPut, http.MethodPost:
		s.handleUpsertBudget(w, r)
	default:
		MethodNotAllowedError("GET, PUT").Write(w)
	}
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFrom(ctx)
	params := ParseMonthParams(r.URL.Query())

	budgets, err := s.repo.ListBudgets(ctx, claims.UserID, params.Year, params.Month)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "List budgets failed", log.FieldError, err)
		InternalServerError("failed to list budgets").Write(w)
		return
	}

	out := make([]budgetResponse, len(budgets))
	for i, b := range budgets {
		out[i] = budgetResponse{
			Category: b.Category,
			Year:     b.Year,
			Month:    b.Month,
			Amount:   b.Amount,
		}
	}

	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleUpsertBudget(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFrom(ctx)
	logger := log.FromContext(ctx)

	var req upsertBudgetRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	// Amount 0 clears the budget, so the positive-amount rule does not apply.
	amount, err := ParseBudgetAmount(req.Amount.String())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	budget := core.Budget{
		Category: strings.TrimSpace(req.Category),
		Year:     req.Year,
		Month:    req.Month,
		Amount:   amount,
		UserID:   claims.UserID,
	}
	if err := budget.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	if err := s.repo.UpsertBudget(ctx, budget); err != nil {
		logger.ErrorContext(ctx, "Upsert budget failed",
			log.FieldError, err,
			log.FieldCategory, budget.Category)
		InternalServerError("failed to save budget").Write(w)
		return
	}

	// Changing the budget set resets alert de-dup state so the next
	// evaluation starts clean.
	s.alertMu.Lock()
	delete(s.alerts, claims.UserID)
	s.alertMu.Unlock()

	NewJSONResponse().Body(budgetResponse{
		Category: budget.Category,
		Year:     budget.Year,
		Month:    budget.Month,
		Amount:   budget.Amount,
	}).Write(w)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		MethodNotAllowedError("GET").Write(w)
		return
	}
	ctx := r.Context()
	claims := claimsFrom(ctx)
	logger := log.FromContext(ctx)
	params := ParseMonthParams(r.URL.Query())

	entries, err := s.entries.ListEntries(ctx, claims.UserID)
	if err != nil {
		logger.ErrorContext(ctx, "List entries failed", log.FieldError, err)
		InternalServerError("failed to compute progress").Write(w)
		return
	}
	budgets, err := s.repo.ListBudgets(ctx, claims.UserID, params.Year, params.Month)
	if err != nil {
		logger.ErrorContext(ctx, "List budgets failed", log.FieldError, err)
		InternalServerError("failed to compute progress").Write(w)
		return
	}

	progress := core.Progress(entries, budgets, s.rates.Get(), core.ExpenseCategories, params.Year, params.Month)

	s.alertMu.Lock()
	prev := s.alerts[claims.UserID]
	next, notes := core.Evaluate(prev, progress)
	s.alerts[claims.UserID] = next
	s.alertMu.Unlock()

	s.dispatchAlerts(r, claims.UserID, params, progress, notes)

	if notes == nil {
		notes = []core.Notification{}
	}
	NewJSONResponse().Body(progressResponse{
		Progress:      progress,
		Notifications: notes,
	}).Write(w)
}

// dispatchAlerts forwards each new notification to the sink.
func (s *Server) dispatchAlerts(
	r *http.Request,
	userID int64,
	params MonthParams,
	progress map[string]core.BudgetProgress,
	notes []core.Notification,
) {
	if s.sink == nil || len(notes) == 0 {
		return
	}
	ctx := r.Context()

	for _, note := range notes {
		alert := notify.Alert{
			UserID:       userID,
			Category:     note.Category,
			Year:         params.Year,
			Month:        params.Month,
			Percent:      progress[note.Category].Percent,
			Notification: note,
		}
		if err := s.sink.Notify(ctx, alert); err != nil {
			log.FromContext(ctx).WarnContext(ctx, "Alert dispatch failed",
				log.FieldError, err,
				log.FieldCategory, note.Category)
		}
	}
}
