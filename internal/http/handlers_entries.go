package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"expenses/internal/core"
	"expenses/internal/log"
	"expenses/internal/storage"
)

type entryResponse struct {
	ID       int64   `json:"id"`
	Title    string  `json:"title"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Category string  `json:"category"`
	Type     string  `json:"type"`
	Date     string  `json:"date"`
}

type createEntryRequest struct {
	Title    string      `json:"title"`
	Amount   json.Number `json:"amount"`
	Currency string      `json:"currency"`
	Category string      `json:"category"`
	Type     string      `json:"type"`
	Date     string      `json:"date"`
}

func toEntryResponse(e core.Entry) entryResponse {
	return entryResponse{
		ID:       e.ID,
		Title:    e.Title,
		Amount:   e.Amount,
		Currency: e.Currency,
		Category: e.Category,
		Type:     string(e.Type),
		Date:     e.Date.Format("2006-01-02"),
	}
}

func (s *Server) handleEntries(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListEntries(w, r)
	case http.MethodPost:
		s.handleCreateEntry(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFrom(ctx)

	entries, err := s.entries.ListEntries(ctx, claims.UserID)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "List entries failed", log.FieldError, err)
		InternalServerError("failed to list entries").Write(w)
		return
	}

	sel, usePeriod, err := ParsePeriodSelector(r.URL.Query())
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	search := r.URL.Query().Get("search")
	if usePeriod {
		entries = core.FilterEntries(entries, sel, search)
	} else if term := strings.ToLower(strings.TrimSpace(search)); term != "" {
		// search without a period spans all entries
		matched := entries[:0]
		for _, e := range entries {
			if strings.Contains(strings.ToLower(e.Title), term) ||
				strings.Contains(strings.ToLower(e.Category), term) {
				matched = append(matched, e)
			}
		}
		entries = matched
	}

	out := make([]entryResponse, len(entries))
	for i, e := range entries {
		out[i] = toEntryResponse(e)
	}

	NewJSONResponse().Body(out).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	claims := claimsFrom(ctx)
	logger := log.FromContext(ctx)

	var req createEntryRequest
	if err := DecodeJSONBody(r, &req); err != nil {
		BadRequestError("invalid request body").Write(w)
		return
	}

	amount, err := ParseAmount(req.Amount.String())
	if err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	date := time.Now().UTC()
	if strings.TrimSpace(req.Date) != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			UnprocessableEntityError("invalid date, expected YYYY-MM-DD").Write(w)
			return
		}
	}

	entry := core.Entry{
		Title:    strings.TrimSpace(req.Title),
		Amount:   amount,
		Currency: strings.TrimSpace(req.Currency),
		Category: strings.TrimSpace(req.Category),
		Type:     core.EntryType(strings.ToLower(strings.TrimSpace(req.Type))),
		Date:     date,
		UserID:   claims.UserID,
	}
	if err := entry.Validate(); err != nil {
		UnprocessableEntityError(err.Error()).Write(w)
		return
	}

	id, err := s.entries.CreateEntry(ctx, entry)
	if err != nil {
		logger.ErrorContext(ctx, "Create entry failed",
			log.FieldError, err,
			log.FieldEntryTitle, entry.Title)
		InternalServerError("failed to save entry").Write(w)
		return
	}
	entry.ID = id

	s.invalidateUserCaches(claims.UserID)

	logger.InfoContext(ctx, "Entry created",
		log.FieldEntryID, id,
		log.FieldUserID, claims.UserID,
		log.FieldAmount, entry.Amount,
		log.FieldCurrency, entry.Currency)

	NewJSONResponse().Status(http.StatusCreated).Body(toEntryResponse(entry)).Write(w)
}

func (s *Server) handleEntryByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		MethodNotAllowedError("DELETE").Write(w)
		return
	}
	ctx := r.Context()
	claims := claimsFrom(ctx)

	idStr := strings.TrimPrefix(r.URL.Path, "/api/entries/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id <= 0 {
		BadRequestError("invalid entry id").Write(w)
		return
	}

	if err := s.entries.DeleteEntry(ctx, id, claims.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			NotFoundError("entry not found").Write(w)
			return
		}
		log.FromContext(ctx).ErrorContext(ctx, "Delete entry failed",
			log.FieldError, err,
			log.FieldEntryID, id)
		InternalServerError("failed to delete entry").Write(w)
		return
	}

	s.invalidateUserCaches(claims.UserID)

	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}
