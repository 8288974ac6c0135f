package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expenses/internal/core"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, username, passwordHash string) (int64, error) {
	id, err := r.queries.CreateUser(ctx, CreateUserParams{
		Username:     username,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrUsernameTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User created", "id", id, "username", username)
	return id, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (User, error) {
	u, err := r.queries.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user by username: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.Entry) (int64, error) {
	id, err := r.queries.CreateEntry(ctx, CreateEntryParams{
		UserID:    e.UserID,
		Title:     e.Title,
		Amount:    e.Amount,
		Currency:  e.Currency,
		Category:  e.Category,
		Type:      string(e.Type),
		EntryDate: e.Date.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved to SQLite",
		"id", id,
		"title", e.Title,
		"amount", e.Amount,
		"currency", e.Currency,
		"type", e.Type)

	return id, nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context, userID int64) ([]core.Entry, error) {
	dbEntries, err := r.queries.ListEntriesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}

	entries := make([]core.Entry, len(dbEntries))
	for i, e := range dbEntries {
		entries[i], err = toCoreEntry(e)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id int64) (core.Entry, error) {
	e, err := r.queries.GetEntry(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Entry{}, ErrNotFound
		}
		return core.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	return toCoreEntry(e)
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id, userID int64) error {
	affected, err := r.queries.DeleteEntry(ctx, DeleteEntryParams{ID: id, UserID: userID})
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	slog.InfoContext(ctx, "Entry deleted", "id", id, "user_id", userID)
	return nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64, year, month int) ([]core.Budget, error) {
	dbBudgets, err := r.queries.ListBudgets(ctx, ListBudgetsParams{
		UserID: userID,
		Year:   int64(year),
		Month:  int64(month),
	})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	budgets := make([]core.Budget, len(dbBudgets))
	for i, b := range dbBudgets {
		budgets[i] = core.Budget{
			Category: b.Category,
			Year:     int(b.Year),
			Month:    int(b.Month),
			Amount:   b.Amount,
			UserID:   b.UserID,
		}
	}
	return budgets, nil
}

func (r *SQLiteRepository) UpsertBudget(ctx context.Context, b core.Budget) error {
	err := r.queries.UpsertBudget(ctx, UpsertBudgetParams{
		UserID:   b.UserID,
		Category: b.Category,
		Year:     int64(b.Year),
		Month:    int64(b.Month),
		Amount:   b.Amount,
	})
	if err != nil {
		return fmt.Errorf("upsert budget: %w", err)
	}

	slog.InfoContext(ctx, "Budget saved",
		"user_id", b.UserID,
		"category", b.Category,
		"year", b.Year,
		"month", b.Month,
		"amount", b.Amount)

	return nil
}

// GetPendingSyncEntries returns entries not yet exported to Google Sheets.
func (r *SQLiteRepository) GetPendingSyncEntries(ctx context.Context, limit int) ([]core.Entry, error) {
	dbEntries, err := r.queries.GetPendingSyncEntries(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("get pending sync entries: %w", err)
	}

	entries := make([]core.Entry, len(dbEntries))
	for i, e := range dbEntries {
		entries[i], err = toCoreEntry(e)
		if err != nil {
			return nil, err
		}
	}
	return entries, nil
}

func (r *SQLiteRepository) MarkEntrySynced(ctx context.Context, id int64) error {
	if err := r.queries.MarkEntrySynced(ctx, id); err != nil {
		return fmt.Errorf("mark entry synced: %w", err)
	}

	slog.InfoContext(ctx, "Entry marked as synced", "id", id)
	return nil
}

func (r *SQLiteRepository) MarkEntrySyncError(ctx context.Context, id int64) error {
	if err := r.queries.MarkEntrySyncError(ctx, id); err != nil {
		return fmt.Errorf("mark entry sync error: %w", err)
	}

	slog.WarnContext(ctx, "Entry marked with sync error", "id", id)
	return nil
}

func toCoreEntry(e Entry) (core.Entry, error) {
	date, err := time.Parse(time.RFC3339, e.EntryDate)
	if err != nil {
		return core.Entry{}, fmt.Errorf("parse entry date %q: %w", e.EntryDate, err)
	}
	return core.Entry{
		ID:       e.ID,
		Title:    e.Title,
		Amount:   e.Amount,
		Currency: e.Currency,
		Category: e.Category,
		Type:     core.EntryType(e.Type),
		Date:     date,
		UserID:   e.UserID,
	}, nil
}
