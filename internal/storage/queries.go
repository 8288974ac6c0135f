package storage

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type User struct {
	ID           int64
	Username     string
	PasswordHash string
}

type Entry struct {
	ID        int64
	UserID    int64
	Title     string
	Amount    float64
	Currency  string
	Category  string
	Type      string
	EntryDate string
	Synced    int64
	SyncError int64
}

type Budget struct {
	ID       int64
	UserID   int64
	Category string
	Year     int64
	Month    int64
	Amount   float64
}

const createUser = `
INSERT INTO users (username, password_hash) VALUES (?, ?)
`

type CreateUserParams struct {
	Username     string
	PasswordHash string
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createUser, arg.Username, arg.PasswordHash)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const getUserByUsername = `
SELECT id, username, password_hash FROM users WHERE username = ?
`

func (q *Queries) GetUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx, getUserByUsername, username)
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash)
	return u, err
}

const createEntry = `
INSERT INTO entries (user_id, title, amount, currency, category, type, entry_date)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

type CreateEntryParams struct {
	UserID    int64
	Title     string
	Amount    float64
	Currency  string
	Category  string
	Type      string
	EntryDate string
}

func (q *Queries) CreateEntry(ctx context.Context, arg CreateEntryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createEntry,
		arg.UserID, arg.Title, arg.Amount, arg.Currency, arg.Category, arg.Type, arg.EntryDate)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const listEntriesByUser = `
SELECT id, user_id, title, amount, currency, category, type, entry_date, synced, sync_error
FROM entries WHERE user_id = ? ORDER BY entry_date DESC, id DESC
`

func (q *Queries) ListEntriesByUser(ctx context.Context, userID int64) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, listEntriesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Currency, &e.Category, &e.Type, &e.EntryDate, &e.Synced, &e.SyncError); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const getEntry = `
SELECT id, user_id, title, amount, currency, category, type, entry_date, synced, sync_error
FROM entries WHERE id = ?
`

func (q *Queries) GetEntry(ctx context.Context, id int64) (Entry, error) {
	row := q.db.QueryRowContext(ctx, getEntry, id)
	var e Entry
	err := row.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Currency, &e.Category, &e.Type, &e.EntryDate, &e.Synced, &e.SyncError)
	return e, err
}

const deleteEntry = `
DELETE FROM entries WHERE id = ? AND user_id = ?
`

type DeleteEntryParams struct {
	ID     int64
	UserID int64
}

func (q *Queries) DeleteEntry(ctx context.Context, arg DeleteEntryParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteEntry, arg.ID, arg.UserID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listBudgets = `
SELECT id, user_id, category, year, month, amount
FROM budgets WHERE user_id = ? AND year = ? AND month = ? ORDER BY category
`

type ListBudgetsParams struct {
	UserID int64
	Year   int64
	Month  int64
}

func (q *Queries) ListBudgets(ctx context.Context, arg ListBudgetsParams) ([]Budget, error) {
	rows, err := q.db.QueryContext(ctx, listBudgets, arg.UserID, arg.Year, arg.Month)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Budget
	for rows.Next() {
		var b Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Category, &b.Year, &b.Month, &b.Amount); err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

const upsertBudget = `
INSERT INTO budgets (user_id, category, year, month, amount)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (user_id, category, year, month) DO UPDATE SET amount = excluded.amount
`

type UpsertBudgetParams struct {
	UserID   int64
	Category string
	Year     int64
	Month    int64
	Amount   float64
}

func (q *Queries) UpsertBudget(ctx context.Context, arg UpsertBudgetParams) error {
	_, err := q.db.ExecContext(ctx, upsertBudget, arg.UserID, arg.Category, arg.Year, arg.Month, arg.Amount)
	return err
}

const getPendingSyncEntries = `
SELECT id, user_id, title, amount, currency, category, type, entry_date, synced, sync_error
FROM entries WHERE synced = 0 AND sync_error = 0 ORDER BY id LIMIT ?
`

func (q *Queries) GetPendingSyncEntries(ctx context.Context, limit int64) ([]Entry, error) {
	rows, err := q.db.QueryContext(ctx, getPendingSyncEntries, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.Title, &e.Amount, &e.Currency, &e.Category, &e.Type, &e.EntryDate, &e.Synced, &e.SyncError); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

const markEntrySynced = `
UPDATE entries SET synced = 1, sync_error = 0 WHERE id = ?
`

func (q *Queries) MarkEntrySynced(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markEntrySynced, id)
	return err
}

const markEntrySyncError = `
UPDATE entries SET sync_error = 1 WHERE id = ?
`

func (q *Queries) MarkEntrySyncError(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, markEntrySyncError, id)
	return err
}
