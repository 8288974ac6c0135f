// Package worker exports entries to Google Sheets in response to AMQP
// messages, with a periodic catch-up pass for anything a message missed.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/sheets"
	"expenses/internal/storage"
)

type SyncWorker struct {
	storage  *storage.SQLiteRepository
	appender sheets.EntryAppender

	batchSize int
}

func NewSyncWorker(storage *storage.SQLiteRepository, appender sheets.EntryAppender, batchSize int) *SyncWorker {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &SyncWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleSyncMessage processes one entry sync message: load the entry, append
// it to the sheet, record the outcome. A missing entry is acked (it was
// deleted after the message was published), anything else is retried by the
// consumer via nack.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.EntrySyncMessage) error {
	entry, err := w.storage.GetEntry(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			slog.WarnContext(ctx, "Entry no longer exists, skipping sync", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get entry %d: %w", msg.ID, err)
	}

	ref, err := w.appender.Append(ctx, entry)
	if err != nil {
		if markErr := w.storage.MarkEntrySyncError(ctx, msg.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark entry sync error",
				"id", msg.ID, "error", markErr)
		}
		return fmt.Errorf("append entry %d to sheets: %w", msg.ID, err)
	}

	if err := w.storage.MarkEntrySynced(ctx, msg.ID); err != nil {
		// Sheet append succeeded; the catch-up pass may re-export this entry.
		slog.WarnContext(ctx, "Failed to mark entry as synced",
			"id", msg.ID, "error", err)
	}

	slog.InfoContext(ctx, "Synced entry to Google Sheets",
		"entry_id", msg.ID,
		"sheets_ref", ref)

	return nil
}

// ProcessPending exports entries whose sync message was lost. Returns the
// number of entries successfully exported.
func (w *SyncWorker) ProcessPending(ctx context.Context) (int, error) {
	entries, err := w.storage.GetPendingSyncEntries(ctx, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("get pending sync entries: %w", err)
	}

	if len(entries) == 0 {
		return 0, nil
	}

	slog.DebugContext(ctx, "Processing pending sync entries", "count", len(entries))

	synced := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return synced, err
		}

		ref, err := w.appender.Append(ctx, entry)
		if err != nil {
			slog.WarnContext(ctx, "Pending sync failed",
				"entry_id", entry.ID, "error", err)
			if markErr := w.storage.MarkEntrySyncError(ctx, entry.ID); markErr != nil {
				slog.ErrorContext(ctx, "Failed to mark entry sync error",
					"id", entry.ID, "error", markErr)
			}
			continue
		}

		if err := w.storage.MarkEntrySynced(ctx, entry.ID); err != nil {
			slog.WarnContext(ctx, "Failed to mark entry as synced",
				"id", entry.ID, "error", err)
			continue
		}

		slog.InfoContext(ctx, "Synced pending entry",
			"entry_id", entry.ID,
			"sheets_ref", ref)
		synced++
	}

	return synced, nil
}
