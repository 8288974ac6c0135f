// Package services provides business logic and orchestration services.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/storage"
)

// EntryService orchestrates entry operations across SQLite and AMQP.
type EntryService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
}

func NewEntryService(storage *storage.SQLiteRepository, amqpClient *amqp.Client) *EntryService {
	return &EntryService{
		storage:    storage,
		amqpClient: amqpClient,
	}
}

// CreateEntry saves an entry locally and publishes a sync message.
func (s *EntryService) CreateEntry(ctx context.Context, e core.Entry) (int64, error) {
	// Save to SQLite first (fast, reliable)
	id, err := s.storage.CreateEntry(ctx, e)
	if err != nil {
		return 0, fmt.Errorf("save entry: %w", err)
	}

	// Publish async sync message (non-blocking)
	if err := s.publishSyncMessage(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"id", id, "error", err)
		// Don't fail the request - entry is saved locally
	}

	return id, nil
}

// DeleteEntry removes an entry owned by the given user.
func (s *EntryService) DeleteEntry(ctx context.Context, id, userID int64) error {
	if err := s.storage.DeleteEntry(ctx, id, userID); err != nil {
		return err
	}
	return nil
}

func (s *EntryService) ListEntries(ctx context.Context, userID int64) ([]core.Entry, error) {
	return s.storage.ListEntries(ctx, userID)
}

func (s *EntryService) publishSyncMessage(ctx context.Context, id int64) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping sync message")
		return nil
	}

	return s.amqpClient.PublishEntrySync(ctx, id)
}

// Close closes both storage and AMQP connections.
func (s *EntryService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close entry service: %v", errs)
	}

	return nil
}
