// Package services composes the local repository with the export pipeline:
// every mutation lands in sqlite first, then a change message is published
// for the export worker. Publish failures never fail the page operation.
package services

import (
	"context"
	"fmt"
	"log/slog"

	"hamsterwallet/internal/amqp"
	"hamsterwallet/internal/core"
	"hamsterwallet/internal/storage"
	"hamsterwallet/internal/upstream"
)

// ExportService wraps the sqlite repository, forwarding reads untouched and
// publishing export messages after successful writes.
type ExportService struct {
	upstream.Backend
	repo *storage.SQLiteRepository
	mq   *amqp.Client
}

func NewExportService(repo *storage.SQLiteRepository, mq *amqp.Client) *ExportService {
	return &ExportService{Backend: repo, repo: repo, mq: mq}
}

// UpdateItem writes locally, then notifies the export worker.
func (s *ExportService) UpdateItem(ctx context.Context, id int64, update upstream.ItemUpdate) (core.LineItem, error) {
	item, err := s.repo.UpdateItem(ctx, id, update)
	if err != nil {
		return core.LineItem{}, err
	}
	s.publish(ctx, amqp.NewExportMessage(amqp.ExportItemUpdated, id))
	return item, nil
}

// CreateGroup persists the group, then notifies the export worker.
func (s *ExportService) CreateGroup(ctx context.Context, name string, categories []core.SelectedCategory) (int64, error) {
	id, err := s.repo.CreateGroup(ctx, name, categories)
	if err != nil {
		return 0, err
	}
	s.publish(ctx, amqp.NewExportMessage(amqp.ExportGroupSaved, id))
	return id, nil
}

// UpdateGroup persists the change, then notifies the export worker.
func (s *ExportService) UpdateGroup(ctx context.Context, id int64, name string, categories []core.SelectedCategory) error {
	if err := s.repo.UpdateGroup(ctx, id, name, categories); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewExportMessage(amqp.ExportGroupSaved, id))
	return nil
}

// DeleteGroup removes the group, then notifies the export worker.
func (s *ExportService) DeleteGroup(ctx context.Context, id int64) error {
	if err := s.repo.DeleteGroup(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewExportMessage(amqp.ExportGroupDeleted, id))
	return nil
}

func (s *ExportService) publish(ctx context.Context, msg *amqp.ExportMessage) {
	if s.mq == nil {
		return
	}
	if err := s.mq.PublishExport(ctx, msg); err != nil {
		// The write already succeeded; the export catches up on the next
		// successful publish or a worker re-scan.
		slog.ErrorContext(ctx, "Failed to publish export message",
			"kind", msg.Kind, "id", msg.ID, "error", err)
	}
}

// Close releases the repository and the broker connection.
func (s *ExportService) Close() error {
	var errs []error
	if s.repo != nil {
		if err := s.repo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if s.mq != nil {
		if err := s.mq.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close export service: %v", errs)
	}
	return nil
}
