// Package worker consumes export messages and mirrors the referenced
// records into an append-only spreadsheet journal.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hamsterwallet/internal/amqp"
	"hamsterwallet/internal/core"
	"hamsterwallet/internal/export"
	"hamsterwallet/internal/upstream"
)

// Source is the subset of the backend the worker reads from. Messages only
// carry ids; the worker always refetches the current record, so redelivered
// messages converge on the latest state.
type Source interface {
	Item(ctx context.Context, id int64) (core.LineItem, error)
	ListGroups(ctx context.Context) ([]upstream.SavedGroup, error)
}

// ExportWorker translates export messages into journal rows.
type ExportWorker struct {
	source   Source
	appender export.RowAppender
}

func NewExportWorker(source Source, appender export.RowAppender) *ExportWorker {
	return &ExportWorker{
		source:   source,
		appender: appender,
	}
}

// HandleExportMessage processes a single export message from AMQP.
func (w *ExportWorker) HandleExportMessage(ctx context.Context, msg *amqp.ExportMessage) error {
	slog.InfoContext(ctx, "Processing export message",
		"kind", msg.Kind,
		"id", msg.ID)

	now := time.Now()

	switch msg.Kind {
	case amqp.ExportItemUpdated:
		item, err := w.source.Item(ctx, msg.ID)
		if err != nil {
			return fmt.Errorf("load item %d: %w", msg.ID, err)
		}
		return w.append(ctx, msg, export.ItemRow(item, now))

	case amqp.ExportGroupSaved:
		group, err := w.findGroup(ctx, msg.ID)
		if err != nil {
			return fmt.Errorf("load group %d: %w", msg.ID, err)
		}
		return w.append(ctx, msg, export.GroupRow(group, now))

	case amqp.ExportGroupDeleted:
		// The record is already gone; journal a tombstone instead.
		return w.append(ctx, msg, export.GroupDeletedRow(msg.ID, now))

	default:
		return fmt.Errorf("unknown export kind %q", msg.Kind)
	}
}

// Run consumes export messages until the context is cancelled.
func (w *ExportWorker) Run(ctx context.Context, mq *amqp.Client) error {
	return mq.ConsumeExport(ctx, func(msg *amqp.ExportMessage) error {
		handleCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		return w.HandleExportMessage(handleCtx, msg)
	})
}

func (w *ExportWorker) append(ctx context.Context, msg *amqp.ExportMessage, row []any) error {
	if err := w.appender.AppendRow(ctx, row); err != nil {
		slog.ErrorContext(ctx, "Failed to append export row",
			"kind", msg.Kind,
			"id", msg.ID,
			"error", err)
		return fmt.Errorf("append export row: %w", err)
	}

	slog.InfoContext(ctx, "Exported record",
		"kind", msg.Kind,
		"id", msg.ID)

	return nil
}

func (w *ExportWorker) findGroup(ctx context.Context, id int64) (upstream.SavedGroup, error) {
	groups, err := w.source.ListGroups(ctx)
	if err != nil {
		return upstream.SavedGroup{}, err
	}
	for _, g := range groups {
		if g.ID == id {
			return g, nil
		}
	}
	return upstream.SavedGroup{}, fmt.Errorf("group %d: %w", id, core.ErrGroupNotFound)
}
