package export

import (
	"strings"
	"time"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

// ItemRow renders an updated item as a journal row: change kind, item id,
// name, store, prices, category path, transaction time, and the export time.
func ItemRow(it core.LineItem, exportedAt time.Time) []any {
	return []any{
		"item_updated",
		it.ID,
		it.DisplayName(),
		it.StoreName,
		it.PriceJPY,
		it.PriceCNY,
		categoryPath(it),
		it.TransactionTime,
		exportedAt.Format(time.RFC3339),
	}
}

// GroupRow renders a saved comparison group as a journal row with its
// member category names joined.
func GroupRow(g upstream.SavedGroup, exportedAt time.Time) []any {
	names := make([]string, 0, len(g.Categories))
	for _, c := range g.Categories {
		names = append(names, strings.Join(c.Path, "/"))
	}
	return []any{
		"group_saved",
		g.ID,
		g.Name,
		strings.Join(names, ", "),
		exportedAt.Format(time.RFC3339),
	}
}

// GroupDeletedRow records a deletion tombstone; the journal keeps history
// instead of erasing rows.
func GroupDeletedRow(id int64, exportedAt time.Time) []any {
	return []any{
		"group_deleted",
		id,
		"",
		"",
		exportedAt.Format(time.RFC3339),
	}
}

func categoryPath(it core.LineItem) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{it.Category1, it.Category2, it.Category3} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}
