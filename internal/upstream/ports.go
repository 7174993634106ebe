// Package upstream defines the ports through which the presentation layer
// reaches the spending-data backend. The REST adapter talks to the real
// HamsterWallet API; the sqlite and memory adapters satisfy the same
// contracts locally.
package upstream

import (
	"context"

	"hamsterwallet/internal/core"
)

// SavedGroup is a comparison group as persisted by the backend.
type SavedGroup struct {
	ID         int64                   `json:"id"`
	Name       string                  `json:"name"`
	Categories []core.SelectedCategory `json:"categories"`
}

// ItemUpdate is the editable portion of a line item. Categories are id-based;
// the category_1..3 echo strings are derived by the backend from CategoryID.
type ItemUpdate struct {
	NameZH         string  `json:"name_zh"`
	NameJA         string  `json:"name_ja"`
	PriceJPY       float64 `json:"price_jpy"`
	PriceCNY       float64 `json:"price_cny"`
	IsSpecialOffer bool    `json:"is_special_offer"`
	SpecialInfo    string  `json:"special_info"`
	Notes          string  `json:"notes"`
	CategoryID     int64   `json:"category_id,omitempty"`
}

// Ports for the data-mining and analytics pages.
type (
	// TreeReader fetches the 3-level category tree for a date range.
	TreeReader interface {
		CategoryTree(ctx context.Context, filter core.DateFilter) ([]core.CategoryNode, error)
	}

	// ComparisonReader aggregates one named category selection into a daily
	// series. The page always submits a single selection per call.
	ComparisonReader interface {
		CompareSelection(ctx context.Context, name string, categories []core.SelectedCategory, filter core.DateFilter) (*core.ComparisonSeries, error)
	}

	// GroupStore persists named comparison groups.
	GroupStore interface {
		ListGroups(ctx context.Context) ([]SavedGroup, error)
		CreateGroup(ctx context.Context, name string, categories []core.SelectedCategory) (id int64, err error)
		UpdateGroup(ctx context.Context, id int64, name string, categories []core.SelectedCategory) error
		DeleteGroup(ctx context.Context, id int64) error
	}

	// ItemStore reads and edits individual line items.
	ItemStore interface {
		Item(ctx context.Context, id int64) (core.LineItem, error)
		UpdateItem(ctx context.Context, id int64, update ItemUpdate) (core.LineItem, error)
	}

	// AnalyticsReader serves the read-only aggregates of the analytics page.
	AnalyticsReader interface {
		Dashboard(ctx context.Context, filter core.DateFilter) (core.DashboardMetrics, error)
		Trend(ctx context.Context, filter core.DateFilter) ([]core.TrendPoint, error)
		CategoryBreakdown(ctx context.Context, filter core.DateFilter, level int, parent string) (core.CategoryBreakdown, error)
		DailyItems(ctx context.Context, date string) ([]core.LineItem, error)
		CategoryItems(ctx context.Context, category string, level int, filter core.DateFilter) ([]core.LineItem, error)
	}
)

// Backend bundles every port the pages need from a single data source.
type Backend interface {
	TreeReader
	ComparisonReader
	GroupStore
	ItemStore
	AnalyticsReader
}
