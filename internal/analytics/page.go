// Package analytics holds the analytics page session: dashboard metrics,
// the spending trend, the category pie with its level drill-down stack, and
// the item list loaded by clicking a trend date or a pie slice.
package analytics

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

// ListKind tags where the current item list came from. The two sources
// render with different cards and must never be conflated.
type ListKind string

const (
	ListNone     ListKind = ""
	ListDaily    ListKind = "daily"
	ListCategory ListKind = "category"
)

// ItemList is the loaded item list with its origin context.
type ItemList struct {
	Kind     ListKind        `json:"kind"`
	Date     string          `json:"date,omitempty"`
	Category string          `json:"category,omitempty"`
	Level    int             `json:"level,omitempty"`
	Items    []core.LineItem `json:"items"`
}

// Page is the analytics page state machine. Safe for concurrent use.
type Page struct {
	reader upstream.AnalyticsReader

	mu        sync.Mutex
	filter    core.DateFilter
	level     int
	stack     []string
	metrics   core.DashboardMetrics
	trend     []core.TrendPoint
	breakdown core.CategoryBreakdown
	list      ItemList
}

// NewPage starts at pie level 1 with the last month selected.
func NewPage(reader upstream.AnalyticsReader) *Page {
	return &Page{
		reader: reader,
		filter: core.LastMonths(1),
		level:  1,
	}
}

// Filter returns the active date filter.
func (p *Page) Filter() core.DateFilter {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.filter
}

// Metrics returns the last loaded dashboard block.
func (p *Page) Metrics() core.DashboardMetrics {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.metrics
}

// Trend returns the last loaded spending trend.
func (p *Page) Trend() []core.TrendPoint {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.trend
}

// Breakdown returns the pie data for the current drill-down level.
func (p *Page) Breakdown() core.CategoryBreakdown {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.breakdown
}

// Level returns the current pie level, 1 through core.MaxTreeDepth.
func (p *Page) Level() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

// Stack returns the parent categories above the current pie level.
func (p *Page) Stack() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.stack))
	copy(out, p.stack)
	return out
}

// List returns the current item list and its origin.
func (p *Page) List() ItemList {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list
}

// Refresh loads the dashboard, trend, and pie concurrently for the current
// filter. Any failure aborts the whole refresh; the page shows an error
// banner instead of a half-loaded mix.
func (p *Page) Refresh(ctx context.Context) error {
	p.mu.Lock()
	filter := p.filter
	level := p.level
	parent := p.parentLocked()
	p.mu.Unlock()

	var (
		metrics   core.DashboardMetrics
		trend     []core.TrendPoint
		breakdown core.CategoryBreakdown
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		metrics, err = p.reader.Dashboard(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = p.reader.Trend(gctx, filter)
		return err
	})
	g.Go(func() error {
		var err error
		breakdown, err = p.reader.CategoryBreakdown(gctx, filter, level, parent)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("refresh analytics: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = metrics
	p.trend = trend
	p.breakdown = breakdown
	return nil
}

func (p *Page) parentLocked() string {
	if len(p.stack) == 0 {
		return ""
	}
	return p.stack[len(p.stack)-1]
}

// SetDateFilter applies a new range, reloads every block, and drops the item
// list, whose origin no longer matches the new range.
func (p *Page) SetDateFilter(ctx context.Context, filter core.DateFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	p.filter = filter
	p.list = ItemList{}
	p.mu.Unlock()
	return p.Refresh(ctx)
}

// DrillInto handles a pie-slice click. Below the deepest level the slice
// becomes the new parent: the pie descends one level and the slice's items
// load alongside. At the deepest level only the item list loads.
func (p *Page) DrillInto(ctx context.Context, category string) error {
	p.mu.Lock()
	filter := p.filter
	if p.level >= core.MaxTreeDepth {
		level := p.level
		p.mu.Unlock()
		return p.loadCategoryItems(ctx, category, level, filter)
	}
	p.stack = append(p.stack, category)
	p.level++
	level := p.level
	p.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		breakdown, err := p.reader.CategoryBreakdown(gctx, filter, level, category)
		if err != nil {
			return err
		}
		p.mu.Lock()
		p.breakdown = breakdown
		p.mu.Unlock()
		return nil
	})
	g.Go(func() error {
		// The clicked slice itself sits one level above the new pie.
		return p.loadCategoryItems(gctx, category, level-1, filter)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("drill into %q: %w", category, err)
	}
	return nil
}

// NavigateToLevel jumps back up via the pie breadcrumb. Jumping to the
// current level is a no-op; the item list is cleared because its category
// context is gone.
func (p *Page) NavigateToLevel(ctx context.Context, level int) error {
	p.mu.Lock()
	if level == p.level {
		p.mu.Unlock()
		return nil
	}
	if level < 1 || level > p.level {
		p.mu.Unlock()
		return fmt.Errorf("invalid pie level %d", level)
	}
	p.level = level
	p.stack = p.stack[:level-1]
	parent := p.parentLocked()
	filter := p.filter
	p.list = ItemList{}
	p.mu.Unlock()

	breakdown, err := p.reader.CategoryBreakdown(ctx, filter, level, parent)
	if err != nil {
		return fmt.Errorf("load pie level %d: %w", level, err)
	}
	p.mu.Lock()
	p.breakdown = breakdown
	p.mu.Unlock()
	return nil
}

// ShowDailyItems loads the items bought on a trend date.
func (p *Page) ShowDailyItems(ctx context.Context, date string) error {
	items, err := p.reader.DailyItems(ctx, date)
	if err != nil {
		return fmt.Errorf("load items for %s: %w", date, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = ItemList{Kind: ListDaily, Date: date, Items: items}
	return nil
}

func (p *Page) loadCategoryItems(ctx context.Context, category string, level int, filter core.DateFilter) error {
	items, err := p.reader.CategoryItems(ctx, category, level, filter)
	if err != nil {
		return fmt.Errorf("load items for category %q: %w", category, err)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.list = ItemList{Kind: ListCategory, Category: category, Level: level, Items: items}
	return nil
}
