package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hamsterwallet/internal/core"
)

type fakeReader struct {
	mu sync.Mutex

	metrics    core.DashboardMetrics
	trend      []core.TrendPoint
	breakdowns map[string]core.CategoryBreakdown // keyed by "level/parent"
	daily      map[string][]core.LineItem
	byCategory map[string][]core.LineItem

	dashErr, trendErr, pieErr error
	pieCalls                  []string
}

func pieKey(level int, parent string) string {
	return string(rune('0'+level)) + "/" + parent
}

func (f *fakeReader) Dashboard(ctx context.Context, _ core.DateFilter) (core.DashboardMetrics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metrics, f.dashErr
}

func (f *fakeReader) Trend(ctx context.Context, _ core.DateFilter) ([]core.TrendPoint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trend, f.trendErr
}

func (f *fakeReader) CategoryBreakdown(ctx context.Context, _ core.DateFilter, level int, parent string) (core.CategoryBreakdown, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pieErr != nil {
		return core.CategoryBreakdown{}, f.pieErr
	}
	key := pieKey(level, parent)
	f.pieCalls = append(f.pieCalls, key)
	return f.breakdowns[key], nil
}

func (f *fakeReader) DailyItems(ctx context.Context, date string) ([]core.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, ok := f.daily[date]
	if !ok {
		return nil, nil
	}
	return items, nil
}

func (f *fakeReader) CategoryItems(ctx context.Context, category string, level int, _ core.DateFilter) ([]core.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byCategory[pieKey(level, category)], nil
}

func newFakeReader() *fakeReader {
	return &fakeReader{
		metrics: core.DashboardMetrics{
			TotalSpending: core.CurrencyPair{JPY: 52340, CNY: 2617},
			ReceiptCount:  14,
			ItemCount:     96,
			TimeSpanDays:  30,
			DailyAverage:  core.CurrencyPair{JPY: 1744.6, CNY: 87.2},
			DiscountRatio: 0.18,
		},
		trend: []core.TrendPoint{
			{Date: "2026-08-01", Spending: core.CurrencyPair{JPY: 1200, CNY: 60}},
			{Date: "2026-08-02", Spending: core.CurrencyPair{JPY: 800, CNY: 40}},
		},
		breakdowns: map[string]core.CategoryBreakdown{
			pieKey(1, ""): {CategoryLevel: 1, Categories: []core.CategorySlice{
				{Category: "食品", Spending: core.CurrencyPair{JPY: 30000, CNY: 1500}, Percentage: 60, ItemCount: 50},
				{Category: "日用品", Spending: core.CurrencyPair{JPY: 20000, CNY: 1000}, Percentage: 40, ItemCount: 46},
			}},
			pieKey(2, "食品"): {CategoryLevel: 2, Parent: "食品", Categories: []core.CategorySlice{
				{Category: "零食", Percentage: 100, ItemCount: 50},
			}},
			pieKey(3, "零食"): {CategoryLevel: 3, Parent: "零食", Categories: []core.CategorySlice{
				{Category: "薯片", Percentage: 100, ItemCount: 20},
			}},
		},
		daily: map[string][]core.LineItem{
			"2026-08-01": {{ID: 1, NameZH: "牛奶"}},
		},
		byCategory: map[string][]core.LineItem{
			pieKey(1, "食品"): {{ID: 2, NameZH: "薯片"}},
			pieKey(2, "零食"): {{ID: 3, NameZH: "巧克力"}},
			pieKey(3, "薯片"): {{ID: 4, NameZH: "原味薯片"}},
		},
	}
}

func TestRefreshLoadsAllBlocks(t *testing.T) {
	p := NewPage(newFakeReader())
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if p.Metrics().ReceiptCount != 14 {
		t.Fatalf("metrics = %+v", p.Metrics())
	}
	if len(p.Trend()) != 2 {
		t.Fatalf("trend = %v", p.Trend())
	}
	if got := p.Breakdown(); got.CategoryLevel != 1 || len(got.Categories) != 2 {
		t.Fatalf("breakdown = %+v", got)
	}
}

func TestRefreshFailsAtomically(t *testing.T) {
	reader := newFakeReader()
	reader.trendErr = errors.New("api down")
	p := NewPage(reader)

	if err := p.Refresh(context.Background()); err == nil {
		t.Fatal("refresh succeeded with a failing block")
	}
	// Nothing was applied: the page keeps its zero state.
	if p.Metrics().ReceiptCount != 0 || p.Trend() != nil {
		t.Fatal("partial refresh leaked into page state")
	}
}

func TestDrillIntoDescendsAndLoadsItems(t *testing.T) {
	p := NewPage(newFakeReader())
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if err := p.DrillInto(context.Background(), "食品"); err != nil {
		t.Fatalf("DrillInto: %v", err)
	}
	if p.Level() != 2 {
		t.Fatalf("level = %d, want 2", p.Level())
	}
	if got := p.Breakdown(); got.Parent != "食品" {
		t.Fatalf("breakdown parent = %q", got.Parent)
	}
	list := p.List()
	if list.Kind != ListCategory || list.Category != "食品" || list.Level != 1 {
		t.Fatalf("list context = %+v", list)
	}
	if len(list.Items) != 1 || list.Items[0].NameZH != "薯片" {
		t.Fatalf("list items = %v", list.Items)
	}
}

func TestDrillIntoAtDeepestLevelOnlyLoadsItems(t *testing.T) {
	p := NewPage(newFakeReader())
	p.Refresh(context.Background())
	p.DrillInto(context.Background(), "食品")
	p.DrillInto(context.Background(), "零食")
	if p.Level() != 3 {
		t.Fatalf("level = %d, want 3", p.Level())
	}

	if err := p.DrillInto(context.Background(), "薯片"); err != nil {
		t.Fatalf("DrillInto at level 3: %v", err)
	}
	if p.Level() != 3 {
		t.Fatalf("level moved past the deepest pie: %d", p.Level())
	}
	list := p.List()
	if list.Kind != ListCategory || list.Category != "薯片" || list.Level != 3 {
		t.Fatalf("list context = %+v", list)
	}
}

func TestNavigateToLevelPopsStackAndClearsList(t *testing.T) {
	p := NewPage(newFakeReader())
	p.Refresh(context.Background())
	p.DrillInto(context.Background(), "食品")
	p.DrillInto(context.Background(), "零食")

	if err := p.NavigateToLevel(context.Background(), 1); err != nil {
		t.Fatalf("NavigateToLevel: %v", err)
	}
	if p.Level() != 1 || len(p.Stack()) != 0 {
		t.Fatalf("level=%d stack=%v", p.Level(), p.Stack())
	}
	if got := p.List(); got.Kind != ListNone {
		t.Fatalf("list survived breadcrumb jump: %+v", got)
	}
	// Jumping to the current level touches nothing.
	reader := p.reader.(*fakeReader)
	before := len(reader.pieCalls)
	if err := p.NavigateToLevel(context.Background(), 1); err != nil {
		t.Fatalf("NavigateToLevel same level: %v", err)
	}
	if len(reader.pieCalls) != before {
		t.Fatal("same-level jump reloaded the pie")
	}
	// Jumping deeper than the current level is refused.
	if err := p.NavigateToLevel(context.Background(), 3); err == nil {
		t.Fatal("jumped below the current level")
	}
}

func TestShowDailyItems(t *testing.T) {
	p := NewPage(newFakeReader())
	if err := p.ShowDailyItems(context.Background(), "2026-08-01"); err != nil {
		t.Fatalf("ShowDailyItems: %v", err)
	}
	list := p.List()
	if list.Kind != ListDaily || list.Date != "2026-08-01" || len(list.Items) != 1 {
		t.Fatalf("list = %+v", list)
	}
}

func TestSetDateFilterClearsItemList(t *testing.T) {
	p := NewPage(newFakeReader())
	p.ShowDailyItems(context.Background(), "2026-08-01")

	if err := p.SetDateFilter(context.Background(), core.DateFilter{StartDate: "2026-07-01", EndDate: "2026-07-31"}); err != nil {
		t.Fatalf("SetDateFilter: %v", err)
	}
	if got := p.List(); got.Kind != ListNone {
		t.Fatalf("item list survived a filter change: %+v", got)
	}
	if err := p.SetDateFilter(context.Background(), core.DateFilter{StartDate: "bad"}); err == nil {
		t.Fatal("invalid filter accepted")
	}
}
