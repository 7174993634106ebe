package memory

import (
	"context"
	"testing"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

func itemUpdateFrom(it core.LineItem, name string) upstream.ItemUpdate {
	return upstream.ItemUpdate{
		NameZH:         name,
		NameJA:         it.NameJA,
		PriceJPY:       it.PriceJPY,
		PriceCNY:       it.PriceCNY,
		IsSpecialOffer: it.IsSpecialOffer,
		SpecialInfo:    it.SpecialInfo,
		Notes:          it.Notes,
	}
}

func TestCategoryTreeAggregatesByLevel(t *testing.T) {
	s := NewSeeded()
	nodes, err := s.CategoryTree(context.Background(), core.DateFilter{})
	if err != nil {
		t.Fatalf("CategoryTree: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d roots, want 3", len(nodes))
	}

	food := nodes[0]
	if food.Name != "食品" {
		t.Fatalf("largest root = %q, want 食品", food.Name)
	}
	if food.ItemCount != 3 {
		t.Fatalf("食品 item count = %d, want 3", food.ItemCount)
	}
	snacks, ok := food.Child("零食")
	if !ok || snacks.ItemCount != 2 {
		t.Fatalf("零食 = (%+v, %v)", snacks, ok)
	}
	if _, ok := snacks.Child("薯片"); !ok {
		t.Fatal("零食 missing 薯片 leaf")
	}
}

func TestCategoryTreeHonorsDateFilter(t *testing.T) {
	s := NewSeeded()
	nodes, err := s.CategoryTree(context.Background(), core.DateFilter{StartDate: "2026-08-03"})
	if err != nil {
		t.Fatalf("CategoryTree: %v", err)
	}
	if len(nodes) != 1 || nodes[0].Name != "交通" {
		t.Fatalf("nodes = %v, want only 交通", nodes)
	}
}

func TestCompareSelectionMatchesByPath(t *testing.T) {
	s := NewSeeded()
	series, err := s.CompareSelection(context.Background(), "零食对比",
		[]core.SelectedCategory{{Name: "零食", Path: []string{"食品", "零食"}}}, core.DateFilter{})
	if err != nil {
		t.Fatalf("CompareSelection: %v", err)
	}
	if series.Name != "零食对比" || len(series.TimeSeries) != 2 {
		t.Fatalf("series = %+v", series)
	}
	if series.TimeSeries[0].Date != "2026-08-01" || series.TimeSeries[0].TotalCNY != 6.4 {
		t.Fatalf("first point = %+v", series.TimeSeries[0])
	}
	if len(series.TimeSeries[0].Items) != 1 {
		t.Fatalf("point items = %v", series.TimeSeries[0].Items)
	}
}

func TestGroupCRUD(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	id, err := s.CreateGroup(ctx, "主食", []core.SelectedCategory{{Name: "食品", Path: []string{"食品"}}})
	if err != nil || id == 0 {
		t.Fatalf("CreateGroup = (%d, %v)", id, err)
	}
	if err := s.UpdateGroup(ctx, id, "主食改", nil); err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}
	groups, _ := s.ListGroups(ctx)
	if len(groups) != 1 || groups[0].Name != "主食改" {
		t.Fatalf("groups = %v", groups)
	}
	if err := s.DeleteGroup(ctx, id); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	if err := s.DeleteGroup(ctx, id); err == nil {
		t.Fatal("double delete succeeded")
	}
}

func TestDashboardMetrics(t *testing.T) {
	s := NewSeeded()
	m, err := s.Dashboard(context.Background(), core.DateFilter{})
	if err != nil {
		t.Fatalf("Dashboard: %v", err)
	}
	if m.ItemCount != 5 || m.ReceiptCount != 4 || m.TimeSpanDays != 3 {
		t.Fatalf("metrics = %+v", m)
	}
	if m.DiscountRatio != 0.2 {
		t.Fatalf("discount ratio = %v, want 0.2", m.DiscountRatio)
	}
}

func TestTrendIsSortedByDate(t *testing.T) {
	s := NewSeeded()
	trend, err := s.Trend(context.Background(), core.DateFilter{})
	if err != nil {
		t.Fatalf("Trend: %v", err)
	}
	if len(trend) != 3 {
		t.Fatalf("trend = %v", trend)
	}
	for i := 1; i < len(trend); i++ {
		if trend[i].Date <= trend[i-1].Date {
			t.Fatalf("trend not sorted: %v", trend)
		}
	}
}

func TestCategoryBreakdownDrillDown(t *testing.T) {
	s := NewSeeded()
	top, err := s.CategoryBreakdown(context.Background(), core.DateFilter{}, 1, "")
	if err != nil {
		t.Fatalf("CategoryBreakdown: %v", err)
	}
	if len(top.Categories) != 3 || top.Categories[0].Category != "食品" {
		t.Fatalf("top breakdown = %+v", top)
	}
	var total float64
	for _, c := range top.Categories {
		total += c.Percentage
	}
	if total < 99.9 || total > 100.1 {
		t.Fatalf("percentages sum to %v", total)
	}

	sub, err := s.CategoryBreakdown(context.Background(), core.DateFilter{}, 2, "食品")
	if err != nil {
		t.Fatalf("CategoryBreakdown level 2: %v", err)
	}
	if sub.Parent != "食品" || len(sub.Categories) != 2 {
		t.Fatalf("sub breakdown = %+v", sub)
	}
	if _, err := s.CategoryBreakdown(context.Background(), core.DateFilter{}, 4, ""); err == nil {
		t.Fatal("level 4 accepted")
	}
}

func TestItemUpdatePersists(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	item, err := s.Item(ctx, 2)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	updated, err := s.UpdateItem(ctx, 2, itemUpdateFrom(item, "盐味薯片"))
	if err != nil || updated.NameZH != "盐味薯片" {
		t.Fatalf("UpdateItem = (%+v, %v)", updated, err)
	}
	again, _ := s.Item(ctx, 2)
	if again.NameZH != "盐味薯片" {
		t.Fatal("update did not stick")
	}
}

func TestDailyAndCategoryItems(t *testing.T) {
	s := NewSeeded()
	daily, err := s.DailyItems(context.Background(), "2026-08-02")
	if err != nil || len(daily) != 2 {
		t.Fatalf("DailyItems = (%v, %v)", daily, err)
	}
	byCat, err := s.CategoryItems(context.Background(), "零食", 2, core.DateFilter{})
	if err != nil || len(byCat) != 2 {
		t.Fatalf("CategoryItems = (%v, %v)", byCat, err)
	}
}
