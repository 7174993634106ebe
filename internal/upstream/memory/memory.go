// Package memory is an in-process backend computing every aggregate from a
// fixed item set. It backs tests and the demo mode; no network, no disk.
package memory

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"sync"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

// Store holds the fixture items and the saved comparison groups.
type Store struct {
	mu     sync.Mutex
	items  []core.LineItem
	groups []upstream.SavedGroup
	nextID int64
}

var _ upstream.Backend = (*Store)(nil)

func New(items []core.LineItem) *Store {
	return &Store{items: items}
}

// NewSeeded returns a store with a small spread of purchases across three
// top-level categories and several days, enough to exercise every page.
func NewSeeded() *Store {
	return New([]core.LineItem{
		{ID: 1, NameZH: "牛奶", StoreName: "全家", PriceJPY: 258, PriceCNY: 12.9, Category1: "食品", Category2: "饮料", Category3: "乳制品", CategoryID: 121, TransactionTime: "2026-08-01 09:10:00", ReceiptID: 1},
		{ID: 2, NameZH: "薯片", StoreName: "西友", PriceJPY: 128, PriceCNY: 6.4, IsSpecialOffer: true, SpecialInfo: "第二件半价", Category1: "食品", Category2: "零食", Category3: "薯片", CategoryID: 111, TransactionTime: "2026-08-01 18:30:00", ReceiptID: 2},
		{ID: 3, NameZH: "巧克力", StoreName: "西友", PriceJPY: 320, PriceCNY: 16, Category1: "食品", Category2: "零食", Category3: "巧克力", CategoryID: 112, TransactionTime: "2026-08-02 18:40:00", ReceiptID: 3},
		{ID: 4, NameZH: "洗衣液", StoreName: "大创", PriceJPY: 550, PriceCNY: 27.5, Category1: "日用品", Category2: "清洁", CategoryID: 210, TransactionTime: "2026-08-02 10:00:00", ReceiptID: 3},
		{ID: 5, NameZH: "地铁票", PriceJPY: 210, PriceCNY: 10.5, Category1: "交通", CategoryID: 300, TransactionTime: "2026-08-03 08:00:00", ReceiptID: 4},
	})
}

func itemDate(it core.LineItem) string {
	if len(it.TransactionTime) >= 10 {
		return it.TransactionTime[:10]
	}
	return it.TransactionTime
}

func inRange(it core.LineItem, filter core.DateFilter) bool {
	d := itemDate(it)
	if filter.StartDate != "" && d < filter.StartDate {
		return false
	}
	if filter.EndDate != "" && d > filter.EndDate {
		return false
	}
	return true
}

func (s *Store) filtered(filter core.DateFilter) []core.LineItem {
	var out []core.LineItem
	for _, it := range s.items {
		if inRange(it, filter) {
			out = append(out, it)
		}
	}
	return out
}

// categoryAt returns the item's category name at a 1-based level.
func categoryAt(it core.LineItem, level int) string {
	switch level {
	case 1:
		return it.Category1
	case 2:
		return it.Category2
	case 3:
		return it.Category3
	}
	return ""
}

// CategoryTree builds the 3-level tree from the filtered items. Node ids are
// synthesized from the path so they stay stable across rebuilds.
func (s *Store) CategoryTree(_ context.Context, filter core.DateFilter) ([]core.CategoryNode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type key struct{ c1, c2, c3 string }
	totals := map[key]*core.CategoryNode{}
	var order []key
	for _, it := range s.filtered(filter) {
		k := key{it.Category1, it.Category2, it.Category3}
		if k.c1 == "" {
			continue
		}
		if totals[k] == nil {
			totals[k] = &core.CategoryNode{}
			order = append(order, k)
		}
		totals[k].TotalCNY += it.PriceCNY
		totals[k].ItemCount++
	}

	var roots []core.CategoryNode
	index := map[string]int{}
	for _, k := range order {
		leaf := totals[k]
		i, ok := index[k.c1]
		if !ok {
			i = len(roots)
			index[k.c1] = i
			roots = append(roots, core.CategoryNode{ID: pathID(k.c1), Name: k.c1})
		}
		roots[i].TotalCNY += leaf.TotalCNY
		roots[i].ItemCount += leaf.ItemCount
		if k.c2 == "" {
			continue
		}
		child := ensureChild(&roots[i], k.c2, pathID(k.c1, k.c2))
		child.TotalCNY += leaf.TotalCNY
		child.ItemCount += leaf.ItemCount
		if k.c3 == "" {
			continue
		}
		grand := ensureChild(child, k.c3, pathID(k.c1, k.c2, k.c3))
		grand.TotalCNY += leaf.TotalCNY
		grand.ItemCount += leaf.ItemCount
	}
	sortTree(roots)
	return roots, nil
}

func ensureChild(parent *core.CategoryNode, name string, id int64) *core.CategoryNode {
	for i := range parent.Children {
		if parent.Children[i].Name == name {
			return &parent.Children[i]
		}
	}
	parent.Children = append(parent.Children, core.CategoryNode{ID: id, Name: name})
	return &parent.Children[len(parent.Children)-1]
}

func pathID(parts ...string) int64 {
	h := fnv.New32a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return int64(h.Sum32())
}

func sortTree(nodes []core.CategoryNode) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].TotalCNY > nodes[j].TotalCNY })
	for i := range nodes {
		sortTree(nodes[i].Children)
	}
}

// CompareSelection sums the selected categories' items per day. A selected
// category matches an item when the item's path at the selection's depth
// equals the selection's name under the same ancestors.
func (s *Store) CompareSelection(_ context.Context, name string, categories []core.SelectedCategory, filter core.DateFilter) (*core.ComparisonSeries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate := map[string]*core.SeriesPoint{}
	var dates []string
	for _, it := range s.filtered(filter) {
		if !selectionMatches(categories, it) {
			continue
		}
		d := itemDate(it)
		p, ok := byDate[d]
		if !ok {
			p = &core.SeriesPoint{Date: d}
			byDate[d] = p
			dates = append(dates, d)
		}
		p.TotalCNY += it.PriceCNY
		p.Items = append(p.Items, it)
	}
	sort.Strings(dates)

	series := &core.ComparisonSeries{Name: name}
	for _, d := range dates {
		series.TimeSeries = append(series.TimeSeries, *byDate[d])
	}
	return series, nil
}

func selectionMatches(categories []core.SelectedCategory, it core.LineItem) bool {
	itemPath := []string{it.Category1, it.Category2, it.Category3}
	for _, sel := range categories {
		if len(sel.Path) == 0 || len(sel.Path) > len(itemPath) {
			continue
		}
		match := true
		for i, seg := range sel.Path {
			if itemPath[i] != seg {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func (s *Store) ListGroups(context.Context) ([]upstream.SavedGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]upstream.SavedGroup, len(s.groups))
	copy(out, s.groups)
	return out, nil
}

func (s *Store) CreateGroup(_ context.Context, name string, categories []core.SelectedCategory) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.groups = append(s.groups, upstream.SavedGroup{ID: s.nextID, Name: name, Categories: categories})
	return s.nextID, nil
}

func (s *Store) UpdateGroup(_ context.Context, id int64, name string, categories []core.SelectedCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].ID == id {
			s.groups[i].Name = name
			s.groups[i].Categories = categories
			return nil
		}
	}
	return fmt.Errorf("group %d: %w", id, core.ErrGroupNotFound)
}

func (s *Store) DeleteGroup(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.groups {
		if s.groups[i].ID == id {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("group %d: %w", id, core.ErrGroupNotFound)
}

func (s *Store) Item(_ context.Context, id int64) (core.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, it := range s.items {
		if it.ID == id {
			return it, nil
		}
	}
	return core.LineItem{}, fmt.Errorf("item %d not found", id)
}

func (s *Store) UpdateItem(_ context.Context, id int64, update upstream.ItemUpdate) (core.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.items {
		if s.items[i].ID != id {
			continue
		}
		it := &s.items[i]
		it.NameZH = update.NameZH
		it.NameJA = update.NameJA
		it.PriceJPY = update.PriceJPY
		it.PriceCNY = update.PriceCNY
		it.IsSpecialOffer = update.IsSpecialOffer
		it.SpecialInfo = update.SpecialInfo
		it.Notes = update.Notes
		if update.CategoryID != 0 {
			it.CategoryID = update.CategoryID
		}
		return *it, nil
	}
	return core.LineItem{}, fmt.Errorf("item %d not found", id)
}

func (s *Store) Dashboard(_ context.Context, filter core.DateFilter) (core.DashboardMetrics, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var m core.DashboardMetrics
	receipts := map[int64]bool{}
	days := map[string]bool{}
	special := 0
	for _, it := range s.filtered(filter) {
		m.TotalSpending.JPY += it.PriceJPY
		m.TotalSpending.CNY += it.PriceCNY
		m.ItemCount++
		receipts[it.ReceiptID] = true
		days[itemDate(it)] = true
		if it.IsSpecialOffer {
			special++
		}
	}
	m.ReceiptCount = len(receipts)
	m.TimeSpanDays = len(days)
	if m.TimeSpanDays > 0 {
		m.DailyAverage.JPY = m.TotalSpending.JPY / float64(m.TimeSpanDays)
		m.DailyAverage.CNY = m.TotalSpending.CNY / float64(m.TimeSpanDays)
	}
	if m.ItemCount > 0 {
		m.DiscountRatio = float64(special) / float64(m.ItemCount)
	}
	return m, nil
}

func (s *Store) Trend(_ context.Context, filter core.DateFilter) ([]core.TrendPoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDate := map[string]*core.TrendPoint{}
	var dates []string
	for _, it := range s.filtered(filter) {
		d := itemDate(it)
		p, ok := byDate[d]
		if !ok {
			p = &core.TrendPoint{Date: d}
			byDate[d] = p
			dates = append(dates, d)
		}
		p.Spending.JPY += it.PriceJPY
		p.Spending.CNY += it.PriceCNY
	}
	sort.Strings(dates)

	out := make([]core.TrendPoint, 0, len(dates))
	for _, d := range dates {
		out = append(out, *byDate[d])
	}
	return out, nil
}

func (s *Store) CategoryBreakdown(_ context.Context, filter core.DateFilter, level int, parent string) (core.CategoryBreakdown, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < 1 || level > core.MaxTreeDepth {
		return core.CategoryBreakdown{}, fmt.Errorf("invalid category level %d", level)
	}

	totals := map[string]*core.CategorySlice{}
	var order []string
	var grand float64
	for _, it := range s.filtered(filter) {
		if level > 1 && categoryAt(it, level-1) != parent {
			continue
		}
		name := categoryAt(it, level)
		if name == "" {
			continue
		}
		slice, ok := totals[name]
		if !ok {
			slice = &core.CategorySlice{Category: name}
			totals[name] = slice
			order = append(order, name)
		}
		slice.Spending.JPY += it.PriceJPY
		slice.Spending.CNY += it.PriceCNY
		slice.ItemCount++
		grand += it.PriceJPY
	}

	breakdown := core.CategoryBreakdown{CategoryLevel: level, Parent: parent}
	for _, name := range order {
		slice := totals[name]
		if grand > 0 {
			slice.Percentage = slice.Spending.JPY / grand * 100
		}
		breakdown.Categories = append(breakdown.Categories, *slice)
	}
	sort.Slice(breakdown.Categories, func(i, j int) bool {
		return breakdown.Categories[i].Spending.JPY > breakdown.Categories[j].Spending.JPY
	})
	return breakdown, nil
}

func (s *Store) DailyItems(_ context.Context, date string) ([]core.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LineItem
	for _, it := range s.items {
		if itemDate(it) == date {
			out = append(out, it)
		}
	}
	return out, nil
}

func (s *Store) CategoryItems(_ context.Context, category string, level int, filter core.DateFilter) ([]core.LineItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.LineItem
	for _, it := range s.filtered(filter) {
		if categoryAt(it, level) == category {
			out = append(out, it)
		}
	}
	return out, nil
}
