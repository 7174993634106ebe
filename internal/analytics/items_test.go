package analytics

import (
	"testing"

	"hamsterwallet/internal/core"
)

func sampleItems() []core.LineItem {
	return []core.LineItem{
		{ID: 1, NameZH: "牛奶", StoreName: "全家", PriceJPY: 258, TransactionTime: "2026-08-02 10:00:00"},
		{ID: 2, NameJA: "ポテトチップス", StoreName: "西友", PriceJPY: 128, Category1: "食品", IsSpecialOffer: true, TransactionTime: "2026-08-01 18:30:00"},
		{ID: 3, NameZH: "洗衣液", StoreName: "大创", PriceJPY: 550, Notes: "促销装", TransactionTime: "2026-08-03 09:15:00"},
	}
}

func TestFilterItemsSearch(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		wantIDs []int64
	}{
		{"by chinese name", "牛奶", []int64{1}},
		{"by japanese name", "ポテト", []int64{2}},
		{"by store", "西友", []int64{2}},
		{"by top category", "食品", []int64{2}},
		{"by notes", "促销", []int64{3}},
		{"no match", "啤酒", nil},
		{"blank keeps all", "  ", []int64{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterItems(sampleItems(), tt.query, SortDateDesc)
			ids := make([]int64, 0, len(got))
			for _, it := range got {
				ids = append(ids, it.ID)
			}
			want := map[int64]bool{}
			for _, id := range tt.wantIDs {
				want[id] = true
			}
			if len(ids) != len(tt.wantIDs) {
				t.Fatalf("got ids %v, want %v", ids, tt.wantIDs)
			}
			for _, id := range ids {
				if !want[id] {
					t.Fatalf("unexpected id %d in %v", id, ids)
				}
			}
		})
	}
}

func TestFilterItemsSort(t *testing.T) {
	first := func(mode SortMode) int64 {
		return FilterItems(sampleItems(), "", mode)[0].ID
	}
	if got := first(SortPriceDesc); got != 3 {
		t.Fatalf("price_desc first = %d, want 3", got)
	}
	if got := first(SortPriceAsc); got != 2 {
		t.Fatalf("price_asc first = %d, want 2", got)
	}
	if got := first(SortDateDesc); got != 3 {
		t.Fatalf("date_desc first = %d, want 3", got)
	}
	if got := first(SortSpecial); got != 2 {
		t.Fatalf("special first = %d, want 2", got)
	}
}

func TestFilterItemsDoesNotMutateInput(t *testing.T) {
	items := sampleItems()
	FilterItems(items, "", SortPriceDesc)
	if items[0].ID != 1 {
		t.Fatalf("input reordered, first id = %d", items[0].ID)
	}
}
