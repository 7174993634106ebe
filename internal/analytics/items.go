package analytics

import (
	"sort"
	"strings"

	"hamsterwallet/internal/core"
)

// SortMode selects the item-list ordering.
type SortMode string

const (
	SortName      SortMode = "name"
	SortPriceDesc SortMode = "price_desc"
	SortPriceAsc  SortMode = "price_asc"
	SortDateDesc  SortMode = "date_desc"
	SortSpecial   SortMode = "special"
)

// FilterItems narrows and orders an item list for display. The query matches
// case-insensitively against name, store, top-level category, and notes. An
// unknown sort mode falls back to name order. The input slice is not
// modified.
func FilterItems(items []core.LineItem, query string, mode SortMode) []core.LineItem {
	out := make([]core.LineItem, 0, len(items))
	q := strings.ToLower(strings.TrimSpace(query))
	for _, it := range items {
		if q == "" || matches(it, q) {
			out = append(out, it)
		}
	}

	switch mode {
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceJPY > out[j].PriceJPY })
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceJPY < out[j].PriceJPY })
	case SortDateDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].TransactionTime > out[j].TransactionTime })
	case SortSpecial:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].IsSpecialOffer != out[j].IsSpecialOffer {
				return out[i].IsSpecialOffer
			}
			return out[i].PriceJPY > out[j].PriceJPY
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].DisplayName()) < strings.ToLower(out[j].DisplayName())
		})
	}
	return out
}

func matches(it core.LineItem, q string) bool {
	for _, field := range []string{it.DisplayName(), it.StoreName, it.Category1, it.Notes} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
