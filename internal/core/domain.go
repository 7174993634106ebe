package core

import (
	"errors"
	"strings"
	"time"
)

// MaxTreeDepth is the deepest category level the tree can carry (levels 0..2).
const MaxTreeDepth = 3

type (
	// CategoryNode is one node of the server-provided spending category tree.
	// The tree is immutable once fetched for a date range; a date-filter change
	// replaces it wholesale.
	CategoryNode struct {
		ID        int64          `json:"id"`
		Name      string         `json:"name"`
		TotalCNY  float64        `json:"total_cny"`
		ItemCount int            `json:"item_count"`
		Children  []CategoryNode `json:"children,omitempty"`
	}

	// SelectedCategory is a snapshot of a category taken at selection time.
	// Path is captured when the user picks the node and is never recomputed,
	// so a selection stays meaningful even after the tree is reloaded.
	SelectedCategory struct {
		ID        int64    `json:"id"`
		Name      string   `json:"name"`
		Path      []string `json:"path"`
		TotalCNY  float64  `json:"total_cny"`
		ItemCount int      `json:"item_count"`
	}

	// LineItem is a single purchased item as shaped by the server. Read-only.
	LineItem struct {
		ID              int64   `json:"id"`
		NameZH          string  `json:"name_zh"`
		NameJA          string  `json:"name_ja"`
		StoreName       string  `json:"store_name"`
		PriceJPY        float64 `json:"price_jpy"`
		PriceCNY        float64 `json:"price_cny"`
		IsSpecialOffer  bool    `json:"is_special_offer"`
		SpecialInfo     string  `json:"special_info,omitempty"`
		Notes           string  `json:"notes,omitempty"`
		Category1       string  `json:"category_1,omitempty"`
		Category2       string  `json:"category_2,omitempty"`
		Category3       string  `json:"category_3,omitempty"`
		CategoryID      int64   `json:"category_id,omitempty"`
		TransactionTime string  `json:"transaction_time,omitempty"`
		ReceiptID       int64   `json:"receipt_id,omitempty"`
		ReceiptName     string  `json:"receipt_name,omitempty"`
	}

	// SeriesPoint is one aggregated day of a comparison series.
	SeriesPoint struct {
		Date     string     `json:"date"` // YYYY-MM-DD
		TotalCNY float64    `json:"total_cny"`
		Items    []LineItem `json:"items"`
	}

	// ComparisonSeries is the aggregated time series for one comparison group.
	ComparisonSeries struct {
		Name       string        `json:"name"`
		TimeSeries []SeriesPoint `json:"time_series"`
	}

	// ComparisonGroup is a named set of selected categories plotted as one
	// line series. LocalID identifies the group within the page session;
	// SavedID is non-zero iff the group is persisted server-side. Data stays
	// nil until the first successful series fetch.
	ComparisonGroup struct {
		LocalID    string             `json:"local_id"`
		SavedID    int64              `json:"saved_id,omitempty"`
		Name       string             `json:"name"`
		Categories []SelectedCategory `json:"categories"`
		Data       *ComparisonSeries  `json:"data,omitempty"`
	}

	// DateFilter bounds all aggregate queries. Empty fields mean unbounded
	// ("all time"). Dates are wire-format YYYY-MM-DD strings, which sort
	// lexically in date order.
	DateFilter struct {
		StartDate string `json:"start_date,omitempty"`
		EndDate   string `json:"end_date,omitempty"`
	}
)

var (
	ErrEmptyGroupName = errors.New("comparison group name is empty")
	ErrNoCategories   = errors.New("no categories selected")
	ErrGroupNotFound  = errors.New("comparison group not found")
	ErrInvalidDate    = errors.New("invalid date, want YYYY-MM-DD")
)

// HasChildren reports whether the node can be drilled into.
func (n CategoryNode) HasChildren() bool {
	return len(n.Children) > 0
}

// Child returns the direct child with the given name.
func (n CategoryNode) Child(name string) (CategoryNode, bool) {
	return findByName(n.Children, name)
}

// ResolvePath walks nodes along path and returns the children visible at the
// end of it. A path that no longer resolves (the tree changed underneath)
// yields ok=false and a nil slice; callers render an empty state instead of
// failing.
func ResolvePath(nodes []CategoryNode, path []string) ([]CategoryNode, bool) {
	current := nodes
	for _, segment := range path {
		node, ok := findByName(current, segment)
		if !ok {
			return nil, false
		}
		current = node.Children
	}
	return current, true
}

func findByName(nodes []CategoryNode, name string) (CategoryNode, bool) {
	for _, n := range nodes {
		if n.Name == name {
			return n, true
		}
	}
	return CategoryNode{}, false
}

// Snapshot captures the node as a SelectedCategory, recording the full path
// from the root including the node's own name.
func (n CategoryNode) Snapshot(parents []string) SelectedCategory {
	path := make([]string, 0, len(parents)+1)
	path = append(path, parents...)
	path = append(path, n.Name)
	return SelectedCategory{
		ID:        n.ID,
		Name:      n.Name,
		Path:      path,
		TotalCNY:  n.TotalCNY,
		ItemCount: n.ItemCount,
	}
}

// Saved reports whether the group has a server-side identity.
func (g *ComparisonGroup) Saved() bool {
	return g.SavedID != 0
}

// Validate checks name and membership, the two preconditions every create or
// commit shares. No network call may be made for a group that fails this.
func (g *ComparisonGroup) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGroupName
	}
	if len(g.Categories) == 0 {
		return ErrNoCategories
	}
	return nil
}

// PointOn returns the series point for an exact date. A missing date is not
// an error; aggregations treat it as zero.
func (s *ComparisonSeries) PointOn(date string) (SeriesPoint, bool) {
	if s == nil {
		return SeriesPoint{}, false
	}
	for _, p := range s.TimeSeries {
		if p.Date == date {
			return p, true
		}
	}
	return SeriesPoint{}, false
}

// DisplayName picks the item name for rendering, Chinese first.
func (it LineItem) DisplayName() string {
	if it.NameZH != "" {
		return it.NameZH
	}
	return it.NameJA
}

// Validate checks both bounds when present and their ordering.
func (f DateFilter) Validate() error {
	for _, d := range []string{f.StartDate, f.EndDate} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return ErrInvalidDate
		}
	}
	if f.StartDate != "" && f.EndDate != "" && f.StartDate > f.EndDate {
		return errors.New("start date is after end date")
	}
	return nil
}

// IsZero reports whether the filter is unbounded on both ends.
func (f DateFilter) IsZero() bool {
	return f.StartDate == "" && f.EndDate == ""
}

// LastDays returns a filter covering the n days up to today.
func LastDays(n int) DateFilter {
	end := time.Now()
	start := end.AddDate(0, 0, -n)
	return DateFilter{StartDate: start.Format("2006-01-02"), EndDate: end.Format("2006-01-02")}
}

// LastMonths returns a filter covering the n months up to today. One month is
// the default filter applied when a page session starts.
func LastMonths(n int) DateFilter {
	end := time.Now()
	start := end.AddDate(0, -n, 0)
	return DateFilter{StartDate: start.Format("2006-01-02"), EndDate: end.Format("2006-01-02")}
}
