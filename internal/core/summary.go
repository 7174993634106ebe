package core

// CurrencyPair carries one amount in both display currencies.
type CurrencyPair struct {
	JPY float64 `json:"jpy"`
	CNY float64 `json:"cny"`
}

// DashboardMetrics is the headline block of the analytics page.
type DashboardMetrics struct {
	TotalSpending CurrencyPair `json:"total_spending"`
	ReceiptCount  int          `json:"receipt_count"`
	ItemCount     int          `json:"item_count"`
	TimeSpanDays  int          `json:"time_span"`
	DailyAverage  CurrencyPair `json:"daily_average"`
	DiscountRatio float64      `json:"discount_ratio"` // percent of items on special offer
}

// TrendPoint is one day of the spending trend series.
type TrendPoint struct {
	Date     string       `json:"date"` // YYYY-MM-DD
	Spending CurrencyPair `json:"spending"`
}

// CategorySlice is one sector of the category distribution pie.
type CategorySlice struct {
	Category   string       `json:"category"`
	Spending   CurrencyPair `json:"spending"`
	Percentage float64      `json:"percentage"`
	ItemCount  int          `json:"item_count"`
}

// CategoryBreakdown is the distribution at one drill-down level. Parent is
// empty at level 1.
type CategoryBreakdown struct {
	CategoryLevel int             `json:"category_level"`
	Parent        string          `json:"parent_category,omitempty"`
	Categories    []CategorySlice `json:"categories"`
}
