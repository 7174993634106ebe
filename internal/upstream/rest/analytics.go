package rest

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"hamsterwallet/internal/core"
)

// Dashboard loads the metrics block for the analytics header.
func (c *Client) Dashboard(ctx context.Context, filter core.DateFilter) (core.DashboardMetrics, error) {
	var metrics core.DashboardMetrics
	if err := c.get(ctx, "/api/analytics/dashboard", dateQuery(filter), &metrics); err != nil {
		return core.DashboardMetrics{}, err
	}
	return metrics, nil
}

// Trend loads the daily spending trend.
func (c *Client) Trend(ctx context.Context, filter core.DateFilter) ([]core.TrendPoint, error) {
	var points []core.TrendPoint
	if err := c.get(ctx, "/api/analytics/trend", dateQuery(filter), &points); err != nil {
		return nil, err
	}
	return points, nil
}

// CategoryBreakdown loads the pie for one drill-down level. Parent is empty
// at the top level.
func (c *Client) CategoryBreakdown(ctx context.Context, filter core.DateFilter, level int, parent string) (core.CategoryBreakdown, error) {
	q := dateQuery(filter)
	q.Set("category_level", strconv.Itoa(level))
	if parent != "" {
		q.Set("parent_category", parent)
	}
	var breakdown core.CategoryBreakdown
	if err := c.get(ctx, "/api/analytics/category", q, &breakdown); err != nil {
		return core.CategoryBreakdown{}, err
	}
	return breakdown, nil
}

// DailyItems loads the items purchased on one date.
func (c *Client) DailyItems(ctx context.Context, date string) ([]core.LineItem, error) {
	var items []core.LineItem
	if err := c.get(ctx, fmt.Sprintf("/api/analytics/daily/%s/items", url.PathEscape(date)), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CategoryItems loads the items under a category at a given level.
func (c *Client) CategoryItems(ctx context.Context, category string, level int, filter core.DateFilter) ([]core.LineItem, error) {
	q := dateQuery(filter)
	q.Set("category_level", strconv.Itoa(level))
	path := fmt.Sprintf("/api/analytics/category/%s/items", url.PathEscape(category))
	var items []core.LineItem
	if err := c.get(ctx, path, q, &items); err != nil {
		return nil, err
	}
	return items, nil
}
