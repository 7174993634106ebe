package rest

import (
	"context"
	"fmt"
	"net/http"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

// CategoryTree fetches the 3-level tree for a date range.
func (c *Client) CategoryTree(ctx context.Context, filter core.DateFilter) ([]core.CategoryNode, error) {
	var nodes []core.CategoryNode
	if err := c.get(ctx, "/api/data-mining/category-tree", dateQuery(filter), &nodes); err != nil {
		return nil, err
	}
	return nodes, nil
}

type comparisonRequest struct {
	Selections []comparisonSelection `json:"selections"`
	StartDate  string                `json:"start_date,omitempty"`
	EndDate    string                `json:"end_date,omitempty"`
}

type comparisonSelection struct {
	Name       string                  `json:"name"`
	Categories []core.SelectedCategory `json:"categories"`
}

// CompareSelection aggregates one named selection into a daily series. The
// API accepts a batch; this client always submits exactly one selection and
// expects exactly one series back.
func (c *Client) CompareSelection(ctx context.Context, name string, categories []core.SelectedCategory, filter core.DateFilter) (*core.ComparisonSeries, error) {
	req := comparisonRequest{
		Selections: []comparisonSelection{{Name: name, Categories: categories}},
		StartDate:  filter.StartDate,
		EndDate:    filter.EndDate,
	}
	var series []core.ComparisonSeries
	if err := c.do(ctx, http.MethodPost, "/api/data-mining/comparison", nil, req, &series); err != nil {
		return nil, err
	}
	if len(series) != 1 {
		return nil, fmt.Errorf("comparison returned %d series, want 1", len(series))
	}
	return &series[0], nil
}

// ListGroups returns every saved comparison group.
func (c *Client) ListGroups(ctx context.Context) ([]upstream.SavedGroup, error) {
	var groups []upstream.SavedGroup
	if err := c.get(ctx, "/api/data-mining/groups", nil, &groups); err != nil {
		return nil, err
	}
	return groups, nil
}

type groupPayload struct {
	Name       string                  `json:"name"`
	Categories []core.SelectedCategory `json:"categories"`
}

// CreateGroup persists a group and returns its server id.
func (c *Client) CreateGroup(ctx context.Context, name string, categories []core.SelectedCategory) (int64, error) {
	var created struct {
		ID int64 `json:"id"`
	}
	payload := groupPayload{Name: name, Categories: categories}
	if err := c.do(ctx, http.MethodPost, "/api/data-mining/groups", nil, payload, &created); err != nil {
		return 0, err
	}
	return created.ID, nil
}

// UpdateGroup replaces a saved group's name and membership.
func (c *Client) UpdateGroup(ctx context.Context, id int64, name string, categories []core.SelectedCategory) error {
	payload := groupPayload{Name: name, Categories: categories}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/data-mining/groups/%d", id), nil, payload, nil)
}

// DeleteGroup removes a saved group.
func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/data-mining/groups/%d", id), nil, nil, nil)
}

// Item loads one line item for the editor.
func (c *Client) Item(ctx context.Context, id int64) (core.LineItem, error) {
	var item core.LineItem
	if err := c.get(ctx, fmt.Sprintf("/api/items/%d", id), nil, &item); err != nil {
		return core.LineItem{}, err
	}
	return item, nil
}

// UpdateItem submits an edit and returns the server's echo of the item.
func (c *Client) UpdateItem(ctx context.Context, id int64, update upstream.ItemUpdate) (core.LineItem, error) {
	var item core.LineItem
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/items/%d", id), nil, update, &item); err != nil {
		return core.LineItem{}, err
	}
	return item, nil
}
