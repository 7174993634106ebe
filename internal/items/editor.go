// Package items implements the item editor: loading a single line item and
// submitting edits back through the item store.
package items

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

var (
	ErrNameRequired  = errors.New("item name (Chinese) is required")
	ErrNegativePrice = errors.New("price must not be negative")
)

// Editor wraps the item store with the form validation the editor applies
// before any network call.
type Editor struct {
	store upstream.ItemStore
}

func NewEditor(store upstream.ItemStore) *Editor {
	return &Editor{store: store}
}

// Load fetches the item for the edit form.
func (e *Editor) Load(ctx context.Context, id int64) (core.LineItem, error) {
	item, err := e.store.Item(ctx, id)
	if err != nil {
		return core.LineItem{}, fmt.Errorf("load item %d: %w", id, err)
	}
	return item, nil
}

// Update validates the edit and submits it. A rejected edit makes no network
// call; the backend's echo of the updated item is returned on success.
func (e *Editor) Update(ctx context.Context, id int64, update upstream.ItemUpdate) (core.LineItem, error) {
	if err := validate(update); err != nil {
		return core.LineItem{}, err
	}
	item, err := e.store.UpdateItem(ctx, id, update)
	if err != nil {
		return core.LineItem{}, fmt.Errorf("update item %d: %w", id, err)
	}
	return item, nil
}

func validate(update upstream.ItemUpdate) error {
	if strings.TrimSpace(update.NameZH) == "" {
		return ErrNameRequired
	}
	if update.PriceJPY < 0 || update.PriceCNY < 0 {
		return ErrNegativePrice
	}
	return nil
}
