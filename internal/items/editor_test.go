package items

import (
	"context"
	"errors"
	"testing"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

type fakeStore struct {
	item    core.LineItem
	itemErr error
	updated *upstream.ItemUpdate
}

func (f *fakeStore) Item(ctx context.Context, id int64) (core.LineItem, error) {
	return f.item, f.itemErr
}

func (f *fakeStore) UpdateItem(ctx context.Context, id int64, update upstream.ItemUpdate) (core.LineItem, error) {
	f.updated = &update
	item := f.item
	item.NameZH = update.NameZH
	item.PriceJPY = update.PriceJPY
	return item, nil
}

func TestUpdateValidatesBeforeNetwork(t *testing.T) {
	store := &fakeStore{item: core.LineItem{ID: 5, NameZH: "牛奶"}}
	editor := NewEditor(store)

	tests := []struct {
		name    string
		update  upstream.ItemUpdate
		wantErr error
	}{
		{"blank name", upstream.ItemUpdate{NameZH: "  ", PriceJPY: 100}, ErrNameRequired},
		{"negative jpy", upstream.ItemUpdate{NameZH: "牛奶", PriceJPY: -1}, ErrNegativePrice},
		{"negative cny", upstream.ItemUpdate{NameZH: "牛奶", PriceCNY: -0.5}, ErrNegativePrice},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := editor.Update(context.Background(), 5, tt.update)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if store.updated != nil {
				t.Fatal("rejected edit reached the store")
			}
		})
	}
}

func TestUpdateAppliesEdit(t *testing.T) {
	store := &fakeStore{item: core.LineItem{ID: 5, NameZH: "牛奶", PriceJPY: 258}}
	editor := NewEditor(store)

	item, err := editor.Update(context.Background(), 5, upstream.ItemUpdate{NameZH: "低脂牛奶", PriceJPY: 238})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if item.NameZH != "低脂牛奶" || item.PriceJPY != 238 {
		t.Fatalf("echoed item = %+v", item)
	}
}

func TestLoadWrapsStoreError(t *testing.T) {
	store := &fakeStore{itemErr: errors.New("not found")}
	if _, err := NewEditor(store).Load(context.Background(), 9); err == nil {
		t.Fatal("missing store error")
	}
}
