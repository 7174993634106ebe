package services

import (
	"context"
	"path/filepath"
	"testing"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/storage"
	"hamsterwallet/internal/upstream"
)

func newTestService(t *testing.T) (*ExportService, *storage.SQLiteRepository) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	svc := NewExportService(repo, nil)
	t.Cleanup(func() { _ = svc.Close() })
	return svc, repo
}

func TestMutationsWorkWithoutBroker(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	id, err := svc.CreateGroup(ctx, "饮料对比", []core.SelectedCategory{
		{ID: 3, Name: "饮料", Path: []string{"食品", "饮料"}},
	})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}

	if err := svc.UpdateGroup(ctx, id, "饮料月度对比", []core.SelectedCategory{
		{ID: 3, Name: "饮料", Path: []string{"食品", "饮料"}},
	}); err != nil {
		t.Fatalf("UpdateGroup: %v", err)
	}

	groups, err := svc.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "饮料月度对比" {
		t.Fatalf("groups = %+v", groups)
	}

	if err := svc.DeleteGroup(ctx, id); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
}

func TestReadsPassThroughToRepository(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	id, err := repo.InsertItem(ctx, core.LineItem{
		NameZH: "牛奶", PriceJPY: 258, PriceCNY: 12.9,
		Category1: "食品", TransactionTime: "2026-08-01 09:10:00", ReceiptID: 1,
	})
	if err != nil {
		t.Fatalf("InsertItem: %v", err)
	}

	item, err := svc.UpdateItem(ctx, id, upstream.ItemUpdate{
		NameZH: "低脂牛奶", PriceJPY: 258, PriceCNY: 12.9,
	})
	if err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	if item.NameZH != "低脂牛奶" {
		t.Errorf("name = %q, want 低脂牛奶", item.NameZH)
	}

	got, err := svc.Item(ctx, id)
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if got.NameZH != "低脂牛奶" {
		t.Errorf("reread name = %q", got.NameZH)
	}
}
