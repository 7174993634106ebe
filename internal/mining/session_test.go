package mining

import (
	"context"
	"errors"
	"sync"
	"testing"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

type fakeUpstream struct {
	mu sync.Mutex

	tree    []core.CategoryNode
	treeErr error

	seriesFn  func(name string, categories []core.SelectedCategory, filter core.DateFilter) (*core.ComparisonSeries, error)
	seriesErr error

	saved      []upstream.SavedGroup
	nextID     int64
	createErr  error
	updateErr  error
	deleteErr  error
	listErr    error
	created    int
	updated    int
	deleted    []int64
	lastUpdate upstream.SavedGroup
}

func (f *fakeUpstream) CategoryTree(ctx context.Context, filter core.DateFilter) ([]core.CategoryNode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.treeErr != nil {
		return nil, f.treeErr
	}
	return f.tree, nil
}

func (f *fakeUpstream) CompareSelection(ctx context.Context, name string, categories []core.SelectedCategory, filter core.DateFilter) (*core.ComparisonSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seriesErr != nil {
		return nil, f.seriesErr
	}
	if f.seriesFn != nil {
		return f.seriesFn(name, categories, filter)
	}
	return &core.ComparisonSeries{Name: name}, nil
}

func (f *fakeUpstream) ListGroups(ctx context.Context) ([]upstream.SavedGroup, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.saved, nil
}

func (f *fakeUpstream) CreateGroup(ctx context.Context, name string, categories []core.SelectedCategory) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created++
	f.nextID++
	return f.nextID, nil
}

func (f *fakeUpstream) UpdateGroup(ctx context.Context, id int64, name string, categories []core.SelectedCategory) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated++
	f.lastUpdate = upstream.SavedGroup{ID: id, Name: name, Categories: categories}
	return nil
}

func (f *fakeUpstream) DeleteGroup(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func testTree() []core.CategoryNode {
	return []core.CategoryNode{
		{ID: 1, Name: "食品", TotalCNY: 900, ItemCount: 30, Children: []core.CategoryNode{
			{ID: 11, Name: "零食", TotalCNY: 300, ItemCount: 12, Children: []core.CategoryNode{
				{ID: 111, Name: "薯片", TotalCNY: 120, ItemCount: 5},
				{ID: 112, Name: "巧克力", TotalCNY: 180, ItemCount: 7},
			}},
			{ID: 12, Name: "饮料", TotalCNY: 200, ItemCount: 8},
		}},
		{ID: 2, Name: "日用品", TotalCNY: 400, ItemCount: 10, Children: []core.CategoryNode{
			{ID: 21, Name: "清洁", TotalCNY: 150, ItemCount: 4},
		}},
		{ID: 3, Name: "交通", TotalCNY: 80, ItemCount: 2},
	}
}

func newTestSession(t *testing.T, fake *fakeUpstream) *Session {
	t.Helper()
	s := NewSession(fake, fake, fake, Options{})
	if err := s.LoadTree(context.Background()); err != nil {
		t.Fatalf("LoadTree: %v", err)
	}
	return s
}

func TestNavigationDepthIsBounded(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})

	if !s.NavigateInto("食品") {
		t.Fatal("expected to enter 食品")
	}
	if !s.NavigateInto("零食") {
		t.Fatal("expected to enter 零食")
	}
	if s.Level() != 2 {
		t.Fatalf("level = %d, want 2", s.Level())
	}
	// Third level is the deepest; leaves are selectable but never entered.
	if s.NavigateInto("薯片") {
		t.Fatal("entered a node beyond the deepest level")
	}
	if s.Level() != 2 {
		t.Fatalf("level after refused descent = %d, want 2", s.Level())
	}
}

func TestNavigateIntoLeafIsNoOp(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})

	if s.NavigateInto("交通") {
		t.Fatal("entered a childless category")
	}
	if s.NavigateInto("不存在") {
		t.Fatal("entered a category not in the tree")
	}
	if s.Level() != 0 {
		t.Fatalf("level = %d, want 0", s.Level())
	}
}

func TestNavigateBackAndToLevel(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})
	s.NavigateInto("食品")
	s.NavigateInto("零食")

	if !s.NavigateToLevel(1) {
		t.Fatal("breadcrumb jump to level 1 refused")
	}
	if got := s.Path(); len(got) != 1 || got[0] != "食品" {
		t.Fatalf("path = %v, want [食品]", got)
	}
	// Jumping deeper than the current level must not move anything.
	if s.NavigateToLevel(3) {
		t.Fatal("jumped to a level deeper than current")
	}
	if !s.NavigateBack() {
		t.Fatal("back from level 1 refused")
	}
	if s.NavigateBack() {
		t.Fatal("back from the root should be a no-op")
	}
}

func TestBreadcrumbsAnchorAtRoot(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})
	s.NavigateInto("食品")
	s.NavigateInto("零食")

	crumbs := s.Breadcrumbs()
	if len(crumbs) != 3 {
		t.Fatalf("got %d crumbs, want 3", len(crumbs))
	}
	if crumbs[0].Level != 0 || crumbs[2].Name != "零食" || crumbs[2].Level != 2 {
		t.Fatalf("unexpected crumbs: %+v", crumbs)
	}
}

func TestToggleIsIdempotentByID(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})

	if !s.Toggle("食品") {
		t.Fatal("first toggle should select")
	}
	if s.Toggle("食品") {
		t.Fatal("second toggle should deselect")
	}
	if got := s.Selected(); len(got) != 0 {
		t.Fatalf("selection = %v, want empty", got)
	}
}

func TestSelectionSurvivesNavigation(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})

	s.Toggle("交通")
	s.NavigateInto("食品")
	s.NavigateInto("零食")
	s.Toggle("薯片")

	sel := s.Selected()
	if len(sel) != 2 {
		t.Fatalf("selection size = %d, want 2", len(sel))
	}
	if got := sel[1].Path; len(got) != 3 || got[0] != "食品" || got[2] != "薯片" {
		t.Fatalf("snapshot path = %v, want [食品 零食 薯片]", got)
	}

	// Leaving the branch keeps both snapshots intact.
	s.NavigateToLevel(0)
	if got := s.Selected(); len(got) != 2 {
		t.Fatalf("selection after navigation = %v, want 2 entries", got)
	}
}

func TestDeselectWorksOffPath(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})
	s.NavigateInto("食品")
	s.Toggle("饮料")
	s.NavigateToLevel(0)

	// 饮料 is no longer visible but removal by id still applies.
	if !s.Deselect(12) {
		t.Fatal("deselect by id failed for an off-path selection")
	}
	if s.Deselect(12) {
		t.Fatal("deselect of an absent id reported success")
	}
}

func TestToggleOnUnknownNameIsRejected(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})
	if s.Toggle("零食") {
		t.Fatal("selected a category not visible at the current path")
	}
}

func TestSetDateFilterReloadsTreeAndResetsStalePath(t *testing.T) {
	fake := &fakeUpstream{tree: testTree()}
	s := newTestSession(t, fake)
	s.NavigateInto("食品")
	s.NavigateInto("零食")

	// The new range has no 食品 spending at all, so the old path is dead.
	fake.mu.Lock()
	fake.tree = []core.CategoryNode{{ID: 2, Name: "日用品", TotalCNY: 50, ItemCount: 2}}
	fake.mu.Unlock()

	if err := s.SetDateFilter(context.Background(), core.DateFilter{StartDate: "2026-01-01", EndDate: "2026-01-31"}); err != nil {
		t.Fatalf("SetDateFilter: %v", err)
	}
	if s.Level() != 0 {
		t.Fatalf("stale path survived reload, level = %d", s.Level())
	}
	if got := s.CurrentCategories(); len(got) != 1 || got[0].Name != "日用品" {
		t.Fatalf("visible categories = %v", got)
	}
}

func TestSetDateFilterRejectsInvalidRange(t *testing.T) {
	s := newTestSession(t, &fakeUpstream{tree: testTree()})
	if err := s.SetDateFilter(context.Background(), core.DateFilter{StartDate: "2026-02-01", EndDate: "2026-01-01"}); err == nil {
		t.Fatal("inverted range accepted")
	}
	if err := s.SetDateFilter(context.Background(), core.DateFilter{StartDate: "yesterday"}); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("err = %v, want ErrInvalidDate", err)
	}
}

func TestCurrentCategoriesDegradesOnStaleTree(t *testing.T) {
	fake := &fakeUpstream{tree: testTree()}
	s := newTestSession(t, fake)
	s.NavigateInto("食品")

	// Simulate a tree swap that bypassed path validation.
	s.mu.Lock()
	s.tree = []core.CategoryNode{{ID: 9, Name: "其他"}}
	s.mu.Unlock()

	if got := s.CurrentCategories(); got != nil {
		t.Fatalf("stale path yielded %v, want nil", got)
	}
}
