// Package mining holds the data-mining page session: the cached category
// tree, the drill-down path, the accumulated category selection, and the
// comparison-group state machine. One session is constructed per server and
// injected into the HTTP handlers; all state lives here, never in globals.
package mining

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

// refreshConcurrency bounds the fan-out when every group's series is
// re-fetched after a date-filter change or the initial load.
const refreshConcurrency = 4

// Options tune session behavior at construction time.
type Options struct {
	// AutoSave persists a comparison group immediately on creation instead
	// of leaving it local-only until an explicit save.
	AutoSave bool
}

// Session is the data-mining page state machine. All exported methods are
// safe for concurrent use; network calls run outside the lock so a slow
// backend never freezes unrelated operations.
type Session struct {
	trees  upstream.TreeReader
	series upstream.ComparisonReader
	store  upstream.GroupStore
	opts   Options

	mu          sync.Mutex
	tree        []core.CategoryNode
	path        []string
	selected    []core.SelectedCategory
	groups      []*core.ComparisonGroup
	editingID   string
	filter      core.DateFilter
	filterToken uint64
}

// NewSession wires a session to its backend ports. The initial date filter
// covers the last month, matching what the page shows before any user input.
func NewSession(trees upstream.TreeReader, series upstream.ComparisonReader, store upstream.GroupStore, opts Options) *Session {
	return &Session{
		trees:  trees,
		series: series,
		store:  store,
		opts:   opts,
		filter: core.LastMonths(1),
	}
}

// Filter returns the active date filter.
func (s *Session) Filter() core.DateFilter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// SetDateFilter validates and applies a new filter, then reloads the
// category tree and refreshes every comparison group concurrently. The two
// regions update independently; no ordering holds between them.
//
// Each filter change bumps a token carried by the tree fetch, and a fetch
// result is discarded when a newer filter was applied while it was in
// flight. The original page let late responses overwrite newer data; the
// token is a deliberate deviation from that behavior.
func (s *Session) SetDateFilter(ctx context.Context, filter core.DateFilter) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.filter = filter
	s.filterToken++
	token := s.filterToken
	s.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.loadTree(gctx, token)
	})
	g.Go(func() error {
		s.refreshAll(gctx)
		return nil
	})
	return g.Wait()
}

// LoadTree fetches the category tree for the current filter. Called once on
// page load; later reloads go through SetDateFilter.
func (s *Session) LoadTree(ctx context.Context) error {
	s.mu.Lock()
	token := s.filterToken
	s.mu.Unlock()
	return s.loadTree(ctx, token)
}

func (s *Session) loadTree(ctx context.Context, token uint64) error {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()

	nodes, err := s.trees.CategoryTree(ctx, filter)
	if err != nil {
		return fmt.Errorf("load category tree: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if token != s.filterToken {
		slog.DebugContext(ctx, "Discarding stale category tree response",
			"token", token, "current", s.filterToken)
		return nil
	}
	s.tree = nodes
	// A path that no longer resolves against the fresh tree is invalid and
	// resets to the root rather than leaving the page on a dead branch.
	if _, ok := core.ResolvePath(s.tree, s.path); !ok {
		s.path = nil
	}
	return nil
}

// Tree returns the cached category tree.
func (s *Session) Tree() []core.CategoryNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// refreshAll re-fetches every group's series with bounded concurrency.
// Failures keep the group's previous series and are logged, never fatal:
// a stale chart beats a blank one.
func (s *Session) refreshAll(ctx context.Context) {
	s.mu.Lock()
	ids := make([]string, len(s.groups))
	for i, g := range s.groups {
		ids[i] = g.LocalID
	}
	s.mu.Unlock()

	eg := new(errgroup.Group)
	eg.SetLimit(refreshConcurrency)
	for _, id := range ids {
		eg.Go(func() error {
			if err := s.RefreshSeries(ctx, id); err != nil {
				slog.WarnContext(ctx, "Comparison series refresh failed",
					"group", id, "error", err)
			}
			return nil
		})
	}
	_ = eg.Wait()
}
