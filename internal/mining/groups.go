package mining

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"hamsterwallet/internal/core"
	"hamsterwallet/internal/upstream"
)

// Groups returns the comparison groups in creation order. Callers treat the
// returned groups as read-only; all mutation goes through session methods.
func (s *Session) Groups() []*core.ComparisonGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*core.ComparisonGroup, len(s.groups))
	copy(out, s.groups)
	return out
}

// Group looks up a comparison group by its local id.
func (s *Session) Group(localID string) (*core.ComparisonGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findGroup(localID)
}

// EditingGroup returns the group currently being edited, if any.
func (s *Session) EditingGroup() (*core.ComparisonGroup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.editingID == "" {
		return nil, false
	}
	return s.findGroup(s.editingID)
}

func (s *Session) findGroup(localID string) (*core.ComparisonGroup, bool) {
	for _, g := range s.groups {
		if g.LocalID == localID {
			return g, true
		}
	}
	return nil, false
}

// CreateFromSelection builds a new comparison group from the current
// selection, clears the selection, and fetches its series. With AutoSave the
// group is persisted first; a persistence failure keeps the group local-only
// rather than discarding the user's selection work.
func (s *Session) CreateFromSelection(ctx context.Context, name string) (*core.ComparisonGroup, error) {
	s.mu.Lock()
	categories := make([]core.SelectedCategory, len(s.selected))
	copy(categories, s.selected)
	s.mu.Unlock()

	group := &core.ComparisonGroup{
		LocalID:    uuid.NewString(),
		Name:       name,
		Categories: categories,
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	if s.opts.AutoSave {
		id, err := s.store.CreateGroup(ctx, group.Name, group.Categories)
		if err != nil {
			slog.WarnContext(ctx, "Comparison group auto-save failed, keeping group local",
				"name", group.Name, "error", err)
		} else {
			group.SavedID = id
		}
	}

	s.mu.Lock()
	s.groups = append(s.groups, group)
	s.selected = nil
	s.mu.Unlock()

	if err := s.RefreshSeries(ctx, group.LocalID); err != nil {
		slog.WarnContext(ctx, "Comparison series fetch failed for new group",
			"group", group.LocalID, "error", err)
	}
	return group, nil
}

// Save persists a local-only group. Saving an already-saved group is a
// no-op. On success the group carries the backend id from then on.
func (s *Session) Save(ctx context.Context, localID string) error {
	s.mu.Lock()
	group, ok := s.findGroup(localID)
	if !ok {
		s.mu.Unlock()
		return core.ErrGroupNotFound
	}
	if group.Saved() {
		s.mu.Unlock()
		return nil
	}
	name := group.Name
	categories := make([]core.SelectedCategory, len(group.Categories))
	copy(categories, group.Categories)
	s.mu.Unlock()

	id, err := s.store.CreateGroup(ctx, name, categories)
	if err != nil {
		return fmt.Errorf("save comparison group %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if group, ok := s.findGroup(localID); ok {
		group.SavedID = id
	}
	return nil
}

// StartEdit enters edit mode for a group: the group's categories replace the
// current selection so the user reworks membership through the normal
// selection flow. Starting an edit implicitly cancels any other edit in
// progress; at most one group is ever in edit mode.
func (s *Session) StartEdit(localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.findGroup(localID)
	if !ok {
		return core.ErrGroupNotFound
	}
	s.editingID = group.LocalID
	s.selected = make([]core.SelectedCategory, len(group.Categories))
	copy(s.selected, group.Categories)
	return nil
}

// CommitEdit applies the current selection as the edited group's new name
// and membership. For saved groups the backend update must succeed first; on
// failure the session leaves edit mode with the group unchanged, so the
// local state never diverges from the server. On success the group's series
// is re-fetched for the new membership. Committing a group that is not in
// edit mode under a name it already carries is a no-op, so a repeated commit
// after edit mode has ended succeeds without touching the backend.
func (s *Session) CommitEdit(ctx context.Context, localID, name string) error {
	s.mu.Lock()
	if s.editingID != localID {
		if group, ok := s.findGroup(localID); ok && strings.TrimSpace(name) == strings.TrimSpace(group.Name) {
			s.mu.Unlock()
			return nil
		}
		s.mu.Unlock()
		return fmt.Errorf("group %s is not being edited", localID)
	}
	group, ok := s.findGroup(localID)
	if !ok {
		s.editingID = ""
		s.mu.Unlock()
		return core.ErrGroupNotFound
	}
	draft := core.ComparisonGroup{Name: name}
	draft.Categories = make([]core.SelectedCategory, len(s.selected))
	copy(draft.Categories, s.selected)
	saved := group.Saved()
	savedID := group.SavedID
	s.mu.Unlock()

	if err := draft.Validate(); err != nil {
		return err
	}

	if saved {
		if err := s.store.UpdateGroup(ctx, savedID, draft.Name, draft.Categories); err != nil {
			s.mu.Lock()
			s.editingID = ""
			s.selected = nil
			s.mu.Unlock()
			return fmt.Errorf("update comparison group %q: %w", draft.Name, err)
		}
	}

	s.mu.Lock()
	group.Name = draft.Name
	group.Categories = draft.Categories
	s.editingID = ""
	s.selected = nil
	s.mu.Unlock()

	if err := s.RefreshSeries(ctx, localID); err != nil {
		slog.WarnContext(ctx, "Comparison series refresh failed after edit",
			"group", localID, "error", err)
	}
	return nil
}

// CancelEdit leaves edit mode and clears the working selection. The group
// keeps its pre-edit name and membership.
func (s *Session) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingID = ""
	s.selected = nil
}

// Remove deletes a comparison group. Saved groups are deleted on the backend
// first; if that fails the group stays in the session so the page never
// shows a group as gone while the server still has it. Removing the group
// under edit also leaves edit mode.
func (s *Session) Remove(ctx context.Context, localID string) error {
	s.mu.Lock()
	group, ok := s.findGroup(localID)
	if !ok {
		s.mu.Unlock()
		return core.ErrGroupNotFound
	}
	name := group.Name
	saved := group.Saved()
	savedID := group.SavedID
	s.mu.Unlock()

	if saved {
		if err := s.store.DeleteGroup(ctx, savedID); err != nil {
			return fmt.Errorf("delete comparison group %q: %w", name, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, g := range s.groups {
		if g.LocalID == localID {
			s.groups = append(s.groups[:i], s.groups[i+1:]...)
			break
		}
	}
	if s.editingID == localID {
		s.editingID = ""
		s.selected = nil
	}
	return nil
}

// RefreshSeries re-fetches one group's series for the current date filter.
// On failure the group keeps whatever series it had.
func (s *Session) RefreshSeries(ctx context.Context, localID string) error {
	s.mu.Lock()
	group, ok := s.findGroup(localID)
	if !ok {
		s.mu.Unlock()
		return core.ErrGroupNotFound
	}
	name := group.Name
	categories := make([]core.SelectedCategory, len(group.Categories))
	copy(categories, group.Categories)
	filter := s.filter
	s.mu.Unlock()

	series, err := s.series.CompareSelection(ctx, name, categories, filter)
	if err != nil {
		return fmt.Errorf("fetch comparison series %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if group, ok := s.findGroup(localID); ok {
		group.Data = series
	}
	return nil
}

// LoadPersisted pulls the saved groups from the backend into the session and
// fetches each one's series. Groups that fail to fetch a series still load;
// only the list call itself is fatal.
func (s *Session) LoadPersisted(ctx context.Context) error {
	saved, err := s.store.ListGroups(ctx)
	if err != nil {
		return fmt.Errorf("list comparison groups: %w", err)
	}

	groups := make([]*core.ComparisonGroup, 0, len(saved))
	for _, sg := range saved {
		groups = append(groups, groupFromSaved(sg))
	}

	s.mu.Lock()
	s.groups = groups
	s.editingID = ""
	s.mu.Unlock()

	s.refreshAll(ctx)
	return nil
}

func groupFromSaved(sg upstream.SavedGroup) *core.ComparisonGroup {
	return &core.ComparisonGroup{
		LocalID:    uuid.NewString(),
		SavedID:    sg.ID,
		Name:       sg.Name,
		Categories: sg.Categories,
	}
}

// PointDetails resolves a chart point click from the cached series without a
// network round trip. Absent data yields ok=false.
func (s *Session) PointDetails(localID, date string) (core.SeriesPoint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.findGroup(localID)
	if !ok || group.Data == nil {
		return core.SeriesPoint{}, false
	}
	return group.Data.PointOn(date)
}
