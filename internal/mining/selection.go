package mining

import "hamsterwallet/internal/core"

// Selected returns a copy of the accumulated selection in insertion order.
func (s *Session) Selected() []core.SelectedCategory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.SelectedCategory, len(s.selected))
	copy(out, s.selected)
	return out
}

// SelectedIDs reports the ids currently in the selection, used by the
// template to mark visible cards.
func (s *Session) SelectedIDs() map[int64]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[int64]bool, len(s.selected))
	for _, sel := range s.selected {
		ids[sel.ID] = true
	}
	return ids
}

// Toggle adds the named visible category to the selection, or removes it if
// already selected. The snapshot keeps the path it was taken at, so the
// selection survives later navigation. Returns whether the category is
// selected after the call.
func (s *Session) Toggle(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	visible, ok := core.ResolvePath(s.tree, s.path)
	if !ok {
		return false
	}
	node, ok := findNode(visible, name)
	if !ok {
		return false
	}
	for i, sel := range s.selected {
		if sel.ID == node.ID {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return false
		}
	}
	s.selected = append(s.selected, node.Snapshot(s.path))
	return true
}

// Deselect removes a category from the selection by id. Unlike Toggle it
// works regardless of what is currently visible; the selection panel lists
// entries picked at any path.
func (s *Session) Deselect(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sel := range s.selected {
		if sel.ID == id {
			s.selected = append(s.selected[:i], s.selected[i+1:]...)
			return true
		}
	}
	return false
}

// ClearSelection drops every selected category.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = nil
}
