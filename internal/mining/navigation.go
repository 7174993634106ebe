package mining

import "hamsterwallet/internal/core"

// Breadcrumb is one clickable segment of the drill-down path.
type Breadcrumb struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// Path returns a copy of the current drill-down path, root first.
func (s *Session) Path() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.path))
	copy(out, s.path)
	return out
}

// Level returns the current drill-down depth: 0 at the root, up to
// core.MaxTreeDepth-1 at the deepest level.
func (s *Session) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.path)
}

// Breadcrumbs returns the path rendered as root-anchored crumbs. The first
// crumb is always the synthetic root at level 0.
func (s *Session) Breadcrumbs() []Breadcrumb {
	s.mu.Lock()
	defer s.mu.Unlock()
	crumbs := make([]Breadcrumb, 0, len(s.path)+1)
	crumbs = append(crumbs, Breadcrumb{Name: "全部分类", Level: 0})
	for i, name := range s.path {
		crumbs = append(crumbs, Breadcrumb{Name: name, Level: i + 1})
	}
	return crumbs
}

// CurrentCategories returns the nodes visible at the current path. A path
// made stale by a tree reload degrades to an empty list, never an error.
func (s *Session) CurrentCategories() []core.CategoryNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	nodes, ok := core.ResolvePath(s.tree, s.path)
	if !ok {
		return nil
	}
	return nodes
}

// NavigateInto descends into the named category. It is a no-op when the
// session is already at the deepest level, the name is not visible at the
// current path, or the node has no children. Returns whether the path moved.
func (s *Session) NavigateInto(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.path) >= core.MaxTreeDepth-1 {
		return false
	}
	visible, ok := core.ResolvePath(s.tree, s.path)
	if !ok {
		return false
	}
	node, ok := findNode(visible, name)
	if !ok || !node.HasChildren() {
		return false
	}
	s.path = append(s.path, name)
	return true
}

// NavigateBack pops one level off the path. No-op at the root.
func (s *Session) NavigateBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.path) == 0 {
		return false
	}
	s.path = s.path[:len(s.path)-1]
	return true
}

// NavigateToLevel jumps to an ancestor level via a breadcrumb: 0 is the
// root, len(path) the current level. Deeper or negative targets are no-ops.
func (s *Session) NavigateToLevel(level int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if level < 0 || level > len(s.path) {
		return false
	}
	s.path = s.path[:level]
	return true
}

func findNode(nodes []core.CategoryNode, name string) (core.CategoryNode, bool) {
	for _, n := range nodes {
		if n.Name == name {
			return n, true
		}
	}
	return core.CategoryNode{}, false
}
