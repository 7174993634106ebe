package http

import (
	"net/http"

	"hamsterwallet/internal/chart"
	"hamsterwallet/internal/core"
	"hamsterwallet/internal/mining"
)

// filterRequest selects a date range either by preset or by explicit bounds.
type filterRequest struct {
	Preset    string `json:"preset,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

func (fr filterRequest) toFilter() (core.DateFilter, bool) {
	switch fr.Preset {
	case "":
		return core.DateFilter{StartDate: fr.StartDate, EndDate: fr.EndDate}, true
	case "all":
		return core.DateFilter{}, true
	case "last7days":
		return core.LastDays(7), true
	case "lastmonth":
		return core.LastMonths(1), true
	case "last3months":
		return core.LastMonths(3), true
	default:
		return core.DateFilter{}, false
	}
}

// groupView is the group summary sent to the page; the raw series stays
// server-side and reaches the client only through the chart projection.
type groupView struct {
	LocalID    string                  `json:"local_id"`
	SavedID    int64                   `json:"saved_id,omitempty"`
	Name       string                  `json:"name"`
	Categories []core.SelectedCategory `json:"categories"`
	Saved      bool                    `json:"saved"`
	Editing    bool                    `json:"editing"`
	HasData    bool                    `json:"has_data"`
}

type miningState struct {
	Filter      core.DateFilter         `json:"filter"`
	Breadcrumbs []mining.Breadcrumb     `json:"breadcrumbs"`
	Categories  []categoryView          `json:"categories"`
	Selected    []core.SelectedCategory `json:"selected"`
	Groups      []groupView             `json:"groups"`
}

type categoryView struct {
	core.CategoryNode
	Selected     bool   `json:"selected"`
	FormattedCNY string `json:"formatted_cny"`
}

func (s *Server) miningStateView() miningState {
	selectedIDs := s.session.SelectedIDs()
	nodes := s.session.CurrentCategories()

	cats := make([]categoryView, 0, len(nodes))
	for _, n := range nodes {
		cats = append(cats, categoryView{
			CategoryNode: n,
			Selected:     selectedIDs[n.ID],
			FormattedCNY: core.FormatCNY(n.TotalCNY),
		})
	}

	editing, hasEditing := s.session.EditingGroup()
	groups := s.session.Groups()
	views := make([]groupView, 0, len(groups))
	for _, g := range groups {
		views = append(views, groupView{
			LocalID:    g.LocalID,
			SavedID:    g.SavedID,
			Name:       g.Name,
			Categories: g.Categories,
			Saved:      g.Saved(),
			Editing:    hasEditing && editing.LocalID == g.LocalID,
			HasData:    g.Data != nil,
		})
	}

	return miningState{
		Filter:      s.session.Filter(),
		Breadcrumbs: s.session.Breadcrumbs(),
		Categories:  cats,
		Selected:    s.session.Selected(),
		Groups:      views,
	}
}

func (s *Server) handleMiningState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.miningStateView())
}

func (s *Server) handleMiningFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	filter, ok := req.toFilter()
	if !ok {
		badRequest(w, "未知的日期范围")
		return
	}
	if err := s.session.SetDateFilter(r.Context(), filter); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "", s.miningStateView())
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	s.session.NavigateInto(req.Name)
	writeJSON(w, http.StatusOK, s.miningStateView())
}

func (s *Server) handleNavigateBack(w http.ResponseWriter, _ *http.Request) {
	s.session.NavigateBack()
	writeJSON(w, http.StatusOK, s.miningStateView())
}

func (s *Server) handleNavigateLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level int `json:"level"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	s.session.NavigateToLevel(req.Level)
	writeJSON(w, http.StatusOK, s.miningStateView())
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	s.session.Toggle(req.Name)
	writeJSON(w, http.StatusOK, s.miningStateView())
}

func (s *Server) handleDeselect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID int64 `json:"id"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	s.session.Deselect(req.ID)
	writeJSON(w, http.StatusOK, s.miningStateView())
}

func (s *Server) handleClearSelection(w http.ResponseWriter, _ *http.Request) {
	s.session.ClearSelection()
	writeJSON(w, http.StatusOK, s.miningStateView())
}

func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.miningStateView().Groups)
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	group, err := s.session.CreateFromSelection(r.Context(), req.Name)
	if err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "对比组已创建: "+group.Name, s.miningStateView())
}

func (s *Server) handleSaveGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Save(r.Context(), r.PathValue("id")); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "对比组已保存", s.miningStateView())
}

func (s *Server) handleStartEdit(w http.ResponseWriter, r *http.Request) {
	if err := s.session.StartEdit(r.PathValue("id")); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "", s.miningStateView())
}

func (s *Server) handleCommitEdit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	if err := s.session.CommitEdit(r.Context(), r.PathValue("id"), req.Name); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "对比组已更新", s.miningStateView())
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, _ *http.Request) {
	s.session.CancelEdit()
	writeJSON(w, http.StatusOK, s.miningStateView())
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Remove(r.Context(), r.PathValue("id")); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "对比组已删除", s.miningStateView())
}

func (s *Server) handleRefreshGroup(w http.ResponseWriter, r *http.Request) {
	if err := s.session.RefreshSeries(r.Context(), r.PathValue("id")); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "", s.miningStateView())
}

func (s *Server) handleChart(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, chart.Build(s.session.Groups()))
}

// pointDetails backs the detail panel under the chart. A date with no data
// for the group is a legitimate empty state, not an error.
type pointDetails struct {
	Found        bool            `json:"found"`
	GroupName    string          `json:"group_name,omitempty"`
	Date         string          `json:"date,omitempty"`
	TotalCNY     float64         `json:"total_cny,omitempty"`
	FormattedCNY string          `json:"formatted_cny,omitempty"`
	Items        []core.LineItem `json:"items,omitempty"`
}

func (s *Server) handlePointDetails(w http.ResponseWriter, r *http.Request) {
	localID := r.PathValue("id")
	date := r.PathValue("date")

	group, ok := s.session.Group(localID)
	if !ok {
		badRequest(w, "对比组不存在")
		return
	}

	point, ok := s.session.PointDetails(localID, date)
	if !ok {
		writeJSON(w, http.StatusOK, pointDetails{Found: false})
		return
	}

	writeJSON(w, http.StatusOK, pointDetails{
		Found:        true,
		GroupName:    group.Name,
		Date:         point.Date,
		TotalCNY:     point.TotalCNY,
		FormattedCNY: core.FormatCNY(point.TotalCNY),
		Items:        point.Items,
	})
}
