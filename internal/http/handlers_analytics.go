package http

import (
	"net/http"

	"hamsterwallet/internal/analytics"
	"hamsterwallet/internal/core"
)

// metricsView decorates the dashboard block with display-formatted amounts;
// raw numbers stay alongside for anything the page computes itself.
type metricsView struct {
	core.DashboardMetrics
	FormattedTotalJPY   string `json:"formatted_total_jpy"`
	FormattedTotalCNY   string `json:"formatted_total_cny"`
	FormattedAverageJPY string `json:"formatted_average_jpy"`
	FormattedAverageCNY string `json:"formatted_average_cny"`
}

type analyticsState struct {
	Filter    core.DateFilter        `json:"filter"`
	Metrics   metricsView            `json:"metrics"`
	Trend     []core.TrendPoint      `json:"trend"`
	Breakdown core.CategoryBreakdown `json:"breakdown"`
	Level     int                    `json:"level"`
	Stack     []string               `json:"stack"`
	List      analytics.ItemList     `json:"list"`
}

func (s *Server) analyticsStateView() analyticsState {
	m := s.page.Metrics()
	return analyticsState{
		Filter: s.page.Filter(),
		Metrics: metricsView{
			DashboardMetrics:    m,
			FormattedTotalJPY:   core.FormatJPY(m.TotalSpending.JPY),
			FormattedTotalCNY:   core.FormatCNY(m.TotalSpending.CNY),
			FormattedAverageJPY: core.FormatJPY(m.DailyAverage.JPY),
			FormattedAverageCNY: core.FormatCNY(m.DailyAverage.CNY),
		},
		Trend:     s.page.Trend(),
		Breakdown: s.page.Breakdown(),
		Level:     s.page.Level(),
		Stack:     s.page.Stack(),
		List:      s.page.List(),
	}
}

func (s *Server) handleAnalyticsState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.analyticsStateView())
}

func (s *Server) handleAnalyticsFilter(w http.ResponseWriter, r *http.Request) {
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
	if err := s.page.SetDateFilter(r.Context(), filter); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "", s.analyticsStateView())
}

func (s *Server) handleDrill(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Category string `json:"category"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	if req.Category == "" {
		badRequest(w, "缺少分类名称")
		return
	}
	if err := s.page.DrillInto(r.Context(), req.Category); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "", s.analyticsStateView())
}

func (s *Server) handleAnalyticsLevel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Level int `json:"level"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	if err := s.page.NavigateToLevel(r.Context(), req.Level); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "", s.analyticsStateView())
}

func (s *Server) handleDailyItems(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if err := readJSON(r, &req); err != nil {
		badRequest(w, "请求格式错误")
		return
	}
	if req.Date == "" {
		badRequest(w, "缺少日期")
		return
	}
	if err := s.page.ShowDailyItems(r.Context(), req.Date); err != nil {
		writeToastError(w, r, err)
		return
	}
	writeToast(w, "", s.analyticsStateView())
}

// handleFilteredList applies search and sort to the currently loaded item
// list without touching the page state; repeated calls with different
// queries never refetch.
func (s *Server) handleFilteredList(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	mode := analytics.SortMode(r.URL.Query().Get("sort"))

	list := s.page.List()
	filtered := analytics.FilterItems(list.Items, query, mode)

	writeJSON(w, http.StatusOK, analytics.ItemList{
		Kind:     list.Kind,
		Date:     list.Date,
		Category: list.Category,
		Level:    list.Level,
		Items:    filtered,
	})
}
