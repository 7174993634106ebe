// Package chart projects comparison groups into the line-chart payload the
// browser renders. The projection is rebuilt from scratch on every change;
// there is no incremental diffing of datasets.
package chart

import (
	"fmt"
	"sort"

	"hamsterwallet/internal/core"
)

// palette cycles per dataset, matching the page's fixed color order.
var palette = []string{
	"#3498db", "#e74c3c", "#2ecc71", "#f39c12", "#9b59b6",
	"#1abc9c", "#34495e", "#e67e22", "#c0392b", "#8e44ad",
}

// Dataset is one group's line. Points align index-for-index with the chart's
// Dates axis; GroupID lets a point click route back to the owning group
// without re-fetching anything.
type Dataset struct {
	GroupID    string    `json:"group_id"`
	Label      string    `json:"label"`
	Color      string    `json:"border_color"`
	Background string    `json:"background_color"`
	Points     []float64 `json:"data"`
}

// LineChart is the full chart payload. Dates carries the raw YYYY-MM-DD axis
// for click resolution; Labels the short M-D form shown on screen.
type LineChart struct {
	Empty    bool      `json:"empty"`
	Dates    []string  `json:"dates"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Build computes the chart from the groups' cached series. The date axis is
// the sorted union over every group's series; a group missing a date gets a
// zero point there so all lines span the same axis. Groups whose series has
// not loaded yet contribute no dataset and no dates.
func Build(groups []*core.ComparisonGroup) LineChart {
	if len(groups) == 0 {
		return LineChart{Empty: true}
	}

	seen := make(map[string]bool)
	var dates []string
	for _, g := range groups {
		if g.Data == nil {
			continue
		}
		for _, p := range g.Data.TimeSeries {
			if !seen[p.Date] {
				seen[p.Date] = true
				dates = append(dates, p.Date)
			}
		}
	}
	// ISO dates sort correctly as strings.
	sort.Strings(dates)

	chart := LineChart{
		Dates:  dates,
		Labels: make([]string, len(dates)),
	}
	for i, d := range dates {
		chart.Labels[i] = shortLabel(d)
	}

	for i, g := range groups {
		if g.Data == nil {
			continue
		}
		color := palette[i%len(palette)]
		ds := Dataset{
			GroupID:    g.LocalID,
			Label:      g.Name,
			Color:      color,
			Background: color + "20",
			Points:     make([]float64, len(dates)),
		}
		for j, d := range dates {
			if p, ok := g.Data.PointOn(d); ok {
				ds.Points[j] = p.TotalCNY
			}
		}
		chart.Datasets = append(chart.Datasets, ds)
	}

	if len(chart.Datasets) == 0 {
		return LineChart{Empty: true}
	}
	return chart
}

// shortLabel renders "2026-08-03" as "8-3", the axis form the page uses.
func shortLabel(date string) string {
	if len(date) != 10 {
		return date
	}
	month, day := date[5:7], date[8:10]
	var m, d int
	if _, err := fmt.Sscanf(month+" "+day, "%d %d", &m, &d); err != nil {
		return date
	}
	return fmt.Sprintf("%d-%d", m, d)
}
