// Package stats aggregates a user's activities into overview and per-year
// summaries.  Everything here is pure; callers load the activities.
package stats

import (
	"sort"

	"github.com/iliyamo/activity-tracker/internal/model"
	"github.com/iliyamo/activity-tracker/internal/utils"
)

// Summary is the aggregate shown on the dashboard.  The JSON names are the
// capitalised keys the front-end reads.
type Summary struct {
	Distance float64 `json:"Distance"`
	Days     int     `json:"Days"`
	AvgPace  string  `json:"AvgPace"`
	Routes   int     `json:"Routes"`
}

// Year groups one calendar year of activities with its summary.
// Activities are newest first.
type Year struct {
	Year       int
	Stats      Summary
	Activities []model.Activity
}

// Overview summarises acts.  Days counts distinct UTC calendar dates, Routes
// counts distinct non-empty route labels and AvgPace is the pace of the most
// recent activity rather than an average.
func Overview(acts []model.Activity) Summary {
	s := Summary{AvgPace: utils.ZeroPace}
	days := map[string]struct{}{}
	routes := map[string]struct{}{}
	for i := range acts {
		a := &acts[i]
		s.Distance += a.Distance
		days[a.Date.UTC().Format("2006-01-02")] = struct{}{}
		if a.Route != nil && *a.Route != "" {
			routes[*a.Route] = struct{}{}
		}
	}
	s.Days = len(days)
	s.Routes = len(routes)
	if last := latest(acts); last != nil && last.Pace != nil && *last.Pace != "" {
		s.AvgPace = *last.Pace
	}
	return s
}

// Yearly buckets acts by UTC year, newest year first.
func Yearly(acts []model.Activity) []Year {
	byYear := map[int][]model.Activity{}
	for _, a := range acts {
		y := a.Date.UTC().Year()
		byYear[y] = append(byYear[y], a)
	}
	out := make([]Year, 0, len(byYear))
	for y, list := range byYear {
		sortNewestFirst(list)
		out = append(out, Year{Year: y, Stats: Overview(list), Activities: list})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year > out[j].Year })
	return out
}

// latest picks the activity with the greatest date; equal dates go to the
// higher id.
func latest(acts []model.Activity) *model.Activity {
	var best *model.Activity
	for i := range acts {
		a := &acts[i]
		if best == nil || newer(a, best) {
			best = a
		}
	}
	return best
}

func newer(a, b *model.Activity) bool {
	if a.Date.Equal(b.Date) {
		return a.ID > b.ID
	}
	return a.Date.After(b.Date)
}

func sortNewestFirst(list []model.Activity) {
	sort.SliceStable(list, func(i, j int) bool { return newer(&list[i], &list[j]) })
}
