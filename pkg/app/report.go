package app

import (
	"context"
	"sort"
	"time"

	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/quest"
)

// ReportItem is a quest completed inside the report window.
type ReportItem struct {
	Quest       quest.Quest `json:"quest" yaml:"quest"`
	CompletedAt time.Time   `json:"completedAt" yaml:"completedAt"`
	Points      int         `json:"points" yaml:"points"`
}

// ReportSection groups completed quests of one difficulty.
type ReportSection struct {
	Stars  int          `json:"stars" yaml:"stars"`
	Quests []ReportItem `json:"quests" yaml:"quests"`
	Points int          `json:"points" yaml:"points"`
}

// ReportResult is a hunt report for a time window.
type ReportResult struct {
	Since    time.Time       `json:"since" yaml:"since"`
	Until    time.Time       `json:"until" yaml:"until"`
	Sections []ReportSection `json:"sections" yaml:"sections"`
	Total    int             `json:"total" yaml:"total"`
	Points   int             `json:"points" yaml:"points"`
}

// Report returns the active account's quests completed between since and
// until, hardest first.
func (s *Service) Report(ctx context.Context, since, until time.Time) (ReportResult, error) {
	quests, err := s.Quests.List(ctx)
	if err != nil {
		return ReportResult{}, err
	}
	return BuildReport(quests, since, until), nil
}

// BuildReport groups the quests completed inside [since, until] by
// difficulty. Bounds given in the wrong order are swapped.
func BuildReport(quests []quest.Quest, since, until time.Time) ReportResult {
	if since.After(until) {
		since, until = until, since
	}
	result := ReportResult{Since: since, Until: until, Sections: []ReportSection{}}

	grouped := make(map[int][]ReportItem)
	for _, q := range quests {
		if !q.Completed || q.CompletedAt == nil {
			continue
		}
		at := q.CompletedAt.Time
		if at.Before(since) || at.After(until) {
			continue
		}
		item := ReportItem{
			Quest:       q,
			CompletedAt: at,
			Points:      q.Stars() * progress.PointsPerStar,
		}
		grouped[q.Stars()] = append(grouped[q.Stars()], item)
		result.Total++
		result.Points += item.Points
	}
	if len(grouped) == 0 {
		return result
	}

	stars := make([]int, 0, len(grouped))
	for s := range grouped {
		stars = append(stars, s)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(stars)))

	for _, s := range stars {
		items := grouped[s]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].CompletedAt.After(items[j].CompletedAt)
		})
		section := ReportSection{Stars: s, Quests: items}
		for _, it := range items {
			section.Points += it.Points
		}
		result.Sections = append(result.Sections, section)
	}
	return result
}
