// Package progress derives an account's hunter rank from its quests. Nothing
// here is stored; the snapshot is recomputed from every quest list.
package progress

import "tableflip.dev/questlog/pkg/quest"

const (
	// PointsPerStar is awarded per difficulty star of a completed quest.
	PointsPerStar = 10

	// PointsPerRank is the width of one rank.
	PointsPerRank = 100
)

// Snapshot is the derived state shown next to the quest list.
type Snapshot struct {
	Points    int    `json:"points" yaml:"points"`
	Rank      int    `json:"rank" yaml:"rank"`
	RankTitle string `json:"rankTitle" yaml:"rankTitle"`
	// Progress is the position inside the current rank, 0-99.
	Progress int `json:"progress" yaml:"progress"`
}

// Tier names a band of ranks. Below is exclusive; zero means unbounded.
type Tier struct {
	From  int    `json:"from" yaml:"from"`
	Below int    `json:"below,omitempty" yaml:"below,omitempty"`
	Title string `json:"title" yaml:"title"`
}

var tiers = []Tier{
	{From: 1, Below: 2, Title: "Novato"},
	{From: 2, Below: 5, Title: "Cazador de Rango Bajo"},
	{From: 5, Below: 10, Title: "Cazador de Rango Alto"},
	{From: 10, Below: 20, Title: "Cazador Clase G"},
	{From: 20, Below: 50, Title: "Maestro Cazador"},
	{From: 50, Title: "Estrella Zafiro"},
}

// Tiers lists every rank band, lowest first.
func Tiers() []Tier {
	out := make([]Tier, len(tiers))
	copy(out, tiers)
	return out
}

// Title returns the title for rank.
func Title(rank int) string {
	for _, t := range tiers {
		if t.Below == 0 || rank < t.Below {
			return t.Title
		}
	}
	return tiers[len(tiers)-1].Title
}

// Compute scores quests. Only completed quests count.
func Compute(quests []quest.Quest) Snapshot {
	points := 0
	for _, q := range quests {
		if q.Completed {
			points += q.Stars() * PointsPerStar
		}
	}
	rank := points/PointsPerRank + 1
	return Snapshot{
		Points:    points,
		Rank:      rank,
		RankTitle: Title(rank),
		Progress:  points % PointsPerRank,
	}
}
