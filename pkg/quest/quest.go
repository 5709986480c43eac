// Package quest holds the quest record and the operations an account runs
// on its quest collection.
package quest

import (
	"strings"
	"time"

	"tableflip.dev/questlog/pkg/docstore"
	"tableflip.dev/questlog/pkg/timeutil"
)

const (
	// DefaultIcon is shown for quests created without an icon.
	DefaultIcon = "Great_Jagras_Icon.webp"

	// MinDifficulty and MaxDifficulty bound a quest's star rating.
	MinDifficulty = 1
	MaxDifficulty = 9

	// OrderField is the field quest collections are listed by, newest first.
	OrderField = "createdAt"

	// NearDue is how close a deadline must be before a quest is flagged.
	NearDue = 24 * time.Hour
)

// Quest is a task owned by one account.
type Quest struct {
	ID          string              `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string              `json:"name" yaml:"name"`
	Details     string              `json:"details,omitempty" yaml:"details,omitempty"`
	Difficulty  int                 `json:"difficulty" yaml:"difficulty"`
	IconID      string              `json:"iconId" yaml:"iconId"`
	DueAt       *timeutil.Timestamp `json:"dueAt,omitempty" yaml:"dueAt,omitempty"`
	Completed   bool                `json:"completed" yaml:"completed"`
	CreatedAt   timeutil.Timestamp  `json:"createdAt" yaml:"createdAt"`
	CompletedAt *timeutil.Timestamp `json:"completedAt,omitempty" yaml:"completedAt,omitempty"`
	UpdatedAt   *timeutil.Timestamp `json:"updatedAt,omitempty" yaml:"updatedAt,omitempty"`
}

// Stars is the difficulty used for scoring. Records written without one
// count as a single star.
func (q Quest) Stars() int {
	if q.Difficulty < MinDifficulty {
		return MinDifficulty
	}
	return q.Difficulty
}

// Icon returns the quest's icon, or DefaultIcon when none is set.
func (q Quest) Icon() string {
	if q.IconID == "" {
		return DefaultIcon
	}
	return q.IconID
}

// Collection is where the quests of key live.
func Collection(key string) string {
	return docstore.Join("accounts", docstore.Segment(key), "quests")
}

// Path locates one quest.
func Path(key, id string) string {
	return docstore.Join(Collection(key), docstore.Segment(id))
}

// FromDocument decodes a stored quest, taking its id from the path.
func FromDocument(doc docstore.Document) (Quest, error) {
	var q Quest
	if err := doc.Decode(&q); err != nil {
		return Quest{}, err
	}
	q.ID = doc.ID
	return q, nil
}

// DueStatus classifies a deadline relative to now.
type DueStatus int

const (
	DueNone DueStatus = iota
	DueNear
	DueOverdue
)

func (s DueStatus) String() string {
	switch s {
	case DueNear:
		return "near"
	case DueOverdue:
		return "overdue"
	default:
		return "none"
	}
}

// DueStatus reports whether an open quest is overdue or due within NearDue.
// Completed quests and quests without a deadline are never flagged.
func (q Quest) DueStatus(now time.Time) DueStatus {
	if q.Completed || q.DueAt == nil || q.DueAt.IsZero() {
		return DueNone
	}
	switch {
	case now.After(q.DueAt.Time):
		return DueOverdue
	case q.DueAt.Sub(now) < NearDue:
		return DueNear
	default:
		return DueNone
	}
}

// Tab selects quests by completion state.
type Tab string

const (
	TabAll       Tab = "all"
	TabActive    Tab = "active"
	TabCompleted Tab = "completed"
)

// Tabs lists the valid tabs in display order.
func Tabs() []Tab {
	return []Tab{TabAll, TabActive, TabCompleted}
}

// Filter narrows a quest list for display.
type Filter struct {
	Search string
	Tab    Tab
}

// Apply keeps the order of quests.
func (f Filter) Apply(quests []Quest) []Quest {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Quest, 0, len(quests))
	for _, q := range quests {
		if search != "" && !strings.Contains(strings.ToLower(q.Name), search) {
			continue
		}
		switch f.Tab {
		case TabActive:
			if q.Completed {
				continue
			}
		case TabCompleted:
			if !q.Completed {
				continue
			}
		}
		out = append(out, q)
	}
	return out
}
