package options

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tableflip.dev/questlog/pkg/quest"
	"tableflip.dev/questlog/pkg/timeutil"
)

// QuestOptions are the editable fields of a quest.
type QuestOptions struct {
	Name       string
	Details    string
	Difficulty int
	Icon       string
	Due        string
	ClearDue   bool
}

func AddQuestArgs(cmd *cobra.Command, o *QuestOptions) {
	cmd.Flags().StringVarP(&o.Details, "details", "d", "",
		"Longer description of the quest.")
	cmd.Flags().IntVarP(&o.Difficulty, "stars", "s", quest.MinDifficulty,
		"Difficulty from 1 to 9 stars.")
	cmd.Flags().StringVar(&o.Icon, "icon", "",
		"Monster icon, by file or display name.")
	cmd.Flags().StringVar(&o.Due, "due", "",
		`Deadline, example: --due="2025-03-01", --due="2025-03-01T18:30" or --due=3d.`)
}

func AddEditArgs(cmd *cobra.Command, o *QuestOptions) {
	AddQuestArgs(cmd, o)
	cmd.Flags().StringVarP(&o.Name, "name", "n", "",
		"New name of the quest.")
	cmd.Flags().BoolVar(&o.ClearDue, "no-due", false,
		"Remove the deadline.")
}

// GetDue parses --due relative to now. It returns nil when unset.
func (o *QuestOptions) GetDue(now time.Time) (*time.Time, error) {
	if strings.TrimSpace(o.Due) == "" {
		return nil, nil
	}
	t, err := timeutil.ParseDeadline(o.Due, now)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Fields builds a new quest from the flags.
func (o *QuestOptions) Fields(now time.Time) (quest.Fields, error) {
	due, err := o.GetDue(now)
	if err != nil {
		return quest.Fields{}, err
	}
	return quest.Fields{
		Name:       o.Name,
		Details:    o.Details,
		Difficulty: o.Difficulty,
		IconID:     o.Icon,
		DueAt:      due,
	}, nil
}

// Patch holds only the flags that were set on cmd.
func (o *QuestOptions) Patch(cmd *cobra.Command, now time.Time) (quest.Patch, error) {
	var p quest.Patch
	flags := cmd.Flags()
	if flags.Changed("name") {
		p.Name = &o.Name
	}
	if flags.Changed("details") {
		p.Details = &o.Details
	}
	if flags.Changed("stars") {
		p.Difficulty = &o.Difficulty
	}
	if flags.Changed("icon") {
		p.IconID = &o.Icon
	}
	if flags.Changed("due") {
		due, err := o.GetDue(now)
		if err != nil {
			return quest.Patch{}, err
		}
		p.DueAt = due
	}
	p.ClearDue = o.ClearDue
	return p, nil
}
