// Package ranks prints the hunter rank ladder.
package ranks

import (
	"context"
	"errors"
	"io"

	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/printers"
	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/quest"
)

// Ranks prints every rank band. When an account is active its band is
// marked.
type Ranks struct {
	JSON   bool
	Out    io.Writer
	Quests *quest.Manager
}

func (k *Ranks) Do(ctx context.Context) error {
	rank := 0
	if k.Quests != nil {
		all, err := k.Quests.List(ctx)
		switch {
		case err == nil:
			rank = progress.Compute(all).Rank
		case errors.Is(err, errs.ErrNoAccount):
		default:
			return err
		}
	}

	pp := printers.PrettyPrint{Out: k.Out}
	if k.JSON {
		return printers.JSON(pp.Writer(), struct {
			Rank  int             `json:"rank,omitempty"`
			Tiers []progress.Tier `json:"tiers"`
		}{Rank: rank, Tiers: progress.Tiers()})
	}
	pp.NewLine()
	pp.Ranks(rank)
	return nil
}
