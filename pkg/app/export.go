package app

import (
	"context"
	"time"

	"tableflip.dev/questlog/pkg/account"
	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/quest"
)

// Export is everything stored for one account.
type Export struct {
	Key        string            `json:"key" yaml:"key"`
	Profile    *account.Profile  `json:"profile,omitempty" yaml:"profile,omitempty"`
	Quests     []quest.Quest     `json:"quests" yaml:"quests"`
	Progress   progress.Snapshot `json:"progress" yaml:"progress"`
	ExportedAt time.Time         `json:"exportedAt" yaml:"exportedAt"`
}

// Export reads the active account's profile and quests.
func (s *Service) Export(ctx context.Context) (Export, error) {
	key, profile, err := s.Lifecycle.Active(ctx)
	if err != nil {
		return Export{}, err
	}
	quests, err := quest.Read(ctx, s.Store, key)
	if err != nil {
		return Export{}, err
	}
	if quests == nil {
		quests = []quest.Quest{}
	}
	return Export{
		Key:        key,
		Profile:    profile,
		Quests:     quests,
		Progress:   progress.Compute(quests),
		ExportedAt: time.Now().UTC(),
	}, nil
}
