// Package hunter provides the runners that act on the active account.
package hunter

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"

	"tableflip.dev/questlog/pkg/account"
	"tableflip.dev/questlog/pkg/errs"
	"tableflip.dev/questlog/pkg/icons"
	"tableflip.dev/questlog/pkg/printers"
	"tableflip.dev/questlog/pkg/progress"
	"tableflip.dev/questlog/pkg/quest"
)

// ErrNotConfirmed is returned by destructive runners run without --yes.
var ErrNotConfirmed = errors.New("refusing to continue without --yes")

func out(w io.Writer) io.Writer {
	if w == nil {
		return color.Output
	}
	return w
}

// Login resolves Name to an account and makes it active.
type Login struct {
	Name   string
	Avatar string
	JSON   bool
	Out    io.Writer

	Resolver *account.Resolver
	Catalog  *icons.Catalog
}

func (n *Login) Do(ctx context.Context) error {
	avatar := n.Avatar
	if avatar != "" && n.Catalog != nil {
		icon, ok := n.Catalog.Lookup(ctx, avatar)
		if !ok {
			return errs.Invalid("avatar", "unknown icon %q", avatar)
		}
		avatar = icon.FileName
	}

	res, err := n.Resolver.Resolve(ctx, n.Name, avatar)
	if err != nil {
		return err
	}
	if n.JSON {
		return printers.JSON(out(n.Out), res)
	}

	bold := color.New(color.Bold)
	switch res.Mode {
	case account.ModeRegister:
		_, _ = fmt.Fprint(out(n.Out), "Welcome to the guild, ")
	default:
		_, _ = fmt.Fprint(out(n.Out), "Welcome back, ")
	}
	_, _ = bold.Fprint(out(n.Out), res.Profile.DisplayName)
	_, _ = color.New(color.Faint).Fprintf(out(n.Out), " @%s\n", res.Key)
	return nil
}

// WhoAmI shows the active account and its rank.
type WhoAmI struct {
	JSON bool
	Out  io.Writer

	Lifecycle *account.Lifecycle
	Quests    *quest.Manager
}

// Hunter is the machine readable form of WhoAmI.
type Hunter struct {
	Key      string            `json:"key"`
	Profile  *account.Profile  `json:"profile"`
	Progress progress.Snapshot `json:"progress"`
}

func (n *WhoAmI) Do(ctx context.Context) error {
	key, profile, err := n.Lifecycle.Active(ctx)
	if err != nil {
		return err
	}
	quests, err := n.Quests.List(ctx)
	if err != nil {
		return err
	}
	h := Hunter{Key: key, Profile: profile, Progress: progress.Compute(quests)}
	if n.JSON {
		return printers.JSON(out(n.Out), h)
	}
	pp := printers.PrettyPrint{Out: n.Out}
	pp.Hunter(h.Key, h.Profile, h.Progress)
	return nil
}

// Logout forgets the active account on this device.
type Logout struct {
	Out       io.Writer
	Lifecycle *account.Lifecycle
}

func (n *Logout) Do(_ context.Context) error {
	if err := n.Lifecycle.Logout(); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out(n.Out), "Logged out.")
	return nil
}

// Avatar changes the active account's avatar.
type Avatar struct {
	Icon string
	Out  io.Writer

	Lifecycle *account.Lifecycle
	Catalog   *icons.Catalog
}

func (n *Avatar) Do(ctx context.Context) error {
	icon, ok := n.Catalog.Lookup(ctx, n.Icon)
	if !ok {
		return errs.Invalid("avatar", "unknown icon %q", n.Icon)
	}
	if err := n.Lifecycle.UpdateAvatar(ctx, icon.FileName); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(out(n.Out), "Avatar set to %s.\n", icon.DisplayName)
	return nil
}

// Reset deletes every quest of the active account.
type Reset struct {
	Confirmed bool
	Out       io.Writer
	Lifecycle *account.Lifecycle
}

func (n *Reset) Do(ctx context.Context) error {
	if !n.Confirmed {
		return ErrNotConfirmed
	}
	if err := n.Lifecycle.ResetProgress(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out(n.Out), "Progress reset. Back to rank 1.")
	return nil
}

// Delete removes the active account and logs out.
type Delete struct {
	Confirmed bool
	Out       io.Writer
	Lifecycle *account.Lifecycle
}

func (n *Delete) Do(ctx context.Context) error {
	if !n.Confirmed {
		return ErrNotConfirmed
	}
	if err := n.Lifecycle.DeleteAccount(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintln(out(n.Out), "Account deleted.")
	return nil
}
