// Package lookup previews which account a name resolves to as it is typed.
package lookup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"tableflip.dev/questlog/pkg/account"
	"tableflip.dev/questlog/pkg/identity"
	"tableflip.dev/questlog/pkg/printers"
)

// Lookup previews Name, or every line read from In when Name is empty.
// Lines stand in for keystrokes: only the preview for the latest line is
// looked up once input pauses for Debounce.
type Lookup struct {
	Name     string
	In       io.Reader
	Debounce time.Duration
	JSON     bool
	Out      io.Writer

	Resolver *account.Resolver
}

type preview struct {
	Name    string           `json:"name"`
	Key     string           `json:"key,omitempty"`
	Taken   bool             `json:"taken"`
	Profile *account.Profile `json:"profile,omitempty"`
	Error   string           `json:"error,omitempty"`
}

func (n *Lookup) Do(ctx context.Context) error {
	p := account.NewPreviewer(n.Resolver, n.Debounce)
	defer p.Close()

	done := make(chan struct{})
	defer close(done)
	lines := make(chan string)
	go func() {
		defer close(lines)
		if n.Name != "" {
			select {
			case lines <- n.Name:
			case <-done:
			}
			return
		}
		if n.In == nil {
			return
		}
		scanner := bufio.NewScanner(n.In)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	var last string
	typed, eof, shown := false, false, false
	results := p.Results()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				lines, eof = nil, true
				if !typed || shown {
					return nil
				}
				continue
			}
			last, typed, shown = line, true, false
			p.Type(line)
		case pv, ok := <-results:
			if !ok {
				return nil
			}
			if err := n.print(pv); err != nil {
				return err
			}
			if pv.Name == last {
				shown = true
				if eof {
					return nil
				}
			}
		}
	}
}

func (n *Lookup) print(pv account.Preview) error {
	w := n.Out
	if w == nil {
		w = color.Output
	}
	name := strings.TrimSpace(pv.Name)
	short := len([]rune(identity.DisplayName(pv.Name))) < identity.MinNameLength
	key := ""
	if !short {
		key = identity.Normalize(pv.Name)
	}

	if n.JSON {
		out := preview{Name: name, Key: key, Taken: pv.Profile != nil, Profile: pv.Profile}
		if pv.Err != nil {
			out.Error = pv.Err.Error()
		}
		return printers.JSON(w, out)
	}

	faint := color.New(color.Faint)
	bold := color.New(color.Bold)
	switch {
	case pv.Err != nil:
		_, _ = color.New(color.FgRed).Fprintf(w, "%s: lookup failed: %v\n", name, pv.Err)
	case short:
		_, _ = faint.Fprintf(w, "%q: keep typing, names need at least %d characters\n", name, identity.MinNameLength)
	case pv.Profile == nil:
		_, _ = fmt.Fprintf(w, "@%s is free, login registers it\n", key)
	default:
		_, _ = fmt.Fprintf(w, "@%s belongs to ", key)
		_, _ = bold.Fprint(w, pv.Profile.DisplayName)
		_, _ = faint.Fprintf(w, " (%s), login signs in\n", pv.Profile.Avatar())
	}
	return nil
}
