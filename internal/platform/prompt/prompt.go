// Package prompt asks the operator yes/no questions on the terminal.
package prompt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"
)

// ErrNotInteractive is returned when input is not attached to a terminal.
var ErrNotInteractive = errors.New("input is not a terminal")

// Confirmer asks whether missing intro documents should be created.
type Confirmer struct {
	In  *os.File
	Out io.Writer
}

// NewConfirmer returns a Confirmer bound to stdin and stderr.
func NewConfirmer() *Confirmer {
	return &Confirmer{In: os.Stdin, Out: os.Stderr}
}

// Confirm lists the missing documents and waits for a yes/no answer. An
// aborted form counts as "no".
func (c *Confirmer) Confirm(ctx context.Context, missing []string) (bool, error) {
	if c.In == nil || !term.IsTerminal(int(c.In.Fd())) {
		return false, ErrNotInteractive
	}

	create := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%d intro file(s) are missing. Create them now?", len(missing))).
				Description(strings.Join(missing, "\n")).
				Affirmative("Yes").
				Negative("No").
				Value(&create),
		),
	).WithInput(c.In).WithOutput(c.Out)

	if err := form.RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, fmt.Errorf("confirm: %w", err)
	}
	return create, nil
}
