package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PortNumber53/depenados/internal/gate"
)

const maxPhraseAttempts = 3

var errCancelled = errors.New("ação cancelada")

// confirm asks for the secret phrase and runs action once it matches. Input
// ending or too many wrong attempts cancel without running anything.
func (c *cli) confirm(ctx context.Context, what string, action gate.Action) error {
	c.gate.Confirm(action)
	fmt.Fprintln(c.out, c.st.title.Render(what))
	fmt.Fprint(c.out, c.st.muted.Render("Digite a frase secreta para confirmar: "))

	for attempt := 1; ; attempt++ {
		line, err := c.in.ReadString('\n')
		if err != nil && line == "" {
			c.gate.Cancel()
			fmt.Fprintln(c.out)
			return errCancelled
		}
		if err := c.gate.Submit(ctx, line); err != nil {
			return err
		}
		if !c.gate.Mismatch() {
			return nil
		}
		if attempt >= maxPhraseAttempts {
			c.gate.Cancel()
			fmt.Fprintln(c.out, c.st.err.Render("Frase incorreta. Ação cancelada."))
			return errCancelled
		}
		fmt.Fprint(c.out, c.st.err.Render(fmt.Sprintf("Frase incorreta (%q). Tente de novo: ", strings.TrimSpace(c.gate.Input()))))
	}
}
