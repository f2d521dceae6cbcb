package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/PortNumber53/depenados/internal/models"
	"github.com/spf13/cobra"
)

var counterLabels = []struct{ key, label string }{
	{models.CounterBrigas, "Brigas"},
	{models.CounterAcidentes, "Acidentes"},
	{models.CounterPts, "PTs"},
}

func (c *cli) printCounter(v *models.Counter) {
	if v == nil {
		c.println(c.st.muted.Render("(contadores indisponíveis)"))
		return
	}
	values := map[string]int{
		models.CounterBrigas:    v.Brigas,
		models.CounterAcidentes: v.Acidentes,
		models.CounterPts:       v.Pts,
	}
	rows := make([][]string, 0, len(counterLabels))
	for _, l := range counterLabels {
		rows = append(rows, []string{l.label, fmt.Sprint(values[l.key])})
	}
	c.println(c.st.table([]string{"CONTADOR", "TOTAL"}, rows))
}

func newCountersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{Use: "counters", Aliases: []string{"contadores"}, Short: "Crew tallies"}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the tallies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.Counters.Fetch(c.ctx(cmd))
			c.printCounter(c.app.Counters.Counter())
			return nil
		},
	})

	var down bool
	bumpCmd := &cobra.Command{
		Use:   "bump TYPE",
		Short: "Add one to brigas, acidentes or pts (--down subtracts)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ := args[0]
			if !models.ValidCounterType(typ) {
				return fmt.Errorf("contador inválido %q", typ)
			}
			what := "+1 " + typ
			if down {
				what = "-1 " + typ
			}
			return c.confirm(c.ctx(cmd), what, func(ctx context.Context) error {
				var ok bool
				if down {
					ok = c.app.Counters.Decrement(ctx, typ)
				} else {
					ok = c.app.Counters.Increment(ctx, typ)
				}
				if !ok {
					return failure(nil, "não foi possível atualizar o contador")
				}
				c.printCounter(c.app.Counters.Counter())
				return nil
			})
		},
	}
	bumpCmd.Flags().BoolVar(&down, "down", false, "subtract instead of add")
	cmd.AddCommand(bumpCmd)

	var brigas, acidentes, pts int
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Overwrite tallies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var v models.CounterValues
			changed := cmd.Flags().Changed
			if changed("brigas") {
				v.Brigas = models.IntPtr(brigas)
			}
			if changed("acidentes") {
				v.Acidentes = models.IntPtr(acidentes)
			}
			if changed("pts") {
				v.Pts = models.IntPtr(pts)
			}
			if v.Brigas == nil && v.Acidentes == nil && v.Pts == nil {
				return fmt.Errorf("informe --brigas, --acidentes ou --pts")
			}
			return c.confirm(c.ctx(cmd), "Ajustar contadores", func(ctx context.Context) error {
				if !c.app.Counters.Set(ctx, v) {
					return failure(nil, "não foi possível ajustar os contadores")
				}
				c.printCounter(c.app.Counters.Counter())
				return nil
			})
		},
	}
	setCmd.Flags().IntVar(&brigas, "brigas", 0, "new brigas total")
	setCmd.Flags().IntVar(&acidentes, "acidentes", 0, "new acidentes total")
	setCmd.Flags().IntVar(&pts, "pts", 0, "new pts total")
	cmd.AddCommand(setCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "watch",
		Short: "Follow the tallies live until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(c.ctx(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return c.api.WatchCounters(ctx, func(v models.Counter) {
				c.app.Counters.Apply(v)
				c.printCounter(c.app.Counters.Counter())
			})
		},
	})
	return cmd
}
