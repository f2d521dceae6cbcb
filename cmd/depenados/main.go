// Command depenados is the terminal front end for the Depenados API.
//
// Every command that creates, changes or deletes data asks for the secret
// phrase before it runs.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/PortNumber53/depenados/internal/client"
	"github.com/PortNumber53/depenados/internal/config"
	"github.com/PortNumber53/depenados/internal/gate"
	"github.com/PortNumber53/depenados/internal/logging"
	"github.com/PortNumber53/depenados/internal/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd(defaultEnv()).Execute(); err != nil {
		os.Exit(1)
	}
}

// env holds what the commands need from the outside world.
type env struct {
	loadConfig func() config.Config
	newLogger  func(verbose bool) (*zap.Logger, error)
	now        func() time.Time
	gateOpts   []gate.Option
}

func defaultEnv() env {
	return env{
		loadConfig: config.Load,
		newLogger:  logging.NewConsole,
		now:        time.Now,
	}
}

type cli struct {
	cfg  config.Config
	api  *client.Client
	app  *store.App
	gate *gate.Gate
	log  *zap.Logger
	in   *bufio.Reader
	out  io.Writer
	st   styles
	now  func() time.Time
}

func newRootCmd(e env) *cobra.Command {
	c := &cli{}
	var (
		apiURL  string
		verbose bool
	)

	root := &cobra.Command{
		Use:           "depenados",
		Short:         "Members, events, stories and tallies of the Depenados crew",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.cfg = e.loadConfig()
			if apiURL != "" {
				c.cfg.APIURL = apiURL
			}
			log, err := e.newLogger(verbose)
			if err != nil {
				return err
			}
			c.log = log
			c.out = cmd.OutOrStdout()
			c.in = bufio.NewReader(cmd.InOrStdin())
			c.st = newStyles(c.out)
			c.now = e.now
			c.api = client.New(c.cfg.APIURL, client.WithLogger(log.Named("client")))
			c.app = store.NewApp(c.api, log.Named("store"))
			opts := append([]gate.Option{
				gate.WithLogger(log.Named("gate")),
				gate.WithOnCelebrate(func() {
					fmt.Fprintln(c.out, c.st.celebrate.Render("Na capoeira!"))
				}),
			}, e.gateOpts...)
			c.gate = gate.New(opts...)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.gate != nil {
				c.gate.Close()
			}
			if c.log != nil {
				_ = c.log.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api", "", "API base URL (default $DEPENADOS_API_URL)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newMembersCmd(c),
		newEventsCmd(c),
		newStoriesCmd(c),
		newCountersCmd(c),
		newUploadCmd(c),
	)
	return root
}

// failure turns a store's nil/false answer into an error for the gate.
func failure(err error, fallback string) error {
	if err != nil {
		return err
	}
	return errors.New(fallback)
}

func (c *cli) ctx(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
