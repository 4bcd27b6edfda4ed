package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mymichlin/discovery/internal/config"
	"github.com/mymichlin/discovery/internal/core"
	"github.com/mymichlin/discovery/internal/logger"
)

// opener builds the core a command runs against.
type opener func(ctx context.Context) (*core.Core, error)

func openLocal(ctx context.Context) (*core.Core, error) {
	log := logger.NewWithWriter("discoveryctl", os.Stderr)
	cfg, err := config.New()
	if err != nil {
		return nil, err
	}
	logger.SetLevel(cfg.LogLevel)
	return core.Open(ctx, cfg, log)
}

// app carries what every subcommand needs.
type app struct {
	open opener
	out  io.Writer
}

// withCore opens the core, runs fn and closes the core again.
func (a *app) withCore(ctx context.Context, fn func(c *core.Core) error) error {
	c, err := a.open(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()
	return fn(c)
}

func (a *app) printJSON(v interface{}) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newRootCmd(open opener, out io.Writer) *cobra.Command {
	a := &app{open: open, out: out}
	root := &cobra.Command{
		Use:           "discoveryctl",
		Short:         "Local restaurant discovery: cached categories, search, favourites and chat",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		a.resolveCmd(),
		a.searchCmd(),
		a.suggestCmd(),
		a.areaCmd(),
		a.favouritesCmd(),
		a.favouriteCmd(),
		a.reviewsCmd(),
		a.userCmd(),
		a.chatCmd(),
		a.watchCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openLocal, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
