package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/render"
	"github.com/justapithecus/strata/store"
)

// StatCommand returns the stat command.
// Stat reads object metadata without downloading content.
func StatCommand() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "Show stored message metadata without downloading",
		ArgsUsage: "<key>",
		Flags:     append(StorageFlags(), ReadOnlyFlags()...),
		Action:    statAction,
	}
}

func statAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("key required", exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	// TUI not supported for stat
	if c.Bool("tui") {
		return cli.Exit("--tui is not supported for stat", exitUsage)
	}

	s, err := resolveSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if err := s.store.Validate(); err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := store.New(ctx, s.store)
	if err != nil {
		return fail(err)
	}

	info, err := client.Stat(ctx, c.Args().First())
	if err != nil {
		return fail(err)
	}

	return r.Render(info)
}
