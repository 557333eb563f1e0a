package cmd

import (
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/render"
	"github.com/justapithecus/strata/iox"
)

// PutCommand returns the put command.
// Put frames a local file and uploads it as one structured message.
func PutCommand() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Upload a file as a structured message",
		ArgsUsage: "<file> [key]",
		Flags:     transferFlags(),
		Action:    putAction,
	}
}

func putAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("file required", exitUsage)
	}
	path := c.Args().Get(0)
	key := c.Args().Get(1)
	if key == "" {
		key = filepath.Base(path)
	}

	s, err := resolveSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if err := s.store.Validate(); err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	f, size, err := iox.OpenSized(path)
	if err != nil {
		return fail(err)
	}
	defer f.Close()

	ctx, cancel := signalContext()
	defer cancel()

	_, transferer, collector, err := openStore(ctx, s)
	if err != nil {
		return fail(err)
	}

	sum, err := transferer.Upload(ctx, key, f, size, reporterFor(s))
	if err != nil {
		return fail(err)
	}

	if c.Bool("stats") {
		printStats(collector.Snapshot())
	}

	return r.Render(sum)
}
