package cmd

import (
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/render"
)

// GetCommand returns the get command.
// Get downloads a structured message and writes the verified content.
func GetCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Download a structured message and unwrap its content",
		ArgsUsage: "<key> [file]",
		Description: "Downloads the object at <key>, validates its framing and checksums,\n" +
			"and writes the content to [file] (default: the key's base name).\n" +
			"Use - as the file to stream content to stdout.",
		Flags:  transferFlags(),
		Action: getAction,
	}
}

func getAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("key required", exitUsage)
	}
	key := c.Args().Get(0)
	path := c.Args().Get(1)
	if path == "" {
		path = filepath.Base(key)
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

	ctx, cancel := signalContext()
	defer cancel()

	_, transferer, collector, err := openStore(ctx, s)
	if err != nil {
		return fail(err)
	}

	// Content owns stdout in stream mode, so the summary is not rendered.
	if path == "-" {
		if _, err := transferer.Download(ctx, key, os.Stdout, reporterFor(s)); err != nil {
			return fail(err)
		}
		if c.Bool("stats") {
			printStats(collector.Snapshot())
		}
		return nil
	}

	out, err := os.Create(path)
	if err != nil {
		return fail(err)
	}

	sum, err := transferer.Download(ctx, key, out, reporterFor(s))
	if err != nil {
		// Drop the partial file; a failed download must not look like
		// a completed one.
		_ = out.Close()
		_ = os.Remove(path)
		return fail(err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(path)
		return fail(err)
	}

	if c.Bool("stats") {
		printStats(collector.Snapshot())
	}

	return r.Render(sum)
}
