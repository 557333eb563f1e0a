package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/render"
	"github.com/justapithecus/strata/codec"
	"github.com/justapithecus/strata/iox"
	"github.com/justapithecus/strata/store"
)

// InspectCommand returns the inspect command.
// Inspect walks the framing of a structured message and reports its
// segment layout without verifying content checksums.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "Walk the framing of a structured message",
		ArgsUsage: "<key>",
		Flags: append(StorageFlags(), append(ReadOnlyFlags(),
			&cli.StringFlag{
				Name:  "file",
				Usage: "Inspect a local file instead of a stored object",
			})...),
		Action: inspectAction,
	}
}

func inspectAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	var summary *codec.MessageSummary
	if path := c.String("file"); path != "" {
		summary, err = inspectFile(path)
	} else {
		if c.NArg() < 1 {
			return cli.Exit("key required (or --file)", exitUsage)
		}

		s, serr := resolveSettings(c)
		if serr != nil {
			return cli.Exit(serr.Error(), exitUsage)
		}
		if verr := s.store.Validate(); verr != nil {
			return cli.Exit(verr.Error(), exitUsage)
		}

		ctx, cancel := signalContext()
		defer cancel()

		client, cerr := store.New(ctx, s.store)
		if cerr != nil {
			return fail(cerr)
		}
		summary, err = client.Inspect(ctx, c.Args().First())
	}
	if err != nil {
		return fail(err)
	}

	if c.Bool("tui") {
		return r.RenderTUI("inspect_message", summary)
	}
	return r.Render(summary)
}

func inspectFile(path string) (*codec.MessageSummary, error) {
	f, size, err := iox.OpenSized(path)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(f)

	return codec.Inspect(f, size)
}
