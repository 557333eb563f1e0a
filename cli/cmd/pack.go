package cmd

import (
	"io"
	"os"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/cli/render"
	"github.com/justapithecus/strata/codec"
	"github.com/justapithecus/strata/iox"
	"github.com/justapithecus/strata/progress"
	"github.com/justapithecus/strata/types"
)

// PackCommand returns the pack command.
// Pack frames a local file into a structured message file without
// touching object storage.
func PackCommand() *cli.Command {
	return &cli.Command{
		Name:      "pack",
		Usage:     "Frame a local file into a structured message file",
		ArgsUsage: "<file> <out>",
		Description: "Frames <file> into a structured message written to <out>.\n" +
			"Use - as the output to stream the framed message to stdout.",
		Flags:  localFlags(),
		Action: packAction,
	}
}

// UnpackCommand returns the unpack command.
// Unpack validates a structured message file and writes its content.
func UnpackCommand() *cli.Command {
	flags := []cli.Flag{ConfigFlag}
	flags = append(flags, ProgressFlags()...)
	flags = append(flags, FormatFlag, NoColorFlag)

	return &cli.Command{
		Name:      "unpack",
		Usage:     "Unwrap a structured message file into its content",
		ArgsUsage: "<file> <out>",
		Description: "Validates the framing and checksums of <file> and writes the\n" +
			"content to <out>. Use - as the output to stream content to stdout.",
		Flags:  flags,
		Action: unpackAction,
	}
}

func packAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: strata pack <file> <out>", exitUsage)
	}

	s, err := resolveSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	outPath := c.Args().Get(1)
	sum, err := runPack(c.Args().Get(0), outPath, s.segmentSize, s.noChecksum, reporterFor(s))
	if err != nil {
		return fail(err)
	}

	// Framed bytes own stdout in stream mode.
	if outPath == "-" {
		return nil
	}
	return r.Render(sum)
}

func unpackAction(c *cli.Context) error {
	if c.NArg() < 2 {
		return cli.Exit("usage: strata unpack <file> <out>", exitUsage)
	}

	s, err := resolveSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	r, err := render.NewRenderer(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	outPath := c.Args().Get(1)
	sum, err := runUnpack(c.Args().Get(0), outPath, reporterFor(s))
	if err != nil {
		return fail(err)
	}

	if outPath == "-" {
		return nil
	}
	return r.Render(sum)
}

// runPack frames inPath into outPath. Flag parsing stays with the caller;
// this helper is plain file-to-file so tests can drive it directly.
func runPack(inPath, outPath string, segmentSize int64, noChecksum bool, rep progress.Reporter) (types.TransferSummary, error) {
	in, size, err := iox.OpenSized(inPath)
	if err != nil {
		return types.TransferSummary{}, err
	}
	defer iox.DiscardClose(in)

	enc, err := codec.NewEncodeStream(in, size, codec.EncodeConfig{
		SegmentSize:     segmentSize,
		DisableChecksum: noChecksum,
	})
	if err != nil {
		return types.TransferSummary{}, err
	}

	out, cleanup, err := openOutput(outPath)
	if err != nil {
		return types.TransferSummary{}, err
	}

	transferID := ksuid.New().String()
	rep.Start(transferID, types.DirectionPack, outPath, enc.Length())
	start := time.Now()

	n, err := io.Copy(out, &progress.CountingReader{R: enc, Reporter: rep})
	if err == nil {
		err = cleanup(false)
	} else {
		_ = cleanup(true)
	}
	if err != nil {
		rep.Fail(err)
		return types.TransferSummary{}, err
	}

	sum := types.TransferSummary{
		TransferID:    transferID,
		Direction:     types.DirectionPack,
		Key:           outPath,
		ContentLength: enc.ContentLength(),
		MessageLength: n,
		Segments:      enc.NumSegments(),
		Checksum:      enc.Flags().String(),
		DurationMS:    time.Since(start).Milliseconds(),
	}
	rep.Finish(sum)
	return sum, nil
}

// runUnpack validates the framed message at inPath and writes its content
// to outPath. The reporter sees framed bytes, mirroring downloads.
func runUnpack(inPath, outPath string, rep progress.Reporter) (types.TransferSummary, error) {
	in, messageLength, err := iox.OpenSized(inPath)
	if err != nil {
		return types.TransferSummary{}, err
	}
	defer iox.DiscardClose(in)

	dec, err := codec.NewDecodeStream(&progress.CountingReader{R: in, Reporter: rep}, messageLength, codec.DecodeConfig{})
	if err != nil {
		return types.TransferSummary{}, err
	}

	out, cleanup, err := openOutput(outPath)
	if err != nil {
		return types.TransferSummary{}, err
	}

	transferID := ksuid.New().String()
	rep.Start(transferID, types.DirectionUnpack, outPath, messageLength)
	start := time.Now()

	n, err := io.Copy(out, dec)
	if err == nil {
		err = cleanup(false)
	} else {
		_ = cleanup(true)
	}
	if err != nil {
		rep.Fail(err)
		return types.TransferSummary{}, err
	}

	sum := types.TransferSummary{
		TransferID:    transferID,
		Direction:     types.DirectionUnpack,
		Key:           outPath,
		ContentLength: n,
		MessageLength: messageLength,
		Segments:      dec.NumSegments(),
		Checksum:      dec.Flags().String(),
		DurationMS:    time.Since(start).Milliseconds(),
	}
	rep.Finish(sum)
	return sum, nil
}

// openOutput opens outPath for writing, with - meaning stdout. The cleanup
// closure closes the file; pass discard to also remove a partial output.
// Stdout is never closed or removed.
func openOutput(outPath string) (io.Writer, func(discard bool) error, error) {
	if outPath == "-" {
		return os.Stdout, func(bool) error { return nil }, nil
	}

	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func(discard bool) error {
		closeErr := f.Close()
		if discard {
			_ = os.Remove(outPath)
			return closeErr
		}
		if closeErr != nil {
			_ = os.Remove(outPath)
		}
		return closeErr
	}
	return f, cleanup, nil
}
