// Package cmd provides CLI commands for the strata binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags for result-rendering commands per CONTRACT_CLI.md §1.
var (
	// FormatFlag selects output format: json, table, yaml.
	FormatFlag = &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: json, table, yaml",
	}

	// NoColorFlag disables colored output.
	NoColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable colored output",
	}

	// TUIFlag enables Bubble Tea interactive mode.
	// Only valid for inspect per CONTRACT_CLI.md §4.
	TUIFlag = &cli.BoolFlag{
		Name:  "tui",
		Usage: "Enable interactive TUI mode (inspect only)",
	}

	// ConfigFlag points at an alternate config file.
	ConfigFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "Path to strata.yaml config file",
	}
)

// ReadOnlyFlags returns the shared flags for all read-only commands.
// Includes --tui so that unsupported commands can provide explicit error
// messages instead of generic "flag not defined" errors.
func ReadOnlyFlags() []cli.Flag {
	return []cli.Flag{
		FormatFlag,
		NoColorFlag,
		TUIFlag,
	}
}

// StorageFlags returns the flags configuring the object storage client.
// There is deliberately no credential flag: keys come from the config file
// or the ambient credential chain, never shell history.
func StorageFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
		&cli.StringFlag{
			Name:    "bucket",
			Aliases: []string{"b"},
			Usage:   "Bucket name",
		},
		&cli.StringFlag{
			Name:  "prefix",
			Usage: "Key prefix prepended to all object keys",
		},
		&cli.StringFlag{
			Name:  "region",
			Usage: "Storage region",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Storage endpoint URL (for S3-compatible services)",
		},
		&cli.BoolFlag{
			Name:  "s3-path-style",
			Usage: "Use path-style addressing",
		},
	}
}

// CodecFlags returns the flags configuring message framing.
func CodecFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "segment-size",
			Usage: "Segment size, e.g. 4MB or 1048576",
		},
		&cli.BoolFlag{
			Name:  "no-checksum",
			Usage: "Disable CRC64 segment and message checksums",
		},
	}
}

// ProgressFlags returns the flags configuring progress reporting per
// CONTRACT_CLI.md §2.
func ProgressFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    "quiet",
			Aliases: []string{"q"},
			Usage:   "Suppress progress output",
		},
		&cli.BoolFlag{
			Name:  "progress-frames",
			Usage: "Emit machine-readable progress frames on stderr",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "Progress update interval",
		},
		&cli.BoolFlag{
			Name:  "stats",
			Usage: "Print transfer counters to stderr on completion",
		},
	}
}

// transferFlags assembles the full flag set for commands that move bytes
// to or from object storage.
func transferFlags() []cli.Flag {
	flags := StorageFlags()
	flags = append(flags, CodecFlags()...)
	flags = append(flags, ProgressFlags()...)
	flags = append(flags, FormatFlag, NoColorFlag)
	return flags
}

// localFlags assembles the flag set for commands that frame local files
// without touching object storage.
func localFlags() []cli.Flag {
	flags := []cli.Flag{ConfigFlag}
	flags = append(flags, CodecFlags()...)
	flags = append(flags, ProgressFlags()...)
	flags = append(flags, FormatFlag, NoColorFlag)
	return flags
}
