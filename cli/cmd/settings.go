package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/strata/checksum"
	"github.com/justapithecus/strata/cli/config"
	"github.com/justapithecus/strata/codec"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/progress"
	"github.com/justapithecus/strata/store"
)

// Exit codes per CONTRACT_CLI.md §3.
const (
	exitSuccess   = 0
	exitFailure   = 1
	exitUsage     = 2
	exitIntegrity = 3
)

// defaultConfigFile is loaded from the working directory when --config is
// not given. A missing default file is fine; an unreadable one is not.
const defaultConfigFile = "strata.yaml"

// settings is the merged view of config file values and command flags.
// Flags win per CONTRACT_CLI.md §5.
type settings struct {
	store       store.Config
	segmentSize int64
	noChecksum  bool
	interval    time.Duration
	quiet       bool
	frames      bool
}

func resolveSettings(c *cli.Context) (settings, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return settings{}, err
	}

	s := settings{
		store: store.Config{
			Bucket:       stringSetting(c, "bucket", cfg.Storage.Bucket),
			Prefix:       stringSetting(c, "prefix", cfg.Storage.Prefix),
			Region:       stringSetting(c, "region", cfg.Storage.Region),
			Endpoint:     stringSetting(c, "endpoint", cfg.Storage.Endpoint),
			UsePathStyle: boolSetting(c, "s3-path-style", cfg.Storage.S3PathStyle),
			AccessKey:    cfg.Storage.AccessKey,
			SecretKey:    cfg.Storage.SecretKey,
		},
		segmentSize: cfg.Codec.SegmentSize.Bytes,
		noChecksum:  boolSetting(c, "no-checksum", cfg.Codec.NoChecksum),
		interval:    cfg.Progress.Interval.Duration,
		quiet:       boolSetting(c, "quiet", cfg.Progress.Quiet),
		frames:      c.Bool("progress-frames"),
	}

	if c.IsSet("segment-size") {
		parsed, err := progress.ParseBytes(c.String("segment-size"))
		if err != nil {
			return settings{}, fmt.Errorf("invalid --segment-size: %w", err)
		}
		s.segmentSize = parsed
	}
	if s.segmentSize < 0 {
		return settings{}, fmt.Errorf("segment size must be positive, got %d", s.segmentSize)
	}

	if c.IsSet("interval") {
		s.interval = c.Duration("interval")
	}

	switch name := cfg.Codec.Checksum; name {
	case "": // codec default
	case "none":
		if !c.IsSet("no-checksum") {
			s.noChecksum = true
		}
	default:
		p, err := checksum.ByName(name)
		if err != nil {
			return settings{}, err
		}
		s.store.Provider = p
	}

	s.store.SegmentSize = s.segmentSize
	s.store.DisableChecksum = s.noChecksum

	return s, nil
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		return config.Load(path)
	}
	if _, err := os.Stat(defaultConfigFile); err != nil {
		return &config.Config{}, nil
	}
	return config.Load(defaultConfigFile)
}

// stringSetting applies flag-over-config precedence for one string value.
func stringSetting(c *cli.Context, name, fromConfig string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if fromConfig != "" {
		return fromConfig
	}
	return c.String(name)
}

// boolSetting applies flag-over-config precedence for one bool value.
func boolSetting(c *cli.Context, name string, fromConfig bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return fromConfig
}

// reporterFor builds the progress reporter per CONTRACT_CLI.md §2.
// Progress always goes to stderr so structured stdout stays parseable.
func reporterFor(s settings) progress.Reporter {
	if s.quiet {
		return progress.NopReporter{}
	}
	if s.frames {
		// Frames are binary; a terminal will render junk. The warning only
		// fires interactively, so piped frame streams stay clean.
		if isStderrTTY() {
			fmt.Fprintln(os.Stderr, "Warning: --progress-frames emits binary frames; redirect stderr to consume them")
		}
		return progress.NewFrameReporter(os.Stderr, s.interval)
	}
	return progress.NewTextReporter(progress.TextOptions{
		Output:         os.Stderr,
		UpdateInterval: s.interval,
	})
}

// errorExitCode maps an error onto the exit codes of CONTRACT_CLI.md §3.
func errorExitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var unknownAlg *checksum.ErrUnknownAlgorithm
	switch {
	case errors.Is(err, codec.ErrInvalidSegmentSize),
		errors.Is(err, codec.ErrInvalidContentLength),
		errors.Is(err, codec.ErrTooManySegments),
		errors.As(err, &unknownAlg):
		return exitUsage
	case codec.IsMessageError(err), errors.Is(err, codec.ErrMessageTooShort):
		return exitIntegrity
	}
	return exitFailure
}

// fail converts an error into a cli exit carrying the right code.
func fail(err error) error {
	return cli.Exit(err.Error(), errorExitCode(err))
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return ctx, cancel
}

// openStore validates storage settings and constructs the instrumented
// client stack used by transfer commands.
func openStore(ctx context.Context, s settings) (*store.Client, store.Transferer, *metrics.Collector, error) {
	client, err := store.New(ctx, s.store)
	if err != nil {
		return nil, nil, nil, err
	}
	collector := metrics.NewCollector("s3", s.store.Bucket)
	return client, store.NewInstrumentedClient(client, collector), collector, nil
}

// printStats writes the collector snapshot to stderr in the same register
// as the text progress reporter.
func printStats(snap metrics.Snapshot) {
	fmt.Fprintf(os.Stderr, "[strata] uploads: %d ok, %d failed | downloads: %d ok, %d failed | integrity failures: %d\n",
		snap.UploadsCompleted, snap.UploadsFailed,
		snap.DownloadsCompleted, snap.DownloadsFailed,
		snap.IntegrityFailures,
	)
	fmt.Fprintf(os.Stderr, "[strata] bytes up: %s | bytes down: %s\n",
		progress.FormatBytes(snap.BytesUploaded),
		progress.FormatBytes(snap.BytesDownloaded),
	)
}

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
