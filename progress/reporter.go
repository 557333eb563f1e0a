package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/justapithecus/strata/types"
)

// Reporter observes a single transfer as bytes move.
//
// Lifecycle: Start, then any number of Add calls, then exactly one of
// Finish or Fail. Implementations must tolerate Add from the transfer
// goroutine while their own display machinery runs.
type Reporter interface {
	// Start announces the transfer. totalBytes is the framed length
	// expected to cross the wire, or 0 when unknown.
	Start(transferID string, direction types.Direction, key string, totalBytes int64)
	// Add records n more framed bytes moved.
	Add(n int64)
	// Finish records successful completion.
	Finish(sum types.TransferSummary)
	// Fail records terminal failure.
	Fail(err error)
}

// NopReporter is a Reporter that does nothing.
// Used when progress output is disabled.
type NopReporter struct{}

var _ Reporter = NopReporter{}

func (NopReporter) Start(string, types.Direction, string, int64) {}
func (NopReporter) Add(int64)                                    {}
func (NopReporter) Finish(types.TransferSummary)                 {}
func (NopReporter) Fail(error)                                   {}

// TextOptions configures the text progress reporter.
type TextOptions struct {
	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// TextReporter outputs human-readable progress information.
type TextReporter struct {
	opts TextOptions

	mu         sync.Mutex
	bytesDone  atomic.Int64
	totalBytes int64
	label      string
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	stopCh     chan struct{}
	stopped    bool
}

var _ Reporter = (*TextReporter)(nil)

// NewTextReporter creates a new text progress reporter.
func NewTextReporter(opts TextOptions) *TextReporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	return &TextReporter{
		opts:   opts,
		stopCh: make(chan struct{}),
	}
}

// Start begins outputting progress information.
func (r *TextReporter) Start(transferID string, direction types.Direction, key string, totalBytes int64) {
	r.mu.Lock()
	r.totalBytes = totalBytes
	r.label = directionVerb(direction)
	r.startTime = time.Now()
	r.lastUpdate = r.startTime
	r.mu.Unlock()

	// Print header
	fmt.Fprintf(r.opts.Output, "[strata] %s: %s\n", r.label, key)
	if totalBytes > 0 {
		fmt.Fprintf(r.opts.Output, "[strata] Framed size: %s | Transfer: %s\n",
			FormatBytes(totalBytes), transferID)
	} else {
		fmt.Fprintf(r.opts.Output, "[strata] Framed size: unknown | Transfer: %s\n", transferID)
	}

	go r.updateLoop()
}

// Add records n more framed bytes moved.
func (r *TextReporter) Add(n int64) {
	r.bytesDone.Add(n)
}

// Finish stops the display and prints the final status.
func (r *TextReporter) Finish(sum types.TransferSummary) {
	if !r.stop() {
		return
	}

	done := r.bytesDone.Load()
	duration := time.Since(r.startTime)
	avgSpeed := float64(done) / maxSeconds(duration)

	fmt.Fprintf(r.opts.Output, "\r[strata] Progress: 100.0%% | %s | Speed: %s/s | Complete!    \n",
		FormatBytes(done),
		FormatBytes(int64(avgSpeed)),
	)
	fmt.Fprintf(r.opts.Output, "[strata] Segments: %d | Content: %s | Total time: %s\n",
		sum.Segments,
		FormatBytes(sum.ContentLength),
		formatDuration(duration),
	)
}

// Fail stops the display and prints the failure.
func (r *TextReporter) Fail(err error) {
	if !r.stop() {
		return
	}
	fmt.Fprintf(r.opts.Output, "\r[strata] Transfer failed after %s: %v    \n",
		FormatBytes(r.bytesDone.Load()), err)
}

// stop closes the update loop exactly once.
func (r *TextReporter) stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return false
	}
	r.stopped = true
	close(r.stopCh)
	return true
}

// updateLoop periodically updates the progress display.
func (r *TextReporter) updateLoop() {
	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *TextReporter) printProgress() {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	done := r.bytesDone.Load()

	// Calculate speed over the last interval
	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(done-r.lastBytes) / elapsed

	r.lastUpdate = now
	r.lastBytes = done

	// Calculate percentage and ETA
	var percent float64
	eta := "unknown"
	if r.totalBytes > 0 {
		percent = float64(done) / float64(r.totalBytes) * 100
		if speed > 0 {
			remaining := float64(r.totalBytes - done)
			eta = formatDuration(time.Duration(remaining / speed * float64(time.Second)))
		} else {
			eta = "calculating..."
		}
	}

	fmt.Fprintf(r.opts.Output, "\r[strata] Progress: %.1f%% | %s / %s | Speed: %s/s | ETA: %s    ",
		percent,
		FormatBytes(done),
		FormatBytes(r.totalBytes),
		FormatBytes(int64(speed)),
		eta,
	)
}

// FrameReporter writes machine-readable progress frames to a stream.
// Progress frames are throttled to one per interval; start and result
// frames are always written. Write errors are retained, not returned:
// check Err after the transfer if frame delivery matters.
type FrameReporter struct {
	mu sync.Mutex

	enc        *FrameEncoder
	interval   time.Duration
	transferID string
	totalBytes int64
	bytesDone  int64
	lastEmit   time.Time
	firstErr   error
}

var _ Reporter = (*FrameReporter)(nil)

// NewFrameReporter creates a frame reporter writing to w.
// interval throttles progress frames; 0 means the 500ms default.
func NewFrameReporter(w io.Writer, interval time.Duration) *FrameReporter {
	if interval == 0 {
		interval = 500 * time.Millisecond
	}
	return &FrameReporter{
		enc:      NewFrameEncoder(w),
		interval: interval,
	}
}

// Start writes the transfer start frame.
func (r *FrameReporter) Start(transferID string, direction types.Direction, key string, totalBytes int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transferID = transferID
	r.totalBytes = totalBytes
	r.lastEmit = time.Now()

	r.write(&types.TransferStartFrame{
		Type:       types.TransferStartType,
		Version:    types.Version,
		TransferID: transferID,
		Direction:  direction,
		Key:        key,
		TotalBytes: totalBytes,
	})
}

// Add records n more bytes and writes a progress frame at most once
// per interval.
func (r *FrameReporter) Add(n int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.bytesDone += n
	now := time.Now()
	if now.Sub(r.lastEmit) < r.interval {
		return
	}
	r.lastEmit = now

	r.write(&types.TransferProgressFrame{
		Type:       types.TransferProgressType,
		TransferID: r.transferID,
		BytesDone:  r.bytesDone,
		TotalBytes: r.totalBytes,
	})
}

// Finish writes the terminal result frame with the transfer summary.
func (r *FrameReporter) Finish(sum types.TransferSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.write(&types.TransferResultFrame{
		Type:    types.TransferResultType,
		Outcome: types.TransferOutcomeCompleted,
		Summary: &sum,
	})
}

// Fail writes the terminal result frame with the failure.
func (r *FrameReporter) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.write(&types.TransferResultFrame{
		Type:    types.TransferResultType,
		Outcome: types.TransferOutcomeFailed,
		Error:   err.Error(),
	})
}

// Err returns the first frame write error, if any.
func (r *FrameReporter) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.firstErr
}

// write writes a frame, retaining the first error. Callers hold mu.
func (r *FrameReporter) write(v any) {
	if err := r.enc.WriteFrame(v); err != nil && r.firstErr == nil {
		r.firstErr = err
	}
}

// directionVerb maps a direction to its display verb.
func directionVerb(d types.Direction) string {
	switch d {
	case types.DirectionUpload:
		return "Uploading"
	case types.DirectionDownload:
		return "Downloading"
	case types.DirectionPack:
		return "Packing"
	case types.DirectionUnpack:
		return "Unpacking"
	default:
		return "Transferring"
	}
}

// maxSeconds returns the duration in seconds, floored at 0.1 to keep
// rate arithmetic finite.
func maxSeconds(d time.Duration) float64 {
	s := d.Seconds()
	if s < 0.1 {
		return 0.1
	}
	return s
}

// FormatBytes formats bytes as a human-readable string.
func FormatBytes(b int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
		TB = GB * 1024
	)

	switch {
	case b >= TB:
		return fmt.Sprintf("%.2f TB", float64(b)/float64(TB))
	case b >= GB:
		return fmt.Sprintf("%.2f GB", float64(b)/float64(GB))
	case b >= MB:
		return fmt.Sprintf("%.2f MB", float64(b)/float64(MB))
	case b >= KB:
		return fmt.Sprintf("%.2f KB", float64(b)/float64(KB))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}

// ParseBytes parses a human-readable byte string (e.g. "256MB", "4 MiB").
// Suffixes use 1024 multiples; a bare number is bytes.
func ParseBytes(s string) (int64, error) {
	orig := s
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	switch {
	case strings.HasSuffix(s, "TIB"), strings.HasSuffix(s, "TB"):
		multiplier = 1024 * 1024 * 1024 * 1024
		s = strings.TrimSuffix(strings.TrimSuffix(s, "TIB"), "TB")
	case strings.HasSuffix(s, "GIB"), strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(strings.TrimSuffix(s, "GIB"), "GB")
	case strings.HasSuffix(s, "MIB"), strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(strings.TrimSuffix(s, "MIB"), "MB")
	case strings.HasSuffix(s, "KIB"), strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(strings.TrimSuffix(s, "KIB"), "KB")
	case strings.HasSuffix(s, "B"):
		s = strings.TrimSuffix(s, "B")
	}
	s = strings.TrimSpace(s)

	var value float64
	if _, err := fmt.Sscanf(s, "%f", &value); err != nil {
		return 0, fmt.Errorf("invalid byte string: %s", orig)
	}
	if value < 0 {
		return 0, fmt.Errorf("invalid byte string: %s", orig)
	}

	return int64(value * float64(multiplier)), nil
}

// CountingReader wraps an io.Reader, reporting every read to a Reporter.
// Wrap the framed stream so the reporter sees bytes as they cross the wire.
type CountingReader struct {
	R        io.Reader
	Reporter Reporter
}

func (c *CountingReader) Read(p []byte) (int, error) {
	n, err := c.R.Read(p)
	if n > 0 {
		c.Reporter.Add(int64(n))
	}
	return n, err
}
