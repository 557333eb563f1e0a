package store

import (
	"context"
	"io"

	"github.com/justapithecus/strata/codec"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/progress"
	"github.com/justapithecus/strata/types"
)

// InstrumentedClient wraps a Transferer and records transfer metrics.
// Each Upload/Download increments the started counter, then completed or
// failed; a download failing integrity validation additionally increments
// the integrity failure counter. Byte counters record framed bytes from
// completed transfers.
type InstrumentedClient struct {
	inner     Transferer
	collector *metrics.Collector
}

// NewInstrumentedClient wraps a transferer with metrics instrumentation.
func NewInstrumentedClient(inner Transferer, collector *metrics.Collector) *InstrumentedClient {
	return &InstrumentedClient{inner: inner, collector: collector}
}

// Upload delegates to the inner transferer and records the outcome.
func (c *InstrumentedClient) Upload(ctx context.Context, key string, src io.Reader, contentLength int64, rep progress.Reporter) (types.TransferSummary, error) {
	c.collector.IncUploadStarted()
	sum, err := c.inner.Upload(ctx, key, src, contentLength, rep)
	if err != nil {
		c.collector.IncUploadFailed()
		return sum, err
	}
	c.collector.IncUploadCompleted()
	c.collector.AddBytesUploaded(sum.MessageLength)
	return sum, nil
}

// Download delegates to the inner transferer and records the outcome.
func (c *InstrumentedClient) Download(ctx context.Context, key string, dst io.Writer, rep progress.Reporter) (types.TransferSummary, error) {
	c.collector.IncDownloadStarted()
	sum, err := c.inner.Download(ctx, key, dst, rep)
	if err != nil {
		c.collector.IncDownloadFailed()
		if codec.IsIntegrityError(err) {
			c.collector.IncIntegrityFailure()
		}
		return sum, err
	}
	c.collector.IncDownloadCompleted()
	c.collector.AddBytesDownloaded(sum.MessageLength)
	return sum, nil
}

// Verify InstrumentedClient implements Transferer.
var _ Transferer = (*InstrumentedClient)(nil)
