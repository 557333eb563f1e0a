// Package metrics provides in-process transfer metrics collection.
//
// The Collector accumulates counters across the transfers of a single client.
// It is a leaf package with no internal dependencies. Byte counters track
// framed bytes as they cross the wire, not unframed content.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all counters.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Uploads
	UploadsStarted   int64
	UploadsCompleted int64
	UploadsFailed    int64

	// Downloads
	DownloadsStarted   int64
	DownloadsCompleted int64
	DownloadsFailed    int64

	// Integrity failures are a subset of download failures: the framed
	// bytes arrived but a checksum or the framing did not validate.
	IntegrityFailures int64

	// Framed bytes moved
	BytesUploaded   int64
	BytesDownloaded int64

	// Dimensions (informational, set at construction)
	Backend string
	Bucket  string
}

// Collector accumulates transfer metrics.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	uploadsStarted   int64
	uploadsCompleted int64
	uploadsFailed    int64

	downloadsStarted   int64
	downloadsCompleted int64
	downloadsFailed    int64

	integrityFailures int64

	bytesUploaded   int64
	bytesDownloaded int64

	backend string
	bucket  string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(backend, bucket string) *Collector {
	return &Collector{
		backend: backend,
		bucket:  bucket,
	}
}

// --- Uploads ---

// IncUploadStarted records an upload start.
func (c *Collector) IncUploadStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.uploadsStarted++
	c.mu.Unlock()
}

// IncUploadCompleted records a successful upload.
func (c *Collector) IncUploadCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.uploadsCompleted++
	c.mu.Unlock()
}

// IncUploadFailed records a failed upload.
func (c *Collector) IncUploadFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.uploadsFailed++
	c.mu.Unlock()
}

// --- Downloads ---

// IncDownloadStarted records a download start.
func (c *Collector) IncDownloadStarted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.downloadsStarted++
	c.mu.Unlock()
}

// IncDownloadCompleted records a successful download.
func (c *Collector) IncDownloadCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.downloadsCompleted++
	c.mu.Unlock()
}

// IncDownloadFailed records a failed download.
func (c *Collector) IncDownloadFailed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.downloadsFailed++
	c.mu.Unlock()
}

// IncIntegrityFailure records a download that failed framing or checksum
// validation. Callers record the download failure separately.
func (c *Collector) IncIntegrityFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.integrityFailures++
	c.mu.Unlock()
}

// --- Bytes ---

// AddBytesUploaded records framed bytes written to storage.
func (c *Collector) AddBytesUploaded(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.bytesUploaded += n
	c.mu.Unlock()
}

// AddBytesDownloaded records framed bytes read from storage.
func (c *Collector) AddBytesDownloaded(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.bytesDownloaded += n
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all counters.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		UploadsStarted:   c.uploadsStarted,
		UploadsCompleted: c.uploadsCompleted,
		UploadsFailed:    c.uploadsFailed,

		DownloadsStarted:   c.downloadsStarted,
		DownloadsCompleted: c.downloadsCompleted,
		DownloadsFailed:    c.downloadsFailed,

		IntegrityFailures: c.integrityFailures,

		BytesUploaded:   c.bytesUploaded,
		BytesDownloaded: c.bytesDownloaded,

		Backend: c.backend,
		Bucket:  c.bucket,
	}
}
