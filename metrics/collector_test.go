package metrics

import (
	"sync"
	"testing"
)

func TestCollectorCounters(t *testing.T) {
	c := NewCollector("s3", "artifacts")

	c.IncUploadStarted()
	c.IncUploadStarted()
	c.IncUploadCompleted()
	c.IncUploadFailed()

	c.IncDownloadStarted()
	c.IncDownloadCompleted()

	c.AddBytesUploaded(1024)
	c.AddBytesUploaded(512)
	c.AddBytesDownloaded(2048)

	snap := c.Snapshot()

	if snap.UploadsStarted != 2 {
		t.Errorf("UploadsStarted = %d, want 2", snap.UploadsStarted)
	}
	if snap.UploadsCompleted != 1 {
		t.Errorf("UploadsCompleted = %d, want 1", snap.UploadsCompleted)
	}
	if snap.UploadsFailed != 1 {
		t.Errorf("UploadsFailed = %d, want 1", snap.UploadsFailed)
	}
	if snap.DownloadsStarted != 1 {
		t.Errorf("DownloadsStarted = %d, want 1", snap.DownloadsStarted)
	}
	if snap.DownloadsCompleted != 1 {
		t.Errorf("DownloadsCompleted = %d, want 1", snap.DownloadsCompleted)
	}
	if snap.BytesUploaded != 1536 {
		t.Errorf("BytesUploaded = %d, want 1536", snap.BytesUploaded)
	}
	if snap.BytesDownloaded != 2048 {
		t.Errorf("BytesDownloaded = %d, want 2048", snap.BytesDownloaded)
	}
	if snap.Backend != "s3" {
		t.Errorf("Backend = %q, want %q", snap.Backend, "s3")
	}
	if snap.Bucket != "artifacts" {
		t.Errorf("Bucket = %q, want %q", snap.Bucket, "artifacts")
	}
}

func TestCollectorIntegrityFailures(t *testing.T) {
	c := NewCollector("s3", "artifacts")

	c.IncDownloadStarted()
	c.IncDownloadFailed()
	c.IncIntegrityFailure()

	snap := c.Snapshot()

	if snap.DownloadsFailed != 1 {
		t.Errorf("DownloadsFailed = %d, want 1", snap.DownloadsFailed)
	}
	if snap.IntegrityFailures != 1 {
		t.Errorf("IntegrityFailures = %d, want 1", snap.IntegrityFailures)
	}
}

func TestCollectorNilReceiver(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.IncUploadStarted()
	c.IncUploadCompleted()
	c.IncUploadFailed()
	c.IncDownloadStarted()
	c.IncDownloadCompleted()
	c.IncDownloadFailed()
	c.IncIntegrityFailure()
	c.AddBytesUploaded(100)
	c.AddBytesDownloaded(100)

	snap := c.Snapshot()
	if snap.UploadsStarted != 0 || snap.BytesUploaded != 0 {
		t.Errorf("nil collector snapshot = %+v, want zero value", snap)
	}
}

func TestCollectorSnapshotIsolation(t *testing.T) {
	c := NewCollector("s3", "artifacts")
	c.IncUploadStarted()

	snap := c.Snapshot()
	c.IncUploadStarted()
	c.IncUploadStarted()

	if snap.UploadsStarted != 1 {
		t.Errorf("snapshot mutated after collection: UploadsStarted = %d, want 1", snap.UploadsStarted)
	}
	if got := c.Snapshot().UploadsStarted; got != 3 {
		t.Errorf("UploadsStarted = %d, want 3", got)
	}
}

func TestCollectorConcurrentAccess(t *testing.T) {
	c := NewCollector("s3", "artifacts")

	const goroutines = 8
	const perGoroutine = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				c.IncUploadStarted()
				c.AddBytesUploaded(10)
				_ = c.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if want := int64(goroutines * perGoroutine); snap.UploadsStarted != want {
		t.Errorf("UploadsStarted = %d, want %d", snap.UploadsStarted, want)
	}
	if want := int64(goroutines * perGoroutine * 10); snap.BytesUploaded != want {
		t.Errorf("BytesUploaded = %d, want %d", snap.BytesUploaded, want)
	}
}
