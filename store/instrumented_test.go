package store

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/justapithecus/strata/codec"
	"github.com/justapithecus/strata/metrics"
	"github.com/justapithecus/strata/progress"
	"github.com/justapithecus/strata/types"
)

// fakeTransferer returns canned results and records calls.
type fakeTransferer struct {
	uploadSum   types.TransferSummary
	uploadErr   error
	downloadSum types.TransferSummary
	downloadErr error

	uploadCalls   int
	downloadCalls int
}

func (f *fakeTransferer) Upload(_ context.Context, _ string, _ io.Reader, _ int64, _ progress.Reporter) (types.TransferSummary, error) {
	f.uploadCalls++
	return f.uploadSum, f.uploadErr
}

func (f *fakeTransferer) Download(_ context.Context, _ string, _ io.Writer, _ progress.Reporter) (types.TransferSummary, error) {
	f.downloadCalls++
	return f.downloadSum, f.downloadErr
}

var _ Transferer = (*fakeTransferer)(nil)

func TestInstrumentedClientUploadSuccess(t *testing.T) {
	inner := &fakeTransferer{
		uploadSum: types.TransferSummary{MessageLength: 10485835},
	}
	collector := metrics.NewCollector("s3", "artifacts")
	client := NewInstrumentedClient(inner, collector)

	if _, err := client.Upload(context.Background(), "k", nil, 0, nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	snap := collector.Snapshot()
	if snap.UploadsStarted != 1 || snap.UploadsCompleted != 1 || snap.UploadsFailed != 0 {
		t.Errorf("uploads = %d started %d completed %d failed, want 1/1/0",
			snap.UploadsStarted, snap.UploadsCompleted, snap.UploadsFailed)
	}
	if snap.BytesUploaded != 10485835 {
		t.Errorf("BytesUploaded = %d, want 10485835", snap.BytesUploaded)
	}
	if inner.uploadCalls != 1 {
		t.Errorf("inner Upload called %d times, want 1", inner.uploadCalls)
	}
}

func TestInstrumentedClientUploadFailure(t *testing.T) {
	inner := &fakeTransferer{uploadErr: errors.New("put failed")}
	collector := metrics.NewCollector("s3", "artifacts")
	client := NewInstrumentedClient(inner, collector)

	if _, err := client.Upload(context.Background(), "k", nil, 0, nil); err == nil {
		t.Fatal("Upload succeeded, want error")
	}

	snap := collector.Snapshot()
	if snap.UploadsStarted != 1 || snap.UploadsCompleted != 0 || snap.UploadsFailed != 1 {
		t.Errorf("uploads = %d started %d completed %d failed, want 1/0/1",
			snap.UploadsStarted, snap.UploadsCompleted, snap.UploadsFailed)
	}
	if snap.BytesUploaded != 0 {
		t.Errorf("BytesUploaded = %d, want 0", snap.BytesUploaded)
	}
}

func TestInstrumentedClientDownloadSuccess(t *testing.T) {
	inner := &fakeTransferer{
		downloadSum: types.TransferSummary{MessageLength: 4096},
	}
	collector := metrics.NewCollector("s3", "artifacts")
	client := NewInstrumentedClient(inner, collector)

	if _, err := client.Download(context.Background(), "k", io.Discard, nil); err != nil {
		t.Fatalf("Download: %v", err)
	}

	snap := collector.Snapshot()
	if snap.DownloadsStarted != 1 || snap.DownloadsCompleted != 1 || snap.DownloadsFailed != 0 {
		t.Errorf("downloads = %d started %d completed %d failed, want 1/1/0",
			snap.DownloadsStarted, snap.DownloadsCompleted, snap.DownloadsFailed)
	}
	if snap.BytesDownloaded != 4096 {
		t.Errorf("BytesDownloaded = %d, want 4096", snap.BytesDownloaded)
	}
}

func TestInstrumentedClientDownloadIntegrityFailure(t *testing.T) {
	inner := &fakeTransferer{
		downloadErr: &codec.MessageError{
			Kind: codec.MessageErrorSegmentChecksum,
			Msg:  "segment 2 checksum mismatch",
		},
	}
	collector := metrics.NewCollector("s3", "artifacts")
	client := NewInstrumentedClient(inner, collector)

	if _, err := client.Download(context.Background(), "k", io.Discard, nil); err == nil {
		t.Fatal("Download succeeded, want error")
	}

	snap := collector.Snapshot()
	if snap.DownloadsFailed != 1 {
		t.Errorf("DownloadsFailed = %d, want 1", snap.DownloadsFailed)
	}
	if snap.IntegrityFailures != 1 {
		t.Errorf("IntegrityFailures = %d, want 1", snap.IntegrityFailures)
	}
}

func TestInstrumentedClientDownloadStorageFailure(t *testing.T) {
	inner := &fakeTransferer{
		downloadErr: NewStorageError(ErrNotFound, "download", "k", errors.New("NoSuchKey")),
	}
	collector := metrics.NewCollector("s3", "artifacts")
	client := NewInstrumentedClient(inner, collector)

	if _, err := client.Download(context.Background(), "k", io.Discard, nil); err == nil {
		t.Fatal("Download succeeded, want error")
	}

	snap := collector.Snapshot()
	if snap.DownloadsFailed != 1 {
		t.Errorf("DownloadsFailed = %d, want 1", snap.DownloadsFailed)
	}
	if snap.IntegrityFailures != 0 {
		t.Errorf("IntegrityFailures = %d for storage failure, want 0", snap.IntegrityFailures)
	}
}

func TestInstrumentedClientNilCollector(t *testing.T) {
	inner := &fakeTransferer{}
	client := NewInstrumentedClient(inner, nil)

	// Nil collector must not panic.
	if _, err := client.Upload(context.Background(), "k", nil, 0, nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, err := client.Download(context.Background(), "k", io.Discard, nil); err != nil {
		t.Fatalf("Download: %v", err)
	}
}
