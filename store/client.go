package store

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/segmentio/ksuid"

	"github.com/justapithecus/strata/codec"
	"github.com/justapithecus/strata/iox"
	"github.com/justapithecus/strata/log"
	"github.com/justapithecus/strata/progress"
	"github.com/justapithecus/strata/types"
)

// bodyDrainLimit bounds how much of an abandoned response body is drained
// before closing. Past this the connection is cheaper to drop than to reuse.
const bodyDrainLimit = 64 * 1024

// Transferer moves structured messages in and out of object storage.
// Client is the real implementation; InstrumentedClient decorates one
// with metrics.
type Transferer interface {
	// Upload frames contentLength bytes from src and stores them under key.
	Upload(ctx context.Context, key string, src io.Reader, contentLength int64, rep progress.Reporter) (types.TransferSummary, error)
	// Download fetches the object under key, validates its framing and
	// checksums, and writes the unframed content to dst.
	Download(ctx context.Context, key string, dst io.Writer, rep progress.Reporter) (types.TransferSummary, error)
}

// ObjectInfo describes a stored object without fetching its body.
type ObjectInfo struct {
	Key string `json:"key" yaml:"key"`
	// MessageLength is the stored (framed) size in bytes.
	MessageLength int64 `json:"message_length" yaml:"message_length"`
	// ContentLength is the unframed length from metadata, or -1 when the
	// object does not declare one.
	ContentLength int64 `json:"content_length" yaml:"content_length"`
	// Structured reports whether the object carries structured-body metadata.
	Structured bool   `json:"structured" yaml:"structured"`
	Checksum   string `json:"checksum" yaml:"checksum"`
}

// Client moves structured messages in and out of an S3 bucket.
// Uploads frame the source through an EncodeStream; downloads validate
// framing and checksums through a DecodeStream as bytes arrive, so a
// corrupt object fails before its content is fully consumed.
type Client struct {
	api    ObjectAPI
	cfg    Config
	logger *log.Logger
}

var _ Transferer = (*Client)(nil)

// NewWithAPI creates a Client over an existing S3 API.
// Use New for real AWS wiring; tests substitute a fake ObjectAPI.
func NewWithAPI(api ObjectAPI, cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		api:    api,
		cfg:    cfg,
		logger: log.NewLogger("s3", cfg.Bucket),
	}, nil
}

// Upload frames contentLength bytes from src and stores them under key.
// The stored object's byte length is the framed message length; user
// metadata marks it as a structured message per CONTRACT_WIRE.md §7.
// src must yield exactly contentLength bytes.
func (c *Client) Upload(ctx context.Context, key string, src io.Reader, contentLength int64, rep progress.Reporter) (types.TransferSummary, error) {
	if rep == nil {
		rep = progress.NopReporter{}
	}
	transferID := ksuid.New().String()
	logger := c.logger.WithTransfer(transferID)

	enc, err := codec.NewEncodeStream(src, contentLength, codec.EncodeConfig{
		SegmentSize:     c.cfg.SegmentSize,
		DisableChecksum: c.cfg.DisableChecksum,
		Provider:        c.cfg.Provider,
	})
	if err != nil {
		return types.TransferSummary{}, err
	}

	messageLength := enc.Length()
	rep.Start(transferID, types.DirectionUpload, key, messageLength)
	logger.Info("upload started", map[string]any{
		"key":            key,
		"content_length": contentLength,
		"message_length": messageLength,
		"segments":       enc.NumSegments(),
	})
	start := time.Now()

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.cfg.Bucket),
		Key:           aws.String(c.cfg.objectKey(key)),
		Body:          &progress.CountingReader{R: enc, Reporter: rep},
		ContentLength: aws.Int64(messageLength),
		Metadata: map[string]string{
			MetadataBody:          structuredBodyValue(enc.Flags()),
			MetadataContentLength: strconv.FormatInt(contentLength, 10),
		},
	})
	if err != nil {
		err = WrapUploadError(err, key)
		rep.Fail(err)
		logger.Error("upload failed", map[string]any{"key": key, "error": err.Error()})
		return types.TransferSummary{}, err
	}

	sum := types.TransferSummary{
		TransferID:    transferID,
		Direction:     types.DirectionUpload,
		Bucket:        c.cfg.Bucket,
		Key:           key,
		ContentLength: contentLength,
		MessageLength: messageLength,
		Segments:      enc.NumSegments(),
		Checksum:      checksumName(enc.Flags().HasCRC64()),
		DurationMS:    time.Since(start).Milliseconds(),
	}
	rep.Finish(sum)
	logger.Info("upload complete", map[string]any{
		"key":         key,
		"duration_ms": sum.DurationMS,
	})
	return sum, nil
}

// Download fetches the object under key, validates its framing and checksums
// as bytes arrive, and writes the unframed content to dst. Integrity and
// framing defects surface as *codec.MessageError; storage failures as
// *StorageError. Content written to dst before a late integrity failure must
// be discarded by the caller.
func (c *Client) Download(ctx context.Context, key string, dst io.Writer, rep progress.Reporter) (types.TransferSummary, error) {
	if rep == nil {
		rep = progress.NopReporter{}
	}
	transferID := ksuid.New().String()
	logger := c.logger.WithTransfer(transferID)

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.cfg.objectKey(key)),
	})
	if err != nil {
		err = WrapDownloadError(err, key)
		rep.Fail(err)
		logger.Error("download failed", map[string]any{"key": key, "error": err.Error()})
		return types.TransferSummary{}, err
	}
	defer iox.DrainClose(out.Body, bodyDrainLimit)

	structured, hasCRC64 := parseStructuredBody(out.Metadata[MetadataBody])
	if !structured {
		err := NewStorageError(ErrNotStructured, "download", key, nil)
		rep.Fail(err)
		logger.Error("download failed", map[string]any{"key": key, "error": err.Error()})
		return types.TransferSummary{}, err
	}
	messageLength := aws.ToInt64(out.ContentLength)

	rep.Start(transferID, types.DirectionDownload, key, messageLength)
	logger.Info("download started", map[string]any{
		"key":            key,
		"message_length": messageLength,
	})
	start := time.Now()

	dec, err := codec.NewDecodeStream(
		&progress.CountingReader{R: out.Body, Reporter: rep},
		messageLength,
		codec.DecodeConfig{Provider: c.cfg.Provider},
	)
	if err != nil {
		rep.Fail(err)
		logger.Error("download failed", map[string]any{"key": key, "error": err.Error()})
		return types.TransferSummary{}, err
	}

	n, err := io.Copy(dst, dec)
	if err != nil {
		err = WrapDownloadError(err, key)
		rep.Fail(err)
		logger.Error("download failed", map[string]any{"key": key, "error": err.Error()})
		return types.TransferSummary{}, err
	}

	if v, ok := out.Metadata[MetadataContentLength]; ok {
		if want, perr := strconv.ParseInt(v, 10, 64); perr == nil && want != n {
			logger.Warn("content length metadata disagrees with decoded length", map[string]any{
				"key":      key,
				"metadata": want,
				"decoded":  n,
			})
		}
	}

	sum := types.TransferSummary{
		TransferID:    transferID,
		Direction:     types.DirectionDownload,
		Bucket:        c.cfg.Bucket,
		Key:           key,
		ContentLength: n,
		MessageLength: messageLength,
		Segments:      dec.NumSegments(),
		Checksum:      checksumName(hasCRC64),
		DurationMS:    time.Since(start).Milliseconds(),
	}
	rep.Finish(sum)
	logger.Info("download complete", map[string]any{
		"key":         key,
		"duration_ms": sum.DurationMS,
	})
	return sum, nil
}

// Stat describes the object under key without fetching its body.
func (c *Client) Stat(ctx context.Context, key string) (*ObjectInfo, error) {
	head, err := c.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.cfg.objectKey(key)),
	})
	if err != nil {
		return nil, WrapDownloadError(err, key)
	}

	structured, hasCRC64 := parseStructuredBody(head.Metadata[MetadataBody])
	info := &ObjectInfo{
		Key:           key,
		MessageLength: aws.ToInt64(head.ContentLength),
		ContentLength: -1,
		Structured:    structured,
		Checksum:      checksumName(structured && hasCRC64),
	}
	if v, ok := head.Metadata[MetadataContentLength]; ok {
		if n, perr := strconv.ParseInt(v, 10, 64); perr == nil {
			info.ContentLength = n
		}
	}
	return info, nil
}

// Inspect fetches the object under key and walks its framing, returning the
// message structure without verifying content checksums.
func (c *Client) Inspect(ctx context.Context, key string) (*codec.MessageSummary, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.cfg.Bucket),
		Key:    aws.String(c.cfg.objectKey(key)),
	})
	if err != nil {
		return nil, WrapDownloadError(err, key)
	}
	defer iox.DrainClose(out.Body, bodyDrainLimit)

	if structured, _ := parseStructuredBody(out.Metadata[MetadataBody]); !structured {
		return nil, NewStorageError(ErrNotStructured, "inspect", key, nil)
	}

	return codec.Inspect(out.Body, aws.ToInt64(out.ContentLength))
}
