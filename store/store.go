package store

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/justapithecus/strata/checksum"
	"github.com/justapithecus/strata/wire"
)

// User metadata keys per CONTRACT_WIRE.md §7.
const (
	// MetadataBody marks an object as a structured message and names the
	// format revision and checksum properties.
	MetadataBody = "structured-body"
	// MetadataContentLength carries the unframed content length, decimal.
	MetadataContentLength = "structured-content-length"
)

const (
	structuredBodyV1      = "SM/1.0"
	structuredBodyV1CRC64 = "SM/1.0; properties=crc64"
)

// structuredBodyValue returns the metadata value for a message with flags.
func structuredBodyValue(flags wire.Flags) string {
	if flags.HasCRC64() {
		return structuredBodyV1CRC64
	}
	return structuredBodyV1
}

// parseStructuredBody reports whether v marks a structured message body,
// and whether the message carries CRC64 footers.
func parseStructuredBody(v string) (ok, hasCRC64 bool) {
	fields := strings.SplitN(v, ";", 2)
	if strings.TrimSpace(fields[0]) != structuredBodyV1 {
		return false, false
	}
	if len(fields) == 2 && strings.Contains(fields[1], "crc64") {
		return true, true
	}
	return true, false
}

// checksumName returns the display name for a checksum configuration.
func checksumName(hasCRC64 bool) string {
	if hasCRC64 {
		return "crc64"
	}
	return "none"
}

// ObjectAPI is the subset of the S3 API the client uses.
// *s3.Client satisfies it; tests substitute a fake.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Config holds configuration for the storage client.
type Config struct {
	// Bucket is the S3 bucket name (required).
	Bucket string
	// Prefix is the key prefix within the bucket (optional).
	Prefix string
	// Region is the AWS region (optional, uses default chain if empty).
	Region string
	// Endpoint is a custom S3 endpoint URL for S3-compatible providers
	// (e.g. Cloudflare R2, MinIO). Empty uses the default AWS endpoint.
	Endpoint string
	// UsePathStyle forces path-style addressing (bucket in path, not subdomain).
	// Required by most S3-compatible providers (R2, MinIO, etc.).
	UsePathStyle bool
	// AccessKey and SecretKey are static credentials for S3-compatible
	// providers. Both empty uses the SDK default credential chain.
	AccessKey string
	SecretKey string

	// SegmentSize is the encoder segment size in bytes.
	// Zero selects the 4 MiB default.
	SegmentSize int64
	// DisableChecksum turns off CRC64 footers on upload.
	DisableChecksum bool
	// Provider overrides the checksum provider for uploads and downloads.
	// Nil selects the codec default.
	Provider checksum.Provider
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Bucket == "" {
		return errors.New("bucket is required")
	}
	if (c.AccessKey == "") != (c.SecretKey == "") {
		return errors.New("access key and secret key must be set together")
	}
	return nil
}

// objectKey joins the configured prefix with key.
func (c *Config) objectKey(key string) string {
	if c.Prefix == "" {
		return key
	}
	return strings.TrimSuffix(c.Prefix, "/") + "/" + strings.TrimPrefix(key, "/")
}
