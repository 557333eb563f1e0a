package config

import (
	"fmt"
	"time"

	"github.com/justapithecus/strata/progress"
)

// Config represents a strata.yaml configuration file.
//
// Every field is optional. Config values act as defaults for the
// corresponding command-line flags; flags given explicitly always win.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Codec    CodecConfig    `yaml:"codec"`
	Progress ProgressConfig `yaml:"progress"`
}

// StorageConfig holds object storage connection defaults.
type StorageConfig struct {
	// Bucket is the bucket (or container) objects are stored in.
	Bucket string `yaml:"bucket"`

	// Prefix is prepended to every object key, path-style.
	Prefix string `yaml:"prefix"`

	// Region is the storage region, e.g. "us-east-1".
	Region string `yaml:"region"`

	// Endpoint overrides the storage endpoint URL. Set this for
	// S3-compatible services such as MinIO.
	Endpoint string `yaml:"endpoint"`

	// S3PathStyle forces path-style addressing. Most S3-compatible
	// services outside AWS require this.
	S3PathStyle bool `yaml:"s3_path_style"`

	// AccessKey and SecretKey are static credentials. Leave both unset
	// to use the ambient credential chain (env vars, shared config,
	// instance roles). Use ${VAR} expansion rather than committing
	// secrets to the file.
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// CodecConfig holds message framing defaults.
type CodecConfig struct {
	// SegmentSize is the content bytes per segment, e.g. "4MB".
	// Zero means the built-in default.
	SegmentSize ByteSize `yaml:"segment_size"`

	// NoChecksum disables CRC64 segment and message checksums.
	NoChecksum bool `yaml:"no_checksum"`

	// Checksum names the checksum algorithm for new messages, e.g. "crc64".
	// "none" is equivalent to no_checksum; empty selects the default.
	Checksum string `yaml:"checksum"`
}

// ProgressConfig holds progress reporting defaults.
type ProgressConfig struct {
	// Interval is the minimum time between progress updates, e.g. "500ms".
	Interval Duration `yaml:"interval"`

	// Quiet suppresses progress output entirely.
	Quiet bool `yaml:"quiet"`
}

// Duration wraps time.Duration to support human-readable YAML values
// like "500ms" or "5s".
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler for duration strings.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// ByteSize wraps a byte count to support human-readable YAML values
// like "4MB" or "512KiB". Bare integers are accepted as raw bytes.
type ByteSize struct {
	Bytes int64
}

// UnmarshalYAML implements yaml.Unmarshaler for byte size values.
func (b *ByteSize) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		var n int64
		if intErr := unmarshal(&n); intErr == nil {
			b.Bytes = n
			return nil
		}
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := progress.ParseBytes(s)
	if err != nil {
		return fmt.Errorf("invalid byte size %q: %w", s, err)
	}
	b.Bytes = parsed
	return nil
}
