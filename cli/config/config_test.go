package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "strata.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func assertEqual[T comparable](t *testing.T, name string, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTemp(t, `storage:
  bucket: archives
  prefix: backups/nightly
  region: us-west-2
  endpoint: http://minio.local:9000
  s3_path_style: true
  access_key: AKIAEXAMPLE
  secret_key: sekrit
codec:
  segment_size: 4MB
  no_checksum: true
progress:
  interval: 250ms
  quiet: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Storage.Bucket", cfg.Storage.Bucket, "archives")
	assertEqual(t, "Storage.Prefix", cfg.Storage.Prefix, "backups/nightly")
	assertEqual(t, "Storage.Region", cfg.Storage.Region, "us-west-2")
	assertEqual(t, "Storage.Endpoint", cfg.Storage.Endpoint, "http://minio.local:9000")
	assertEqual(t, "Storage.S3PathStyle", cfg.Storage.S3PathStyle, true)
	assertEqual(t, "Storage.AccessKey", cfg.Storage.AccessKey, "AKIAEXAMPLE")
	assertEqual(t, "Storage.SecretKey", cfg.Storage.SecretKey, "sekrit")
	assertEqual(t, "Codec.SegmentSize", cfg.Codec.SegmentSize.Bytes, int64(4<<20))
	assertEqual(t, "Codec.NoChecksum", cfg.Codec.NoChecksum, true)
	assertEqual(t, "Progress.Interval", cfg.Progress.Interval.Duration, 250*time.Millisecond)
	assertEqual(t, "Progress.Quiet", cfg.Progress.Quiet, true)
}

func TestLoad_EmptyFile(t *testing.T) {
	path := writeTemp(t, "")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Storage.Bucket", cfg.Storage.Bucket, "")
	assertEqual(t, "Codec.SegmentSize", cfg.Codec.SegmentSize.Bytes, int64(0))
	assertEqual(t, "Progress.Quiet", cfg.Progress.Quiet, false)
}

func TestLoad_WhitespaceOnly(t *testing.T) {
	path := writeTemp(t, "\n\n   \n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	assertEqual(t, "Storage.Bucket", cfg.Storage.Bucket, "")
}

func TestLoad_CommentsOnly(t *testing.T) {
	path := writeTemp(t, "# nothing configured yet\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	assertEqual(t, "Storage.Bucket", cfg.Storage.Bucket, "")
}

func TestLoad_FileNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeTemp(t, "storage: [unclosed\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("STRATA_TEST_BUCKET", "expanded-bucket")
	t.Setenv("STRATA_TEST_SECRET", "expanded-secret")

	path := writeTemp(t, `storage:
  bucket: ${STRATA_TEST_BUCKET}
  secret_key: ${STRATA_TEST_SECRET}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Storage.Bucket", cfg.Storage.Bucket, "expanded-bucket")
	assertEqual(t, "Storage.SecretKey", cfg.Storage.SecretKey, "expanded-secret")
}

func TestLoad_EnvDefault(t *testing.T) {
	path := writeTemp(t, `storage:
  region: ${STRATA_UNSET_REGION_99:-eu-central-1}
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Storage.Region", cfg.Storage.Region, "eu-central-1")
}

func TestLoad_UnknownKeyRejected(t *testing.T) {
	path := writeTemp(t, "bogus_key: true\n")

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for unknown key, got nil")
	}
	if !strings.Contains(err.Error(), "bogus_key") {
		t.Errorf("error %q does not name the unknown key", err)
	}
}

func TestLoad_UnknownNestedKeyRejected(t *testing.T) {
	path := writeTemp(t, `storage:
  buckett: typo
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for unknown nested key, got nil")
	}
	if !strings.Contains(err.Error(), "buckett") {
		t.Errorf("error %q does not name the unknown key", err)
	}
}

func TestLoad_PartialConfig(t *testing.T) {
	path := writeTemp(t, `storage:
  bucket: archives
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Storage.Bucket", cfg.Storage.Bucket, "archives")
	assertEqual(t, "Storage.Region", cfg.Storage.Region, "")
	assertEqual(t, "Codec.SegmentSize", cfg.Codec.SegmentSize.Bytes, int64(0))
	assertEqual(t, "Codec.NoChecksum", cfg.Codec.NoChecksum, false)
	assertEqual(t, "Progress.Interval", cfg.Progress.Interval.Duration, time.Duration(0))
}

func TestDuration_Valid(t *testing.T) {
	path := writeTemp(t, `progress:
  interval: 1500ms
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	assertEqual(t, "Progress.Interval", cfg.Progress.Interval.Duration, 1500*time.Millisecond)
}

func TestDuration_Invalid(t *testing.T) {
	path := writeTemp(t, `progress:
  interval: fast
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error %q does not mention invalid duration", err)
	}
}

func TestDuration_Empty(t *testing.T) {
	path := writeTemp(t, `progress:
  interval: ""
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	assertEqual(t, "Progress.Interval", cfg.Progress.Interval.Duration, time.Duration(0))
}

func TestByteSize_String(t *testing.T) {
	tests := []struct {
		value string
		want  int64
	}{
		{"4MB", 4 << 20},
		{"512KiB", 512 * 1024},
		{"1GB", 1 << 30},
		{"100", 100},
	}

	for _, tt := range tests {
		path := writeTemp(t, "codec:\n  segment_size: \""+tt.value+"\"\n")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error for %q: %v", tt.value, err)
		}
		if cfg.Codec.SegmentSize.Bytes != tt.want {
			t.Errorf("segment_size %q = %d, want %d", tt.value, cfg.Codec.SegmentSize.Bytes, tt.want)
		}
	}
}

func TestByteSize_Integer(t *testing.T) {
	path := writeTemp(t, `codec:
  segment_size: 1048576
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	assertEqual(t, "Codec.SegmentSize", cfg.Codec.SegmentSize.Bytes, int64(1<<20))
}

func TestByteSize_Invalid(t *testing.T) {
	path := writeTemp(t, `codec:
  segment_size: huge
`)

	_, err := Load(path)
	if err == nil {
		t.Fatal("Load() expected error for invalid byte size, got nil")
	}
	if !strings.Contains(err.Error(), "invalid byte size") {
		t.Errorf("error %q does not mention invalid byte size", err)
	}
}
