package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/justapithecus/strata/codec"
	"github.com/justapithecus/strata/wire"
)

// fakeObject is one stored object in the fake bucket.
type fakeObject struct {
	data     []byte
	metadata map[string]string
}

// fakeObjectAPI is an in-memory ObjectAPI.
type fakeObjectAPI struct {
	mu      sync.Mutex
	objects map[string]fakeObject

	putErr  error
	getErr  error
	headErr error

	putCalls int
	lastPut  *s3.PutObjectInput
}

func newFakeObjectAPI() *fakeObjectAPI {
	return &fakeObjectAPI{objects: make(map[string]fakeObject)}
}

func (f *fakeObjectAPI) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.putCalls++
	f.lastPut = params
	if f.putErr != nil {
		return nil, f.putErr
	}

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}
	metadata := make(map[string]string, len(params.Metadata))
	for k, v := range params.Metadata {
		metadata[k] = v
	}
	f.objects[aws.ToString(params.Key)] = fakeObject{data: data, metadata: metadata}
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjectAPI) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}
	obj, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
		Metadata:      obj.metadata,
	}, nil
}

func (f *fakeObjectAPI) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.headErr != nil {
		return nil, f.headErr
	}
	obj, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NotFound{}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		Metadata:      obj.metadata,
	}, nil
}

var _ ObjectAPI = (*fakeObjectAPI)(nil)

// mutate replaces the stored bytes for key.
func (f *fakeObjectAPI) mutate(t *testing.T, key string, fn func([]byte) []byte) {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	if !ok {
		t.Fatalf("mutate: no object %q", key)
	}
	obj.data = fn(append([]byte(nil), obj.data...))
	f.objects[key] = obj
}

func testContent(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func newTestClient(t *testing.T, api ObjectAPI, cfg Config) *Client {
	t.Helper()
	if cfg.Bucket == "" {
		cfg.Bucket = "artifacts"
	}
	client, err := NewWithAPI(api, cfg)
	if err != nil {
		t.Fatalf("NewWithAPI: %v", err)
	}
	client.logger = client.logger.WithOutput(io.Discard)
	return client
}

func TestClientUploadDownloadRoundTrip(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{SegmentSize: 16384})
	content := testContent(100000)

	sum, err := client.Upload(context.Background(), "reports/q3.bin", bytes.NewReader(content), int64(len(content)), nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	wantLength := wire.MessageLength(int64(len(content)), 16384, wire.FlagCRC64)
	if sum.MessageLength != wantLength {
		t.Errorf("MessageLength = %d, want %d", sum.MessageLength, wantLength)
	}
	if sum.ContentLength != int64(len(content)) {
		t.Errorf("ContentLength = %d, want %d", sum.ContentLength, len(content))
	}
	if sum.Segments != 7 {
		t.Errorf("Segments = %d, want 7", sum.Segments)
	}
	if sum.Checksum != "crc64" {
		t.Errorf("Checksum = %q, want %q", sum.Checksum, "crc64")
	}
	if sum.TransferID == "" {
		t.Error("TransferID is empty")
	}

	obj, ok := fake.objects["reports/q3.bin"]
	if !ok {
		t.Fatal("object was not stored")
	}
	if int64(len(obj.data)) != wantLength {
		t.Errorf("stored %d bytes, want %d", len(obj.data), wantLength)
	}
	if got := obj.metadata[MetadataBody]; got != "SM/1.0; properties=crc64" {
		t.Errorf("metadata %s = %q, want %q", MetadataBody, got, "SM/1.0; properties=crc64")
	}
	if got := obj.metadata[MetadataContentLength]; got != strconv.Itoa(len(content)) {
		t.Errorf("metadata %s = %q, want %q", MetadataContentLength, got, strconv.Itoa(len(content)))
	}
	if fake.lastPut.ContentLength == nil || *fake.lastPut.ContentLength != wantLength {
		t.Errorf("PutObject ContentLength = %v, want %d", fake.lastPut.ContentLength, wantLength)
	}

	var dst bytes.Buffer
	dsum, err := client.Download(context.Background(), "reports/q3.bin", &dst, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), content) {
		t.Error("downloaded content differs from uploaded content")
	}
	if dsum.ContentLength != int64(len(content)) {
		t.Errorf("download ContentLength = %d, want %d", dsum.ContentLength, len(content))
	}
	if dsum.MessageLength != wantLength {
		t.Errorf("download MessageLength = %d, want %d", dsum.MessageLength, wantLength)
	}
	if dsum.Segments != 7 {
		t.Errorf("download Segments = %d, want 7", dsum.Segments)
	}
	if dsum.Checksum != "crc64" {
		t.Errorf("download Checksum = %q, want %q", dsum.Checksum, "crc64")
	}
}

func TestClientUploadEmpty(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{})

	sum, err := client.Upload(context.Background(), "empty.bin", bytes.NewReader(nil), 0, nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if sum.MessageLength != 39 {
		t.Errorf("MessageLength = %d, want 39", sum.MessageLength)
	}
	if got := fake.objects["empty.bin"].metadata[MetadataContentLength]; got != "0" {
		t.Errorf("metadata %s = %q, want %q", MetadataContentLength, got, "0")
	}

	var dst bytes.Buffer
	if _, err := client.Download(context.Background(), "empty.bin", &dst, nil); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if dst.Len() != 0 {
		t.Errorf("downloaded %d bytes for empty message, want 0", dst.Len())
	}
}

func TestClientUploadNoChecksum(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{SegmentSize: 4096, DisableChecksum: true})
	content := testContent(10000)

	sum, err := client.Upload(context.Background(), "plain.bin", bytes.NewReader(content), int64(len(content)), nil)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if sum.Checksum != "none" {
		t.Errorf("Checksum = %q, want %q", sum.Checksum, "none")
	}
	if got := fake.objects["plain.bin"].metadata[MetadataBody]; got != "SM/1.0" {
		t.Errorf("metadata %s = %q, want %q", MetadataBody, got, "SM/1.0")
	}

	var dst bytes.Buffer
	dsum, err := client.Download(context.Background(), "plain.bin", &dst, nil)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), content) {
		t.Error("downloaded content differs from uploaded content")
	}
	if dsum.Checksum != "none" {
		t.Errorf("download Checksum = %q, want %q", dsum.Checksum, "none")
	}
}

func TestClientUploadPrefix(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{Prefix: "team/ingest/"})
	content := testContent(100)

	if _, err := client.Upload(context.Background(), "a.bin", bytes.NewReader(content), 100, nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if _, ok := fake.objects["team/ingest/a.bin"]; !ok {
		t.Fatalf("object not stored under prefixed key; stored: %v", keysOf(fake.objects))
	}

	var dst bytes.Buffer
	if _, err := client.Download(context.Background(), "a.bin", &dst, nil); err != nil {
		t.Fatalf("Download: %v", err)
	}
	if !bytes.Equal(dst.Bytes(), content) {
		t.Error("downloaded content differs from uploaded content")
	}
}

func TestClientUploadShortSource(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{})

	// Source yields 50 bytes but the caller declares 100.
	_, err := client.Upload(context.Background(), "short.bin", bytes.NewReader(testContent(50)), 100, nil)
	if err == nil {
		t.Fatal("Upload succeeded with a short source")
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("err = %v, want io.ErrUnexpectedEOF in chain", err)
	}
}

func TestClientUploadInvalidSegmentSize(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{SegmentSize: -1})

	_, err := client.Upload(context.Background(), "k", bytes.NewReader(nil), 0, nil)
	if !errors.Is(err, codec.ErrInvalidSegmentSize) {
		t.Errorf("err = %v, want codec.ErrInvalidSegmentSize", err)
	}
	if fake.putCalls != 0 {
		t.Errorf("PutObject called %d times, want 0", fake.putCalls)
	}
}

func TestClientDownloadCorrupted(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{SegmentSize: 4096})
	content := testContent(10000)

	if _, err := client.Upload(context.Background(), "c.bin", bytes.NewReader(content), int64(len(content)), nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	// Flip one content byte inside segment 1.
	fake.mutate(t, "c.bin", func(data []byte) []byte {
		data[wire.MessageHeaderLength+wire.SegmentHeaderLength+100] ^= 0xFF
		return data
	})

	var dst bytes.Buffer
	_, err := client.Download(context.Background(), "c.bin", &dst, nil)
	if err == nil {
		t.Fatal("Download succeeded on corrupted object")
	}
	if !codec.IsIntegrityError(err) {
		t.Errorf("err = %v, want integrity error", err)
	}
	var msgErr *codec.MessageError
	if !errors.As(err, &msgErr) {
		t.Fatalf("err = %T, want *codec.MessageError", err)
	}
	if msgErr.Kind != codec.MessageErrorSegmentChecksum {
		t.Errorf("Kind = %v, want MessageErrorSegmentChecksum", msgErr.Kind)
	}
	if dst.Len() >= len(content) {
		t.Errorf("corrupted download yielded %d bytes, want fewer than %d", dst.Len(), len(content))
	}
}

func TestClientDownloadTruncated(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{SegmentSize: 4096})
	content := testContent(10000)

	if _, err := client.Upload(context.Background(), "t.bin", bytes.NewReader(content), int64(len(content)), nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	fake.mutate(t, "t.bin", func(data []byte) []byte {
		return data[:len(data)-200]
	})

	_, err := client.Download(context.Background(), "t.bin", io.Discard, nil)
	var msgErr *codec.MessageError
	if !errors.As(err, &msgErr) {
		t.Fatalf("err = %v, want *codec.MessageError", err)
	}
	if msgErr.Kind != codec.MessageErrorLength {
		t.Errorf("Kind = %v, want MessageErrorLength", msgErr.Kind)
	}
}

func TestClientDownloadNotFound(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{})

	_, err := client.Download(context.Background(), "missing.bin", io.Discard, nil)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	var storageErr *StorageError
	if !errors.As(err, &storageErr) {
		t.Fatalf("err = %T, want *StorageError", err)
	}
	if storageErr.Op != "download" {
		t.Errorf("Op = %q, want %q", storageErr.Op, "download")
	}
	if storageErr.Key != "missing.bin" {
		t.Errorf("Key = %q, want %q", storageErr.Key, "missing.bin")
	}
}

func TestClientDownloadNotStructured(t *testing.T) {
	fake := newFakeObjectAPI()
	fake.objects["raw.bin"] = fakeObject{data: testContent(500)}
	client := newTestClient(t, fake, Config{})

	_, err := client.Download(context.Background(), "raw.bin", io.Discard, nil)
	if !errors.Is(err, ErrNotStructured) {
		t.Errorf("err = %v, want ErrNotStructured", err)
	}
}

func TestClientStat(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{SegmentSize: 4096})
	content := testContent(10000)

	if _, err := client.Upload(context.Background(), "s.bin", bytes.NewReader(content), int64(len(content)), nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}
	fake.objects["raw.bin"] = fakeObject{data: testContent(500)}

	info, err := client.Stat(context.Background(), "s.bin")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if !info.Structured {
		t.Error("Structured = false, want true")
	}
	if info.ContentLength != int64(len(content)) {
		t.Errorf("ContentLength = %d, want %d", info.ContentLength, len(content))
	}
	wantLength := wire.MessageLength(int64(len(content)), 4096, wire.FlagCRC64)
	if info.MessageLength != wantLength {
		t.Errorf("MessageLength = %d, want %d", info.MessageLength, wantLength)
	}
	if info.Checksum != "crc64" {
		t.Errorf("Checksum = %q, want %q", info.Checksum, "crc64")
	}

	raw, err := client.Stat(context.Background(), "raw.bin")
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if raw.Structured {
		t.Error("Structured = true for raw object, want false")
	}
	if raw.ContentLength != -1 {
		t.Errorf("ContentLength = %d for raw object, want -1", raw.ContentLength)
	}

	if _, err := client.Stat(context.Background(), "missing.bin"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Stat(missing) = %v, want ErrNotFound", err)
	}
}

func TestClientInspect(t *testing.T) {
	fake := newFakeObjectAPI()
	client := newTestClient(t, fake, Config{SegmentSize: 4096})
	content := testContent(10000)

	if _, err := client.Upload(context.Background(), "i.bin", bytes.NewReader(content), int64(len(content)), nil); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	summary, err := client.Inspect(context.Background(), "i.bin")
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if summary.SegmentCount != 3 {
		t.Errorf("SegmentCount = %d, want 3", summary.SegmentCount)
	}
	if summary.ContentLength != int64(len(content)) {
		t.Errorf("ContentLength = %d, want %d", summary.ContentLength, len(content))
	}
	if summary.Checksum != "crc64" {
		t.Errorf("Checksum = %q, want %q", summary.Checksum, "crc64")
	}

	fake.objects["raw.bin"] = fakeObject{data: testContent(500)}
	if _, err := client.Inspect(context.Background(), "raw.bin"); !errors.Is(err, ErrNotStructured) {
		t.Errorf("Inspect(raw) = %v, want ErrNotStructured", err)
	}
}

func keysOf(m map[string]fakeObject) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}
