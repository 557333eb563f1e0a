// Package types holds the DTOs shared across the storage client, the
// progress reporters, and the CLI renderers.
package types

// Direction identifies what moved the bytes.
type Direction string

const (
	// DirectionUpload is a framed write to object storage.
	DirectionUpload Direction = "upload"
	// DirectionDownload is a framed read from object storage.
	DirectionDownload Direction = "download"
	// DirectionPack is a local file framing.
	DirectionPack Direction = "pack"
	// DirectionUnpack is a local file deframing.
	DirectionUnpack Direction = "unpack"
)

// TransferSummary describes a completed transfer. It is rendered by the CLI,
// embedded in the final progress frame, and logged on completion.
type TransferSummary struct {
	TransferID string    `json:"transfer_id" yaml:"transfer_id" msgpack:"transfer_id"`
	Direction  Direction `json:"direction" yaml:"direction" msgpack:"direction"`
	// Bucket is empty for local pack and unpack operations; Key then
	// carries the local output path.
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty" msgpack:"bucket"`
	Key    string `json:"key,omitempty" yaml:"key,omitempty" msgpack:"key"`
	// ContentLength is the unframed payload size in bytes.
	ContentLength int64 `json:"content_length" yaml:"content_length" msgpack:"content_length"`
	// MessageLength is the framed size in bytes as stored or sent.
	MessageLength int64  `json:"message_length" yaml:"message_length" msgpack:"message_length"`
	Segments      int    `json:"segments" yaml:"segments" msgpack:"segments"`
	Checksum      string `json:"checksum" yaml:"checksum" msgpack:"checksum"`
	DurationMS    int64  `json:"duration_ms" yaml:"duration_ms" msgpack:"duration_ms"`
}
