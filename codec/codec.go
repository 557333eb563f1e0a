// Package codec implements streaming structured message encoding and decoding
// per CONTRACT_WIRE.md.
//
// EncodeStream wraps a reader of known length and yields the framed message;
// DecodeStream and ContextDecodeStream unwrap a framed message and yield the
// original content, validating framing and checksums incrementally. All three
// are single-pass: bytes are produced in wire order, nothing is buffered
// beyond one region's fixed-size metadata, and no stream can be rewound.
package codec

// region identifies the active wire region of a stream state machine.
// Streams advance strictly forward: message header, then per segment a header,
// content, and footer, then the message footer.
type region int

const (
	regionMessageHeader region = iota
	regionSegmentHeader
	regionSegmentContent
	regionSegmentFooter
	regionMessageFooter
	regionDone
)
