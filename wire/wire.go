// Package wire defines the structured message wire format per CONTRACT_WIRE.md.
//
// A structured message wraps a payload in a 13-byte message header, per-segment
// 10-byte headers, and optional 8-byte CRC64 footers. All integers are
// little-endian unsigned fixed-width. This package holds the layout constants,
// the header codecs, and the length arithmetic; the streaming is in codec.
package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Layout constants per CONTRACT_WIRE.md.
const (
	// Version1 is the only defined format version.
	Version1 uint8 = 1
	// MessageHeaderLength is the size of the message header in bytes.
	MessageHeaderLength = 13
	// SegmentHeaderLength is the size of a segment header in bytes.
	SegmentHeaderLength = 10
	// ChecksumLength is the size of a segment or message footer in bytes.
	ChecksumLength = 8
	// MinMessageLength is the smallest legal framed length: a message header
	// followed by a single segment header (empty message, no checksums).
	MinMessageLength = MessageHeaderLength + SegmentHeaderLength
	// MaxSegmentCount is the largest representable segment count (u16 field).
	MaxSegmentCount = 1<<16 - 1
	// DefaultSegmentSize is the segment size used when none is configured.
	DefaultSegmentSize = 4 * 1024 * 1024
)

// ErrShortBuffer indicates a buffer too small to hold the requested header.
var ErrShortBuffer = errors.New("wire: buffer too short for header")

// Flags is the message header flags bitset per CONTRACT_WIRE.md §2.
// Bits other than the defined ones are reserved and ignored by decoders.
type Flags uint16

// FlagCRC64 marks messages carrying CRC64 segment and message footers.
const FlagCRC64 Flags = 1 << 0

// HasCRC64 reports whether CRC64 footers are present.
func (f Flags) HasCRC64() bool {
	return f&FlagCRC64 != 0
}

// Known masks f down to the flag bits this implementation defines.
func (f Flags) Known() Flags {
	return f & FlagCRC64
}

// SegmentFooterLength returns the per-segment footer size implied by f.
func (f Flags) SegmentFooterLength() int64 {
	if f.HasCRC64() {
		return ChecksumLength
	}
	return 0
}

// MessageFooterLength returns the message footer size implied by f.
func (f Flags) MessageFooterLength() int64 {
	if f.HasCRC64() {
		return ChecksumLength
	}
	return 0
}

func (f Flags) String() string {
	if f.HasCRC64() {
		return "crc64"
	}
	return "none"
}

// SegmentCount returns the number of segments required for contentLength bytes
// at the given segment size. An empty message still has one segment.
// segmentSize must be positive.
func SegmentCount(contentLength, segmentSize int64) int64 {
	if contentLength <= 0 {
		return 1
	}
	return (contentLength + segmentSize - 1) / segmentSize
}

// MessageLength returns the exact framed length for contentLength bytes at the
// given segment size and flags, per CONTRACT_WIRE.md §5.
func MessageLength(contentLength, segmentSize int64, flags Flags) int64 {
	segments := SegmentCount(contentLength, segmentSize)
	return MessageHeaderLength +
		segments*(SegmentHeaderLength+flags.SegmentFooterLength()) +
		contentLength +
		flags.MessageFooterLength()
}

// ContentLength returns the content length implied by a declared framed length,
// segment count, and flags. The result is negative when the declared values are
// inconsistent with the layout.
func ContentLength(messageLength int64, segmentCount uint16, flags Flags) int64 {
	return messageLength -
		MessageHeaderLength -
		int64(segmentCount)*(SegmentHeaderLength+flags.SegmentFooterLength()) -
		flags.MessageFooterLength()
}

// MessageHeader is the decoded form of the 13-byte message header.
type MessageHeader struct {
	Version       uint8
	MessageLength uint64
	Flags         Flags
	SegmentCount  uint16
}

// Encode returns the 13-byte wire form of h.
func (h MessageHeader) Encode() []byte {
	buf := make([]byte, MessageHeaderLength)
	buf[0] = h.Version
	binary.LittleEndian.PutUint64(buf[1:9], h.MessageLength)
	binary.LittleEndian.PutUint16(buf[9:11], uint16(h.Flags))
	binary.LittleEndian.PutUint16(buf[11:13], h.SegmentCount)
	return buf
}

// DecodeMessageHeader parses a message header from the first
// MessageHeaderLength bytes of b. Only the layout is validated here; semantic
// checks (version, length consistency) belong to the decoder.
func DecodeMessageHeader(b []byte) (MessageHeader, error) {
	if len(b) < MessageHeaderLength {
		return MessageHeader{}, fmt.Errorf("%w: message header needs %d bytes, have %d",
			ErrShortBuffer, MessageHeaderLength, len(b))
	}
	return MessageHeader{
		Version:       b[0],
		MessageLength: binary.LittleEndian.Uint64(b[1:9]),
		Flags:         Flags(binary.LittleEndian.Uint16(b[9:11])),
		SegmentCount:  binary.LittleEndian.Uint16(b[11:13]),
	}, nil
}

// SegmentHeader is the decoded form of a 10-byte segment header.
type SegmentHeader struct {
	// Number is 1-based and increases by exactly 1 per segment.
	Number uint16
	// ContentLength is the declared length of this segment's content.
	ContentLength uint64
}

// Encode returns the 10-byte wire form of h.
func (h SegmentHeader) Encode() []byte {
	buf := make([]byte, SegmentHeaderLength)
	binary.LittleEndian.PutUint16(buf[0:2], h.Number)
	binary.LittleEndian.PutUint64(buf[2:10], h.ContentLength)
	return buf
}

// DecodeSegmentHeader parses a segment header from the first
// SegmentHeaderLength bytes of b.
func DecodeSegmentHeader(b []byte) (SegmentHeader, error) {
	if len(b) < SegmentHeaderLength {
		return SegmentHeader{}, fmt.Errorf("%w: segment header needs %d bytes, have %d",
			ErrShortBuffer, SegmentHeaderLength, len(b))
	}
	return SegmentHeader{
		Number:        binary.LittleEndian.Uint16(b[0:2]),
		ContentLength: binary.LittleEndian.Uint64(b[2:10]),
	}, nil
}
