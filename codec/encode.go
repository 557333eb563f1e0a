package codec

import (
	"io"

	"github.com/justapithecus/strata/checksum"
	"github.com/justapithecus/strata/wire"
)

// EncodeConfig configures an EncodeStream. The zero value produces CRC64
// footers and the default segment size.
type EncodeConfig struct {
	// SegmentSize is the content bytes per segment. Zero selects
	// wire.DefaultSegmentSize; negative values fail construction.
	SegmentSize int64
	// DisableChecksum clears the CRC64 flag. No footers are written.
	DisableChecksum bool
	// Provider overrides the checksum provider. Nil selects checksum.CRC64().
	Provider checksum.Provider
}

// EncodeStream frames content as a structured message per CONTRACT_WIRE.md.
//
// The stream reads exactly its declared content length from the inner reader
// and yields header, content, and footer bytes in wire order. The full framed
// length is known at construction, before any read. Content bytes pass
// straight from the inner reader into the caller's buffer; only the active
// region's fixed-size metadata is ever staged.
//
// EncodeStream is not safe for concurrent use.
type EncodeStream struct {
	src      io.Reader
	provider checksum.Provider
	flags    wire.Flags

	contentLength int64
	segmentSize   int64
	numSegments   int64
	messageLength int64

	region           region
	meta             []byte // staged metadata for the active region, nil until built
	metaOff          int
	segment          int64 // 1-based, 0 before the first segment
	segRemaining     int64
	contentRemaining int64
	offset           int64 // framed bytes produced so far
	segAcc           uint64
	msgAcc           uint64
	err              error
}

var _ io.Reader = (*EncodeStream)(nil)

// NewEncodeStream wraps r, which must yield exactly contentLength bytes.
//
// Errors:
//   - ErrInvalidContentLength: contentLength is negative
//   - ErrInvalidSegmentSize: cfg.SegmentSize is negative
//   - ErrTooManySegments: the configuration implies more than 65535 segments
func NewEncodeStream(r io.Reader, contentLength int64, cfg EncodeConfig) (*EncodeStream, error) {
	if contentLength < 0 {
		return nil, ErrInvalidContentLength
	}

	segmentSize := cfg.SegmentSize
	if segmentSize == 0 {
		segmentSize = wire.DefaultSegmentSize
	}
	if segmentSize < 0 {
		return nil, ErrInvalidSegmentSize
	}

	flags := wire.FlagCRC64
	if cfg.DisableChecksum {
		flags = 0
	}

	provider := cfg.Provider
	if provider == nil {
		provider = checksum.CRC64()
	}

	numSegments := wire.SegmentCount(contentLength, segmentSize)
	if numSegments > wire.MaxSegmentCount {
		return nil, ErrTooManySegments
	}

	return &EncodeStream{
		src:              r,
		provider:         provider,
		flags:            flags,
		contentLength:    contentLength,
		segmentSize:      segmentSize,
		numSegments:      numSegments,
		messageLength:    wire.MessageLength(contentLength, segmentSize, flags),
		region:           regionMessageHeader,
		contentRemaining: contentLength,
	}, nil
}

// Length returns the exact framed length the stream will produce.
func (e *EncodeStream) Length() int64 {
	return e.messageLength
}

// ContentLength returns the unframed content length.
func (e *EncodeStream) ContentLength() int64 {
	return e.contentLength
}

// NumSegments returns the segment count declared in the message header.
func (e *EncodeStream) NumSegments() int {
	return int(e.numSegments)
}

// Flags returns the flags declared in the message header.
func (e *EncodeStream) Flags() wire.Flags {
	return e.flags
}

// Tell returns the framed output offset: the number of bytes handed to
// callers so far. After the stream is drained it equals Length.
func (e *EncodeStream) Tell() int64 {
	return e.offset
}

// Read fills p with the next framed bytes. It returns io.EOF once the full
// message has been produced. I/O errors from the inner reader propagate
// unchanged; an inner reader that ends before contentLength bytes yields
// io.ErrUnexpectedEOF.
func (e *EncodeStream) Read(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	written := 0
	for written < len(p) {
		switch e.region {
		case regionMessageHeader:
			if e.meta == nil {
				e.meta = wire.MessageHeader{
					Version:       wire.Version1,
					MessageLength: uint64(e.messageLength),
					Flags:         e.flags,
					SegmentCount:  uint16(e.numSegments),
				}.Encode()
				e.metaOff = 0
			}
			written += e.drainMeta(p[written:])
			if e.metaOff == len(e.meta) {
				e.nextSegment()
			}

		case regionSegmentHeader:
			if e.meta == nil {
				e.meta = wire.SegmentHeader{
					Number:        uint16(e.segment),
					ContentLength: uint64(e.segRemaining),
				}.Encode()
				e.metaOff = 0
			}
			written += e.drainMeta(p[written:])
			if e.metaOff == len(e.meta) {
				e.region = regionSegmentContent
				e.meta = nil
			}

		case regionSegmentContent:
			if e.segRemaining == 0 {
				e.finishSegment()
				continue
			}

			limit := len(p) - written
			if int64(limit) > e.segRemaining {
				limit = int(e.segRemaining)
			}

			n, err := e.src.Read(p[written : written+limit])
			if n > 0 {
				b := p[written : written+n]
				if e.flags.HasCRC64() {
					e.segAcc = e.provider.Update(e.segAcc, b)
					e.msgAcc = e.provider.Update(e.msgAcc, b)
				}
				e.segRemaining -= int64(n)
				e.contentRemaining -= int64(n)
				e.offset += int64(n)
				written += n
			}
			if err != nil {
				if err == io.EOF {
					if e.segRemaining > 0 {
						// Source ended before the declared content length.
						e.err = io.ErrUnexpectedEOF
						return written, e.err
					}
					// EOF arrived with the final content bytes; the
					// remaining regions need nothing from the source.
				} else {
					return written, err
				}
			}
			if e.segRemaining == 0 {
				e.finishSegment()
			} else if n == 0 && err == nil {
				// Source had nothing; hand back what we have.
				return written, nil
			}

		case regionSegmentFooter:
			if e.meta == nil {
				sum := e.provider.Sum(e.segAcc)
				e.meta = sum[:]
				e.metaOff = 0
			}
			written += e.drainMeta(p[written:])
			if e.metaOff == len(e.meta) {
				e.afterSegment()
			}

		case regionMessageFooter:
			if e.meta == nil {
				sum := e.provider.Sum(e.msgAcc)
				e.meta = sum[:]
				e.metaOff = 0
			}
			written += e.drainMeta(p[written:])
			if e.metaOff == len(e.meta) {
				e.region = regionDone
				e.meta = nil
			}

		case regionDone:
			if written > 0 {
				return written, nil
			}
			return 0, io.EOF
		}
	}
	return written, nil
}

// drainMeta copies staged metadata into p and advances the output offset.
func (e *EncodeStream) drainMeta(p []byte) int {
	n := copy(p, e.meta[e.metaOff:])
	e.metaOff += n
	e.offset += int64(n)
	return n
}

// nextSegment begins the next segment's header region.
func (e *EncodeStream) nextSegment() {
	e.segment++
	e.segRemaining = e.contentRemaining
	if e.segRemaining > e.segmentSize {
		e.segRemaining = e.segmentSize
	}
	e.segAcc = 0
	e.region = regionSegmentHeader
	e.meta = nil
}

// finishSegment leaves the content region once the segment is exhausted.
func (e *EncodeStream) finishSegment() {
	if e.flags.HasCRC64() {
		e.region = regionSegmentFooter
		e.meta = nil
		return
	}
	e.afterSegment()
}

// afterSegment advances past a completed segment: either into the next
// segment or toward the end of the message.
func (e *EncodeStream) afterSegment() {
	if e.segment < e.numSegments {
		e.nextSegment()
		return
	}
	if e.flags.HasCRC64() {
		e.region = regionMessageFooter
		e.meta = nil
		return
	}
	e.region = regionDone
	e.meta = nil
}
