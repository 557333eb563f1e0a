package codec

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/justapithecus/strata/checksum"
	"github.com/justapithecus/strata/wire"
)

// DecodeConfig configures a DecodeStream or ContextDecodeStream.
type DecodeConfig struct {
	// Provider overrides the checksum provider. Nil selects checksum.CRC64().
	Provider checksum.Provider
}

// decodeEngine is the structured message decode state machine, shared by the
// blocking and context-aware streams. It validates framing and checksums
// incrementally per CONTRACT_WIRE.md §6 and yields only content bytes.
//
// Metadata regions are assembled in a persistent staging buffer so that a
// transient inner-source error (a deadline, a cancellation) leaves the
// machine resumable. Message errors are sticky: once framing or integrity
// validation fails, every further read returns the same error.
type decodeEngine struct {
	src      Source
	provider checksum.Provider

	declaredLength  int64 // framed length the caller expects
	flags           wire.Flags
	segmentCount    uint16
	expectedContent int64

	region       region
	meta         [wire.MessageHeaderLength]byte // staging for the active metadata region
	metaOff      int
	metaNeed     int
	segment      uint16 // current segment number, 0 before the first header
	segRemaining int64
	contentRead  int64
	segAcc       uint64
	msgAcc       uint64
	err          error
}

func newDecodeEngine(src Source, messageLength int64, cfg DecodeConfig) (*decodeEngine, error) {
	if messageLength < wire.MinMessageLength {
		return nil, ErrMessageTooShort
	}

	provider := cfg.Provider
	if provider == nil {
		provider = checksum.CRC64()
	}

	return &decodeEngine{
		src:            src,
		provider:       provider,
		declaredLength: messageLength,
		region:         regionMessageHeader,
		metaNeed:       wire.MessageHeaderLength,
	}, nil
}

// read drives the state machine until p is full, the message ends, or the
// source has nothing more to give right now.
func (d *decodeEngine) read(ctx context.Context, p []byte) (int, error) {
	if d.err != nil {
		return 0, d.err
	}
	if len(p) == 0 {
		return 0, nil
	}

	written := 0
	for {
		switch d.region {
		case regionMessageHeader:
			if err := d.fillMeta(ctx, "message header"); err != nil {
				return written, d.fatal(err)
			}
			if err := d.parseMessageHeader(); err != nil {
				return written, d.fatal(err)
			}

		case regionSegmentHeader:
			if err := d.fillMeta(ctx, "segment header"); err != nil {
				return written, d.fatal(err)
			}
			if err := d.parseSegmentHeader(); err != nil {
				return written, d.fatal(err)
			}

		case regionSegmentContent:
			if d.segRemaining == 0 {
				d.enterRegion(regionSegmentFooter, d.footerNeed())
				continue
			}
			if written == len(p) {
				return written, nil
			}

			limit := len(p) - written
			if int64(limit) > d.segRemaining {
				limit = int(d.segRemaining)
			}

			n, err := d.src.Read(ctx, p[written:written+limit])
			if n > 0 {
				b := p[written : written+n]
				if d.flags.HasCRC64() {
					d.segAcc = d.provider.Update(d.segAcc, b)
					d.msgAcc = d.provider.Update(d.msgAcc, b)
				}
				d.segRemaining -= int64(n)
				d.contentRead += int64(n)
				written += n
			}
			if err != nil {
				if err == io.EOF {
					if d.segRemaining > 0 {
						return written, d.fatal(&MessageError{
							Kind: MessageErrorTruncated,
							Msg: fmt.Sprintf("stream ended inside segment %d content",
								d.segment),
							Err: io.ErrUnexpectedEOF,
						})
					}
					// Segment finished exactly at source EOF; footer
					// regions will fail truncated if bytes are missing.
				} else {
					return written, err
				}
			}
			if d.segRemaining == 0 {
				d.enterRegion(regionSegmentFooter, d.footerNeed())
			} else if n == 0 && err == nil {
				return written, nil
			}

		case regionSegmentFooter:
			if d.flags.HasCRC64() {
				if err := d.fillMeta(ctx, "segment footer"); err != nil {
					return written, d.fatal(err)
				}
				want := d.provider.Sum(d.segAcc)
				if got := [checksum.Size]byte(d.meta[:checksum.Size]); got != want {
					return written, d.fatal(&MessageError{
						Kind: MessageErrorSegmentChecksum,
						Msg:  fmt.Sprintf("segment %d checksum mismatch", d.segment),
					})
				}
			}
			if d.segment < d.segmentCount {
				d.enterRegion(regionSegmentHeader, wire.SegmentHeaderLength)
			} else {
				d.enterRegion(regionMessageFooter, d.footerNeed())
			}

		case regionMessageFooter:
			if d.contentRead != d.expectedContent {
				return written, d.fatal(&MessageError{
					Kind: MessageErrorSegmentLength,
					Msg: fmt.Sprintf("segments carried %d content bytes, message declared %d",
						d.contentRead, d.expectedContent),
				})
			}
			if d.flags.HasCRC64() {
				if err := d.fillMeta(ctx, "message footer"); err != nil {
					return written, d.fatal(err)
				}
				want := d.provider.Sum(d.msgAcc)
				if got := [checksum.Size]byte(d.meta[:checksum.Size]); got != want {
					return written, d.fatal(&MessageError{
						Kind: MessageErrorMessageChecksum,
						Msg:  "message checksum mismatch",
					})
				}
			}
			d.enterRegion(regionDone, 0)

		case regionDone:
			if written > 0 {
				return written, nil
			}
			return 0, io.EOF
		}
	}
}

// enterRegion transitions the machine and resets the staging buffer.
func (d *decodeEngine) enterRegion(r region, need int) {
	d.region = r
	d.metaOff = 0
	d.metaNeed = need
}

func (d *decodeEngine) footerNeed() int {
	if d.flags.HasCRC64() {
		return checksum.Size
	}
	return 0
}

// fillMeta reads from the source until the staging buffer holds the active
// region's metadata. A read may deliver the region's final bytes together
// with io.EOF; the bytes count first and the region completes, as with
// io.ReadFull. Progress persists across transient errors; a source that ends
// mid-region is a truncation.
func (d *decodeEngine) fillMeta(ctx context.Context, what string) error {
	for d.metaOff < d.metaNeed {
		n, err := d.src.Read(ctx, d.meta[d.metaOff:d.metaNeed])
		d.metaOff += n
		if d.metaOff >= d.metaNeed {
			break
		}
		if err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return &MessageError{
					Kind: MessageErrorTruncated,
					Msg:  "stream ended reading " + what,
					Err:  io.ErrUnexpectedEOF,
				}
			}
			return err
		}
	}
	return nil
}

// parseMessageHeader validates the staged message header and prepares the
// first segment. Unknown flag bits are ignored per CONTRACT_WIRE.md §2.
func (d *decodeEngine) parseMessageHeader() error {
	hdr, err := wire.DecodeMessageHeader(d.meta[:wire.MessageHeaderLength])
	if err != nil {
		return err
	}

	if hdr.Version != wire.Version1 {
		return &MessageError{
			Kind: MessageErrorVersion,
			Msg:  fmt.Sprintf("unsupported version %d", hdr.Version),
		}
	}
	if hdr.MessageLength != uint64(d.declaredLength) {
		return &MessageError{
			Kind: MessageErrorLength,
			Msg: fmt.Sprintf("message declares length %d, caller expected %d",
				hdr.MessageLength, d.declaredLength),
		}
	}
	if hdr.SegmentCount == 0 {
		return &MessageError{
			Kind: MessageErrorLength,
			Msg:  "message declares zero segments",
		}
	}

	d.flags = hdr.Flags.Known()
	d.segmentCount = hdr.SegmentCount
	d.expectedContent = wire.ContentLength(d.declaredLength, hdr.SegmentCount, d.flags)
	if d.expectedContent < 0 {
		return &MessageError{
			Kind: MessageErrorLength,
			Msg: fmt.Sprintf("message length %d too small for %d segments",
				d.declaredLength, hdr.SegmentCount),
		}
	}

	d.enterRegion(regionSegmentHeader, wire.SegmentHeaderLength)
	return nil
}

// parseSegmentHeader validates the staged segment header and prepares its
// content region.
func (d *decodeEngine) parseSegmentHeader() error {
	hdr, err := wire.DecodeSegmentHeader(d.meta[:wire.SegmentHeaderLength])
	if err != nil {
		return err
	}

	next := d.segment + 1
	if hdr.Number != next {
		return &MessageError{
			Kind: MessageErrorSegmentOrder,
			Msg:  fmt.Sprintf("segment number %d, expected %d", hdr.Number, next),
		}
	}

	remaining := d.expectedContent - d.contentRead
	if hdr.ContentLength > uint64(remaining) {
		return &MessageError{
			Kind: MessageErrorSegmentLength,
			Msg: fmt.Sprintf("segment %d declares %d bytes, only %d remain",
				hdr.Number, hdr.ContentLength, remaining),
		}
	}
	if hdr.ContentLength == 0 && !(d.segmentCount == 1 && d.expectedContent == 0) {
		return &MessageError{
			Kind: MessageErrorSegmentLength,
			Msg:  fmt.Sprintf("zero-length segment %d in non-empty message", hdr.Number),
		}
	}

	d.segment = next
	d.segRemaining = int64(hdr.ContentLength)
	d.segAcc = 0
	d.enterRegion(regionSegmentContent, 0)
	return nil
}

// fatal makes message errors sticky. Transient I/O errors pass through
// untouched so the caller may resume.
func (d *decodeEngine) fatal(err error) error {
	var msgErr *MessageError
	if errors.As(err, &msgErr) {
		d.err = err
	}
	return err
}

// DecodeStream unwraps a structured message from a blocking reader. Reads
// yield only the original content bytes; framing and checksums are validated
// as the stream advances, and a segment checksum failure surfaces no later
// than the read that consumes that segment's last content byte.
type DecodeStream struct {
	eng *decodeEngine
}

var _ io.Reader = (*DecodeStream)(nil)

// NewDecodeStream wraps r, a framed message of exactly messageLength bytes.
// The length typically comes from the transport (an object size, a
// Content-Length header). Construction fails with ErrMessageTooShort when
// messageLength cannot hold even an empty message.
func NewDecodeStream(r io.Reader, messageLength int64, cfg DecodeConfig) (*DecodeStream, error) {
	eng, err := newDecodeEngine(NewReaderSource(r), messageLength, cfg)
	if err != nil {
		return nil, err
	}
	return &DecodeStream{eng: eng}, nil
}

// Read fills p with decoded content bytes. It returns io.EOF after the final
// content byte once the entire message, footers included, has validated.
func (d *DecodeStream) Read(p []byte) (int, error) {
	return d.eng.read(context.Background(), p)
}

// NumSegments returns the segment count declared by the message header,
// or 0 before the header has been read.
func (d *DecodeStream) NumSegments() int {
	return int(d.eng.segmentCount)
}

// Flags returns the flags declared by the message header, or 0 before the
// header has been read.
func (d *DecodeStream) Flags() wire.Flags {
	return d.eng.flags
}

// ContextDecodeStream is the context-aware decoder. It is behaviorally
// identical to DecodeStream; the two differ only in where the inner source
// may suspend. Adapt a plain io.Reader with NewReaderSource.
type ContextDecodeStream struct {
	eng *decodeEngine
}

// NewContextDecodeStream wraps src, a framed message of exactly
// messageLength bytes.
func NewContextDecodeStream(src Source, messageLength int64, cfg DecodeConfig) (*ContextDecodeStream, error) {
	eng, err := newDecodeEngine(src, messageLength, cfg)
	if err != nil {
		return nil, err
	}
	return &ContextDecodeStream{eng: eng}, nil
}

// Read fills p with decoded content bytes. A context error surfaces from the
// inner source and leaves the stream resumable; message errors are final.
func (d *ContextDecodeStream) Read(ctx context.Context, p []byte) (int, error) {
	return d.eng.read(ctx, p)
}

// NumSegments returns the segment count declared by the message header,
// or 0 before the header has been read.
func (d *ContextDecodeStream) NumSegments() int {
	return int(d.eng.segmentCount)
}

// Flags returns the flags declared by the message header, or 0 before the
// header has been read.
func (d *ContextDecodeStream) Flags() wire.Flags {
	return d.eng.flags
}
