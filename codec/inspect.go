package codec

import (
	"fmt"
	"io"

	"github.com/justapithecus/strata/wire"
)

// MessageSummary describes the framing of a structured message.
type MessageSummary struct {
	Version       uint8            `json:"version" yaml:"version"`
	MessageLength int64            `json:"message_length" yaml:"message_length"`
	Checksum      string           `json:"checksum" yaml:"checksum"`
	SegmentCount  int              `json:"segment_count" yaml:"segment_count"`
	ContentLength int64            `json:"content_length" yaml:"content_length"`
	Segments      []SegmentSummary `json:"segments" yaml:"segments"`
}

// SegmentSummary describes one segment's framing.
type SegmentSummary struct {
	Number        int   `json:"number" yaml:"number"`
	ContentLength int64 `json:"content_length" yaml:"content_length"`
	// Offset is the position of the segment header within the framed message.
	Offset int64 `json:"offset" yaml:"offset"`
}

// Inspect walks the framing of a structured message of exactly messageLength
// bytes and returns its structure. Content bytes are skipped, not verified;
// use a DecodeStream to check integrity. Framing defects surface as
// *MessageError exactly as they would during decode.
func Inspect(r io.Reader, messageLength int64) (*MessageSummary, error) {
	if messageLength < wire.MinMessageLength {
		return nil, ErrMessageTooShort
	}

	var buf [wire.MessageHeaderLength]byte
	if err := inspectFull(r, buf[:wire.MessageHeaderLength], "message header"); err != nil {
		return nil, err
	}
	hdr, err := wire.DecodeMessageHeader(buf[:])
	if err != nil {
		return nil, err
	}

	if hdr.Version != wire.Version1 {
		return nil, &MessageError{
			Kind: MessageErrorVersion,
			Msg:  fmt.Sprintf("unsupported version %d", hdr.Version),
		}
	}
	if hdr.MessageLength != uint64(messageLength) {
		return nil, &MessageError{
			Kind: MessageErrorLength,
			Msg: fmt.Sprintf("message declares length %d, caller expected %d",
				hdr.MessageLength, messageLength),
		}
	}
	if hdr.SegmentCount == 0 {
		return nil, &MessageError{
			Kind: MessageErrorLength,
			Msg:  "message declares zero segments",
		}
	}

	flags := hdr.Flags.Known()
	contentLength := wire.ContentLength(messageLength, hdr.SegmentCount, flags)
	if contentLength < 0 {
		return nil, &MessageError{
			Kind: MessageErrorLength,
			Msg: fmt.Sprintf("message length %d too small for %d segments",
				messageLength, hdr.SegmentCount),
		}
	}

	summary := &MessageSummary{
		Version:       hdr.Version,
		MessageLength: messageLength,
		Checksum:      flags.String(),
		SegmentCount:  int(hdr.SegmentCount),
		ContentLength: contentLength,
		Segments:      make([]SegmentSummary, 0, hdr.SegmentCount),
	}

	offset := int64(wire.MessageHeaderLength)
	var seen int64
	for i := uint16(1); i <= hdr.SegmentCount; i++ {
		if err := inspectFull(r, buf[:wire.SegmentHeaderLength], "segment header"); err != nil {
			return nil, err
		}
		seg, err := wire.DecodeSegmentHeader(buf[:wire.SegmentHeaderLength])
		if err != nil {
			return nil, err
		}

		if seg.Number != i {
			return nil, &MessageError{
				Kind: MessageErrorSegmentOrder,
				Msg:  fmt.Sprintf("segment number %d, expected %d", seg.Number, i),
			}
		}
		if seg.ContentLength > uint64(contentLength-seen) {
			return nil, &MessageError{
				Kind: MessageErrorSegmentLength,
				Msg: fmt.Sprintf("segment %d declares %d bytes, only %d remain",
					seg.Number, seg.ContentLength, contentLength-seen),
			}
		}
		if seg.ContentLength == 0 && !(hdr.SegmentCount == 1 && contentLength == 0) {
			return nil, &MessageError{
				Kind: MessageErrorSegmentLength,
				Msg:  fmt.Sprintf("zero-length segment %d in non-empty message", seg.Number),
			}
		}

		summary.Segments = append(summary.Segments, SegmentSummary{
			Number:        int(seg.Number),
			ContentLength: int64(seg.ContentLength),
			Offset:        offset,
		})
		seen += int64(seg.ContentLength)
		offset += wire.SegmentHeaderLength + int64(seg.ContentLength) + flags.SegmentFooterLength()

		skip := int64(seg.ContentLength) + flags.SegmentFooterLength()
		if _, err := io.CopyN(io.Discard, r, skip); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return nil, &MessageError{
					Kind: MessageErrorTruncated,
					Msg:  fmt.Sprintf("stream ended inside segment %d", seg.Number),
					Err:  io.ErrUnexpectedEOF,
				}
			}
			return nil, err
		}
	}

	if seen != contentLength {
		return nil, &MessageError{
			Kind: MessageErrorSegmentLength,
			Msg: fmt.Sprintf("segments carried %d content bytes, message declared %d",
				seen, contentLength),
		}
	}
	if _, err := io.CopyN(io.Discard, r, flags.MessageFooterLength()); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, &MessageError{
				Kind: MessageErrorTruncated,
				Msg:  "stream ended reading message footer",
				Err:  io.ErrUnexpectedEOF,
			}
		}
		return nil, err
	}

	return summary, nil
}

func inspectFull(r io.Reader, buf []byte, what string) error {
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return &MessageError{
				Kind: MessageErrorTruncated,
				Msg:  "stream ended reading " + what,
				Err:  io.ErrUnexpectedEOF,
			}
		}
		return err
	}
	return nil
}
