package codec

import (
	"errors"
	"fmt"
)

// Construction errors. These indicate caller configuration problems and are
// returned before any byte of the inner source is touched.
var (
	// ErrInvalidSegmentSize indicates a non-positive segment size.
	ErrInvalidSegmentSize = errors.New("codec: segment size must be positive")
	// ErrInvalidContentLength indicates a negative content length.
	ErrInvalidContentLength = errors.New("codec: content length must be non-negative")
	// ErrTooManySegments indicates a content length and segment size that
	// imply more segments than the u16 wire field can carry.
	ErrTooManySegments = errors.New("codec: segment count exceeds wire maximum")
	// ErrMessageTooShort indicates a declared message length below the
	// minimum framed size per CONTRACT_WIRE.md §5.
	ErrMessageTooShort = errors.New("codec: message length below minimum framed size")
)

// MessageErrorKind classifies structured message decode failures.
type MessageErrorKind int

const (
	// MessageErrorVersion indicates an unsupported format version.
	MessageErrorVersion MessageErrorKind = iota
	// MessageErrorLength indicates a declared length disagreeing with the
	// caller-supplied length or with the layout arithmetic.
	MessageErrorLength
	// MessageErrorSegmentOrder indicates a segment number out of sequence.
	MessageErrorSegmentOrder
	// MessageErrorSegmentLength indicates a segment content length
	// inconsistent with the declared totals.
	MessageErrorSegmentLength
	// MessageErrorTruncated indicates the inner source ended before the
	// declared message length was consumed.
	MessageErrorTruncated
	// MessageErrorSegmentChecksum indicates a segment footer mismatch.
	MessageErrorSegmentChecksum
	// MessageErrorMessageChecksum indicates a message footer mismatch.
	MessageErrorMessageChecksum
)

// MessageError represents an invalid structured message. Decode failures of
// every kind are fatal and non-retryable per CONTRACT_WIRE.md §6: the stream
// that produced one returns the same error from all further reads.
type MessageError struct {
	Kind MessageErrorKind
	Msg  string
	Err  error
}

func (e *MessageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("structured message invalid: %s: %v", e.Msg, e.Err)
	}
	return "structured message invalid: " + e.Msg
}

func (e *MessageError) Unwrap() error {
	return e.Err
}

// IsIntegrity reports whether this error is a checksum mismatch rather than a
// framing defect.
func (e *MessageError) IsIntegrity() bool {
	return e.Kind == MessageErrorSegmentChecksum || e.Kind == MessageErrorMessageChecksum
}

// IsMessageError reports whether err is any structured message failure.
func IsMessageError(err error) bool {
	var msgErr *MessageError
	return errors.As(err, &msgErr)
}

// IsIntegrityError reports whether err is a checksum mismatch.
func IsIntegrityError(err error) bool {
	var msgErr *MessageError
	if errors.As(err, &msgErr) {
		return msgErr.IsIntegrity()
	}
	return false
}
