package codec

import (
	"context"
	"io"
)

// Source is a context-aware inner byte source for decoding. Implementations
// follow io.Reader semantics: return up to len(p) bytes, io.EOF at end.
// Network-backed sources should honor ctx for cancellation and deadlines.
type Source interface {
	Read(ctx context.Context, p []byte) (int, error)
}

// readerSource adapts a plain io.Reader into a Source. The context is
// checked before each read; the read itself cannot be interrupted.
type readerSource struct {
	r io.Reader
}

var _ Source = readerSource{}

// NewReaderSource adapts r for use with a ContextDecodeStream. Blocking and
// context-aware inner sources are interchangeable at construction; this is
// the bridge for the blocking side.
func NewReaderSource(r io.Reader) Source {
	return readerSource{r: r}
}

func (s readerSource) Read(ctx context.Context, p []byte) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.r.Read(p)
}
