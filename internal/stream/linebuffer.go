package stream

import (
	"bytes"
	"errors"
)

// ErrLineTooLong is returned when a single record exceeds the buffer limit
var ErrLineTooLong = errors.New("stream line exceeds buffer limit")

// DefaultMaxLineBytes bounds the residual buffer. Finalized reasoning graphs
// with similarity matrices are the largest records the backend sends.
const DefaultMaxLineBytes = 16 * 1024 * 1024

// LineBuffer splits an arbitrarily chunked byte stream into lines.
//
// Invariant: after every Feed, residual holds exactly the bytes received after
// the last '\n'. Those bytes are never returned as a line until their
// terminator arrives, so records split across reads are reassembled and
// several records in one read come out in order.
type LineBuffer struct {
	residual []byte
	max      int
}

// NewLineBuffer creates a buffer that rejects lines longer than max bytes.
// max <= 0 selects DefaultMaxLineBytes.
func NewLineBuffer(max int) *LineBuffer {
	if max <= 0 {
		max = DefaultMaxLineBytes
	}
	return &LineBuffer{max: max}
}

// Feed appends a chunk and returns every line it completed, without the
// trailing "\n" or "\r\n". Returned slices are owned by the caller.
func (b *LineBuffer) Feed(chunk []byte) ([][]byte, error) {
	var lines [][]byte

	for len(chunk) > 0 {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			if len(b.residual)+len(chunk) > b.max {
				return lines, ErrLineTooLong
			}
			b.residual = append(b.residual, chunk...)
			break
		}

		if len(b.residual)+i > b.max {
			return lines, ErrLineTooLong
		}

		line := make([]byte, 0, len(b.residual)+i)
		line = append(line, b.residual...)
		line = append(line, chunk[:i]...)
		line = bytes.TrimSuffix(line, []byte("\r"))
		lines = append(lines, line)

		b.residual = b.residual[:0]
		chunk = chunk[i+1:]
	}

	return lines, nil
}

// Residual returns the bytes of the current unterminated line
func (b *LineBuffer) Residual() []byte {
	return b.residual
}

// Pending reports whether a partial line is buffered
func (b *LineBuffer) Pending() bool {
	return len(b.residual) > 0
}
