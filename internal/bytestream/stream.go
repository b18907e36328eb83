// Package bytestream implements a resizable byte buffer with an independent
// write tail and read cursor. It is the substrate every wire-codec operation
// reads from or writes into.
package bytestream

import "errors"

// ErrReadBeyondData is returned when a read requests more bytes than are
// available between the read cursor and the tail of the buffer.
var ErrReadBeyondData = errors.New("bytestream: read beyond available data")

// ErrOverflow is returned when an append would grow the buffer past MaxSize.
var ErrOverflow = errors.New("bytestream: append exceeds maximum size")

// MaxSize bounds the largest buffer an append will ever grow to. It exists
// to give a hard backstop against a peer driving unbounded memory growth
// through a pathological stream of small writes.
const MaxSize = 1 << 31

// Stream is a mutable ordered sequence of bytes with length N and a read
// cursor r in [0, N]. Append writes at the tail; Read returns a view of
// [r, r+k) and advances r by k. The returned view aliases the underlying
// storage and is only valid until the next mutating call.
type Stream struct {
	buf []byte
	r   int
}

// New returns an empty Stream.
func New() *Stream {
	return &Stream{}
}

// FromBytes returns a Stream pre-loaded with data, read cursor at 0.
// The slice is copied so the caller retains ownership of the original.
func FromBytes(data []byte) *Stream {
	s := &Stream{buf: make([]byte, len(data))}
	copy(s.buf, data)
	return s
}

// Append writes data at the tail of the buffer.
func (s *Stream) Append(data []byte) error {
	if len(s.buf)+len(data) > MaxSize {
		return ErrOverflow
	}
	s.buf = append(s.buf, data...)
	return nil
}

// AppendByte writes a single byte at the tail of the buffer.
func (s *Stream) AppendByte(b byte) error {
	if len(s.buf)+1 > MaxSize {
		return ErrOverflow
	}
	s.buf = append(s.buf, b)
	return nil
}

// Read returns a view of the next k bytes starting at the read cursor and
// advances the cursor by k. The returned slice aliases internal storage and
// is invalidated by the next call to Append, Consume, or Clear.
func (s *Stream) Read(k int) ([]byte, error) {
	if k < 0 || s.r+k > len(s.buf) {
		return nil, ErrReadBeyondData
	}
	view := s.buf[s.r : s.r+k]
	s.r += k
	return view, nil
}

// ReadAll returns a view of every unconsumed byte and advances the read
// cursor to the tail.
func (s *Stream) ReadAll() []byte {
	view := s.buf[s.r:]
	s.r = len(s.buf)
	return view
}

// Peek returns a view of the next k bytes without advancing the read cursor.
func (s *Stream) Peek(k int) ([]byte, error) {
	if k < 0 || s.r+k > len(s.buf) {
		return nil, ErrReadBeyondData
	}
	return s.buf[s.r : s.r+k], nil
}

// Seek moves the read cursor to an absolute position, clamped to [0, N].
func (s *Stream) Seek(pos int) int {
	switch {
	case pos < 0:
		pos = 0
	case pos > len(s.buf):
		pos = len(s.buf)
	}
	s.r = pos
	return s.r
}

// Rewind moves the read cursor back by k bytes, clamped at 0. Rewind with no
// argument (k<0) rewinds to the beginning.
func (s *Stream) Rewind(k int) {
	if k < 0 {
		s.r = 0
		return
	}
	s.Seek(s.r - k)
}

// Tell returns the current read cursor position.
func (s *Stream) Tell() int { return s.r }

// Consume erases every byte before the read cursor and resets the cursor to
// zero. It is the only operation that releases memory prefixing the cursor.
func (s *Stream) Consume() {
	if s.r == 0 {
		return
	}
	s.buf = append(s.buf[:0], s.buf[s.r:]...)
	s.r = 0
}

// Clear empties the buffer and resets the read cursor.
func (s *Stream) Clear() {
	s.buf = s.buf[:0]
	s.r = 0
}

// Size returns the total number of bytes held, consumed or not.
func (s *Stream) Size() int { return len(s.buf) }

// Avail returns the number of unconsumed bytes (N - r).
func (s *Stream) Avail() int { return len(s.buf) - s.r }

// At returns the byte at absolute position i.
func (s *Stream) At(i int) byte { return s.buf[i] }

// SetAt overwrites the byte at absolute position i. Used to back-patch
// header fields (payload length, checksum) after the payload has already
// been serialized past them.
func (s *Stream) SetAt(i int, b byte) { s.buf[i] = b }

// SetRange overwrites len(data) bytes starting at absolute position i.
func (s *Stream) SetRange(i int, data []byte) { copy(s.buf[i:i+len(data)], data) }

// Bytes returns a view of the entire underlying buffer, consumed or not.
// Callers must not retain the slice across a mutating call.
func (s *Stream) Bytes() []byte { return s.buf }
