// Package wire implements typed (de)serialization of scalars, compact-size
// integers, big-integers, byte strings, and vectors over a
// bytestream.Stream. Every encoding here must be byte-exact against the
// deployed wire protocol.
package wire

import (
	"encoding/binary"

	"github.com/ironpeer/p2pcore/internal/bytestream"
)

// PutUint16/PutUint32/PutUint64 etc. are deliberately not exposed: callers
// bind through the typed helpers below so every call site pays the same
// little-endian, fixed-width contract.

// WriteUint8 appends a single byte.
func WriteUint8(s *bytestream.Stream, v uint8) error {
	return s.AppendByte(v)
}

// ReadUint8 consumes and returns a single byte.
func ReadUint8(s *bytestream.Stream) (uint8, error) {
	b, err := s.Read(1)
	if err != nil {
		return 0, ErrReadBeyondData
	}
	return b[0], nil
}

// WriteUint16 appends v as 2 little-endian bytes.
func WriteUint16(s *bytestream.Stream, v uint16) error {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	return s.Append(b[:])
}

// ReadUint16 consumes 2 little-endian bytes and returns them as uint16.
func ReadUint16(s *bytestream.Stream) (uint16, error) {
	b, err := s.Read(2)
	if err != nil {
		return 0, ErrReadBeyondData
	}
	return binary.LittleEndian.Uint16(b), nil
}

// WriteUint16BE appends v as 2 big-endian bytes (used for the port field of
// an endpoint, which the wire protocol encodes network-order).
func WriteUint16BE(s *bytestream.Stream, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return s.Append(b[:])
}

// ReadUint16BE consumes 2 big-endian bytes and returns them as uint16.
func ReadUint16BE(s *bytestream.Stream) (uint16, error) {
	b, err := s.Read(2)
	if err != nil {
		return 0, ErrReadBeyondData
	}
	return binary.BigEndian.Uint16(b), nil
}

// WriteUint32 appends v as 4 little-endian bytes.
func WriteUint32(s *bytestream.Stream, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return s.Append(b[:])
}

// ReadUint32 consumes 4 little-endian bytes and returns them as uint32.
func ReadUint32(s *bytestream.Stream) (uint32, error) {
	b, err := s.Read(4)
	if err != nil {
		return 0, ErrReadBeyondData
	}
	return binary.LittleEndian.Uint32(b), nil
}

// WriteUint64 appends v as 8 little-endian bytes.
func WriteUint64(s *bytestream.Stream, v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return s.Append(b[:])
}

// ReadUint64 consumes 8 little-endian bytes and returns them as uint64.
func ReadUint64(s *bytestream.Stream) (uint64, error) {
	b, err := s.Read(8)
	if err != nil {
		return 0, ErrReadBeyondData
	}
	return binary.LittleEndian.Uint64(b), nil
}

// WriteInt64 appends v as 8 little-endian, two's-complement bytes.
func WriteInt64(s *bytestream.Stream, v int64) error {
	return WriteUint64(s, uint64(v))
}

// ReadInt64 consumes 8 little-endian bytes and returns them as int64.
func ReadInt64(s *bytestream.Stream) (int64, error) {
	v, err := ReadUint64(s)
	return int64(v), err
}

// WriteBool appends a single byte: 0x01 for true, 0x00 for false.
func WriteBool(s *bytestream.Stream, v bool) error {
	if v {
		return s.AppendByte(0x01)
	}
	return s.AppendByte(0x00)
}

// ReadBool consumes a single byte and interprets any non-zero value as true.
func ReadBool(s *bytestream.Stream) (bool, error) {
	b, err := ReadUint8(s)
	if err != nil {
		return false, err
	}
	return b != 0x00, nil
}

// WriteFixedBytes appends raw bytes with no length prefix.
func WriteFixedBytes(s *bytestream.Stream, data []byte) error {
	return s.Append(data)
}

// ReadFixedBytes consumes exactly n raw bytes with no length prefix. The
// returned slice is copied so callers may retain it past the next mutation.
func ReadFixedBytes(s *bytestream.Stream, n int) ([]byte, error) {
	view, err := s.Read(n)
	if err != nil {
		return nil, ErrReadBeyondData
	}
	out := make([]byte, n)
	copy(out, view)
	return out, nil
}

// WriteTrailingBytes appends raw bytes with no length prefix. It exists as a
// distinct name from WriteFixedBytes to document intent: the trailing bytes
// of a structure whose length is implied by the enclosing frame rather than
// an explicit count.
func WriteTrailingBytes(s *bytestream.Stream, data []byte) error {
	return s.Append(data)
}

// ReadTrailingBytes greedily consumes every remaining byte in the stream.
func ReadTrailingBytes(s *bytestream.Stream) []byte {
	view := s.ReadAll()
	out := make([]byte, len(view))
	copy(out, view)
	return out
}

// WriteVarBytes appends a compact-size length prefix followed by data.
func WriteVarBytes(s *bytestream.Stream, data []byte) error {
	if err := WriteCompact(s, uint64(len(data))); err != nil {
		return err
	}
	return s.Append(data)
}

// ReadVarBytes consumes a compact-size length prefix followed by that many
// raw bytes.
func ReadVarBytes(s *bytestream.Stream) ([]byte, error) {
	n, err := ReadCompact(s)
	if err != nil {
		return nil, err
	}
	return ReadFixedBytes(s, int(n))
}

// MaxStringLength bounds compact-size-prefixed strings where the protocol
// limits them (e.g. the reject message's reason field).
const MaxStringLength = 256

// WriteString appends a compact-size length prefix followed by the raw
// UTF-8 bytes of s, with no validation of UTF-8 well-formedness.
func WriteString(s *bytestream.Stream, str string) error {
	return WriteVarBytes(s, []byte(str))
}

// ReadString consumes a compact-size-prefixed string with no UTF-8
// validation.
func ReadString(s *bytestream.Stream) (string, error) {
	b, err := ReadVarBytes(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteBoundedString is WriteString but rejects strings over max bytes.
func WriteBoundedString(s *bytestream.Stream, str string, max int) error {
	if len(str) > max {
		return ErrStringTooBig
	}
	return WriteString(s, str)
}

// ReadBoundedString is ReadString but rejects strings over max bytes before
// attempting to read the payload.
func ReadBoundedString(s *bytestream.Stream, max int) (string, error) {
	n, err := ReadCompact(s)
	if err != nil {
		return "", err
	}
	if n > uint64(max) {
		return "", ErrStringTooBig
	}
	b, err := ReadFixedBytes(s, int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// WriteBigInt encodes v as big-endian bytes, left-padded or truncated to
// exactly n bytes, for fixed-precision integers up to 256 bits.
func WriteBigInt(s *bytestream.Stream, v []byte, n int) error {
	buf := make([]byte, n)
	if len(v) > n {
		copy(buf, v[len(v)-n:])
	} else {
		copy(buf[n-len(v):], v)
	}
	return s.Append(buf)
}

// ReadBigInt consumes exactly n big-endian bytes.
func ReadBigInt(s *bytestream.Stream, n int) ([]byte, error) {
	return ReadFixedBytes(s, n)
}
