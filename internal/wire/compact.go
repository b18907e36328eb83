package wire

import (
	"encoding/binary"

	"github.com/ironpeer/p2pcore/internal/bytestream"
)

// WriteCompact encodes v using the protocol's variable-length unsigned
// integer form: one byte if < 0xFD; 0xFD + 2 LE bytes if it fits in 16
// bits; 0xFE + 4 LE bytes if it fits in 32 bits; otherwise 0xFF + 8 LE
// bytes.
func WriteCompact(s *bytestream.Stream, v uint64) error {
	switch {
	case v < 0xFD:
		return s.AppendByte(byte(v))
	case v <= 0xFFFF:
		if err := s.AppendByte(0xFD); err != nil {
			return err
		}
		var b [2]byte
		binary.LittleEndian.PutUint16(b[:], uint16(v))
		return s.Append(b[:])
	case v <= 0xFFFFFFFF:
		if err := s.AppendByte(0xFE); err != nil {
			return err
		}
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(v))
		return s.Append(b[:])
	default:
		if err := s.AppendByte(0xFF); err != nil {
			return err
		}
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], v)
		return s.Append(b[:])
	}
}

// CompactSizeOf returns the number of bytes WriteCompact would emit for v,
// without touching any stream. Counterpart of the original C++
// ser_compact_sizeof helper.
func CompactSizeOf(v uint64) int {
	switch {
	case v < 0xFD:
		return 1
	case v <= 0xFFFF:
		return 3
	case v <= 0xFFFFFFFF:
		return 5
	default:
		return 9
	}
}

// ReadCompact decodes a compact-size integer, rejecting any encoding that
// is not the shortest possible form for the decoded value
// (ErrNonCanonicalCompact) and any value above MaxSerializedCompactSize
// (ErrCompactSizeTooBig).
func ReadCompact(s *bytestream.Stream) (uint64, error) {
	prefix, err := ReadUint8(s)
	if err != nil {
		return 0, ErrReadBeyondData
	}

	var v uint64
	switch {
	case prefix < 0xFD:
		v = uint64(prefix)
	case prefix == 0xFD:
		b, err := s.Read(2)
		if err != nil {
			return 0, ErrReadBeyondData
		}
		v = uint64(binary.LittleEndian.Uint16(b))
		if v < 0xFD {
			return 0, ErrNonCanonicalCompact
		}
	case prefix == 0xFE:
		b, err := s.Read(4)
		if err != nil {
			return 0, ErrReadBeyondData
		}
		v = uint64(binary.LittleEndian.Uint32(b))
		if v <= 0xFFFF {
			return 0, ErrNonCanonicalCompact
		}
	default: // 0xFF
		b, err := s.Read(8)
		if err != nil {
			return 0, ErrReadBeyondData
		}
		v = binary.LittleEndian.Uint64(b)
		if v <= 0xFFFFFFFF {
			return 0, ErrNonCanonicalCompact
		}
	}

	if v > MaxSerializedCompactSize {
		return 0, ErrCompactSizeTooBig
	}
	return v, nil
}
