package protocol

import (
	"crypto/sha256"

	"github.com/ironpeer/p2pcore/internal/bytestream"
	"github.com/ironpeer/p2pcore/internal/wire"
)

// HeaderSize is the fixed, unframed size of a message header: 4-byte magic,
// 12-byte NUL-padded command, 4-byte payload length, 4-byte checksum.
const HeaderSize = 24

// commandFieldSize is the width of the command field within the header.
const commandFieldSize = 12

// Header is the fixed-size preamble that precedes every message payload.
type Header struct {
	Magic         uint32
	Command       string
	PayloadLength uint32
	Checksum      [4]byte
}

// doubleSHA256 computes SHA256(SHA256(data)).
func doubleSHA256(data []byte) [32]byte {
	first := sha256.Sum256(data)
	return sha256.Sum256(first[:])
}

// Checksum4 returns the first 4 bytes of the double-SHA256 digest of
// payload, used as the header's integrity checksum.
func Checksum4(payload []byte) [4]byte {
	full := doubleSHA256(payload)
	var out [4]byte
	copy(out[:], full[:4])
	return out
}

// encodeCommand renders name into a 12-byte NUL-padded field. It returns
// ErrInvalidCommand if name does not fit.
func encodeCommand(name string) ([commandFieldSize]byte, error) {
	var out [commandFieldSize]byte
	if len(name) > commandFieldSize {
		return out, ErrInvalidCommand
	}
	copy(out[:], name)
	return out, nil
}

// decodeCommand trims trailing NUL bytes from a raw command field and
// rejects fields with non-ASCII-printable or internal NUL bytes.
func decodeCommand(raw [commandFieldSize]byte) (string, error) {
	end := commandFieldSize
	for end > 0 && raw[end-1] == 0 {
		end--
	}
	for i := 0; i < end; i++ {
		if raw[i] == 0 || raw[i] < 0x20 || raw[i] > 0x7E {
			return "", ErrInvalidCommand
		}
	}
	return string(raw[:end]), nil
}

// Write serializes h to s.
func (h Header) Write(s *bytestream.Stream) error {
	cmd, err := encodeCommand(h.Command)
	if err != nil {
		return err
	}
	if err := wire.WriteUint32(s, h.Magic); err != nil {
		return err
	}
	if err := wire.WriteFixedBytes(s, cmd[:]); err != nil {
		return err
	}
	if err := wire.WriteUint32(s, h.PayloadLength); err != nil {
		return err
	}
	return wire.WriteFixedBytes(s, h.Checksum[:])
}

// ReadHeader deserializes a Header from s. It returns ErrHeaderIncomplete
// (recoverable) if fewer than HeaderSize bytes are available.
func ReadHeader(s *bytestream.Stream) (Header, error) {
	if s.Avail() < HeaderSize {
		return Header{}, ErrHeaderIncomplete
	}

	magic, err := wire.ReadUint32(s)
	if err != nil {
		return Header{}, ErrHeaderIncomplete
	}
	rawCmd, err := wire.ReadFixedBytes(s, commandFieldSize)
	if err != nil {
		return Header{}, ErrHeaderIncomplete
	}
	var cmdArr [commandFieldSize]byte
	copy(cmdArr[:], rawCmd)
	command, err := decodeCommand(cmdArr)
	if err != nil {
		return Header{}, err
	}
	length, err := wire.ReadUint32(s)
	if err != nil {
		return Header{}, ErrHeaderIncomplete
	}
	rawChecksum, err := wire.ReadFixedBytes(s, 4)
	if err != nil {
		return Header{}, ErrHeaderIncomplete
	}
	var checksum [4]byte
	copy(checksum[:], rawChecksum)

	return Header{Magic: magic, Command: command, PayloadLength: length, Checksum: checksum}, nil
}
