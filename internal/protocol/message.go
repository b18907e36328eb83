package protocol

import (
	"github.com/ironpeer/p2pcore/internal/bytestream"
	"github.com/ironpeer/p2pcore/internal/wire"
)

// Message is a decoded header plus its raw, still-encoded payload. Callers
// use the registry's Command to pick the right payload decoder.
type Message struct {
	Header  Header
	Payload []byte
}

// NewMessage builds a Message ready to be written to the wire, computing
// the header's length and checksum from payload.
func NewMessage(magic uint32, command string, payload []byte) *Message {
	return &Message{
		Header: Header{
			Magic:         magic,
			Command:       command,
			PayloadLength: uint32(len(payload)),
			Checksum:      Checksum4(payload),
		},
		Payload: payload,
	}
}

// Write serializes the full message (header then payload) to s.
func (m *Message) Write(s *bytestream.Stream) error {
	if err := m.Header.Write(s); err != nil {
		return err
	}
	return wire.WriteFixedBytes(s, m.Payload)
}

// Validate checks m against the command registry: known command, payload
// length bounds, protocol-version gating, and (for vectorized payloads) a
// sane, non-empty element count derived from the leading compact-size
// prefix and, when the registry knows the per-item size, an exact match
// between the declared count and the payload bytes actually present. It
// does not decode the payload's individual fields.
func (m *Message) Validate(protocolVersion uint32) error {
	def, ok := Lookup(m.Header.Command)
	if !ok {
		return ErrUnknownCommand
	}
	n := int(m.Header.PayloadLength)
	if n < def.MinPayloadLen {
		return ErrPayloadTooShort
	}
	if n > def.MaxPayloadLen || n > MaxPayloadSize {
		return ErrPayloadTooLarge
	}
	if protocolVersion < def.MinProtocolVersion || protocolVersion > def.MaxProtocolVersion {
		return ErrProtocolVersionTooOld
	}
	if def.Vectorized {
		count, offset, err := peekVectorCount(m.Header.Command, m.Payload)
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrEmptyVector
		}
		if def.MaxItems > 0 && count > uint64(def.MaxItems) {
			return ErrTooManyItems
		}
		if def.ItemSize > 0 {
			extraItem := uint64(0)
			if m.Header.Command == CmdGetHeaders {
				extraItem = 1 // trailing fixed-size HashStop field
			}
			want := (count + extraItem) * uint64(def.ItemSize)
			if uint64(len(m.Payload)-offset) != want {
				return ErrLengthMismatchesVectorSize
			}
		}
	}
	return nil
}

// peekVectorCount reads the compact-size element count at the start of a
// vectorized payload without consuming it, skipping getheaders' leading
// 4-byte protocol-version field first.
func peekVectorCount(command string, payload []byte) (uint64, int, error) {
	s := bytestream.FromBytes(payload)
	if command == CmdGetHeaders {
		if _, err := wire.ReadUint32(s); err != nil {
			return 0, 0, err
		}
	}
	count, err := wire.ReadCompact(s)
	if err != nil {
		return 0, 0, err
	}
	return count, s.Tell(), nil
}

// Parser incrementally reconstructs framed messages out of an arbitrarily
// chunked byte stream, as bytes arrive off a socket. Every parsed header's
// magic is checked against expectedMagic; a mismatch is fatal to the
// session, since it means the peer is speaking a different network.
type Parser struct {
	buf           *bytestream.Stream
	expectedMagic uint32
}

// NewParser returns an empty Parser that rejects any header whose magic
// does not equal expectedMagic.
func NewParser(expectedMagic uint32) *Parser {
	return &Parser{buf: bytestream.New(), expectedMagic: expectedMagic}
}

// Feed appends newly-read socket bytes to the parser's internal buffer.
func (p *Parser) Feed(data []byte) error {
	return p.buf.Append(data)
}

// Next attempts to decode one complete message from the buffered bytes. It
// returns ErrHeaderIncomplete or ErrBodyIncomplete (both recoverable, see
// IsRecoverable) when more bytes are needed; the internal read cursor is
// rewound on either so a later Next call retries from the same offset. A
// non-recoverable error means the connection must be torn down.
func (p *Parser) Next() (*Message, error) {
	start := p.buf.Tell()

	h, err := ReadHeader(p.buf)
	if err != nil {
		p.buf.Seek(start)
		return nil, err
	}
	if h.Magic != p.expectedMagic {
		return nil, ErrInvalidMagic
	}
	if h.PayloadLength > MaxPayloadSize {
		return nil, ErrPayloadTooLarge
	}
	if p.buf.Avail() < int(h.PayloadLength) {
		p.buf.Seek(start)
		return nil, ErrBodyIncomplete
	}

	payload, err := wire.ReadFixedBytes(p.buf, int(h.PayloadLength))
	if err != nil {
		p.buf.Seek(start)
		return nil, ErrBodyIncomplete
	}
	if Checksum4(payload) != h.Checksum {
		return nil, ErrChecksumMismatch
	}

	p.buf.Consume()
	return &Message{Header: h, Payload: payload}, nil
}

// DrainAll repeatedly calls Next until it runs out of complete messages,
// enforcing MaxMessagesPerRead as a flood guard against a peer packing an
// unreasonable number of messages into one socket read. The first
// MaxMessagesPerRead messages are returned for delivery; the one that would
// exceed the bound is rejected without being added to the result.
func (p *Parser) DrainAll() ([]*Message, error) {
	var out []*Message
	for {
		msg, err := p.Next()
		if err != nil {
			if IsRecoverable(err) {
				return out, nil
			}
			return out, err
		}
		if len(out) >= MaxMessagesPerRead {
			return out, ErrTooManyMessages
		}
		out = append(out, msg)
	}
}
