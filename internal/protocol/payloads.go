package protocol

import (
	"github.com/ironpeer/p2pcore/internal/bytestream"
	"github.com/ironpeer/p2pcore/internal/netaddr"
	"github.com/ironpeer/p2pcore/internal/wire"
)

// Version is the handshake-opening payload exchanged by both sides before
// any other traffic is accepted.
type Version struct {
	ProtocolVersion uint32
	Services        uint64
	Timestamp       int64
	AddrRecv        netaddr.Endpoint
	AddrFrom        netaddr.Endpoint
	Nonce           uint64
	UserAgent       string
	StartHeight     int32
	Relay           bool
}

func (v Version) Encode() ([]byte, error) {
	s := bytestream.New()
	if err := wire.WriteUint32(s, v.ProtocolVersion); err != nil {
		return nil, err
	}
	if err := wire.WriteUint64(s, v.Services); err != nil {
		return nil, err
	}
	if err := wire.WriteInt64(s, v.Timestamp); err != nil {
		return nil, err
	}
	if err := netaddr.WriteEndpoint(s, v.AddrRecv); err != nil {
		return nil, err
	}
	if err := netaddr.WriteEndpoint(s, v.AddrFrom); err != nil {
		return nil, err
	}
	if err := wire.WriteUint64(s, v.Nonce); err != nil {
		return nil, err
	}
	if err := wire.WriteBoundedString(s, v.UserAgent, wire.MaxStringLength); err != nil {
		return nil, err
	}
	if err := wire.WriteUint32(s, uint32(v.StartHeight)); err != nil {
		return nil, err
	}
	if err := wire.WriteBool(s, v.Relay); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func DecodeVersion(payload []byte) (Version, error) {
	s := bytestream.FromBytes(payload)
	var v Version
	var err error
	if v.ProtocolVersion, err = wire.ReadUint32(s); err != nil {
		return v, err
	}
	if v.Services, err = wire.ReadUint64(s); err != nil {
		return v, err
	}
	if v.Timestamp, err = wire.ReadInt64(s); err != nil {
		return v, err
	}
	if v.AddrRecv, err = netaddr.ReadEndpoint(s); err != nil {
		return v, err
	}
	if v.AddrFrom, err = netaddr.ReadEndpoint(s); err != nil {
		return v, err
	}
	if v.Nonce, err = wire.ReadUint64(s); err != nil {
		return v, err
	}
	if v.UserAgent, err = wire.ReadBoundedString(s, wire.MaxStringLength); err != nil {
		return v, err
	}
	height, err := wire.ReadUint32(s)
	if err != nil {
		return v, err
	}
	v.StartHeight = int32(height)
	if v.Relay, err = wire.ReadBool(s); err != nil {
		// relay flag is optional in older protocol versions; absence is
		// not an error, it simply defaults to false.
		v.Relay = false
	}
	return v, nil
}

// Ping/Pong carry a single nonce used to correlate the round trip.
type Ping struct{ Nonce uint64 }
type Pong struct{ Nonce uint64 }

func (p Ping) Encode() ([]byte, error) { return encodeNonce(p.Nonce) }
func (p Pong) Encode() ([]byte, error) { return encodeNonce(p.Nonce) }

func encodeNonce(nonce uint64) ([]byte, error) {
	s := bytestream.New()
	if err := wire.WriteUint64(s, nonce); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func DecodePing(payload []byte) (Ping, error) {
	n, err := decodeNonce(payload)
	return Ping{Nonce: n}, err
}

func DecodePong(payload []byte) (Pong, error) {
	n, err := decodeNonce(payload)
	return Pong{Nonce: n}, err
}

func decodeNonce(payload []byte) (uint64, error) {
	s := bytestream.FromBytes(payload)
	return wire.ReadUint64(s)
}

// Addr carries a batch of peer endpoints the sender has recently observed.
type Addr struct {
	Entries []netaddr.TimestampedEndpoint
}

func (a Addr) Encode() ([]byte, error) {
	s := bytestream.New()
	if err := wire.WriteVector(s, a.Entries, netaddr.WriteTimestampedEndpoint); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func DecodeAddr(payload []byte) (Addr, error) {
	s := bytestream.FromBytes(payload)
	entries, err := wire.ReadVector(s, netaddr.ReadTimestampedEndpoint)
	if err != nil {
		return Addr{}, err
	}
	return Addr{Entries: entries}, nil
}

// InventoryType distinguishes what an inventory vector item refers to.
type InventoryType uint32

const (
	InvError InventoryType = iota
	InvTx
	InvBlock
	InvFilteredBlock
	InvCompactBlock
)

// InventoryItem is a single (type, 32-byte hash) pair used by inv,
// getdata, and notfound payloads.
type InventoryItem struct {
	Type InventoryType
	Hash [32]byte
}

func writeInventoryItem(s *bytestream.Stream, item InventoryItem) error {
	if err := wire.WriteUint32(s, uint32(item.Type)); err != nil {
		return err
	}
	return wire.WriteFixedBytes(s, item.Hash[:])
}

func readInventoryItem(s *bytestream.Stream) (InventoryItem, error) {
	t, err := wire.ReadUint32(s)
	if err != nil {
		return InventoryItem{}, err
	}
	h, err := wire.ReadFixedBytes(s, 32)
	if err != nil {
		return InventoryItem{}, err
	}
	var item InventoryItem
	item.Type = InventoryType(t)
	copy(item.Hash[:], h)
	return item, nil
}

// Inventory is the shared payload shape for inv, getdata, and notfound.
type Inventory struct {
	Items []InventoryItem
}

func (inv Inventory) Encode() ([]byte, error) {
	s := bytestream.New()
	if err := wire.WriteVector(s, inv.Items, writeInventoryItem); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func decodeInventory(payload []byte) (Inventory, error) {
	s := bytestream.FromBytes(payload)
	items, err := wire.ReadVector(s, readInventoryItem)
	if err != nil {
		return Inventory{}, err
	}
	if dup := firstDuplicateHash(items); dup {
		return Inventory{}, ErrDuplicateItem
	}
	return Inventory{Items: items}, nil
}

func firstDuplicateHash(items []InventoryItem) bool {
	seen := make(map[[32]byte]struct{}, len(items))
	for _, it := range items {
		if _, ok := seen[it.Hash]; ok {
			return true
		}
		seen[it.Hash] = struct{}{}
	}
	return false
}

func DecodeInv(payload []byte) (Inventory, error)      { return decodeInventory(payload) }
func DecodeGetData(payload []byte) (Inventory, error)   { return decodeInventory(payload) }
func DecodeNotFound(payload []byte) (Inventory, error)  { return decodeInventory(payload) }

// GetHeaders requests block headers the sender does not yet have, starting
// from one of the supplied locator hashes (in descending order of recency)
// down to hashStop, or to the peer's tip if hashStop is all zero.
type GetHeaders struct {
	ProtocolVersion uint32
	Locator         [][32]byte
	HashStop        [32]byte
}

func (g GetHeaders) Encode() ([]byte, error) {
	s := bytestream.New()
	if err := wire.WriteUint32(s, g.ProtocolVersion); err != nil {
		return nil, err
	}
	writer := func(s *bytestream.Stream, h [32]byte) error { return wire.WriteFixedBytes(s, h[:]) }
	if err := wire.WriteVector(s, g.Locator, writer); err != nil {
		return nil, err
	}
	if err := wire.WriteFixedBytes(s, g.HashStop[:]); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func DecodeGetHeaders(payload []byte) (GetHeaders, error) {
	s := bytestream.FromBytes(payload)
	var g GetHeaders
	var err error
	if g.ProtocolVersion, err = wire.ReadUint32(s); err != nil {
		return g, err
	}
	reader := func(s *bytestream.Stream) ([32]byte, error) {
		var h [32]byte
		b, err := wire.ReadFixedBytes(s, 32)
		if err != nil {
			return h, err
		}
		copy(h[:], b)
		return h, nil
	}
	if g.Locator, err = wire.ReadVector(s, reader); err != nil {
		return g, err
	}
	stop, err := wire.ReadFixedBytes(s, 32)
	if err != nil {
		return g, err
	}
	copy(g.HashStop[:], stop)
	return g, nil
}

// BlockHeader is an 80-byte block header plus the trailing transaction
// count, which headers messages carry as 0 for every entry.
type BlockHeader struct {
	Raw [80]byte
}

// Headers answers a getheaders request with up to 2000 headers.
type Headers struct {
	Items []BlockHeader
}

func (h Headers) Encode() ([]byte, error) {
	s := bytestream.New()
	writer := func(s *bytestream.Stream, bh BlockHeader) error {
		if err := wire.WriteFixedBytes(s, bh.Raw[:]); err != nil {
			return err
		}
		return wire.WriteCompact(s, 0)
	}
	if err := wire.WriteVector(s, h.Items, writer); err != nil {
		return nil, err
	}
	return s.Bytes(), nil
}

func DecodeHeaders(payload []byte) (Headers, error) {
	s := bytestream.FromBytes(payload)
	reader := func(s *bytestream.Stream) (BlockHeader, error) {
		var bh BlockHeader
		raw, err := wire.ReadFixedBytes(s, 80)
		if err != nil {
			return bh, err
		}
		copy(bh.Raw[:], raw)
		if _, err := wire.ReadCompact(s); err != nil {
			return bh, err
		}
		return bh, nil
	}
	items, err := wire.ReadVector(s, reader)
	if err != nil {
		return Headers{}, err
	}
	return Headers{Items: items}, nil
}

// RejectCode enumerates the reasons a peer may cite for rejecting a
// previously-received message.
type RejectCode uint8

const (
	RejectMalformed       RejectCode = 0x01
	RejectInvalid         RejectCode = 0x10
	RejectObsolete        RejectCode = 0x11
	RejectDuplicate       RejectCode = 0x12
	RejectNonStandard     RejectCode = 0x40
	RejectDust            RejectCode = 0x41
	RejectInsufficientFee RejectCode = 0x42
	RejectCheckpoint      RejectCode = 0x43
)

// Reject reports why a previously-sent message was refused. Data is a
// 32-byte hash and only present for certain (message, code) combinations;
// callers decide whether to expect it rather than the framing layer.
type Reject struct {
	Message string
	Code    RejectCode
	Reason  string
	Data    []byte
}

func (r Reject) Encode() ([]byte, error) {
	s := bytestream.New()
	if err := wire.WriteBoundedString(s, r.Message, 12); err != nil {
		return nil, err
	}
	if err := wire.WriteUint8(s, uint8(r.Code)); err != nil {
		return nil, err
	}
	if err := wire.WriteBoundedString(s, r.Reason, wire.MaxStringLength); err != nil {
		return nil, err
	}
	if len(r.Data) > 0 {
		if err := wire.WriteFixedBytes(s, r.Data); err != nil {
			return nil, err
		}
	}
	return s.Bytes(), nil
}

func DecodeReject(payload []byte) (Reject, error) {
	s := bytestream.FromBytes(payload)
	var r Reject
	var err error
	if r.Message, err = wire.ReadBoundedString(s, 12); err != nil {
		return r, err
	}
	code, err := wire.ReadUint8(s)
	if err != nil {
		return r, err
	}
	r.Code = RejectCode(code)
	if r.Reason, err = wire.ReadBoundedString(s, wire.MaxStringLength); err != nil {
		return r, err
	}
	// The trailing hash is present for some (message, code) combinations
	// and absent for others; accept whatever remains rather than
	// enforcing an exact count, matching the permissive handling chosen
	// for this field.
	r.Data = wire.ReadTrailingBytes(s)
	return r, nil
}
