package protocol

// Command names, exactly as they travel NUL-padded in a message header.
const (
	CmdVersion    = "version"
	CmdVerAck     = "verack"
	CmdInv        = "inv"
	CmdAddr       = "addr"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdGetHeaders = "getheaders"
	CmdHeaders    = "headers"
	CmdGetAddr    = "getaddr"
	CmdMemPool    = "mempool"
	CmdReject     = "reject"
	CmdGetData    = "getdata"
	CmdNotFound   = "notfound"
)

// KnownVersion is the minimum protocol version supported by this
// implementation; MinProtocolVersion/MaxProtocolVersion below are expressed
// relative to the same numbering space carried in a version message.
const KnownVersion = 170100

// MinSupportedProtocolVersion and MaxSupportedProtocolVersion bound the
// protocol_version field a peer's Version payload may carry. A peer outside
// this range fails the handshake with ErrInvalidProtocolVersion rather than
// negotiating down, since this implementation cannot speak anything older
// than its own minimum nor anticipate a not-yet-released newer dialect.
const (
	MinSupportedProtocolVersion = KnownVersion
	MaxSupportedProtocolVersion = KnownVersion + 10000
)

// MaxMessagesPerRead bounds how many complete messages a single socket
// read batch may yield before the session treats the peer as flooding.
const MaxMessagesPerRead = 32

// MaxBytesPerIO bounds a single read/write syscall's buffer size.
const MaxBytesPerIO = 64 * 1024

// MaxPayloadSize is the hard ceiling on any single message's payload,
// independent of the per-command registry bound.
const MaxPayloadSize = 4 * 1024 * 1024

// Definition describes the registry bounds for one command: payload size
// range, whether the payload is a count-prefixed vector, the maximum
// number of vector items and the per-item size (when vectorized), and the
// protocol version range in which the command is legal.
type Definition struct {
	Command            string
	MinPayloadLen       int
	MaxPayloadLen       int
	Vectorized          bool
	MaxItems            int
	ItemSize            int
	MinProtocolVersion  uint32
	MaxProtocolVersion  uint32
}

// Registry is the closed mapping of command name to its wire-format
// bounds, grounded on the reference implementation's message table.
var Registry = map[string]Definition{
	CmdVersion: {
		Command: CmdVersion, MinPayloadLen: 46, MaxPayloadLen: 358,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdVerAck: {
		Command: CmdVerAck, MinPayloadLen: 0, MaxPayloadLen: 0,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdPing: {
		Command: CmdPing, MinPayloadLen: 8, MaxPayloadLen: 8,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdPong: {
		Command: CmdPong, MinPayloadLen: 8, MaxPayloadLen: 8,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdGetAddr: {
		Command: CmdGetAddr, MinPayloadLen: 0, MaxPayloadLen: 0,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdMemPool: {
		Command: CmdMemPool, MinPayloadLen: 0, MaxPayloadLen: 0,
		MinProtocolVersion: 60002, MaxProtocolVersion: ^uint32(0),
	},
	CmdAddr: {
		Command: CmdAddr, MinPayloadLen: 1, MaxPayloadLen: 1 + 1000*30,
		Vectorized: true, MaxItems: 1000, ItemSize: 30,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdInv: {
		Command: CmdInv, MinPayloadLen: 1, MaxPayloadLen: 9 + 50000*36,
		Vectorized: true, MaxItems: 50000, ItemSize: 36,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdGetData: {
		Command: CmdGetData, MinPayloadLen: 1, MaxPayloadLen: 9 + 50000*36,
		Vectorized: true, MaxItems: 50000, ItemSize: 36,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdNotFound: {
		Command: CmdNotFound, MinPayloadLen: 1, MaxPayloadLen: 9 + 50000*36,
		Vectorized: true, MaxItems: 50000, ItemSize: 36,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdGetHeaders: {
		Command: CmdGetHeaders, MinPayloadLen: 1 + 4 + 32, MaxPayloadLen: 4 + 9 + 2000*32 + 32,
		Vectorized: true, MaxItems: 2000, ItemSize: 32,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdHeaders: {
		Command: CmdHeaders, MinPayloadLen: 1, MaxPayloadLen: 9 + 2000*(81+1),
		Vectorized: true, MaxItems: 2000, ItemSize: 81,
		MinProtocolVersion: 0, MaxProtocolVersion: ^uint32(0),
	},
	CmdReject: {
		Command: CmdReject, MinPayloadLen: 3, MaxPayloadLen: 1 + 12 + 1 + 1 + 256 + 32,
		MinProtocolVersion: 70002, MaxProtocolVersion: ^uint32(0),
	},
}

// Lookup returns the registry entry for command, if known.
func Lookup(command string) (Definition, bool) {
	d, ok := Registry[command]
	return d, ok
}
