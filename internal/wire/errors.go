package wire

import "errors"

// Error sentinels for the wire codec (component C2). ReadBeyondData and
// Overflow share their names with bytestream's errors but are distinct
// values; the rest are specific to the typed (de)serialization layer.
var (
	ErrReadBeyondData       = errors.New("wire: read beyond available data")
	ErrOverflow             = errors.New("wire: write exceeds maximum size")
	ErrNonCanonicalCompact  = errors.New("wire: non-canonical compact size encoding")
	ErrCompactSizeTooBig    = errors.New("wire: compact size exceeds configured maximum")
	ErrStringTooBig         = errors.New("wire: string exceeds maximum length")
	ErrInvalidEnumValue     = errors.New("wire: invalid enum value")
	ErrInvalidRejectionCode = errors.New("wire: invalid rejection code")
)

// MaxSerializedCompactSize bounds the largest value ReadCompact will
// accept, matching the protocol-level cap referenced in spec.md §4.2.
const MaxSerializedCompactSize = 0x02000000
