package protocol

import "errors"

// recoverable marks an error as meaning "not enough bytes yet, try again
// once more data arrives" rather than "this connection is no longer
// trustworthy". Session-layer code uses IsRecoverable to decide whether to
// keep reading or tear the connection down.
type recoverable struct{ error }

func (recoverable) Recoverable() bool { return true }

func wrapRecoverable(err error) error { return recoverable{err} }

// IsRecoverable reports whether err (or any error it wraps) only indicates
// that the framing layer needs more bytes.
func IsRecoverable(err error) bool {
	var r interface{ Recoverable() bool }
	return errors.As(err, &r) && r.Recoverable()
}

var (
	// ErrHeaderIncomplete means fewer than HeaderSize bytes are buffered.
	ErrHeaderIncomplete = wrapRecoverable(errors.New("protocol: header incomplete"))
	// ErrBodyIncomplete means the header parsed but the full payload has
	// not yet arrived.
	ErrBodyIncomplete = wrapRecoverable(errors.New("protocol: body incomplete"))

	// ErrInvalidMagic means the header's magic value does not match the
	// network this session is configured for.
	ErrInvalidMagic = errors.New("protocol: invalid magic value")
	// ErrInvalidCommand means the command field is not valid ASCII padded
	// with trailing NUL bytes.
	ErrInvalidCommand = errors.New("protocol: malformed command field")
	// ErrUnknownCommand means the command is not in the message registry.
	ErrUnknownCommand = errors.New("protocol: unknown command")
	// ErrChecksumMismatch means the header's checksum does not match the
	// payload's double-SHA256 prefix.
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	// ErrPayloadTooShort means the payload is smaller than the registry's
	// minimum for this command.
	ErrPayloadTooShort = errors.New("protocol: payload shorter than minimum")
	// ErrPayloadTooLarge means the payload exceeds the registry's maximum
	// for this command, or the global maximum message size.
	ErrPayloadTooLarge = errors.New("protocol: payload exceeds maximum size")
	// ErrEmptyVector means a vectorized payload's leading compact-size
	// element count is zero.
	ErrEmptyVector = errors.New("protocol: vector has zero elements")
	// ErrTooManyItems means a vectorized payload's element count exceeds
	// the registry's max-items bound.
	ErrTooManyItems = errors.New("protocol: vector exceeds maximum item count")
	// ErrLengthMismatchesVectorSize means the payload bytes remaining
	// after the element count do not equal count (plus any trailing
	// fixed field) times the registry's per-item size.
	ErrLengthMismatchesVectorSize = errors.New("protocol: payload length does not match declared vector size")
	// ErrDuplicateItem means a vectorized payload repeats an element the
	// registry requires to be unique.
	ErrDuplicateItem = errors.New("protocol: duplicate item in vector")
	// ErrProtocolVersionTooOld means the session's protocol version is
	// outside the registry's [MinProtocolVersion, MaxProtocolVersion] range
	// for the command, below the minimum or above the maximum.
	ErrProtocolVersionTooOld = errors.New("protocol: command unsupported at this protocol version")
	// ErrTooManyMessages means more than the per-read message flood guard
	// arrived in a single I/O batch.
	ErrTooManyMessages = errors.New("protocol: too many messages in one read")
)
