package wire

import "github.com/ironpeer/p2pcore/internal/bytestream"

// WriteVector encodes a compact-size count followed by n encodings of T
// using the supplied per-element writer.
func WriteVector[T any](s *bytestream.Stream, items []T, writeItem func(*bytestream.Stream, T) error) error {
	if err := WriteCompact(s, uint64(len(items))); err != nil {
		return err
	}
	for _, item := range items {
		if err := writeItem(s, item); err != nil {
			return err
		}
	}
	return nil
}

// ReadVector decodes a compact-size count followed by that many encodings
// of T using the supplied per-element reader. The count is not bounds
// checked here; callers that need a max-items guard (inv, addr, headers,
// getheaders locators) apply it via protocol.Definition's MaxItems (checked
// in protocol.Message.Validate) before calling ReadVector, or check
// len(result) afterwards.
func ReadVector[T any](s *bytestream.Stream, readItem func(*bytestream.Stream) (T, error)) ([]T, error) {
	n, err := ReadCompact(s)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := readItem(s)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}
