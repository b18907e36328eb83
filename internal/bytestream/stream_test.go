package bytestream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendAndRead(t *testing.T) {
	s := New()
	require.NoError(t, s.Append([]byte{1, 2, 3, 4}))
	assert.Equal(t, 4, s.Size())
	assert.Equal(t, 4, s.Avail())

	view, err := s.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, view)
	assert.Equal(t, 2, s.Avail())
}

func TestReadBeyondData(t *testing.T) {
	s := FromBytes([]byte{1, 2, 3})
	_, err := s.Read(4)
	assert.ErrorIs(t, err, ErrReadBeyondData)
}

func TestSeekClamps(t *testing.T) {
	s := FromBytes([]byte{1, 2, 3})
	assert.Equal(t, 3, s.Seek(100))
	assert.Equal(t, 0, s.Seek(-5))
}

func TestConsume(t *testing.T) {
	s := FromBytes([]byte{1, 2, 3, 4})
	_, err := s.Read(2)
	require.NoError(t, err)
	s.Consume()
	assert.Equal(t, 0, s.Tell())
	assert.Equal(t, 2, s.Size())
	view, err := s.Read(2)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 4}, view)
}

func TestClear(t *testing.T) {
	s := FromBytes([]byte{1, 2, 3})
	s.Clear()
	assert.Equal(t, 0, s.Size())
	assert.Equal(t, 0, s.Avail())
}

func TestReadAllAdvancesToTail(t *testing.T) {
	s := FromBytes([]byte{9, 8, 7})
	view := s.ReadAll()
	assert.Equal(t, []byte{9, 8, 7}, view)
	assert.Equal(t, 0, s.Avail())
}

func TestSetAtBackPatches(t *testing.T) {
	s := FromBytes([]byte{0, 0, 0})
	s.SetAt(1, 0xFF)
	assert.Equal(t, byte(0xFF), s.At(1))
}
