package value

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferAbsoluteAccess(t *testing.T) {
	b := NewBuffer(8)
	require.True(t, b.PutInt32(0, 0x01020304))

	v, ok := b.GetInt32(0)
	require.True(t, ok)
	assert.Equal(t, int64(0x01020304), v)
	assert.Equal(t, 0, b.Position(), "absolute access leaves the cursor alone")

	byteAt, ok := b.GetByte(0)
	require.True(t, ok)
	assert.Equal(t, byte(0x01), byteAt, "default order is big-endian")

	b.SetOrder(binary.LittleEndian)
	byteV, _ := b.GetByte(3)
	assert.Equal(t, byte(0x04), byteV)
	v, _ = b.GetInt32(0)
	assert.Equal(t, int64(0x04030201), v, "order flag applies to multi-byte reads")
}

func TestBufferCursorAccess(t *testing.T) {
	b := NewBuffer(12)
	require.True(t, b.PutInt16(Cursor, 0x1234))
	require.True(t, b.PutInt16(Cursor, 0x5678))
	assert.Equal(t, 4, b.Position(), "cursor writes advance the cursor")

	b.SetPosition(0)
	v, ok := b.GetInt16(Cursor)
	require.True(t, ok)
	assert.Equal(t, int64(0x1234), v)
	v, _ = b.GetInt16(Cursor)
	assert.Equal(t, int64(0x5678), v)
	assert.Equal(t, 4, b.Position())
}

func TestBufferBounds(t *testing.T) {
	b := NewBuffer(4)
	assert.False(t, b.PutInt64(0, 1), "an eight-byte write cannot fit")
	assert.False(t, b.PutByte(4, 1))
	assert.False(t, b.PutByte(-2, 1))

	_, ok := b.GetInt32(1)
	assert.False(t, ok)

	b.SetPosition(3)
	_, ok = b.GetInt16(Cursor)
	assert.False(t, ok)
	assert.Equal(t, 3, b.Position(), "a failed cursor read does not advance")
}

func TestBufferSignedUnsigned(t *testing.T) {
	b := NewBuffer(8)
	b.PutByte(0, 0xFF)
	signed, _ := b.GetInt8(0)
	assert.Equal(t, int64(-1), signed)
	unsigned, _ := b.GetByte(0)
	assert.Equal(t, byte(255), unsigned)

	b.PutInt16(0, -1)
	s16, _ := b.GetInt16(0)
	assert.Equal(t, int64(-1), s16)
	u16, _ := b.GetUInt16(0)
	assert.Equal(t, int64(0xFFFF), u16)

	b.PutInt32(0, -1)
	u32, _ := b.GetUInt32(0)
	assert.Equal(t, int64(0xFFFFFFFF), u32)

	// The unsigned setters mirror the unsigned getters.
	b.PutInt8(0, -2)
	s8, _ := b.GetInt8(0)
	assert.Equal(t, int64(-2), s8)

	b.PutUInt16(0, 0xFFFE)
	u16, _ = b.GetUInt16(0)
	assert.Equal(t, int64(0xFFFE), u16)
	s16, _ = b.GetInt16(0)
	assert.Equal(t, int64(-2), s16)

	b.PutUInt32(0, 0xFFFFFFFE)
	u32, _ = b.GetUInt32(0)
	assert.Equal(t, int64(0xFFFFFFFE), u32)

	b.PutUInt64(0, 0xFFFFFFFFFFFFFFFE)
	s64, _ := b.GetInt64(0)
	assert.Equal(t, int64(-2), s64, "a value above the signed range wraps on read")
}

func TestBufferFloats(t *testing.T) {
	b := NewBuffer(16)
	require.True(t, b.PutFloat32(0, 1.5))
	f, ok := b.GetFloat32(0)
	require.True(t, ok)
	assert.Equal(t, 1.5, f)

	require.True(t, b.PutFloat64(8, -2.25))
	d, ok := b.GetFloat64(8)
	require.True(t, ok)
	assert.Equal(t, -2.25, d)
}

func TestBufferByteRuns(t *testing.T) {
	b := NewBuffer(6)
	require.True(t, b.PutBytes(1, []byte{0xAA, 0xBB, 0xCC}))
	run, ok := b.GetBytes(1, 3)
	require.True(t, ok)
	assert.Equal(t, []byte{0xAA, 0xBB, 0xCC}, run)

	_, ok = b.GetBytes(4, 3)
	assert.False(t, ok)
}

func TestBufferResize(t *testing.T) {
	b := NewBuffer(4)
	b.PutBytes(0, []byte{1, 2, 3, 4})
	b.SetPosition(4)

	b.Resize(8)
	assert.Equal(t, 8, b.Len())
	run, _ := b.GetBytes(0, 4)
	assert.Equal(t, []byte{1, 2, 3, 4}, run, "content survives growth")

	b.Resize(2)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, 2, b.Position(), "the cursor clamps to the new size")
}

func TestBufferReadFrom(t *testing.T) {
	b := NewBuffer(8)
	n, err := b.ReadFrom(2, strings.NewReader("abcd"), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	run, _ := b.GetBytes(2, 4)
	assert.Equal(t, []byte("abcd"), run)

	// A short stream reports the actual count.
	n, err = b.ReadFrom(0, strings.NewReader("xy"), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// An exhausted stream reports end-of-stream as -1.
	n, err = b.ReadFrom(0, bytes.NewReader(nil), 4)
	require.NoError(t, err)
	assert.Equal(t, -1, n)

	// A cursor-relative read advances the cursor by the actual count.
	b.SetPosition(0)
	n, err = b.ReadFrom(Cursor, strings.NewReader("zz"), 4)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, b.Position())

	// Lengths overrunning the buffer truncate to fit.
	n, err = b.ReadFrom(6, strings.NewReader("abcdef"), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
