package value

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Buffer is the shared, mutable byte sequence behind a BUFFER value. It
// carries a cursor for relative I/O and a byte-order flag consulted by the
// multi-byte accessors.
//
// Every positional accessor takes a pos argument; passing Cursor (-1) reads
// or writes at the cursor and advances it by the access width. Absolute
// positions leave the cursor alone. Out-of-range accesses report false and
// write nothing.
type Buffer struct {
	data  []byte
	pos   int
	order binary.ByteOrder
}

// Cursor is the position argument that selects cursor-relative access.
const Cursor = -1

// NewBuffer creates a zero-filled buffer of n bytes in big-endian order
// with the cursor at zero.
func NewBuffer(n int) *Buffer {
	return &Buffer{data: make([]byte, n), order: binary.BigEndian}
}

// NewBufferFrom wraps an existing byte slice. The buffer shares the slice.
func NewBufferFrom(data []byte) *Buffer {
	return &Buffer{data: data, order: binary.BigEndian}
}

// Len returns the buffer size in bytes.
func (b *Buffer) Len() int { return len(b.data) }

// Bytes returns the backing slice. Mutations are visible to all holders.
func (b *Buffer) Bytes() []byte { return b.data }

// Position returns the cursor.
func (b *Buffer) Position() int { return b.pos }

// SetPosition moves the cursor. Positions are clamped to [0, Len].
func (b *Buffer) SetPosition(pos int) {
	if pos < 0 {
		pos = 0
	}
	if pos > len(b.data) {
		pos = len(b.data)
	}
	b.pos = pos
}

// Order returns the byte order used by multi-byte accessors.
func (b *Buffer) Order() binary.ByteOrder { return b.order }

// SetOrder changes the byte order used by multi-byte accessors.
func (b *Buffer) SetOrder(order binary.ByteOrder) { b.order = order }

// Resize grows or shrinks the buffer to n bytes, preserving a prefix of the
// existing content. The cursor is clamped to the new size.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	next := make([]byte, n)
	copy(next, b.data)
	b.data = next
	if b.pos > n {
		b.pos = n
	}
}

// span resolves a positional access of width bytes, advancing the cursor
// for cursor-relative access. Reports false when the span does not fit.
func (b *Buffer) span(pos, width int) (int, bool) {
	if pos == Cursor {
		pos = b.pos
		if pos+width > len(b.data) {
			return 0, false
		}
		b.pos = pos + width
		return pos, true
	}
	if pos < 0 || pos+width > len(b.data) {
		return 0, false
	}
	return pos, true
}

// PutByte writes one byte.
func (b *Buffer) PutByte(pos int, v byte) bool {
	at, ok := b.span(pos, 1)
	if !ok {
		return false
	}
	b.data[at] = v
	return true
}

// GetByte reads one unsigned byte.
func (b *Buffer) GetByte(pos int) (byte, bool) {
	at, ok := b.span(pos, 1)
	if !ok {
		return 0, false
	}
	return b.data[at], true
}

// PutInt8 writes a signed byte.
func (b *Buffer) PutInt8(pos int, v int8) bool {
	return b.PutByte(pos, byte(v))
}

// GetInt8 reads a signed byte.
func (b *Buffer) GetInt8(pos int) (int64, bool) {
	v, ok := b.GetByte(pos)
	return int64(int8(v)), ok
}

// PutInt16 writes a 16-bit integer in the buffer's byte order.
func (b *Buffer) PutInt16(pos int, v int16) bool {
	at, ok := b.span(pos, 2)
	if !ok {
		return false
	}
	b.order.PutUint16(b.data[at:], uint16(v))
	return true
}

// GetInt16 reads a signed 16-bit integer.
func (b *Buffer) GetInt16(pos int) (int64, bool) {
	at, ok := b.span(pos, 2)
	if !ok {
		return 0, false
	}
	return int64(int16(b.order.Uint16(b.data[at:]))), true
}

// PutUInt16 writes an unsigned 16-bit integer in the buffer's byte order.
func (b *Buffer) PutUInt16(pos int, v uint16) bool {
	at, ok := b.span(pos, 2)
	if !ok {
		return false
	}
	b.order.PutUint16(b.data[at:], v)
	return true
}

// GetUInt16 reads an unsigned 16-bit integer.
func (b *Buffer) GetUInt16(pos int) (int64, bool) {
	at, ok := b.span(pos, 2)
	if !ok {
		return 0, false
	}
	return int64(b.order.Uint16(b.data[at:])), true
}

// PutInt32 writes a 32-bit integer in the buffer's byte order.
func (b *Buffer) PutInt32(pos int, v int32) bool {
	at, ok := b.span(pos, 4)
	if !ok {
		return false
	}
	b.order.PutUint32(b.data[at:], uint32(v))
	return true
}

// GetInt32 reads a signed 32-bit integer.
func (b *Buffer) GetInt32(pos int) (int64, bool) {
	at, ok := b.span(pos, 4)
	if !ok {
		return 0, false
	}
	return int64(int32(b.order.Uint32(b.data[at:]))), true
}

// PutUInt32 writes an unsigned 32-bit integer in the buffer's byte order.
func (b *Buffer) PutUInt32(pos int, v uint32) bool {
	at, ok := b.span(pos, 4)
	if !ok {
		return false
	}
	b.order.PutUint32(b.data[at:], v)
	return true
}

// GetUInt32 reads an unsigned 32-bit integer.
func (b *Buffer) GetUInt32(pos int) (int64, bool) {
	at, ok := b.span(pos, 4)
	if !ok {
		return 0, false
	}
	return int64(b.order.Uint32(b.data[at:])), true
}

// PutInt64 writes a 64-bit integer in the buffer's byte order.
func (b *Buffer) PutInt64(pos int, v int64) bool {
	at, ok := b.span(pos, 8)
	if !ok {
		return false
	}
	b.order.PutUint64(b.data[at:], uint64(v))
	return true
}

// GetInt64 reads a signed 64-bit integer.
func (b *Buffer) GetInt64(pos int) (int64, bool) {
	at, ok := b.span(pos, 8)
	if !ok {
		return 0, false
	}
	return int64(b.order.Uint64(b.data[at:])), true
}

// PutUInt64 writes an unsigned 64-bit integer in the buffer's byte order.
func (b *Buffer) PutUInt64(pos int, v uint64) bool {
	at, ok := b.span(pos, 8)
	if !ok {
		return false
	}
	b.order.PutUint64(b.data[at:], v)
	return true
}

// GetUInt64 reads an unsigned 64-bit integer. Values above the signed range
// wrap, as scripts only hold signed 64-bit integers.
func (b *Buffer) GetUInt64(pos int) (int64, bool) {
	return b.GetInt64(pos)
}

// PutFloat32 writes a 32-bit float in the buffer's byte order.
func (b *Buffer) PutFloat32(pos int, v float32) bool {
	at, ok := b.span(pos, 4)
	if !ok {
		return false
	}
	b.order.PutUint32(b.data[at:], math.Float32bits(v))
	return true
}

// GetFloat32 reads a 32-bit float.
func (b *Buffer) GetFloat32(pos int) (float64, bool) {
	at, ok := b.span(pos, 4)
	if !ok {
		return 0, false
	}
	return float64(math.Float32frombits(b.order.Uint32(b.data[at:]))), true
}

// PutFloat64 writes a 64-bit float in the buffer's byte order.
func (b *Buffer) PutFloat64(pos int, v float64) bool {
	at, ok := b.span(pos, 8)
	if !ok {
		return false
	}
	b.order.PutUint64(b.data[at:], math.Float64bits(v))
	return true
}

// GetFloat64 reads a 64-bit float.
func (b *Buffer) GetFloat64(pos int) (float64, bool) {
	at, ok := b.span(pos, 8)
	if !ok {
		return 0, false
	}
	return math.Float64frombits(b.order.Uint64(b.data[at:])), true
}

// PutBytes copies src into the buffer, reporting whether the whole run fit.
func (b *Buffer) PutBytes(pos int, src []byte) bool {
	at, ok := b.span(pos, len(src))
	if !ok {
		return false
	}
	copy(b.data[at:], src)
	return true
}

// GetBytes copies n bytes out of the buffer.
func (b *Buffer) GetBytes(pos, n int) ([]byte, bool) {
	if n < 0 {
		return nil, false
	}
	at, ok := b.span(pos, n)
	if !ok {
		return nil, false
	}
	out := make([]byte, n)
	copy(out, b.data[at:])
	return out, true
}

// ReadFrom fills up to length bytes of the buffer from r, returning the
// count actually read. A length that overruns the buffer is truncated to
// fit; io.EOF with zero bytes read returns (-1, nil) so callers can signal
// end-of-stream to scripts.
func (b *Buffer) ReadFrom(pos int, r io.Reader, length int) (int, error) {
	atCursor := pos == Cursor
	if atCursor {
		pos = b.pos
	}
	if pos < 0 || pos > len(b.data) {
		return 0, fmt.Errorf("buffer offset %d out of range", pos)
	}
	if length < 0 || length > len(b.data)-pos {
		length = len(b.data) - pos
	}
	n, err := io.ReadFull(r, b.data[pos:pos+length])
	if err == io.EOF {
		return -1, nil
	}
	if err == io.ErrUnexpectedEOF {
		err = nil
	}
	if atCursor {
		b.pos = pos + n
	}
	return n, err
}

// String renders a short description for diagnostics and string coercion.
func (b *Buffer) String() string {
	return fmt.Sprintf("buffer[%d/%d]", b.pos, len(b.data))
}
