package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProgram(t *testing.T) *Program {
	t.Helper()
	p, err := AssembleString(`
.entry main 1
    POP_VARIABLE x
    PUSH "héllo"
    PUSH 2.5
    PUSH -1
    PUSH true
    PUSH null
top:
    CALL_HOST print io
    JUMP_COALESCE top
    RETURN
.function aux 2
    RETURN
`)
	require.NoError(t, err)
	return p
}

func TestEncodeDecode(t *testing.T) {
	p := testProgram(t)

	var buf bytes.Buffer
	require.NoError(t, Encode(p, &buf))
	assert.Equal(t, []byte("RSCP"), buf.Bytes()[:4])

	back, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)

	require.Equal(t, p.Len(), back.Len())
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, *p.At(i), *back.At(i), "instruction %d", i)
	}

	e, ok := back.Entry("MAIN")
	require.True(t, ok)
	assert.Equal(t, Entry{Name: "main", ParameterCount: 1, Index: 0}, e)
	f, ok := back.Function("aux")
	require.True(t, ok)
	assert.Equal(t, 2, f.ParameterCount)

	idx, ok := back.ResolveLabel("top")
	require.True(t, ok)
	assert.Equal(t, 6, idx)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("not a program")))
	assert.ErrorIs(t, err, ErrBadFormat)

	_, err = Decode(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrBadFormat)

	// Right magic, wrong version.
	_, err = Decode(bytes.NewReader([]byte{'R', 'S', 'C', 'P', 0xFF, 0xFF}))
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestDecodeRejectsTruncation(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(testProgram(t), &buf))
	data := buf.Bytes()
	for _, cut := range []int{5, 8, 12, len(data) / 2, len(data) - 1} {
		_, err := Decode(bytes.NewReader(data[:cut]))
		assert.ErrorIs(t, err, ErrBadFormat, "cut at %d", cut)
	}
}

func TestDecodeRejectsDanglingLabelReference(t *testing.T) {
	p := NewBuilder().
		Label("x").
		Emit(OpJump, LabelOperand("x")).
		MustBuild()
	var buf bytes.Buffer
	require.NoError(t, Encode(p, &buf))

	// Corrupt the jump operand's label name (the first length-prefixed "x"
	// in the stream) so the target no longer resolves.
	data := bytes.Replace(buf.Bytes(), []byte{0, 0, 0, 1, 'x'}, []byte{0, 0, 0, 1, 'y'}, 1)
	_, err := Decode(bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrBadFormat)
}
