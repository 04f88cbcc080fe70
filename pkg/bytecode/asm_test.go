package bytecode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const helloSource = `
; a minimal program
.entry main 0
    PUSH "Hello, world!"   ; the ; inside a string stays: "a;b"
    CALL_HOST print
    POP
    RETURN
`

func TestAssembleHello(t *testing.T) {
	p, err := AssembleString(helloSource)
	require.NoError(t, err)
	require.Equal(t, 4, p.Len())

	e, ok := p.Entry("main")
	require.True(t, ok)
	assert.Equal(t, 0, e.Index)

	assert.Equal(t, OpPush, p.At(0).Op)
	assert.Equal(t, "Hello, world!", p.At(0).Operand1.Text)
	assert.Equal(t, OpCallHost, p.At(1).Op)
	assert.Equal(t, "print", p.At(1).Operand1.Text)
	assert.Equal(t, OperandNone, p.At(1).Operand2.Kind, "namespace is optional")
}

func TestAssembleLiterals(t *testing.T) {
	p, err := AssembleString(`
.entry main 0
    PUSH 42
    PUSH -7
    PUSH 0x1F
    PUSH 2.5
    PUSH true
    PUSH false
    PUSH null
    PUSH "tab\there\n"
    RETURN
`)
	require.NoError(t, err)

	assert.Equal(t, IntegerOperand(42), p.At(0).Operand1)
	assert.Equal(t, IntegerOperand(-7), p.At(1).Operand1)
	assert.Equal(t, IntegerOperand(0x1F), p.At(2).Operand1)
	assert.Equal(t, FloatOperand(2.5), p.At(3).Operand1)
	assert.Equal(t, BoolOperand(true), p.At(4).Operand1)
	assert.Equal(t, BoolOperand(false), p.At(5).Operand1)
	assert.Equal(t, NullOperand(), p.At(6).Operand1)
	assert.Equal(t, "tab\there\n", p.At(7).Operand1.Text)
}

func TestAssembleControlFlow(t *testing.T) {
	p, err := AssembleString(`
.entry main 0
top:
    PUSH true
    JUMP_BRANCH top, done
done:
    RETURN
.function half 1
    RETURN
`)
	require.NoError(t, err)

	branch := p.At(1)
	require.Equal(t, OpJumpBranch, branch.Op)
	assert.Equal(t, LabelOperand("top"), branch.Operand1)
	assert.Equal(t, LabelOperand("done"), branch.Operand2)

	idx, ok := p.ResolveLabel("done")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	f, ok := p.Function("half")
	require.True(t, ok)
	assert.Equal(t, 1, f.ParameterCount)
	assert.Equal(t, 3, f.Index)
}

func TestAssembleCallHostNamespace(t *testing.T) {
	p, err := AssembleString(`
.entry main 0
    CALL_HOST open io
    RETURN
`)
	require.NoError(t, err)
	in := p.At(0)
	assert.Equal(t, NameOperand("open"), in.Operand1)
	assert.Equal(t, NameOperand("io"), in.Operand2)
}

func TestAssembleCommentInString(t *testing.T) {
	p, err := AssembleString(`
.entry main 0
    PUSH "semi;colon" ; trailing comment
    RETURN
`)
	require.NoError(t, err)
	assert.Equal(t, "semi;colon", p.At(0).Operand1.Text)
}

func TestAssembleErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"unknown opcode", ".entry m 0\n FROB 1\n", "unknown opcode"},
		{"missing operand", ".entry m 0\n JUMP\n", "missing operand"},
		{"extra operand", ".entry m 0\n RETURN 5\n", "unexpected operand"},
		{"bad literal", ".entry m 0\n PUSH @x\n", "bad literal"},
		{"unterminated string", ".entry m 0\n PUSH \"oops\n", "unterminated string"},
		{"bad directive", ".import x 0\n", "unknown directive"},
		{"bad count", ".entry m x\n", "parameter count"},
		{"unresolved label", ".entry m 0\n JUMP nowhere\n", "nowhere"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AssembleString(tt.src)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestAssembleErrorCarriesLine(t *testing.T) {
	_, err := AssembleString(".entry m 0\nNOOP\nFROB\n")
	var asmErr *AsmError
	require.ErrorAs(t, err, &asmErr)
	assert.Equal(t, 3, asmErr.Line)
}

func TestDisassembleRoundTrip(t *testing.T) {
	src := `
.entry main 1
    POP_VARIABLE args
    PUSH 1
    PUSH 2
    ADD
loop:
    CALL_HOST println
    JUMP_FALSE loop
    RETURN
.function helper 0
    PUSH_NULL
    RETURN
`
	p, err := AssembleString(src)
	require.NoError(t, err)

	var listing strings.Builder
	require.NoError(t, Disassemble(&listing, p))

	back, err := AssembleString(listing.String())
	require.NoError(t, err, "listing:\n%s", listing.String())
	require.Equal(t, p.Len(), back.Len())
	for i := 0; i < p.Len(); i++ {
		assert.Equal(t, p.At(i).String(), back.At(i).String(), "instruction %d", i)
	}
	e1, _ := p.Entry("main")
	e2, ok := back.Entry("main")
	require.True(t, ok)
	assert.Equal(t, e1, e2)
	f1, _ := p.Function("helper")
	f2, ok := back.Function("helper")
	require.True(t, ok)
	assert.Equal(t, f1, f2)
	idx, ok := back.ResolveLabel("loop")
	require.True(t, ok)
	assert.Equal(t, 4, idx)
}
