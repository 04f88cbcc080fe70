package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderTables(t *testing.T) {
	p, err := NewBuilder().
		Entry("Main", 2).
		Emit(OpPopVariable, NameOperand("b")).
		Emit(OpPopVariable, NameOperand("a")).
		Label("loop").
		Emit(OpJump, LabelOperand("loop")).
		Function("Helper", 1).
		Emit(OpReturn).
		Build()
	require.NoError(t, err)

	assert.Equal(t, 4, p.Len())

	// Entry lookup is case-insensitive.
	e, ok := p.Entry("MAIN")
	require.True(t, ok)
	assert.Equal(t, "Main", e.Name)
	assert.Equal(t, 2, e.ParameterCount)
	assert.Equal(t, 0, e.Index)

	f, ok := p.Function("helper")
	require.True(t, ok)
	assert.Equal(t, 3, f.Index)

	// Label lookup is case-sensitive.
	idx, ok := p.ResolveLabel("loop")
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	_, ok = p.ResolveLabel("LOOP")
	assert.False(t, ok)

	// Entries bind their conventional labels.
	idx, ok = p.ResolveLabel("entry_main")
	require.True(t, ok)
	assert.Equal(t, 0, idx)
	_, ok = p.ResolveLabel("function_helper")
	assert.True(t, ok)

	assert.Equal(t, []string{"Main"}, p.EntryNames())
	assert.Equal(t, []string{"Helper"}, p.FunctionNames())
}

func TestProgramAtOutOfRange(t *testing.T) {
	p := NewBuilder().Emit(OpNoop).MustBuild()
	assert.NotNil(t, p.At(0))
	assert.Nil(t, p.At(1))
	assert.Nil(t, p.At(-1))
}

func TestBuilderRejectsUnresolvedLabel(t *testing.T) {
	_, err := NewBuilder().
		Emit(OpJump, LabelOperand("nowhere")).
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nowhere")
}

func TestBuilderRejectsBadOperands(t *testing.T) {
	_, err := NewBuilder().
		Emit(OpPush, NameOperand("x")). // PUSH needs a literal
		Build()
	assert.Error(t, err)

	_, err = NewBuilder().
		Emit(OpJumpBranch, LabelOperand("a")). // needs two labels
		Build()
	assert.Error(t, err)

	_, err = NewBuilder().
		Emit(OpNoop, IntegerOperand(1)). // NOOP takes nothing
		Build()
	assert.Error(t, err)

	// CALL_HOST's namespace is optional.
	_, err = NewBuilder().
		Emit(OpCallHost, NameOperand("print")).
		Emit(OpReturn).
		Build()
	assert.NoError(t, err)
}

func TestBuilderRejectsDuplicates(t *testing.T) {
	_, err := NewBuilder().Label("x").Label("x").Build()
	assert.Error(t, err)

	_, err = NewBuilder().Entry("m", 0).Entry("M", 0).Build()
	assert.Error(t, err, "entry names collide case-insensitively")
}

func TestInstructionString(t *testing.T) {
	in := Instruction{Op: OpSet, Operand1: NameOperand("x"), Operand2: StringOperand("a\"b")}
	assert.Equal(t, `SET x "a\"b"`, in.String())

	in = Instruction{Op: OpReturn}
	assert.Equal(t, "RETURN", in.String())
}

func TestOpcodeNames(t *testing.T) {
	for op := Opcode(0); op < opcodeCount; op++ {
		name := op.String()
		require.NotEqual(t, "UNKNOWN", name, "opcode %d has no name", op)
		back, ok := OpcodeByName(name)
		require.True(t, ok, name)
		assert.Equal(t, op, back)
	}
	assert.Equal(t, "UNKNOWN", Opcode(200).String())
}
