package bytecode

import (
	"fmt"
	"sort"
	"strings"
)

// Entry is one named entry point: an invocable script procedure with a
// fixed parameter count and a start index.
type Entry struct {
	Name           string
	ParameterCount int
	Index          int
}

// Program is the immutable compiled artifact: an instruction sequence, a
// case-sensitive label table, and case-insensitive script-entry and
// local-function tables. Programs carry no mutable state and may be shared
// by any number of instances.
//
// By compiler convention, generated labels are prefixed "entry_" and
// "function_"; the core treats all labels uniformly.
type Program struct {
	instructions []Instruction
	labels       map[string]int
	entries      map[string]Entry // keyed by folded name
	functions    map[string]Entry
}

// Len returns the instruction count.
func (p *Program) Len() int { return len(p.instructions) }

// At returns the instruction at index i, or nil when i is out of range.
// The VM treats a nil fetch as the end of the program.
func (p *Program) At(i int) *Instruction {
	if i < 0 || i >= len(p.instructions) {
		return nil
	}
	return &p.instructions[i]
}

// ResolveLabel maps a label name to its instruction index. Label names are
// case-sensitive.
func (p *Program) ResolveLabel(name string) (int, bool) {
	i, ok := p.labels[name]
	return i, ok
}

// Entry looks up a script entry point by name, case-insensitively.
func (p *Program) Entry(name string) (Entry, bool) {
	e, ok := p.entries[strings.ToLower(name)]
	return e, ok
}

// Function looks up a local function by name, case-insensitively.
func (p *Program) Function(name string) (Entry, bool) {
	e, ok := p.functions[strings.ToLower(name)]
	return e, ok
}

// EntryNames returns all entry-point names, sorted.
func (p *Program) EntryNames() []string {
	names := make([]string, 0, len(p.entries))
	for _, e := range p.entries {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// FunctionNames returns all local-function names, sorted.
func (p *Program) FunctionNames() []string {
	names := make([]string, 0, len(p.functions))
	for _, e := range p.functions {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// LabelsAt returns the labels bound to instruction index i, sorted. Used by
// the disassembler.
func (p *Program) LabelsAt(i int) []string {
	var names []string
	for name, idx := range p.labels {
		if idx == i {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Builder assembles a Program. It is append-only: instructions are emitted
// in order, and labels, entries, and functions bind to the next emitted
// instruction's index.
//
//	p := bytecode.NewBuilder().
//		Entry("main", 0).
//		Emit(bytecode.OpPush, bytecode.StringOperand("hi")).
//		Emit(bytecode.OpCallHost, bytecode.NameOperand("print")).
//		Emit(bytecode.OpPop).
//		Emit(bytecode.OpReturn).
//		MustBuild()
type Builder struct {
	instructions []Instruction
	labels       map[string]int
	entries      map[string]Entry
	functions    map[string]Entry
	err          error
}

// NewBuilder creates an empty program builder.
func NewBuilder() *Builder {
	return &Builder{
		labels:    make(map[string]int),
		entries:   make(map[string]Entry),
		functions: make(map[string]Entry),
	}
}

func (b *Builder) fail(format string, args ...any) *Builder {
	if b.err == nil {
		b.err = fmt.Errorf(format, args...)
	}
	return b
}

// Label binds a label to the next instruction index.
func (b *Builder) Label(name string) *Builder {
	if name == "" {
		return b.fail("empty label name")
	}
	if _, dup := b.labels[name]; dup {
		return b.fail("duplicate label %q", name)
	}
	b.labels[name] = len(b.instructions)
	return b
}

// Entry declares a script entry point starting at the next instruction
// index, and binds the conventional "entry_" label alongside it.
func (b *Builder) Entry(name string, parameterCount int) *Builder {
	fold := strings.ToLower(name)
	if name == "" {
		return b.fail("empty entry name")
	}
	if _, dup := b.entries[fold]; dup {
		return b.fail("duplicate entry %q", name)
	}
	b.entries[fold] = Entry{Name: name, ParameterCount: parameterCount, Index: len(b.instructions)}
	return b.Label("entry_" + fold)
}

// Function declares a local function starting at the next instruction
// index, and binds the conventional "function_" label alongside it.
func (b *Builder) Function(name string, parameterCount int) *Builder {
	fold := strings.ToLower(name)
	if name == "" {
		return b.fail("empty function name")
	}
	if _, dup := b.functions[fold]; dup {
		return b.fail("duplicate function %q", name)
	}
	b.functions[fold] = Entry{Name: name, ParameterCount: parameterCount, Index: len(b.instructions)}
	return b.Label("function_" + fold)
}

// Emit appends an instruction. Up to two operands are accepted; their
// shapes are checked against the opcode's schema.
func (b *Builder) Emit(op Opcode, operands ...Operand) *Builder {
	if len(operands) > 2 {
		return b.fail("%s: too many operands", op)
	}
	var in Instruction
	in.Op = op
	if len(operands) > 0 {
		in.Operand1 = operands[0]
	}
	if len(operands) > 1 {
		in.Operand2 = operands[1]
	}
	schema := Schema(op)
	if !operandFits(schema.Operand1, false, &in.Operand1) {
		return b.fail("%s: bad operand 1 %q", op, in.Operand1.String())
	}
	if !operandFits(schema.Operand2, schema.Operand2Optional, &in.Operand2) {
		return b.fail("%s: bad operand 2 %q", op, in.Operand2.String())
	}
	b.instructions = append(b.instructions, in)
	return b
}

func operandFits(class OperandClass, optional bool, o *Operand) bool {
	if o.Kind == OperandNone {
		return class == ClassNone || optional
	}
	switch class {
	case ClassNone:
		return false
	case ClassLabel:
		return o.Kind == OperandLabel
	case ClassName:
		return o.Kind == OperandName
	case ClassLiteral:
		return o.IsLiteral()
	default:
		return false
	}
}

// Build finalizes the program. Label references are checked so that a
// malformed program fails at build time rather than mid-execution.
func (b *Builder) Build() (*Program, error) {
	if b.err != nil {
		return nil, b.err
	}
	for i := range b.instructions {
		in := &b.instructions[i]
		for _, o := range []*Operand{&in.Operand1, &in.Operand2} {
			if o.Kind != OperandLabel {
				continue
			}
			if _, ok := b.labels[o.Text]; !ok {
				return nil, fmt.Errorf("instruction %d (%s): unresolved label %q", i, in.Op, o.Text)
			}
		}
	}
	return &Program{
		instructions: b.instructions,
		labels:       b.labels,
		entries:      b.entries,
		functions:    b.functions,
	}, nil
}

// MustBuild is Build for programs known to be well-formed; it panics on
// builder errors. Intended for tests and generated code.
func (b *Builder) MustBuild() *Program {
	p, err := b.Build()
	if err != nil {
		panic(err)
	}
	return p
}
