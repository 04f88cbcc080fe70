package bytecode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rookscript/rookscript/pkg/value"
)

// OperandKind tags the payload held by an operand slot.
type OperandKind byte

const (
	// OperandNone marks an empty slot.
	OperandNone OperandKind = iota
	// OperandLabel holds a symbolic instruction-index name.
	OperandLabel
	// OperandName holds a variable, scope, function, or namespace name.
	OperandName
	// OperandNull holds the explicit null literal.
	OperandNull
	// OperandBool holds a boolean literal.
	OperandBool
	// OperandInteger holds a 64-bit integer literal.
	OperandInteger
	// OperandFloat holds a 64-bit float literal.
	OperandFloat
	// OperandString holds a string literal.
	OperandString
)

// Operand is one typed operand slot of an instruction. The tag selects the
// live payload, which removes the inspect-and-coerce step from decode: the
// interpreter switches on Kind and reads the matching field directly.
type Operand struct {
	Kind  OperandKind
	Text  string // label, name, or string literal
	Int   int64
	Float float64
	Bool  bool
}

// NoOperand is the empty slot.
func NoOperand() Operand { return Operand{} }

// LabelOperand builds a label-reference operand. Labels are case-sensitive.
func LabelOperand(name string) Operand {
	return Operand{Kind: OperandLabel, Text: name}
}

// NameOperand builds an identifier operand.
func NameOperand(name string) Operand {
	return Operand{Kind: OperandName, Text: name}
}

// NullOperand builds the explicit null literal.
func NullOperand() Operand { return Operand{Kind: OperandNull} }

// BoolOperand builds a boolean literal.
func BoolOperand(b bool) Operand { return Operand{Kind: OperandBool, Bool: b} }

// IntegerOperand builds an integer literal.
func IntegerOperand(i int64) Operand {
	return Operand{Kind: OperandInteger, Int: i}
}

// FloatOperand builds a float literal.
func FloatOperand(f float64) Operand {
	return Operand{Kind: OperandFloat, Float: f}
}

// StringOperand builds a string literal.
func StringOperand(s string) Operand {
	return Operand{Kind: OperandString, Text: s}
}

// IsLiteral reports whether the operand holds an embedded literal value.
func (o *Operand) IsLiteral() bool {
	switch o.Kind {
	case OperandNull, OperandBool, OperandInteger, OperandFloat, OperandString:
		return true
	default:
		return false
	}
}

// LiteralTo writes the literal payload into out. Non-literal operands
// write NULL.
func (o *Operand) LiteralTo(out *value.Value) {
	switch o.Kind {
	case OperandBool:
		out.SetBool(o.Bool)
	case OperandInteger:
		out.SetInteger(o.Int)
	case OperandFloat:
		out.SetFloat(o.Float)
	case OperandString:
		out.SetString(o.Text)
	default:
		out.SetNull()
	}
}

// String renders the operand in assembler form.
func (o *Operand) String() string {
	switch o.Kind {
	case OperandNone:
		return ""
	case OperandLabel, OperandName:
		return o.Text
	case OperandNull:
		return "null"
	case OperandBool:
		return strconv.FormatBool(o.Bool)
	case OperandInteger:
		return strconv.FormatInt(o.Int, 10)
	case OperandFloat:
		s := strconv.FormatFloat(o.Float, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eIN") {
			// Keep integral floats distinct from integer literals.
			s += ".0"
		}
		return s
	case OperandString:
		return strconv.Quote(o.Text)
	default:
		return fmt.Sprintf("?kind=%d", o.Kind)
	}
}

// Instruction is one executable triple. Instances are immutable once their
// Program is built.
type Instruction struct {
	Op       Opcode
	Operand1 Operand
	Operand2 Operand
}

// String renders the instruction in assembler form.
func (in *Instruction) String() string {
	s := in.Op.String()
	if in.Operand1.Kind != OperandNone {
		s += " " + in.Operand1.String()
	}
	if in.Operand2.Kind != OperandNone {
		s += " " + in.Operand2.String()
	}
	return s
}
