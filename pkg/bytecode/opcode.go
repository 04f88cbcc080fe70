// Package bytecode defines the compiled program representation executed by
// the RookScript virtual machine: opcodes, instructions, the immutable
// Program artifact with its label and entry tables, a binary serialization
// format, a text assembler, and a disassembler.
//
// The instruction set is a compact stack machine. Every instruction is a
// triple (opcode, operand1, operand2); which operand slots an opcode
// consumes, and how, is fixed by its schema (see Schema). Label operands
// are resolved to instruction indices at execution time; a missing label is
// a fatal execution error, never a script-visible one.
package bytecode

// Opcode identifies a virtual machine operation.
type Opcode byte

// The instruction set, grouped the way the interpreter dispatches it.
const (
	// === Control flow ===

	// OpNoop does nothing.
	OpNoop Opcode = iota

	// OpReturn pops the top activation frame. Popping the final frame
	// ends the instance.
	OpReturn

	// OpCall pushes a frame for the label in operand1 and jumps to it.
	OpCall

	// OpJump jumps to the label in operand1.
	OpJump

	// OpJumpBranch pops one value and jumps to operand1's label when its
	// boolean coercion is true, operand2's label otherwise.
	OpJumpBranch

	// OpJumpTrue pops one value and jumps when true.
	OpJumpTrue

	// OpJumpFalse pops one value and jumps when false.
	OpJumpFalse

	// OpJumpCoalesce peeks the top value: NULL is popped and execution
	// continues; anything else stays on the stack and execution jumps to
	// operand1's label. Compiled null-coalescing short-circuits use this.
	OpJumpCoalesce

	// OpCallHost resolves operand1 (function name), optionally qualified
	// by operand2 (namespace), through the host function resolver, pops
	// the function's parameters, and pushes its return value.
	OpCallHost

	// === Stack primitives ===

	// OpPush pushes the literal in operand1.
	OpPush

	// OpPushNull pushes NULL.
	OpPushNull

	// OpPushVariable pushes the local variable named by operand1, or NULL
	// if absent.
	OpPushVariable

	// OpPushScopeVariable pushes the variable named by operand2 from the
	// outer scope named by operand1, or NULL if either is absent.
	OpPushScopeVariable

	// OpPop discards the top value.
	OpPop

	// OpPopVariable pops into the local variable named by operand1.
	OpPopVariable

	// OpPopScopeVariable pops into the variable named by operand2 in the
	// outer scope named by operand1. A missing scope discards the value
	// and pushes NULL; a read-only variable is skipped silently.
	OpPopScopeVariable

	// OpSet binds the local variable named by operand1 to the literal in
	// operand2 without touching the stack.
	OpSet

	// OpSetVariable copies the local variable named by operand2 into the
	// local variable named by operand1.
	OpSetVariable

	// === List and map literals ===

	// OpPushListNew pushes an empty list.
	OpPushListNew

	// OpPushListInit pops a length N, then N values, and pushes a list
	// whose element order matches the push order.
	OpPushListInit

	// OpPushListIndex pops an index and a list and pushes the element,
	// or NULL when the receiver is not a list or the index is out of
	// range.
	OpPushListIndex

	// OpPushListIndexContents is the non-destructive variant: index and
	// list are peeked (depths 0 and 1) and remain on the stack below the
	// pushed element. Compiled dotted-accessor chains depend on these
	// exact depths.
	OpPushListIndexContents

	// OpPopList pops a value, an index, and a list, then stores the value
	// at the index. Non-list receivers discard silently.
	OpPopList

	// OpPushMapNew pushes an empty map.
	OpPushMapNew

	// OpPushMapInit pops a count N, then N (value, key) pairs, and pushes
	// the resulting map.
	OpPushMapInit

	// OpPushMapKey pops a key and a map and pushes the entry value, or
	// NULL.
	OpPushMapKey

	// OpPushMapKeyContents is the non-destructive variant of OpPushMapKey
	// with the same peek depths as OpPushListIndexContents.
	OpPushMapKeyContents

	// OpPopMap pops a value, a key, and a map, then stores the value at
	// the key.
	OpPopMap

	// === Unary operators ===

	OpNot
	OpNegate
	OpAbsolute
	OpLogicalNot

	// === Binary operators ===
	//
	// Each pops the right operand, then the left, and pushes one result.

	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpModulo
	OpAnd
	OpOr
	OpXor
	OpLogicalAnd
	OpLogicalOr
	OpLeftShift
	OpRightShift
	OpRightShiftPadded

	// === Binary comparisons ===
	//
	// Each pops two values and pushes a BOOLEAN.

	OpLess
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
	OpEqual
	OpNotEqual
	OpStrictEqual
	OpStrictNotEqual

	opcodeCount
)

var opcodeNames = [...]string{
	OpNoop:                  "NOOP",
	OpReturn:                "RETURN",
	OpCall:                  "CALL",
	OpJump:                  "JUMP",
	OpJumpBranch:            "JUMP_BRANCH",
	OpJumpTrue:              "JUMP_TRUE",
	OpJumpFalse:             "JUMP_FALSE",
	OpJumpCoalesce:          "JUMP_COALESCE",
	OpCallHost:              "CALL_HOST",
	OpPush:                  "PUSH",
	OpPushNull:              "PUSH_NULL",
	OpPushVariable:          "PUSH_VARIABLE",
	OpPushScopeVariable:     "PUSH_SCOPE_VARIABLE",
	OpPop:                   "POP",
	OpPopVariable:           "POP_VARIABLE",
	OpPopScopeVariable:      "POP_SCOPE_VARIABLE",
	OpSet:                   "SET",
	OpSetVariable:           "SET_VARIABLE",
	OpPushListNew:           "PUSH_LIST_NEW",
	OpPushListInit:          "PUSH_LIST_INIT",
	OpPushListIndex:         "PUSH_LIST_INDEX",
	OpPushListIndexContents: "PUSH_LIST_INDEX_CONTENTS",
	OpPopList:               "POP_LIST",
	OpPushMapNew:            "PUSH_MAP_NEW",
	OpPushMapInit:           "PUSH_MAP_INIT",
	OpPushMapKey:            "PUSH_MAP_KEY",
	OpPushMapKeyContents:    "PUSH_MAP_KEY_CONTENTS",
	OpPopMap:                "POP_MAP",
	OpNot:                   "NOT",
	OpNegate:                "NEGATE",
	OpAbsolute:              "ABSOLUTE",
	OpLogicalNot:            "LOGICAL_NOT",
	OpAdd:                   "ADD",
	OpSubtract:              "SUBTRACT",
	OpMultiply:              "MULTIPLY",
	OpDivide:                "DIVIDE",
	OpModulo:                "MODULO",
	OpAnd:                   "AND",
	OpOr:                    "OR",
	OpXor:                   "XOR",
	OpLogicalAnd:            "LOGICAL_AND",
	OpLogicalOr:             "LOGICAL_OR",
	OpLeftShift:             "LEFT_SHIFT",
	OpRightShift:            "RIGHT_SHIFT",
	OpRightShiftPadded:      "RIGHT_SHIFT_PADDED",
	OpLess:                  "LESS",
	OpLessOrEqual:           "LESS_OR_EQUAL",
	OpGreater:               "GREATER",
	OpGreaterOrEqual:        "GREATER_OR_EQUAL",
	OpEqual:                 "EQUAL",
	OpNotEqual:              "NOT_EQUAL",
	OpStrictEqual:           "STRICT_EQUAL",
	OpStrictNotEqual:        "STRICT_NOT_EQUAL",
}

// String returns the mnemonic used by the assembler and disassembler.
func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "UNKNOWN"
}

// OpcodeByName resolves an assembler mnemonic back to its opcode.
func OpcodeByName(name string) (Opcode, bool) {
	op, ok := opcodesByName[name]
	return op, ok
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, int(opcodeCount))
	for op := Opcode(0); op < opcodeCount; op++ {
		m[op.String()] = op
	}
	return m
}()

// OperandClass declares what an opcode expects in an operand slot.
type OperandClass int

const (
	// ClassNone marks an unused operand slot.
	ClassNone OperandClass = iota
	// ClassLabel marks a symbolic jump or call target.
	ClassLabel
	// ClassName marks a variable, scope, function, or namespace name.
	ClassName
	// ClassLiteral marks an embedded literal value.
	ClassLiteral
)

// OperandSchema is an opcode's declared operand shape.
type OperandSchema struct {
	Operand1 OperandClass
	Operand2 OperandClass
	// Operand2Optional marks opcodes whose second operand may be absent
	// (CALL_HOST without a namespace).
	Operand2Optional bool
}

var operandSchemas = [...]OperandSchema{
	OpCall:              {Operand1: ClassLabel},
	OpJump:              {Operand1: ClassLabel},
	OpJumpBranch:        {Operand1: ClassLabel, Operand2: ClassLabel},
	OpJumpTrue:          {Operand1: ClassLabel},
	OpJumpFalse:         {Operand1: ClassLabel},
	OpJumpCoalesce:      {Operand1: ClassLabel},
	OpCallHost:          {Operand1: ClassName, Operand2: ClassName, Operand2Optional: true},
	OpPush:              {Operand1: ClassLiteral},
	OpPushVariable:      {Operand1: ClassName},
	OpPushScopeVariable: {Operand1: ClassName, Operand2: ClassName},
	OpPopVariable:       {Operand1: ClassName},
	OpPopScopeVariable:  {Operand1: ClassName, Operand2: ClassName},
	OpSet:               {Operand1: ClassName, Operand2: ClassLiteral},
	OpSetVariable:       {Operand1: ClassName, Operand2: ClassName},
	opcodeCount - 1:     {},
}

// Schema returns the operand shape for an opcode.
func Schema(op Opcode) OperandSchema {
	if int(op) < len(operandSchemas) {
		return operandSchemas[op]
	}
	return OperandSchema{}
}
