package vm

import (
	"fmt"

	"github.com/rookscript/rookscript/pkg/bytecode"
	"github.com/rookscript/rookscript/pkg/value"
)

// execute dispatches one instruction. The boolean result is "keep
// stepping": RETURN at frame depth zero and a host function taking control
// both stop the loop without an error.
//
// The three instance scratch slots are the interpreter's working
// registers. Every operator writes into a scratch slot and pushes from it,
// so steady-state execution performs no allocation; host calls are the one
// place a fresh return slot is created, since a host body may legally
// re-enter the machine.
func (in *Instance) execute(instr *bytecode.Instruction) (bool, error) {
	s0, s1, s2 := &in.scratch[0], &in.scratch[1], &in.scratch[2]

	switch instr.Op {
	case bytecode.OpNoop:
		return true, nil

	// === Control flow ===

	case bytecode.OpReturn:
		if err := in.stack.PopFrame(); err != nil {
			return false, err
		}
		if in.stack.FrameDepth() == 0 {
			in.Terminate()
			return false, nil
		}
		return true, nil

	case bytecode.OpCall:
		index, err := in.resolveLabel(&instr.Operand1)
		if err != nil {
			return false, err
		}
		if err := in.stack.PushFrame(index); err != nil {
			return false, err
		}
		return true, nil

	case bytecode.OpJump:
		index, err := in.resolveLabel(&instr.Operand1)
		if err != nil {
			return false, err
		}
		in.stack.SetCommandIndex(index)
		return true, nil

	case bytecode.OpJumpBranch:
		if err := in.stack.Pop(s0); err != nil {
			return false, err
		}
		target := &instr.Operand2
		if s0.AsBool() {
			target = &instr.Operand1
		}
		index, err := in.resolveLabel(target)
		if err != nil {
			return false, err
		}
		in.stack.SetCommandIndex(index)
		return true, nil

	case bytecode.OpJumpTrue, bytecode.OpJumpFalse:
		if err := in.stack.Pop(s0); err != nil {
			return false, err
		}
		if s0.AsBool() == (instr.Op == bytecode.OpJumpTrue) {
			index, err := in.resolveLabel(&instr.Operand1)
			if err != nil {
				return false, err
			}
			in.stack.SetCommandIndex(index)
		}
		return true, nil

	case bytecode.OpJumpCoalesce:
		if err := in.stack.Peek(0, s0); err != nil {
			return false, err
		}
		if s0.IsNull() {
			return true, popDiscard(in, s0)
		}
		index, err := in.resolveLabel(&instr.Operand1)
		if err != nil {
			return false, err
		}
		in.stack.SetCommandIndex(index)
		return true, nil

	case bytecode.OpCallHost:
		return in.callHost(instr)

	// === Stack primitives ===

	case bytecode.OpPush:
		instr.Operand1.LiteralTo(s0)
		return true, in.stack.Push(s0)

	case bytecode.OpPushNull:
		s0.SetNull()
		return true, in.stack.Push(s0)

	case bytecode.OpPushVariable:
		in.stack.GetValue(instr.Operand1.Text, s0)
		return true, in.stack.Push(s0)

	case bytecode.OpPushScopeVariable:
		if scope := in.resolveScope(instr.Operand1.Text); scope != nil {
			scope.Get(instr.Operand2.Text, s0)
		} else {
			s0.SetNull()
		}
		return true, in.stack.Push(s0)

	case bytecode.OpPop:
		return true, popDiscard(in, s0)

	case bytecode.OpPopVariable:
		if err := in.stack.Pop(s0); err != nil {
			return false, err
		}
		in.stack.SetValue(instr.Operand1.Text, s0)
		return true, nil

	case bytecode.OpPopScopeVariable:
		if err := in.stack.Pop(s0); err != nil {
			return false, err
		}
		scope := in.resolveScope(instr.Operand1.Text)
		if scope == nil {
			// Failed scope lookup: the value is discarded and NULL marks
			// the failure.
			s0.SetNull()
			return true, in.stack.Push(s0)
		}
		scope.Set(instr.Operand2.Text, s0)
		return true, nil

	case bytecode.OpSet:
		instr.Operand2.LiteralTo(s0)
		in.stack.SetValue(instr.Operand1.Text, s0)
		return true, nil

	case bytecode.OpSetVariable:
		in.stack.GetValue(instr.Operand2.Text, s0)
		in.stack.SetValue(instr.Operand1.Text, s0)
		return true, nil

	// === List and map literals ===

	case bytecode.OpPushListNew:
		s0.SetList(value.NewList())
		return true, in.stack.Push(s0)

	case bytecode.OpPushListInit:
		if err := in.stack.Pop(s0); err != nil {
			return false, err
		}
		n := s0.AsInt()
		if n < 0 {
			n = 0
		}
		list := value.NewListOfLength(n)
		for i := n - 1; i >= 0; i-- {
			if err := in.stack.Pop(s1); err != nil {
				return false, err
			}
			list.Set(i, s1)
		}
		s0.SetList(list)
		return true, in.stack.Push(s0)

	case bytecode.OpPushListIndex:
		if err := in.stack.Pop(s0); err != nil { // index
			return false, err
		}
		if err := in.stack.Pop(s1); err != nil { // list
			return false, err
		}
		listIndex(s2, s1, s0)
		return true, in.stack.Push(s2)

	case bytecode.OpPushListIndexContents:
		if err := in.stack.Peek(0, s0); err != nil { // index
			return false, err
		}
		if err := in.stack.Peek(1, s1); err != nil { // list
			return false, err
		}
		listIndex(s2, s1, s0)
		return true, in.stack.Push(s2)

	case bytecode.OpPopList:
		if err := in.stack.Pop(s0); err != nil { // value
			return false, err
		}
		if err := in.stack.Pop(s1); err != nil { // index
			return false, err
		}
		if err := in.stack.Pop(s2); err != nil { // list
			return false, err
		}
		if list := s2.List(); list != nil {
			list.Set(s1.AsInt(), s0)
		}
		return true, nil

	case bytecode.OpPushMapNew:
		s0.SetMap(value.NewMap())
		return true, in.stack.Push(s0)

	case bytecode.OpPushMapInit:
		if err := in.stack.Pop(s0); err != nil {
			return false, err
		}
		n := s0.AsInt()
		if n < 0 {
			n = 0
		}
		m := value.NewMap()
		// Pairs sit on the stack in push order; read them by peek from the
		// deepest pair so the map keeps the literal's insertion order,
		// then discard them.
		for j := 0; j < n; j++ {
			keyDepth := 2*(n-1-j) + 1
			if err := in.stack.Peek(keyDepth, s1); err != nil {
				return false, err
			}
			if err := in.stack.Peek(keyDepth-1, s2); err != nil {
				return false, err
			}
			m.Set(s1.AsString(), s2)
		}
		for j := 0; j < 2*n; j++ {
			if err := popDiscard(in, s1); err != nil {
				return false, err
			}
		}
		s0.SetMap(m)
		return true, in.stack.Push(s0)

	case bytecode.OpPushMapKey:
		if err := in.stack.Pop(s0); err != nil { // key
			return false, err
		}
		if err := in.stack.Pop(s1); err != nil { // map
			return false, err
		}
		mapKey(s2, s1, s0)
		return true, in.stack.Push(s2)

	case bytecode.OpPushMapKeyContents:
		if err := in.stack.Peek(0, s0); err != nil { // key
			return false, err
		}
		if err := in.stack.Peek(1, s1); err != nil { // map
			return false, err
		}
		mapKey(s2, s1, s0)
		return true, in.stack.Push(s2)

	case bytecode.OpPopMap:
		if err := in.stack.Pop(s0); err != nil { // value
			return false, err
		}
		if err := in.stack.Pop(s1); err != nil { // key
			return false, err
		}
		if err := in.stack.Pop(s2); err != nil { // map
			return false, err
		}
		if m := s2.Map(); m != nil {
			m.Set(s1.AsString(), s0)
		}
		return true, nil

	// === Unary operators ===

	case bytecode.OpNot, bytecode.OpNegate, bytecode.OpAbsolute, bytecode.OpLogicalNot:
		if err := in.stack.Pop(s0); err != nil {
			return false, err
		}
		switch instr.Op {
		case bytecode.OpNot:
			value.Not(s0, s0)
		case bytecode.OpNegate:
			value.Negate(s0, s0)
		case bytecode.OpAbsolute:
			value.Absolute(s0, s0)
		case bytecode.OpLogicalNot:
			value.LogicalNot(s0, s0)
		}
		return true, in.stack.Push(s0)

	// === Binary operators and comparisons ===

	default:
		op := binaryOps[instr.Op]
		if op == nil {
			return false, execError(ErrUnknownOpcode, in.stack.CommandIndex()-1, "%d", instr.Op)
		}
		if err := in.stack.Pop(s1); err != nil { // right
			return false, err
		}
		if err := in.stack.Pop(s0); err != nil { // left
			return false, err
		}
		op(s0, s0, s1)
		return true, in.stack.Push(s0)
	}
}

// binaryOps maps the two-operand opcodes onto the value operators.
var binaryOps = map[bytecode.Opcode]func(out, a, b *value.Value){
	bytecode.OpAdd:              value.Add,
	bytecode.OpSubtract:         value.Subtract,
	bytecode.OpMultiply:         value.Multiply,
	bytecode.OpDivide:           value.Divide,
	bytecode.OpModulo:           value.Modulo,
	bytecode.OpAnd:              value.And,
	bytecode.OpOr:               value.Or,
	bytecode.OpXor:              value.Xor,
	bytecode.OpLogicalAnd:       value.LogicalAnd,
	bytecode.OpLogicalOr:        value.LogicalOr,
	bytecode.OpLeftShift:        value.LeftShift,
	bytecode.OpRightShift:       value.RightShift,
	bytecode.OpRightShiftPadded: value.RightShiftPadded,
	bytecode.OpLess:             value.Less,
	bytecode.OpLessOrEqual:      value.LessOrEqual,
	bytecode.OpGreater:          value.Greater,
	bytecode.OpGreaterOrEqual:   value.GreaterOrEqual,
	bytecode.OpEqual:            value.Equal,
	bytecode.OpNotEqual:         value.NotEqual,
	bytecode.OpStrictEqual:      value.StrictEqual,
	bytecode.OpStrictNotEqual:   value.StrictNotEqual,
}

// callHost dispatches CALL_HOST: resolve, verify operands, execute, push
// the return value. A false continue-result from the function halts the
// loop with the instance left in whatever state the function set.
func (in *Instance) callHost(instr *bytecode.Instruction) (bool, error) {
	name := instr.Operand1.Text
	namespace := ""
	if instr.Operand2.Kind == bytecode.OperandName {
		namespace = instr.Operand2.Text
	}
	var fn HostFunction
	if in.hostResolver != nil {
		fn = in.hostResolver.ResolveFunction(namespace, name)
	}
	if fn == nil {
		return false, execError(ErrHostFunctionNotFound, in.stack.CommandIndex()-1, "%s", qualifiedName(namespace, name))
	}
	if in.stack.Depth() < fn.ParameterCount() {
		return false, execError(ErrStackUnderflow, in.stack.CommandIndex()-1,
			"%s needs %d operands, have %d", qualifiedName(namespace, name), fn.ParameterCount(), in.stack.Depth())
	}
	var ret value.Value
	cont, err := safeExecute(fn, in, &ret)
	if err != nil {
		return false, execError(ErrHostFunctionFault, in.stack.CommandIndex()-1, "%s: %v", qualifiedName(namespace, name), err)
	}
	if err := in.stack.Push(&ret); err != nil {
		return false, err
	}
	return cont, nil
}

// safeExecute runs a host function, converting a panic into an error so a
// misbehaving host body cannot take down the embedder.
func safeExecute(fn HostFunction, in *Instance, ret *value.Value) (cont bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			cont = false
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn.Execute(in, ret)
}

func qualifiedName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "::" + name
}

// resolveLabel maps a label operand to its instruction index; a miss is
// fatal.
func (in *Instance) resolveLabel(o *bytecode.Operand) (int, error) {
	index, ok := in.program.ResolveLabel(o.Text)
	if !ok {
		return 0, execError(ErrLabelNotFound, in.stack.CommandIndex()-1, "%q", o.Text)
	}
	return index, nil
}

// resolveScope looks up a named outer scope, or nil without a resolver.
func (in *Instance) resolveScope(name string) Scope {
	if in.scopeResolver == nil {
		return nil
	}
	return in.scopeResolver.GetScope(name)
}

func popDiscard(in *Instance, scratch *value.Value) error {
	return in.stack.Pop(scratch)
}

// listIndex implements the shared lookup of PUSH_LIST_INDEX and its
// CONTENTS variant: non-lists and out-of-range indices yield NULL.
func listIndex(out, listVal, indexVal *value.Value) {
	if list := listVal.List(); list != nil {
		list.Get(indexVal.AsInt(), out)
		return
	}
	out.SetNull()
}

// mapKey implements the shared lookup of PUSH_MAP_KEY and its CONTENTS
// variant.
func mapKey(out, mapVal, keyVal *value.Value) {
	if m := mapVal.Map(); m != nil {
		m.Get(keyVal.AsString(), out)
		return
	}
	out.SetNull()
}
