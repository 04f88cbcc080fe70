package vm

import (
	"fmt"

	"github.com/rookscript/rookscript/pkg/value"
)

// InstanceStack owns the two bounded stacks of one script instance: the
// activation-frame stack and the operand-value stack. Both are sized once
// at construction; overflow and underflow are execution errors, never
// growth.
//
// The operand storage is a flat slot array reused across pushes and pops —
// after the stack has warmed up, pushing a value never allocates. Frames
// likewise keep their local scopes across reuse, clearing them on pop, so
// steady-state call traffic stays off the garbage collector.
//
// Each frame carries its own command index. The top frame's index is the
// machine's program counter; a CALL pushes a frame starting at the call
// target, and a RETURN pops back to the caller's frame, whose index
// already points at the instruction after the call.
type InstanceStack struct {
	frames     []frame
	frameDepth int

	values     []value.Value
	valueDepth int
}

type frame struct {
	commandIndex int
	scope        *VariableScope
}

// NewInstanceStack creates a stack bounded at activationDepth frames and
// valueDepth operand values. Both bounds must be positive.
func NewInstanceStack(activationDepth, valueDepth int) *InstanceStack {
	if activationDepth <= 0 {
		panic(fmt.Sprintf("activation depth must be positive, got %d", activationDepth))
	}
	if valueDepth <= 0 {
		panic(fmt.Sprintf("value depth must be positive, got %d", valueDepth))
	}
	return &InstanceStack{
		frames: make([]frame, activationDepth),
		values: make([]value.Value, valueDepth),
	}
}

// FrameDepth returns the current activation depth.
func (s *InstanceStack) FrameDepth() int { return s.frameDepth }

// Depth returns the current operand count.
func (s *InstanceStack) Depth() int { return s.valueDepth }

// PushFrame pushes an activation frame whose execution starts at index,
// with an empty local scope.
func (s *InstanceStack) PushFrame(index int) error {
	if s.frameDepth >= len(s.frames) {
		return execError(ErrStackOverflow, s.CommandIndex(), "activation depth %d exceeded", len(s.frames))
	}
	f := &s.frames[s.frameDepth]
	f.commandIndex = index
	if f.scope == nil {
		f.scope = NewVariableScope()
	} else {
		f.scope.Clear()
	}
	s.frameDepth++
	return nil
}

// PopFrame discards the top frame, releasing its local scope. The new top
// frame's command index — saved before the call — becomes current again.
func (s *InstanceStack) PopFrame() error {
	if s.frameDepth == 0 {
		return execError(ErrStackUnderflow, -1, "no activation frames")
	}
	s.frameDepth--
	s.frames[s.frameDepth].scope.Clear()
	return nil
}

// CommandIndex returns the top frame's command index, or -1 with no
// frames.
func (s *InstanceStack) CommandIndex() int {
	if s.frameDepth == 0 {
		return -1
	}
	return s.frames[s.frameDepth-1].commandIndex
}

// SetCommandIndex overwrites the top frame's command index. A jump.
func (s *InstanceStack) SetCommandIndex(index int) {
	if s.frameDepth > 0 {
		s.frames[s.frameDepth-1].commandIndex = index
	}
}

// IncrementCommandIndex advances the top frame's command index by one.
func (s *InstanceStack) IncrementCommandIndex() {
	if s.frameDepth > 0 {
		s.frames[s.frameDepth-1].commandIndex++
	}
}

// Push copies v into the next operand slot.
func (s *InstanceStack) Push(v *value.Value) error {
	if s.valueDepth >= len(s.values) {
		return execError(ErrStackOverflow, s.CommandIndex(), "operand depth %d exceeded", len(s.values))
	}
	s.values[s.valueDepth].CopyFrom(v)
	s.valueDepth++
	return nil
}

// Pop copies the top operand into out and clears the slot so it holds no
// stale references.
func (s *InstanceStack) Pop(out *value.Value) error {
	if s.valueDepth == 0 {
		return execError(ErrStackUnderflow, s.CommandIndex(), "operand stack empty")
	}
	s.valueDepth--
	out.CopyFrom(&s.values[s.valueDepth])
	s.values[s.valueDepth].SetNull()
	return nil
}

// Peek copies the operand depth slots below the top (0 is the top) into
// out without removing it.
func (s *InstanceStack) Peek(depth int, out *value.Value) error {
	if depth < 0 || depth >= s.valueDepth {
		return execError(ErrStackUnderflow, s.CommandIndex(), "peek depth %d of %d", depth, s.valueDepth)
	}
	out.CopyFrom(&s.values[s.valueDepth-1-depth])
	return nil
}

// GetValue reads a variable from the top frame's local scope, writing NULL
// and reporting false when it is absent (or when no frame exists).
func (s *InstanceStack) GetValue(name string, out *value.Value) bool {
	if s.frameDepth == 0 {
		out.SetNull()
		return false
	}
	return s.frames[s.frameDepth-1].scope.Get(name, out)
}

// SetValue assigns a variable in the top frame's local scope, creating it
// if absent. With no frame the assignment is dropped.
func (s *InstanceStack) SetValue(name string, v *value.Value) {
	if s.frameDepth == 0 {
		return
	}
	s.frames[s.frameDepth-1].scope.Set(name, v)
}

// LocalScope returns the top frame's local scope, or nil with no frames.
// Host functions use it to inspect caller locals.
func (s *InstanceStack) LocalScope() *VariableScope {
	if s.frameDepth == 0 {
		return nil
	}
	return s.frames[s.frameDepth-1].scope
}

// Reset clears all frames and operands, returning the stack to its
// just-constructed state. Backing storage is kept.
func (s *InstanceStack) Reset() {
	for i := 0; i < s.frameDepth; i++ {
		s.frames[i].scope.Clear()
	}
	s.frameDepth = 0
	for i := 0; i < s.valueDepth; i++ {
		s.values[i].SetNull()
	}
	s.valueDepth = 0
}
