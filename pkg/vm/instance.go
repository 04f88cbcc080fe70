package vm

import (
	"io"

	mapset "github.com/deckarep/golang-set"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rookscript/rookscript/pkg/bytecode"
	"github.com/rookscript/rookscript/pkg/value"
)

// State is an instance's position in its lifecycle.
type State int

// Instance lifecycle states. Transitions:
//
//	CREATED → INIT            initialize
//	INIT    → RUNNING         first update
//	RUNNING ↔ WAITING         wait / resume
//	RUNNING → SUSPENDED       suspend
//	any     → ENDED           terminate, or RETURN popping the final frame
const (
	StateCreated State = iota
	StateInit
	StateRunning
	StateWaiting
	StateSuspended
	StateEnded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "CREATED"
	case StateInit:
		return "INIT"
	case StateRunning:
		return "RUNNING"
	case StateWaiting:
		return "WAITING"
	case StateSuspended:
		return "SUSPENDED"
	case StateEnded:
		return "ENDED"
	default:
		return "UNKNOWN"
	}
}

// Instance is one running script: a Program reference, an InstanceStack,
// the resolvers, an environment, an optional wait handler, a state, a
// command budget, and the set of registered closeables.
//
// An instance is strictly single-threaded. Programs and resolvers are
// shared read-only, so any number of instances may run the same Program
// in parallel from separate goroutines, but one instance's methods must
// never be called concurrently.
type Instance struct {
	id            string
	program       *bytecode.Program
	stack         *InstanceStack
	hostResolver  HostResolver
	scopeResolver ScopeResolver
	waitHandler   WaitHandler
	environment   *Environment
	logger        *zap.Logger

	state         State
	waitType      value.Value
	waitParameter value.Value

	// runawayLimit bounds the commands executed in one Update tick;
	// zero disables the check.
	runawayLimit     int
	commandsExecuted int

	closeables mapset.Set

	// scratch slots for the interpreter; see exec.go.
	scratch [3]value.Value
}

// Option configures an Instance at construction.
type Option func(*Instance)

// WithScopeResolver supplies the named outer scopes visible to the script.
func WithScopeResolver(r ScopeResolver) Option {
	return func(in *Instance) { in.scopeResolver = r }
}

// WithWaitHandler supplies the delegate that advances the instance while
// it is WAITING.
func WithWaitHandler(h WaitHandler) Option {
	return func(in *Instance) { in.waitHandler = h }
}

// WithEnvironment supplies the standard I/O streams. The default is the
// process streams.
func WithEnvironment(e *Environment) Option {
	return func(in *Instance) { in.environment = e }
}

// WithRunawayLimit bounds the commands executed in a single update tick.
// Zero, the default, disables the bound. Well-behaved scripts spanning
// many ticks are unaffected; only an uninterrupted loop within one tick
// trips it.
func WithRunawayLimit(limit int) Option {
	return func(in *Instance) { in.runawayLimit = limit }
}

// WithLogger enables the per-instruction execution trace at Debug level.
// The default logger is a nop.
func WithLogger(l *zap.Logger) Option {
	return func(in *Instance) { in.logger = l }
}

// NewInstance creates an instance in the CREATED state. The program and
// stack are required; the host resolver supplies every function the script
// may call (nil means scripts can call nothing).
func NewInstance(program *bytecode.Program, stack *InstanceStack, resolver HostResolver, opts ...Option) *Instance {
	in := &Instance{
		id:           uuid.New().String(),
		program:      program,
		stack:        stack,
		hostResolver: resolver,
		environment:  NewStdEnvironment(),
		logger:       zap.NewNop(),
		closeables:   mapset.NewSet(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// ID returns the instance's unique identifier, as carried in trace fields.
func (in *Instance) ID() string { return in.id }

// State returns the current lifecycle state.
func (in *Instance) State() State { return in.state }

// Program returns the shared program.
func (in *Instance) Program() *bytecode.Program { return in.program }

// Environment returns the instance's I/O environment.
func (in *Instance) Environment() *Environment { return in.environment }

// Stack returns the instance stack. Host functions use it for operand
// access beyond the Push/Pop convenience methods.
func (in *Instance) Stack() *InstanceStack { return in.stack }

// Initialize readies the instance to run the named entry point: the stack
// is reset, a frame is pushed at the entry's index, and the arguments are
// pushed in order, padded with NULL up to the entry's parameter count.
// Supplying more arguments than parameters fails. The compiled prologue at
// the entry pops the arguments into its local variables.
func (in *Instance) Initialize(entryName string, args ...any) error {
	entry, ok := in.program.Entry(entryName)
	if !ok {
		return execError(ErrEntryNotFound, -1, "%q", entryName)
	}
	if len(args) > entry.ParameterCount {
		return execError(ErrBadParameterCount, -1, "%q takes %d, got %d", entryName, entry.ParameterCount, len(args))
	}
	if err := in.initializeAt(entry.Index); err != nil {
		return err
	}
	var v value.Value
	for _, arg := range args {
		v.Set(arg)
		if err := in.stack.Push(&v); err != nil {
			return err
		}
	}
	v.SetNull()
	for i := len(args); i < entry.ParameterCount; i++ {
		if err := in.stack.Push(&v); err != nil {
			return err
		}
	}
	return nil
}

// InitializeLabel readies the instance to run from a label. No arguments
// are pushed.
func (in *Instance) InitializeLabel(label string) error {
	index, ok := in.program.ResolveLabel(label)
	if !ok {
		return execError(ErrLabelNotFound, -1, "%q", label)
	}
	return in.initializeAt(index)
}

// InitializeIndex readies the instance to run from a raw instruction
// index.
func (in *Instance) InitializeIndex(index int) error {
	return in.initializeAt(index)
}

func (in *Instance) initializeAt(index int) error {
	in.stack.Reset()
	in.state = StateInit
	in.waitType.SetNull()
	in.waitParameter.SetNull()
	return in.stack.PushFrame(index)
}

// Reset returns the instance to CREATED: stacks cleared, wait state
// dropped. Registered closeables are kept; they belong to the instance
// until it ends.
func (in *Instance) Reset() {
	in.stack.Reset()
	in.state = StateCreated
	in.waitType.SetNull()
	in.waitParameter.SetNull()
	in.commandsExecuted = 0
}

// Update advances the instance according to its state: an initialized
// instance runs instructions until it halts (end, wait, suspend, host
// handoff) or exhausts the tick's command budget; a waiting instance
// consults its wait handler; suspended and ended instances do nothing.
//
// Execution errors are returned without ending the instance — the embedder
// chooses whether to Terminate.
func (in *Instance) Update() error {
	switch in.state {
	case StateCreated:
		return execError(ErrNotInitialized, -1, "")
	case StateInit:
		in.state = StateRunning
		return in.run()
	case StateRunning:
		return in.run()
	case StateWaiting:
		if in.waitHandler == nil {
			return nil
		}
		if in.waitHandler.CanContinue(&in.waitType, &in.waitParameter) {
			in.Resume()
			return in.run()
		}
		in.waitHandler.Update(&in.waitType, &in.waitParameter)
		return nil
	default:
		return nil
	}
}

// run executes steps until one halts the loop. The runaway counter resets
// here, at the start of the tick, not per frame.
func (in *Instance) run() error {
	in.commandsExecuted = 0
	for {
		ok, err := in.Step()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		in.commandsExecuted++
		if in.runawayLimit > 0 && in.commandsExecuted > in.runawayLimit {
			return execError(ErrRunaway, in.stack.CommandIndex(), "limit %d", in.runawayLimit)
		}
	}
}

// Step fetches the instruction at the current index, advances the index,
// and executes it. It reports whether the loop should continue. A fetch
// past the end of the program terminates the instance.
func (in *Instance) Step() (bool, error) {
	if in.stack.FrameDepth() == 0 {
		in.Terminate()
		return false, nil
	}
	index := in.stack.CommandIndex()
	instr := in.program.At(index)
	in.stack.SetCommandIndex(index + 1)
	if instr == nil {
		in.Terminate()
		return false, nil
	}
	in.traceStep(index, instr)
	return in.execute(instr)
}

// Resume moves a WAITING or SUSPENDED instance back to RUNNING and clears
// the wait state. Ended instances stay ended.
func (in *Instance) Resume() {
	if in.state == StateEnded || in.state == StateCreated {
		return
	}
	in.state = StateRunning
	in.waitType.SetNull()
	in.waitParameter.SetNull()
}

// Wait parks the instance in WAITING with an opaque type and parameter for
// the wait handler. Called by host functions, which then return false to
// hand control back to the embedder.
func (in *Instance) Wait(waitType, waitParameter any) {
	if in.state == StateEnded {
		return
	}
	in.waitType.Set(waitType)
	in.waitParameter.Set(waitParameter)
	in.state = StateWaiting
}

// Suspend parks the instance in SUSPENDED. Only Resume or Terminate move
// it again.
func (in *Instance) Suspend() {
	if in.state == StateEnded {
		return
	}
	in.state = StateSuspended
}

// Terminate ends the instance: the state becomes ENDED, wait state is
// cleared, and every registered closeable is closed in arbitrary order,
// swallowing close errors. Ending is idempotent; after it, Update is a
// no-op.
func (in *Instance) Terminate() {
	if in.state == StateEnded {
		return
	}
	in.state = StateEnded
	in.waitType.SetNull()
	in.waitParameter.SetNull()
	in.closeables.Each(func(item any) bool {
		if c, ok := item.(io.Closer); ok {
			_ = c.Close()
		}
		return false
	})
	in.closeables.Clear()
	in.logger.Debug("instance ended", zap.String("instance", in.id))
}

// Push pushes a host value onto the operand stack.
func (in *Instance) Push(v any) error {
	var val value.Value
	val.Set(v)
	return in.stack.Push(&val)
}

// PushValue pushes a copy of v onto the operand stack.
func (in *Instance) PushValue(v *value.Value) error { return in.stack.Push(v) }

// Pop pops the top operand into out.
func (in *Instance) Pop(out *value.Value) error { return in.stack.Pop(out) }

// Peek copies the operand at depth (0 is the top) into out.
func (in *Instance) Peek(depth int, out *value.Value) error {
	return in.stack.Peek(depth, out)
}

// GetValue reads a local variable of the current frame.
func (in *Instance) GetValue(name string, out *value.Value) bool {
	return in.stack.GetValue(name, out)
}

// SetValue assigns a local variable of the current frame from a host
// value.
func (in *Instance) SetValue(name string, v any) {
	var val value.Value
	val.Set(v)
	in.stack.SetValue(name, &val)
}

// PushFrame pushes an activation frame starting at index.
func (in *Instance) PushFrame(index int) error { return in.stack.PushFrame(index) }

// PopFrame pops the top activation frame.
func (in *Instance) PopFrame() error { return in.stack.PopFrame() }

// RegisterCloseable ties a host resource's lifetime to the instance: it
// will be closed when the instance ends, unless unregistered first.
func (in *Instance) RegisterCloseable(c io.Closer) { in.closeables.Add(c) }

// UnregisterCloseable releases the machine's claim on a resource without
// closing it. Host functions that close resources themselves must call
// this.
func (in *Instance) UnregisterCloseable(c io.Closer) { in.closeables.Remove(c) }

// CloseableIsRegistered reports whether c is registered.
func (in *Instance) CloseableIsRegistered(c io.Closer) bool {
	return in.closeables.Contains(c)
}

// Call initializes the named entry with args and updates until the
// instance halts. The entry's return value, if any, is left on the operand
// stack.
func (in *Instance) Call(entryName string, args ...any) error {
	if err := in.Initialize(entryName, args...); err != nil {
		return err
	}
	return in.Update()
}

// CallAndReturn calls an entry point and pops its return value into out.
// An entry that left nothing on the stack yields NULL.
func (in *Instance) CallAndReturn(out *value.Value, entryName string, args ...any) error {
	if err := in.Call(entryName, args...); err != nil {
		return err
	}
	if in.stack.Depth() == 0 {
		out.SetNull()
		return nil
	}
	return in.stack.Pop(out)
}

// CallAs calls an entry point on in and coerces the popped return value to
// T. Supported targets: bool, int, int64, float64, string, and the raw
// value.Value.
func CallAs[T any](in *Instance, entryName string, args ...any) (T, error) {
	var out T
	var ret value.Value
	if err := in.CallAndReturn(&ret, entryName, args...); err != nil {
		return out, err
	}
	switch p := any(&out).(type) {
	case *bool:
		*p = ret.AsBool()
	case *int:
		*p = ret.AsInt()
	case *int64:
		*p = ret.AsInt64()
	case *float64:
		*p = ret.AsFloat64()
	case *string:
		*p = ret.AsString()
	case *value.Value:
		p.CopyFrom(&ret)
	default:
		if cast, ok := ret.AsInterface().(T); ok {
			out = cast
		}
	}
	return out, nil
}
