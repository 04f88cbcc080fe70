package vm

import (
	"strings"

	"github.com/rookscript/rookscript/pkg/value"
)

// HostFunction is the contract between the machine and an embedder-provided
// function. No capability is implicit: scripts can only call what the
// embedder registers.
//
// Execution contract:
//
//   - Execute pops exactly ParameterCount operands off the instance, the
//     top of the stack being the last parameter. The machine verifies the
//     operands exist before dispatch, so Execute may assume they do.
//   - The return value is written into ret; leaving ret untouched returns
//     NULL to the script.
//   - Execute's boolean result is "continue": returning false halts the
//     instance without ending it, which is how a function that called
//     Wait or Suspend hands control back to the embedder.
//   - A non-nil error is wrapped as an execution error and halts the
//     instance. Script-visible failures should instead set an ERROR value
//     on ret and return true.
//   - Execute may register and unregister closeables on the instance.
type HostFunction interface {
	// Name returns the canonical identifier, a valid script identifier.
	Name() string
	// ParameterCount returns the fixed arity.
	ParameterCount() int
	// Usage returns structured documentation for diagnostic tooling. The
	// machine never reads it.
	Usage() Usage
	// Execute runs the function body.
	Execute(in *Instance, ret *value.Value) (bool, error)
}

// Usage is optional host-function documentation.
type Usage struct {
	Instructions string
	Parameters   []Parameter
	Returns      string
}

// Parameter documents one host-function parameter.
type Parameter struct {
	Name        string
	Description string
}

// HostFunctionResolver resolves unqualified names to host functions. Names
// match case-insensitively. ContainsFunction and GetFunction must agree:
// one returns true exactly when the other returns non-nil, and repeated
// lookups of a name return the same descriptor.
type HostFunctionResolver interface {
	ContainsFunction(name string) bool
	GetFunction(name string) HostFunction
}

// HostResolver is what an instance consults for CALL_HOST: a resolver that
// also understands namespace qualification. Namespace names match
// case-insensitively; an empty namespace means the global namespace.
type HostResolver interface {
	HostFunctionResolver
	// ResolveFunction resolves a possibly-qualified name, returning nil
	// when it is not registered.
	ResolveFunction(namespace, name string) HostFunction
}

// FunctionSet is the basic HostFunctionResolver: a fixed set of functions
// keyed by folded name. It also satisfies HostResolver for embedders that
// need no namespaces.
type FunctionSet struct {
	byName map[string]HostFunction
}

// NewFunctionSet builds a resolver over the given functions. Later
// functions with a repeated name replace earlier ones.
func NewFunctionSet(functions ...HostFunction) *FunctionSet {
	s := &FunctionSet{byName: make(map[string]HostFunction, len(functions))}
	for _, fn := range functions {
		s.byName[strings.ToLower(fn.Name())] = fn
	}
	return s
}

// ContainsFunction implements HostFunctionResolver.
func (s *FunctionSet) ContainsFunction(name string) bool {
	_, ok := s.byName[strings.ToLower(name)]
	return ok
}

// GetFunction implements HostFunctionResolver.
func (s *FunctionSet) GetFunction(name string) HostFunction {
	return s.byName[strings.ToLower(name)]
}

// ResolveFunction implements HostResolver. A FunctionSet defines no
// namespaces, so qualified lookups fail.
func (s *FunctionSet) ResolveFunction(namespace, name string) HostFunction {
	if namespace != "" {
		return nil
	}
	return s.GetFunction(name)
}

// CompositeResolver combines resolvers, each bound to a namespace or to
// the global namespace. A qualified name consults only the resolver bound
// to that namespace. An unqualified name tries the global resolvers in
// registration order and the first match wins — the embedder controls
// shadowing by ordering.
type CompositeResolver struct {
	global     []HostFunctionResolver
	namespaces map[string]HostFunctionResolver
}

// NewCompositeResolver creates an empty composite.
func NewCompositeResolver() *CompositeResolver {
	return &CompositeResolver{namespaces: make(map[string]HostFunctionResolver)}
}

// With appends a resolver to the global namespace and returns the
// composite for chaining.
func (r *CompositeResolver) With(resolver HostFunctionResolver) *CompositeResolver {
	r.global = append(r.global, resolver)
	return r
}

// WithNamespace binds a resolver to a namespace, replacing any previous
// binding of that namespace.
func (r *CompositeResolver) WithNamespace(namespace string, resolver HostFunctionResolver) *CompositeResolver {
	r.namespaces[strings.ToLower(namespace)] = resolver
	return r
}

// ContainsFunction implements HostFunctionResolver over the global
// namespace.
func (r *CompositeResolver) ContainsFunction(name string) bool {
	return r.GetFunction(name) != nil
}

// GetFunction implements HostFunctionResolver over the global namespace.
func (r *CompositeResolver) GetFunction(name string) HostFunction {
	for _, resolver := range r.global {
		if fn := resolver.GetFunction(name); fn != nil {
			return fn
		}
	}
	return nil
}

// ResolveFunction implements HostResolver.
func (r *CompositeResolver) ResolveFunction(namespace, name string) HostFunction {
	if namespace != "" {
		resolver := r.namespaces[strings.ToLower(namespace)]
		if resolver == nil {
			return nil
		}
		return resolver.GetFunction(name)
	}
	return r.GetFunction(name)
}

// ExecuteFunc is the body signature for NewFunction.
type ExecuteFunc func(in *Instance, ret *value.Value) (bool, error)

// NewFunction builds a HostFunction from its parts. The usual way for an
// embedder to define one:
//
//	vm.NewFunction("clamp", 3, vm.Usage{Instructions: "Clamps a value."},
//		func(in *vm.Instance, ret *value.Value) (bool, error) {
//			...
//			return true, nil
//		})
func NewFunction(name string, parameterCount int, usage Usage, body ExecuteFunc) HostFunction {
	return &simpleFunction{name: name, parameterCount: parameterCount, usage: usage, body: body}
}

type simpleFunction struct {
	name           string
	parameterCount int
	usage          Usage
	body           ExecuteFunc
}

func (f *simpleFunction) Name() string        { return f.name }
func (f *simpleFunction) ParameterCount() int { return f.parameterCount }
func (f *simpleFunction) Usage() Usage        { return f.usage }
func (f *simpleFunction) Execute(in *Instance, ret *value.Value) (bool, error) {
	return f.body(in, ret)
}
