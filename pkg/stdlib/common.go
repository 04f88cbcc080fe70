// Package stdlib provides the common host functions most embedders want:
// the print family over the instance environment, type and error
// inspection, and the sleep/wait pair that exercises the waiting protocol.
//
// The heavyweight libraries (filesystem, streams, digests, JSON, HTTP) are
// deliberately not here; they are separate host-function packages layered
// on the same contract. Nothing in this package is callable from a script
// unless the embedder registers it.
package stdlib

import (
	"strings"
	"time"

	"github.com/rookscript/rookscript/pkg/value"
	"github.com/rookscript/rookscript/pkg/vm"
)

// CommonFunctions returns the type- and error-inspection functions.
func CommonFunctions() []vm.HostFunction {
	return []vm.HostFunction{
		vm.NewFunction("typeof", 1, vm.Usage{
			Instructions: "Returns the type name of a value, in lower case.",
			Parameters:   []vm.Parameter{{Name: "value", Description: "The value to inspect."}},
			Returns:      "STRING: one of null, boolean, integer, float, string, list, map, buffer, error, objectref.",
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var v value.Value
			if err := in.Pop(&v); err != nil {
				return false, err
			}
			ret.SetString(strings.ToLower(v.Type().String()))
			return true, nil
		}),

		vm.NewFunction("length", 1, vm.Usage{
			Instructions: "Returns the length of a value: characters, elements, entries, or bytes.",
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var v value.Value
			if err := in.Pop(&v); err != nil {
				return false, err
			}
			ret.SetInteger(int64(v.Length()))
			return true, nil
		}),

		vm.NewFunction("isempty", 1, vm.Usage{
			Instructions: "Returns true if the value is empty by its type's emptiness rule.",
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var v value.Value
			if err := in.Pop(&v); err != nil {
				return false, err
			}
			ret.SetBool(v.Empty())
			return true, nil
		}),

		vm.NewFunction("error", 2, vm.Usage{
			Instructions: "Builds an error value from a type tag and a message.",
			Parameters: []vm.Parameter{
				{Name: "type", Description: "The error type tag."},
				{Name: "message", Description: "The error message."},
			},
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var errType, message value.Value
			if err := in.Pop(&message); err != nil {
				return false, err
			}
			if err := in.Pop(&errType); err != nil {
				return false, err
			}
			ret.SetError(errType.AsString(), message.AsString(), "")
			return true, nil
		}),

		vm.NewFunction("iserror", 1, vm.Usage{
			Instructions: "Returns true if the value is an error.",
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var v value.Value
			if err := in.Pop(&v); err != nil {
				return false, err
			}
			ret.SetBool(v.Type() == value.TypeError)
			return true, nil
		}),

		vm.NewFunction("errortype", 1, vm.Usage{
			Instructions: "Returns an error's type tag, or null for non-errors.",
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var v value.Value
			if err := in.Pop(&v); err != nil {
				return false, err
			}
			if e := v.Error(); e != nil {
				ret.SetString(e.Type)
			}
			return true, nil
		}),

		vm.NewFunction("errormsg", 1, vm.Usage{
			Instructions: "Returns an error's message, or null for non-errors.",
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var v value.Value
			if err := in.Pop(&v); err != nil {
				return false, err
			}
			if e := v.Error(); e != nil {
				ret.SetString(e.Message)
			}
			return true, nil
		}),

		vm.NewFunction("errormap", 1, vm.Usage{
			Instructions: "Returns an error as a map with type, message, and localizedMessage keys.",
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var v value.Value
			if err := in.Pop(&v); err != nil {
				return false, err
			}
			if e := v.Error(); e != nil {
				ret.SetMap(e.ToMap())
			}
			return true, nil
		}),
	}
}

// PrintFunctions returns the print family, writing through the instance
// environment.
func PrintFunctions() []vm.HostFunction {
	write := func(errStream, newline bool) vm.ExecuteFunc {
		return func(in *vm.Instance, ret *value.Value) (bool, error) {
			var v value.Value
			if err := in.Pop(&v); err != nil {
				return false, err
			}
			s := v.AsString()
			if newline {
				s += "\n"
			}
			if errStream {
				in.Environment().PrintErr(s)
			} else {
				in.Environment().Print(s)
			}
			return true, nil
		}
	}
	return []vm.HostFunction{
		vm.NewFunction("print", 1, vm.Usage{
			Instructions: "Prints a value to standard output.",
		}, write(false, false)),
		vm.NewFunction("println", 1, vm.Usage{
			Instructions: "Prints a value and a newline to standard output.",
		}, write(false, true)),
		vm.NewFunction("printerr", 1, vm.Usage{
			Instructions: "Prints a value to standard error.",
		}, write(true, false)),
		vm.NewFunction("printlnerr", 1, vm.Usage{
			Instructions: "Prints a value and a newline to standard error.",
		}, write(true, true)),
	}
}

// SleepWaitType is the wait type used by the sleep host function, matched
// by ClockWaitHandler.
const SleepWaitType = "sleep"

// clockNow is the package clock, swapped out by tests.
var clockNow = time.Now

// WaitFunctions returns functions that park the instance. Embedders using
// them need a wait handler — ClockWaitHandler serves the sleep function.
func WaitFunctions() []vm.HostFunction {
	return []vm.HostFunction{
		vm.NewFunction("sleep", 1, vm.Usage{
			Instructions: "Pauses the script for a number of milliseconds.",
			Parameters:   []vm.Parameter{{Name: "millis", Description: "Milliseconds to sleep."}},
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			var millis value.Value
			if err := in.Pop(&millis); err != nil {
				return false, err
			}
			deadline := clockNow().UnixMilli() + millis.AsInt64()
			in.Wait(SleepWaitType, deadline)
			return false, nil
		}),

		vm.NewFunction("suspend", 0, vm.Usage{
			Instructions: "Suspends the script until the embedder resumes it.",
		}, func(in *vm.Instance, ret *value.Value) (bool, error) {
			in.Suspend()
			return false, nil
		}),
	}
}

// ClockWaitHandler resumes sleep waits once the wall clock passes the
// recorded deadline. Waits of any other type are left alone, so embedders
// can chain their own handler behind it.
type ClockWaitHandler struct {
	// Now is the clock, overridable for tests. Nil means time.Now.
	Now func() time.Time
}

// CanContinue implements vm.WaitHandler.
func (h *ClockWaitHandler) CanContinue(waitType, waitParameter *value.Value) bool {
	if waitType.AsString() != SleepWaitType {
		return false
	}
	now := clockNow
	if h.Now != nil {
		now = h.Now
	}
	return now().UnixMilli() >= waitParameter.AsInt64()
}

// Update implements vm.WaitHandler. The clock advances on its own.
func (h *ClockWaitHandler) Update(waitType, waitParameter *value.Value) {}

// Resolver bundles every function in this package into one resolver,
// ready to hand to an instance.
func Resolver() *vm.CompositeResolver {
	all := append(CommonFunctions(), PrintFunctions()...)
	all = append(all, WaitFunctions()...)
	return vm.NewCompositeResolver().With(vm.NewFunctionSet(all...))
}
