package vm

import "github.com/rookscript/rookscript/pkg/value"

// WaitHandler advances a WAITING instance. The machine consults it only
// while the instance waits; waitType and waitParameter are whatever the
// host function passed to Wait and are opaque to the machine.
//
// Cancellation and timeouts belong to the handler: a host function that
// wants a deadline records it in waitParameter, and the handler's Update
// may call Resume or Terminate on the instance as it sees fit. The machine
// provides no implicit timer.
type WaitHandler interface {
	// CanContinue reports whether the wait is over. When it reports true
	// the machine resumes the instance and continues executing within the
	// same update tick.
	CanContinue(waitType, waitParameter *value.Value) bool
	// Update is called once per instance update while CanContinue reports
	// false.
	Update(waitType, waitParameter *value.Value)
}
