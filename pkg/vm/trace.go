package vm

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rookscript/rookscript/pkg/bytecode"
)

// traceStep logs one dispatched instruction at Debug level. With the
// default nop logger the level check makes this a single branch, so the
// tracer costs nothing unless an embedder opts in with WithLogger.
func (in *Instance) traceStep(index int, instr *bytecode.Instruction) {
	ce := in.logger.Check(zapcore.DebugLevel, "execute")
	if ce == nil {
		return
	}
	fields := []zap.Field{
		zap.String("instance", in.id),
		zap.Int("frame", in.stack.FrameDepth()),
		zap.Int("index", index),
		zap.Stringer("op", instr.Op),
		zap.Int("operands", in.stack.Depth()),
	}
	if instr.Operand1.Kind != bytecode.OperandNone {
		fields = append(fields, zap.String("operand1", instr.Operand1.String()))
	}
	if instr.Operand2.Kind != bytecode.OperandNone {
		fields = append(fields, zap.String("operand2", instr.Operand2.String()))
	}
	ce.Write(fields...)
}
