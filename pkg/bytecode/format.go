package bytecode

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
)

// Binary program format.
//
// Layout, all multi-byte fields big-endian:
//
//	magic   "RSCP" (4 bytes)
//	version u16
//	u32 instruction count
//	  per instruction: u8 opcode, operand, operand
//	  per operand: u8 kind, then payload by kind
//	    label/name/string: u32 length + UTF-8 bytes
//	    integer:           i64
//	    float:             f64 (IEEE-754 bits)
//	    bool:              u8
//	u32 label count,    per label:    string name, u32 index
//	u32 entry count,    per entry:    string name, u32 parameter count, u32 index
//	u32 function count, per function: same shape as entries
//
// The format carries no runtime state; it is only the executor's way of
// shipping a compiled Program to the core.

const (
	formatMagic   = "RSCP"
	formatVersion = 1

	// maxCount bounds every length field read from a file so a corrupt
	// header cannot drive a huge allocation.
	maxCount = 1 << 24
)

// ErrBadFormat reports a file that is not a serialized program, or one that
// is structurally damaged.
var ErrBadFormat = errors.New("bad program format")

// Encode writes the program in binary form.
func Encode(p *Program, w io.Writer) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(formatMagic); err != nil {
		return err
	}
	writeU16(bw, formatVersion)
	writeU32(bw, uint32(len(p.instructions)))
	for i := range p.instructions {
		in := &p.instructions[i]
		bw.WriteByte(byte(in.Op))
		writeOperand(bw, &in.Operand1)
		writeOperand(bw, &in.Operand2)
	}
	writeU32(bw, uint32(len(p.labels)))
	for name, index := range p.labels {
		writeString(bw, name)
		writeU32(bw, uint32(index))
	}
	writeEntries(bw, p.entries)
	writeEntries(bw, p.functions)
	return bw.Flush()
}

func writeEntries(bw *bufio.Writer, entries map[string]Entry) {
	writeU32(bw, uint32(len(entries)))
	for _, e := range entries {
		writeString(bw, e.Name)
		writeU32(bw, uint32(e.ParameterCount))
		writeU32(bw, uint32(e.Index))
	}
}

func writeU16(bw *bufio.Writer, v uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	bw.Write(buf[:])
}

func writeU32(bw *bufio.Writer, v uint32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	bw.Write(buf[:])
}

func writeU64(bw *bufio.Writer, v uint64) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	bw.Write(buf[:])
}

func writeString(bw *bufio.Writer, s string) {
	writeU32(bw, uint32(len(s)))
	bw.WriteString(s)
}

func writeOperand(bw *bufio.Writer, o *Operand) {
	bw.WriteByte(byte(o.Kind))
	switch o.Kind {
	case OperandLabel, OperandName, OperandString:
		writeString(bw, o.Text)
	case OperandInteger:
		writeU64(bw, uint64(o.Int))
	case OperandFloat:
		writeU64(bw, math.Float64bits(o.Float))
	case OperandBool:
		if o.Bool {
			bw.WriteByte(1)
		} else {
			bw.WriteByte(0)
		}
	}
}

// Decode reads a binary program. Counts, indices, and label references are
// validated, so a decoded program satisfies the same invariants as a
// freshly built one.
func Decode(r io.Reader) (*Program, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(formatMagic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("%w: missing magic", ErrBadFormat)
	}
	if string(magic) != formatMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrBadFormat, magic)
	}
	version, err := readU16(br)
	if err != nil {
		return nil, err
	}
	if version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadFormat, version)
	}

	count, err := readCount(br)
	if err != nil {
		return nil, err
	}
	instructions := make([]Instruction, count)
	for i := range instructions {
		op, err := br.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: truncated instruction %d", ErrBadFormat, i)
		}
		if Opcode(op) >= opcodeCount {
			return nil, fmt.Errorf("%w: unknown opcode %d", ErrBadFormat, op)
		}
		instructions[i].Op = Opcode(op)
		if err := readOperand(br, &instructions[i].Operand1); err != nil {
			return nil, err
		}
		if err := readOperand(br, &instructions[i].Operand2); err != nil {
			return nil, err
		}
	}

	labelCount, err := readCount(br)
	if err != nil {
		return nil, err
	}
	type label struct {
		name  string
		index int
	}
	labels := make([]label, labelCount)
	for i := range labels {
		name, err := readString(br)
		if err != nil {
			return nil, err
		}
		index, err := readU32(br)
		if err != nil {
			return nil, err
		}
		labels[i] = label{name, int(index)}
	}

	readEntryTable := func() ([]Entry, error) {
		count, err := readCount(br)
		if err != nil {
			return nil, err
		}
		out := make([]Entry, count)
		for i := range out {
			name, err := readString(br)
			if err != nil {
				return nil, err
			}
			params, err := readU32(br)
			if err != nil {
				return nil, err
			}
			index, err := readU32(br)
			if err != nil {
				return nil, err
			}
			out[i] = Entry{Name: name, ParameterCount: int(params), Index: int(index)}
		}
		return out, nil
	}
	entries, err := readEntryTable()
	if err != nil {
		return nil, err
	}
	functions, err := readEntryTable()
	if err != nil {
		return nil, err
	}

	// Tables bind to explicit indices, so the program is assembled directly
	// rather than replayed through the append-only Builder; the same label
	// validation runs below.
	p := &Program{
		instructions: instructions,
		labels:       make(map[string]int, labelCount),
		entries:      make(map[string]Entry, len(entries)),
		functions:    make(map[string]Entry, len(functions)),
	}
	for _, l := range labels {
		if l.index < 0 || l.index > len(instructions) {
			return nil, fmt.Errorf("%w: label %q index %d out of range", ErrBadFormat, l.name, l.index)
		}
		p.labels[l.name] = l.index
	}
	for _, e := range entries {
		if e.Index < 0 || e.Index > len(instructions) {
			return nil, fmt.Errorf("%w: entry %q index %d out of range", ErrBadFormat, e.Name, e.Index)
		}
		p.entries[strings.ToLower(e.Name)] = e
	}
	for _, e := range functions {
		if e.Index < 0 || e.Index > len(instructions) {
			return nil, fmt.Errorf("%w: function %q index %d out of range", ErrBadFormat, e.Name, e.Index)
		}
		p.functions[strings.ToLower(e.Name)] = e
	}
	for i := range p.instructions {
		in := &p.instructions[i]
		schema := Schema(in.Op)
		if !operandFits(schema.Operand1, false, &in.Operand1) ||
			!operandFits(schema.Operand2, schema.Operand2Optional, &in.Operand2) {
			return nil, fmt.Errorf("%w: instruction %d (%s) operands do not fit its schema", ErrBadFormat, i, in.Op)
		}
		for _, o := range []*Operand{&in.Operand1, &in.Operand2} {
			if o.Kind == OperandLabel {
				if _, ok := p.labels[o.Text]; !ok {
					return nil, fmt.Errorf("%w: instruction %d references unresolved label %q", ErrBadFormat, i, o.Text)
				}
			}
		}
	}
	return p, nil
}

func readU16(br *bufio.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: truncated", ErrBadFormat)
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readU32(br *bufio.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: truncated", ErrBadFormat)
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readU64(br *bufio.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(br, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: truncated", ErrBadFormat)
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readCount(br *bufio.Reader) (int, error) {
	v, err := readU32(br)
	if err != nil {
		return 0, err
	}
	if v > maxCount {
		return 0, fmt.Errorf("%w: count %d too large", ErrBadFormat, v)
	}
	return int(v), nil
}

func readString(br *bufio.Reader) (string, error) {
	n, err := readCount(br)
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br, buf); err != nil {
		return "", fmt.Errorf("%w: truncated string", ErrBadFormat)
	}
	return string(buf), nil
}

func readOperand(br *bufio.Reader, o *Operand) error {
	kind, err := br.ReadByte()
	if err != nil {
		return fmt.Errorf("%w: truncated operand", ErrBadFormat)
	}
	o.Kind = OperandKind(kind)
	switch o.Kind {
	case OperandNone, OperandNull:
	case OperandLabel, OperandName, OperandString:
		if o.Text, err = readString(br); err != nil {
			return err
		}
	case OperandInteger:
		v, err := readU64(br)
		if err != nil {
			return err
		}
		o.Int = int64(v)
	case OperandFloat:
		v, err := readU64(br)
		if err != nil {
			return err
		}
		o.Float = math.Float64frombits(v)
	case OperandBool:
		b, err := br.ReadByte()
		if err != nil {
			return fmt.Errorf("%w: truncated operand", ErrBadFormat)
		}
		o.Bool = b != 0
	default:
		return fmt.Errorf("%w: unknown operand kind %d", ErrBadFormat, kind)
	}
	return nil
}
