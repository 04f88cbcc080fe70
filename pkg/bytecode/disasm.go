package bytecode

import (
	"fmt"
	"io"
	"strings"
)

// Disassemble writes a round-trippable assembly listing of p: entry and
// function directives, labels, and one instruction per line. The output
// parses back through Assemble into an equivalent program.
func Disassemble(w io.Writer, p *Program) error {
	// Directives first, keyed by the instruction index they bind to; the
	// conventional entry_/function_ labels are skipped below.
	type directive struct {
		kind  string
		entry Entry
	}
	directives := make(map[int][]directive)
	for _, name := range p.EntryNames() {
		e, _ := p.Entry(name)
		directives[e.Index] = append(directives[e.Index], directive{".entry", e})
	}
	for _, name := range p.FunctionNames() {
		e, _ := p.Function(name)
		directives[e.Index] = append(directives[e.Index], directive{".function", e})
	}

	for i := 0; i <= p.Len(); i++ {
		for _, d := range directives[i] {
			if _, err := fmt.Fprintf(w, "%s %s %d\n", d.kind, d.entry.Name, d.entry.ParameterCount); err != nil {
				return err
			}
		}
		for _, label := range p.LabelsAt(i) {
			// entry_/function_ labels are re-created by the directives.
			if isDirectiveLabel(p, label, i) {
				continue
			}
			if _, err := fmt.Fprintf(w, "%s:\n", label); err != nil {
				return err
			}
		}
		if in := p.At(i); in != nil {
			if _, err := fmt.Fprintf(w, "    %s\n", in.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

func isDirectiveLabel(p *Program, label string, index int) bool {
	for _, prefix := range []string{"entry_", "function_"} {
		if !strings.HasPrefix(label, prefix) {
			continue
		}
		name := strings.TrimPrefix(label, prefix)
		var e Entry
		var ok bool
		if prefix == "entry_" {
			e, ok = p.Entry(name)
		} else {
			e, ok = p.Function(name)
		}
		if ok && e.Index == index {
			return true
		}
	}
	return false
}
