package cpu

import (
	"iter"
)

// Opcode represents a line of assembled code with its source location and generated instruction.
type Opcode struct {
	LineNo    int
	Ip        int
	Words     []string
	Code      Code
	LinkLabel string
}

// Program is an assembled instruction listing.
type Program struct {
	Opcodes []Opcode
}

type Debug struct {
	*Opcode
}

// Debug finds the opcode that was assembled into a slot.
func (prog *Program) Debug(ip int) (dbg Debug) {
	for n, op := range prog.Opcodes {
		if ip == op.Ip {
			dbg = Debug{
				Opcode: &prog.Opcodes[n],
			}
			break
		}
	}

	return
}

// Binary returns the loadable instruction words of the program.
// A zero word would terminate the image early, so it is refused.
func (prog *Program) Binary() (bins []uint32, err error) {
	for ip, code := range prog.Codes() {
		if code == 0 {
			err = &ErrSyntax{LineNo: prog.Debug(ip).LineNo, Err: ErrZeroWord}
			return
		}
		bins = append(bins, uint32(code))
	}

	return
}

// Codes iterates over the instruction slots and their codes.
func (prog *Program) Codes() iter.Seq2[int, Code] {
	return func(yield func(ip int, code Code) bool) {
		for _, op := range prog.Opcodes {
			if !yield(op.Ip, op.Code) {
				return
			}
		}
	}
}
