package view

import (
	"errors"
	"fmt"
	"io"

	"github.com/ezrec/mipsim/cpu"
)

// Text renders the full CPU state on every update.
type Text struct {
	writer
	Output io.Writer
}

// Update renders one block for the snapshot, followed by a blank line.
func (view *Text) Update(snap cpu.Snapshot) {
	view.printf(view.Output, "Cycle: %v", snap.Cycles)
	view.printf(view.Output, "PC: %v", snap.Pc)
	view.printf(view.Output, "Registers: %v", fmt.Sprint(snap.Register))
	view.printf(view.Output, "Memory: %v", fmt.Sprint(snap.Memory))
	view.printf(view.Output, "ALU Operations: %v", counts(snap.Stats.AluCounts()))
	view.printf(view.Output, "Memory Reads: %v", snap.Stats.MemoryReads)
	view.printf(view.Output, "Memory Writes: %v", snap.Stats.MemoryWrites)
	view.printf(view.Output, "Instructions Count: %v", counts(snap.Stats.InstructionCounts()))
	view.printf(view.Output, "")
}

// Diagnose reports an instruction that could not be decoded, on one line.
func (view *Text) Diagnose(pc int, err error) {
	cause := cpu.ErrOpcodeUnknown
	if errors.Is(err, cpu.ErrFunctUnknown) {
		cause = cpu.ErrFunctUnknown
	}

	var code cpu.ErrOpcode
	if !errors.As(err, &code) {
		view.printf(view.Output, "Unknown Opcode at pc %v: %v", pc, cause)
		return
	}

	view.printf(view.Output, "Unknown Opcode at pc %v: %v %v", pc, cause, cpu.Code(code))
}
