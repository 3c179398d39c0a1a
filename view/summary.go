package view

import (
	"fmt"
	"io"

	"github.com/ezrec/mipsim/cpu"
)

// Summary renders the final CPU state, once the program has halted.
type Summary struct {
	writer
	Output io.Writer
}

func (view *Summary) Update(snap cpu.Snapshot) {
	if !snap.Halted() {
		return
	}

	view.printf(view.Output, "Cycles: %v", snap.Cycles)
	view.printf(view.Output, "PC: %v", snap.Pc)
	view.printf(view.Output, "Registers: %v", fmt.Sprint(snap.Register))
	view.printf(view.Output, "ALU Operations: %v", counts(snap.Stats.AluCounts()))
	view.printf(view.Output, "Memory Reads: %v", snap.Stats.MemoryReads)
	view.printf(view.Output, "Memory Writes: %v", snap.Stats.MemoryWrites)
	view.printf(view.Output, "Instructions Count: %v", counts(snap.Stats.InstructionCounts()))
	view.printf(view.Output, "Instructions executed: %v", snap.Stats.Total())
}
