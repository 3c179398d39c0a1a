package cpu

import (
	"iter"
)

// Stats are the execution statistics of the CPU. Counters only increase.
type Stats struct {
	Alu          [ALU_OP_COUNT]int   // ALU operations, by op.
	Instruction  [MNEMONIC_COUNT]int // Executed instructions, by mnemonic.
	MemoryReads  int                 // Memory reads by lw.
	MemoryWrites int                 // Memory writes by sw.
}

func (st *Stats) countAlu(op AluOp) {
	st.Alu[op]++
}

func (st *Stats) countInstruction(mnemonic Mnemonic) {
	st.Instruction[mnemonic]++
}

// Total returns the number of executed instructions.
func (st *Stats) Total() (total int) {
	for _, count := range st.Instruction {
		total += count
	}
	return
}

// AluCounts iterates over the ALU operation counts, in op order.
func (st *Stats) AluCounts() iter.Seq2[AluOp, int] {
	return func(yield func(op AluOp, count int) bool) {
		for n, count := range st.Alu {
			if !yield(AluOp(n), count) {
				return
			}
		}
	}
}

// InstructionCounts iterates over the instruction counts, in mnemonic order.
func (st *Stats) InstructionCounts() iter.Seq2[Mnemonic, int] {
	return func(yield func(mnemonic Mnemonic, count int) bool) {
		for n, count := range st.Instruction {
			if !yield(Mnemonic(n), count) {
				return
			}
		}
	}
}
