// Package cpu implements the processor and assembler for a small MIPS subset.
//
// The CPU has thirty-two 32-bit registers, 256 words of word-addressed
// memory, and a program counter that counts instruction slots rather
// than bytes. Each Tick fetches, decodes and executes one instruction,
// and accrues ALU, instruction and memory access statistics.
//
// Supported instructions are add, sub, and, or, slt, addi, lw, sw, beq
// and j. Unknown opcodes complete the cycle without changing state.
//
// The assembler accepts the same subset, with labels, equates, macros,
// and compile-time expression evaluation.
package cpu
