package cpu

import (
	"errors"
	"fmt"
	"iter"
	"log"
	"maps"
)

const (
	REGISTER_COUNT = 32  // Size of the register file.
	MEMORY_SIZE    = 256 // Memory size, in 32-bit words.
	WORD_BYTES     = 4   // Bytes per memory word.
)

var _cpu_defines = map[string]string{
	"REGISTER_COUNT": fmt.Sprintf("%d", REGISTER_COUNT),
	"MEMORY_SIZE":    fmt.Sprintf("%d", MEMORY_SIZE),
	"WORD_BYTES":     fmt.Sprintf("%d", WORD_BYTES),
}

// Cpu is the architectural state and execution engine of the processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Register [REGISTER_COUNT]int32 // Register file. r0 is not hardwired.
	Memory   [MEMORY_SIZE]int32    // Word addressed memory.
	Pc       int                   // Program counter, as an instruction slot index.
	Length   int                   // Count of loaded instructions.
	Cycles   int                   // Completed instruction cycles.

	Stats Stats // Execution statistics.
}

// NewCpu creates a new CPU with cleared state.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("% 5s: %d\n", "pc", cpu.Pc)
	text += fmt.Sprintf("% 5s: %d\n", "cycle", cpu.Cycles)
	for n, val := range cpu.Register {
		text += fmt.Sprintf("% 5s: %04X_%04X\n", Reg(n).String(), uint32(val)>>16, uint32(val)&0xffff)
	}

	return
}

// Reset the CPU state.
// - Clears the registers and memory.
// - Zeros the program counter, program length and statistics.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Printf("cpu: reset")
	}

	clear(cpu.Register[:])
	clear(cpu.Memory[:])
	cpu.Pc = 0
	cpu.Length = 0
	cpu.Cycles = 0
	cpu.Stats = Stats{}
}

// LoadImage places instruction words in memory from slot 0, and
// sets the program length.
func (cpu *Cpu) LoadImage(words []uint32) (err error) {
	if len(words) > len(cpu.Memory) {
		err = ErrImageTooLarge
		return
	}

	for n, word := range words {
		cpu.Memory[n] = int32(word)
	}
	cpu.Length = len(words)

	if cpu.Verbose {
		log.Printf("cpu: loaded %d instructions", cpu.Length)
	}

	return
}

// Halted returns true once the program counter has reached the end of the program.
func (cpu *Cpu) Halted() bool {
	return cpu.Pc >= cpu.Length
}

// ReadRegister returns the value of a register.
//
// The bounds-checked accessors are for callers outside the engine.
// Execute indexes the register file directly, as decoded register
// fields are masked to five bits.
func (cpu *Cpu) ReadRegister(index int) (value int32, err error) {
	if index < 0 || index >= len(cpu.Register) {
		err = ErrRegisterBounds
		return
	}

	value = cpu.Register[index]
	return
}

// WriteRegister sets the value of a register.
func (cpu *Cpu) WriteRegister(index int, value int32) (err error) {
	if index < 0 || index >= len(cpu.Register) {
		err = ErrRegisterBounds
		return
	}

	cpu.Register[index] = value
	return
}

// ReadMemory returns the memory word at a word index.
func (cpu *Cpu) ReadMemory(addr int) (value int32, err error) {
	if addr < 0 || addr >= len(cpu.Memory) {
		err = ErrMemoryBounds
		return
	}

	value = cpu.Memory[addr]
	return
}

// WriteMemory sets the memory word at a word index.
func (cpu *Cpu) WriteMemory(addr int, value int32) (err error) {
	if addr < 0 || addr >= len(cpu.Memory) {
		err = ErrMemoryBounds
		return
	}

	cpu.Memory[addr] = value
	return
}

// Snapshot returns a copy of the architectural state.
func (cpu *Cpu) Snapshot() Snapshot {
	return Snapshot{
		Pc:       cpu.Pc,
		Length:   cpu.Length,
		Cycles:   cpu.Cycles,
		Register: cpu.Register,
		Memory:   cpu.Memory,
		Stats:    cpu.Stats,
	}
}

// FetchCode fetches the instruction at the program counter, and
// advances the program counter by one slot.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	if cpu.Pc < 0 || cpu.Pc >= len(cpu.Memory) {
		err = ErrPcBounds
		return
	}

	code = Code(uint32(cpu.Memory[cpu.Pc]))
	cpu.Pc++

	return
}

// Tick executes a single CPU instruction cycle.
//
// An unknown opcode or function code still completes the cycle, and
// the error is returned for the caller to report. Any other error
// aborts the cycle.
func (cpu *Cpu) Tick() (err error) {
	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	if err != nil && !errors.Is(err, ErrOpcodeUnknown) {
		return
	}

	cpu.Cycles++

	return
}

// effectiveAddress computes the word index of a load or store.
func (cpu *Cpu) effectiveAddress(code Code) (addr int, err error) {
	byteAddr := int64(cpu.Register[code.Rs()]) + int64(code.SImm())

	// Truncates toward zero, so unaligned addresses round down in magnitude.
	word := byteAddr / WORD_BYTES
	if word < 0 || word >= int64(len(cpu.Memory)) {
		err = fmt.Errorf("%w: %d", ErrMemoryBounds, word)
		return
	}

	addr = int(word)
	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()
	if cpu.Verbose {
		log.Printf("%03d: %v", cpu.Pc-1, code)
	}

	rs := code.Rs()
	rt := code.Rt()

	switch code.Op() {
	case OP_RTYPE:
		entry, ok := functMap[code.Funct()]
		if !ok {
			err = ErrFunctUnknown
			return
		}
		a := cpu.Register[rs]
		b := cpu.Register[rt]
		cpu.Register[code.Rd()] = cpu.doAlu(entry.Alu, a, b)
		cpu.Stats.countAlu(entry.Alu)
		cpu.Stats.countInstruction(entry.Mnemonic)
	case OP_J:
		cpu.Pc = int(code.Target())
		cpu.Stats.countInstruction(MNEMONIC_J)
	case OP_BEQ:
		// Compared by subtraction in the ALU.
		if cpu.doAlu(ALU_OP_SUB, cpu.Register[rs], cpu.Register[rt]) == 0 {
			cpu.Pc += int(code.SImm())
		}
		cpu.Stats.countAlu(ALU_OP_SUB)
		cpu.Stats.countInstruction(MNEMONIC_BEQ)
	case OP_ADDI:
		cpu.Register[rt] = cpu.doAlu(ALU_OP_ADDI, cpu.Register[rs], code.SImm())
		cpu.Stats.countAlu(ALU_OP_ADDI)
		cpu.Stats.countInstruction(MNEMONIC_ADDI)
	case OP_LW:
		var addr int
		addr, err = cpu.effectiveAddress(code)
		if err != nil {
			return
		}
		cpu.Register[rt] = cpu.Memory[addr]
		cpu.Stats.MemoryReads++
		cpu.Stats.countInstruction(MNEMONIC_LW)
	case OP_SW:
		var addr int
		addr, err = cpu.effectiveAddress(code)
		if err != nil {
			return
		}
		if cpu.Verbose {
			log.Printf("cpu: store %d in %d", cpu.Register[rt], addr)
		}
		cpu.Memory[addr] = cpu.Register[rt]
		cpu.Stats.MemoryWrites++
		cpu.Stats.countInstruction(MNEMONIC_SW)
	default:
		err = ErrOpcodeUnknown
		return
	}

	return
}

// doAlu performs the requested ALU action, and returns the output value.
func (cpu *Cpu) doAlu(op AluOp, a int32, b int32) (output int32) {
	switch op {
	case ALU_OP_ADD, ALU_OP_ADDI: // add
		output = a + b
	case ALU_OP_SUB: // sub
		output = a - b
	case ALU_OP_AND: // and
		output = a & b
	case ALU_OP_OR: // or
		output = a | b
	case ALU_OP_SLT: // slt
		if a < b {
			output = 1
		}
	}

	return
}
