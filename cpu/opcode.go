package cpu

import (
	"fmt"
)

// CodeOp is the primary opcode, the top 6 bits of an instruction word.
type CodeOp uint32

const (
	OP_RTYPE = CodeOp(0)  // Register-register ALU, selected by funct.
	OP_J     = CodeOp(2)  // Unconditional jump to absolute slot.
	OP_BEQ   = CodeOp(4)  // Branch if equal, slot relative.
	OP_ADDI  = CodeOp(8)  // Add sign-extended immediate.
	OP_LW    = CodeOp(35) // Load word.
	OP_SW    = CodeOp(43) // Store word.
)

// CodeFunct is the R-type function code, the low 6 bits of an instruction word.
type CodeFunct uint32

const (
	FUNCT_ADD = CodeFunct(32)
	FUNCT_SUB = CodeFunct(34)
	FUNCT_AND = CodeFunct(36)
	FUNCT_OR  = CodeFunct(37)
	FUNCT_SLT = CodeFunct(42)
)

// AluOp is an ALU operation, as counted by the statistics.
type AluOp int

//go:generate go tool stringer -linecomment -type=AluOp
const (
	ALU_OP_ADD  = AluOp(0) // add
	ALU_OP_AND  = AluOp(1) // and
	ALU_OP_OR   = AluOp(2) // or
	ALU_OP_SUB  = AluOp(3) // sub
	ALU_OP_SLT  = AluOp(4) // slt
	ALU_OP_ADDI = AluOp(5) // addi

	ALU_OP_COUNT = 6
)

// Mnemonic is an instruction name, as counted by the statistics.
type Mnemonic int

//go:generate go tool stringer -linecomment -type=Mnemonic
const (
	MNEMONIC_ADD  = Mnemonic(0) // add
	MNEMONIC_AND  = Mnemonic(1) // and
	MNEMONIC_OR   = Mnemonic(2) // or
	MNEMONIC_SUB  = Mnemonic(3) // sub
	MNEMONIC_SLT  = Mnemonic(4) // slt
	MNEMONIC_ADDI = Mnemonic(5) // addi
	MNEMONIC_LW   = Mnemonic(6) // lw
	MNEMONIC_SW   = Mnemonic(7) // sw
	MNEMONIC_BEQ  = Mnemonic(8) // beq
	MNEMONIC_J    = Mnemonic(9) // j

	MNEMONIC_COUNT = 10
)

// functEntry is the decode of a supported R-type function.
type functEntry struct {
	Mnemonic Mnemonic
	Alu      AluOp
}

// functMap maps the supported R-type functions to their mnemonic and ALU op.
var functMap = map[CodeFunct]functEntry{
	FUNCT_ADD: {MNEMONIC_ADD, ALU_OP_ADD},
	FUNCT_SUB: {MNEMONIC_SUB, ALU_OP_SUB},
	FUNCT_AND: {MNEMONIC_AND, ALU_OP_AND},
	FUNCT_OR:  {MNEMONIC_OR, ALU_OP_OR},
	FUNCT_SLT: {MNEMONIC_SLT, ALU_OP_SLT},
}

// opMap maps the supported non R-type opcodes to their mnemonic.
var opMap = map[CodeOp]Mnemonic{
	OP_J:    MNEMONIC_J,
	OP_BEQ:  MNEMONIC_BEQ,
	OP_ADDI: MNEMONIC_ADDI,
	OP_LW:   MNEMONIC_LW,
	OP_SW:   MNEMONIC_SW,
}

// Reg is a register index. Decoded fields are always in 0..31.
type Reg uint8

// String returns the register name.
func (r Reg) String() string {
	return fmt.Sprintf("r%d", uint8(r))
}

// Code is a single 32-bit instruction word.
type Code uint32

// SignExtend reinterprets the low 'bits' bits of value as a two's
// complement signed number.
func SignExtend(value uint32, bits int) int32 {
	value &= uint32((uint64(1) << bits) - 1)
	if uint64(value) > (uint64(1)<<(bits-1))-1 {
		return int32(int64(value) - int64(1)<<bits)
	}
	return int32(value)
}

// MakeCodeR creates an R-type instruction.
func MakeCodeR(funct CodeFunct, rd, rs, rt Reg) Code {
	return Code((uint32(OP_RTYPE) << 26) |
		((uint32(rs) & 0x1f) << 21) |
		((uint32(rt) & 0x1f) << 16) |
		((uint32(rd) & 0x1f) << 11) |
		(uint32(funct) & 0x3f))
}

// MakeCodeI creates an immediate-form instruction.
// Only the low 16 bits of imm are encoded.
func MakeCodeI(op CodeOp, rt, rs Reg, imm int32) Code {
	return Code(((uint32(op) & 0x3f) << 26) |
		((uint32(rs) & 0x1f) << 21) |
		((uint32(rt) & 0x1f) << 16) |
		(uint32(imm) & 0xffff))
}

// MakeCodeJ creates a jump instruction to an absolute slot.
func MakeCodeJ(target uint32) Code {
	return Code((uint32(OP_J) << 26) | (target & 0x03ffffff))
}

// Op returns the primary opcode.
func (code Code) Op() CodeOp {
	return CodeOp(uint32(code) >> 26)
}

// Rs returns the first source register field.
func (code Code) Rs() Reg {
	return Reg((uint32(code) >> 21) & 0x1f)
}

// Rt returns the second source (or I-type target) register field.
func (code Code) Rt() Reg {
	return Reg((uint32(code) >> 16) & 0x1f)
}

// Rd returns the R-type destination register field.
func (code Code) Rd() Reg {
	return Reg((uint32(code) >> 11) & 0x1f)
}

// Shamt returns the shift amount field. No supported instruction uses it.
func (code Code) Shamt() uint32 {
	return (uint32(code) >> 6) & 0x1f
}

// Funct returns the R-type function code.
func (code Code) Funct() CodeFunct {
	return CodeFunct(uint32(code) & 0x3f)
}

// Imm returns the raw 16-bit immediate field.
func (code Code) Imm() uint16 {
	return uint16(uint32(code) & 0xffff)
}

// SImm returns the sign-extended 16-bit immediate field.
func (code Code) SImm() int32 {
	return SignExtend(uint32(code.Imm()), 16)
}

// Target returns the 26-bit absolute jump target.
func (code Code) Target() uint32 {
	return uint32(code) & 0x03ffffff
}

// Mnemonic decodes the instruction name, if supported.
func (code Code) Mnemonic() (mnemonic Mnemonic, ok bool) {
	op := code.Op()
	if op == OP_RTYPE {
		var entry functEntry
		entry, ok = functMap[code.Funct()]
		mnemonic = entry.Mnemonic
		return
	}

	mnemonic, ok = opMap[op]
	return
}

// String returns the instruction word and its decoded name.
func (code Code) String() string {
	mnemonic, ok := code.Mnemonic()
	if !ok {
		return fmt.Sprintf("0x%08x (?)", uint32(code))
	}
	return fmt.Sprintf("0x%08x (%v)", uint32(code), mnemonic)
}
