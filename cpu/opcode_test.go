package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeFields(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name   string
		code   Code
		op     CodeOp
		rs     Reg
		rt     Reg
		rd     Reg
		shamt  uint32
		funct  CodeFunct
		imm    uint16
		simm   int32
		target uint32
	}){
		{"add", 0x00221820, OP_RTYPE, 1, 2, 3, 0, FUNCT_ADD, 0x1820, 0x1820, 0x0221820},
		{"addi", 0x20040005, OP_ADDI, 0, 4, 0, 0, 5, 5, 5, 0x0040005},
		{"lw", 0x8c2afffc, OP_LW, 1, 10, 31, 31, 0x3c, 0xfffc, -4, 0x02afffc},
		{"j", 0x0bffffff, OP_J, 31, 31, 31, 31, 0x3f, 0xffff, -1, 0x3ffffff},
		{"shamt", 0x000007c0, OP_RTYPE, 0, 0, 0, 31, 0, 0x07c0, 0x07c0, 0x7c0},
	}

	for _, entry := range table {
		code := entry.code
		assert.Equal(entry.op, code.Op(), entry.name)
		assert.Equal(entry.rs, code.Rs(), entry.name)
		assert.Equal(entry.rt, code.Rt(), entry.name)
		assert.Equal(entry.rd, code.Rd(), entry.name)
		assert.Equal(entry.shamt, code.Shamt(), entry.name)
		assert.Equal(entry.funct, code.Funct(), entry.name)
		assert.Equal(entry.imm, code.Imm(), entry.name)
		assert.Equal(entry.simm, code.SImm(), entry.name)
		assert.Equal(entry.target, code.Target(), entry.name)
	}
}

func TestSignExtend(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(int32(0), SignExtend(0, 16))
	assert.Equal(int32(1), SignExtend(1, 16))
	assert.Equal(int32(32767), SignExtend(0x7fff, 16))
	assert.Equal(int32(-32768), SignExtend(0x8000, 16))
	assert.Equal(int32(-1), SignExtend(0xffff, 16))
	assert.Equal(int32(-2), SignExtend(0xfffe, 16))

	// Bits above the field are ignored.
	assert.Equal(int32(-1), SignExtend(0x1ffff, 16))

	assert.Equal(int32(-1), SignExtend(0xffffffff, 32))
	assert.Equal(int32(-8), SignExtend(0x8, 4))
	assert.Equal(int32(7), SignExtend(0x7, 4))
}

func TestSignExtendRoundTrip(t *testing.T) {
	assert := assert.New(t)

	for value := int32(-32768); value <= 32767; value++ {
		encoded := uint32(uint16(value))
		if !assert.Equal(value, SignExtend(encoded, 16)) {
			break
		}
	}
}

func TestMakeCode(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(Code(0x00221820), MakeCodeR(FUNCT_ADD, 3, 1, 2))
	assert.Equal(Code(0x20040005), MakeCodeI(OP_ADDI, 4, 0, 5))
	assert.Equal(Code(0x10000002), MakeCodeI(OP_BEQ, 0, 0, 2))
	assert.Equal(Code(0x1022ffff), MakeCodeI(OP_BEQ, 2, 1, -1))
	assert.Equal(Code(0xac220008), MakeCodeI(OP_SW, 2, 1, 8))
	assert.Equal(Code(0x08000010), MakeCodeJ(16))
	assert.Equal(Code(0x0bffffff), MakeCodeJ(0xffffffff))
}

func TestCodeMnemonic(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		code     Code
		mnemonic Mnemonic
		ok       bool
	}){
		{MakeCodeR(FUNCT_ADD, 1, 2, 3), MNEMONIC_ADD, true},
		{MakeCodeR(FUNCT_SUB, 1, 2, 3), MNEMONIC_SUB, true},
		{MakeCodeR(FUNCT_AND, 1, 2, 3), MNEMONIC_AND, true},
		{MakeCodeR(FUNCT_OR, 1, 2, 3), MNEMONIC_OR, true},
		{MakeCodeR(FUNCT_SLT, 1, 2, 3), MNEMONIC_SLT, true},
		{MakeCodeI(OP_ADDI, 1, 2, 3), MNEMONIC_ADDI, true},
		{MakeCodeI(OP_LW, 1, 2, 3), MNEMONIC_LW, true},
		{MakeCodeI(OP_SW, 1, 2, 3), MNEMONIC_SW, true},
		{MakeCodeI(OP_BEQ, 1, 2, 3), MNEMONIC_BEQ, true},
		{MakeCodeJ(3), MNEMONIC_J, true},
		{Code(0), 0, false},
		{MakeCodeR(CodeFunct(33), 1, 2, 3), 0, false},
		{Code(0xfc000000), 0, false},
	}

	for _, entry := range table {
		mnemonic, ok := entry.code.Mnemonic()
		assert.Equal(entry.ok, ok, entry.code.String())
		if entry.ok {
			assert.Equal(entry.mnemonic, mnemonic, entry.code.String())
		}
	}

	assert.Equal("0x00221820 (add)", Code(0x00221820).String())
	assert.Equal("0xfc000000 (?)", Code(0xfc000000).String())
}

func TestEnumStrings(t *testing.T) {
	assert := assert.New(t)

	names := []string{}
	for n := range ALU_OP_COUNT {
		names = append(names, AluOp(n).String())
	}
	assert.Equal([]string{"add", "and", "or", "sub", "slt", "addi"}, names)

	names = names[:0]
	for n := range MNEMONIC_COUNT {
		names = append(names, Mnemonic(n).String())
	}
	assert.Equal([]string{"add", "and", "or", "sub", "slt", "addi", "lw", "sw", "beq", "j"}, names)

	assert.Equal("AluOp(6)", AluOp(6).String())
	assert.Equal("Mnemonic(-1)", Mnemonic(-1).String())
	assert.Equal("r31", Reg(31).String())
}
