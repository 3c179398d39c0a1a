// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

// Assembler is a single pass macro assembler for the MIPS subset.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]int      // Map of jump labels to instruction slots.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// regAlias maps the conventional register names to register numbers.
var regAlias = map[string]Reg{
	"zero": 0, "at": 1,
	"v0": 2, "v1": 3,
	"a0": 4, "a1": 5, "a2": 6, "a3": 7,
	"t0": 8, "t1": 9, "t2": 10, "t3": 11, "t4": 12, "t5": 13, "t6": 14, "t7": 15,
	"s0": 16, "s1": 17, "s2": 18, "s3": 19, "s4": 20, "s5": 21, "s6": 22, "s7": 23,
	"t8": 24, "t9": 25,
	"k0": 26, "k1": 27,
	"gp": 28, "sp": 29, "fp": 30, "ra": 31,
}

// resolve replaces a word by its equate, if it has one.
func (asm *Assembler) resolve(word string) string {
	if equate, ok := asm.Equate[word]; ok {
		return equate
	}
	return word
}

// register parses a register name: rN, $N or $alias.
func (asm *Assembler) register(word string) (reg Reg, err error) {
	word = asm.resolve(word)

	var num string
	switch {
	case strings.HasPrefix(word, "$"):
		num = word[1:]
		alias, ok := regAlias[num]
		if ok {
			reg = alias
			return
		}
	case strings.HasPrefix(word, "r"):
		num = word[1:]
	default:
		err = ErrRegisterInvalid
		return
	}

	n, perr := strconv.ParseUint(num, 10, 8)
	if perr != nil || n >= REGISTER_COUNT {
		err = ErrRegisterInvalid
		return
	}

	reg = Reg(n)
	return
}

// valueOf returns the value of a simple word.
func (asm *Assembler) valueOf(word string) (value int64, err error) {
	word = asm.resolve(word)

	invert := false
	if len(word) > 0 && word[0] == '~' {
		invert = true
		word = word[1:]
	}

	value, err = strconv.ParseInt(word, 0, 64)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}

	if invert {
		value = ^value
	}

	return
}

// immediate returns a value that fits in the 16-bit immediate field,
// either as a signed value or as raw bits.
func (asm *Assembler) immediate(word string) (imm int32, err error) {
	value, err := asm.valueOf(word)
	if err != nil {
		return
	}

	if value < -0x8000 || value > 0xffff {
		err = ErrImmediateRange
		return
	}

	imm = int32(value)
	return
}

var addressRe = regexp.MustCompile(`^([^()]*)\(([^()]+)\)$`)

// address parses an 'offset(base)' memory operand.
func (asm *Assembler) address(word string) (offset int32, base Reg, err error) {
	match := addressRe.FindStringSubmatch(word)
	if match == nil {
		err = ErrAddressSyntax
		return
	}

	base, err = asm.register(match[2])
	if err != nil {
		return
	}

	if len(match[1]) == 0 {
		return
	}

	offset, err = asm.immediate(match[1])
	return
}

var labelRe = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.]*$`)

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int64, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var value64 int64
		value64, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeInt64(value64)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value, ok = st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	return
}

// splitWords splits a line on blanks and commas.
func splitWords(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	re := regexp.MustCompile(`'\\?[^']'`)
	line = re.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	re = regexp.MustCompile(`\$\([^\$]*\)`)
	line = re.ReplaceAllStringFunc(line, func(str string) string {
		value, _err := asm.parenEval(str[2 : len(str)-1])
		if _err != nil {
			err = _err
		}
		return fmt.Sprintf("%v", value)
	})
	if err != nil {
		return
	}

	words = splitWords(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		if asm.Label == nil {
			asm.Label = make(map[string]int, 16)
		}
		asm.Label[label] = asm.currentIp()
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		// Local labels are unique per expansion site.
		prefix := fmt.Sprintf("%v_%v_", name, lineno)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", prefix)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// currentIp gets the current instruction slot.
func (asm *Assembler) currentIp() int {
	return len(asm.Opcode)
}

// Parse parses an input stream into a Program containing opcodes.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	clear(asm.Label)
	asm.Opcode = asm.Opcode[:0]
	if asm.Macro == nil {
		asm.Macro = make(map[string](*Macro))
	}
	clear(asm.Macro)
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		text, _, _ = strings.Cut(text, ";")
		text, _, _ = strings.Cut(text, "#")
		line = strings.TrimSpace(text)
		words := splitWords(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	if err = scanner.Err(); err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of jump labels.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		if len(op.LinkLabel) == 0 {
			continue
		}
		lineno = op.LineNo
		line = strings.Join(op.Words, " ")
		label := op.LinkLabel
		ip, ok := asm.Label[label]
		if !ok {
			err = ErrLabelMissing(label)
			return
		}
		switch op.Code.Op() {
		case OP_J:
			if ip < 0 || ip > 0x03ffffff {
				err = ErrTargetRange
				return
			}
			op.Code = MakeCodeJ(uint32(ip))
		case OP_BEQ:
			offset := ip - (op.Ip + 1)
			if offset < -0x8000 || offset > 0x7fff {
				err = ErrImmediateRange
				return
			}
			op.Code = MakeCodeI(OP_BEQ, op.Code.Rt(), op.Code.Rs(), int32(offset))
		default:
			log.Fatalf("Unable to link label '%s' to line %d: %v", label, op.LineNo, op.Words)
		}
	}

	prog = &Program{
		Opcodes: slices.Clone(asm.Opcode),
	}

	return
}

// rtypeMap maps R-type opcode names.
var rtypeMap = map[string]CodeFunct{
	"add": FUNCT_ADD,
	"sub": FUNCT_SUB,
	"and": FUNCT_AND,
	"or":  FUNCT_OR,
	"slt": FUNCT_SLT,
}

// memoryMap maps load/store opcode names.
var memoryMap = map[string]CodeOp{
	"lw": OP_LW,
	"sw": OP_SW,
}

// checkArgs verifies the operand count of an instruction.
func checkArgs(words []string, count int) (err error) {
	switch {
	case len(words) < count+1:
		err = ErrOpcodeMissing
	case len(words) > count+1:
		err = ErrOpcodeExtraArgs
	}
	return
}

// registers parses a list of register words.
func (asm *Assembler) registers(words ...string) (regs []Reg, err error) {
	for _, word := range words {
		var reg Reg
		reg, err = asm.register(word)
		if err != nil {
			return
		}
		regs = append(regs, reg)
	}
	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var code Code
	var label string
	var emit bool

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words

	defer func() {
		if !emit || err != nil {
			return
		}
		opcode := Opcode{LineNo: lineno, Ip: asm.currentIp(), Words: initial_words, Code: code, LinkLabel: label}
		asm.Opcode = append(asm.Opcode, opcode)
	}()

	// Alternate syntax substitutions
	switch {
	case len(words) == 1 && words[0] == "nop":
		// nop => add r0 r0 r0
		words = []string{"add", "r0", "r0", "r0"}
	case len(words) == 3 && words[0] == "move":
		// move rd rs => add rd rs r0
		words = []string{"add", words[1], words[2], "r0"}
	case len(words) == 3 && words[0] == "li":
		// li rt imm => addi rt r0 imm
		words = []string{"addi", words[1], "r0", words[2]}
	case len(words) == 2 && words[0] == "b":
		// b target => beq r0 r0 target
		words = []string{"beq", "r0", "r0", words[1]}
	default:
		// unchanged
	}

	if funct, ok := rtypeMap[words[0]]; ok {
		if err = checkArgs(words, 3); err != nil {
			return
		}
		var regs []Reg
		regs, err = asm.registers(words[1:]...)
		if err != nil {
			return
		}
		code = MakeCodeR(funct, regs[0], regs[1], regs[2])
		emit = true
		return
	}

	if op, ok := memoryMap[words[0]]; ok {
		if err = checkArgs(words, 2); err != nil {
			return
		}
		var rt, base Reg
		var offset int32
		rt, err = asm.register(words[1])
		if err != nil {
			return
		}
		offset, base, err = asm.address(words[2])
		if err != nil {
			return
		}
		code = MakeCodeI(op, rt, base, offset)
		emit = true
		return
	}

	switch words[0] {
	case "addi":
		if err = checkArgs(words, 3); err != nil {
			return
		}
		var regs []Reg
		regs, err = asm.registers(words[1:3]...)
		if err != nil {
			return
		}
		var imm int32
		imm, err = asm.immediate(words[3])
		if err != nil {
			return
		}
		code = MakeCodeI(OP_ADDI, regs[0], regs[1], imm)
	case "beq":
		if err = checkArgs(words, 3); err != nil {
			return
		}
		var regs []Reg
		regs, err = asm.registers(words[1:3]...)
		if err != nil {
			return
		}
		var imm int32
		if target := asm.resolve(words[3]); labelRe.MatchString(target) {
			label = target
		} else {
			imm, err = asm.immediate(words[3])
			if err != nil {
				return
			}
		}
		code = MakeCodeI(OP_BEQ, regs[1], regs[0], imm)
	case "j":
		if err = checkArgs(words, 1); err != nil {
			return
		}
		var target int64
		if name := asm.resolve(words[1]); labelRe.MatchString(name) {
			label = name
		} else {
			target, err = asm.valueOf(words[1])
			if err != nil {
				return
			}
			if target < 0 || target > 0x03ffffff {
				err = ErrTargetRange
				return
			}
		}
		code = MakeCodeJ(uint32(target))
	default:
		err = ErrInstructionInvalid
		return
	}

	emit = true
	return
}
