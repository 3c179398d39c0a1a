// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/ezrec/mipsim/cpu"
	"github.com/ezrec/mipsim/rom"
)

// State of the run loop.
type State int

//go:generate go tool stringer -linecomment -type=State
const (
	STATE_READY   = State(0) // ready
	STATE_RUNNING = State(1) // running
	STATE_HALTED  = State(2) // halted
	STATE_FAULTED = State(3) // faulted
)

// Emulator state. CPU + observer + pacing.
type Emulator struct {
	Verbose  bool          // If set, enables verbose logging.
	*cpu.Cpu               // Reference to the CPU simulation.
	Program  *cpu.Program  // Source listing of the loaded image, if assembled.
	Observer Observer      // Receives the CPU state every cycle. May be nil.
	Delay    time.Duration // Pause between cycles, for human pacing.

	state State
	fault error // Runtime error that stopped the CPU.
}

// NewEmulator creates a new emulator.
func NewEmulator() (emu *Emulator) {
	emu = &Emulator{
		Cpu: cpu.NewCpu(),
	}

	return
}

// State returns the run loop state.
func (emu *Emulator) State() State {
	return emu.state
}

// LoadImage resets the CPU, and loads a binary image.
func (emu *Emulator) LoadImage(img *rom.Image) (err error) {
	if img == nil {
		err = ErrNoImage
		return
	}

	emu.Cpu.Verbose = emu.Verbose
	emu.Cpu.Reset()
	emu.Program = nil
	emu.state = STATE_READY
	emu.fault = nil

	err = emu.Cpu.LoadImage(img.Words)

	return
}

// LoadProgram resets the CPU, and loads an assembled program.
func (emu *Emulator) LoadProgram(prog *cpu.Program) (err error) {
	words, err := prog.Binary()
	if err != nil {
		return
	}

	err = emu.LoadImage(&rom.Image{Words: words})
	if err != nil {
		return
	}

	emu.Program = prog

	return
}

// Ticks returns the completed cycles since the image was loaded.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Cycles
}

// LineNo returns the source line number for the instruction at the
// program counter, or 0 if unknown.
func (emu *Emulator) LineNo() int {
	if emu.Program == nil {
		return 0
	}

	dbg := emu.Program.Debug(emu.Cpu.Pc)
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.LineNo
}

// notify sends the current state to the observer.
func (emu *Emulator) notify() {
	if emu.Observer == nil {
		return
	}

	emu.Observer.Update(emu.Cpu.Snapshot())
}

// diagnose reports a non-fatal decode error.
func (emu *Emulator) diagnose(pc int, err error) {
	diag, ok := emu.Observer.(Diagnoser)
	if ok {
		diag.Diagnose(pc, err)
		return
	}

	log.Printf("emulator: pc %d: %v", pc, err)
}

// Tick performs a single cycle of the emulator.
//
// The observer is notified before the instruction is fetched. Once
// the program counter reaches the end of the program, the observer is
// notified a final time and done is returned. A runtime error stops
// the CPU, and is returned again by every later Tick until the next
// image is loaded.
func (emu *Emulator) Tick(ctx context.Context) (done bool, err error) {
	switch emu.state {
	case STATE_HALTED:
		done = true
		return
	case STATE_FAULTED:
		err = emu.fault
		return
	}

	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	if emu.Cpu.Halted() {
		emu.state = STATE_HALTED
		emu.notify()
		if emu.Verbose {
			log.Printf("emulator: halted at pc %d after %d cycles", emu.Cpu.Pc, emu.Cpu.Cycles)
		}
		done = true
		return
	}

	err = ctx.Err()
	if err != nil {
		return
	}

	emu.state = STATE_RUNNING
	emu.notify()

	pc := emu.Cpu.Pc
	lineno := emu.LineNo()

	err = emu.Cpu.Tick()
	if errors.Is(err, cpu.ErrOpcodeUnknown) {
		emu.diagnose(pc, err)
		err = nil
	}
	if err != nil {
		err = &ErrRuntime{Pc: pc, Cycle: emu.Cpu.Cycles, LineNo: lineno, Err: err}
		emu.state = STATE_FAULTED
		emu.fault = err
		return
	}

	if emu.Delay > 0 && !emu.Cpu.Halted() {
		timer := time.NewTimer(emu.Delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			err = ctx.Err()
		case <-timer.C:
		}
	}

	return
}

// Run ticks the emulator until the program halts, an error occurs, or
// the context is cancelled.
func (emu *Emulator) Run(ctx context.Context) (err error) {
	for done := false; !done; {
		done, err = emu.Tick(ctx)
		if err != nil {
			return
		}
	}

	return
}
