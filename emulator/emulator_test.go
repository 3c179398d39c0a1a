package emulator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/mipsim/cpu"
	"github.com/ezrec/mipsim/rom"
)

// recorder collects observer notifications and diagnostics.
type recorder struct {
	updates []cpu.Snapshot
	pcs     []int
	errs    []error
}

func (rec *recorder) Update(snap cpu.Snapshot) {
	rec.updates = append(rec.updates, snap)
}

func (rec *recorder) Diagnose(pc int, err error) {
	rec.pcs = append(rec.pcs, pc)
	rec.errs = append(rec.errs, err)
}

func newTestEmulator(t *testing.T, words ...uint32) (emu *Emulator, rec *recorder) {
	rec = &recorder{}
	emu = NewEmulator()
	emu.Observer = rec
	require.NoError(t, emu.LoadImage(&rom.Image{Words: words}))
	return
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu, rec := newTestEmulator(t,
		0x00221820, // add r3, r1, r2
		0x20040005, // addi r4, r0, 5
		0x10000002, // beq r0, r0, 2
	)
	assert.Equal(STATE_READY, emu.State())

	err := emu.Run(context.Background())
	assert.NoError(err)

	assert.Equal(STATE_HALTED, emu.State())
	assert.Equal(3, emu.Length)
	assert.Equal(5, emu.Pc)
	assert.Equal(3, emu.Ticks())
	assert.Equal(int32(5), emu.Register[4])

	// One notification per cycle, plus the final one.
	require.Equal(t, 4, len(rec.updates))
	for n, pc := range []int{0, 1, 2, 5} {
		assert.Equal(pc, rec.updates[n].Pc, "update %d", n)
		assert.Equal(n, rec.updates[n].Cycles, "update %d", n)
	}
	assert.True(rec.updates[3].Halted())
	assert.Equal(0, len(rec.errs))
}

func TestEmulatorEmpty(t *testing.T) {
	assert := assert.New(t)

	emu, rec := newTestEmulator(t)

	done, err := emu.Tick(context.Background())
	assert.NoError(err)
	assert.True(done)
	assert.Equal(STATE_HALTED, emu.State())
	assert.Equal(1, len(rec.updates))
	assert.Equal(0, emu.Ticks())
}

func TestEmulatorHaltedIsFinal(t *testing.T) {
	assert := assert.New(t)

	emu, rec := newTestEmulator(t, 0x20040005)

	assert.NoError(emu.Run(context.Background()))
	assert.Equal(2, len(rec.updates))

	for range 3 {
		done, err := emu.Tick(context.Background())
		assert.NoError(err)
		assert.True(done)
	}
	assert.Equal(2, len(rec.updates))
	assert.Equal(1, emu.Ticks())
}

func TestEmulatorNoObserver(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assert.NoError(emu.LoadImage(&rom.Image{Words: []uint32{0x20040005}}))
	assert.NoError(emu.Run(context.Background()))
	assert.Equal(int32(5), emu.Register[4])
}

func TestEmulatorNoImage(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	assert.ErrorIs(emu.LoadImage(nil), ErrNoImage)

	words := make([]uint32, cpu.MEMORY_SIZE+1)
	for n := range words {
		words[n] = 0x00000020
	}
	assert.ErrorIs(emu.LoadImage(&rom.Image{Words: words}), cpu.ErrImageTooLarge)
}

func TestEmulatorReload(t *testing.T) {
	assert := assert.New(t)

	emu, _ := newTestEmulator(t, 0x20040005)
	assert.NoError(emu.Run(context.Background()))
	assert.Equal(STATE_HALTED, emu.State())

	assert.NoError(emu.LoadImage(&rom.Image{Words: []uint32{0x20050007}}))
	assert.Equal(STATE_READY, emu.State())
	assert.Equal(0, emu.Pc)
	assert.Equal(int32(0), emu.Register[4])

	assert.NoError(emu.Run(context.Background()))
	assert.Equal(int32(7), emu.Register[5])
}

func TestEmulatorUnknownOpcode(t *testing.T) {
	assert := assert.New(t)

	emu, rec := newTestEmulator(t,
		0xfc000000, // op 63
		0x00221800, // funct 0
		0x20040005, // addi r4, r0, 5
	)

	err := emu.Run(context.Background())
	assert.NoError(err)

	assert.Equal(3, emu.Ticks())
	assert.Equal(int32(5), emu.Register[4])
	assert.Equal([]int{0, 1}, rec.pcs)
	require.Equal(t, 2, len(rec.errs))
	assert.ErrorIs(rec.errs[0], cpu.ErrOpcodeUnknown)
	assert.ErrorIs(rec.errs[1], cpu.ErrFunctUnknown)
	assert.Equal(1, emu.Stats.Total())
}

func TestEmulatorUnknownOpcodeLogged(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator()
	emu.Observer = ObserverFunc(func(snap cpu.Snapshot) {})
	assert.NoError(emu.LoadImage(&rom.Image{Words: []uint32{0xfc000000}}))

	assert.NoError(emu.Run(context.Background()))
	assert.Equal(1, emu.Ticks())
}

func TestEmulatorRuntimeError(t *testing.T) {
	assert := assert.New(t)

	emu, rec := newTestEmulator(t,
		0x20040005, // addi r4, r0, 5
		0x8c010400, // lw r1, 0x400(r0)
		0x20050007, // addi r5, r0, 7
	)

	err := emu.Run(context.Background())
	assert.ErrorIs(err, cpu.ErrMemoryBounds)

	var rerr *ErrRuntime
	require.True(t, errors.As(err, &rerr))
	assert.Equal(1, rerr.Pc)
	assert.Equal(1, rerr.Cycle)
	assert.Equal(0, rerr.LineNo)
	assert.Equal(STATE_FAULTED, emu.State())
	assert.Equal(int32(0), emu.Register[5])
	assert.Equal(2, len(rec.updates))

	// The fault is sticky until the next image is loaded.
	for range 2 {
		again := emu.Run(context.Background())
		assert.Same(rerr, again)
		assert.Equal(STATE_FAULTED, emu.State())
		assert.Equal(int32(0), emu.Register[5])
		assert.Equal(1, emu.Ticks())
		assert.Equal(2, len(rec.updates))
	}

	done, err := emu.Tick(context.Background())
	assert.False(done)
	assert.ErrorIs(err, cpu.ErrMemoryBounds)

	assert.NoError(emu.LoadImage(&rom.Image{Words: []uint32{0x20050007}}))
	assert.Equal(STATE_READY, emu.State())
	assert.NoError(emu.Run(context.Background()))
	assert.Equal(int32(7), emu.Register[5])
}

func TestEmulatorCancel(t *testing.T) {
	assert := assert.New(t)

	emu, rec := newTestEmulator(t, 0x08000000) // j 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := emu.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(0, emu.Ticks())
	assert.Equal(0, len(rec.updates))
	assert.Equal(STATE_READY, emu.State())
}

func TestEmulatorDelay(t *testing.T) {
	assert := assert.New(t)

	emu, rec := newTestEmulator(t, 0x08000000) // j 0
	emu.Delay = 10 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 55*time.Millisecond)
	defer cancel()

	err := emu.Run(ctx)
	assert.ErrorIs(err, context.DeadlineExceeded)
	assert.Less(emu.Ticks(), 10)
	assert.GreaterOrEqual(emu.Ticks(), 1)
	assert.Equal(emu.Ticks(), len(rec.updates))
}

func TestEmulatorProgram(t *testing.T) {
	assert := assert.New(t)

	source := []string{
		"        li r1, 4",
		"        li r2, 0",
		"loop:   beq r1, r0, done",
		"        add r2, r2, r1",
		"        addi r1, r1, -1",
		"        j loop",
		"done:   sw r2, 0x100(r0)",
	}

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(source, "\n")))
	require.NoError(t, err)

	emu := NewEmulator()
	require.NoError(t, emu.LoadProgram(prog))
	assert.Equal(7, emu.Length)

	assert.NoError(emu.Run(context.Background()))
	assert.Equal(int32(10), emu.Memory[64])
	assert.Equal(int32(0), emu.Register[1])
	assert.Equal(20, emu.Ticks())
	assert.Equal(1, emu.Stats.MemoryWrites)
}

func TestEmulatorProgramLineNo(t *testing.T) {
	assert := assert.New(t)

	source := []string{
		"; fault on the second line of code",
		"nop",
		"lw r1, 0x400(r0)",
	}

	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(source, "\n")))
	require.NoError(t, err)

	emu := NewEmulator()
	require.NoError(t, emu.LoadProgram(prog))

	err = emu.Run(context.Background())
	var rerr *ErrRuntime
	require.True(t, errors.As(err, &rerr))
	assert.Equal(3, rerr.LineNo)
	assert.Equal(1, rerr.Pc)
	assert.Contains(err.Error(), "line 3")
}

func TestEmulatorProgramZeroWord(t *testing.T) {
	assert := assert.New(t)

	prog := &cpu.Program{Opcodes: []cpu.Opcode{
		{LineNo: 1, Ip: 0, Code: 0x00000020},
		{LineNo: 2, Ip: 1, Code: 0},
	}}

	emu := NewEmulator()
	assert.ErrorIs(emu.LoadProgram(prog), cpu.ErrZeroWord)
}

func TestStateString(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("ready", STATE_READY.String())
	assert.Equal("running", STATE_RUNNING.String())
	assert.Equal("halted", STATE_HALTED.String())
	assert.Equal("faulted", STATE_FAULTED.String())
	assert.Equal("State(4)", State(4).String())
}
