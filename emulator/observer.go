package emulator

import (
	"github.com/ezrec/mipsim/cpu"
)

// Observer receives the CPU state before each cycle, and once after halting.
type Observer interface {
	// Update renders a state snapshot. It completes before the next fetch.
	Update(snap cpu.Snapshot)
}

// ObserverFunc adapts a function to an Observer.
type ObserverFunc func(snap cpu.Snapshot)

func (fn ObserverFunc) Update(snap cpu.Snapshot) {
	fn(snap)
}

// Diagnoser is implemented by observers that report non-fatal decode errors.
type Diagnoser interface {
	Diagnose(pc int, err error)
}
