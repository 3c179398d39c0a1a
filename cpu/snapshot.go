package cpu

// Snapshot is a read-only copy of the CPU architectural state, as
// handed to observers.
type Snapshot struct {
	Pc       int
	Length   int
	Cycles   int
	Register [REGISTER_COUNT]int32
	Memory   [MEMORY_SIZE]int32
	Stats    Stats
}

// Halted returns true if the snapshot was taken after the program ended.
func (snap *Snapshot) Halted() bool {
	return snap.Pc >= snap.Length
}
