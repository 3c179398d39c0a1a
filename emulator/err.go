package emulator

import (
	"errors"

	"github.com/ezrec/mipsim/translate"
)

var f = translate.From

var (
	ErrNoImage = errors.New(f("no image loaded"))
)

// ErrRuntime indicates the location of a runtime error.
type ErrRuntime struct {
	Pc     int // Slot of the failing instruction.
	Cycle  int // Completed cycles before the failure.
	LineNo int // Source line, if known.
	Err    error
}

func (err *ErrRuntime) Error() string {
	if err.LineNo > 0 {
		return f("line %d pc %d cycle %d %v", err.LineNo, err.Pc, err.Cycle, err.Err)
	}
	return f("pc %d cycle %d %v", err.Pc, err.Cycle, err.Err)
}

func (err *ErrRuntime) Unwrap() error {
	return err.Err
}
