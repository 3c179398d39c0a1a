package rom

import (
	"errors"

	"github.com/ezrec/mipsim/translate"
)

var f = translate.From

var (
	// Image errors
	ErrPartialWord = errors.New(f("partial word at end of image"))
	ErrZeroWord    = errors.New(f("zero word inside image"))
)

// ErrImage indicates the word offset of an image error.
type ErrImage struct {
	Offset int
	Err    error
}

func (err *ErrImage) Error() string {
	return f("word %d %v", err.Offset, err.Err)
}

func (err *ErrImage) Unwrap() error {
	return err.Err
}
