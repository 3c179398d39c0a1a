// Package rom reads and writes program images.
//
// An image is a sequence of 4-byte big-endian instruction words,
// terminated by a zero word or by the end of the input. Zero always
// means end of program, so a zero instruction word cannot be loaded.
package rom

import (
	"encoding/binary"
	"errors"
	"io"
	"io/fs"
	"log"

	"github.com/ezrec/mipsim/cpu"
)

// Image is a loaded program.
type Image struct {
	Words []uint32 // Instruction words, without the terminator.
}

// Count returns the number of instructions in the image.
func (img *Image) Count() int {
	return len(img.Words)
}

// Loader reads images from a byte stream.
type Loader struct {
	Verbose  bool // If set, logs each loaded word.
	Capacity int  // Maximum words to load. Zero selects the CPU memory size.
}

// Load reads an image with the default loader.
func Load(input io.Reader) (img *Image, err error) {
	ld := &Loader{}
	return ld.Load(input)
}

// Open reads an image from a file system.
func Open(fsys fs.FS, name string) (img *Image, err error) {
	inf, err := fsys.Open(name)
	if err != nil {
		return
	}
	defer inf.Close()

	return Load(inf)
}

// Load reads words until a zero word or the end of input.
func (ld *Loader) Load(input io.Reader) (img *Image, err error) {
	capacity := ld.Capacity
	if capacity == 0 {
		capacity = cpu.MEMORY_SIZE
	}

	img = &Image{}

	var one [cpu.WORD_BYTES]byte
	for {
		var n int
		n, err = io.ReadFull(input, one[:])
		if errors.Is(err, io.EOF) {
			err = nil
			break
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			if ld.Verbose {
				log.Printf("rom: %d trailing bytes", n)
			}
			err = &ErrImage{Offset: img.Count(), Err: ErrPartialWord}
			img = nil
			return
		}
		if err != nil {
			err = &ErrImage{Offset: img.Count(), Err: err}
			img = nil
			return
		}

		word := binary.BigEndian.Uint32(one[:])
		if word == 0 {
			break
		}

		if img.Count() == capacity {
			err = &ErrImage{Offset: img.Count(), Err: cpu.ErrImageTooLarge}
			img = nil
			return
		}

		if ld.Verbose {
			log.Printf("rom: %03d: 0x%08x", img.Count(), word)
		}
		img.Words = append(img.Words, word)
	}

	return
}

// Write writes the image words, followed by the zero terminator.
func (img *Image) Write(output io.Writer) (err error) {
	for n, word := range img.Words {
		if word == 0 {
			err = &ErrImage{Offset: n, Err: ErrZeroWord}
			return
		}
	}

	buf := make([]byte, 0, (len(img.Words)+1)*cpu.WORD_BYTES)
	for _, word := range img.Words {
		buf = binary.BigEndian.AppendUint32(buf, word)
	}
	buf = binary.BigEndian.AppendUint32(buf, 0)

	_, err = output.Write(buf)
	return
}
