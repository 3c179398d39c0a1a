// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/ezrec/mipsim/cpu"
	"github.com/ezrec/mipsim/emulator"
	"github.com/ezrec/mipsim/rom"
	"github.com/ezrec/mipsim/translate"
	"github.com/ezrec/mipsim/view"
)

// viewer is an observer that remembers its first write error.
type viewer interface {
	emulator.Observer
	Err() error
}

func main() {
	var compile string
	var save bool
	var input string
	var output string
	var delay time.Duration
	var quiet bool
	var verbose bool
	var lang string

	flag.StringVar(&compile, "c", "", ".s file to assemble")
	flag.BoolVar(&save, "s", false, "Save assembled image, do not execute")
	flag.StringVar(&input, "i", "", "Image input")
	flag.StringVar(&output, "o", "-", "Image output, with -s")
	flag.DurationVar(&delay, "d", 0, "Delay between cycles")
	flag.BoolVar(&quiet, "q", false, "Only show the final state")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")
	flag.StringVar(&lang, "l", "", "Output language, as a BCP 47 tag")

	flag.Parse()

	if len(lang) != 0 {
		translate.Use(lang)
	}

	switch {
	case flag.NArg() == 1 && len(input) == 0:
		input = flag.Arg(0)
	case flag.NArg() != 0:
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	if len(compile) == 0 && len(input) == 0 {
		log.Fatalf("%v: One of -c or -i is required", os.Args[0])
	}

	if save && len(compile) == 0 {
		log.Fatalf("%v: -s requires -c", os.Args[0])
	}

	var prog *cpu.Program
	var img *rom.Image

	// Assemble a new instruction stream.
	if len(compile) != 0 {
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &cpu.Assembler{Verbose: verbose}
		for key, value := range cpu.NewCpu().Defines() {
			asm.Predefine(key, value)
		}
		prog, err = asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}

		words, err := prog.Binary()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		img = &rom.Image{Words: words}
	}

	if save {
		var ouf io.Writer = os.Stdout
		if output != "-" {
			file, err := os.Create(output)
			if err != nil {
				log.Fatalf("%v: %v", output, err)
			}
			defer file.Close()
			ouf = file
		}

		err := img.Write(ouf)
		if err != nil {
			log.Fatalf("%v: %v", output, err)
		}
		return
	}

	// Load a binary image, if not assembled.
	if img == nil {
		var inf io.Reader = os.Stdin
		if input != "-" {
			file, err := os.Open(input)
			if err != nil {
				log.Fatalf("%v: %v", input, err)
			}
			defer file.Close()
			inf = file
		}

		var err error
		ld := &rom.Loader{Verbose: verbose}
		img, err = ld.Load(inf)
		if err != nil {
			log.Fatalf("%v: %v", input, err)
		}
	}

	var observer viewer
	if quiet {
		observer = &view.Summary{Output: os.Stdout}
	} else {
		observer = &view.Text{Output: os.Stdout}
	}

	emu := emulator.NewEmulator()
	emu.Verbose = verbose
	emu.Delay = delay
	emu.Observer = observer

	var err error
	if prog != nil {
		err = emu.LoadProgram(prog)
	} else {
		err = emu.LoadImage(img)
	}
	if err != nil {
		log.Fatal(err)
	}

	err = view.Loaded(os.Stdout, emu.Length)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err = emu.Run(ctx)
	if err != nil {
		log.Fatal(err)
	}

	if err = observer.Err(); err != nil {
		log.Fatal(err)
	}
}
