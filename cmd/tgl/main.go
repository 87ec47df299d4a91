// Command tgl runs the Text Generation Language interpreter: it reads a
// program from stdin or a positional file argument, loads the user
// library and persisted registers, runs the program, and on success
// writes registers back and shifts history.
package main

import (
	"fmt"
	"io"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
	flag "github.com/spf13/pflag"

	"tgl/internal/bytestr"
	"tgl/internal/interp"
)

const (
	exitSuccess       = 0
	exitProgramError  = 1
	exitHelp          = 2
	exitPlatformError = 253
	exitIOError       = 254
	exitOutOfMemory   = 255
)

var log = logrus.New()

func defaultPath(name string) string {
	home, err := homedir.Dir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return home + "/" + name
}

func main() {
	os.Exit(run())
}

func run() int {
	var libraryPath, regPersistPath, context string
	var help bool

	flag.StringVarP(&libraryPath, "library", "l", "", "user library file (default $HOME/.tgl)")
	flag.StringVarP(&regPersistPath, "register-persistence", "r", "", "register persistence file (default $HOME/.tgl_registers)")
	flag.StringVarP(&context, "context", "c", "", "sets the initial current context")
	flag.BoolVarP(&help, "help", "h", false, "show this help message")
	flag.Parse()

	if help {
		fmt.Fprintln(os.Stderr, "Usage: tgl [options] [infile]\nText Generation Language")
		flag.PrintDefaults()
		return exitHelp
	}
	if flag.NArg() > 1 {
		fmt.Fprintln(os.Stderr, "tgl: too many arguments")
		return exitHelp
	}

	if libraryPath == "" {
		libraryPath = defaultPath(".tgl")
	}
	if regPersistPath == "" {
		regPersistPath = defaultPath(".tgl_registers")
	}

	var input io.Reader = os.Stdin
	if flag.NArg() == 1 {
		f, err := os.Open(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "tgl: unable to open %s: %v\n", flag.Arg(0), err)
			return exitIOError
		}
		defer f.Close()
		input = f
	}

	cfg := interp.Config{
		LibraryPath: libraryPath,
		RegPersPath: regPersistPath,
		Context:     context,
		UserName:    os.Getenv("USER"),
		HistoryOn:   true,
	}
	it := interp.New(cfg)

	if err := it.LoadRegisters(regPersistPath); err != nil {
		log.WithError(err).Warn("register persistence file could not be loaded")
	} else {
		log.WithField("path", regPersistPath).Debug("register persistence loaded")
	}

	loadUserLibrary(it, libraryPath)

	data, err := io.ReadAll(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tgl: error reading input: %v\n", err)
		return exitIOError
	}

	log.WithField("bytes", len(data)).Debug("running primary input")
	status := execPrimary(it, bytestr.FromBytes(data))

	if status == exitSuccess {
		if err := it.SaveRegisters(regPersistPath); err != nil {
			log.WithError(err).Warn("could not write register persistence file")
		}
	}
	return status
}

// loadUserLibrary runs the user library file (if present) without recording
// it in the history ring, then discards any leftover stack, resets the
// history offset and re-enables history, matching the boot-sequence contract that
// library definitions never leak operands into the primary program.
func loadUserLibrary(it *interp.Interp, path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "tgl: unable to open user library: %v\n", err)
		}
		return
	}
	if err := it.Run(bytestr.FromBytes(data)); err != nil {
		fmt.Fprintln(os.Stderr, "tgl: error occurred in user library")
	}
	it.ResetAfterLibrary()
	it.SetHistoryEnabled(true)
}

func execPrimary(it *interp.Interp, source bytestr.String) int {
	if err := it.Run(source); err != nil {
		return exitProgramError
	}
	it.ShiftHistory(source)
	return exitSuccess
}
