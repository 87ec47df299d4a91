package interp

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"

	"tgl/internal/bytestr"
)

// invokeExternal runs argv[0] with the remaining entries as arguments,
// piping input to its stdin and capturing its stdout. Stderr is inherited.
// If returnStatus is non-nil, the exit code is written there instead of a
// non-zero exit being treated as an error.
func invokeExternal(argv []string, input bytestr.String, returnStatus *int64) (bytestr.String, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdin = bytes.NewReader(input.Bytes())
	cmd.Stderr = os.Stderr
	var out bytes.Buffer
	cmd.Stdout = &out

	err := cmd.Run()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			if returnStatus != nil {
				*returnStatus = int64(exitErr.ExitCode())
				return bytestr.FromBytes(out.Bytes()), nil
			}
			return bytestr.String{}, fmt.Errorf("child process %s exited with code %d", argv[0], exitErr.ExitCode())
		}
		return bytestr.String{}, fmt.Errorf("running %s: %v", argv[0], err)
	}
	if returnStatus != nil {
		*returnStatus = 0
	}
	return bytestr.FromBytes(out.Bytes()), nil
}

// cmdShellScript implements `b`: pop (script, input), run it via
// `$SHELL -c script` with input piped to stdin, and push the captured
// stdout. Secondary arg 0, if given, names a register to receive the exit
// status instead of treating a non-zero exit as an error.
func cmdShellScript(it *Interp) error {
	var statusReg byte
	if err := it.secondaryArgAsReg(0, &statusReg); err != nil {
		return err
	}
	wantStatus := it.sec.slots[0] != nil

	shell := os.Getenv("SHELL")
	if shell == "" {
		return errMissingShell
	}

	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	script, input := vs[0], vs[1]

	var statusPtr *int64
	var status int64
	if wantStatus {
		statusPtr = &status
	}

	out, rerr := invokeExternal([]string{shell, "-c", script.String()}, input, statusPtr)
	if rerr != nil {
		it.PushBackN([]bytestr.String{script, input})
		return rerr
	}

	if wantStatus {
		it.WriteRegister(statusReg, bytestr.FormatInt(status))
	}
	it.Push(out)
	it.sec.reset()
	return nil
}

// cmdShellCommand implements `B`: build an argv either from secondary
// arguments (arg0 = how many of the lowest stack entries to exclude from
// the command, arg1 = status register) or, with no secondary arguments, by
// popping an explicit argument count followed by that many strings. Either
// way the next value below is piped to the command's stdin.
func cmdShellCommand(it *Interp) error {
	var statusReg byte
	if err := it.secondaryArgAsReg(1, &statusReg); err != nil {
		return err
	}
	wantStatus := it.sec.slots[1] != nil

	var argc int64
	usingSecondaryCount := it.sec.slots[0] != nil
	if usingSecondaryCount {
		excl, err := it.secondaryArgAsInt(0, 0)
		if err != nil {
			return err
		}
		height := int64(it.Depth())
		if excl >= height {
			return it.errorf("invalid secondary argument")
		}
		argc = height - excl
		if argc == 0 {
			return it.errorf("empty shell command")
		}
	} else {
		if it.Depth() == 0 {
			return errStackUnderflow
		}
		argcStr := it.Pop()
		n, perr := argcStr.ParseInt()
		if perr != nil {
			it.Push(argcStr)
			return it.errorf("invalid integer: %q", argcStr.String())
		}
		if n <= 0 || n >= 4096 {
			it.Push(argcStr)
			return it.errorf("invalid number of arguments: %q", argcStr.String())
		}
		argc = n
	}

	if int64(it.Depth()) < argc+1 {
		return errStackUnderflow
	}

	args, err := it.PopN(int(argc))
	if err != nil {
		return err
	}
	input := it.Pop()

	argv := make([]string, argc)
	for i, a := range args {
		argv[i] = a.String()
	}

	var statusPtr *int64
	var status int64
	if wantStatus {
		statusPtr = &status
	}

	out, rerr := invokeExternal(argv, input, statusPtr)
	if rerr != nil {
		it.Push(input)
		it.PushBackN(args)
		return rerr
	}

	if wantStatus {
		it.WriteRegister(statusReg, bytestr.FormatInt(status))
	}
	it.Push(out)
	it.sec.reset()
	return nil
}

// cmdSed implements `j`: either reads an inline script directly out of the
// code stream (`jr<delim>script<delim>flags`, repeatable with `;`
// separators) or, when no inline script follows the command byte, pops
// (script, input) from the stack. The script is handed to sed -r.
func cmdSed(it *Interp) error {
	code := it.frame.code.Bytes()
	begin := it.frame.ip + 1
	ip := begin

	for ip < len(code) {
		ip++ // past 'r' or ';'
		if ip >= len(code) || !isAlpha(code[ip]) {
			ip--
			break
		}
		ip++
		if ip >= len(code) {
			ip--
			break
		}
		delim := code[ip]
		ip++
		seenMiddle := false
		for ip < len(code) && (!seenMiddle || code[ip] != delim) {
			if code[ip] == delim {
				seenMiddle = true
			}
			ip++
		}
		if ip >= len(code) {
			return it.errorf("sed script runs past end of input")
		}
		ip++ // past closing delim
		for ip < len(code) && isAlpha(code[ip]) {
			ip++
		}
		if ip >= len(code) || code[ip] != ';' {
			break
		}
	}

	var script bytestr.String
	var input bytestr.String
	var poppedScript bool

	if ip == begin {
		vs, err := it.PopN(2)
		if err != nil {
			return err
		}
		script, input = vs[0], vs[1]
		poppedScript = true
	} else {
		script = bytestr.FromBytes(code[begin:ip])
		if it.Depth() == 0 {
			return errStackUnderflow
		}
		input = it.Pop()
	}

	it.frame.ip = ip - 1

	sedPath := it.cfg.SedPath
	if sedPath == "" {
		sedPath = "sed"
	}
	out, rerr := invokeExternal([]string{sedPath, "-r", script.String()}, input, nil)
	if rerr != nil {
		if poppedScript {
			it.PushBackN([]bytestr.String{script, input})
		} else {
			it.Push(input)
		}
		return rerr
	}
	it.Push(out)
	return nil
}

func isAlpha(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// cmdPerl implements `J`: pop (script, input), run `perl -E script` with
// input on stdin, push stdout.
func cmdPerl(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	script, input := vs[0], vs[1]

	perlPath := it.cfg.PerlPath
	if perlPath == "" {
		perlPath = "perl"
	}
	out, rerr := invokeExternal([]string{perlPath, "-E", script.String()}, input, nil)
	if rerr != nil {
		it.PushBackN([]bytestr.String{script, input})
		return rerr
	}
	it.Push(out)
	return nil
}

// cmdTcl implements `t`: pop (script, input), write script to a temp file
// since tclsh has no command-line evaluation flag, run `tclsh tempfile`
// with input on stdin, push stdout.
func cmdTcl(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	script, input := vs[0], vs[1]

	tmp, terr := os.CreateTemp("", "tgltcl")
	if terr != nil {
		it.PushBackN([]bytestr.String{script, input})
		return it.errorf("creating tcl script: %w", terr)
	}
	name := tmp.Name()
	defer os.Remove(name)

	if _, werr := tmp.Write(script.Bytes()); werr != nil {
		tmp.Close()
		it.PushBackN([]bytestr.String{script, input})
		return it.errorf("writing tcl script: %w", werr)
	}
	tmp.Close()

	tclPath := it.cfg.TclPath
	if tclPath == "" {
		tclPath = "tclsh"
	}
	out, rerr := invokeExternal([]string{tclPath, name}, input, nil)
	if rerr != nil {
		it.PushBackN([]bytestr.String{script, input})
		return rerr
	}
	it.Push(out)
	return nil
}
