package interp

import "tgl/internal/bytestr"

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	default:
		return false
	}
}

// step executes at most one command at the current IP, following the
// dispatch contract from spec.md §4.1.
func (it *Interp) step() error {
	code := it.frame.code.Bytes()
	startIP := it.frame.ip

	ip := startIP
	for ip < len(code) && isSpace(code[ip]) {
		ip++
	}
	it.frame.ip = ip

	if ip >= len(code) {
		// No-op at end of input.
		return nil
	}

	b := code[ip]
	cmd := it.table[b]
	if cmd == nil {
		it.frame.ip = startIP
		it.emitDiagnostic(errUnknownCommand, code, ip)
		return errUnknownCommand
	}

	var err error
	if cmd.user {
		err = it.execCode(cmd.body)
	} else {
		err = cmd.fn(it)
	}

	if err != nil {
		it.frame.ip = startIP
		it.emitDiagnostic(err, code, ip)
		return err
	}

	it.frame.ip++
	return nil
}

// execCode saves the current (code, ip), installs a fresh frame over code,
// runs it to completion or first failure, and restores the saved frame
// regardless of outcome. This is the nesting primitive every control-flow
// and user-defined command relies on.
func (it *Interp) execCode(code bytestr.String) error {
	saved := it.frame
	it.frame = codeFrame{code: code, ip: 0}

	var runErr error
	for {
		if it.frame.ip >= it.frame.code.Len() {
			break
		}
		if err := it.step(); err != nil {
			runErr = err
			break
		}
	}

	it.frame = saved
	return runErr
}

// Run executes top-level source code: it becomes the outermost code frame,
// `global_code` for the payload subsystem, and the source of
// `initial_whitespace` captured on first entry.
func (it *Interp) Run(source bytestr.String) error {
	ws := captureInitialWhitespace(source)
	it.initialWhitespace = ws
	it.payload.globalCode = source

	prefix, dispatch := extractPayloadPrefix(source)
	if prefix != nil {
		it.setPayload(*prefix)
	}

	return it.execCode(dispatch)
}

// captureInitialWhitespace returns the leading whitespace run of source, or
// nil if it starts with a non-whitespace byte (the `"` string form's `` ` ``
// substitution fails in that case, per spec.md §4.4).
func captureInitialWhitespace(source bytestr.String) *bytestr.String {
	b := source.Bytes()
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	if i == 0 {
		return nil
	}
	ws := bytestr.FromBytes(b[:i])
	return &ws
}
