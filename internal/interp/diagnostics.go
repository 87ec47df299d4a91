package interp

import (
	"fmt"
	"os"
)

// emitDiagnostic writes the single-line `tgl: error: …` diagnostic plus a
// context window of up to diagnosticWindow bytes around ip with a caret,
// the way the teacher's formatInstructionStr annotates a failing
// instruction with its source line.
func (it *Interp) emitDiagnostic(err error, code []byte, ip int) {
	fmt.Fprintf(os.Stderr, "tgl: error: %s\n", err)

	lo := ip - diagnosticWindow/2
	if lo < 0 {
		lo = 0
	}
	hi := lo + diagnosticWindow
	if hi > len(code) {
		hi = len(code)
		lo = hi - diagnosticWindow
		if lo < 0 {
			lo = 0
		}
	}

	window := sanitizeForDisplay(code[lo:hi])
	caret := make([]byte, ip-lo)
	for i := range caret {
		caret[i] = ' '
	}

	fmt.Fprintf(os.Stderr, "  %s\n  %s^\n", window, caret)
}

// sanitizeForDisplay replaces control bytes with '.' so the context window
// renders as a single printable line regardless of what binary data the
// program or its payload contains.
func sanitizeForDisplay(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c < 0x20 || c == 0x7f {
			out[i] = '.'
		} else {
			out[i] = c
		}
	}
	return string(out)
}
