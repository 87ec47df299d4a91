package interp

import "tgl/internal/bytestr"

// ResetAfterLibrary discards any operands the library run left on the
// stack and resets the history offset, so library definitions never leak
// state into the primary program that follows.
func (it *Interp) ResetAfterLibrary() {
	it.stack = it.stack[:0]
	it.historyOffset = 0
}

// SetHistoryEnabled overrides the history-shift gate directly; used to
// re-arm it ahead of the primary program after the library run (which may
// have disabled it via `H`) and in tests.
func (it *Interp) SetHistoryEnabled(enabled bool) {
	it.historyEnabled = enabled
}

// ShiftHistory records source into the history ring (registers 0x00-0x1F)
// after a successful top-level run, unless history was disabled for this
// run (`H`) or the program was exactly "h X" (reading history immediately
// followed by evaluating it, which would otherwise re-log itself every
// time it's replayed).
func (it *Interp) ShiftHistory(source bytestr.String) {
	if !it.historyEnabled {
		return
	}

	b := source.Bytes()
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	if i < len(b) && b[i] == 'h' {
		i++
		for i < len(b) && isSpace(b[i]) {
			i++
		}
		if i < len(b) && b[i] == 'X' {
			i++
			for i < len(b) && isSpace(b[i]) {
				i++
			}
			if i == len(b) {
				return
			}
		}
	}

	for i := historyRegisters - 1; i > 0; i-- {
		it.registers[i] = it.registers[i-1]
		it.regTime[i] = it.regTime[i-1]
	}
	it.registers[0] = source.Clone()
	it.regTime[0] = it.now()
}
