package interp

import "tgl/internal/bytestr"

// cmdHistory implements `h`: pop an optional offset (default 0), add the
// running history offset, and push a copy of that history register
// (0x00-0x1F). Each successful read advances the offset so repeated `h`
// calls walk back through successive prior runs instead of rereading the
// same slot.
func cmdHistory(it *Interp) error {
	var off int64
	var soff bytestr.String
	hadArg := it.Depth() > 0
	if hadArg {
		soff = it.Pop()
		n, err := soff.ParseInt()
		if err != nil {
			it.Push(soff)
			return it.errorf("invalid integer")
		}
		off = n
	}

	off += it.historyOffset
	if off < 0 || off >= historyRegisters {
		if hadArg {
			it.Push(soff)
		}
		return it.errorf("invalid history offset")
	}

	it.Push(it.registers[off].Clone())
	it.historyOffset++
	return nil
}

// cmdSuppressHistory implements `H`: disables the history shift for the
// remainder of the current top-level execution.
func cmdSuppressHistory(it *Interp) error {
	it.historyEnabled = false
	return nil
}
