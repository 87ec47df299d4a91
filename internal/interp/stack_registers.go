package interp

import "tgl/internal/bytestr"

// cmdDupe implements `:`: duplicate the top value. Secondary arg slot 0
// selects how many extra copies to push beyond the original (default 1,
// i.e. the classic single dupe).
func cmdDupe(it *Interp) error {
	cnt, err := it.secondaryArgAsInt(0, 1)
	if err != nil {
		return err
	}
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	s := it.Pop()
	it.Push(s)
	for ; cnt > 0; cnt-- {
		it.Push(s.Clone())
	}
	it.sec.reset()
	return nil
}

// cmdDrop implements `;`: discard the top cnt values (default 1), checking
// depth up front so the operation is atomic.
func cmdDrop(it *Interp) error {
	cnt, err := it.secondaryArgAsInt(0, 1)
	if err != nil {
		return err
	}
	if int64(it.Depth()) < cnt {
		return errStackUnderflow
	}
	for ; cnt > 0; cnt-- {
		it.Pop()
	}
	it.sec.reset()
	return nil
}

// cmdSwap implements `x`: move the top element down `off` positions
// (off > 0), or move the element `off` positions deep up to the top
// (off < 0, measured as |off|). off == 0 is a no-op. Default off is
// 1, an ordinary two-element swap.
func cmdSwap(it *Interp) error {
	off, err := it.secondaryArgAsInt(0, 1)
	if err != nil {
		return err
	}
	if off == 0 {
		return nil
	}

	n := it.Depth()
	if off > 0 {
		// Move the top element down to depth off; the off elements that
		// were between it and the top each shift one step toward the top.
		if int(off) >= n {
			return errStackUnderflow
		}
		idx0 := n - 1 - int(off)
		moved := it.stack[n-1]
		copy(it.stack[idx0+1:n], it.stack[idx0:n-1])
		it.stack[idx0] = moved
	} else {
		// Move the element at depth |off| up to the top; everything above
		// it shifts one step toward the bottom.
		depth := int(-off)
		if depth >= n {
			return errStackUnderflow
		}
		idx0 := n - 1 - depth
		moved := it.stack[idx0]
		copy(it.stack[idx0:n-1], it.stack[idx0+1:n])
		it.stack[n-1] = moved
	}

	it.sec.reset()
	return nil
}

// cmdReadRegister implements `r<reg>`: push a copy of the named register,
// touching its access time.
func cmdReadRegister(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("register name expected")
	}
	it.frame.ip = ip
	it.Push(it.ReadRegister(code[ip]))
	return nil
}

// cmdWriteRegister implements `R<reg>`: pop the top value into the named
// register.
func cmdWriteRegister(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("register name expected")
	}
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	val := it.Pop()
	it.frame.ip = ip
	it.WriteRegister(code[ip], val)
	return nil
}

// cmdStash implements `p`: push a full snapshot of the register file onto
// the p-stack.
func cmdStash(it *Interp) error {
	frame := &pstackFrame{next: it.pstack}
	for i := range it.registers {
		frame.registers[i] = it.registers[i].Clone()
	}
	it.pstack = frame
	return nil
}

// cmdRetrieve implements `P`: pop the p-stack and install its snapshot as
// the live register file.
func cmdRetrieve(it *Interp) error {
	if it.pstack == nil {
		return errRegisterUnderflow
	}
	top := it.pstack
	it.pstack = top.next
	it.registers = top.registers
	return nil
}

// cmdStashRetrieve implements `z`: build "p" + s + "P" as a new code value
// and push it without executing, so the caller can run it later (typically
// via X) to scope a block of register writes transactionally.
func cmdStashRetrieve(it *Interp) error {
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	s := it.Pop()
	built := bytestr.FromString("p").Append(s).Append(bytestr.FromString("P"))
	it.Push(built)
	return nil
}

// cmdAutoWrite implements `a`: pop a value, write it into the
// least-recently-touched register scanning A-Z, then a-z, then 0-9 (first
// found wins ties in that order), and print a one-line report of what
// happened.
func cmdAutoWrite(it *Interp) error {
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	value := it.Pop()

	reg := byte('A')
	scan := func(lo, hi byte) {
		for r := lo; r <= hi; r++ {
			if it.regTime[r] < it.regTime[reg] {
				reg = r
			}
		}
	}
	scan('A', 'Z')
	scan('a', 'z')
	scan('0', '9')

	it.WriteRegister(reg, value)

	report := bytestr.FromString("`").Append(value.Clone()).Append(bytestr.FromString(": ")).AppendByte(reg).Append(bytestr.FromString("\n"))
	it.Push(report)
	if err := cmdPrint(it); err != nil {
		it.Pop()
	}
	return nil
}
