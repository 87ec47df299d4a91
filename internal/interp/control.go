package interp

import "tgl/internal/bytestr"

// cmdIf implements `i`: pop (otherwise, then, condition) — condition is the
// operand pushed first (bottom of the trio), then is pushed second,
// otherwise is pushed last (top) — and run whichever branch condition
// selects.
func cmdIf(it *Interp) error {
	vs, err := it.PopN(3)
	if err != nil {
		return err
	}
	condition, then, otherwise := vs[0], vs[1], vs[2]
	if condition.Bool() {
		return it.execCode(then)
	}
	return it.execCode(otherwise)
}

// cmdIfShort implements `I`: pop (then, condition) and run then only if
// condition is truthy; otherwise this is a no-op.
func cmdIfShort(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	condition, then := vs[0], vs[1]
	if condition.Bool() {
		return it.execCode(then)
	}
	return nil
}

// cmdWhile implements `w`: pop (condition, body) and repeat "run condition,
// pop its result, stop if false, else run body" until the condition fails
// truthiness or either code block errors.
func cmdWhile(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	condition, body := vs[0], vs[1]
	for {
		if err := it.execCode(condition); err != nil {
			return err
		}
		if it.Depth() == 0 {
			return it.errorf("stack underflow after evaluating condition")
		}
		if !it.Pop().Bool() {
			return nil
		}
		if err := it.execCode(body); err != nil {
			return err
		}
	}
}

// cmdWhileShort implements `W`: a do-while over a single popped body —
// run the body, pop its result as the continue condition, repeat while
// truthy.
func cmdWhileShort(it *Interp) error {
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	body := it.Pop()
	for {
		if err := it.execCode(body); err != nil {
			return err
		}
		if it.Depth() == 0 {
			return it.errorf("stack underflow after evaluating body")
		}
		if !it.Pop().Bool() {
			return nil
		}
	}
}

// cmdFor implements `f`. With no secondary arguments supplied it pops four
// operands (body, to, from, reg-name); with any secondary argument supplied
// it instead takes from (arg0, default 0), reg (arg1, default 'i') and an
// explicit increment (arg2, must be non-zero if given) from the ring and
// pops only (body, to). Either way the loop runs from `from` toward `to`
// (exclusive), auto-incrementing by +/-1 toward to unless overridden,
// writing the counter into reg before each iteration and re-reading it
// afterward so the body may alter loop state.
func cmdFor(it *Interp) error {
	if it.sec.ux > 0 {
		return cmdForWithSecondaryArgs(it)
	}

	vs, err := it.PopN(4)
	if err != nil {
		return err
	}
	regStr, fromStr, toStr, body := vs[0], vs[1], vs[2], vs[3]

	restore := func() {
		it.PushBackN([]bytestr.String{regStr, fromStr, toStr, body})
	}

	if regStr.Len() != 1 {
		restore()
		return it.errorf("invalid register")
	}
	reg := regStr.Bytes()[0]

	from, err := fromStr.ParseInt()
	if err != nil {
		restore()
		return errBadInteger
	}
	to, err := toStr.ParseInt()
	if err != nil {
		restore()
		return errBadInteger
	}

	inc := int64(1)
	if to < from {
		inc = -1
	}
	return runCountedFor(it, reg, from, to, inc, body)
}

func cmdForWithSecondaryArgs(it *Interp) error {
	from, err := it.secondaryArgAsInt(0, 0)
	if err != nil {
		return err
	}
	reg := byte('i')
	if err := it.secondaryArgAsReg(1, &reg); err != nil {
		return err
	}
	incExplicit := it.sec.slots[2] != nil
	inc, err := it.secondaryArgAsInt(2, 1)
	if err != nil {
		return err
	}
	if incExplicit && inc == 0 {
		return it.errorf("increment must be non-zero")
	}
	it.sec.reset()

	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	toStr, body := vs[0], vs[1]

	to, err := toStr.ParseInt()
	if err != nil {
		it.PushBackN([]bytestr.String{toStr, body})
		return errBadInteger
	}

	if !incExplicit {
		if to < from {
			inc = -1
		} else {
			inc = 1
		}
	}
	return runCountedFor(it, reg, from, to, inc, body)
}

// cmdForShort implements `F`: pop (body, to), register defaults to 'i',
// from is always 0, increment is auto-selected. Secondary arguments are not
// consulted.
func cmdForShort(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	toStr, body := vs[0], vs[1]
	to, err := toStr.ParseInt()
	if err != nil {
		it.PushBackN([]bytestr.String{toStr, body})
		return errBadInteger
	}
	inc := int64(1)
	if to < 0 {
		inc = -1
	}
	return runCountedFor(it, 'i', 0, to, inc, body)
}

func runCountedFor(it *Interp, reg byte, from, to, inc int64, body bytestr.String) error {
	cond := func(i int64) bool {
		if inc > 0 {
			return i < to
		}
		return i > to
	}
	for i := from; cond(i); i += inc {
		it.WriteRegister(reg, bytestr.FormatInt(i))
		if err := it.execCode(body); err != nil {
			return err
		}
		// The body may have altered the register; read it back so the
		// loop's own increment below continues from wherever it left off.
		next, err := it.registers[reg].ParseInt()
		if err != nil {
			return it.errorf("register altered to invalid integer")
		}
		i = next
	}
	it.regTime[reg] = it.now()
	return nil
}

// cmdEach implements `e`: pop (body, s) and run body once per byte of s,
// writing each single byte into reg (secondary arg 0, default 'c').
func cmdEach(it *Interp) error {
	reg := byte('c')
	if err := it.secondaryArgAsReg(0, &reg); err != nil {
		return err
	}
	it.sec.reset()

	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	sStr, body := vs[0], vs[1]

	for _, b := range sStr.Bytes() {
		it.WriteRegister(reg, bytestr.FromBytes([]byte{b}))
		if err := it.execCode(body); err != nil {
			return err
		}
	}
	return nil
}
