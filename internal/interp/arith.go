package interp

import "tgl/internal/bytestr"

// cmdAdd, cmdSub, cmdMul, cmdDiv, cmdMod all pop two integers atomically
// (b = top of stack, a = the operand below it) and compute a <op> b,
// matching the source's stack_pop_ints(interp, 2, &b, &a) convention.
func cmdAdd(it *Interp) error {
	ints, err := it.PopInts(2)
	if err != nil {
		return err
	}
	a, b := ints[0], ints[1]
	it.Push(bytestr.FormatInt(a + b))
	return nil
}

func cmdSub(it *Interp) error {
	ints, err := it.PopInts(2)
	if err != nil {
		return err
	}
	a, b := ints[0], ints[1]
	it.Push(bytestr.FormatInt(a - b))
	return nil
}

func cmdMul(it *Interp) error {
	ints, err := it.PopInts(2)
	if err != nil {
		return err
	}
	a, b := ints[0], ints[1]
	it.Push(bytestr.FormatInt(a * b))
	return nil
}

func cmdDiv(it *Interp) error {
	ints, err := it.PopInts(2)
	if err != nil {
		return err
	}
	a, b := ints[0], ints[1]
	if b == 0 {
		return errDivisionByZero
	}
	it.Push(bytestr.FormatInt(a / b))
	return nil
}

func cmdMod(it *Interp) error {
	ints, err := it.PopInts(2)
	if err != nil {
		return err
	}
	a, b := ints[0], ints[1]
	if b == 0 {
		return errDivisionByZero
	}
	it.Push(bytestr.FormatInt(a % b))
	return nil
}

func cmdLess(it *Interp) error {
	ints, err := it.PopInts(2)
	if err != nil {
		return err
	}
	a, b := ints[0], ints[1]
	it.Push(boolString(a < b))
	return nil
}

func cmdGreater(it *Interp) error {
	ints, err := it.PopInts(2)
	if err != nil {
		return err
	}
	a, b := ints[0], ints[1]
	it.Push(boolString(a > b))
	return nil
}

// cmdRand pushes a 16-bit non-negative pseudo-random integer.
func cmdRand(it *Interp) error {
	it.Push(bytestr.FormatInt(int64(it.rng.Intn(0x10000))))
	return nil
}

func boolString(b bool) bytestr.String {
	if b {
		return bytestr.FromString("1")
	}
	return bytestr.FromString("0")
}

// cmdAnd, cmdOr, cmdXor all pop two strings, convert each to a boolean
// (deliberately non-short-circuiting: both operands are always consumed),
// and push the bitwise-on-bools result as an integer.
func cmdAnd(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	a, b := vs[0].Bool(), vs[1].Bool()
	it.Push(boolString(a && b))
	return nil
}

func cmdOr(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	a, b := vs[0].Bool(), vs[1].Bool()
	it.Push(boolString(a || b))
	return nil
}

func cmdXor(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	a, b := vs[0].Bool(), vs[1].Bool()
	it.Push(boolString(a != b))
	return nil
}

// cmdNot pops one string, converts to boolean, and pushes the negation.
func cmdNot(it *Interp) error {
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	v := it.Pop()
	it.Push(boolString(!v.Bool()))
	return nil
}
