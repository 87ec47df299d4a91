package interp

import "tgl/internal/bytestr"

// cmdSecondaryArgument implements `u<spec>`: reads one subcommand byte
// (no whitespace skip) and stores the resulting value, or an explicit
// "not supplied" marker, in the next free ring slot. The value is consumed
// by whichever command runs next that honors secondary arguments; that
// command is responsible for calling sec.reset() once it has read its
// slots.
func cmdSecondaryArgument(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("secondary argument specifier expected")
	}
	if it.sec.ux >= numSecondaryArgs {
		return it.errorf("too many secondary arguments")
	}
	it.frame.ip = ip

	c := code[ip]
	var value *bytestr.String

	switch {
	case c == '%':
		if it.Depth() == 0 {
			return errStackUnderflow
		}
		v := it.Pop()
		value = &v

	case c == ' ':
		value = nil

	case c == '.':
		v := bytestr.FormatInt(int64(it.Depth()))
		value = &v

	case c == '+' || c == '-' || (c >= '0' && c <= '9'):
		if err := cmdIntegerLiteral(it); err != nil {
			return err
		}
		// cmdIntegerLiteral left frame.ip on the literal's last byte;
		// recover that position since we're borrowing its scan logic
		// mid-dispatch rather than through the normal step() path.
		ip = it.frame.ip
		v := it.Pop()
		value = &v

	default:
		v := bytestr.FromBytes([]byte{c})
		value = &v
	}

	it.sec.slots[it.sec.ux] = value
	it.sec.ux++
	it.frame.ip = ip
	return nil
}

// secondaryArgAsInt reads slot i as an integer, or returns def if the slot
// was never supplied.
func (it *Interp) secondaryArgAsInt(i int, def int64) (int64, error) {
	s := it.sec.slots[i]
	if s == nil {
		return def, nil
	}
	n, err := s.ParseInt()
	if err != nil {
		return 0, errBadInteger
	}
	return n, nil
}

// secondaryArgAsReg reads slot i as a single-byte register name into *out,
// leaving *out (the caller's pre-seeded default) untouched if the slot was
// never supplied.
func (it *Interp) secondaryArgAsReg(i int, out *byte) error {
	s := it.sec.slots[i]
	if s == nil {
		return nil
	}
	if s.Len() != 1 {
		return it.errorf("invalid register")
	}
	*out = s.Bytes()[0]
	return nil
}
