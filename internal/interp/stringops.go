package interp

import "tgl/internal/bytestr"

// cmdEmptyString implements `y`: push an empty string.
func cmdEmptyString(it *Interp) error {
	it.Push(bytestr.Empty())
	return nil
}

// cmdPrint implements `.`: pop the top value and write it verbatim to
// stdout.
func cmdPrint(it *Interp) error {
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	v := it.Pop()
	_, err := it.stdout.Write(v.Bytes())
	return err
}

// cmdChar implements `'<c>`: push the single byte following the command,
// read without skipping whitespace the way register names are read.
func cmdChar(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("character expected")
	}
	it.frame.ip = ip
	it.Push(bytestr.FromBytes([]byte{code[ip]}))
	return nil
}

// cmdConcat implements `c`: pop (a, b) and push a followed by b.
func cmdConcat(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	a, b := vs[0], vs[1]
	it.Push(a.Append(b))
	return nil
}

// cmdLength implements `l`: pop a string and push its byte length.
func cmdLength(it *Interp) error {
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	v := it.Pop()
	it.Push(bytestr.FormatInt(int64(v.Len())))
	return nil
}

// cmdCharAt implements `C`: pop (s, index) and push the single byte at
// index, with negative indices counting from the end of s.
func cmdCharAt(it *Interp) error {
	if it.Depth() < 2 {
		return errStackUnderflow
	}
	idxStr := it.Pop()
	s := it.Pop()

	idx, err := idxStr.ParseInt()
	if err != nil {
		it.Push(s)
		it.Push(idxStr)
		return errBadInteger
	}
	if idx < 0 {
		idx += int64(s.Len())
	}
	if idx < 0 || idx >= int64(s.Len()) {
		it.Push(s)
		it.Push(idxStr)
		return it.errorf("index out of range")
	}
	it.Push(bytestr.FromBytes([]byte{s.Bytes()[idx]}))
	return nil
}

func clampIndex(i, n int64) int64 {
	if i < 0 {
		i = 0
	}
	if i > n {
		i = n
	}
	return i
}

// cmdSubstr implements `s`: pop (s, begin, end), end on top, and push the
// substring s[begin:end], with both indices clamped into range (and swapped
// if reversed) rather than erroring.
func cmdSubstr(it *Interp) error {
	vs, err := it.PopN(3)
	if err != nil {
		return err
	}
	sStr, beginStr, endStr := vs[0], vs[1], vs[2]

	n := int64(sStr.Len())
	begin, err := beginStr.ParseInt()
	if err != nil {
		it.PushBackN([]bytestr.String{sStr, beginStr, endStr})
		return errBadInteger
	}
	end, err := endStr.ParseInt()
	if err != nil {
		it.PushBackN([]bytestr.String{sStr, beginStr, endStr})
		return errBadInteger
	}

	begin = clampIndex(begin, n)
	end = clampIndex(end, n)
	if end < begin {
		begin, end = end, begin
	}
	it.Push(bytestr.FromBytes(sStr.Bytes()[begin:end]))
	return nil
}

// cmdSuffix implements `S`: pop (s, begin) and push s[begin:], clamped.
func cmdSuffix(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	sStr, beginStr := vs[0], vs[1]

	n := int64(sStr.Len())
	begin, err := beginStr.ParseInt()
	if err != nil {
		it.PushBackN([]bytestr.String{sStr, beginStr})
		return errBadInteger
	}
	begin = clampIndex(begin, n)
	it.Push(bytestr.FromBytes(sStr.Bytes()[begin:]))
	return nil
}

// cmdMap implements `m`: pop (body, s) and run body once per byte of s,
// with the current byte pushed onto the stack before each run and the top
// of stack collected afterward into the result. Secondary arg 0, when
// given, is an explicit count of bytes of s to process (default the full
// length) so callers can map over a prefix sized from the stack height at
// an earlier point.
func cmdMap(it *Interp) error {
	count, err := it.secondaryArgAsInt(0, -1)
	if err != nil {
		return err
	}
	it.sec.reset()

	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	sStr, body := vs[0], vs[1]

	n := int64(sStr.Len())
	if count < 0 || count > n {
		count = n
	}

	out := bytestr.Empty()
	for i := int64(0); i < count; i++ {
		it.Push(bytestr.FromBytes([]byte{sStr.Bytes()[i]}))
		if err := it.execCode(body); err != nil {
			return err
		}
		if it.Depth() == 0 {
			return it.errorf("stack underflow after evaluating map body")
		}
		out = out.Append(it.Pop())
	}
	it.Push(out)
	return nil
}

// cmdEqual implements `=`: pop (a, b) and push whether they are
// byte-for-byte identical.
func cmdEqual(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	it.Push(boolString(vs[0].Equal(vs[1])))
	return nil
}

// cmdNotEqual implements `!`.
func cmdNotEqual(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	it.Push(boolString(!vs[0].Equal(vs[1])))
	return nil
}

// cmdStringLess implements `{`: pop (a, b) and push whether a sorts before
// b under a byte-wise comparison with a length tiebreak (the shorter of two
// otherwise-equal prefixes sorts first).
func cmdStringLess(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	it.Push(boolString(vs[0].Compare(vs[1]) < 0))
	return nil
}

// cmdStringGreater implements `}`.
func cmdStringGreater(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	it.Push(boolString(vs[0].Compare(vs[1]) > 0))
	return nil
}

// cmdEval implements `X`: pop a code value and execute it in the current
// frame's scope.
func cmdEval(it *Interp) error {
	if it.Depth() == 0 {
		return errStackUnderflow
	}
	code := it.Pop()
	return it.execCode(code)
}
