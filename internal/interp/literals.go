package interp

import (
	"tgl/internal/bytestr"
)

// escapeMap covers the single-character C-style escapes; `e` is ESC
// (0x1B), matching the source's extension beyond the standard set.
var escapeMap = map[byte]byte{
	'a': '\a',
	'b': '\b',
	'e': 0x1B,
	'f': '\f',
	'n': '\n',
	'r': '\r',
	't': '\t',
	'v': '\v',
}

// isSelfEscape covers characters that escape to themselves.
func isSelfEscape(b byte) bool {
	switch b {
	case '"', '\\', '\'', '$', '%', '`':
		return true
	default:
		return false
	}
}

func isBracket(b byte) bool {
	switch b {
	case '(', ')', '[', ']', '{', '}', '<', '>':
		return true
	default:
		return false
	}
}

func hexDigit(b byte) (byte, bool) {
	switch {
	case b >= '0' && b <= '9':
		return b - '0', true
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10, true
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10, true
	default:
		return 0, false
	}
}

// readEscape decodes `\<c>` starting at code[*ip] pointing at the backslash
// itself. On return *ip is left on the last consumed byte. noPush is true
// when the escape named a bracket character, in which case the caller
// (only the quoted-string accumulator treats this as meaningful) should
// append the literal bracket byte instead of a decoded value.
func readEscape(code []byte, ip *int) (value byte, noPush bool, err error) {
	i := *ip
	if i+1 >= len(code) {
		return 0, false, errBadEscape
	}
	c := code[i+1]
	i++

	switch {
	case c == 'x' || c == 'X':
		if i+2 >= len(code) {
			*ip = i
			return 0, false, errBadEscape
		}
		hi, ok1 := hexDigit(code[i+1])
		lo, ok2 := hexDigit(code[i+2])
		if !ok1 || !ok2 {
			*ip = i
			return 0, false, errBadEscape
		}
		*ip = i + 2
		return hi<<4 | lo, false, nil
	case isBracket(c):
		*ip = i
		return c, true, nil
	case isSelfEscape(c):
		*ip = i
		return c, false, nil
	default:
		if mapped, ok := escapeMap[c]; ok {
			*ip = i
			return mapped, false, nil
		}
		*ip = i
		return 0, false, errBadEscape
	}
}

// cmdEscape implements standalone `\` dispatch: decode one escape and push
// the resulting byte, unless it names a bracket (no-push sentinel), in
// which case dispatch succeeds without altering the stack.
func cmdEscape(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip
	value, noPush, err := readEscape(code, &ip)
	it.frame.ip = ip
	if err != nil {
		return err
	}
	if !noPush {
		it.Push(bytestr.FromBytes([]byte{value}))
	}
	return nil
}

// cmdIntegerLiteral implements `#` and bare digit dispatch: `#` is skipped
// (its only role is marking "this is a number" when the first digit would
// otherwise be ambiguous with a command byte), then an optional sign and
// base prefix are consumed, followed by digits valid for the selected base.
func cmdIntegerLiteral(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip
	start := ip

	if code[ip] == '#' {
		ip++
		if ip >= len(code) {
			return errBadInteger
		}
		start = ip
	}

	i := ip
	if i < len(code) && (code[i] == '+' || code[i] == '-') {
		i++
	}

	base := 10
	digitsStart := i
	if i+1 < len(code) && code[i] == '0' {
		switch code[i+1] {
		case 'x', 'X':
			base = 16
			i += 2
		case 'b', 'B':
			base = 2
			i += 2
		case 'o', 'O':
			base = 8
			i += 2
		}
	}
	digitsStart = i

	for i < len(code) && isDigitForBase(code[i], base) {
		i++
	}
	if i == digitsStart {
		return errBadInteger
	}

	lit := bytestr.FromBytes(code[start:i])
	if _, err := lit.ParseInt(); err != nil {
		return errBadInteger
	}
	it.Push(lit)
	// Only back IP up onto the last digit when the scan stopped at a real
	// non-digit byte; if it stopped at end-of-input, IP stays at len(code)
	// so the dispatcher's post-success ip++ doesn't run past a real byte.
	if i < len(code) {
		it.frame.ip = i - 1
	} else {
		it.frame.ip = i
	}
	return nil
}

func isDigitForBase(b byte, base int) bool {
	var v int
	switch {
	case b >= '0' && b <= '9':
		v = int(b - '0')
	case b >= 'a' && b <= 'z':
		v = int(b-'a') + 10
	case b >= 'A' && b <= 'Z':
		v = int(b-'A') + 10
	default:
		return false
	}
	return v < base
}

// cmdCodeBlock implements `( … )`: a parenthesis-balanced scan from one
// past the dispatch byte to the matching close. The contents, excluding
// the outer parens, are pushed as a string.
func cmdCodeBlock(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip

	depth := 1
	i := ip + 1
	for i < len(code) {
		switch code[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				it.Push(bytestr.FromBytes(code[ip+1 : i]))
				it.frame.ip = i
				return nil
			}
		}
		i++
	}
	return errUnbalancedParen
}

// cmdQuotedString implements `"…"` interpolation per spec.md §4.4.
func cmdQuotedString(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip

	var out bytestr.String = bytestr.Empty()
	i := ip + 1
	for {
		if i >= len(code) {
			return errUnterminatedQuote
		}
		c := code[i]
		switch c {
		case '"':
			it.Push(out)
			it.frame.ip = i
			return nil
		case '$':
			if i+1 >= len(code) {
				return errUnterminatedQuote
			}
			reg := code[i+1]
			out = out.Append(it.ReadRegister(reg))
			i += 2
		case '%':
			if it.Depth() == 0 {
				return errStackUnderflow
			}
			out = out.Append(it.Pop())
			i++
		case '`':
			if it.initialWhitespace == nil {
				return errNoInitialWS
			}
			out = out.Append(it.initialWhitespace.Clone())
			i++
		case '\\':
			ei := i
			value, _, err := readEscape(code, &ei)
			if err != nil {
				return err
			}
			// A bracket escape pushes nothing standalone; inside a quoted
			// string it contributes the literal bracket byte, which
			// readEscape returns as value.
			out = out.AppendByte(value)
			i = ei + 1
		default:
			out = out.AppendByte(c)
			i++
		}
	}
}
