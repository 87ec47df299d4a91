package interp

import (
	"os"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"

	"tgl/internal/bytestr"
)

// delimKind selects how payloadState.valueDelim is interpreted: a literal
// byte sequence, a run of whitespace, or a line terminator (LF, CR, or CRLF).
type delimKind int

const (
	delimLiteral delimKind = iota
	delimWhitespace
	delimLine
)

type payloadDelim struct {
	kind  delimKind
	bytes bytestr.String
}

func literalDelim(s string) payloadDelim {
	return payloadDelim{kind: delimLiteral, bytes: bytestr.FromString(s)}
}

var (
	wsDelim   = payloadDelim{kind: delimWhitespace}
	lineDelim = payloadDelim{kind: delimLine}
)

// payloadState holds the embedded-data cursor and its formatting/splitting
// configuration, all gated behind the `,` dispatch byte.
type payloadState struct {
	data     bytestr.String
	hasData  bool
	hasBase  bool
	baseData bytestr.String

	globalCode bytestr.String

	dataStartDelim payloadDelim
	valueDelim     payloadDelim
	outputVDelim   bytestr.String
	outputKVDelim  bytestr.String
	outputKVSDelim bytestr.String

	balanceParen, balanceBrack, balanceBrace, balanceAngle bool
	trimParen, trimBrack, trimBrace, trimAngle, trimSpace  bool
}

func newPayloadState() payloadState {
	return payloadState{
		dataStartDelim: literalDelim(",$"),
		valueDelim:     wsDelim,
		outputVDelim:   bytestr.FromString(", "),
		outputKVDelim:  bytestr.FromString(", "),
		outputKVSDelim: bytestr.FromString("\n"),
		balanceParen:   true,
		balanceBrack:   true,
		balanceBrace:   true,
		trimParen:      true,
		trimBrack:      true,
		trimBrace:      true,
		trimSpace:      true,
	}
}

// extractPayloadPrefix looks for the longest run of one or more consecutive
// `|` bytes in source (the first such run on a tie); everything before the run becomes the initial
// payload, everything after becomes the code to dispatch. Returns (nil,
// source) if no such run exists.
func extractPayloadPrefix(source bytestr.String) (*bytestr.String, bytestr.String) {
	b := source.Bytes()
	bestStart, bestLen := -1, 0
	for i := 0; i < len(b); {
		if b[i] != '|' {
			i++
			continue
		}
		j := i + 1
		for j < len(b) && b[j] == '|' {
			j++
		}
		if j-i > bestLen {
			bestStart, bestLen = i, j-i
		}
		i = j
	}
	if bestLen == 0 {
		return nil, source
	}
	prefix := bytestr.FromBytes(b[:bestStart])
	rest := bytestr.FromBytes(b[bestStart+bestLen:])
	return &prefix, rest
}

func (it *Interp) setPayload(data bytestr.String) {
	it.payload.data = data
	it.payload.baseData = data
	it.payload.hasData = true
	it.payload.hasBase = true

	if data.Len() > 0 {
		b := data.Bytes()[0]
		if (it.payload.valueDelim.kind == delimWhitespace && unicode.IsSpace(rune(b))) ||
			(it.payload.valueDelim.kind == delimLine && (b == '\n' || b == '\r')) {
			it.payloadNext(0)
		}
	}
}

// balanceParens moves *i from a recognized opening character to its
// matching closer, recursing to skip nested brackets, and reports whether
// *i sat on an opener it was configured to balance.
func (p *payloadState) balanceParens(data []byte, i *int) bool {
	if *i >= len(data) {
		return false
	}
	var closing byte
	switch data[*i] {
	case '{':
		if !p.balanceBrace {
			return false
		}
		closing = '}'
	case '(':
		if !p.balanceParen {
			return false
		}
		closing = ')'
	case '[':
		if !p.balanceBrack {
			return false
		}
		closing = ']'
	case '<':
		if !p.balanceAngle {
			return false
		}
		closing = '>'
	default:
		return false
	}

	*i++
	for *i < len(data) && data[*i] != closing {
		// Step past a nested run's closer too, so a nested closer of the
		// same kind does not end this run early.
		p.balanceParens(data, i)
		if *i < len(data) {
			*i++
		}
	}
	return true
}

func (p *payloadState) trim(s bytestr.String) bytestr.String {
	b := s.Bytes()
	if p.trimSpace {
		end := len(b)
		for end > 0 && unicode.IsSpace(rune(b[end-1])) {
			end--
		}
		b = b[:end]
		start := 0
		for start < len(b) && unicode.IsSpace(rune(b[start])) {
			start++
		}
		b = b[start:]
	}
	if len(b) >= 2 {
		start, end := b[0], b[len(b)-1]
		trimmed := (p.trimBrace && start == '{' && end == '}') ||
			(p.trimBrack && start == '[' && end == ']') ||
			(p.trimParen && start == '(' && end == ')') ||
			(p.trimAngle && start == '<' && end == '>')
		if trimmed {
			b = b[1 : len(b)-1]
		}
	}
	return bytestr.FromBytes(b)
}

// findDelimiterFrom searches haystack at or after startIdx for the
// configured delimiter. On success left is one past the end of the
// preceding value and right is the index the next value begins at.
func findDelimiterFrom(delim payloadDelim, haystack []byte, startIdx int, p *payloadState) (left, right int, ok bool) {
	switch delim.kind {
	case delimWhitespace:
		i := startIdx
		for i < len(haystack) && !unicode.IsSpace(rune(haystack[i])) {
			if !p.balanceParens(haystack, &i) {
				i++
			}
		}
		j := i
		for j < len(haystack) && unicode.IsSpace(rune(haystack[j])) {
			j++
		}
		if i == j {
			return 0, 0, false
		}
		return i, j, true

	case delimLine:
		i := startIdx
		for i < len(haystack) && haystack[i] != '\n' && haystack[i] != '\r' {
			if !p.balanceParens(haystack, &i) {
				i++
			}
		}
		if i == len(haystack) {
			return 0, 0, false
		}
		right = i + 1
		if haystack[i] == '\r' && i+1 < len(haystack) && haystack[i+1] == '\n' {
			right = i + 2
		}
		return i, right, true

	default:
		d := delim.bytes.Bytes()
		if len(d) == 0 || len(haystack) < len(d) {
			return 0, 0, false
		}
		for i := startIdx; i <= len(haystack)-len(d); {
			if p.balanceParens(haystack, &i) {
				continue
			}
			match := true
			for j := 0; j < len(d); j++ {
				if haystack[i+j] != d[j] {
					match = false
					break
				}
			}
			if match {
				return i, i + len(d), true
			}
			i++
		}
		return 0, 0, false
	}
}

func findOptDelim(delim payloadDelim, haystack []byte, p *payloadState) (left, right int) {
	left, right = len(haystack), len(haystack)
	if l, r, ok := findDelimiterFrom(delim, haystack, 0, p); ok {
		left, right = l, r
	}
	return left, right
}

func (it *Interp) payloadFromCode() error {
	global := it.payload.globalCode
	if global.Len() == 0 {
		return it.errorf("embedded payload not available in this context")
	}
	_, sop, ok := findDelimiterFrom(it.payload.dataStartDelim, global.Bytes(), 0, &it.payload)
	if !ok {
		return it.errorf("no embedded data found")
	}
	it.setPayload(global.Advance(sop))
	return nil
}

func (it *Interp) autoPayload() error {
	if it.payload.hasData {
		return nil
	}
	return it.payloadFromCode()
}

func (it *Interp) payloadCurr() error {
	if err := it.autoPayload(); err != nil {
		return err
	}
	data := it.payload.data
	if data.Len() == 0 {
		return it.errorf("no current item")
	}
	_, end := findOptDelim(it.payload.valueDelim, data.Bytes(), &it.payload)
	it.Push(it.payload.trim(bytestr.FromBytes(data.Bytes()[:end])))
	return nil
}

func (it *Interp) payloadNext(count int64) error {
	data := it.payload.data
	if data.Len() == 0 {
		return it.errorf("no next item")
	}
	if count == 0 {
		count = 1
	}
	for {
		_, begin := findOptDelim(it.payload.valueDelim, data.Bytes(), &it.payload)
		data = data.Advance(begin)
		count--
		if count == 0 || data.Len() == 0 {
			break
		}
	}
	it.payload.data = data
	return nil
}

func (it *Interp) payloadPrint(count int64) error {
	if count == 0 {
		count = 1
	}
	for {
		if err := it.payloadCurr(); err != nil {
			return err
		}
		if err := cmdPrint(it); err != nil {
			return err
		}
		if err := it.payloadNext(1); err != nil {
			return err
		}
		count--
		if count > 0 && it.payload.data.Len() > 0 {
			it.Push(it.payload.outputVDelim.Clone())
			if err := cmdPrint(it); err != nil {
				return err
			}
		}
		if count == 0 || it.payload.data.Len() == 0 {
			return nil
		}
	}
}

func (it *Interp) payloadPrintKV(count int64) error {
	if count == 0 {
		count = 1
	}
	for {
		if err := it.payloadPrint(1); err != nil {
			return err
		}
		it.Push(it.payload.outputKVDelim.Clone())
		if err := cmdPrint(it); err != nil {
			return err
		}
		if err := it.payloadPrint(1); err != nil {
			return err
		}
		count--
		if count > 0 && it.payload.data.Len() > 0 {
			it.Push(it.payload.outputKVSDelim.Clone())
			if err := cmdPrint(it); err != nil {
				return err
			}
		}
		if count == 0 || it.payload.data.Len() == 0 {
			return nil
		}
	}
}

func (it *Interp) payloadNumIndices() (int64, error) {
	if err := it.autoPayload(); err != nil {
		return 0, err
	}
	data := it.payload.data.Bytes()
	off, cnt := 0, 0
	for {
		_, next, ok := findDelimiterFrom(it.payload.valueDelim, data, off, &it.payload)
		if !ok {
			break
		}
		off = next
		cnt++
	}
	if off < len(data) {
		cnt++
	}
	return int64(cnt), nil
}

func (it *Interp) payloadDatumAtIndex(ix int64) (bytestr.String, error) {
	if err := it.autoPayload(); err != nil {
		return bytestr.Empty(), err
	}
	if ix < 0 {
		cnt, err := it.payloadNumIndices()
		if err != nil {
			return bytestr.Empty(), err
		}
		ix += cnt
	}
	if ix < 0 {
		return bytestr.Empty(), it.errorf("index out of range")
	}
	data := it.payload.data.Bytes()
	off := 0
	for off < len(data) && ix > 0 {
		_, next, ok := findDelimiterFrom(it.payload.valueDelim, data, off, &it.payload)
		if !ok {
			break
		}
		off = next
		ix--
	}
	if ix > 0 || off >= len(data) {
		return bytestr.Empty(), it.errorf("index out of range")
	}
	end, _, ok := findDelimiterFrom(it.payload.valueDelim, data, off, &it.payload)
	if !ok {
		end = len(data)
	}
	return it.payload.trim(bytestr.FromBytes(data[off:end])), nil
}

func (it *Interp) payloadDatumAtKey(key bytestr.String) (bytestr.String, error) {
	if err := it.autoPayload(); err != nil {
		return bytestr.Empty(), err
	}
	data := it.payload.data.Bytes()
	off := 0
	for off < len(data) {
		end, next, ok := findDelimiterFrom(it.payload.valueDelim, data, off, &it.payload)
		if !ok {
			break
		}
		k := it.payload.trim(bytestr.FromBytes(data[off:end]))
		off = next
		vend, vnext, ok := findDelimiterFrom(it.payload.valueDelim, data, off, &it.payload)
		if !ok {
			vend, vnext = len(data), len(data)
		}
		if k.Equal(key) {
			return it.payload.trim(bytestr.FromBytes(data[off:vend])), nil
		}
		off = vnext
	}
	return bytestr.Empty(), it.errorf("key not found")
}

func (it *Interp) payloadSpaceDelimited() {
	it.payload.valueDelim = wsDelim
	it.payload.balanceParen = true
	it.payload.balanceBrack = true
	it.payload.balanceBrace = true
	it.payload.trimParen = true
	it.payload.trimBrack = true
	it.payload.trimBrace = true
	it.payload.trimSpace = true
	it.payload.balanceAngle = false
	it.payload.trimAngle = false
}

func (it *Interp) payloadLineDelimited() {
	it.payload.valueDelim = lineDelim
	it.payload.balanceParen = false
	it.payload.balanceBrack = false
	it.payload.balanceBrace = false
	it.payload.trimParen = false
	it.payload.trimBrack = false
	it.payload.trimBrace = false
	it.payload.trimSpace = true
	it.payload.balanceAngle = false
	it.payload.trimAngle = false
}

func (it *Interp) payloadNulDelimited() {
	it.payload.valueDelim = literalDelim("\x00")
	it.payload.balanceParen = false
	it.payload.balanceBrack = false
	it.payload.balanceBrace = false
	it.payload.trimParen = false
	it.payload.trimBrack = false
	it.payload.trimBrace = false
	it.payload.trimSpace = false
	it.payload.balanceAngle = false
	it.payload.trimAngle = false
}

func (it *Interp) payloadEach(reg byte, body bytestr.String) error {
	if err := it.autoPayload(); err != nil {
		return err
	}
	data := it.payload.data.Bytes()
	off := 0
	for off < len(data) {
		end, next, ok := findDelimiterFrom(it.payload.valueDelim, data, off, &it.payload)
		if !ok {
			end, next = len(data), len(data)
		}
		it.WriteRegister(reg, it.payload.trim(bytestr.FromBytes(data[off:end])))
		if err := it.execCode(body); err != nil {
			return err
		}
		off = next
	}
	return nil
}

func (it *Interp) payloadEachKV(kreg, vreg byte, body bytestr.String) error {
	if err := it.autoPayload(); err != nil {
		return err
	}
	data := it.payload.data.Bytes()
	off := 0
	for off < len(data) {
		end, next, ok := findDelimiterFrom(it.payload.valueDelim, data, off, &it.payload)
		if !ok {
			end, next = len(data), len(data)
		}
		it.WriteRegister(kreg, it.payload.trim(bytestr.FromBytes(data[off:end])))
		off = next
		if off >= len(data) {
			break
		}
		end, next, ok = findDelimiterFrom(it.payload.valueDelim, data, off, &it.payload)
		if !ok {
			end, next = len(data), len(data)
		}
		it.WriteRegister(vreg, it.payload.trim(bytestr.FromBytes(data[off:end])))
		off = next
		if err := it.execCode(body); err != nil {
			return err
		}
	}
	return nil
}

func (it *Interp) payloadFromFile(name string) error {
	b, err := os.ReadFile(name)
	if err != nil {
		return it.errorf("opening %s: %w", name, err)
	}
	it.setPayload(bytestr.FromBytes(b))
	return nil
}

func (it *Interp) payloadFromGlob(pattern string) error {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return it.errorf("glob: %w", err)
	}
	if len(matches) == 0 {
		return it.errorf("no matches for pattern %q", pattern)
	}
	var out bytestr.String = bytestr.Empty()
	for _, m := range matches {
		out = out.AppendBytes(append([]byte(m), 0))
	}
	// Drop the trailing NUL the loop above always appends.
	b := out.Bytes()
	out = bytestr.FromBytes(b[:len(b)-1])
	it.setPayload(out)
	it.payloadNulDelimited()
	return nil
}

// cmdPayload implements `,<sub>` dispatch over the subcommand byte
// immediately following.
func cmdPayload(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("subcommand expected")
	}
	sub := code[ip]
	it.frame.ip = ip

	switch sub {
	case '!':
		return it.payloadFromCode()
	case '$':
		it.frame.ip = it.frame.code.Len()
		return nil
	case 'c':
		return it.payloadCurr()
	case ',':
		n, err := popSecondaryOrPoppedInt(it, 0)
		if err != nil {
			return err
		}
		return it.payloadNext(n)
	case ';':
		n, err := popSecondaryOrPoppedInt(it, 0)
		if err != nil {
			return err
		}
		for ; n > 0; n-- {
			if err := it.payloadNext(1); err != nil {
				return err
			}
			if err := it.payloadNext(1); err != nil {
				return err
			}
		}
		return nil
	case '.':
		n, err := popSecondaryOrPoppedInt(it, 0)
		if err != nil {
			return err
		}
		return it.payloadPrint(n)
	case ':':
		n, err := popSecondaryOrPoppedInt(it, 0)
		if err != nil {
			return err
		}
		return it.payloadPrintKV(n)
	case 'r':
		if err := it.autoPayload(); err != nil {
			return err
		}
		it.Push(it.payload.data.Clone())
		return nil
	case 'R':
		it.setPayload(it.Pop())
		return nil
	case 'x':
		return cmdPayloadRecurse(it)
	case '/':
		return cmdPayloadSetProperty(it)
	case '?':
		return cmdPayloadGetProperty(it)
	case 'h':
		if err := it.autoPayload(); err != nil {
			return err
		}
		it.Push(bytestr.FormatInt(int64(it.payload.data.Len())))
		return nil
	case 'i':
		six := it.Pop()
		ix, err := six.ParseInt()
		if err != nil {
			it.Push(six)
			return errBadInteger
		}
		datum, err := it.payloadDatumAtIndex(ix)
		if err != nil {
			it.Push(six)
			return err
		}
		it.Push(datum)
		return nil
	case 'I':
		n, err := it.payloadNumIndices()
		if err != nil {
			return err
		}
		it.Push(bytestr.FormatInt(n))
		return nil
	case 'k':
		key := it.Pop()
		datum, err := it.payloadDatumAtKey(key)
		if err != nil {
			it.Push(key)
			return err
		}
		it.Push(datum)
		return nil
	case 's':
		it.payloadSpaceDelimited()
		return nil
	case 'l':
		it.payloadLineDelimited()
		return nil
	case '0':
		it.payloadNulDelimited()
		return nil
	case 'e':
		var reg byte = 'p'
		if err := it.secondaryArgAsReg(0, &reg); err != nil {
			return err
		}
		it.sec.reset()
		body := it.Pop()
		return it.payloadEach(reg, body)
	case 'E':
		kreg, vreg := byte('k'), byte('v')
		if err := it.secondaryArgAsReg(0, &kreg); err != nil {
			return err
		}
		if err := it.secondaryArgAsReg(1, &vreg); err != nil {
			return err
		}
		it.sec.reset()
		body := it.Pop()
		return it.payloadEachKV(kreg, vreg, body)
	case 'f':
		name := it.Pop()
		if err := it.payloadFromFile(name.String()); err != nil {
			it.Push(name)
			return err
		}
		return nil
	case 'F':
		pattern := it.Pop()
		if err := it.payloadFromGlob(pattern.String()); err != nil {
			it.Push(pattern)
			return err
		}
		return nil
	default:
		return it.errorf("unrecognised subcommand")
	}
}

// popSecondaryOrPoppedInt reads a repeat count from secondary arg slot 0,
// or returns def when no secondary argument was supplied. It never pops the
// operand stack.
func popSecondaryOrPoppedInt(it *Interp, def int64) (int64, error) {
	n, err := it.secondaryArgAsInt(0, def)
	if err != nil {
		return 0, err
	}
	it.sec.reset()
	return n, nil
}

func cmdPayloadRecurse(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	code, newPayload := vs[1], vs[0]

	backup := it.payload
	it.payload.hasData, it.payload.hasBase = false, false
	it.setPayload(newPayload)

	err = it.execCode(code)
	it.payload = backup
	return err
}

func cmdPayloadSetProperty(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("missing property name")
	}
	pa := code[ip]
	ip++
	if ip >= len(code) {
		return it.errorf("second property name character missing")
	}
	pb := code[ip]
	it.frame.ip = ip

	value := it.Pop()

	setDelim := func(target *payloadDelim) {
		s := value.String()
		switch s {
		case "ws":
			*target = wsDelim
		case "lf":
			*target = lineDelim
		default:
			*target = literalDelim(s)
		}
	}

	switch [2]byte{pa, pb} {
	case [2]byte{'p', 's'}:
		setDelim(&it.payload.dataStartDelim)
	case [2]byte{'v', 'd'}:
		setDelim(&it.payload.valueDelim)
	case [2]byte{'o', 'k'}:
		it.payload.outputKVDelim = value
	case [2]byte{'o', 'v'}:
		it.payload.outputVDelim = value
	case [2]byte{'o', 's'}:
		it.payload.outputKVSDelim = value
	case [2]byte{'b', '('}:
		it.payload.balanceParen = value.Bool()
	case [2]byte{'b', '['}:
		it.payload.balanceBrack = value.Bool()
	case [2]byte{'b', '{'}:
		it.payload.balanceBrace = value.Bool()
	case [2]byte{'b', '<'}:
		it.payload.balanceAngle = value.Bool()
	case [2]byte{'t', '('}:
		it.payload.trimParen = value.Bool()
	case [2]byte{'t', '['}:
		it.payload.trimBrack = value.Bool()
	case [2]byte{'t', '{'}:
		it.payload.trimBrace = value.Bool()
	case [2]byte{'t', '<'}:
		it.payload.trimAngle = value.Bool()
	case [2]byte{'t', 's'}:
		it.payload.trimSpace = value.Bool()
	default:
		it.Push(value)
		return it.errorf("unrecognised property")
	}
	return nil
}

func cmdPayloadGetProperty(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("missing property name")
	}
	pa := code[ip]
	ip++
	if ip >= len(code) {
		return it.errorf("second property name character missing")
	}
	pb := code[ip]
	it.frame.ip = ip

	pushDelim := func(d payloadDelim) {
		switch d.kind {
		case delimWhitespace:
			it.Push(bytestr.FromString("ws"))
		case delimLine:
			it.Push(bytestr.FromString("lf"))
		default:
			it.Push(d.bytes.Clone())
		}
	}
	pushBool := func(b bool) {
		if b {
			it.Push(bytestr.FromString("1"))
		} else {
			it.Push(bytestr.FromString("0"))
		}
	}

	switch [2]byte{pa, pb} {
	case [2]byte{'p', 's'}:
		pushDelim(it.payload.dataStartDelim)
	case [2]byte{'v', 'd'}:
		pushDelim(it.payload.valueDelim)
	case [2]byte{'o', 'k'}:
		pushDelim(literalDelim(it.payload.outputKVDelim.String()))
	case [2]byte{'o', 's'}:
		pushDelim(literalDelim(it.payload.outputKVSDelim.String()))
	case [2]byte{'o', 'v'}:
		pushDelim(literalDelim(it.payload.outputVDelim.String()))
	case [2]byte{'b', '('}:
		pushBool(it.payload.balanceParen)
	case [2]byte{'b', '['}:
		pushBool(it.payload.balanceBrack)
	case [2]byte{'b', '{'}:
		pushBool(it.payload.balanceBrace)
	case [2]byte{'b', '<'}:
		pushBool(it.payload.balanceAngle)
	case [2]byte{'t', '('}:
		pushBool(it.payload.trimParen)
	case [2]byte{'t', '['}:
		pushBool(it.payload.trimBrack)
	case [2]byte{'t', '{'}:
		pushBool(it.payload.trimBrace)
	case [2]byte{'t', '<'}:
		pushBool(it.payload.trimAngle)
	case [2]byte{'t', 's'}:
		pushBool(it.payload.trimSpace)
	default:
		return it.errorf("unrecognised property")
	}
	return nil
}
