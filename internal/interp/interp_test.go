package interp

import (
	"bytes"
	"fmt"
	"testing"

	"tgl/internal/bytestr"
)

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(fmt.Sprintf("%v %s", cond, format), args...)
	}
}

func newTestInterp(out *bytes.Buffer) *Interp {
	it := New(Config{UserName: "tester"})
	it.stdout = out
	return it
}

func runSource(t *testing.T, source string) (*Interp, *bytes.Buffer, error) {
	t.Helper()
	var out bytes.Buffer
	it := newTestInterp(&out)
	err := it.Run(bytestr.FromString(source))
	return it, &out, err
}

func TestArithmeticAndPrint(t *testing.T) {
	_, out, err := runSource(t, `#3#4+.`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "7", "got %q", out.String())
}

func TestDivisionByZero(t *testing.T) {
	_, _, err := runSource(t, `#1#0/`)
	assert(t, err == errDivisionByZero, "expected division by zero, got %v", err)
}

func TestUnbalancedParen(t *testing.T) {
	_, _, err := runSource(t, `(abc`)
	assert(t, err == errUnbalancedParen, "expected unbalanced paren, got %v", err)
}

func TestStackUnderflow(t *testing.T) {
	_, _, err := runSource(t, `+`)
	assert(t, err == errStackUnderflow, "expected stack underflow, got %v", err)
}

func TestCodeBlockAndIf(t *testing.T) {
	_, out, err := runSource(t, `#1("true".)("false".)i`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "true", "got %q", out.String())

	_, out, err = runSource(t, `#0("true".)("false".)i`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "false", "got %q", out.String())
}

func TestIfShortNoOp(t *testing.T) {
	_, out, err := runSource(t, `#0("shown".)I`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "", "expected no output, got %q", out.String())
}

func TestCountedForFourPop(t *testing.T) {
	// reg 'i', from 0, to 3, body prints $i
	_, out, err := runSource(t, `'i#0#3("$i".)f`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "012", "got %q", out.String())
}

func TestCountedForSecondaryArgs(t *testing.T) {
	// from=1 via u1, to=4, body prints $i (default register)
	_, out, err := runSource(t, `u1#4("$i".)f`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "123", "got %q", out.String())
}

func TestForShortUsesDefaults(t *testing.T) {
	_, out, err := runSource(t, `#3("$i".)F`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "012", "got %q", out.String())
}

func TestWhileLoop(t *testing.T) {
	// reg 'i' starts at 0; loop while i<3, printing then incrementing.
	_, out, err := runSource(t, `#0Ri(ri#3<)("$i".ri#1+Ri)w`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "012", "got %q", out.String())
}

func TestSwapRoundTrip(t *testing.T) {
	var out bytes.Buffer
	it := newTestInterp(&out)
	it.Push(bytestr.FromString("a"))
	it.Push(bytestr.FromString("b"))
	err := cmdSwap(it)
	assert(t, err == nil, "unexpected error: %v", err)
	err = cmdSwap(it)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, it.Peek(0).String() == "b", "expected b on top, got %q", it.Peek(0).String())
	assert(t, it.Peek(1).String() == "a", "expected a beneath, got %q", it.Peek(1).String())
}

func TestDupeDropIdentity(t *testing.T) {
	var out bytes.Buffer
	it := newTestInterp(&out)
	it.Push(bytestr.FromString("x"))
	assert(t, cmdDupe(it) == nil, "dupe failed")
	assert(t, it.Depth() == 2, "expected depth 2, got %d", it.Depth())
	assert(t, cmdDrop(it) == nil, "drop failed")
	assert(t, it.Depth() == 1, "expected depth 1, got %d", it.Depth())
	assert(t, it.Peek(0).String() == "x", "expected x remaining, got %q", it.Peek(0).String())
}

func TestRegisterStashRetrieveRoundTrip(t *testing.T) {
	var out bytes.Buffer
	it := newTestInterp(&out)
	it.WriteRegister('a', bytestr.FromString("one"))
	assert(t, cmdStash(it) == nil, "stash failed")
	it.WriteRegister('a', bytestr.FromString("two"))
	assert(t, cmdRetrieve(it) == nil, "retrieve failed")
	assert(t, it.registers['a'].String() == "one", "expected register restored to 'one', got %q", it.registers['a'].String())
}

func TestIntegerLiteralBaseRoundTrip(t *testing.T) {
	for _, tc := range []struct{ src, want string }{
		{`#0x1F.`, "31"},
		{`#0b101.`, "5"},
		{`#0o17.`, "15"},
		{`#-5.`, "-5"},
	} {
		_, out, err := runSource(t, tc.src)
		assert(t, err == nil, "unexpected error for %s: %v", tc.src, err)
		assert(t, out.String() == tc.want, "for %s: got %q want %q", tc.src, out.String(), tc.want)
	}
}

func TestDefineAndDispatchShortCommand(t *testing.T) {
	_, out, err := runSource(t, `'g("hi".)d g`)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "hi", "got %q", out.String())
}

func TestRedefiningShortCommandErrors(t *testing.T) {
	_, _, err := runSource(t, `'.(y)d`)
	assert(t, err != nil, "expected error redefining '.'")
}

func TestLongCommandDispatch(t *testing.T) {
	_, out, err := runSource(t, "\"greet\"(\"hi\".)dQgreet ")
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, out.String() == "hi", "got %q", out.String())
}

func TestContextGateActivatesOnGlobMatch(t *testing.T) {
	it := New(Config{Context: "foo.txt"})
	it.frame = codeFrame{code: bytestr.FromString("@=*.txt"), ip: 0}
	err := cmdContext(it)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, it.ctx.active, "expected context active after matching glob")
}

func TestContextualDefunDropsWhenInactive(t *testing.T) {
	it, _, err := runSource(t, `'g("x".)D`)
	assert(t, err == nil, "unexpected error: %v", err)
	// g should remain unbound since context starts inactive
	err = it.Run(bytestr.FromString(`g`))
	assert(t, err == errUnknownCommand, "expected unknown command, got %v", err)
}

func TestQuotedStringInterpolation(t *testing.T) {
	var out bytes.Buffer
	it := newTestInterp(&out)
	it.WriteRegister('x', bytestr.FromString("42"))
	it.Push(bytestr.FromString("popped"))
	it.frame = codeFrame{code: bytestr.FromString(`"reg=$x val=%"`), ip: 0}
	err := cmdQuotedString(it)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, it.Peek(0).String() == "reg=42 val=popped", "got %q", it.Peek(0).String())
}

func TestEscapeBracketInsideQuoteIsLiteral(t *testing.T) {
	var out bytes.Buffer
	it := newTestInterp(&out)
	it.frame = codeFrame{code: bytestr.FromString(`"a\(b"`), ip: 0}
	err := cmdQuotedString(it)
	assert(t, err == nil, "unexpected error: %v", err)
	assert(t, it.Peek(0).String() == "a(b", "got %q", it.Peek(0).String())
}

func TestStringComparisons(t *testing.T) {
	var out bytes.Buffer
	it := newTestInterp(&out)
	it.Push(bytestr.FromString("ab"))
	it.Push(bytestr.FromString("abc"))
	assert(t, cmdStringLess(it) == nil, "stringless failed")
	assert(t, it.Pop().Bool(), "expected ab < abc")
}

func TestSubstrClamping(t *testing.T) {
	var out bytes.Buffer
	it := newTestInterp(&out)
	it.Push(bytestr.FromString("hello"))
	it.Push(bytestr.FromString("-10"))
	it.Push(bytestr.FromString("3"))
	assert(t, cmdSubstr(it) == nil, "substr failed")
	assert(t, it.Pop().String() == "hel", "got unexpected substring")
}

func TestCharAtNegativeIndex(t *testing.T) {
	var out bytes.Buffer
	it := newTestInterp(&out)
	it.Push(bytestr.FromString("hello"))
	it.Push(bytestr.FromString("-1"))
	assert(t, cmdCharAt(it) == nil, "charat failed")
	assert(t, it.Pop().String() == "o", "expected last char")
}
