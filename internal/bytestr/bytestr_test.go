package bytestr

import "testing"

func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

func TestBoolConversion(t *testing.T) {
	assert(t, FromString("").Bool() == false, "empty string should be false")
	assert(t, FromString("0").Bool() == false, "\"0\" should be false")
	assert(t, FromString("1").Bool() == true, "\"1\" should be true")
	assert(t, FromString("abc").Bool() == true, "non-numeric non-empty should be true")
}

func TestParseFormatRoundTrip(t *testing.T) {
	cases := []int64{0, 1, -1, 42, -42, 2147483647, -2147483648}
	for _, n := range cases {
		s := FormatInt(n)
		got, err := s.ParseInt()
		assert(t, err == nil, "unexpected parse error for %d: %s", n, err)
		assert(t, got == n, "round trip mismatch: got %d want %d", got, n)
	}
}

func TestParseIntBasePrefixes(t *testing.T) {
	cases := map[string]int64{
		"0x1F": 31,
		"0X10": 16,
		"0b101": 5,
		"0o17":  15,
		"-5":    -5,
		"+5":    5,
	}
	for in, want := range cases {
		got, err := FromString(in).ParseInt()
		assert(t, err == nil, "unexpected error parsing %q: %s", in, err)
		assert(t, got == want, "parsing %q: got %d want %d", in, got, want)
	}
}

func TestAdvanceDoesNotCopy(t *testing.T) {
	s := FromString("hello world")
	adv := s.Advance(6)
	assert(t, adv.String() == "world", "got %q", adv.String())
	assert(t, s.String() == "hello world", "original should be unaffected")
}

func TestCompareAndEqual(t *testing.T) {
	a := FromString("abc")
	b := FromString("abd")
	assert(t, a.Compare(b) < 0, "abc should sort before abd")
	assert(t, b.Compare(a) > 0, "abd should sort after abc")
	assert(t, a.Compare(a.Clone()) == 0, "a string should compare equal to its clone")
	assert(t, a.Equal(a.Clone()), "clone should be Equal")
}
