// Package bytestr implements the binary-safe byte-string value that flows
// through the interpreter's operand stack and register file.
//
// A String is a value type: the zero value is the empty string, copies are
// independent, and every holder (stack cell, register slot, payload buffer)
// owns its own String. There is no shared backing array mutation visible
// across copies other than Append, which is documented to consume its
// receiver the way the source's concatenation routines consume their left
// operand.
package bytestr

import (
	"strconv"
	"strings"
)

// String is a finite, ordered, binary-safe sequence of bytes. It may
// contain NUL. len(s.data)-s.head is the logical length; head lets an "advance by
// k" operation drop a prefix without reallocating the backing array.
type String struct {
	data []byte
	head int
}

// New wraps a byte slice without copying. Callers that don't own b any
// longer should use FromBytes instead.
func New(b []byte) String {
	return String{data: b}
}

// FromBytes makes an owned copy of b.
func FromBytes(b []byte) String {
	cp := make([]byte, len(b))
	copy(cp, b)
	return String{data: cp}
}

// FromString makes an owned copy of s.
func FromString(s string) String {
	return FromBytes([]byte(s))
}

// Empty returns the zero-length string.
func Empty() String {
	return String{}
}

// Len returns the number of live bytes (after head advancement).
func (s String) Len() int {
	return len(s.data) - s.head
}

// Bytes returns the live byte range. The caller must not retain it past the
// next mutation of s.
func (s String) Bytes() []byte {
	return s.data[s.head:]
}

// String implements fmt.Stringer so diagnostics and register dumps can
// print a String directly.
func (s String) String() string {
	return string(s.Bytes())
}

// Clone makes an independent owned copy, the moral equivalent of the
// source's string-duplicate routine used whenever a register or stack cell
// is read without being consumed.
func (s String) Clone() String {
	return FromBytes(s.Bytes())
}

// Advance drops k bytes from the front without copying the remainder. It is
// the zero-copy head-shift the design notes call out; implementations are
// free to always copy instead, so Advance never mutates the backing array,
// only the head offset.
func (s String) Advance(k int) String {
	if k < 0 {
		k = 0
	}
	if k > s.Len() {
		k = s.Len()
	}
	return String{data: s.data, head: s.head + k}
}

// Append grows s in place (or reallocates) and returns the resulting
// handle. The receiver must not be used again by the caller: ownership of
// the combined bytes transfers to the returned value, mirroring the
// source's in-place-growth concatenation.
func (s String) Append(other String) String {
	return String{data: append(s.Bytes(), other.Bytes()...)}
}

// AppendBytes is Append without requiring the caller to wrap a raw slice.
func (s String) AppendBytes(b []byte) String {
	return String{data: append(s.Bytes(), b...)}
}

// AppendByte appends a single byte.
func (s String) AppendByte(b byte) String {
	return String{data: append(s.Bytes(), b)}
}

// Equal reports whether s and o hold identical byte sequences.
func (s String) Equal(o String) bool {
	a, b := s.Bytes(), o.Bytes()
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Compare performs a lexicographic byte comparison: negative if s < o, 0 if
// equal, positive if s > o.
func (s String) Compare(o String) int {
	a, b := s.Bytes(), o.Bytes()
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return int(a[i]) - int(b[i])
		}
	}
	return len(a) - len(b)
}

// ParseInt parses a signed integer, accepting an optional leading sign and
// an optional 0x/0X, 0b/0B, 0o/0O base prefix; base 10 otherwise. It
// validates every consumed digit the way the source's literal scanner does
// before it ever pushes a value.
func (s String) ParseInt() (int64, error) {
	b := string(s.Bytes())
	// A leading zero followed by a digit is still decimal, not octal.
	digits := strings.TrimLeft(b, "+-")
	if len(digits) > 1 && digits[0] == '0' && digits[1] >= '0' && digits[1] <= '9' {
		return strconv.ParseInt(b, 10, 64)
	}
	return strconv.ParseInt(b, 0, 64)
}

// FormatInt renders n as base-10 ASCII; ParseInt is its left inverse, so
// ParseInt(FormatInt(n)) == n for every int64 n.
func FormatInt(n int64) String {
	return FromString(strconv.FormatInt(n, 10))
}

// Bool converts a string to a boolean the way the source's truthiness check
// does: parse as integer and test non-zero, otherwise fall back to
// non-empty.
func (s String) Bool() bool {
	if n, err := s.ParseInt(); err == nil {
		return n != 0
	}
	return s.Len() > 0
}
