package interp

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"tgl/internal/bytestr"
)

// contextExtension returns the extension of ctx without the leading dot,
// mirroring the source's filename-extension helper used by `@e` and `V e`.
func contextExtension(ctx string) string {
	ext := filepath.Ext(ctx)
	return strings.TrimPrefix(ext, ".")
}

// cmdContext implements `@<sub>`. The subcommand byte is read without a
// whitespace skip; `?`, `s`, `e` push introspection values, and the
// remaining six letters combine a glob match against the current context
// name with the existing gate state according to spec.md's truth table.
func cmdContext(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("expected subcommand")
	}
	sub := code[ip]
	it.frame.ip = ip

	switch sub {
	case '?':
		it.Push(boolString(it.ctx.active))
		return nil
	case 's':
		it.Push(bytestr.FromString(it.ctx.name))
		return nil
	case 'e':
		it.Push(bytestr.FromString(contextExtension(it.ctx.name)))
		return nil
	}

	var skipMatch, negate bool
	switch sub {
	case '=':
		skipMatch, negate = false, false
	case '!':
		skipMatch, negate = false, true
	case '&':
		skipMatch, negate = !it.ctx.active, false
	case '|':
		skipMatch, negate = it.ctx.active, false
	case '^':
		skipMatch, negate = !it.ctx.active, true
	case 'v':
		skipMatch, negate = it.ctx.active, true
	default:
		return it.errorf("unknown subcommand")
	}

	code = it.frame.code.Bytes()
	ip = it.frame.ip + 1
	begin := ip
	for ip < len(code) && !isSpace(code[ip]) {
		ip++
	}
	if ip-begin >= 256 {
		return errGlobTooLong
	}
	glob := string(code[begin:ip])
	it.frame.ip = ip

	if !skipMatch {
		matched, err := doublestar.Match(glob, it.ctx.name)
		if err != nil {
			return it.errorf("bad context glob %q: %w", glob, err)
		}
		it.ctx.active = matched != negate
	}
	return nil
}
