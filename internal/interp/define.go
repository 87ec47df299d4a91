package interp

import (
	"fmt"
	"os"
	"time"

	"tgl/internal/bytestr"
)

// cmdDefun implements `d`: pop (name, body) and install body as the
// command bound to name. A one-byte name becomes a short command; a longer name is prepended to the long-command list.
// Redefining an already-bound command is an error.
func cmdDefun(it *Interp) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	name, body := vs[0], vs[1]

	restore := func() {
		it.PushBackN([]bytestr.String{name, body})
	}

	if name.Len() == 0 {
		restore()
		return errEmptyName
	}

	if name.Len() == 1 {
		n1 := name.Bytes()[0]
		if it.table[n1] != nil {
			restore()
			return it.errorf("short command already exists: %q", name.String())
		}
		it.table[n1] = &command{body: body, user: true}
		return nil
	}

	for curr := it.longCmds; curr != nil; curr = curr.next {
		if curr.name.Equal(name) {
			restore()
			return it.errorf("long command already exists: %q", name.String())
		}
	}
	it.longCmds = &longCommand{
		name: name,
		cmd:  command{body: body, user: true},
		next: it.longCmds,
	}
	return nil
}

// cmdContextualDefun implements `D`: defines only while the context gate is
// active; otherwise the pair is silently discarded.
func cmdContextualDefun(it *Interp) error {
	if it.ctx.active {
		return cmdDefun(it)
	}
	_, err := it.PopN(2)
	return err
}

// defunLibraryCommon pops (name, body), rejects names containing parens or
// NUL, builds a timestamped code snippet that redefines the command and
// appends it to the user library file, and evaluates that snippet
// immediately so the definition takes effect in the running session too.
func (it *Interp) defunLibraryCommon(aux *bytestr.String, defun byte) error {
	vs, err := it.PopN(2)
	if err != nil {
		return err
	}
	name, body := vs[0], vs[1]
	restore := func() {
		it.PushBackN([]bytestr.String{name, body})
	}

	for _, c := range name.Bytes() {
		if c == '(' || c == ')' || c == 0 {
			restore()
			return it.errorf("invalid command name (for use with v/V): %q", name.String())
		}
	}

	header := fmt.Sprintf("\n(Added by %s on %s);\n",
		it.cfg.UserName, time.Now().Format("Monday, 2006.01.02 15:04:05"))

	code := bytestr.FromString(header)
	if aux != nil {
		code = code.Append(*aux)
	}
	code = code.Append(bytestr.FromString("(")).
		Append(name.Clone()).
		Append(bytestr.FromString(")(")).
		Append(body.Clone()).
		Append(bytestr.FromString(")")).
		AppendByte(defun).
		Append(bytestr.FromString("\n"))

	if err := it.execCode(code); err != nil {
		it.PushBackN([]bytestr.String{name, code})
		return it.errorf("not adding function to library due to error(s): %w", err)
	}

	out, ferr := os.OpenFile(it.cfg.LibraryPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if ferr != nil {
		return it.errorf("unable to open %s: %w", it.cfg.LibraryPath, ferr)
	}
	defer out.Close()
	if _, werr := out.Write(code.Bytes()); werr != nil {
		return it.errorf("error writing to %s: %w", it.cfg.LibraryPath, werr)
	}
	return nil
}

// cmdDefunLibrary implements `v`: permanently defines a command by
// appending it to the user library.
func cmdDefunLibrary(it *Interp) error {
	return it.defunLibraryCommon(nil, 'd')
}

// cmdContextualDefunLibrary implements `V<sub>`: like `v`, but the
// generated snippet re-establishes a context gate (matching either the
// current context name or extension) before installing the command, so the
// definition only takes effect in library files whose context matches.
func cmdContextualDefunLibrary(it *Interp) error {
	code := it.frame.code.Bytes()
	ip := it.frame.ip + 1
	if ip >= len(code) {
		return it.errorf("expected subcommand")
	}
	sub := code[ip]
	it.frame.ip = ip

	var aux bytestr.String
	switch sub {
	case 's':
		aux = bytestr.FromString("@=" + it.ctx.name + "\n")
	case 'e':
		aux = bytestr.FromString("@=" + contextExtension(it.ctx.name) + "\n")
	default:
		return it.errorf("unknown subcommand")
	}
	return it.defunLibraryCommon(&aux, 'D')
}

// cmdLongCommand implements `Q<name><ws>`: scans a whitespace-free name and
// dispatches to the matching entry in the long-command list (first match
// wins, most-recently-defined first since cmdDefun prepends).
func cmdLongCommand(it *Interp) error {
	code := it.frame.code.Bytes()
	begin := it.frame.ip + 1
	ip := begin
	for ip < len(code) && !isSpace(code[ip]) {
		ip++
	}
	if ip-begin < 1 {
		return it.errorf("long command name expected")
	}
	name := bytestr.FromBytes(code[begin:ip])
	it.frame.ip = ip

	for curr := it.longCmds; curr != nil; curr = curr.next {
		if curr.name.Equal(name) {
			if curr.cmd.user {
				return it.execCode(curr.cmd.body)
			}
			return curr.cmd.fn(it)
		}
	}
	return it.errorf("long command not found: %q", name.String())
}
