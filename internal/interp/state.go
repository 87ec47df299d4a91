// Package interp implements the TGL interpreter engine: the byte-stream
// dispatcher, the operand stack and register file, the command table, the
// control-flow primitives, the quoting/escape/interpolation surface, the
// payload subsystem, and the register-persistence format.
//
// The struct layout below plays the same role as the teacher's VM struct:
// a single value holding every piece of mutable machine state, constructed
// once by New and then driven one command at a time by Run.
package interp

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"tgl/internal/bytestr"
)

const (
	numRegisters       = 256
	historyRegisters   = 0x20 // registers 0x00-0x1F are the history ring
	numSecondaryArgs   = 4
	diagnosticWindow   = 32
	pstackSnapshotSize = numRegisters
)

// native is the signature every built-in command handler implements. It is
// invoked with the IP sitting on the command's dispatch byte; a handler
// that consumes additional bytes (a literal, an escape, a quoted string)
// must leave the IP on the last byte it consumed — the dispatcher's
// post-success advance is what positions IP at the next unread byte.
type native func(it *Interp) error

// command is the tagged union the command table stores: either a native
// Go function or a user-defined body installed by `d`/`D`.
type command struct {
	fn   native
	body bytestr.String
	user bool
}

// longCommand is one entry in the singly-linked long-command list, keyed
// by a whitespace-free name of 2 or more bytes.
type longCommand struct {
	name bytestr.String
	cmd  command
	next *longCommand
}

// codeFrame is the (code, ip) pair exec_code saves and restores around a
// nested invocation. The code reference is never owned by the frame; the
// caller that pushed it retains ownership.
type codeFrame struct {
	code bytestr.String
	ip   int
}

// contextState holds the `@`-family gating state.
type contextState struct {
	name   string
	active bool
}

// secondaryArgs is the small ring `u<spec>` populates ahead of the command
// that consumes it. A nil slot means "not supplied" (the command receiving
// it falls back to its own default); this is distinct from a supplied empty
// string.
type secondaryArgs struct {
	slots [numSecondaryArgs]*bytestr.String
	ux    int
}

func (sa *secondaryArgs) reset() {
	sa.ux = 0
	for i := range sa.slots {
		sa.slots[i] = nil
	}
}

// pstackFrame is a full duplicated snapshot of the register file, pushed by
// `p` and restored by `P`.
type pstackFrame struct {
	registers [pstackSnapshotSize]bytestr.String
	next      *pstackFrame
}

// Config carries the interpreter-scoped values the source treats as
// process globals: current context, user library path, and the external
// tool overrides.
type Config struct {
	LibraryPath string
	RegPersPath string
	Context     string
	UserName    string
	ShellPath   string
	SedPath     string
	PerlPath    string
	TclPath     string
	HistoryOn   bool
}

// Interp is the complete mutable state of one interpreter instance.
type Interp struct {
	registers [numRegisters]bytestr.String
	regTime   [numRegisters]int64

	stack  []bytestr.String // LIFO, last element is top
	pstack *pstackFrame

	table    [numRegisters]*command
	longCmds *longCommand

	frame codeFrame // current (code, ip)

	initialWhitespace *bytestr.String

	ctx contextState
	sec secondaryArgs

	payload payloadState

	cfg Config

	stdout io.Writer
	stdin  *bufio.Reader
	rng    *rand.Rand

	libFile *os.File

	// historyOffset advances by one on every successful `h` read, so
	// consecutive reads walk back through the history ring instead of
	// repeatedly reading the same slot.
	historyOffset int64
	// historyEnabled gates the post-run history shift; `H` clears it for the
	// remainder of the current file execution.
	historyEnabled bool

	// clock lets tests substitute a deterministic time source; nil means
	// time.Now().Unix().
	clock func() int64
}

var (
	errStackUnderflow    = errors.New("stack underflow")
	errRegisterUnderflow = errors.New("p-stack underflow")
	errBadInteger        = errors.New("invalid integer literal")
	errDivisionByZero    = errors.New("division by zero")
	errUnbalancedParen   = errors.New("unbalanced parenthesis")
	errUnknownCommand    = errors.New("unknown command")
	errBadEscape         = errors.New("invalid escape sequence")
	errUnterminatedQuote = errors.New("unterminated quoted string")
	errNoInitialWS       = errors.New("no initial whitespace captured")
	errAlreadyDefined    = errors.New("command already defined")
	errEmptyName         = errors.New("definition name must not be empty")
	errNoPayload         = errors.New("no payload available")
	errGlobTooLong       = errors.New("glob pattern too long")
	errNoCurrentItem     = errors.New("no current payload item")
	errBadRegisterName   = errors.New("register name must be exactly one byte")
	errBadIncrement      = errors.New("for-loop increment must be non-zero")
	errMissingShell      = errors.New("SHELL environment variable is not set")
)

// New builds a fresh interpreter: empty registers, empty stack, only the
// built-in command table populated.
func New(cfg Config) *Interp {
	it := &Interp{
		cfg:    cfg,
		stdout: os.Stdout,
		stdin:  bufio.NewReader(os.Stdin),
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for i := range it.registers {
		it.registers[i] = bytestr.Empty()
	}
	it.ctx = contextState{name: cfg.Context, active: false}
	it.payload = newPayloadState()
	it.historyEnabled = cfg.HistoryOn
	registerBuiltins(it)
	return it
}

func (it *Interp) now() int64 {
	if it.clock != nil {
		return it.clock()
	}
	return time.Now().Unix()
}

// Depth returns the current operand stack depth.
func (it *Interp) Depth() int {
	return len(it.stack)
}

// Push transfers ownership of v onto the operand stack.
func (it *Interp) Push(v bytestr.String) {
	it.stack = append(it.stack, v)
}

// Pop removes and returns ownership of the top value. It panics if the
// stack is empty; callers must check Depth (or use PopN) first since the
// dispatcher's contract is that underflow is detected before any mutation.
func (it *Interp) Pop() bytestr.String {
	n := len(it.stack) - 1
	v := it.stack[n]
	it.stack = it.stack[:n]
	return v
}

// Peek returns the value at the given depth from the top (0 = top) without
// removing it.
func (it *Interp) Peek(depthFromTop int) bytestr.String {
	return it.stack[len(it.stack)-1-depthFromTop]
}

// PopN pops n values off the stack atomically: if depth < n, the stack is
// left untouched and an error is returned. Values are returned in the order
// they were pushed (bottom-most popped value first), matching the "pops
// (body, name)" style documentation in spec.md.
func (it *Interp) PopN(n int) ([]bytestr.String, error) {
	if len(it.stack) < n {
		return nil, errStackUnderflow
	}
	out := make([]bytestr.String, n)
	start := len(it.stack) - n
	copy(out, it.stack[start:])
	it.stack = it.stack[:start]
	return out, nil
}

// PushBackN re-pushes values in their original order; used to restore
// atomicity when a multi-pop operation fails partway through validation
// (e.g. PopInts).
func (it *Interp) PushBackN(vs []bytestr.String) {
	it.stack = append(it.stack, vs...)
}

// PopInts pops n values and parses each as an integer. On the first parse
// failure, all popped values are pushed back in their original order so the
// overall operation is atomic from the caller's perspective.
func (it *Interp) PopInts(n int) ([]int64, error) {
	vs, err := it.PopN(n)
	if err != nil {
		return nil, err
	}
	ints := make([]int64, n)
	for i, v := range vs {
		iv, err := v.ParseInt()
		if err != nil {
			it.PushBackN(vs)
			return nil, errBadInteger
		}
		ints[i] = iv
	}
	return ints, nil
}

// ReadRegister duplicates register r onto the stack and touches its access
// time, per spec.md's `read R` semantics.
func (it *Interp) ReadRegister(r byte) bytestr.String {
	it.regTime[r] = it.now()
	return it.registers[r].Clone()
}

// WriteRegister installs v into register r (freeing the prior value is
// implicit in Go's GC; we still drop the old handle explicitly to mirror
// the source's free-then-install discipline) and touches its access time.
func (it *Interp) WriteRegister(r byte, v bytestr.String) {
	it.registers[r] = v
	it.regTime[r] = it.now()
}

func (it *Interp) errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}
