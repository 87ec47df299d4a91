package interp

// registerBuiltins installs every native command into it.table, keyed by
// its single dispatch byte. This is the Go-side equivalent of the source's
// static builtins_[] array, but built from the full union of per-file
// bindings rather than the older incomplete table.
func registerBuiltins(it *Interp) {
	bind := func(b byte, fn native) {
		it.table[b] = &command{fn: fn}
	}

	// Context gating.
	bind('@', cmdContext)

	// Control flow.
	bind('f', cmdFor)
	bind('F', cmdForShort)
	bind('e', cmdEach)
	bind('i', cmdIf)
	bind('I', cmdIfShort)
	bind('w', cmdWhile)
	bind('W', cmdWhileShort)

	// Definitions and long-command dispatch.
	bind('d', cmdDefun)
	bind('D', cmdContextualDefun)
	bind('v', cmdDefunLibrary)
	bind('V', cmdContextualDefunLibrary)
	bind('Q', cmdLongCommand)

	// External process invocation.
	bind('b', cmdShellScript)
	bind('B', cmdShellCommand)
	bind('j', cmdSed)
	bind('J', cmdPerl)
	bind('t', cmdTcl)

	// History.
	bind('h', cmdHistory)
	bind('H', cmdSuppressHistory)

	// Logical operators.
	bind('&', cmdAnd)
	bind('|', cmdOr)
	bind('^', cmdXor)
	bind('~', cmdNot)

	// Arithmetic and numeric literals.
	for d := byte('0'); d <= '9'; d++ {
		bind(d, cmdIntegerLiteral)
	}
	bind('#', cmdIntegerLiteral)
	bind('+', cmdAdd)
	bind('-', cmdSub)
	bind('*', cmdMul)
	bind('/', cmdDiv)
	bind('%', cmdMod)
	bind('<', cmdLess)
	bind('>', cmdGreater)
	bind('?', cmdRand)

	// Payload subsystem.
	bind(',', cmdPayload)

	// Quoting and escapes.
	bind('(', cmdCodeBlock)
	bind('\\', cmdEscape)
	bind('"', cmdQuotedString)

	// Registers and stash/retrieve.
	bind('r', cmdReadRegister)
	bind('R', cmdWriteRegister)
	bind('p', cmdStash)
	bind('P', cmdRetrieve)
	bind('z', cmdStashRetrieve)
	bind('a', cmdAutoWrite)

	// Secondary arguments.
	bind('u', cmdSecondaryArgument)

	// Stack manipulation.
	bind(':', cmdDupe)
	bind(';', cmdDrop)
	bind('x', cmdSwap)

	// String operations.
	bind('y', cmdEmptyString)
	bind('.', cmdPrint)
	bind('\'', cmdChar)
	bind('c', cmdConcat)
	bind('l', cmdLength)
	bind('C', cmdCharAt)
	bind('s', cmdSubstr)
	bind('S', cmdSuffix)
	bind('m', cmdMap)
	bind('=', cmdEqual)
	bind('!', cmdNotEqual)
	bind('{', cmdStringLess)
	bind('}', cmdStringGreater)
	bind('X', cmdEval)
}
