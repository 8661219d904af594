package vm

import (
	"runtime/debug"
)

// Load writes instrs[i] into memory at base+i and points PC at base,
// matching the loader described in the spec: a fresh load always starts
// the running flag true and leaves registers/flags untouched (callers get
// a zeroed CPU from New).
func (c *CPU) Load(instrs []Word, base uint64) {
	for i, w := range instrs {
		c.Memory.Write(base+uint64(i), w)
	}
	c.PC = base
	c.Running = true
}

// Step fetches, decodes, and executes exactly one instruction. It reports
// ErrHalted if the machine was not running when called. PC advances only
// when the executed instruction did not itself set PC (branches, CALL,
// RET, INT, IRET all set it directly).
func (c *CPU) Step() error {
	if !c.Running {
		return ErrHalted
	}
	word := c.Memory.Read(c.PC)
	d, err := Decode(word)
	if err != nil {
		c.Running = false
		return err
	}

	c.branched = false
	err = c.Execute(d)
	if err != nil {
		return err
	}
	if c.Running && !c.branched {
		c.PC++
	}
	return nil
}

// Run steps the machine until it halts or a non-halting error occurs.
// The fetch-execute loop runs with the garbage collector disabled, the way
// a hot interpreter loop in the pack's reference VM does, restoring the
// previous GOGC value once the run ends.
func (c *CPU) Run() error {
	prev := debug.SetGCPercent(-1)
	defer debug.SetGCPercent(prev)

	for c.Running {
		if err := c.Step(); err != nil {
			return err
		}
	}
	return nil
}

// DebugHook is called after every step while running under RunDebug; it
// returns false to request the run stop (e.g. a breakpoint hit).
type DebugHook func(c *CPU) (continueRunning bool)

// RunDebug steps the machine one instruction at a time, invoking hook
// after each step. It mirrors the teacher's single-step/breakpoint REPL
// loop, minus the terminal I/O (the cobra `debug` subcommand owns that).
func (c *CPU) RunDebug(hook DebugHook) error {
	for c.Running {
		if err := c.Step(); err != nil {
			return err
		}
		if hook != nil && !hook(c) {
			break
		}
	}
	return nil
}
