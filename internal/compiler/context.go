// Package compiler implements the two pieces of the front-end that are
// not treated as an external black box: expression lowering (syntax tree
// to assembly targeting a chosen register) and the instruction-graph
// flattener (tree of declaration/assignment/loop/process nodes to
// assembly).
//
// Both operate on a CompileContext rather than package-level state. The
// original prototype threads a module-level symbol table and temp
// counter through every compile; that makes two compilations in the same
// process interfere with each other. CompileContext is the fix the
// design notes call for: every piece of mutable compile state lives on
// one value passed (or held) by the caller, so independent compiles never
// share state.
package compiler

import "fmt"

const maxRegisters = 16

// CompileContext holds the per-compilation mutable state: the dense
// variable-name-to-register symbol table and the statement-scoped temp
// counter.
type CompileContext struct {
	symbols   map[string]int
	order     []string
	tempCount int
}

// NewContext returns an empty compile context.
func NewContext() *CompileContext {
	return &CompileContext{symbols: make(map[string]int)}
}

// regFor returns the dense register index bound to name, assigning the
// next free index on first use (appending to the symbol table in
// first-seen order, as the spec requires).
func (ctx *CompileContext) regFor(name string) int {
	if r, ok := ctx.symbols[name]; ok {
		return r
	}
	r := len(ctx.symbols)
	ctx.symbols[name] = r
	ctx.order = append(ctx.order, name)
	return r
}

// ResetStatement clears the temp counter. Call this before lowering each
// top-level declaration or assignment, matching the spec's "temp counter
// resets at every top-level statement" rule.
func (ctx *CompileContext) ResetStatement() {
	ctx.tempCount = 0
}

// allocTemp returns a fresh temporary register index, or an error if
// doing so would exceed the 16-register file. The design notes flag the
// source's uncapped allocator (temp_id = symbol_count + temp_count) as
// able to exceed register 15 for deep expressions; this implementation
// takes the "cap and fail cleanly" option rather than adding a spill
// allocator, since a full allocator is a second subsystem out of
// proportion with a 16-register teaching machine.
func (ctx *CompileContext) allocTemp() (int, error) {
	id := len(ctx.symbols) + ctx.tempCount
	if id >= maxRegisters {
		return 0, fmt.Errorf("compiler: expression too complex for available registers (needs R%d, only 0..%d exist)", id, maxRegisters-1)
	}
	ctx.tempCount++
	return id, nil
}
