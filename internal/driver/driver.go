// Package driver implements the textual top-level entry point: compile
// (when given instruction-graph source) or assemble-only, then execute,
// printing the assembly listing, the encoded words, the final register
// contents, and a success line, per the external-interfaces spec.
package driver

import (
	"errors"
	"fmt"
	"io"
	"math/bits"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"strevm/internal/asm"
	"strevm/internal/compiler"
	"strevm/internal/vm"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	cellStyle   = lipgloss.NewStyle().PaddingRight(2)
)

// Result carries everything a caller might want after a run: the
// assembled words, the final CPU state, and whether the VM stopped on a
// runtime error (divide-by-zero, unknown opcode) rather than HALT.
type Result struct {
	Words     []vm.Word
	Labels    map[string]int
	CPU       *vm.CPU
	RuntimeErr error
}

// AssembleAndRun assembles the given assembly lines and runs them on a
// fresh CPU loaded at base 0, the default every example scenario uses.
func AssembleAndRun(lines []string, log zerolog.Logger) (*Result, error) {
	words, labels, err := asm.Assemble(lines)
	if err != nil {
		return nil, fmt.Errorf("assemble: %w", err)
	}

	c := vm.New(vm.WithLogger(log))
	c.Load(words, 0)

	runErr := c.Run()
	var result = &Result{Words: words, Labels: labels, CPU: c}
	if runErr != nil {
		if errors.Is(runErr, vm.ErrDivideByZero) || errors.Is(runErr, vm.ErrUnknownOpcode) {
			// Runtime errors stop the VM but do not abort the host.
			result.RuntimeErr = runErr
		} else {
			return result, runErr
		}
	}
	return result, nil
}

// CompileAndRun parses stre source into an instruction graph (expression
// lowering happens as ParseProgram builds it), flattens the graph into
// assembly the same way the graph-flattener component design describes,
// then assembles and runs the result. This is the compile->assemble->
// execute path the textual driver's §6 entry describes for source (as
// opposed to AssembleAndRun, which takes already-written assembly). It
// returns the flattened assembly lines alongside the result so callers can
// print the listing section.
func CompileAndRun(source string, log zerolog.Logger) (*Result, []string, error) {
	g, ctx, err := compiler.ParseProgram(source)
	if err != nil {
		return nil, nil, fmt.Errorf("compile: %w", err)
	}
	lines := compiler.Flatten(ctx, g)
	res, err := AssembleAndRun(lines, log)
	return res, lines, err
}

// Print writes the four required sections: assembly listing, encoded
// words (value/binary/bit length), final registers, and a success line.
func Print(w io.Writer, lines []string, res *Result) {
	fmt.Fprintln(w, headerStyle.Render("assembly listing"))
	for i, l := range lines {
		fmt.Fprintf(w, "%s%s\n", cellStyle.Render(fmt.Sprintf("%3d:", i)), l)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("encoded words"))
	for i, word := range res.Words {
		l := effectiveBits(word)
		fmt.Fprintf(w, "%s%s%s\n",
			cellStyle.Render(fmt.Sprintf("%3d:", i)),
			cellStyle.Render(fmt.Sprintf("value=%d", word.Value)),
			cellStyle.Render(fmt.Sprintf("bin=%s bits=%d", strconv.FormatUint(word.Value, 2), l)),
		)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render("registers"))
	for i, v := range res.CPU.Registers {
		fmt.Fprintf(w, "R%-3d= %d\n", i, v)
	}

	fmt.Fprintln(w)
	if res.RuntimeErr != nil {
		fmt.Fprintf(w, "stopped: %v\n", res.RuntimeErr)
		return
	}
	fmt.Fprintln(w, "program halted successfully")
}

func effectiveBits(w vm.Word) uint8 {
	if w.Bits != 0 {
		return w.Bits
	}
	if w.Value == 0 {
		return 8
	}
	return uint8(bits.Len64(w.Value))
}
