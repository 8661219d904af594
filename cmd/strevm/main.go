// Command strevm is the textual driver and separate assembler entry point
// for the toolchain: it compiles and runs `.stre` source through the
// expression-lowering/graph-flattener front end, assembles and runs `.asm`
// source directly (the full lexer/grammar that produces richer `.stre`
// programs is an external collaborator this binary doesn't embed), or
// single-steps assembly source under a debugger (debug does not compile
// `.stre` source).
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"strevm/internal/asm"
	"strevm/internal/driver"
	"strevm/internal/preprocess"
	"strevm/internal/vm"
)

var (
	verbose      bool
	includePaths []string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "strevm",
		Short: "Assembler and virtual machine for the stre educational ISA",
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level tracing")
	root.PersistentFlags().StringSliceVar(&includePaths, "include", nil, "additional #include search directories")

	root.AddCommand(newRunCmd(), newAsmCmd(), newDebugCmd())
	return root
}

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func expandSource(path string) (string, error) {
	pre := &preprocess.Preprocessor{IncludePaths: includePaths}
	return pre.Expand(path)
}

func linesFromText(text string) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	return lines, scanner.Err()
}

func readLines(path string) ([]string, error) {
	text, err := expandSource(path)
	if err != nil {
		return nil, err
	}
	return linesFromText(text)
}

// newRunCmd ties preprocess -> (compile if the source is a .stre file) ->
// assemble -> execute together, per the textual driver's §6 description. A
// .stre source goes through driver.CompileAndRun (expression lowering +
// graph flattening); anything else is treated as already-assembled text
// and goes straight to driver.AssembleAndRun.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <source-file>",
		Short: "Compile/assemble and execute a source file, printing the full driver output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := expandSource(args[0])
			if err != nil {
				return err
			}

			if strings.EqualFold(filepath.Ext(args[0]), ".stre") {
				res, lines, err := driver.CompileAndRun(text, newLogger())
				if err != nil {
					return err
				}
				driver.Print(cmd.OutOrStdout(), lines, res)
				return nil
			}

			lines, err := linesFromText(text)
			if err != nil {
				return err
			}
			res, err := driver.AssembleAndRun(lines, newLogger())
			if err != nil {
				return err
			}
			driver.Print(cmd.OutOrStdout(), lines, res)
			return nil
		},
	}
}

func newAsmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "asm <source-file>",
		Short: "Assemble a source file, printing one encoded integer per line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readLines(args[0])
			if err != nil {
				return err
			}
			words, _, err := asm.Assemble(lines)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			for _, word := range words {
				fmt.Fprintln(w, word.Value)
			}
			return nil
		},
	}
}

func newDebugCmd() *cobra.Command {
	var breakAt int
	c := &cobra.Command{
		Use:   "debug <source-file>",
		Short: "Assemble and single-step a source file, stopping at a breakpoint instruction index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lines, err := readLines(args[0])
			if err != nil {
				return err
			}
			words, _, err := asm.Assemble(lines)
			if err != nil {
				return fmt.Errorf("assemble: %w", err)
			}

			log := newLogger()
			c := vm.New(vm.WithLogger(log))
			c.Load(words, 0)

			w := cmd.OutOrStdout()
			steps := 0
			err = c.RunDebug(func(cpu *vm.CPU) bool {
				steps++
				fmt.Fprintf(w, "step %d: PC=%d Z=%v N=%v\n", steps, cpu.PC, cpu.Flags.Z, cpu.Flags.N)
				if breakAt > 0 && int(cpu.PC) == breakAt {
					fmt.Fprintf(w, "breakpoint hit at instruction %d\n", breakAt)
					return false
				}
				return true
			})
			if err != nil {
				fmt.Fprintf(w, "stopped: %v\n", err)
			}
			return nil
		},
	}
	c.Flags().IntVar(&breakAt, "break", 0, "instruction index to break at")
	return c
}
