package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	numRegisters = 16
	spRegister   = 15
)

// Flags holds the two condition codes the spec defines.
type Flags struct {
	Z bool
	N bool
}

func (f *Flags) setFromResult(result uint64) {
	f.Z = result == 0
	f.N = result>>63&1 == 1
}

// Memory is a sparse word-addressed store. Reads of addresses never
// written return the zero Word, whose Bits field of 0 decodes as an
// implicit NOP (see Word.effectiveBits).
type Memory map[uint64]Word

func (m Memory) Read(addr uint64) Word {
	return m[addr]
}

func (m Memory) Write(addr uint64, w Word) {
	m[addr] = w
}

// CPU is the register-file machine: 16 general-purpose 64-bit registers
// (R15 doubles as the stack pointer), Z/N flags, a program counter, and
// memory shared between instructions and data.
type CPU struct {
	Registers [numRegisters]uint64
	Flags     Flags
	PC        uint64
	Running   bool
	Memory    Memory

	branched bool

	stdin  *bufio.Reader
	stdout io.Writer
	log    zerolog.Logger
}

// Option configures a CPU at construction time.
type Option func(*CPU)

// WithStdin overrides the reader IN blocks on.
func WithStdin(r io.Reader) Option {
	return func(c *CPU) { c.stdin = bufio.NewReader(r) }
}

// WithStdout overrides the writer OUT writes to.
func WithStdout(w io.Writer) Option {
	return func(c *CPU) { c.stdout = w }
}

// WithLogger overrides the structured logger used for debug-level
// diagnostics (store operations, interrupts).
func WithLogger(l zerolog.Logger) Option {
	return func(c *CPU) { c.log = l }
}

// New returns a CPU with zeroed registers, zeroed flags, and empty memory,
// matching the "created at CPU init, zeroed" lifecycle the data model
// describes.
func New(opts ...Option) *CPU {
	c := &CPU{
		Memory: make(Memory),
		stdin:  bufio.NewReader(os.Stdin),
		stdout: os.Stdout,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CPU) reg(i uint8) uint64 {
	return c.Registers[i&0xF]
}

func (c *CPU) setReg(i uint8, v uint64) {
	c.Registers[i&0xF] = v
}

func (c *CPU) sp() uint64 {
	return c.Registers[spRegister]
}

func (c *CPU) setSP(v uint64) {
	c.Registers[spRegister] = v
}
