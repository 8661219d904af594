package vm

import "errors"

var (
	// ErrInstructionTooShort is returned by Decode when a word doesn't
	// carry enough bits for the fields its opcode requires.
	ErrInstructionTooShort = errors.New("vm: instruction too short")
	// ErrUnknownOpcode marks an opcode absent from the dispatch table.
	ErrUnknownOpcode = errors.New("vm: unknown opcode")
	// ErrDivideByZero is raised by DIV/immediate-DIV with a zero divisor.
	ErrDivideByZero = errors.New("vm: division by zero")
	// ErrHalted is returned by Step once the machine has stopped running.
	ErrHalted = errors.New("vm: machine halted")
	// ErrBadRegister flags a register index outside 0..15.
	ErrBadRegister = errors.New("vm: register index out of range")
)
