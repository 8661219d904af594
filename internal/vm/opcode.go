package vm

// Opcode identifies the top 8 bits of an encoded word.
type Opcode uint8

const (
	OpNOP  Opcode = 0x00
	OpHALT Opcode = 0xFF

	// 0xC2 and 0xC3 are mode-dispatched families: the same opcode covers
	// several mnemonics, distinguished only by the 2-bit mode field.
	OpLoad  Opcode = 0xC2 // MOV (mode 0), LOADK (mode 1), LOADM (mode 2), LOADI (mode 3)
	OpStore Opcode = 0xC3 // STOREM (mode != 3), STOREI (mode 3)

	OpADD Opcode = 0x81
	OpSUB Opcode = 0x82
	OpMUL Opcode = 0x83
	OpDIV Opcode = 0x84
	OpCMP Opcode = 0x8A

	OpNOT Opcode = 0x10
	OpAND Opcode = 0x11
	OpXOR Opcode = 0x12
	OpOR  Opcode = 0x13

	OpTEST Opcode = 0x21
	OpSHL  Opcode = 0x28
	OpSHR  Opcode = 0x29

	OpINC Opcode = 0x48
	OpDEC Opcode = 0x49

	OpIN  Opcode = 0x90
	OpOUT Opcode = 0x91

	OpPUSH Opcode = 0xD0
	OpPOP  Opcode = 0xD1

	OpLOADSP  Opcode = 0xD2
	OpSTORESP Opcode = 0xD3

	OpCALL Opcode = 0xD8
	OpRET  Opcode = 0xD9

	OpJMP Opcode = 0xE0
	OpJZ  Opcode = 0xE1
	OpJN  Opcode = 0xE2
	OpJNN Opcode = 0xED
	OpJNZ Opcode = 0xEE

	OpINT  Opcode = 0xF0
	OpIRET Opcode = 0xF1
)

// Mode distinguishes addressing forms within an opcode family.
type Mode uint8

const (
	ModeReg      Mode = 0
	ModeImm      Mode = 1
	ModeDirect   Mode = 2
	ModeIndirect Mode = 3
)

func isBranchOrCall(op Opcode) bool {
	switch op {
	case OpJMP, OpJZ, OpJN, OpJNN, OpJNZ, OpCALL:
		return true
	}
	return false
}

func isBareOp(op Opcode) bool {
	switch op {
	case OpNOP, OpHALT, OpINT, OpIRET, OpRET:
		return true
	}
	return false
}

func isR1OnlyOp(op Opcode) bool {
	switch op {
	case OpPUSH, OpPOP, OpNOT, OpIN, OpOUT, OpLOADSP, OpSTORESP:
		return true
	}
	return false
}
