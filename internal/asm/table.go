// Package asm implements the two-pass assembler: pass 0 strips comments
// and rewrites INC/DEC, pass 1 resolves label addresses, pass 2 encodes
// each line into a single bit-packed Word.
package asm

import "strevm/internal/vm"

// family identifies which bit layout a mnemonic uses.
type family int

const (
	familyBare       family = iota // opcode only
	familyR1Only                   // opcode + 2 reserved bits + r1
	familyRegTriadic               // opcode + mode(00) + r1 + r2
	familyImmALU                   // opcode + mode(01, or 10 for LOADM) + r1 + r2(0) + imm(32)
	familyIndirect                 // opcode + mode(11) + r1 + r2
	familyStoreM                   // opcode + mode + 2 reserved bits + r1 + addr(32)
	familyBranch                   // opcode + imm(32) target
)

type mnemonicInfo struct {
	opcode vm.Opcode
	mode   vm.Mode
	family family
}

// instrTable mirrors assembler.py's INSTR dict: mnemonic -> (opcode, mode,
// layout). INC/DEC are absent because pass 0 always rewrites them to
// ADDI/SUBI before the table is consulted.
var instrTable = map[string]mnemonicInfo{
	"NOP":  {vm.OpNOP, 0, familyBare},
	"HALT": {vm.OpHALT, 0, familyBare},
	"INT":  {vm.OpINT, 0, familyBare},
	"IRET": {vm.OpIRET, 0, familyBare},
	"RET":  {vm.OpRET, 0, familyBare},

	"PUSH":     {vm.OpPUSH, 0, familyR1Only},
	"POP":      {vm.OpPOP, 0, familyR1Only},
	"NOT":      {vm.OpNOT, 0, familyR1Only},
	"IN":       {vm.OpIN, 0, familyR1Only},
	"OUT":      {vm.OpOUT, 0, familyR1Only},
	"LOAD_SP":  {vm.OpLOADSP, 0, familyR1Only},
	"STORE_SP": {vm.OpSTORESP, 0, familyR1Only},

	"MOV":  {vm.OpLoad, vm.ModeReg, familyRegTriadic},
	"ADD":  {vm.OpADD, vm.ModeReg, familyRegTriadic},
	"SUB":  {vm.OpSUB, vm.ModeReg, familyRegTriadic},
	"MUL":  {vm.OpMUL, vm.ModeReg, familyRegTriadic},
	"DIV":  {vm.OpDIV, vm.ModeReg, familyRegTriadic},
	"CMP":  {vm.OpCMP, vm.ModeReg, familyRegTriadic},
	"AND":  {vm.OpAND, vm.ModeReg, familyRegTriadic},
	"OR":   {vm.OpOR, vm.ModeReg, familyRegTriadic},
	"XOR":  {vm.OpXOR, vm.ModeReg, familyRegTriadic},
	"TEST": {vm.OpTEST, vm.ModeReg, familyRegTriadic},
	"SHL":  {vm.OpSHL, vm.ModeReg, familyRegTriadic},
	"SHR":  {vm.OpSHR, vm.ModeReg, familyRegTriadic},

	"ADDI": {vm.OpADD, vm.ModeImm, familyImmALU},
	"SUBI": {vm.OpSUB, vm.ModeImm, familyImmALU},
	"MULI": {vm.OpMUL, vm.ModeImm, familyImmALU},
	"DIVI": {vm.OpDIV, vm.ModeImm, familyImmALU},
	"CMPI": {vm.OpCMP, vm.ModeImm, familyImmALU},

	"LOADK": {vm.OpLoad, vm.ModeImm, familyImmALU},
	"LOADM": {vm.OpLoad, vm.ModeDirect, familyImmALU},

	"LOADI":  {vm.OpLoad, vm.ModeIndirect, familyIndirect},
	"STOREI": {vm.OpStore, vm.ModeIndirect, familyIndirect},

	"STOREM": {vm.OpStore, vm.ModeDirect, familyStoreM},

	"CALL": {vm.OpCALL, 0, familyBranch},
	"JMP":  {vm.OpJMP, 0, familyBranch},
	"JZ":   {vm.OpJZ, 0, familyBranch},
	"JNZ":  {vm.OpJNZ, 0, familyBranch},
	"JN":   {vm.OpJN, 0, familyBranch},
	"JNN":  {vm.OpJNN, 0, familyBranch},
}
