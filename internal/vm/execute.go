package vm

import (
	"fmt"
	"strconv"
	"strings"
)

type dispatchKey struct {
	op      Opcode
	mode    Mode
	hasMode bool
}

type handler func(*CPU, Decoded) error

// dispatch is the single (opcode, mode) tagged table the design notes call
// for, replacing the source pattern of an if-chain followed by a match
// whose arms for the same opcode are dead code. Every opcode that needs a
// mode to disambiguate its behavior (0xC2, 0xC3, the ALU family, AND/OR/
// XOR) is registered once per mode; TEST/SHL/SHR, which decode through the
// general layout and so carry a mode field, are registered under mode 0
// only; everything else is registered with hasMode false.
var dispatch = map[dispatchKey]handler{}

func register(op Opcode, h handler) {
	dispatch[dispatchKey{op: op, hasMode: false}] = h
}

func registerMode(op Opcode, mode Mode, h handler) {
	dispatch[dispatchKey{op: op, mode: mode, hasMode: true}] = h
}

func init() {
	register(OpNOP, execNOP)
	register(OpHALT, execHALT)
	register(OpINT, execINT)
	register(OpIRET, execIRET)
	register(OpRET, execRET)
	register(OpCALL, execCALL)
	register(OpJMP, execJMP)
	register(OpJZ, execJZ)
	register(OpJNZ, execJNZ)
	register(OpJN, execJN)
	register(OpJNN, execJNN)
	register(OpPUSH, execPUSH)
	register(OpPOP, execPOP)
	register(OpNOT, execNOT)
	registerMode(OpTEST, ModeReg, execTEST)
	registerMode(OpSHL, ModeReg, execSHL)
	registerMode(OpSHR, ModeReg, execSHR)
	register(OpIN, execIN)
	register(OpOUT, execOUT)
	register(OpLOADSP, execLoadSP)
	register(OpSTORESP, execStoreSP)
	register(OpINC, execINC)
	register(OpDEC, execDEC)

	registerMode(OpLoad, ModeReg, execMOV)
	registerMode(OpLoad, ModeImm, execLOADK)
	registerMode(OpLoad, ModeDirect, execLOADM)
	registerMode(OpLoad, ModeIndirect, execLOADI)
	registerMode(OpStore, ModeDirect, execSTOREM)
	registerMode(OpStore, ModeReg, execSTOREM) // any non-indirect mode reaches STOREM's direct path
	registerMode(OpStore, ModeImm, execSTOREM)
	registerMode(OpStore, ModeIndirect, execSTOREI)

	for _, e := range []struct {
		op    Opcode
		reg   handler
		imm   handler
	}{
		{OpADD, execADD, execADDI},
		{OpSUB, execSUB, execSUBI},
		{OpMUL, execMUL, execMULI},
		{OpDIV, execDIV, execDIVI},
		{OpCMP, execCMP, execCMPI},
		{OpAND, execAND, execANDI},
		{OpOR, execOR, execORI},
		{OpXOR, execXOR, execXORI},
	} {
		registerMode(e.op, ModeReg, e.reg)
		registerMode(e.op, ModeImm, e.imm)
	}
}

// Execute dispatches a decoded instruction. It does not advance PC; Step
// decides whether to, based on whether the handler itself wrote PC.
func (c *CPU) Execute(d Decoded) error {
	key := dispatchKey{op: d.Opcode, mode: d.Mode, hasMode: d.HasMode}
	h, ok := dispatch[key]
	if !ok {
		c.Running = false
		return fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, uint8(d.Opcode))
	}
	return h(c, d)
}

func execNOP(c *CPU, d Decoded) error  { return nil }
func execHALT(c *CPU, d Decoded) error { c.Running = false; return nil }

func execMOV(c *CPU, d Decoded) error {
	c.setReg(d.R1, c.reg(d.R2))
	return nil
}

func execLOADK(c *CPU, d Decoded) error {
	c.setReg(d.R1, d.Imm)
	return nil
}

func execLOADM(c *CPU, d Decoded) error {
	c.setReg(d.R1, c.Memory.Read(d.Imm).Value)
	return nil
}

func execLOADI(c *CPU, d Decoded) error {
	addr := c.reg(d.R2)
	c.setReg(d.R1, c.Memory.Read(addr).Value)
	return nil
}

func execSTOREM(c *CPU, d Decoded) error {
	c.log.Debug().Uint64("addr", d.Imm).Uint8("r1", d.R1).Msg("storem")
	c.Memory.Write(d.Imm, Word{Value: c.reg(d.R1), Bits: 64})
	return nil
}

func execSTOREI(c *CPU, d Decoded) error {
	addr := c.reg(d.R2)
	c.log.Debug().Uint64("addr", addr).Uint8("r1", d.R1).Msg("storei")
	c.Memory.Write(addr, Word{Value: c.reg(d.R1), Bits: 64})
	return nil
}

func alu(c *CPU, r1, value uint64, op func(a, b uint64) uint64) uint64 {
	result := op(r1, value)
	c.Flags.setFromResult(result)
	return result
}

func execADD(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), c.reg(d.R2), func(a, b uint64) uint64 { return a + b }))
	return nil
}
func execADDI(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), d.Imm, func(a, b uint64) uint64 { return a + b }))
	return nil
}
func execSUB(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), c.reg(d.R2), func(a, b uint64) uint64 { return a - b }))
	return nil
}
func execSUBI(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), d.Imm, func(a, b uint64) uint64 { return a - b }))
	return nil
}
func execMUL(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), c.reg(d.R2), func(a, b uint64) uint64 { return a * b }))
	return nil
}
func execMULI(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), d.Imm, func(a, b uint64) uint64 { return a * b }))
	return nil
}

func execDIV(c *CPU, d Decoded) error {
	divisor := c.reg(d.R2)
	if divisor == 0 {
		c.Running = false
		return ErrDivideByZero
	}
	c.setReg(d.R1, alu(c, c.reg(d.R1), divisor, func(a, b uint64) uint64 { return a / b }))
	return nil
}
func execDIVI(c *CPU, d Decoded) error {
	if d.Imm == 0 {
		c.Running = false
		return ErrDivideByZero
	}
	c.setReg(d.R1, alu(c, c.reg(d.R1), d.Imm, func(a, b uint64) uint64 { return a / b }))
	return nil
}

func cmp(c *CPU, a, b uint64) {
	sa, sb := int64(a), int64(b)
	c.Flags.Z = sa == sb
	c.Flags.N = sa < sb
}

func execCMP(c *CPU, d Decoded) error  { cmp(c, c.reg(d.R1), c.reg(d.R2)); return nil }
func execCMPI(c *CPU, d Decoded) error { cmp(c, c.reg(d.R1), d.Imm); return nil }

func execAND(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), c.reg(d.R2), func(a, b uint64) uint64 { return a & b }))
	return nil
}
func execANDI(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), d.Imm, func(a, b uint64) uint64 { return a & b }))
	return nil
}
func execOR(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), c.reg(d.R2), func(a, b uint64) uint64 { return a | b }))
	return nil
}
func execORI(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), d.Imm, func(a, b uint64) uint64 { return a | b }))
	return nil
}
func execXOR(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), c.reg(d.R2), func(a, b uint64) uint64 { return a ^ b }))
	return nil
}
func execXORI(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), d.Imm, func(a, b uint64) uint64 { return a ^ b }))
	return nil
}

func execNOT(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), 0, func(a, _ uint64) uint64 { return ^a }))
	return nil
}

func execTEST(c *CPU, d Decoded) error {
	result := c.reg(d.R1) & c.reg(d.R2)
	c.Flags.setFromResult(result)
	return nil
}

func execSHL(c *CPU, d Decoded) error {
	shift := c.reg(d.R2) & 0x3F
	c.setReg(d.R1, alu(c, c.reg(d.R1), shift, func(a, b uint64) uint64 { return a << b }))
	return nil
}
func execSHR(c *CPU, d Decoded) error {
	shift := c.reg(d.R2) & 0x3F
	c.setReg(d.R1, alu(c, c.reg(d.R1), shift, func(a, b uint64) uint64 { return a >> b }))
	return nil
}

func execINC(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), 1, func(a, b uint64) uint64 { return a + b }))
	return nil
}
func execDEC(c *CPU, d Decoded) error {
	c.setReg(d.R1, alu(c, c.reg(d.R1), 1, func(a, b uint64) uint64 { return a - b }))
	return nil
}

func execIN(c *CPU, d Decoded) error {
	line, err := c.stdin.ReadString('\n')
	line = strings.TrimSpace(line)
	if err != nil && line == "" {
		return fmt.Errorf("vm: IN: %w", err)
	}
	v, perr := strconv.ParseUint(line, 0, 64)
	if perr != nil {
		return fmt.Errorf("vm: IN: malformed input %q: %w", line, perr)
	}
	c.setReg(d.R1, v)
	return nil
}

func execOUT(c *CPU, d Decoded) error {
	_, err := fmt.Fprintln(c.stdout, int64(c.reg(d.R1)))
	return err
}

func execLoadSP(c *CPU, d Decoded) error {
	c.setReg(d.R1, c.sp())
	return nil
}
func execStoreSP(c *CPU, d Decoded) error {
	c.setSP(c.reg(d.R1))
	return nil
}

func execPUSH(c *CPU, d Decoded) error {
	sp := c.sp() - 1
	c.setSP(sp)
	c.Memory.Write(sp, Word{Value: c.reg(d.R1), Bits: 64})
	return nil
}

func execPOP(c *CPU, d Decoded) error {
	sp := c.sp()
	c.setReg(d.R1, c.Memory.Read(sp).Value)
	c.setSP(sp + 1)
	return nil
}

func execCALL(c *CPU, d Decoded) error {
	// Push PC+1, not PC: CALL always sets branched, so Step never advances
	// PC itself, and RET must return to the instruction after CALL.
	sp := c.sp() - 1
	c.setSP(sp)
	c.Memory.Write(sp, Word{Value: c.PC + 1, Bits: 64})
	c.PC = d.Target
	c.branched = true
	return nil
}

func execRET(c *CPU, d Decoded) error {
	sp := c.sp()
	c.PC = c.Memory.Read(sp).Value
	c.setSP(sp + 1)
	c.branched = true
	return nil
}

func execJMP(c *CPU, d Decoded) error { c.PC = d.Target; c.branched = true; return nil }
func execJZ(c *CPU, d Decoded) error {
	if c.Flags.Z {
		c.PC = d.Target
		c.branched = true
	}
	return nil
}
func execJNZ(c *CPU, d Decoded) error {
	if !c.Flags.Z {
		c.PC = d.Target
		c.branched = true
	}
	return nil
}
func execJN(c *CPU, d Decoded) error {
	if c.Flags.N {
		c.PC = d.Target
		c.branched = true
	}
	return nil
}
func execJNN(c *CPU, d Decoded) error {
	if !c.Flags.N {
		c.PC = d.Target
		c.branched = true
	}
	return nil
}

func execINT(c *CPU, d Decoded) error {
	sp := c.sp() - 1
	c.setSP(sp)
	c.Memory.Write(sp, Word{Value: c.PC + 1, Bits: 64})
	c.PC = 0x1000
	c.branched = true
	c.log.Debug().Msg("interrupt entered")
	return nil
}

func execIRET(c *CPU, d Decoded) error {
	sp := c.sp()
	c.PC = c.Memory.Read(sp).Value
	c.setSP(sp + 1)
	c.branched = true
	return nil
}
