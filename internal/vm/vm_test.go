package vm_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"strevm/internal/asm"
	"strevm/internal/vm"
)

func assembleAndRun(t *testing.T, src []string) *vm.CPU {
	t.Helper()
	words, _, err := asm.Assemble(src)
	require.NoError(t, err)

	c := vm.New()
	c.Load(words, 0)
	err = c.Run()
	if err != nil {
		require.ErrorIs(t, err, vm.ErrDivideByZero)
	}
	return c
}

func TestScenarioA_Add(t *testing.T) {
	c := assembleAndRun(t, []string{
		"LOADK R0, 5",
		"LOADK R1, 7",
		"ADD R0, R1",
		"HALT",
	})
	require.EqualValues(t, 12, c.Registers[0])
	require.EqualValues(t, 7, c.Registers[1])
	require.False(t, c.Flags.Z)
	require.False(t, c.Flags.N)
}

func TestScenarioB_CompareEqual(t *testing.T) {
	c := assembleAndRun(t, []string{
		"LOADK R0, 3",
		"LOADK R1, 3",
		"CMP R0, R1",
		"HALT",
	})
	require.True(t, c.Flags.Z)
	require.False(t, c.Flags.N)
}

func TestScenarioC_SubUnderflowIsNegative(t *testing.T) {
	c := assembleAndRun(t, []string{
		"LOADK R0, 1",
		"LOADK R1, 4",
		"SUB R0, R1",
		"HALT",
	})
	require.EqualValues(t, uint64(1<<64-3), c.Registers[0])
	require.True(t, c.Flags.N)
	require.False(t, c.Flags.Z)
}

func TestScenarioD_DivideByZeroHalts(t *testing.T) {
	words, _, err := asm.Assemble([]string{
		"LOADK R0, 10",
		"LOADK R1, 0",
		"DIV R0, R1",
		"HALT",
	})
	require.NoError(t, err)

	c := vm.New()
	c.Load(words, 0)
	err = c.Run()
	require.ErrorIs(t, err, vm.ErrDivideByZero)
	require.False(t, c.Running)
}

func TestScenarioE_StoreAndLoadMemory(t *testing.T) {
	c := assembleAndRun(t, []string{
		"LOADK R0, 42",
		"STOREM R0, 0x20",
		"LOADK R0, 0",
		"LOADM R0, 0x20",
		"HALT",
	})
	require.EqualValues(t, 42, c.Registers[0])
	require.EqualValues(t, 42, c.Memory.Read(0x20).Value)
}

func TestStackBalance_PushPop(t *testing.T) {
	c := assembleAndRun(t, []string{
		"LOADK R0, 99",
		"LOADK R1, 0",
		"PUSH R0",
		"POP R1",
		"HALT",
	})
	require.EqualValues(t, 99, c.Registers[0])
	require.EqualValues(t, 99, c.Registers[1])
	require.EqualValues(t, 0, c.Registers[15], "SP returns to its original value")
}

func TestCallRetRoundTrip(t *testing.T) {
	c := assembleAndRun(t, []string{
		"JMP main",
		"sub:",
		"LOADK R2, 1",
		"RET",
		"main:",
		"CALL sub",
		"LOADK R3, 2",
		"HALT",
	})
	require.EqualValues(t, 1, c.Registers[2])
	require.EqualValues(t, 2, c.Registers[3])
}

func TestConditionalBranch(t *testing.T) {
	c := assembleAndRun(t, []string{
		"LOADK R0, 5",
		"LOADK R1, 5",
		"CMP R0, R1",
		"JZ equal",
		"LOADK R2, 0",
		"HALT",
		"equal:",
		"LOADK R2, 1",
		"HALT",
	})
	require.EqualValues(t, 1, c.Registers[2])
}

func TestSupplementedOpcodes(t *testing.T) {
	c := assembleAndRun(t, []string{
		"LOADK R0, 0xF0",
		"LOADK R1, 0x0F",
		"TEST R0, R1",
		"SHL R0, R1",
		"HALT",
	})
	require.EqualValues(t, 0xF0<<0x0F, c.Registers[0])
}

func TestLoadSpStoreSp(t *testing.T) {
	c := assembleAndRun(t, []string{
		"LOAD_SP R0",
		"LOADK R1, 0x100",
		"STORE_SP R1",
		"LOAD_SP R2",
		"HALT",
	})
	require.EqualValues(t, 0, c.Registers[0], "SP starts at 0")
	require.EqualValues(t, 0x100, c.Registers[2], "STORE_SP wrote R1 into SP")
	require.EqualValues(t, 0x100, c.Registers[15])
}

func TestInterruptReturnRoundTrip(t *testing.T) {
	// INT pushes PC+1 and jumps to the fixed vector 0x1000; an IRET placed
	// there pops PC back to the instruction after INT, mirroring the
	// CALL/RET round-trip invariant for the interrupt path. Assembled
	// programs load sequentially from base 0, so the handler at the fixed
	// vector is written into memory directly rather than through Load.
	words, _, err := asm.Assemble([]string{
		"INT",
		"LOADK R0, 1",
		"HALT",
	})
	require.NoError(t, err)
	handler, _, err := asm.Assemble([]string{"IRET"})
	require.NoError(t, err)

	c := vm.New()
	c.Load(words, 0)
	c.Memory.Write(0x1000, handler[0])

	require.NoError(t, c.Run())
	require.EqualValues(t, 1, c.Registers[0])
}

func TestUnknownOpcodeHalts(t *testing.T) {
	// 0x99 isn't in any opcode family; built with enough bits to decode
	// cleanly (18, the general form's minimum) so the failure is routed
	// through dispatch, not through "instruction too short".
	word := vm.Word{Value: uint64(0x99) << 10, Bits: 18}
	c := vm.New()
	c.Memory.Write(0, word)
	c.PC = 0
	c.Running = true
	err := c.Run()
	require.ErrorIs(t, err, vm.ErrUnknownOpcode)
	require.False(t, c.Running)
}

func TestIncDecShortFormDecode(t *testing.T) {
	// INC/DEC are always rewritten to ADDI/SUBI by the assembler, but the
	// decoder still supports their standalone short 14-bit form for words
	// built directly (e.g. a hand-assembled program).
	w := vm.Word{Value: uint64(vm.OpINC)<<6 | 3, Bits: 14}
	d, err := vm.Decode(w)
	require.NoError(t, err)
	require.Equal(t, vm.OpINC, d.Opcode)
	require.EqualValues(t, 3, d.R1)
}

func TestDecodeTooShort(t *testing.T) {
	_, err := vm.Decode(vm.Word{Value: uint64(vm.OpADD), Bits: 10})
	require.ErrorIs(t, err, vm.ErrInstructionTooShort)
}
