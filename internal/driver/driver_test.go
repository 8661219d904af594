package driver_test

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"strevm/internal/driver"
	"strevm/internal/vm"
)

func TestAssembleAndRun_HaltsCleanly(t *testing.T) {
	res, err := driver.AssembleAndRun([]string{
		"LOADK R0, 1",
		"LOADK R1, 2",
		"ADD R0, R1",
		"HALT",
	}, zerolog.Nop())
	require.NoError(t, err)
	require.Nil(t, res.RuntimeErr)
	require.EqualValues(t, 3, res.CPU.Registers[0])
}

func TestAssembleAndRun_DivideByZeroBecomesRuntimeErr(t *testing.T) {
	res, err := driver.AssembleAndRun([]string{
		"LOADK R0, 1",
		"LOADK R1, 0",
		"DIV R0, R1",
		"HALT",
	}, zerolog.Nop())
	// A runtime error stops the VM but does not abort the host call.
	require.NoError(t, err)
	require.ErrorIs(t, res.RuntimeErr, vm.ErrDivideByZero)
	require.False(t, res.CPU.Running)
}

func TestAssembleAndRun_AssembleErrorPropagates(t *testing.T) {
	_, err := driver.AssembleAndRun([]string{"FROB R0, R1"}, zerolog.Nop())
	require.Error(t, err)
}

func TestPrint_IncludesAllFourSections(t *testing.T) {
	res, err := driver.AssembleAndRun([]string{"LOADK R0, 9", "HALT"}, zerolog.Nop())
	require.NoError(t, err)

	var buf bytes.Buffer
	driver.Print(&buf, []string{"LOADK R0, 9", "HALT"}, res)

	out := buf.String()
	require.Contains(t, out, "assembly listing")
	require.Contains(t, out, "encoded words")
	require.Contains(t, out, "registers")
	require.Contains(t, out, "program halted successfully")
}
