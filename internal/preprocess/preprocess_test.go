package preprocess_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"strevm/internal/preprocess"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestExpand_DefineSubstitutesWholeTokensOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.asm", "#define WIDTH 32\nLOADK R0, WIDTH\nLOADK R1, WIDTHY\n")

	p := &preprocess.Preprocessor{}
	out, err := p.Expand(path)
	require.NoError(t, err)
	require.Contains(t, out, "LOADK R0, 32\n")
	// WIDTHY is a different token and must not be substituted.
	require.Contains(t, out, "LOADK R1, WIDTHY\n")
}

func TestExpand_IncludeSearchesIncludingFileDirectoryFirst(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "defs.asm", "#define ANSWER 42\n")
	path := writeFile(t, dir, "main.asm", "#include \"defs.asm\"\nLOADK R0, ANSWER\n")

	p := &preprocess.Preprocessor{}
	out, err := p.Expand(path)
	require.NoError(t, err)
	require.Contains(t, out, "LOADK R0, 42\n")
}

func TestExpand_IncludeFallsBackToConfiguredPaths(t *testing.T) {
	includeDir := t.TempDir()
	writeFile(t, includeDir, "shared.asm", "#define SHARED 1\n")

	srcDir := t.TempDir()
	path := writeFile(t, srcDir, "main.asm", "#include \"shared.asm\"\nLOADK R0, SHARED\n")

	p := &preprocess.Preprocessor{IncludePaths: []string{includeDir}}
	out, err := p.Expand(path)
	require.NoError(t, err)
	require.Contains(t, out, "LOADK R0, 1\n")
}

func TestExpand_RecursiveIncludeIsSilenced(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.asm", "#include \"b.asm\"\nNOP\n")
	path := writeFile(t, dir, "b.asm", "#include \"a.asm\"\nHALT\n")
	// b (the file expanded) includes a, a includes b back: the second visit
	// to b must be silently skipped rather than looping forever.
	writeFile(t, dir, "a.asm", "#include \"b.asm\"\nNOP\n")

	p := &preprocess.Preprocessor{}
	out, err := p.Expand(path)
	require.NoError(t, err)
	require.Contains(t, out, "HALT\n")
}

func TestExpand_MissingIncludeErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.asm", "#include \"missing.asm\"\n")

	p := &preprocess.Preprocessor{}
	_, err := p.Expand(path)
	require.Error(t, err)
}

func TestExpand_UnknownDirectiveErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "main.asm", "#weird\n")

	p := &preprocess.Preprocessor{}
	_, err := p.Expand(path)
	require.Error(t, err)
}

func TestExpand_StateResetsBetweenCalls(t *testing.T) {
	dir := t.TempDir()
	path1 := writeFile(t, dir, "one.asm", "#define X 1\nLOADK R0, X\n")
	path2 := writeFile(t, dir, "two.asm", "LOADK R0, X\n")

	p := &preprocess.Preprocessor{}
	_, err := p.Expand(path1)
	require.NoError(t, err)

	// A macro defined while expanding path1 must not leak into path2.
	out2, err := p.Expand(path2)
	require.NoError(t, err)
	require.Contains(t, out2, "LOADK R0, X\n")
}
