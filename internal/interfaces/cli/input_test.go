package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/compoundrank/internal/domain/compound"
	"github.com/turtacn/compoundrank/internal/testutil"
	"github.com/turtacn/compoundrank/pkg/errors"
)

func writeInput(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input_molecules.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadNames_TrimsAndSkipsBlankLines(t *testing.T) {
	path := writeInput(t, "  Aspirin \n\n\tIbuprofen\r\n   \nCaffeine")

	names, err := ReadNames(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Aspirin", "Ibuprofen", "Caffeine"}, names)
}

func TestReadNames_Missing(t *testing.T) {
	_, err := ReadNames(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInputNotFound))
	assert.Equal(t, errors.ExitFailure, errors.ExitCode(err))
}

func TestResolveInput(t *testing.T) {
	path := writeInput(t, "Aspirin\n")

	for _, token := range []string{"X", "x"} {
		names, source, err := ResolveInput(token, path)
		require.NoError(t, err)
		assert.Equal(t, FallbackNames, names)
		assert.Equal(t, "fallback", source)
	}

	names, source, err := ResolveInput(path, path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Aspirin"}, names)
	assert.Equal(t, path, source)

	_, _, err = ResolveInput("other.txt", path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUsage))
	assert.Equal(t, errors.ExitUsage, errors.ExitCode(err))
}

func TestResolveInput_FallbackIsACopy(t *testing.T) {
	names, _, err := ResolveInput("X", "input_molecules.txt")
	require.NoError(t, err)
	names[0] = "changed"
	assert.Equal(t, "Adenosine", FallbackNames[0])
}

func TestWarnUnserved(t *testing.T) {
	logger := testutil.NewMockLogger()
	warnUnserved([]string{"xlogp", "CID", "Atoms", "bogus", "multipoles_3d"}, compound.DefaultCatalog(), logger)

	msgs := logger.GetMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "warn", msgs[0].Level)
	assert.Equal(t, []string{"atoms", "multipoles_3d"}, msgs[0].Fields[0].Value)

	logger.Clear()
	warnUnserved([]string{"xlogp"}, compound.DefaultCatalog(), logger)
	assert.Empty(t, logger.GetMessages())
}
