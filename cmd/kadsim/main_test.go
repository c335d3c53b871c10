package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunSeedsAndDumps(t *testing.T) {
	dumpPath := filepath.Join(t.TempDir(), "dump.txt")
	code := run([]string{"-b", "16", "-k", "4", "-a", "2", "-n", "10", "-c", "3", "-N", "2", "-S", "42", "-dump", dumpPath})
	require.Equal(t, 0, code)

	data, err := os.ReadFile(dumpPath)
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

func TestRunLoadsConfigFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "kadsim.conf")
	require.NoError(t, os.WriteFile(cfgPath, []byte("n_bits 16\nk 4\nalpha 2\nn_nodes 10\n"), 0o644))
	dumpPath := filepath.Join(t.TempDir(), "dump.txt")

	code := run([]string{"-f", cfgPath, "-c", "3", "-dump", dumpPath})
	require.Equal(t, 0, code)

	data, err := os.ReadFile(dumpPath)
	require.NoError(t, err)
	require.Contains(t, string(data), "n_bits 16\n")
	require.Contains(t, string(data), "n_nodes 10\n")
}

func TestRunRejectsUnknownTransport(t *testing.T) {
	code := run([]string{"-b", "8", "-n", "4", "-transport", "bogus"})
	require.Equal(t, 1, code)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	code := run([]string{"-b", "0"})
	require.Equal(t, 1, code)
}

func TestRunVersionFlag(t *testing.T) {
	code := run([]string{"-V"})
	require.Equal(t, 0, code)
}
