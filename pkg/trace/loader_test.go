package trace_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jihwankim/chaos-triage/pkg/trace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTrace(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDirSumsRepeatedAddresses(t *testing.T) {
	dir := t.TempDir()
	writeTrace(t, dir, "bugA/t1", "0xdead 3\n0xbeef 1\n0xdead 2\n")

	set, err := trace.LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, set, 1)

	tr, ok := set["bugA/t1"]
	require.True(t, ok)
	assert.Equal(t, int64(5), tr.Get("0xdead"))
	assert.Equal(t, int64(1), tr.Get("0xbeef"))
}

func TestLoadDirSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeTrace(t, dir, "bugA/t1", "\n0xdead 3\nmalformed-line-no-count\n0xdead 1 extra\n0xbeef notanumber\n0xcafe 4\n")

	set, err := trace.LoadDir(dir)
	require.NoError(t, err)

	tr := set["bugA/t1"]
	assert.Equal(t, int64(3), tr.Get("0xdead"))
	assert.Equal(t, int64(4), tr.Get("0xcafe"))
	assert.Equal(t, int64(0), tr.Get("0xbeef"))
}

func TestLoadDirDropsEmptyTraces(t *testing.T) {
	dir := t.TempDir()
	writeTrace(t, dir, "bugA/empty", "\n\n   \n")
	writeTrace(t, dir, "bugA/nonempty", "0xdead 1\n")

	set, err := trace.LoadDir(dir)
	require.NoError(t, err)

	assert.Len(t, set, 1)
	_, hasEmpty := set["bugA/empty"]
	assert.False(t, hasEmpty)
	_, hasNonEmpty := set["bugA/nonempty"]
	assert.True(t, hasNonEmpty)
}

func TestLoadDirMissingDirectory(t *testing.T) {
	_, err := trace.LoadDir(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

func TestSetIDsIsSortedAndDeterministic(t *testing.T) {
	set := trace.Set{
		"z": trace.Trace{"a": 1},
		"a": trace.Trace{"a": 1},
		"m": trace.Trace{"a": 1},
	}
	assert.Equal(t, []string{"a", "m", "z"}, set.IDs())
}

func TestSetWithoutRemovesIdentifiers(t *testing.T) {
	set := trace.Set{
		"a": trace.Trace{"x": 1},
		"b": trace.Trace{"x": 1},
		"c": trace.Trace{"x": 1},
	}
	remaining := set.Without([]string{"b"})
	assert.Equal(t, []string{"a", "c"}, remaining.IDs())
	// original is untouched
	assert.Len(t, set, 3)
}
