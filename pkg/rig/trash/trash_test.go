package trash

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemove_Permanent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := filepath.Join(dir, "a.jar")
	b := filepath.Join(dir, "b.jar")
	require.NoError(t, os.WriteFile(a, []byte("aaaa"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("bb"), 0o644))

	res, err := Remove(context.Background(), []string{a, b}, Options{Permanent: true})
	require.NoError(t, err)

	assert.Equal(t, []string{a, b}, res.Removed)
	assert.Equal(t, int64(6), res.Bytes)
	assert.Equal(t, 2, res.Methods[MethodDelete])
	assert.NoFileExists(t, a)
	assert.NoFileExists(t, b)
}

func TestRemove_ContinuesPastFailures(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keep := filepath.Join(dir, "present.jar")
	require.NoError(t, os.WriteFile(keep, []byte("x"), 0o644))

	missing1 := filepath.Join(dir, "missing1.jar")
	missing2 := filepath.Join(dir, "missing2.jar")

	res, err := Remove(context.Background(), []string{missing1, keep, missing2}, Options{Permanent: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing1.jar")
	assert.Contains(t, err.Error(), "missing2.jar")
	assert.Equal(t, []string{keep}, res.Removed)
	assert.NoFileExists(t, keep)
}

func TestRemove_Cancelled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.jar")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Remove(ctx, []string{path}, Options{Permanent: true})
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, res.Removed)
	assert.FileExists(t, path)
}

func TestMoveToTrash(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "test.txt")
	require.NoError(t, os.WriteFile(path, []byte("test"), 0o644))

	method, err := MoveToTrash(context.Background(), path)
	require.NoError(t, err)
	assert.NotEmpty(t, method)

	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestMoveToTrash_Directory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "natives")
	require.NoError(t, os.Mkdir(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.so"), []byte("x"), 0o644))

	_, err := MoveToTrash(context.Background(), dir)
	require.NoError(t, err)
	assert.NoDirExists(t, dir)
}

func TestMoveToTrash_Nonexistent(t *testing.T) {
	t.Parallel()

	_, err := MoveToTrash(context.Background(), filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}
