package filesystem

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSAdapter_ReadWriteRoundTrip(t *testing.T) {
	fs := NewOSAdapter()
	path := filepath.Join(t.TempDir(), "file.txt")
	content := []byte("line1\nline2\n")

	require.NoError(t, fs.WriteFileBytesAtomic(path, content, 0644))

	got, err := fs.ReadFileBytes(path)
	require.NoError(t, err)
	assert.Equal(t, content, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestOSAdapter_WriteAtomicReplacesExisting(t *testing.T) {
	fs := NewOSAdapter()
	path := filepath.Join(t.TempDir(), "file.txt")

	require.NoError(t, fs.WriteFileBytesAtomic(path, []byte("old\n"), 0644))
	require.NoError(t, fs.WriteFileBytesAtomic(path, []byte("new\n"), 0644))

	got, err := fs.ReadFileBytes(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("new\n"), got)

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestOSAdapter_ReadMissingFile(t *testing.T) {
	fs := NewOSAdapter()
	_, err := fs.ReadFileBytes(filepath.Join(t.TempDir(), "absent.txt"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(unwrapAll(err)))
}

func TestOSAdapter_FileExists(t *testing.T) {
	fs := NewOSAdapter()
	dir := t.TempDir()
	path := filepath.Join(dir, "exists.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	ok, err := fs.FileExists(path)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.FileExists(filepath.Join(dir, "absent.txt"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOSAdapter_GetFileStats(t *testing.T) {
	fs := NewOSAdapter()
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0644))

	stats, err := fs.GetFileStats(path)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Size)
	assert.False(t, stats.IsDir)

	stats, err = fs.GetFileStats(dir)
	require.NoError(t, err)
	assert.True(t, stats.IsDir)
}

func TestOSAdapter_IsValidUTF8(t *testing.T) {
	fs := NewOSAdapter()
	assert.True(t, fs.IsValidUTF8([]byte("héllo\n")))
	assert.False(t, fs.IsValidUTF8([]byte{0xff, 0xfe, 0xfd}))
}

func unwrapAll(err error) error {
	type unwrapper interface{ Unwrap() error }
	for {
		u, ok := err.(unwrapper)
		if !ok {
			return err
		}
		inner := u.Unwrap()
		if inner == nil {
			return err
		}
		err = inner
	}
}
