//go:build darwin || freebsd || linux

package filesystem_test

import (
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/buildbarn/bb-blockworker/pkg/filesystem"
	"github.com/stretchr/testify/require"
)

func openTmpDir(t *testing.T) (string, filesystem.DirectoryCloser) {
	p := t.TempDir()
	d, err := filesystem.NewLocalDirectory(p)
	require.NoError(t, err)
	return p, d
}

func writeFile(t *testing.T, d filesystem.Directory, name string, data []byte) {
	f, err := d.OpenWrite(name, filesystem.CreateExcl(0o666))
	require.NoError(t, err)
	_, err = f.WriteAt(data, 0)
	require.NoError(t, err)
	require.NoError(t, f.Sync())
	require.NoError(t, f.Close())
}

func TestLocalDirectoryCreationFailure(t *testing.T) {
	_, err := filesystem.NewLocalDirectory("/nonexistent")
	require.True(t, os.IsNotExist(err))
}

func TestLocalDirectoryEnterFile(t *testing.T) {
	_, d := openTmpDir(t)
	writeFile(t, d, "file", nil)
	_, err := d.EnterDirectory("file")
	require.Equal(t, syscall.ENOTDIR, err)
	require.NoError(t, d.Close())
}

func TestLocalDirectoryOpenWriteExclusive(t *testing.T) {
	_, d := openTmpDir(t)
	writeFile(t, d, "file", []byte("Hello"))
	_, err := d.OpenWrite("file", filesystem.CreateExcl(0o666))
	require.True(t, os.IsExist(err))

	f, err := d.OpenRead("file")
	require.NoError(t, err)
	var b [5]byte
	n, err := f.ReadAt(b[:], 0)
	require.NoError(t, err)
	require.Equal(t, 5, n)
	require.Equal(t, []byte("Hello"), b[:])
	require.NoError(t, f.Close())
	require.NoError(t, d.Close())
}

func TestLocalDirectoryReadDir(t *testing.T) {
	_, d := openTmpDir(t)
	require.NoError(t, d.Mkdir("subdir", 0o777))
	writeFile(t, d, "123", []byte("abc"))

	files, err := d.ReadDir()
	require.NoError(t, err)
	require.Equal(t, []filesystem.FileInfo{
		filesystem.NewFileInfo("123", filesystem.FileTypeRegularFile, 3),
		files[1],
	}, files)
	require.Equal(t, "subdir", files[1].Name())
	require.Equal(t, filesystem.FileTypeDirectory, files[1].Type())
	require.NoError(t, d.Close())
}

func TestLocalDirectoryRename(t *testing.T) {
	p, d := openTmpDir(t)
	require.NoError(t, d.Mkdir("tmp", 0o777))
	sub, err := d.EnterDirectory("tmp")
	require.NoError(t, err)
	writeFile(t, sub, "1-2", []byte("data"))

	require.NoError(t, sub.Rename("1-2", d, "2"))
	require.NoError(t, d.Sync())
	data, err := os.ReadFile(filepath.Join(p, "2"))
	require.NoError(t, err)
	require.Equal(t, []byte("data"), data)

	require.Equal(t, syscall.ENOENT, sub.Rename("1-2", d, "2"))
	require.NoError(t, sub.Close())
	require.NoError(t, d.Close())
}

func TestLocalDirectoryRemoveAllChildren(t *testing.T) {
	p, d := openTmpDir(t)
	require.NoError(t, d.Mkdir("a", 0o777))
	sub, err := d.EnterDirectory("a")
	require.NoError(t, err)
	writeFile(t, sub, "b", []byte("x"))
	require.NoError(t, sub.Close())
	writeFile(t, d, "c", []byte("y"))

	require.NoError(t, d.RemoveAllChildren())
	entries, err := os.ReadDir(p)
	require.NoError(t, err)
	require.Empty(t, entries)

	writeFile(t, d, "d", nil)
	require.NoError(t, d.Remove("d"))
	require.Equal(t, syscall.ENOENT, d.Remove("d"))
	require.NoError(t, d.Close())
}

func TestLocalDirectoryIsWritable(t *testing.T) {
	_, d := openTmpDir(t)
	writable, err := d.IsWritable()
	require.NoError(t, err)
	require.True(t, writable)
	require.NoError(t, d.Close())
}
