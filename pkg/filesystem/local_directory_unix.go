//go:build darwin || freebsd || linux

package filesystem

import (
	"os"
	"runtime"
	"sort"
	"syscall"

	"golang.org/x/sys/unix"
)

type localDirectory struct {
	fd int
}

func newLocalDirectoryFromFileDescriptor(fd int) *localDirectory {
	d := &localDirectory{
		fd: fd,
	}
	runtime.SetFinalizer(d, (*localDirectory).Close)
	return d
}

// NewLocalDirectory creates a directory handle that corresponds to a
// local path on the system.
func NewLocalDirectory(path string) (DirectoryCloser, error) {
	fd, err := unix.Openat(unix.AT_FDCWD, path, unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	return newLocalDirectoryFromFileDescriptor(fd), nil
}

func (d *localDirectory) enter(name string) (*localDirectory, error) {
	defer runtime.KeepAlive(d)

	fd, err := unix.Openat(d.fd, name, unix.O_DIRECTORY|unix.O_NOFOLLOW|unix.O_RDONLY, 0)
	if err != nil {
		if runtime.GOOS == "freebsd" && err == syscall.EMLINK {
			// FreeBSD erroneously returns EMLINK.
			return nil, syscall.ENOTDIR
		} else if runtime.GOOS == "linux" && err == syscall.ELOOP {
			// Linux 3.10 returns ELOOP, while Linux 4.15 returns ENOTDIR. Prefer the latter.
			return nil, syscall.ENOTDIR
		}
		return nil, err
	}
	return newLocalDirectoryFromFileDescriptor(fd), nil
}

func (d *localDirectory) EnterDirectory(name string) (DirectoryCloser, error) {
	return d.enter(name)
}

func (d *localDirectory) Close() error {
	fd := d.fd
	d.fd = -1
	runtime.SetFinalizer(d, nil)
	return unix.Close(fd)
}

func (d *localDirectory) open(name string, creationMode CreationMode, flag int) (*os.File, error) {
	defer runtime.KeepAlive(d)

	fd, err := unix.Openat(d.fd, name, flag|creationMode.flags|unix.O_NOFOLLOW, uint32(creationMode.permissions))
	if err != nil {
		if runtime.GOOS == "freebsd" && err == syscall.EMLINK {
			// FreeBSD erroneously returns EMLINK.
			return nil, syscall.ELOOP
		}
		return nil, err
	}
	return os.NewFile(uintptr(fd), name), nil
}

func (d *localDirectory) OpenRead(name string) (FileReader, error) {
	return d.open(name, DontCreate, os.O_RDONLY)
}

func (d *localDirectory) OpenWrite(name string, creationMode CreationMode) (FileWriter, error) {
	return d.open(name, creationMode, os.O_WRONLY)
}

func (d *localDirectory) Mkdir(name string, perm os.FileMode) error {
	defer runtime.KeepAlive(d)

	return unix.Mkdirat(d.fd, name, uint32(perm))
}

func (d *localDirectory) readdirnames() ([]string, error) {
	defer runtime.KeepAlive(d)

	// Obtain filenames in current directory.
	fd, err := unix.Openat(d.fd, ".", unix.O_DIRECTORY|unix.O_RDONLY, 0)
	if err != nil {
		return nil, err
	}
	f := os.NewFile(uintptr(fd), ".")
	names, err := f.Readdirnames(-1)
	f.Close()
	return names, err
}

func (d *localDirectory) lstat(name string) (FileInfo, error) {
	defer runtime.KeepAlive(d)

	var stat unix.Stat_t
	if err := unix.Fstatat(d.fd, name, &stat, unix.AT_SYMLINK_NOFOLLOW); err != nil {
		return FileInfo{}, err
	}
	fileType := FileTypeOther
	switch stat.Mode & syscall.S_IFMT {
	case syscall.S_IFDIR:
		fileType = FileTypeDirectory
	case syscall.S_IFREG:
		fileType = FileTypeRegularFile
	}
	return NewFileInfo(name, fileType, stat.Size), nil
}

func (d *localDirectory) Lstat(name string) (FileInfo, error) {
	return d.lstat(name)
}

func (d *localDirectory) ReadDir() ([]FileInfo, error) {
	names, err := d.readdirnames()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)

	// Obtain file info.
	list := make([]FileInfo, 0, len(names))
	for _, name := range names {
		info, err := d.lstat(name)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		list = append(list, info)
	}
	return list, nil
}

func (d *localDirectory) Remove(name string) error {
	defer runtime.KeepAlive(d)

	// First try deleting it as a regular file.
	err1 := unix.Unlinkat(d.fd, name, 0)
	if err1 == nil {
		return nil
	}
	// Then try to delete it as a directory.
	err2 := unix.Unlinkat(d.fd, name, unix.AT_REMOVEDIR)
	if err2 == nil {
		return nil
	}
	// Determine which error to return.
	if err1 != syscall.ENOTDIR && err1 != syscall.EISDIR && err1 != syscall.EPERM {
		return err1
	}
	return err2
}

func (d *localDirectory) RemoveAllChildren() error {
	defer runtime.KeepAlive(d)

	names, err := d.readdirnames()
	if err != nil {
		return err
	}
	for _, name := range names {
		info, err := d.lstat(name)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		if info.Type() == FileTypeDirectory {
			subdirectory, err := d.enter(name)
			if err != nil {
				return err
			}
			err = subdirectory.RemoveAllChildren()
			subdirectory.Close()
			if err != nil {
				return err
			}
			if err := unix.Unlinkat(d.fd, name, unix.AT_REMOVEDIR); err != nil {
				return err
			}
		} else if err := unix.Unlinkat(d.fd, name, 0); err != nil {
			return err
		}
	}
	return nil
}

func (d *localDirectory) Rename(oldName string, newDirectory Directory, newName string) error {
	defer runtime.KeepAlive(d)
	return newDirectory.Apply(localDirectoryRename{
		oldFD:   d.fd,
		oldName: oldName,
		newName: newName,
	})
}

func (d *localDirectory) Sync() error {
	defer runtime.KeepAlive(d)

	return unix.Fsync(d.fd)
}

func (d *localDirectory) IsWritable() (bool, error) {
	defer runtime.KeepAlive(d)

	err := unix.Faccessat(d.fd, ".", unix.W_OK, 0)
	if os.IsPermission(err) || err == syscall.EROFS {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type localDirectoryRename struct {
	oldFD   int
	oldName string
	newName string
}

func (d *localDirectory) Apply(arg interface{}) error {
	switch a := arg.(type) {
	case localDirectoryRename:
		defer runtime.KeepAlive(d)
		return unix.Renameat(a.oldFD, a.oldName, d.fd, a.newName)
	default:
		return syscall.EXDEV
	}
}
