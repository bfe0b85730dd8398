package filesystem

import (
	"io"
	"io/fs"
)

// FS is the set of filesystem operations the release store needs.
// Rename must replace newpath atomically when the backend supports it;
// the live pointer swap depends on that.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error
	// Create opens a new file for streamed writes. It fails when name
	// already exists or its parent directory is missing.
	Create(name string, perm fs.FileMode) (io.WriteCloser, error)

	// Directory operations
	Mkdir(path string, perm fs.FileMode) error
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Lstat(name string) (fs.FileInfo, error)

	// Other operations
	Rename(oldpath, newpath string) error
	Remove(name string) error
	RemoveAll(path string) error
}
