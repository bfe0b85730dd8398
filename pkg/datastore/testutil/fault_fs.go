// Package testutil provides filesystem doubles for release store tests.
package testutil

import (
	"io"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/arthur-debert/releasekit/pkg/filesystem"
)

// Op names an FS operation that can be made to fail.
type Op string

const (
	OpCreate    Op = "create"
	OpMkdir     Op = "mkdir"
	OpMkdirAll  Op = "mkdirall"
	OpWriteFile Op = "writefile"
	OpReadDir   Op = "readdir"
	OpReadlink  Op = "readlink"
	OpSymlink   Op = "symlink"
	OpRename    Op = "rename"
	OpRemove    Op = "remove"
	OpRemoveAll Op = "removeall"
)

// FaultFS wraps an FS and fails selected operations. Faults are matched on
// the operation and the first path argument, or the path's parent
// directory when registered with FailUnder. Hooks registered with Before
// run ahead of the operation they name.
type FaultFS struct {
	filesystem.FS

	mu     sync.Mutex
	faults map[Op]map[string]error
	under  map[Op]map[string]error
	hooks  map[Op][]func(path string)
	calls  map[Op]int
}

// NewFaultFS wraps inner.
func NewFaultFS(inner filesystem.FS) *FaultFS {
	return &FaultFS{
		FS:     inner,
		faults: make(map[Op]map[string]error),
		under:  make(map[Op]map[string]error),
		hooks:  make(map[Op][]func(path string)),
		calls:  make(map[Op]int),
	}
}

// Fail makes op on path return err.
func (f *FaultFS) Fail(op Op, path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.faults[op] == nil {
		f.faults[op] = make(map[string]error)
	}
	f.faults[op][filepath.Clean(path)] = err
}

// FailUnder makes op return err for any path directly inside dir.
func (f *FaultFS) FailUnder(op Op, dir string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.under[op] == nil {
		f.under[op] = make(map[string]error)
	}
	f.under[op][filepath.Clean(dir)] = err
}

// Before runs fn with the path argument each time op is called, before
// the operation reaches the wrapped FS. fn may use the FaultFS itself.
func (f *FaultFS) Before(op Op, fn func(path string)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[op] = append(f.hooks[op], fn)
}

// Clear removes all faults and hooks.
func (f *FaultFS) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults = make(map[Op]map[string]error)
	f.under = make(map[Op]map[string]error)
	f.hooks = make(map[Op][]func(path string))
}

// Calls returns how many times op was invoked.
func (f *FaultFS) Calls(op Op) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *FaultFS) check(op Op, path string) error {
	path = filepath.Clean(path)

	f.mu.Lock()
	f.calls[op]++
	hooks := append([]func(string){}, f.hooks[op]...)
	f.mu.Unlock()

	for _, hook := range hooks {
		hook(path)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.faults[op][path]; ok {
		return &fs.PathError{Op: string(op), Path: path, Err: err}
	}
	if err, ok := f.under[op][filepath.Dir(path)]; ok {
		return &fs.PathError{Op: string(op), Path: path, Err: err}
	}
	return nil
}

func (f *FaultFS) Create(name string, perm fs.FileMode) (io.WriteCloser, error) {
	if err := f.check(OpCreate, name); err != nil {
		return nil, err
	}
	return f.FS.Create(name, perm)
}

func (f *FaultFS) Mkdir(path string, perm fs.FileMode) error {
	if err := f.check(OpMkdir, path); err != nil {
		return err
	}
	return f.FS.Mkdir(path, perm)
}

func (f *FaultFS) MkdirAll(path string, perm fs.FileMode) error {
	if err := f.check(OpMkdirAll, path); err != nil {
		return err
	}
	return f.FS.MkdirAll(path, perm)
}

func (f *FaultFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	if err := f.check(OpWriteFile, name); err != nil {
		return err
	}
	return f.FS.WriteFile(name, data, perm)
}

func (f *FaultFS) ReadDir(name string) ([]fs.DirEntry, error) {
	if err := f.check(OpReadDir, name); err != nil {
		return nil, err
	}
	return f.FS.ReadDir(name)
}

func (f *FaultFS) Readlink(name string) (string, error) {
	if err := f.check(OpReadlink, name); err != nil {
		return "", err
	}
	return f.FS.Readlink(name)
}

func (f *FaultFS) Symlink(oldname, newname string) error {
	if err := f.check(OpSymlink, newname); err != nil {
		return err
	}
	return f.FS.Symlink(oldname, newname)
}

// Rename faults match on the source path.
func (f *FaultFS) Rename(oldpath, newpath string) error {
	if err := f.check(OpRename, oldpath); err != nil {
		return err
	}
	return f.FS.Rename(oldpath, newpath)
}

func (f *FaultFS) Remove(name string) error {
	if err := f.check(OpRemove, name); err != nil {
		return err
	}
	return f.FS.Remove(name)
}

func (f *FaultFS) RemoveAll(path string) error {
	if err := f.check(OpRemoveAll, path); err != nil {
		return err
	}
	return f.FS.RemoveAll(path)
}
