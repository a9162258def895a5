package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Op names a filesystem operation errors can be injected into.
type Op string

const (
	OpOpen      Op = "open"
	OpOpenFile  Op = "openfile"
	OpStat      Op = "stat"
	OpRemove    Op = "remove"
	OpRemoveAll Op = "removeall"
	OpMkdirAll  Op = "mkdirall"
)

// MemoryFS is an in-memory filesystem that can fail chosen operations on
// chosen paths and counts the calls that change the tree.
type MemoryFS struct {
	afero.Fs

	mu sync.Mutex

	// Error injection
	errors map[Op]map[string]error

	// Statistics
	reads     int
	mutations int
}

// NewMemoryFS creates a new in-memory filesystem
func NewMemoryFS() *MemoryFS {
	return &MemoryFS{
		Fs:     afero.NewMemMapFs(),
		errors: make(map[Op]map[string]error),
	}
}

// WithError makes op fail with err for path. The error is returned wrapped
// in an *os.PathError, like a real filesystem failure.
func (m *MemoryFS) WithError(op Op, path string, err error) *MemoryFS {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.errors[op] == nil {
		m.errors[op] = make(map[string]error)
	}
	m.errors[op][filepath.Clean(path)] = err
	return m
}

// Stats returns the number of opens for reading and of calls that may
// change the tree.
func (m *MemoryFS) Stats() (reads, mutations int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads, m.mutations
}

// ResetStats zeroes the counters, typically after test setup.
func (m *MemoryFS) ResetStats() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads, m.mutations = 0, 0
}

func (m *MemoryFS) check(op Op, path string, mutating bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mutating {
		m.mutations++
	} else if op == OpOpen {
		m.reads++
	}

	if err, ok := m.errors[op][filepath.Clean(path)]; ok {
		return &os.PathError{Op: string(op), Path: path, Err: err}
	}
	return nil
}

func (m *MemoryFS) Open(name string) (afero.File, error) {
	if err := m.check(OpOpen, name, false); err != nil {
		return nil, err
	}
	return m.Fs.Open(name)
}

func (m *MemoryFS) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	writing := flag&(os.O_WRONLY|os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND) != 0
	if err := m.check(OpOpenFile, name, writing); err != nil {
		return nil, err
	}
	return m.Fs.OpenFile(name, flag, perm)
}

func (m *MemoryFS) Create(name string) (afero.File, error) {
	if err := m.check(OpOpenFile, name, true); err != nil {
		return nil, err
	}
	return m.Fs.Create(name)
}

func (m *MemoryFS) Stat(name string) (os.FileInfo, error) {
	if err := m.check(OpStat, name, false); err != nil {
		return nil, err
	}
	return m.Fs.Stat(name)
}

func (m *MemoryFS) Remove(name string) error {
	if err := m.check(OpRemove, name, true); err != nil {
		return err
	}
	return m.Fs.Remove(name)
}

func (m *MemoryFS) RemoveAll(path string) error {
	if err := m.check(OpRemoveAll, path, true); err != nil {
		return err
	}
	return m.Fs.RemoveAll(path)
}

func (m *MemoryFS) Mkdir(name string, perm os.FileMode) error {
	if err := m.check(OpMkdirAll, name, true); err != nil {
		return err
	}
	return m.Fs.Mkdir(name, perm)
}

func (m *MemoryFS) MkdirAll(path string, perm os.FileMode) error {
	if err := m.check(OpMkdirAll, path, true); err != nil {
		return err
	}
	return m.Fs.MkdirAll(path, perm)
}

func (m *MemoryFS) Rename(oldname, newname string) error {
	if err := m.check("rename", oldname, true); err != nil {
		return err
	}
	return m.Fs.Rename(oldname, newname)
}

func (m *MemoryFS) Chmod(name string, mode os.FileMode) error {
	if err := m.check("chmod", name, true); err != nil {
		return err
	}
	return m.Fs.Chmod(name, mode)
}

func (m *MemoryFS) Chtimes(name string, atime, mtime time.Time) error {
	if err := m.check("chtimes", name, true); err != nil {
		return err
	}
	return m.Fs.Chtimes(name, atime, mtime)
}
