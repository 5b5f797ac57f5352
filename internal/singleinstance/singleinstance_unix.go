//go:build !windows

package singleinstance

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

var (
	defaultLockDir = os.TempDir
	// lockDir is where the lock file lives; tests point it elsewhere.
	lockDir        = defaultLockDir
)

type Lock struct {
	file *os.File
	path string
}

func lockPath() string {
	return filepath.Join(lockDir(), "earsaver.lock")
}

func Acquire() (*Lock, error) {
	path := lockPath()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return nil, fmt.Errorf("open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		f.Close()
		return nil, ErrAlreadyRunning
	}

	f.Truncate(0)
	f.Seek(0, 0)
	fmt.Fprintf(f, "%d", os.Getpid())
	f.Sync()

	return &Lock{file: f, path: path}, nil
}

func (l *Lock) Release() {
	if l.file != nil {
		syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
		l.file.Close()
		os.Remove(l.path)
		l.file = nil
	}
}
