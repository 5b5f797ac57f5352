//go:build windows

package singleinstance

import (
	"fmt"
	"syscall"
	"unsafe"
)

var (
	kernel32     = syscall.NewLazyDLL("kernel32.dll")
	createMutexW = kernel32.NewProc("CreateMutexW")
	closeHandle  = kernel32.NewProc("CloseHandle")
)

const (
	mutexName          = "Global\\EarSaver_SingleInstance"
	errorAlreadyExists = 183
)

// Lock holds the named mutex for the lifetime of the tray process.
type Lock struct {
	handle syscall.Handle
}

func Acquire() (*Lock, error) {
	name, _ := syscall.UTF16PtrFromString(mutexName)
	handle, _, err := createMutexW.Call(0, 0, uintptr(unsafe.Pointer(name)))
	if handle == 0 {
		return nil, fmt.Errorf("CreateMutexW: %w", err)
	}

	if errno, ok := err.(syscall.Errno); ok && errno == errorAlreadyExists {
		closeHandle.Call(handle)
		return nil, ErrAlreadyRunning
	}

	return &Lock{handle: syscall.Handle(handle)}, nil
}

func (l *Lock) Release() {
	if l.handle != 0 {
		closeHandle.Call(uintptr(l.handle))
		l.handle = 0
	}
}
