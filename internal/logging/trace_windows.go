//go:build windows

package logging

import (
	"io"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32               = windows.NewLazySystemDLL("kernel32.dll")
	procOutputDebugStringW = kernel32.NewProc("OutputDebugStringW")
)

// debugTrace writes each log line to the debugger via OutputDebugStringW,
// where DebugView and attached debuggers pick it up.
type debugTrace struct{}

func (debugTrace) Write(p []byte) (int, error) {
	msg := strings.ReplaceAll(string(p), "\x00", "")
	ptr, err := windows.UTF16PtrFromString(msg)
	if err != nil {
		return 0, err
	}
	procOutputDebugStringW.Call(uintptr(unsafe.Pointer(ptr)))
	return len(p), nil
}

func traceSink() io.Writer {
	if procOutputDebugStringW.Find() != nil {
		return nil
	}
	return debugTrace{}
}
