//go:build windows

package window

import (
	"fmt"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procRegisterClassExW = user32.NewProc("RegisterClassExW")
	procCreateWindowExW  = user32.NewProc("CreateWindowExW")
	procDefWindowProcW   = user32.NewProc("DefWindowProcW")
	procGetMessageW      = user32.NewProc("GetMessageW")
	procTranslateMessage = user32.NewProc("TranslateMessage")
	procDispatchMessageW = user32.NewProc("DispatchMessageW")
	procPostMessageW     = user32.NewProc("PostMessageW")
	procPostQuitMessage  = user32.NewProc("PostQuitMessage")
	procShowWindow       = user32.NewProc("ShowWindow")
	procShowWindowAsync  = user32.NewProc("ShowWindowAsync")
	procUpdateWindow     = user32.NewProc("UpdateWindow")
	procFindWindowW      = user32.NewProc("FindWindowW")
	procLoadCursorW      = user32.NewProc("LoadCursorW")
	procMonitorFromRect  = user32.NewProc("MonitorFromRect")
	procGetMonitorInfoW  = user32.NewProc("GetMonitorInfoW")
	procSetForegroundWnd = user32.NewProc("SetForegroundWindow")

	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procGetModuleHandleW = kernel32.NewProc("GetModuleHandleW")
)

const (
	wmDestroy = 0x0002
	wmSize    = 0x0005
	wmClose   = 0x0010
	wmCommand = 0x0111
	wmMoving  = 0x0216

	sizeMinimized = 1

	swHide    = 0
	swRestore = 9

	wsOverlappedWindow = 0x00CF0000
	colorWindow        = 5
	idcArrow           = 32512

	monitorDefaultToNearest = 0x00000002
)

type winPOINT struct {
	X, Y int32
}

type winRECT struct {
	Left, Top, Right, Bottom int32
}

type winMONITORINFO struct {
	Size    uint32
	Monitor winRECT
	Work    winRECT
	Flags   uint32
}

type winMSG struct {
	Hwnd     uintptr
	Message  uint32
	WParam   uintptr
	LParam   uintptr
	Time     uint32
	Pt       winPOINT
	LPrivate uint32
}

type winWNDCLASSEX struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   uintptr
	Icon       uintptr
	Cursor     uintptr
	Background uintptr
	MenuName   *uint16
	ClassName  *uint16
	IconSm     uintptr
}

var (
	registerOnce sync.Once
	registerErr  error
	wndProcPtr   uintptr // prevent GC of callback

	// windows created by this process, keyed by hwnd. creating holds the
	// window whose CreateWindowExW call is in progress, since the first
	// messages arrive before the hwnd is known.
	windowsMu sync.Mutex
	byHandle  = map[uintptr]*Window{}
	creating  *Window
)

// Window is the hidden top-level window. Restore and Quit may be called from
// any goroutine; the callbacks in Options run on the window thread.
type Window struct {
	opts Options

	mu       sync.Mutex
	hwnd     uintptr
	exitCode int
	quitting bool
}

func New(opts Options) *Window {
	return &Window{opts: opts}
}

func registerClass(instance uintptr) error {
	registerOnce.Do(func() {
		className, err := windows.UTF16PtrFromString(ClassName)
		if err != nil {
			registerErr = err
			return
		}
		cursor, _, _ := procLoadCursorW.Call(0, idcArrow)
		wndProcPtr = syscall.NewCallback(wndProc)

		wc := winWNDCLASSEX{
			WndProc:    wndProcPtr,
			Instance:   instance,
			Cursor:     cursor,
			Background: colorWindow + 1,
			ClassName:  className,
		}
		wc.Size = uint32(unsafe.Sizeof(wc))
		if atom, _, err := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc))); atom == 0 {
			registerErr = fmt.Errorf("RegisterClassExW: %w", err)
		}
	})
	return registerErr
}

// Run creates the window hidden, calls onReady on the window thread and
// pumps messages until WM_QUIT. It returns the WM_QUIT wParam.
func (w *Window) Run(onReady func()) (int, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	instance, _, _ := procGetModuleHandleW.Call(0)
	if err := registerClass(instance); err != nil {
		return 1, err
	}

	className, _ := windows.UTF16PtrFromString(ClassName)
	title, _ := windows.UTF16PtrFromString(Title)

	windowsMu.Lock()
	creating = w
	windowsMu.Unlock()

	hwnd, _, err := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		wsOverlappedWindow,
		X, Y, Width, Height,
		0, 0, instance, 0)

	windowsMu.Lock()
	creating = nil
	if hwnd != 0 {
		byHandle[hwnd] = w
	}
	windowsMu.Unlock()

	if hwnd == 0 {
		return 1, fmt.Errorf("CreateWindowExW: %w", err)
	}

	w.mu.Lock()
	w.hwnd = hwnd
	w.mu.Unlock()

	procShowWindow.Call(hwnd, swHide)
	procUpdateWindow.Call(hwnd)
	log.Debug().Uint64("hwnd", uint64(hwnd)).Msg("Window created")

	if onReady != nil {
		onReady()
	}

	var m winMSG
	for {
		r, _, err := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case -1:
			return 1, fmt.Errorf("GetMessageW: %w", err)
		case 0:
			return int(int32(m.WParam)), nil
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// Restore shows the window. ShowWindowAsync lets callers on other threads
// return without waiting for the window thread.
func (w *Window) Restore() error {
	w.mu.Lock()
	hwnd := w.hwnd
	w.mu.Unlock()
	if hwnd == 0 {
		return ErrNotCreated
	}
	procShowWindowAsync.Call(hwnd, swRestore)
	procSetForegroundWnd.Call(hwnd)
	return nil
}

// Quit closes the window; the loop then ends with code. Only the first
// call's code is used.
func (w *Window) Quit(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.quitting {
		return
	}
	w.quitting = true
	w.exitCode = code
	if w.hwnd != 0 {
		procPostMessageW.Call(w.hwnd, wmClose, 0, 0)
	}
}

// SignalExisting asks the window of an already running instance to run
// command id, as if it had been picked from that instance's tray menu.
func SignalExisting(id uint16) error {
	className, _ := windows.UTF16PtrFromString(ClassName)
	title, _ := windows.UTF16PtrFromString(Title)

	hwnd, _, _ := procFindWindowW.Call(uintptr(unsafe.Pointer(className)), uintptr(unsafe.Pointer(title)))
	if hwnd == 0 {
		return ErrNotFound
	}
	if ok, _, err := procPostMessageW.Call(hwnd, wmCommand, uintptr(id), 0); ok == 0 {
		return fmt.Errorf("PostMessageW: %w", err)
	}
	return nil
}

func lookup(hwnd uintptr) *Window {
	windowsMu.Lock()
	defer windowsMu.Unlock()

	if w, ok := byHandle[hwnd]; ok {
		return w
	}
	return creating
}

func wndProc(hwnd, msg, wParam, lParam uintptr) uintptr {
	w := lookup(hwnd)
	if w == nil {
		ret, _, _ := procDefWindowProcW.Call(hwnd, msg, wParam, lParam)
		return ret
	}

	switch msg {
	case wmCommand:
		if w.opts.OnCommand != nil {
			w.opts.OnCommand(uint16(wParam & 0xFFFF))
		}
		return 0

	case wmSize:
		if wParam == sizeMinimized && w.opts.OnHide != nil {
			w.opts.OnHide()
		}

	case wmMoving:
		if lParam != 0 {
			keepOnScreen((*winRECT)(unsafe.Pointer(lParam)), lParam)
			return 1
		}

	case wmDestroy:
		w.mu.Lock()
		w.quitting = true
		code := w.exitCode
		w.mu.Unlock()

		if w.opts.OnDestroy != nil {
			w.opts.OnDestroy()
		}

		windowsMu.Lock()
		delete(byHandle, hwnd)
		windowsMu.Unlock()

		procPostQuitMessage.Call(uintptr(code))
		return 0
	}

	ret, _, _ := procDefWindowProcW.Call(hwnd, msg, wParam, lParam)
	return ret
}

// keepOnScreen clamps a window being dragged so its title bar stays inside
// the work area of the nearest monitor.
func keepOnScreen(r *winRECT, lParam uintptr) {
	hMon, _, _ := procMonitorFromRect.Call(lParam, monitorDefaultToNearest)
	if hMon == 0 {
		return
	}
	var mi winMONITORINFO
	mi.Size = uint32(unsafe.Sizeof(mi))
	if ok, _, _ := procGetMonitorInfoW.Call(hMon, uintptr(unsafe.Pointer(&mi))); ok == 0 {
		return
	}

	w := r.Right - r.Left
	h := r.Bottom - r.Top
	work := mi.Work

	if r.Top < work.Top {
		r.Top = work.Top
		r.Bottom = r.Top + h
	}
	// Keep at least 40px visible at bottom
	if r.Top > work.Bottom-40 {
		r.Top = work.Bottom - 40
		r.Bottom = r.Top + h
	}
	// Keep at least 150px visible horizontally
	if r.Right < work.Left+150 {
		r.Left = work.Left + 150 - w
		r.Right = r.Left + w
	}
	if r.Left > work.Right-150 {
		r.Left = work.Right - 150
		r.Right = r.Left + w
	}
}
