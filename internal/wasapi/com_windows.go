//go:build windows && amd64

package wasapi

import (
	"errors"
	"math"
	"runtime"
	"sync"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"earsaver/internal/audio"
)

var (
	clsidMMDeviceEnumerator  = ole.NewGUID("{BCDE0395-E52F-467C-8E3D-C4579291692E}")
	iidIMMDeviceEnumerator   = ole.NewGUID("{A95664D2-9614-4F35-A746-DE8DB63617E6}")
	iidIMMNotificationClient = ole.NewGUID("{7991EEC9-7E89-4D85-8390-6C703CEC60C0}")
	iidIAudioEndpointVolume  = ole.NewGUID("{5CDF2C82-841E-4546-9722-0CF74078229A}")
)

const (
	clsctxAll = 0x17
	stgmRead  = 0x0

	vtEmpty  = 0
	vtUI4    = 19
	vtLPWSTR = 31

	sOK          = 0x0
	sFalse       = 0x1
	eNoInterface = 0x80004002
)

var (
	ole32                = windows.NewLazySystemDLL("ole32.dll")
	procPropVariantClear = ole32.NewProc("PropVariantClear")
)

var errApartmentClosed = errors.New("COM apartment closed")

func hresult(hr uintptr) error {
	if int32(hr) < 0 {
		return ole.NewError(hr)
	}
	return nil
}

// apartment runs every COM call on one OS thread initialized for the
// multithreaded apartment. Goroutines hop between threads; COM calls can't.
type apartment struct {
	calls chan func()
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newApartment() (*apartment, error) {
	a := &apartment{
		calls: make(chan func()),
		done:  make(chan struct{}),
	}
	ready := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(a.done)

		if err := ole.CoInitializeEx(0, ole.COINIT_MULTITHREADED); err != nil && !alreadyInitialized(err) {
			ready <- err
			return
		}
		defer ole.CoUninitialize()
		ready <- nil

		for fn := range a.calls {
			fn()
		}
	}()

	if err := <-ready; err != nil {
		return nil, err
	}
	return a, nil
}

// do runs fn on the apartment thread and waits for it. fn must not call do.
func (a *apartment) do(fn func() error) error {
	a.mu.RLock()
	if a.closed {
		a.mu.RUnlock()
		return errApartmentClosed
	}
	errc := make(chan error, 1)
	a.calls <- func() { errc <- fn() }
	a.mu.RUnlock()
	return <-errc
}

func (a *apartment) close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.calls)
	}
	a.mu.Unlock()
	<-a.done
}

// alreadyInitialized reports S_FALSE, which go-ole surfaces as an error.
func alreadyInitialized(err error) bool {
	var oleErr *ole.OleError
	return errors.As(err, &oleErr) && oleErr.Code() == sFalse
}

// propertyKey mirrors PROPERTYKEY.
type propertyKey struct {
	fmtid ole.GUID
	pid   uint32
}

func nativeKey(k audio.PropertyKey) propertyKey {
	return propertyKey{fmtid: ole.GUID(k.FormatID), pid: k.PID}
}

// propVariant mirrors the 64-bit PROPVARIANT layout: a type tag, three
// reserved words and a 16-byte value union.
type propVariant struct {
	vt  uint16
	_   [3]uint16
	val uintptr
	_   uintptr
}

func (pv *propVariant) clear() {
	procPropVariantClear.Call(uintptr(unsafe.Pointer(pv)))
}

// IMMDeviceEnumerator

type immDeviceEnumerator struct {
	ole.IUnknown
}

type immDeviceEnumeratorVtbl struct {
	ole.IUnknownVtbl
	EnumAudioEndpoints                     uintptr
	GetDefaultAudioEndpoint                uintptr
	GetDevice                              uintptr
	RegisterEndpointNotificationCallback   uintptr
	UnregisterEndpointNotificationCallback uintptr
}

func (v *immDeviceEnumerator) vtbl() *immDeviceEnumeratorVtbl {
	return (*immDeviceEnumeratorVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *immDeviceEnumerator) enumAudioEndpoints(flow audio.DataFlow, mask audio.DeviceState) (*immDeviceCollection, error) {
	var dc *immDeviceCollection
	hr, _, _ := syscall.SyscallN(v.vtbl().EnumAudioEndpoints,
		uintptr(unsafe.Pointer(v)),
		uintptr(flow),
		uintptr(mask),
		uintptr(unsafe.Pointer(&dc)))
	if err := hresult(hr); err != nil {
		return nil, err
	}
	return dc, nil
}

func (v *immDeviceEnumerator) getDevice(id string) (*immDevice, error) {
	pid, err := windows.UTF16PtrFromString(id)
	if err != nil {
		return nil, err
	}
	var d *immDevice
	hr, _, _ := syscall.SyscallN(v.vtbl().GetDevice,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(pid)),
		uintptr(unsafe.Pointer(&d)))
	if err := hresult(hr); err != nil {
		return nil, err
	}
	return d, nil
}

func (v *immDeviceEnumerator) registerEndpointNotificationCallback(c *notificationClient) error {
	hr, _, _ := syscall.SyscallN(v.vtbl().RegisterEndpointNotificationCallback,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(c)))
	return hresult(hr)
}

func (v *immDeviceEnumerator) unregisterEndpointNotificationCallback(c *notificationClient) error {
	hr, _, _ := syscall.SyscallN(v.vtbl().UnregisterEndpointNotificationCallback,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(c)))
	return hresult(hr)
}

// IMMDeviceCollection

type immDeviceCollection struct {
	ole.IUnknown
}

type immDeviceCollectionVtbl struct {
	ole.IUnknownVtbl
	GetCount uintptr
	Item     uintptr
}

func (v *immDeviceCollection) vtbl() *immDeviceCollectionVtbl {
	return (*immDeviceCollectionVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *immDeviceCollection) getCount() (uint32, error) {
	var n uint32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetCount,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&n)))
	return n, hresult(hr)
}

func (v *immDeviceCollection) item(i uint32) (*immDevice, error) {
	var d *immDevice
	hr, _, _ := syscall.SyscallN(v.vtbl().Item,
		uintptr(unsafe.Pointer(v)),
		uintptr(i),
		uintptr(unsafe.Pointer(&d)))
	if err := hresult(hr); err != nil {
		return nil, err
	}
	return d, nil
}

// IMMDevice

type immDevice struct {
	ole.IUnknown
}

type immDeviceVtbl struct {
	ole.IUnknownVtbl
	Activate          uintptr
	OpenPropertyStore uintptr
	GetId             uintptr
	GetState          uintptr
}

func (v *immDevice) vtbl() *immDeviceVtbl {
	return (*immDeviceVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *immDevice) activateEndpointVolume() (*iAudioEndpointVolume, error) {
	var aev *iAudioEndpointVolume
	hr, _, _ := syscall.SyscallN(v.vtbl().Activate,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(iidIAudioEndpointVolume)),
		uintptr(clsctxAll),
		0,
		uintptr(unsafe.Pointer(&aev)))
	if err := hresult(hr); err != nil {
		return nil, err
	}
	return aev, nil
}

func (v *immDevice) openPropertyStore() (*iPropertyStore, error) {
	var ps *iPropertyStore
	hr, _, _ := syscall.SyscallN(v.vtbl().OpenPropertyStore,
		uintptr(unsafe.Pointer(v)),
		uintptr(stgmRead),
		uintptr(unsafe.Pointer(&ps)))
	if err := hresult(hr); err != nil {
		return nil, err
	}
	return ps, nil
}

func (v *immDevice) getID() (string, error) {
	var p *uint16
	hr, _, _ := syscall.SyscallN(v.vtbl().GetId,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&p)))
	if err := hresult(hr); err != nil {
		return "", err
	}
	defer windows.CoTaskMemFree(unsafe.Pointer(p))
	return windows.UTF16PtrToString(p), nil
}

func (v *immDevice) getState() (uint32, error) {
	var st uint32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetState,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&st)))
	return st, hresult(hr)
}

// IPropertyStore

type iPropertyStore struct {
	ole.IUnknown
}

type iPropertyStoreVtbl struct {
	ole.IUnknownVtbl
	GetCount uintptr
	GetAt    uintptr
	GetValue uintptr
	SetValue uintptr
	Commit   uintptr
}

func (v *iPropertyStore) vtbl() *iPropertyStoreVtbl {
	return (*iPropertyStoreVtbl)(unsafe.Pointer(v.RawVTable))
}

func (v *iPropertyStore) getValue(key audio.PropertyKey, pv *propVariant) error {
	k := nativeKey(key)
	hr, _, _ := syscall.SyscallN(v.vtbl().GetValue,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&k)),
		uintptr(unsafe.Pointer(pv)))
	return hresult(hr)
}

// IAudioEndpointVolume, only the methods up to GetMasterVolumeLevelScalar.

type iAudioEndpointVolume struct {
	ole.IUnknown
}

type iAudioEndpointVolumeVtbl struct {
	ole.IUnknownVtbl
	RegisterControlChangeNotify   uintptr
	UnregisterControlChangeNotify uintptr
	GetChannelCount               uintptr
	SetMasterVolumeLevel          uintptr
	SetMasterVolumeLevelScalar    uintptr
	GetMasterVolumeLevel          uintptr
	GetMasterVolumeLevelScalar    uintptr
}

func (v *iAudioEndpointVolume) vtbl() *iAudioEndpointVolumeVtbl {
	return (*iAudioEndpointVolumeVtbl)(unsafe.Pointer(v.RawVTable))
}

// setMasterVolumeLevelScalar passes the float in an integer slot; the
// runtime mirrors the first four integer arguments into XMM0-XMM3.
func (v *iAudioEndpointVolume) setMasterVolumeLevelScalar(level float32) error {
	hr, _, _ := syscall.SyscallN(v.vtbl().SetMasterVolumeLevelScalar,
		uintptr(unsafe.Pointer(v)),
		uintptr(math.Float32bits(level)),
		0)
	return hresult(hr)
}

func (v *iAudioEndpointVolume) getMasterVolumeLevelScalar() (float32, error) {
	var level float32
	hr, _, _ := syscall.SyscallN(v.vtbl().GetMasterVolumeLevelScalar,
		uintptr(unsafe.Pointer(v)),
		uintptr(unsafe.Pointer(&level)))
	return level, hresult(hr)
}
