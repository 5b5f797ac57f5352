//go:build windows && amd64

package wasapi

import (
	"sync"
	"sync/atomic"
	"syscall"
	"unsafe"

	"github.com/go-ole/go-ole"
	"golang.org/x/sys/windows"

	"earsaver/internal/audio"
)

// notificationClient is a Go-implemented IMMNotificationClient. Its first
// field is the vtable pointer so a *notificationClient is a valid COM
// interface pointer. The platform calls it on its own threads; every method
// only copies its arguments into an audio.Event and posts it.
type notificationClient struct {
	vtbl  *notificationClientVtbl
	refs  int32
	queue *audio.Queue
}

type notificationClientVtbl struct {
	QueryInterface         uintptr
	AddRef                 uintptr
	Release                uintptr
	OnDeviceStateChanged   uintptr
	OnDeviceAdded          uintptr
	OnDeviceRemoved        uintptr
	OnDefaultDeviceChanged uintptr
	OnPropertyValueChanged uintptr
}

var (
	clientVtblOnce sync.Once
	clientVtbl     *notificationClientVtbl

	// live keeps clients reachable for the garbage collector while COM
	// holds references to them.
	live sync.Map
)

func newNotificationClient(q *audio.Queue) *notificationClient {
	clientVtblOnce.Do(func() {
		clientVtbl = &notificationClientVtbl{
			QueryInterface:         syscall.NewCallback(ncQueryInterface),
			AddRef:                 syscall.NewCallback(ncAddRef),
			Release:                syscall.NewCallback(ncRelease),
			OnDeviceStateChanged:   syscall.NewCallback(ncOnDeviceStateChanged),
			OnDeviceAdded:          syscall.NewCallback(ncOnDeviceAdded),
			OnDeviceRemoved:        syscall.NewCallback(ncOnDeviceRemoved),
			OnDefaultDeviceChanged: syscall.NewCallback(ncOnDefaultDeviceChanged),
			OnPropertyValueChanged: syscall.NewCallback(ncOnPropertyValueChanged),
		}
	})
	c := &notificationClient{vtbl: clientVtbl, refs: 1, queue: q}
	live.Store(c, struct{}{})
	return c
}

// release drops the reference taken by newNotificationClient.
func (c *notificationClient) release() {
	ncRelease(c)
}

func ncQueryInterface(this *notificationClient, riid *ole.GUID, ppv *uintptr) uintptr {
	if ole.IsEqualGUID(riid, ole.IID_IUnknown) || ole.IsEqualGUID(riid, iidIMMNotificationClient) {
		*ppv = uintptr(unsafe.Pointer(this))
		ncAddRef(this)
		return sOK
	}
	*ppv = 0
	return eNoInterface
}

func ncAddRef(this *notificationClient) uintptr {
	return uintptr(atomic.AddInt32(&this.refs, 1))
}

func ncRelease(this *notificationClient) uintptr {
	n := atomic.AddInt32(&this.refs, -1)
	if n == 0 {
		live.Delete(this)
	}
	return uintptr(n)
}

func ncOnDeviceStateChanged(this *notificationClient, id *uint16, state uintptr) uintptr {
	this.queue.Post(audio.Event{
		Kind:     audio.EventDeviceStateChanged,
		DeviceID: windows.UTF16PtrToString(id),
		State:    audio.DeviceState(state),
	})
	return sOK
}

func ncOnDeviceAdded(this *notificationClient, id *uint16) uintptr {
	this.queue.Post(audio.Event{
		Kind:     audio.EventDeviceAdded,
		DeviceID: windows.UTF16PtrToString(id),
	})
	return sOK
}

func ncOnDeviceRemoved(this *notificationClient, id *uint16) uintptr {
	this.queue.Post(audio.Event{
		Kind:     audio.EventDeviceRemoved,
		DeviceID: windows.UTF16PtrToString(id),
	})
	return sOK
}

func ncOnDefaultDeviceChanged(this *notificationClient, flow, role uintptr, id *uint16) uintptr {
	this.queue.Post(audio.Event{
		Kind:     audio.EventDefaultDeviceChanged,
		DeviceID: windows.UTF16PtrToString(id),
		Flow:     audio.DataFlow(flow),
		Role:     audio.Role(role),
	})
	return sOK
}

// ncOnPropertyValueChanged receives the PROPERTYKEY by reference: the x64
// convention passes structs larger than eight bytes as pointers.
func ncOnPropertyValueChanged(this *notificationClient, id *uint16, key *propertyKey) uintptr {
	ev := audio.Event{
		Kind:     audio.EventPropertyValueChanged,
		DeviceID: windows.UTF16PtrToString(id),
	}
	if key != nil {
		ev.Key = audio.PropertyKey{FormatID: audio.GUID(key.fmtid), PID: key.pid}
	}
	this.queue.Post(ev)
	return sOK
}
