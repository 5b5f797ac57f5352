//go:build windows && amd64

package wasapi

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-ole/go-ole"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/windows"

	"earsaver/internal/audio"
)

// Enumerator is the WASAPI MMDevice enumerator. All calls on it and on the
// handles it returns are safe from any goroutine.
type Enumerator struct {
	apt       *apartment
	mmde      *immDeviceEnumerator
	queueSize int

	mu     sync.Mutex
	regs   map[*registration]struct{}
	closed bool
}

// Open initializes COM and creates the device enumerator. Any failure is
// wrapped in audio.ErrInitialization. queueSize bounds each notification
// registration's event queue; zero picks audio.DefaultQueueSize.
func Open(queueSize int) (*Enumerator, error) {
	apt, err := newApartment()
	if err != nil {
		return nil, fmt.Errorf("%w: CoInitializeEx: %w", audio.ErrInitialization, err)
	}

	e := &Enumerator{
		apt:       apt,
		queueSize: queueSize,
		regs:      make(map[*registration]struct{}),
	}
	err = apt.do(func() error {
		unk, err := ole.CreateInstance(clsidMMDeviceEnumerator, iidIMMDeviceEnumerator)
		if err != nil {
			return err
		}
		e.mmde = (*immDeviceEnumerator)(unsafe.Pointer(unk))
		return nil
	})
	if err != nil {
		apt.close()
		return nil, fmt.Errorf("%w: create MMDeviceEnumerator: %w", audio.ErrInitialization, err)
	}

	log.Debug().Msg("MMDevice enumerator created")
	return e, nil
}

func (e *Enumerator) Device(id string) (audio.Device, error) {
	var d *immDevice
	err := e.apt.do(func() (err error) {
		d, err = e.mmde.getDevice(id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", audio.ErrDeviceUnavailable, id, err)
	}
	return &device{apt: e.apt, d: d}, nil
}

func (e *Enumerator) Devices(flow audio.DataFlow, mask audio.DeviceState) ([]audio.Device, error) {
	var devices []audio.Device
	err := e.apt.do(func() error {
		dc, err := e.mmde.enumAudioEndpoints(flow, mask)
		if err != nil {
			return err
		}
		defer dc.Release()

		n, err := dc.getCount()
		if err != nil {
			return err
		}
		for i := uint32(0); i < n; i++ {
			d, err := dc.item(i)
			if err != nil {
				log.Warn().Err(err).Uint32("index", i).Msg("Skipping endpoint")
				continue
			}
			devices = append(devices, &device{apt: e.apt, d: d})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enumerate %s endpoints: %w", flow, err)
	}
	return devices, nil
}

// Register installs client as the endpoint notification callback. Events are
// queued off the platform's callback thread and delivered one at a time.
func (e *Enumerator) Register(client audio.NotificationClient) (audio.Registration, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, fmt.Errorf("register notification client: %w", errApartmentClosed)
	}

	q := audio.NewQueue(client, e.queueSize)
	nc := newNotificationClient(q)
	if err := e.apt.do(func() error { return e.mmde.registerEndpointNotificationCallback(nc) }); err != nil {
		nc.release()
		q.Close()
		return nil, fmt.Errorf("register notification client: %w", err)
	}

	r := &registration{e: e, nc: nc, q: q}
	e.regs[r] = struct{}{}
	log.Debug().Msg("Endpoint notification callback registered")
	return r, nil
}

// Close unregisters any remaining callbacks, releases the enumerator and
// uninitializes COM.
func (e *Enumerator) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	regs := make([]*registration, 0, len(e.regs))
	for r := range e.regs {
		regs = append(regs, r)
	}
	e.mu.Unlock()

	for _, r := range regs {
		if err := r.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to unregister notification client")
		}
	}

	err := e.apt.do(func() error {
		e.mmde.Release()
		return nil
	})
	e.apt.close()
	return err
}

type registration struct {
	e    *Enumerator
	nc   *notificationClient
	q    *audio.Queue
	once sync.Once
	err  error
}

// Close unregisters the callback, then drains and stops the event queue.
// It must not be called from inside a notification.
func (r *registration) Close() error {
	r.once.Do(func() {
		r.err = r.e.apt.do(func() error {
			return r.e.mmde.unregisterEndpointNotificationCallback(r.nc)
		})
		r.nc.release()
		r.q.Close()
		if n := r.q.Dropped(); n > 0 {
			log.Warn().Uint64("dropped", n).Msg("Notifications dropped while the queue was full")
		}

		r.e.mu.Lock()
		delete(r.e.regs, r)
		r.e.mu.Unlock()
	})
	return r.err
}

type device struct {
	apt  *apartment
	d    *immDevice
	once sync.Once
}

func (d *device) ID() (id string, err error) {
	err = d.apt.do(func() error {
		id, err = d.d.getID()
		return err
	})
	return id, err
}

func (d *device) State() (audio.DeviceState, error) {
	var st uint32
	err := d.apt.do(func() (err error) {
		st, err = d.d.getState()
		return err
	})
	return audio.DeviceState(st), err
}

func (d *device) OpenProperties() (audio.PropertyStore, error) {
	var ps *iPropertyStore
	err := d.apt.do(func() (err error) {
		ps, err = d.d.openPropertyStore()
		return err
	})
	if err != nil {
		return nil, err
	}
	return &properties{apt: d.apt, ps: ps}, nil
}

func (d *device) ActivateVolume() (audio.EndpointVolume, error) {
	var aev *iAudioEndpointVolume
	err := d.apt.do(func() (err error) {
		aev, err = d.d.activateEndpointVolume()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: IAudioEndpointVolume: %w", audio.ErrActivation, err)
	}
	return &endpointVolume{apt: d.apt, v: aev}, nil
}

func (d *device) Release() {
	d.once.Do(func() { release(d.apt, &d.d.IUnknown) })
}

type properties struct {
	apt  *apartment
	ps   *iPropertyStore
	once sync.Once
}

func (p *properties) String(key audio.PropertyKey) (s string, err error) {
	err = p.apt.do(func() error {
		var pv propVariant
		if err := p.ps.getValue(key, &pv); err != nil {
			return err
		}
		defer pv.clear()
		if pv.vt != vtLPWSTR || pv.val == 0 {
			return fmt.Errorf("%w: %s has variant type %d", audio.ErrPropertyRead, key, pv.vt)
		}
		s = windows.UTF16PtrToString((*uint16)(unsafe.Pointer(pv.val)))
		return nil
	})
	return s, err
}

func (p *properties) Uint32(key audio.PropertyKey) (v uint32, err error) {
	err = p.apt.do(func() error {
		var pv propVariant
		if err := p.ps.getValue(key, &pv); err != nil {
			return err
		}
		defer pv.clear()
		if pv.vt != vtUI4 {
			return fmt.Errorf("%w: %s has variant type %d", audio.ErrPropertyRead, key, pv.vt)
		}
		v = uint32(pv.val)
		return nil
	})
	return v, err
}

func (p *properties) Release() {
	p.once.Do(func() { release(p.apt, &p.ps.IUnknown) })
}

type endpointVolume struct {
	apt  *apartment
	v    *iAudioEndpointVolume
	once sync.Once
}

func (v *endpointVolume) MasterScalar() (level float32, err error) {
	err = v.apt.do(func() error {
		level, err = v.v.getMasterVolumeLevelScalar()
		return err
	})
	return level, err
}

func (v *endpointVolume) SetMasterScalar(level float32) error {
	return v.apt.do(func() error {
		return v.v.setMasterVolumeLevelScalar(level)
	})
}

func (v *endpointVolume) Release() {
	v.once.Do(func() { release(v.apt, &v.v.IUnknown) })
}

// release drops a COM reference on the apartment thread. After the
// apartment has shut down COM is gone and there is nothing left to release.
func release(apt *apartment, unk *ole.IUnknown) {
	_ = apt.do(func() error {
		unk.Release()
		return nil
	})
}

var _ audio.Enumerator = (*Enumerator)(nil)
