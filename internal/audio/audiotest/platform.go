// Package audiotest provides an in-memory audio.Enumerator for tests.
package audiotest

import (
	"errors"
	"fmt"
	"sync"

	"earsaver/internal/audio"
)

var errInjected = errors.New("injected failure")

// Endpoint describes one fake device. Zero values give an active render
// endpoint with the Speakers form factor.
type Endpoint struct {
	ID         string
	Name       string
	Flow       audio.DataFlow
	State      audio.DeviceState
	FormFactor audio.FormFactor
	Volume     float32

	NoName         bool
	NoFormFactor   bool
	FailProperties bool
	FailActivate   bool
	FailSetVolume  bool
}

// SetCall records one SetMasterScalar call.
type SetCall struct {
	DeviceID string
	Level    float32
}

// Platform is a thread-safe fake of the platform endpoint store.
type Platform struct {
	mu          sync.Mutex
	endpoints   []*Endpoint
	clients     map[*registration]audio.NotificationClient
	outstanding int
	setCalls    []SetCall
	closed      bool

	// FailEnumerate makes Devices return this error.
	FailEnumerate error
	// FailRegister makes Register return this error.
	FailRegister error
}

func NewPlatform(endpoints ...Endpoint) *Platform {
	p := &Platform{clients: make(map[*registration]audio.NotificationClient)}
	for _, ep := range endpoints {
		p.Add(ep)
	}
	return p
}

func (p *Platform) Add(ep Endpoint) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ep.State == 0 {
		ep.State = audio.StateActive
	}
	if ep.FormFactor == 0 && !ep.NoFormFactor {
		ep.FormFactor = audio.FormFactorSpeakers
	}
	p.endpoints = append(p.endpoints, &ep)
}

func (p *Platform) Remove(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, ep := range p.endpoints {
		if ep.ID == id {
			p.endpoints = append(p.endpoints[:i], p.endpoints[i+1:]...)
			return
		}
	}
}

// Volume returns the current master scalar of id, or -1 if unknown.
func (p *Platform) Volume(id string) float32 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ep := p.find(id); ep != nil {
		return ep.Volume
	}
	return -1
}

// SetCalls returns every SetMasterScalar call made so far.
func (p *Platform) SetCalls() []SetCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SetCall(nil), p.setCalls...)
}

// Outstanding returns the number of acquired handles not yet released.
func (p *Platform) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// Registered returns the number of open registrations.
func (p *Platform) Registered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.clients)
}

func (p *Platform) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Emit delivers ev synchronously to every registered client.
func (p *Platform) Emit(ev audio.Event) {
	p.mu.Lock()
	clients := make([]audio.NotificationClient, 0, len(p.clients))
	for _, c := range p.clients {
		clients = append(clients, c)
	}
	p.mu.Unlock()

	for _, c := range clients {
		ev.Deliver(c)
	}
}

func (p *Platform) Device(id string) (audio.Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ep := p.find(id)
	if ep == nil {
		return nil, fmt.Errorf("%w: %s", audio.ErrDeviceUnavailable, id)
	}
	return p.acquire(ep), nil
}

func (p *Platform) Devices(flow audio.DataFlow, mask audio.DeviceState) ([]audio.Device, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailEnumerate != nil {
		return nil, p.FailEnumerate
	}
	var out []audio.Device
	for _, ep := range p.endpoints {
		if flow != audio.FlowAll && ep.Flow != flow {
			continue
		}
		if ep.State&mask == 0 {
			continue
		}
		out = append(out, p.acquire(ep))
	}
	return out, nil
}

func (p *Platform) Register(client audio.NotificationClient) (audio.Registration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.FailRegister != nil {
		return nil, p.FailRegister
	}
	r := &registration{p: p}
	p.clients[r] = client
	return r, nil
}

func (p *Platform) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *Platform) find(id string) *Endpoint {
	for _, ep := range p.endpoints {
		if ep.ID == id {
			return ep
		}
	}
	return nil
}

// acquire must be called with p.mu held.
func (p *Platform) acquire(ep *Endpoint) *device {
	p.outstanding++
	return &device{ep: ep, handle: handle{p: p}}
}

func (p *Platform) release() {
	p.mu.Lock()
	p.outstanding--
	p.mu.Unlock()
}

type registration struct {
	p    *Platform
	once sync.Once
}

func (r *registration) Close() error {
	r.once.Do(func() {
		r.p.mu.Lock()
		delete(r.p.clients, r)
		r.p.mu.Unlock()
	})
	return nil
}

type handle struct {
	p        *Platform
	released sync.Once
}

func (h *handle) Release() {
	h.released.Do(h.p.release)
}

type device struct {
	ep *Endpoint
	handle
}

func (d *device) ID() (string, error) {
	return d.ep.ID, nil
}

func (d *device) State() (audio.DeviceState, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()
	return d.ep.State, nil
}

func (d *device) OpenProperties() (audio.PropertyStore, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()

	if d.ep.FailProperties {
		return nil, errInjected
	}
	d.p.outstanding++
	return &properties{ep: d.ep, handle: handle{p: d.p}}, nil
}

func (d *device) ActivateVolume() (audio.EndpointVolume, error) {
	d.p.mu.Lock()
	defer d.p.mu.Unlock()

	if d.ep.FailActivate {
		return nil, fmt.Errorf("%w: %w", audio.ErrActivation, errInjected)
	}
	d.p.outstanding++
	return &volume{ep: d.ep, handle: handle{p: d.p}}, nil
}

type properties struct {
	ep *Endpoint
	handle
}

func (s *properties) String(key audio.PropertyKey) (string, error) {
	if key == audio.PKeyDeviceFriendlyName && !s.ep.NoName {
		return s.ep.Name, nil
	}
	return "", fmt.Errorf("%w: %s", audio.ErrPropertyRead, key)
}

func (s *properties) Uint32(key audio.PropertyKey) (uint32, error) {
	if key == audio.PKeyAudioEndpointFormFactor && !s.ep.NoFormFactor {
		return uint32(s.ep.FormFactor), nil
	}
	return 0, fmt.Errorf("%w: %s", audio.ErrPropertyRead, key)
}

type volume struct {
	ep *Endpoint
	handle
}

func (v *volume) MasterScalar() (float32, error) {
	v.p.mu.Lock()
	defer v.p.mu.Unlock()
	return v.ep.Volume, nil
}

func (v *volume) SetMasterScalar(level float32) error {
	v.p.mu.Lock()
	defer v.p.mu.Unlock()

	if v.ep.FailSetVolume {
		return errInjected
	}
	v.ep.Volume = level
	v.p.setCalls = append(v.p.setCalls, SetCall{DeviceID: v.ep.ID, Level: level})
	return nil
}
