//go:build !(windows && amd64)

package wasapi

import (
	"fmt"

	"earsaver/internal/audio"
)

// Enumerator is unavailable on this platform.
type Enumerator struct{}

// Open always fails: the MMDevice API only exists on Windows.
func Open(queueSize int) (*Enumerator, error) {
	return nil, fmt.Errorf("%w: %w", audio.ErrInitialization, audio.ErrUnsupported)
}

func (e *Enumerator) Device(string) (audio.Device, error) {
	return nil, audio.ErrUnsupported
}

func (e *Enumerator) Devices(audio.DataFlow, audio.DeviceState) ([]audio.Device, error) {
	return nil, audio.ErrUnsupported
}

func (e *Enumerator) Register(audio.NotificationClient) (audio.Registration, error) {
	return nil, audio.ErrUnsupported
}

func (e *Enumerator) Close() error { return nil }

var _ audio.Enumerator = (*Enumerator)(nil)
