package audio

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

const (
	// NullDevice replaces the friendly name of an endpoint that cannot be read.
	NullDevice = "null device"
	// NullID is printed in place of an empty endpoint identifier.
	NullID = "null ID"
)

// Reader reads endpoint properties by identifier. Every handle it acquires
// is released before the call returns.
type Reader struct {
	enum Enumerator
}

func NewReader(enum Enumerator) *Reader {
	return &Reader{enum: enum}
}

// FriendlyName returns the display name of the endpoint id. When id is empty
// or no longer resolves the NullDevice label is returned along with an error
// wrapping ErrDeviceUnavailable (or ErrPropertyRead if only the name is missing).
func (r *Reader) FriendlyName(id string) (string, error) {
	name, err := r.friendlyName(id)
	if err != nil {
		name = NullDevice
	}

	shownID := id
	if shownID == "" {
		shownID = NullID
	}
	ev := log.Debug().Str("device", name).Str("endpoint_id", shownID)
	if err != nil {
		ev = ev.AnErr("lookup_error", err)
	}
	ev.Msg("Device name")

	return name, err
}

func (r *Reader) friendlyName(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("empty endpoint id: %w", ErrDeviceUnavailable)
	}
	dev, err := r.enum.Device(id)
	if err != nil {
		return "", unavailable(id, err)
	}
	defer dev.Release()

	return DeviceName(dev)
}

// ReadString reads a string property of the endpoint id.
func (r *Reader) ReadString(id string, key PropertyKey) (string, error) {
	dev, err := r.enum.Device(id)
	if err != nil {
		return "", unavailable(id, err)
	}
	defer dev.Release()

	props, err := openProperties(dev)
	if err != nil {
		return "", err
	}
	defer props.Release()

	v, err := props.String(key)
	if err != nil {
		return "", propertyErr(key, err)
	}
	return v, nil
}

// ReadUint32 reads an integer property of the endpoint id.
func (r *Reader) ReadUint32(id string, key PropertyKey) (uint32, error) {
	dev, err := r.enum.Device(id)
	if err != nil {
		return 0, unavailable(id, err)
	}
	defer dev.Release()

	props, err := openProperties(dev)
	if err != nil {
		return 0, err
	}
	defer props.Release()

	v, err := props.Uint32(key)
	if err != nil {
		return 0, propertyErr(key, err)
	}
	return v, nil
}

// Describe takes a best-effort snapshot of dev. Unreadable fields keep their
// sentinel values (NullDevice, FormFactorUnknown, volume -1, state 0).
func (r *Reader) Describe(dev Device) DeviceInfo {
	info := DeviceInfo{Name: NullDevice, FormFactor: FormFactorUnknown, Volume: -1}

	if id, err := dev.ID(); err == nil {
		info.ID = id
	}
	if st, err := dev.State(); err == nil {
		info.State = st
	}
	if name, err := DeviceName(dev); err == nil {
		info.Name = name
	}
	if ff, err := DeviceFormFactor(dev); err == nil {
		info.FormFactor = ff
	}
	if vol, err := dev.ActivateVolume(); err == nil {
		if level, err := vol.MasterScalar(); err == nil {
			info.Volume = level
		}
		vol.Release()
	}
	return info
}

// DeviceName reads PKeyDeviceFriendlyName from an acquired device.
func DeviceName(dev Device) (string, error) {
	props, err := openProperties(dev)
	if err != nil {
		return "", err
	}
	defer props.Release()

	name, err := props.String(PKeyDeviceFriendlyName)
	if err != nil {
		return "", propertyErr(PKeyDeviceFriendlyName, err)
	}
	return name, nil
}

// DeviceFormFactor reads PKeyAudioEndpointFormFactor from an acquired device.
// On failure it returns FormFactorUnknown and an error wrapping ErrPropertyRead.
func DeviceFormFactor(dev Device) (FormFactor, error) {
	props, err := openProperties(dev)
	if err != nil {
		return FormFactorUnknown, err
	}
	defer props.Release()

	v, err := props.Uint32(PKeyAudioEndpointFormFactor)
	if err != nil {
		return FormFactorUnknown, propertyErr(PKeyAudioEndpointFormFactor, err)
	}
	return FormFactor(v), nil
}

func openProperties(dev Device) (PropertyStore, error) {
	props, err := dev.OpenProperties()
	if err != nil {
		if errors.Is(err, ErrPropertyRead) {
			return nil, err
		}
		return nil, fmt.Errorf("open property store: %w: %w", ErrPropertyRead, err)
	}
	return props, nil
}

func unavailable(id string, err error) error {
	if errors.Is(err, ErrDeviceUnavailable) {
		return err
	}
	return fmt.Errorf("device %s: %w: %w", id, ErrDeviceUnavailable, err)
}

func propertyErr(key PropertyKey, err error) error {
	if errors.Is(err, ErrPropertyRead) {
		return err
	}
	return fmt.Errorf("property %s: %w: %w", key, ErrPropertyRead, err)
}
