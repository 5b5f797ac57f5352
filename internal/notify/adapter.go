// Package notify reacts to audio endpoint notifications.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"earsaver/internal/audio"
	"earsaver/internal/volume"
)

// Volume is the part of volume.Adjuster the adapter drives.
type Volume interface {
	AdjustAll(ctx context.Context) volume.Summary
}

// Adapter logs every endpoint notification and re-applies the headphone
// volume whenever a device property changes. It keeps no state between
// events; delivery must be serialized by the caller (see audio.Queue).
type Adapter struct {
	names  *audio.Reader
	volume Volume
	logger zerolog.Logger
}

var _ audio.NotificationClient = (*Adapter)(nil)

func NewAdapter(names *audio.Reader, vol Volume, logger zerolog.Logger) *Adapter {
	return &Adapter{names: names, volume: vol, logger: logger}
}

// event returns a logger tagged with a fresh correlation id and the
// device's friendly name.
func (a *Adapter) event(kind audio.EventKind, deviceID string) zerolog.Logger {
	name, _ := a.names.FriendlyName(deviceID)
	if deviceID == "" {
		deviceID = audio.NullID
	}
	return a.logger.With().
		Str("event_id", uuid.NewString()).
		Str("event", kind.String()).
		Str("device", name).
		Str("device_id", deviceID).
		Logger()
}

func (a *Adapter) OnDefaultDeviceChanged(flow audio.DataFlow, role audio.Role, deviceID string) {
	l := a.event(audio.EventDefaultDeviceChanged, deviceID)
	l.Info().Stringer("flow", flow).Stringer("role", role).Msg("New default device")
}

func (a *Adapter) OnDeviceAdded(deviceID string) {
	l := a.event(audio.EventDeviceAdded, deviceID)
	l.Info().Msg("Added device")
}

func (a *Adapter) OnDeviceRemoved(deviceID string) {
	l := a.event(audio.EventDeviceRemoved, deviceID)
	l.Info().Msg("Removed device")
}

func (a *Adapter) OnDeviceStateChanged(deviceID string, state audio.DeviceState) {
	l := a.event(audio.EventDeviceStateChanged, deviceID)
	l.Info().Str("state", "DEVICE_STATE_"+state.String()).Msg("New device state")
}

func (a *Adapter) OnPropertyValueChanged(deviceID string, key audio.PropertyKey) {
	l := a.event(audio.EventPropertyValueChanged, deviceID)
	l.Debug().Stringer("key", key).Msg("Changed device property")

	sum := a.volume.AdjustAll(l.WithContext(context.Background()))
	if sum.Adjusted > 0 || sum.Failed > 0 {
		l.Info().Int("adjusted", sum.Adjusted).Int("failed", sum.Failed).Msg("Headphone volume re-applied")
	}
}
