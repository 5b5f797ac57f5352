// Package audio models the platform audio-endpoint API used by Ear Saver:
// endpoint identifiers, property keys, form factors, device states and the
// interfaces a platform backend implements.
package audio

import (
	"fmt"
	"strings"
)

// GUID is a 128-bit identifier in the platform's native field layout.
type GUID struct {
	Data1 uint32
	Data2 uint16
	Data3 uint16
	Data4 [8]byte
}

func (g GUID) String() string {
	return fmt.Sprintf("{%08x-%04x-%04x-%02x%02x-%02x%02x%02x%02x%02x%02x}",
		g.Data1, g.Data2, g.Data3,
		g.Data4[0], g.Data4[1],
		g.Data4[2], g.Data4[3], g.Data4[4], g.Data4[5], g.Data4[6], g.Data4[7])
}

// PropertyKey names a value in a device property store.
type PropertyKey struct {
	FormatID GUID
	PID      uint32
}

func (k PropertyKey) String() string {
	return fmt.Sprintf("%s#%d", k.FormatID, k.PID)
}

var (
	// PKeyDeviceFriendlyName is the endpoint's display name, e.g. "Speakers (Realtek Audio)".
	PKeyDeviceFriendlyName = PropertyKey{
		FormatID: GUID{0xa45c254e, 0xdf1c, 0x4efd, [8]byte{0x80, 0x20, 0x67, 0xd1, 0x46, 0xa8, 0x50, 0xe0}},
		PID:      14,
	}

	// PKeyAudioEndpointFormFactor holds the endpoint's FormFactor as a uint32.
	PKeyAudioEndpointFormFactor = PropertyKey{
		FormatID: GUID{0x1da5d803, 0xd492, 0x4edd, [8]byte{0x8c, 0x23, 0xe0, 0xc0, 0xff, 0xee, 0x7f, 0x0e}},
		PID:      0,
	}
)

// FormFactor is the physical category the platform reports for an endpoint.
type FormFactor uint32

const (
	FormFactorRemoteNetworkDevice FormFactor = iota
	FormFactorSpeakers
	FormFactorLineLevel
	FormFactorHeadphones
	FormFactorMicrophone
	FormFactorHeadset
	FormFactorHandset
	FormFactorUnknownDigitalPassthrough
	FormFactorSPDIF
	FormFactorDigitalAudioDisplayDevice
	FormFactorUnknown
)

var formFactorNames = [...]string{
	"RemoteNetworkDevice",
	"Speakers",
	"LineLevel",
	"Headphones",
	"Microphone",
	"Headset",
	"Handset",
	"UnknownDigitalPassthrough",
	"SPDIF",
	"DigitalAudioDisplayDevice",
	"Unknown",
}

func (f FormFactor) String() string {
	if int(f) < len(formFactorNames) {
		return formFactorNames[f]
	}
	return fmt.Sprintf("FormFactor(%d)", uint32(f))
}

// IsHeadphoneClass reports whether sound from the endpoint goes straight
// into the listener's ears.
func (f FormFactor) IsHeadphoneClass() bool {
	return f == FormFactorHeadphones || f == FormFactorHeadset
}

// DeviceState is the platform's activity state bit for an endpoint.
type DeviceState uint32

const (
	StateActive     DeviceState = 0x1
	StateDisabled   DeviceState = 0x2
	StateNotPresent DeviceState = 0x4
	StateUnplugged  DeviceState = 0x8
	StateMaskAll    DeviceState = 0xF
)

func (s DeviceState) String() string {
	switch s {
	case StateActive:
		return "ACTIVE"
	case StateDisabled:
		return "DISABLED"
	case StateNotPresent:
		return "NOTPRESENT"
	case StateUnplugged:
		return "UNPLUGGED"
	}
	return "?????"
}

// ParseDeviceState accepts the names printed by DeviceState.String, case-insensitively.
func ParseDeviceState(s string) (DeviceState, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ACTIVE":
		return StateActive, nil
	case "DISABLED":
		return StateDisabled, nil
	case "NOTPRESENT", "NOT-PRESENT":
		return StateNotPresent, nil
	case "UNPLUGGED":
		return StateUnplugged, nil
	case "ALL":
		return StateMaskAll, nil
	}
	return 0, fmt.Errorf("unknown device state %q", s)
}

// DataFlow is the direction of an endpoint's audio stream.
type DataFlow uint32

const (
	FlowRender DataFlow = iota
	FlowCapture
	FlowAll
)

func (f DataFlow) String() string {
	switch f {
	case FlowRender:
		return "eRender"
	case FlowCapture:
		return "eCapture"
	case FlowAll:
		return "eAll"
	}
	return "?????"
}

// Role is the purpose a default endpoint is assigned to.
type Role uint32

const (
	RoleConsole Role = iota
	RoleMultimedia
	RoleCommunications
)

func (r Role) String() string {
	switch r {
	case RoleConsole:
		return "eConsole"
	case RoleMultimedia:
		return "eMultimedia"
	case RoleCommunications:
		return "eCommunications"
	}
	return "?????"
}

// DeviceInfo is a point-in-time snapshot of one endpoint. It is never stored.
type DeviceInfo struct {
	ID         string      `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	FormFactor FormFactor  `json:"form_factor" yaml:"form_factor"`
	Volume     float32     `json:"volume" yaml:"volume"`
	State      DeviceState `json:"state" yaml:"state"`
}

func (f FormFactor) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (s DeviceState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
