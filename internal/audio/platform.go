package audio

// Enumerator is the entry point into the platform's endpoint store.
// Implementations must be safe for use from multiple goroutines.
type Enumerator interface {
	// Device resolves id to an endpoint. It fails with ErrDeviceUnavailable
	// when the identifier no longer names a device.
	Device(id string) (Device, error)

	// Devices returns every endpoint of the given flow whose state is in mask.
	// The caller releases each returned device.
	Devices(flow DataFlow, mask DeviceState) ([]Device, error)

	// Register starts delivering endpoint notifications to client until the
	// returned registration is closed.
	Register(client NotificationClient) (Registration, error)

	// Close releases the enumerator.
	Close() error
}

// Device is an acquired endpoint handle.
type Device interface {
	ID() (string, error)
	State() (DeviceState, error)
	OpenProperties() (PropertyStore, error)
	ActivateVolume() (EndpointVolume, error)
	Release()
}

// PropertyStore is a read-only view of an endpoint's property store.
type PropertyStore interface {
	String(key PropertyKey) (string, error)
	Uint32(key PropertyKey) (uint32, error)
	Release()
}

// EndpointVolume controls an endpoint's master volume.
type EndpointVolume interface {
	MasterScalar() (float32, error)
	SetMasterScalar(level float32) error
	Release()
}

// NotificationClient receives endpoint topology and property changes.
type NotificationClient interface {
	OnDefaultDeviceChanged(flow DataFlow, role Role, deviceID string)
	OnDeviceAdded(deviceID string)
	OnDeviceRemoved(deviceID string)
	OnDeviceStateChanged(deviceID string, state DeviceState)
	OnPropertyValueChanged(deviceID string, key PropertyKey)
}

// Registration is the owned handle of a registered NotificationClient.
type Registration interface {
	Close() error
}
