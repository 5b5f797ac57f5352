package audio

import "errors"

var (
	// ErrDeviceUnavailable means an endpoint identifier no longer resolves.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrPropertyRead means a property store is missing the requested key or
	// holds a value of the wrong type.
	ErrPropertyRead = errors.New("property read failure")

	// ErrActivation means the endpoint's volume control could not be activated.
	ErrActivation = errors.New("activation failure")

	// ErrInitialization means the platform device enumerator could not be created.
	ErrInitialization = errors.New("initialization failure")

	// ErrUnsupported is returned by backends on platforms without an audio
	// endpoint API.
	ErrUnsupported = errors.New("audio endpoint API not supported on this platform")
)
