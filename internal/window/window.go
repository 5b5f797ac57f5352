// Package window owns Ear Saver's hidden top-level window and the message
// loop that keeps the tray process alive.
package window

import "errors"

const (
	Title     = "Ear Saver"
	ClassName = "EarSaverClass"

	X      = 300
	Y      = 300
	Width  = 500
	Height = 400
)

var (
	ErrUnsupported = errors.New("native window not supported on this platform")
	ErrNotFound    = errors.New("no running Ear Saver window")
	ErrNotCreated  = errors.New("window not created")
)

// Options are the callbacks invoked on the window thread.
type Options struct {
	// OnCommand receives the low word of a WM_COMMAND wParam.
	OnCommand func(id uint16)
	// OnDestroy runs before the loop is told to quit.
	OnDestroy func()
	// OnHide runs when the user minimizes the restored window.
	OnHide func()
}
