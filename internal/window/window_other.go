//go:build !windows

package window

// Window is unavailable outside Windows: Run fails immediately.
type Window struct {
	opts Options
}

func New(opts Options) *Window {
	return &Window{opts: opts}
}

func (w *Window) Run(onReady func()) (int, error) {
	return 1, ErrUnsupported
}

func (w *Window) Restore() error {
	return ErrUnsupported
}

func (w *Window) Quit(code int) {}

// SignalExisting is a no-op failure on non-Windows platforms.
func SignalExisting(id uint16) error {
	return ErrUnsupported
}
