// Package shell is the tray/window state machine: it decides what the tray
// menu offers and what each selection does. The platform pieces (tray icon,
// hidden window, message loop) are supplied through the Tray and Window
// interfaces.
package shell

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrTerminated is returned by operations attempted after shutdown.
var ErrTerminated = errors.New("shell terminated")

// State is the shell's position in its lifecycle.
type State int

const (
	StateHidden State = iota
	StateMenuOpen
	StateRestored
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateHidden:
		return "hidden"
	case StateMenuOpen:
		return "menu-open"
	case StateRestored:
		return "restored"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// MenuID identifies a context-menu command. Values are WM_APP-relative so
// they can travel in a WM_COMMAND wParam.
type MenuID uint16

const (
	wmApp = 0x8000

	MenuOpen    MenuID = wmApp + 3
	MenuOptions MenuID = wmApp + 4
	MenuExit    MenuID = wmApp + 5
)

// MenuItem is one entry of the tray context menu, built per right-click.
type MenuItem struct {
	ID      MenuID
	Label   string
	Tooltip string
	Enabled bool
	Default bool
}

// Tray installs and removes the notification-area icon.
type Tray interface {
	Install(menu []MenuItem) error
	Remove() error
}

// Window is the hidden top-level window that owns the message loop.
type Window interface {
	Restore() error
	Quit(code int)
}

// Shell serializes every transition behind one mutex; callbacks from the
// tray thread, the window thread and other instances may race.
type Shell struct {
	tray   Tray
	window Window

	mu        sync.Mutex
	state     State
	resume    State
	installed bool
	done      chan struct{}
}

func New(tray Tray, window Window) *Shell {
	return &Shell{
		tray:   tray,
		window: window,
		state:  StateHidden,
		resume: StateHidden,
		done:   make(chan struct{}),
	}
}

// Menu returns the context menu: Open, Options and Exit, with Exit as the
// default item.
func Menu() []MenuItem {
	return []MenuItem{
		{ID: MenuOpen, Label: "Open", Tooltip: "Show the Ear Saver window", Enabled: true},
		{ID: MenuOptions, Label: "Options", Tooltip: "Ear Saver options", Enabled: true},
		{ID: MenuExit, Label: "Exit", Tooltip: "Quit Ear Saver", Enabled: true, Default: true},
	}
}

// Start installs the tray icon. The window starts hidden.
func (s *Shell) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return ErrTerminated
	}
	if s.installed {
		return nil
	}
	if err := s.tray.Install(Menu()); err != nil {
		return err
	}
	s.installed = true
	log.Debug().Msg("Tray icon installed")
	return nil
}

// State returns the current state.
func (s *Shell) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Done is closed once the shell has terminated.
func (s *Shell) Done() <-chan struct{} {
	return s.done
}

// OpenMenu moves to MenuOpen and returns the items to display, or nil after
// termination.
func (s *Shell) OpenMenu() []MenuItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		return nil
	}
	if s.state != StateMenuOpen {
		s.resume = s.state
		s.state = StateMenuOpen
	}
	return Menu()
}

// CloseMenu handles a menu dismissed without a selection.
func (s *Shell) CloseMenu() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateMenuOpen {
		s.state = s.resume
	}
}

// Select runs a menu command. Exit after termination is a no-op.
func (s *Shell) Select(id MenuID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateTerminated {
		if id == MenuExit {
			return nil
		}
		return ErrTerminated
	}
	if s.state == StateMenuOpen {
		s.state = s.resume
	}

	switch id {
	case MenuOpen:
		if err := s.window.Restore(); err != nil {
			log.Warn().Err(err).Msg("Failed to restore window")
			return err
		}
		s.state = StateRestored
	case MenuOptions:
		log.Debug().Msg("Options selected, nothing to configure from the tray")
	case MenuExit:
		s.terminate(0)
	default:
		log.Debug().Uint16("id", uint16(id)).Msg("Ignoring unknown menu command")
	}
	return nil
}

// Hidden records that the window was hidden again by the user.
func (s *Shell) Hidden() {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateRestored:
		s.state = StateHidden
	case StateMenuOpen:
		s.resume = StateHidden
	}
}

// Destroy handles destruction of the hidden window.
func (s *Shell) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateTerminated {
		s.terminate(0)
	}
}

// terminate removes the tray icon and ends the message loop. Callers hold
// s.mu and have checked the state is not already terminated.
func (s *Shell) terminate(code int) {
	s.state = StateTerminated
	if s.installed {
		if err := s.tray.Remove(); err != nil {
			log.Warn().Err(err).Msg("Failed to remove tray icon")
		}
		s.installed = false
	}
	s.window.Quit(code)
	close(s.done)
	log.Info().Int("exit_code", code).Msg("Shutting down")
}
