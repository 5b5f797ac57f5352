// Package tray puts Ear Saver's icon in the notification area and routes
// its menu through the shell state machine.
package tray

import "earsaver/internal/shell"

const (
	Title   = "Ear Saver"
	Tooltip = "Ear Saver - keeps headphone volume low"
)

// Callbacks connect the icon to the shell. They run on the tray thread.
type Callbacks struct {
	// OnOpenMenu runs on right-click and returns the items to show, or nil
	// to suppress the menu.
	OnOpenMenu func() []shell.MenuItem
	// OnMenuClosed runs once the popup menu is gone.
	OnMenuClosed func()
	// OnSelect runs for a menu click or a double-click on the icon.
	OnSelect func(id shell.MenuID)
}

var _ shell.Tray = (*Controller)(nil)

// DefaultAction is the command a double-click on the icon runs.
const DefaultAction = shell.MenuOpen

func (c Callbacks) openMenu() []shell.MenuItem {
	if c.OnOpenMenu == nil {
		return nil
	}
	return c.OnOpenMenu()
}

func (c Callbacks) menuClosed() {
	if c.OnMenuClosed != nil {
		c.OnMenuClosed()
	}
}

func (c Callbacks) selected(id shell.MenuID) {
	if c.OnSelect != nil {
		c.OnSelect(id)
	}
}
