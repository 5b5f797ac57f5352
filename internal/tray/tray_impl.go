//go:build cgo || windows

package tray

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/energye/systray"
	"github.com/rs/zerolog/log"

	"earsaver/internal/shell"
)

type Controller struct {
	callbacks Callbacks

	mu      sync.Mutex
	items   map[shell.MenuID]*systray.MenuItem
	running bool
}

func NewController(cb Callbacks) *Controller {
	return &Controller{callbacks: cb}
}

// Install starts the tray loop and adds the icon with menu.
func (c *Controller) Install(menu []shell.MenuItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return nil
	}
	c.running = true

	// Must run in a goroutine locked to one OS thread so that the
	// hidden tray window and its message loop share the same thread.
	go func() {
		runtime.LockOSThread()
		systray.Run(func() { c.onReady(menu) }, c.onExit)
	}()
	return nil
}

// Remove deletes the icon and stops the tray loop.
func (c *Controller) Remove() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.running {
		return nil
	}
	c.running = false
	systray.Quit()
	return nil
}

func (c *Controller) onReady(menu []shell.MenuItem) {
	systray.SetIcon(iconData)
	systray.SetTitle(Title)
	systray.SetTooltip(Tooltip)

	systray.SetOnDClick(func(m systray.IMenu) {
		c.callbacks.selected(DefaultAction)
	})

	// Right-click → ask the shell for the menu, then show it at the cursor
	systray.SetOnRClick(func(m systray.IMenu) {
		items := c.callbacks.openMenu()
		if items == nil {
			return
		}
		c.sync(items)
		if err := m.ShowMenu(); err != nil {
			log.Warn().Err(err).Msg("Failed to show tray menu")
		}
		c.callbacks.menuClosed()
	})

	items := make(map[shell.MenuID]*systray.MenuItem, len(menu))
	for i, it := range menu {
		if i > 0 && it.Default {
			systray.AddSeparator()
		}
		mi := systray.AddMenuItem(it.Label, it.Tooltip)
		if !it.Enabled {
			mi.Disable()
		}
		id := it.ID
		mi.Click(func() {
			c.callbacks.selected(id)
			if id == shell.MenuExit {
				// Fallback: force exit after 3 seconds if the loop didn't stop
				time.AfterFunc(3*time.Second, func() {
					os.Exit(0)
				})
			}
		})
		items[id] = mi
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	log.Debug().Int("items", len(menu)).Msg("Tray ready")
}

// sync applies the enabled flags of a freshly built menu.
func (c *Controller) sync(menu []shell.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, it := range menu {
		mi, ok := c.items[it.ID]
		if !ok {
			continue
		}
		if it.Enabled {
			mi.Enable()
		} else {
			mi.Disable()
		}
	}
}

func (c *Controller) onExit() {
	log.Debug().Msg("Tray loop stopped")
}
