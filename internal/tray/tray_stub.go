//go:build !(cgo || windows)

package tray

import "earsaver/internal/shell"

// Controller without cgo has no icon; it only tracks whether it is installed.
type Controller struct {
	callbacks Callbacks
	installed bool
}

func NewController(cb Callbacks) *Controller { return &Controller{callbacks: cb} }

func (c *Controller) Install(menu []shell.MenuItem) error {
	c.installed = true
	return nil
}

func (c *Controller) Remove() error {
	c.installed = false
	return nil
}
