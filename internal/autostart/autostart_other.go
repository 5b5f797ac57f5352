//go:build !windows

package autostart

import "errors"

var errUnsupported = errors.New("autostart is only available on Windows")

func IsEnabled() (bool, error) { return false, errUnsupported }
func Enable() error            { return errUnsupported }
func Disable() error           { return errUnsupported }

func EnableFor(exePath string) error { return errUnsupported }
