//go:build windows

package autostart

import (
	"errors"
	"os"

	"golang.org/x/sys/windows/registry"
)

const (
	regKey  = `Software\Microsoft\Windows\CurrentVersion\Run`
	appName = "EarSaver"
)

// IsEnabled reports whether Ear Saver starts with the user's session.
func IsEnabled() (bool, error) {
	k, err := registry.OpenKey(registry.CURRENT_USER, regKey, registry.QUERY_VALUE)
	if err != nil {
		return false, err
	}
	defer k.Close()

	_, _, err = k.GetStringValue(appName)
	if errors.Is(err, registry.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Enable launches the running executable at logon.
func Enable() error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}
	return EnableFor(exePath)
}

// EnableFor launches exePath at logon.
func EnableFor(exePath string) error {
	k, _, err := registry.CreateKey(registry.CURRENT_USER, regKey, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	// No arguments: the tray mode is what runs at logon.
	return k.SetStringValue(appName, `"`+exePath+`"`)
}

func Disable() error {
	k, err := registry.OpenKey(registry.CURRENT_USER, regKey, registry.SET_VALUE)
	if err != nil {
		return err
	}
	defer k.Close()

	err = k.DeleteValue(appName)
	if errors.Is(err, registry.ErrNotExist) {
		return nil
	}
	return err
}
