// Package autostart manages the per-user logon entry that launches Ear Saver
// in tray mode.
package autostart

// Status renders IsEnabled for display.
func Status() string {
	on, err := IsEnabled()
	switch {
	case err != nil:
		return "unknown (" + err.Error() + ")"
	case on:
		return "enabled"
	}
	return "disabled"
}
