//go:build !windows

package selfinstall

import (
	"os"
	"path/filepath"
)

const exeName = "earsaver"

// DefaultDir is ~/.local/bin.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "bin")
}
