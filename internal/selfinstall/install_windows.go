//go:build windows

package selfinstall

import (
	"os"
	"path/filepath"
)

const exeName = "earsaver.exe"

// DefaultDir is %LOCALAPPDATA%\EarSaver.
func DefaultDir() string {
	localAppData := os.Getenv("LOCALAPPDATA")
	if localAppData == "" {
		return ""
	}
	return filepath.Join(localAppData, "EarSaver")
}
