// Package selfinstall copies the running executable to a stable per-user
// location so the autostart entry never points at a download folder.
package selfinstall

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// Install copies the running executable into dir (DefaultDir when empty)
// and returns the installed path. Installing over the running binary is a
// no-op.
func Install(dir string) (string, error) {
	currentExe, err := os.Executable()
	if err != nil {
		return "", err
	}
	currentExe, err = filepath.EvalSymlinks(currentExe)
	if err != nil {
		return "", err
	}
	if dir == "" {
		dir = DefaultDir()
	}
	if dir == "" {
		return "", fmt.Errorf("no install directory for %s", runtime.GOOS)
	}

	targetExe := filepath.Join(dir, exeName)
	if isSamePath(currentExe, targetExe) {
		return targetExe, nil
	}
	if err := copyFile(currentExe, targetExe); err != nil {
		return "", fmt.Errorf("copy %s: %w", targetExe, err)
	}
	return targetExe, nil
}

// isSamePath compares two paths in a platform-appropriate way.
// Case-insensitive on Windows/macOS, case-sensitive on Linux.
func isSamePath(a, b string) bool {
	a = filepath.Clean(a)
	b = filepath.Clean(b)

	equal := func(x, y string) bool {
		if runtime.GOOS == "linux" {
			return x == y
		}
		return strings.EqualFold(x, y)
	}

	if equal(a, b) {
		return true
	}
	// Check by resolving symlinks on both sides
	ra, err1 := filepath.EvalSymlinks(a)
	rb, err2 := filepath.EvalSymlinks(b)
	if err1 == nil && err2 == nil {
		return equal(filepath.Clean(ra), filepath.Clean(rb))
	}
	return false
}

// copyFile copies a single file from src to dst, preserving permissions.
// dst is written next to its final name and renamed into place, so a
// running copy of the old binary is never truncated.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".new"
	out, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, srcInfo.Mode())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	// Check Close error to detect flush/write failures
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}
