// Package singleinstance keeps a second Ear Saver tray process from
// starting while one is already running.
package singleinstance

import "errors"

var ErrAlreadyRunning = errors.New("another instance is already running")
