package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"earsaver/internal/cli"
	"earsaver/internal/shell"
	"earsaver/internal/singleinstance"
	"earsaver/internal/window"
)

var version = "1.0.0"

func main() {
	if len(os.Args) > 1 {
		runCLI()
		return
	}
	os.Exit(runTray())
}

func runCLI() {
	cli.SetVersion(version)
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// runTray runs the notification-area app and returns the process exit code.
func runTray() int {
	lock, err := singleinstance.Acquire()
	if errors.Is(err, singleinstance.ErrAlreadyRunning) {
		// Bring the running instance's window up instead of starting twice
		if err := window.SignalExisting(uint16(shell.MenuOpen)); err != nil {
			log.Warn().Err(err).Msg("Ear Saver is already running")
		}
		return 0
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	defer lock.Release()

	app := NewApp(version)
	if err := app.startup(); err != nil {
		log.Error().Err(err).Msg("Ear Saver failed to start")
		return 1
	}
	defer app.shutdown()

	return app.run()
}
