package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"earsaver/internal/audio"
	"earsaver/internal/config"
	"earsaver/internal/logging"
	"earsaver/internal/notify"
	"earsaver/internal/shell"
	"earsaver/internal/tray"
	"earsaver/internal/wasapi"
	"earsaver/internal/window"
)

// App is the tray-mode process: the audio monitor plus the hidden window and
// tray icon that keep it alive.
type App struct {
	version  string
	cfg      *viper.Viper
	settings config.Settings

	enum    audio.Enumerator
	monitor *notify.Monitor

	win   *window.Window
	shell *shell.Shell
}

func NewApp(version string) *App {
	return &App{version: version}
}

// startup loads configuration, sets up logging and starts listening for
// endpoint changes. A failure here ends the process.
func (a *App) startup() error {
	a.cfg = config.Get()
	s, err := config.Load(a.cfg)
	if err != nil {
		return err
	}
	a.settings = s

	if _, err := logging.Setup(logging.Options{Level: s.LogLevel, Format: s.LogFormat, DebugTrace: s.DebugTrace}); err != nil {
		return err
	}
	log.Info().Str("version", a.version).Str("config", a.cfg.ConfigFileUsed()).Msg("Ear Saver starting")

	enum, err := wasapi.Open(s.QueueSize)
	if err != nil {
		return err
	}
	a.enum = enum

	a.monitor, err = notify.Start(enum, s.TargetVolume, log.Logger)
	if err != nil {
		enum.Close()
		return err
	}

	if s.AdjustOnStart {
		a.monitor.Adjuster.AdjustAll(log.Logger.WithContext(context.Background()))
	}
	config.Watch(a.cfg, a.reload)
	return nil
}

// reload applies a changed config file. Only target_volume takes effect
// without a restart.
func (a *App) reload(s config.Settings) {
	if err := a.monitor.Adjuster.SetTarget(s.TargetVolume); err != nil {
		log.Warn().Err(err).Msg("Keeping previous target volume")
	} else {
		log.Info().Float32("target_volume", s.TargetVolume).Msg("Target volume updated")
	}
	if s.LogLevel != a.settings.LogLevel || s.LogFormat != a.settings.LogFormat {
		log.Info().Msg("Logging changes take effect after a restart")
	}
}

// run creates the window and tray icon and pumps messages until Exit or the
// window is destroyed. It returns the loop's exit code.
func (a *App) run() int {
	a.win = window.New(window.Options{
		OnCommand: func(id uint16) { a.selectItem(shell.MenuID(id)) },
		OnDestroy: func() { a.shell.Destroy() },
		OnHide:    func() { a.shell.Hidden() },
	})
	icon := tray.NewController(tray.Callbacks{
		OnOpenMenu:   func() []shell.MenuItem { return a.shell.OpenMenu() },
		OnMenuClosed: func() { a.shell.CloseMenu() },
		OnSelect:     a.selectItem,
	})
	a.shell = shell.New(icon, a.win)

	code, err := a.win.Run(func() {
		if err := a.shell.Start(); err != nil {
			log.Error().Err(err).Msg("Failed to install tray icon")
			a.win.Quit(1)
		}
	})
	if err != nil {
		log.Error().Err(err).Msg("Window message loop failed")
	}
	return code
}

func (a *App) selectItem(id shell.MenuID) {
	if err := a.shell.Select(id); err != nil {
		log.Debug().Err(err).Uint16("id", uint16(id)).Msg("Menu command not run")
	}
}

func (a *App) shutdown() {
	if a.monitor != nil {
		if err := a.monitor.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to unregister notification client")
		}
	}
	if a.enum != nil {
		a.enum.Close()
	}
	log.Info().Msg("Ear Saver stopped")
}
