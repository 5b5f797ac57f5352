package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"earsaver/internal/audio"
	"earsaver/internal/autostart"
	"earsaver/internal/config"
	"earsaver/internal/logging"
	"earsaver/internal/notify"
	"earsaver/internal/selfinstall"
	"earsaver/internal/volume"
	"earsaver/internal/wasapi"
)

var appVersion = "1.0.0"

func SetVersion(v string) {
	appVersion = v
}

// Replaced in tests.
var (
	loadConfig     = config.Get
	openEnumerator = func(queueSize int) (audio.Enumerator, error) {
		e, err := wasapi.Open(queueSize)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
)

func Execute() error {
	return NewRootCmd().Execute()
}

func NewRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "earsaver",
		Short:         "Ear Saver - keeps headphone volume low",
		Long:          "Ear Saver watches audio endpoints and sets headphones and headsets to a safe master volume.\nRun without arguments to start in the notification area.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(loadConfig())
			if err != nil {
				return err
			}
			if logLevel != "" {
				s.LogLevel = logLevel
			}
			_, err = logging.Setup(logging.Options{Level: s.LogLevel, Format: s.LogFormat, DebugTrace: s.DebugTrace})
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log_level (trace, debug, info, warn, error)")

	rootCmd.AddCommand(
		newDevicesCmd(),
		newAdjustCmd(),
		newWatchCmd(),
		newConfigCmd(),
		newAutostartCmd(),
		newInstallCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

func newDevicesCmd() *cobra.Command {
	var (
		all     bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List active output devices",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(loadConfig())
			if err != nil {
				return err
			}
			enum, err := openEnumerator(s.QueueSize)
			if err != nil {
				return err
			}
			defer enum.Close()

			flow, mask := audio.FlowRender, audio.StateActive
			if all {
				flow, mask = audio.FlowAll, audio.StateMaskAll
			}
			devices, err := enum.Devices(flow, mask)
			if err != nil {
				return err
			}

			reader := audio.NewReader(enum)
			infos := make([]audio.DeviceInfo, 0, len(devices))
			for _, d := range devices {
				infos = append(infos, reader.Describe(d))
				d.Release()
			}

			if jsonOut {
				data, _ := json.MarshalIndent(infos, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			printDevices(cmd, infos)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include capture endpoints and inactive devices")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	return cmd
}

func printDevices(cmd *cobra.Command, infos []audio.DeviceInfo) {
	if len(infos) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No devices found")
		return
	}
	for _, info := range infos {
		vol := "-"
		if info.Volume >= 0 {
			vol = fmt.Sprintf("%3.0f%%", info.Volume*100)
		}
		mark := " "
		if info.FormFactor.IsHeadphoneClass() {
			mark = "*"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %-40s %-12s %5s  %s\n", mark, info.Name, info.FormFactor, vol, info.State)
	}
}

func newAdjustCmd() *cobra.Command {
	var target float32

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Set every headphone and headset to the target volume once",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := config.Load(loadConfig())
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("target") {
				target = s.TargetVolume
			}

			enum, err := openEnumerator(s.QueueSize)
			if err != nil {
				return err
			}
			defer enum.Close()

			adj, err := volume.NewAdjuster(enum, target)
			if err != nil {
				return err
			}
			sum := adj.AdjustAll(log.Logger.WithContext(cmd.Context()))

			fmt.Fprintf(cmd.OutOrStdout(), "Adjusted %d of %d headphone devices to %.0f%% (%s)\n",
				sum.Adjusted, sum.Matched, target*100, sum)
			if sum.Failed > 0 {
				return fmt.Errorf("%d device(s) could not be adjusted", sum.Failed)
			}
			return nil
		},
	}

	cmd.Flags().Float32Var(&target, "target", volume.DefaultTarget, "Master volume scalar to apply (0-1)")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Log endpoint notifications and keep headphones low until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			s, err := config.Load(cfg)
			if err != nil {
				return err
			}

			enum, err := openEnumerator(s.QueueSize)
			if err != nil {
				return err
			}
			defer enum.Close()

			m, err := notify.Start(enum, s.TargetVolume, log.Logger)
			if err != nil {
				return err
			}
			defer m.Close()

			if s.AdjustOnStart {
				m.Adjuster.AdjustAll(log.Logger.WithContext(cmd.Context()))
			}
			config.Watch(cfg, func(s config.Settings) {
				if err := m.Adjuster.SetTarget(s.TargetVolume); err != nil {
					log.Warn().Err(err).Msg("Keeping previous target volume")
				}
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintln(cmd.OutOrStdout(), "Watching audio endpoints. Press Ctrl+C to stop.")
			<-ctx.Done()
			fmt.Fprintln(cmd.OutOrStdout(), "\nStopping...")
			return nil
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show configuration",
	}

	var yamlOut bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show all config values",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			s, err := config.Load(cfg)
			if err != nil {
				return err
			}

			if yamlOut {
				data, err := yaml.Marshal(s)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(data))
				return nil
			}

			file := cfg.ConfigFileUsed()
			if file == "" {
				file = "(defaults)"
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Configuration")
			fmt.Fprintln(cmd.OutOrStdout(), "─────────────")
			fmt.Fprintf(cmd.OutOrStdout(), "target_volume:   %v\n", s.TargetVolume)
			fmt.Fprintf(cmd.OutOrStdout(), "log_level:       %s\n", s.LogLevel)
			fmt.Fprintf(cmd.OutOrStdout(), "log_format:      %s\n", s.LogFormat)
			fmt.Fprintf(cmd.OutOrStdout(), "debug_trace:     %v\n", s.DebugTrace)
			fmt.Fprintf(cmd.OutOrStdout(), "adjust_on_start: %v\n", s.AdjustOnStart)
			fmt.Fprintf(cmd.OutOrStdout(), "queue_size:      %d\n", s.QueueSize)
			fmt.Fprintf(cmd.OutOrStdout(), "config_file:     %s\n", file)
			return nil
		},
	}
	showCmd.Flags().BoolVar(&yamlOut, "yaml", false, "Output in YAML format")

	getCmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a config value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := config.NormalizeKey(args[0])
			if !slices.Contains(config.Keys(), key) {
				return fmt.Errorf("unknown config key: %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), loadConfig().GetString(key))
			return nil
		},
	}

	configCmd.AddCommand(showCmd, getCmd)
	return configCmd
}

func newAutostartCmd() *cobra.Command {
	autostartCmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting Ear Saver at logon",
	}

	enableCmd := &cobra.Command{
		Use:   "enable",
		Short: "Start Ear Saver in the notification area at logon",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := autostart.Enable(); err != nil {
				return fmt.Errorf("failed to enable autostart: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled")
			return nil
		},
	}

	disableCmd := &cobra.Command{
		Use:   "disable",
		Short: "Remove the logon entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := autostart.Disable(); err != nil {
				return fmt.Errorf("failed to disable autostart: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show whether autostart is enabled",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Autostart: %s\n", autostart.Status())
			return nil
		},
	}

	autostartCmd.AddCommand(enableCmd, disableCmd, statusCmd)
	return autostartCmd
}

func newInstallCmd() *cobra.Command {
	var (
		dir       string
		autoStart bool
	)

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Copy Ear Saver to a per-user location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := selfinstall.Install(dir)
			if err != nil {
				return fmt.Errorf("failed to install: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed to %s\n", path)

			if autoStart {
				if err := autostart.EnableFor(path); err != nil {
					return fmt.Errorf("failed to enable autostart: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Install directory (default: per-user application folder)")
	cmd.Flags().BoolVar(&autoStart, "autostart", false, "Start the installed copy at logon")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Ear Saver v%s\n", appVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Fprintf(cmd.OutOrStdout(), "Go:       %s\n", runtime.Version())
			return nil
		},
	}
}
