package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	dirName    = ".earsaver"
	envPrefix  = "EARSAVER"
	configName = "config"
)

var (
	instance *viper.Viper
	once     sync.Once
	reloadMu sync.Mutex
)

// Settings is the validated view of the configuration.
type Settings struct {
	TargetVolume  float32 `yaml:"target_volume"`
	LogLevel      string  `yaml:"log_level"`
	LogFormat     string  `yaml:"log_format"`
	DebugTrace    bool    `yaml:"debug_trace"`
	AdjustOnStart bool    `yaml:"adjust_on_start"`
	QueueSize     int     `yaml:"queue_size"`
}

// Get returns the process-wide configuration, reading
// ~/.earsaver/config.yaml on first use if it exists. The file is never written.
func Get() *viper.Viper {
	once.Do(func() {
		instance = New(GetConfigDir())
	})
	return instance
}

// New builds a configuration rooted at dir with defaults and EARSAVER_*
// environment overrides applied.
func New(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName(configName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("target_volume", 0.1)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "auto")
	v.SetDefault("debug_trace", true)
	v.SetDefault("adjust_on_start", false)
	v.SetDefault("queue_size", 64)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			log.Warn().Err(err).Msg("Ignoring unreadable config file")
		}
	}
	return v
}

// Load validates v into Settings.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		TargetVolume:  float32(v.GetFloat64("target_volume")),
		LogLevel:      strings.ToLower(v.GetString("log_level")),
		LogFormat:     strings.ToLower(v.GetString("log_format")),
		DebugTrace:    v.GetBool("debug_trace"),
		AdjustOnStart: v.GetBool("adjust_on_start"),
		QueueSize:     v.GetInt("queue_size"),
	}

	if s.TargetVolume < 0 || s.TargetVolume > 1 {
		return s, fmt.Errorf("target_volume %v outside [0, 1]", s.TargetVolume)
	}
	if _, err := zerolog.ParseLevel(s.LogLevel); err != nil || s.LogLevel == "" {
		return s, fmt.Errorf("invalid log_level %q (must be trace, debug, info, warn or error)", s.LogLevel)
	}
	switch s.LogFormat {
	case "auto", "console", "json":
	default:
		return s, fmt.Errorf("invalid log_format %q (must be auto, console or json)", s.LogFormat)
	}
	if s.QueueSize <= 0 {
		return s, fmt.Errorf("queue_size must be positive, got %d", s.QueueSize)
	}
	return s, nil
}

// Watch calls onChange with the new Settings whenever the config file is
// rewritten. Invalid edits are logged and ignored. It does nothing when no
// config file was found.
func Watch(v *viper.Viper, onChange func(Settings)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	if _, err := os.Stat(v.ConfigFileUsed()); err != nil {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		reloadMu.Lock()
		defer reloadMu.Unlock()

		s, err := Load(v)
		if err != nil {
			log.Warn().Err(err).Str("file", e.Name).Msg("Ignoring invalid configuration change")
			return
		}
		log.Info().Str("file", e.Name).Msg("Configuration reloaded")
		onChange(s)
	})
	v.WatchConfig()
}

func NormalizeKey(key string) string {
	return strings.ReplaceAll(key, "-", "_")
}

func GetConfigDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, dirName)
}

// Keys lists the recognised configuration keys in display order.
func Keys() []string {
	return []string{"target_volume", "log_level", "log_format", "debug_trace", "adjust_on_start", "queue_size"}
}
