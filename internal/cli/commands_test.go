package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"earsaver/internal/audio"
	"earsaver/internal/audio/audiotest"
	"earsaver/internal/config"
)

func setup(t *testing.T, p *audiotest.Platform, configYAML string) {
	t.Helper()
	dir := t.TempDir()
	if configYAML != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(configYAML), 0600))
	}
	v := config.New(dir)
	v.Set("debug_trace", false)

	origConfig, origOpen := loadConfig, openEnumerator
	loadConfig = func() *viper.Viper { return v }
	openEnumerator = func(int) (audio.Enumerator, error) { return p, nil }
	t.Cleanup(func() {
		loadConfig, openEnumerator = origConfig, origOpen
	})
}

func run(ctx context.Context, args ...string) (string, error) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func platform() *audiotest.Platform {
	return audiotest.NewPlatform(
		audiotest.Endpoint{ID: "hs", Name: "Headset Earphone", FormFactor: audio.FormFactorHeadset, Volume: 0.5},
		audiotest.Endpoint{ID: "spk", Name: "Speakers", Volume: 0.8},
		audiotest.Endpoint{ID: "mic", Name: "Microphone", Flow: audio.FlowCapture, FormFactor: audio.FormFactorMicrophone, Volume: 0.6},
		audiotest.Endpoint{ID: "old", Name: "Old Headphones", FormFactor: audio.FormFactorHeadphones, State: audio.StateUnplugged, Volume: 1},
	)
}

func TestDevices_Table(t *testing.T) {
	p := platform()
	setup(t, p, "")

	out, err := run(context.Background(), "devices")
	require.NoError(t, err)

	assert.Contains(t, out, "* Headset Earphone")
	assert.Contains(t, out, "50%")
	assert.Contains(t, out, "Speakers")
	assert.NotContains(t, out, "Microphone")
	assert.NotContains(t, out, "Old Headphones")
	assert.Zero(t, p.Outstanding())
	assert.True(t, p.Closed())
}

func TestDevices_AllJSON(t *testing.T) {
	p := platform()
	setup(t, p, "")

	out, err := run(context.Background(), "devices", "--all", "--json")
	require.NoError(t, err)

	var infos []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	require.Len(t, infos, 4)

	byID := map[string]map[string]any{}
	for _, info := range infos {
		byID[info["id"].(string)] = info
	}
	assert.Equal(t, "Headset", byID["hs"]["form_factor"])
	assert.Equal(t, "Microphone", byID["mic"]["name"])
	assert.Equal(t, "UNPLUGGED", byID["old"]["state"])
}

func TestDevices_OpenFailure(t *testing.T) {
	setup(t, platform(), "")
	openEnumerator = func(int) (audio.Enumerator, error) {
		return nil, errors.Join(audio.ErrInitialization, audio.ErrUnsupported)
	}

	_, err := run(context.Background(), "devices")
	assert.ErrorIs(t, err, audio.ErrInitialization)
}

func TestAdjust_UsesConfiguredTarget(t *testing.T) {
	p := platform()
	setup(t, p, "target_volume: 0.25\n")

	out, err := run(context.Background(), "adjust")
	require.NoError(t, err)

	assert.Contains(t, out, "Adjusted 1 of 1 headphone devices to 25%")
	assert.InDelta(t, 0.25, p.Volume("hs"), 1e-6)
	assert.InDelta(t, 0.8, p.Volume("spk"), 1e-6)
	assert.InDelta(t, 1.0, p.Volume("old"), 1e-6)
}

func TestAdjust_TargetFlag(t *testing.T) {
	p := platform()
	setup(t, p, "")

	_, err := run(context.Background(), "adjust", "--target", "0.3")
	require.NoError(t, err)
	assert.InDelta(t, 0.3, p.Volume("hs"), 1e-6)

	_, err = run(context.Background(), "adjust", "--target", "2")
	assert.Error(t, err)
}

func TestAdjust_ReportsFailures(t *testing.T) {
	p := audiotest.NewPlatform(
		audiotest.Endpoint{ID: "hp", Name: "Headphones", FormFactor: audio.FormFactorHeadphones, FailSetVolume: true},
	)
	setup(t, p, "")

	_, err := run(context.Background(), "adjust")
	assert.ErrorContains(t, err, "1 device(s) could not be adjusted")
}

func TestWatch_StopsWithContext(t *testing.T) {
	p := platform()
	setup(t, p, "adjust_on_start: true\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := run(ctx, "watch")
	require.NoError(t, err)

	assert.Contains(t, out, "Watching audio endpoints")
	assert.InDelta(t, 0.1, p.Volume("hs"), 1e-6)
	assert.Zero(t, p.Registered())
	assert.True(t, p.Closed())
}

func TestConfigShow_YAML(t *testing.T) {
	setup(t, platform(), "target_volume: 0.2\nlog_level: debug\n")

	out, err := run(context.Background(), "config", "show", "--yaml")
	require.NoError(t, err)

	var s config.Settings
	require.NoError(t, yaml.Unmarshal([]byte(out), &s))
	assert.InDelta(t, 0.2, s.TargetVolume, 1e-6)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, "auto", s.LogFormat)
	assert.Equal(t, 64, s.QueueSize)
}

func TestConfigShow_Table(t *testing.T) {
	setup(t, platform(), "")

	out, err := run(context.Background(), "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "target_volume:   0.1")
	assert.Contains(t, out, "config_file:     (defaults)")
}

func TestConfigGet(t *testing.T) {
	setup(t, platform(), "")

	out, err := run(context.Background(), "config", "get", "target-volume")
	require.NoError(t, err)
	assert.Equal(t, "0.1\n", out)

	_, err = run(context.Background(), "config", "get", "partner_id")
	assert.ErrorContains(t, err, "unknown config key")
}

func TestInvalidConfigFails(t *testing.T) {
	setup(t, platform(), "log_format: xml\n")

	_, err := run(context.Background(), "version")
	assert.ErrorContains(t, err, "log_format")
}

func TestVersion(t *testing.T) {
	setup(t, platform(), "")
	SetVersion("9.9.9")
	t.Cleanup(func() { SetVersion("1.0.0") })

	out, err := run(context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Ear Saver v9.9.9")
}

func TestInstall_ToDir(t *testing.T) {
	setup(t, platform(), "")
	dir := t.TempDir()

	out, err := run(context.Background(), "install", "--dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "Installed to "+dir)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
