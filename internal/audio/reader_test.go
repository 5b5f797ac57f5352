package audio_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earsaver/internal/audio"
	"earsaver/internal/audio/audiotest"
)

func TestReader_FriendlyName(t *testing.T) {
	p := audiotest.NewPlatform(audiotest.Endpoint{ID: "{0.0.0.00000000}.{a}", Name: "Headphones (USB)"})
	r := audio.NewReader(p)

	name, err := r.FriendlyName("{0.0.0.00000000}.{a}")
	require.NoError(t, err)
	assert.Equal(t, "Headphones (USB)", name)
	assert.Zero(t, p.Outstanding())
}

func TestReader_FriendlyNameUnresolved(t *testing.T) {
	p := audiotest.NewPlatform(audiotest.Endpoint{ID: "a", Name: "Speakers"})
	r := audio.NewReader(p)

	for _, id := range []string{"", "gone", "{0.0.1.00000000}.{b}"} {
		name, err := r.FriendlyName(id)
		assert.Equal(t, audio.NullDevice, name, "id %q", id)
		assert.ErrorIs(t, err, audio.ErrDeviceUnavailable, "id %q", id)
	}
	assert.Zero(t, p.Outstanding())
}

func TestReader_FriendlyNameMissingProperty(t *testing.T) {
	p := audiotest.NewPlatform(
		audiotest.Endpoint{ID: "noname", NoName: true},
		audiotest.Endpoint{ID: "broken", FailProperties: true},
	)
	r := audio.NewReader(p)

	name, err := r.FriendlyName("noname")
	assert.Equal(t, audio.NullDevice, name)
	assert.ErrorIs(t, err, audio.ErrPropertyRead)

	name, err = r.FriendlyName("broken")
	assert.Equal(t, audio.NullDevice, name)
	assert.ErrorIs(t, err, audio.ErrPropertyRead)

	assert.Zero(t, p.Outstanding())
}

func TestReader_ReadProperties(t *testing.T) {
	p := audiotest.NewPlatform(audiotest.Endpoint{ID: "a", Name: "Headset", FormFactor: audio.FormFactorHeadset})
	r := audio.NewReader(p)

	ff, err := r.ReadUint32("a", audio.PKeyAudioEndpointFormFactor)
	require.NoError(t, err)
	assert.Equal(t, uint32(audio.FormFactorHeadset), ff)

	name, err := r.ReadString("a", audio.PKeyDeviceFriendlyName)
	require.NoError(t, err)
	assert.Equal(t, "Headset", name)

	_, err = r.ReadString("a", audio.PKeyAudioEndpointFormFactor)
	assert.ErrorIs(t, err, audio.ErrPropertyRead)

	_, err = r.ReadUint32("missing", audio.PKeyAudioEndpointFormFactor)
	assert.ErrorIs(t, err, audio.ErrDeviceUnavailable)

	assert.Zero(t, p.Outstanding())
}

func TestDeviceFormFactor(t *testing.T) {
	p := audiotest.NewPlatform(
		audiotest.Endpoint{ID: "hp", FormFactor: audio.FormFactorHeadphones},
		audiotest.Endpoint{ID: "none", NoFormFactor: true},
	)

	dev, err := p.Device("hp")
	require.NoError(t, err)
	ff, err := audio.DeviceFormFactor(dev)
	dev.Release()
	require.NoError(t, err)
	assert.Equal(t, audio.FormFactorHeadphones, ff)

	dev, err = p.Device("none")
	require.NoError(t, err)
	ff, err = audio.DeviceFormFactor(dev)
	dev.Release()
	assert.ErrorIs(t, err, audio.ErrPropertyRead)
	assert.Equal(t, audio.FormFactorUnknown, ff)

	assert.Zero(t, p.Outstanding())
}

func TestReader_Describe(t *testing.T) {
	p := audiotest.NewPlatform(
		audiotest.Endpoint{ID: "hs", Name: "Headset", FormFactor: audio.FormFactorHeadset, Volume: 0.8},
		audiotest.Endpoint{ID: "bad", FailProperties: true, FailActivate: true, State: audio.StateUnplugged},
	)
	r := audio.NewReader(p)

	devs, err := p.Devices(audio.FlowRender, audio.StateMaskAll)
	require.NoError(t, err)
	require.Len(t, devs, 2)

	got := []audio.DeviceInfo{r.Describe(devs[0]), r.Describe(devs[1])}
	for _, d := range devs {
		d.Release()
	}

	assert.Equal(t, audio.DeviceInfo{
		ID: "hs", Name: "Headset", FormFactor: audio.FormFactorHeadset, Volume: 0.8, State: audio.StateActive,
	}, got[0])
	assert.Equal(t, audio.DeviceInfo{
		ID: "bad", Name: audio.NullDevice, FormFactor: audio.FormFactorUnknown, Volume: -1, State: audio.StateUnplugged,
	}, got[1])
	assert.Zero(t, p.Outstanding())
}
