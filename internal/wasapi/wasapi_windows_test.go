//go:build windows && amd64

package wasapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"earsaver/internal/audio"
)

func TestApartment_RunsCallsInOrder(t *testing.T) {
	apt, err := newApartment()
	require.NoError(t, err)

	var got []int
	for i := 0; i < 3; i++ {
		require.NoError(t, apt.do(func() error {
			got = append(got, i)
			return nil
		}))
	}
	apt.close()
	apt.close()

	assert.Equal(t, []int{0, 1, 2}, got)
	assert.ErrorIs(t, apt.do(func() error { return nil }), errApartmentClosed)
}

func TestNativeKey_Layout(t *testing.T) {
	k := nativeKey(audio.PKeyDeviceFriendlyName)
	assert.Equal(t, uint32(14), k.pid)
	assert.Equal(t, audio.PKeyDeviceFriendlyName.FormatID, audio.GUID(k.fmtid))
}

// TestEnumerator_Smoke talks to the real audio service. Machines without it
// (CI containers, Server Core) skip.
func TestEnumerator_Smoke(t *testing.T) {
	e, err := Open(0)
	if err != nil {
		t.Skipf("MMDevice API unavailable: %v", err)
	}
	defer e.Close()

	devices, err := e.Devices(audio.FlowAll, audio.StateMaskAll)
	require.NoError(t, err)

	r := audio.NewReader(e)
	for _, d := range devices {
		info := r.Describe(d)
		assert.NotEmpty(t, info.ID)
		d.Release()
	}

	reg, err := e.Register(nopClient{})
	require.NoError(t, err)
	assert.NoError(t, reg.Close())
	assert.NoError(t, reg.Close())
}

type nopClient struct{}

func (nopClient) OnDefaultDeviceChanged(audio.DataFlow, audio.Role, string) {}
func (nopClient) OnDeviceAdded(string)                                      {}
func (nopClient) OnDeviceRemoved(string)                                    {}
func (nopClient) OnDeviceStateChanged(string, audio.DeviceState)            {}
func (nopClient) OnPropertyValueChanged(string, audio.PropertyKey)          {}
