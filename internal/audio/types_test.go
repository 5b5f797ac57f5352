package audio

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyKey_String(t *testing.T) {
	assert.Equal(t, "{a45c254e-df1c-4efd-8020-67d146a850e0}#14", PKeyDeviceFriendlyName.String())
	assert.Equal(t, "{1da5d803-d492-4edd-8c23-e0c0ffee7f0e}#0", PKeyAudioEndpointFormFactor.String())
}

func TestFormFactor_IsHeadphoneClass(t *testing.T) {
	for ff := FormFactorRemoteNetworkDevice; ff <= FormFactorUnknown; ff++ {
		want := ff == FormFactorHeadphones || ff == FormFactorHeadset
		assert.Equal(t, want, ff.IsHeadphoneClass(), ff.String())
	}
	assert.False(t, FormFactor(42).IsHeadphoneClass())
	assert.Equal(t, "FormFactor(42)", FormFactor(42).String())
}

func TestDeviceState_String(t *testing.T) {
	tests := []struct {
		state DeviceState
		want  string
	}{
		{StateActive, "ACTIVE"},
		{StateDisabled, "DISABLED"},
		{StateNotPresent, "NOTPRESENT"},
		{StateUnplugged, "UNPLUGGED"},
		{StateMaskAll, "?????"},
		{0, "?????"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.state.String())
	}
}

func TestParseDeviceState(t *testing.T) {
	st, err := ParseDeviceState(" unplugged ")
	require.NoError(t, err)
	assert.Equal(t, StateUnplugged, st)

	st, err = ParseDeviceState("all")
	require.NoError(t, err)
	assert.Equal(t, StateMaskAll, st)

	_, err = ParseDeviceState("sleeping")
	assert.Error(t, err)
}

func TestFlowAndRole_String(t *testing.T) {
	assert.Equal(t, "eRender", FlowRender.String())
	assert.Equal(t, "eCapture", FlowCapture.String())
	assert.Equal(t, "?????", DataFlow(7).String())
	assert.Equal(t, "eConsole", RoleConsole.String())
	assert.Equal(t, "eMultimedia", RoleMultimedia.String())
	assert.Equal(t, "eCommunications", RoleCommunications.String())
	assert.Equal(t, "?????", Role(9).String())
}

func TestDeviceInfo_JSON(t *testing.T) {
	data, err := json.Marshal(DeviceInfo{ID: "x", Name: "Headset", FormFactor: FormFactorHeadset, Volume: 0.5, State: StateActive})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","name":"Headset","form_factor":"Headset","volume":0.5,"state":"ACTIVE"}`, string(data))
}
