package devctl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLight(f *fakeVendor) *Light {
	return NewLight(f.api(), DeviceIDs{DeviceMain: "light-main", "next": "light-next"}, Options{})
}

func TestLightPresses(t *testing.T) {
	tests := []struct {
		target  string
		command string
		device  string
		presses int
		message string
	}{
		{"main", "turnOn", "light-main", 3, "Turned on the living room light"},
		{"main", "turnOff", "light-main", 2, "Turned off the living room light"},
		{"next", "turnOn", "light-next", 3, "Turned on the room next to the living room light"},
		{"next", "turnOff", "light-next", 2, "Turned off the room next to the living room light"},
	}

	for _, tt := range tests {
		t.Run(tt.target+"/"+tt.command, func(t *testing.T) {
			f := newFakeVendor(t, nil)

			res := newTestLight(f).Execute(bg, payloadCommand("", tt.target, StringPayload(tt.command)))
			assert.Equal(t, tt.message, res.Success)

			calls := f.Calls()
			require.Len(t, calls, tt.presses)
			for _, c := range calls {
				assert.Equal(t, tt.device, c.DeviceID)
				assert.Equal(t, "MODE", c.Command.Command)
				assert.Equal(t, "customize", c.Command.CommandType)
			}
		})
	}
}

func TestLightRejectsWithoutCalls(t *testing.T) {
	cmds := []Command{
		payloadCommand("", "kitchen", StringPayload("turnOn")),
		payloadCommand("", "", StringPayload("turnOn")),
		payloadCommand("", "main", StringPayload("dim")),
		payloadCommand("", "main", NumberPayload(1)),
	}

	for _, cmd := range cmds {
		f := newFakeVendor(t, nil)

		res := newTestLight(f).Execute(bg, cmd)
		assert.False(t, res.OK(), "%s", cmd)
		assert.Empty(t, f.Calls(), "%s", cmd)
	}
}

func TestLightUnconfiguredTarget(t *testing.T) {
	f := newFakeVendor(t, nil)

	light := NewLight(f.api(), DeviceIDs{DeviceMain: "light-main"}, Options{})
	res := light.Execute(bg, payloadCommand("", "next", StringPayload("turnOn")))
	assert.Equal(t, "Invalid commandTarget. commandTarget=next", res.Error)
	assert.Empty(t, f.Calls())
}

func TestLightAbortsOnFailure(t *testing.T) {
	f := newFakeVendor(t, func(n int, _ vendorCall) vendorReply {
		if n == 1 {
			return serverError()
		}
		return confirmed()
	})

	res := newTestLight(f).Execute(bg, payloadCommand("", "main", StringPayload("turnOn")))
	assert.Equal(t, "Failed to turn on the living room light", res.Error)
	assert.Len(t, f.Calls(), 1)
}
