package devctl

import (
	"context"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/switchbot"
)

// The light remote has a single button cycling through its modes.  Pressing
// it three times always ends on "on", twice always ends on "off".
const (
	lightTurnOnPresses  = 3
	lightTurnOffPresses = 2

	lightButton = "MODE"
)

var lightRooms = map[string]string{
	DeviceMain: "living room",
	"next":     "room next to the living room",
}

// Light drives ceiling lights learned as customized remotes
type Light struct {
	base
}

func NewLight(api switchbot.DeviceAPI, devices DeviceIDs, opts Options) *Light {
	return &Light{base{api: api, devices: devices, opts: opts, name: "light"}}
}

func (p *Light) Kind() Kind {
	return KindLight
}

func (p *Light) Execute(ctx context.Context, cmd Command) Result {
	logging.Logger(ctx).Debugf("[light] command: %s", cmd)

	deviceID, room, ok := p.room(cmd.Target, lightRooms)
	if !ok {
		return failuref("Invalid commandTarget. commandTarget=%s", cmd.Target)
	}

	text, _ := cmd.Payload.Text()

	var presses int
	var state string
	switch text {
	case "turnOn":
		presses, state = lightTurnOnPresses, "on"
	case "turnOff":
		presses, state = lightTurnOffPresses, "off"
	default:
		return failuref("Invalid command. command=%s", cmd.Payload)
	}

	if !p.repeat(ctx, deviceID, switchbot.NewCustomizeCommand(lightButton), presses) {
		return failuref("Failed to turn %s the %s light", state, room)
	}

	return successf("Turned %s the %s light", state, room)
}
