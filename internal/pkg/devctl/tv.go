package devctl

import (
	"context"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/switchbot"
)

const tvMaxVolumeSteps = 3

// TV drives an infrared TV registered as the "main" device
type TV struct {
	base
}

func NewTV(api switchbot.DeviceAPI, devices DeviceIDs, opts Options) *TV {
	return &TV{base{api: api, devices: devices, opts: opts, name: "tv"}}
}

func (p *TV) Kind() Kind {
	return KindTV
}

func (p *TV) Execute(ctx context.Context, cmd Command) Result {
	logging.Logger(ctx).Debugf("[tv] command: %s", cmd)
	deviceID := p.devices[DeviceMain]

	switch cmd.Type {
	case "power":
		// The remote only has a power toggle, so every power request is sent
		// as turnOn and flips whatever state the TV is in.
		if _, ok := p.send(ctx, deviceID, switchbot.NewTurnOnCommand()); !ok {
			return failuref("Failed to change the TV power")
		}
		return successf("Changed the TV power")

	case "channel":
		if !cmd.Payload.IsSet() {
			return failuref("Invalid command. No channel given")
		}

		channel := cmd.Payload.String()
		if _, ok := p.send(ctx, deviceID, switchbot.NewSetChannelCommand(channel)); !ok {
			return failuref("Failed to set the TV channel to %s", channel)
		}
		return successf("Set the TV channel to %s", channel)

	case "volume":
		return p.volume(ctx, deviceID, cmd)
	}

	return failuref("Invalid commandType. commandType=%s", cmd.Type)
}

func (p *TV) volume(ctx context.Context, deviceID string, cmd Command) Result {
	steps, ok := cmd.Payload.Int()
	if !ok {
		return failuref("Invalid command. command=%s", cmd.Payload)
	}

	if steps == 0 || steps < -tvMaxVolumeSteps || steps > tvMaxVolumeSteps {
		return failuref("The TV volume can be adjusted by at most %d steps. command=%d", tvMaxVolumeSteps, steps)
	}

	count := steps
	if count < 0 {
		count = -count
	}

	if !p.repeat(ctx, deviceID, switchbot.NewVolumeCommand(steps > 0), count) {
		return failuref("Failed to adjust the TV volume by %d", steps)
	}

	return successf("Adjusted the TV volume by %d", steps)
}
