package devctl

import (
	"context"
	"strconv"
	"strings"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/switchbot"
	"github.com/pkg/errors"
)

const (
	airconMinTemp     = 22
	airconMaxTemp     = 28
	airconMaxTempStep = 3

	// temperature applied after a mode change
	airconHeatTemp    = 22
	airconDefaultTemp = 27
)

var airconRooms = map[string]string{
	DeviceMain: "living room",
	"work":     "work room",
	"bed":      "bedroom",
}

var (
	errStateUnavailable = errors.New("device did not confirm power on")
	errNoStatus         = errors.New("device does not report its status")
)

// Aircon drives infrared air conditioners, one per room
type Aircon struct {
	base
}

func NewAircon(api switchbot.DeviceAPI, devices DeviceIDs, opts Options) *Aircon {
	return &Aircon{base{api: api, devices: devices, opts: opts, name: "aircon"}}
}

func (p *Aircon) Kind() Kind {
	return KindAircon
}

func (p *Aircon) Execute(ctx context.Context, cmd Command) Result {
	logging.Logger(ctx).Debugf("[aircon] command: %s", cmd)

	deviceID, room, ok := p.room(cmd.Target, airconRooms)
	if !ok {
		return failuref("Invalid commandTarget. commandTarget=%s", cmd.Target)
	}

	switch cmd.Type {
	case "power":
		return p.power(ctx, deviceID, room, cmd.Payload)
	case "mode":
		return p.mode(ctx, deviceID, room, cmd.Payload)
	case "tempset":
		return p.tempSet(ctx, deviceID, room, cmd.Payload)
	case "tempchange":
		return p.tempChange(ctx, deviceID, room, cmd.Payload)
	}

	return failuref("Invalid commandType. commandType=%s", cmd.Type)
}

func (p *Aircon) power(ctx context.Context, deviceID, room string, payload Payload) Result {
	text, _ := payload.Text()
	if text != "turnOn" && text != "turnOff" {
		return failuref("Invalid command. command=%s", payload)
	}
	on := text == "turnOn"

	resp, ok := p.sendConfirmed(ctx, deviceID, switchbot.NewPowerCommand(on))
	if !ok {
		return failuref("Failed to turn %s the %s air conditioner", onOff(on), room)
	}

	if !on {
		return successf("Turned off the %s air conditioner", room)
	}

	if resp.Status == nil {
		return successf("Turned on the %s air conditioner.", room)
	}

	return successf("Turned on the %s air conditioner. Mode %s, set temperature %s°C.",
		room, resp.Status.Mode, resp.Status.TemperatureString())
}

// readState powers the unit on.  The turnOn response is the only place the
// API reports mode and temperature; on a unit that is already on it changes
// nothing.
func (p *Aircon) readState(ctx context.Context, deviceID string) (*switchbot.DeviceStatus, error) {
	resp, ok := p.sendConfirmed(ctx, deviceID, switchbot.NewTurnOnCommand())
	if !ok {
		return nil, errStateUnavailable
	}

	if resp.Status == nil {
		return nil, errNoStatus
	}

	logging.Logger(ctx).Debugf("[aircon] device %s state: mode %s, temperature %s", deviceID, resp.Status.Mode, resp.Status.TemperatureString())
	return resp.Status, nil
}

// readFailure phrases a readState error for the operation being attempted
func readFailure(err error, room, operation string) Result {
	if err == errNoStatus {
		return failuref("The %s air conditioner does not support %s, so it was only powered on", room, operation)
	}

	return failuref("Could not finish %s of the %s air conditioner", operation, room)
}

func parseMode(payload Payload) (id string, name string, ok bool) {
	text, isText := payload.Text()
	if !isText {
		return "", "", false
	}

	parts := strings.SplitN(text, ":", 2)
	if len(parts) != 2 {
		return "", "", false
	}

	id, name = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if id == "" || name == "" {
		return "", "", false
	}

	return id, name, true
}

func (p *Aircon) mode(ctx context.Context, deviceID, room string, payload Payload) Result {
	modeID, modeName, ok := parseMode(payload)
	if !ok {
		return failuref("Invalid command. Expected <modeId>:<modeName>, command=%s", payload)
	}

	status, err := p.readState(ctx, deviceID)
	if err != nil {
		return readFailure(err, room, "changing the mode")
	}

	if status.Mode == modeID {
		return successf("The %s air conditioner is already in %s mode, nothing was changed", room, modeName)
	}

	temp := airconDefaultTemp
	if modeName == "heat" {
		temp = airconHeatTemp
	}

	command := switchbot.NewSetAllCommand(strconv.Itoa(temp), modeID, switchbot.FanSpeedAuto, true)
	if _, ok := p.send(ctx, deviceID, command); !ok {
		return failuref("Failed to change the %s air conditioner to %s mode", room, modeName)
	}

	return successf("Changed the %s air conditioner to %s mode. The temperature is %d°C.", room, modeName, temp)
}

func (p *Aircon) tempSet(ctx context.Context, deviceID, room string, payload Payload) Result {
	temp, ok := payload.Int()
	if !ok || temp < airconMinTemp || temp > airconMaxTemp {
		return failuref("Invalid command. The temperature must be between %d and %d°C, command=%s", airconMinTemp, airconMaxTemp, payload)
	}

	status, err := p.readState(ctx, deviceID)
	if err != nil {
		return readFailure(err, room, "setting the temperature")
	}

	command := switchbot.NewSetAllCommand(strconv.Itoa(temp), status.Mode, switchbot.FanSpeedAuto, true)
	if _, ok := p.send(ctx, deviceID, command); !ok {
		return failuref("Failed to set the %s air conditioner to %d°C", room, temp)
	}

	return successf("Set the %s air conditioner to %d°C. Mode %s, temperature %d°C.", room, temp, status.Mode, temp)
}

func (p *Aircon) tempChange(ctx context.Context, deviceID, room string, payload Payload) Result {
	delta, ok := payload.Int()
	if !ok || delta < -airconMaxTempStep || delta > airconMaxTempStep {
		return failuref("Invalid command. The temperature can be adjusted by at most %d°C, command=%s", airconMaxTempStep, payload)
	}

	status, err := p.readState(ctx, deviceID)
	if err != nil {
		return readFailure(err, room, "adjusting the temperature")
	}

	newTemp := status.Temperature + float64(delta)
	newTempStr := switchbot.FormatTemperature(newTemp)

	if newTemp < airconMinTemp || newTemp > airconMaxTemp {
		if p.opts.StrictTempChange {
			return failuref("Adjusting the %s air conditioner by %d would set %s°C, outside %d-%d°C", room, delta, newTempStr, airconMinTemp, airconMaxTemp)
		}
		logging.Logger(ctx).Warnf("[aircon] adjusted temperature %s is outside %d-%d", newTempStr, airconMinTemp, airconMaxTemp)
	}

	command := switchbot.NewSetAllCommand(newTempStr, status.Mode, switchbot.FanSpeedAuto, true)
	if _, ok := p.send(ctx, deviceID, command); !ok {
		return failuref("Failed to adjust the %s air conditioner temperature by %d", room, delta)
	}

	return successf("Adjusted the %s air conditioner temperature by %d to %s°C. Mode %s.", room, delta, newTempStr, status.Mode)
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}
