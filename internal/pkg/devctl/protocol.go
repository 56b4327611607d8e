package devctl

import (
	"context"
	"fmt"
	"strings"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/switchbot"
)

// Kind identifies one of the supported device protocols
type Kind string

const (
	KindTV     Kind = "tv"
	KindLight  Kind = "light"
	KindAircon Kind = "aircon"
)

var kindAliases = map[string]Kind{
	"tv":                             KindTV,
	"switchbottvcontrolfunction":     KindTV,
	"light":                          KindLight,
	"switchbotlightcontrolfunction":  KindLight,
	"aircon":                         KindAircon,
	"switchbotairconcontrolfunction": KindAircon,
}

// ParseKind accepts a protocol name or the class name used by older
// deployment files, eg. SwitchBotAirconControlFunction
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return k, nil
	}

	return "", fmt.Errorf("unknown device protocol %q", s)
}

// Protocol drives one kind of device through the vendor API
type Protocol interface {
	Kind() Kind
	Execute(ctx context.Context, cmd Command) Result
}

// Options are behaviour switches shared by all protocols
type Options struct {
	// Require vendor statusCode 100 on every call, not only where the air
	// conditioner flow reads device state
	StrictStatus bool

	// Reject relative air conditioner adjustments that leave the settable
	// temperature range
	StrictTempChange bool
}

type base struct {
	api     switchbot.DeviceAPI
	devices DeviceIDs
	opts    Options
	name    string
}

// send reports whether the vendor accepted the command.  HTTP 200 is enough
// unless StrictStatus is set.
func (b *base) send(ctx context.Context, deviceID string, command switchbot.Command) (*switchbot.Response, bool) {
	if b.opts.StrictStatus {
		return b.sendConfirmed(ctx, deviceID, command)
	}

	resp, err := b.api.SendCommand(ctx, deviceID, command)
	if err != nil {
		logging.Logger(ctx).WithError(err).Errorf("[%s] sending %s", b.name, command)
		return resp, false
	}

	return resp, true
}

// sendConfirmed also requires the vendor statusCode to be 100
func (b *base) sendConfirmed(ctx context.Context, deviceID string, command switchbot.Command) (*switchbot.Response, bool) {
	resp, err := b.api.SendCommand(ctx, deviceID, command)
	if err != nil {
		logging.Logger(ctx).WithError(err).Errorf("[%s] sending %s", b.name, command)
		return resp, false
	}

	if !resp.Confirmed() {
		logging.Logger(ctx).Errorf("[%s] %s not confirmed: statusCode %d, %s", b.name, command, resp.StatusCode, resp.Message)
		return resp, false
	}

	return resp, true
}

// repeat sends the same command count times, stopping at the first failure
func (b *base) repeat(ctx context.Context, deviceID string, command switchbot.Command, count int) bool {
	for i := 0; i < count; i++ {
		if _, ok := b.send(ctx, deviceID, command); !ok {
			logging.Logger(ctx).Warnf("[%s] %s failed on repetition %d of %d", b.name, command, i+1, count)
			return false
		}
	}

	return true
}

// room resolves a command target to a configured device and its display name
func (b *base) room(target string, rooms map[string]string) (deviceID string, name string, ok bool) {
	name, ok = rooms[target]
	if !ok {
		return "", "", false
	}

	deviceID, ok = b.devices[target]
	if !ok || deviceID == "" {
		return "", "", false
	}

	return deviceID, name, true
}
