package switchbot

import (
	"context"
	"time"
)

// DeviceAPI is the part of the SwitchBot cloud API used to control devices
type DeviceAPI interface {
	WithTimeout(d time.Duration) DeviceAPI
	SendCommand(ctx context.Context, deviceID string, command Command) (*Response, error)
}
