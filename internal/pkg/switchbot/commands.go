package switchbot

import (
	"fmt"
)

/*
 *   Command vocabulary of the SwitchBot device API
 */

const (
	commandTypeCommand   = "command"
	commandTypeCustomize = "customize"

	defaultParameter = "default"
)

// Fan speed sent with setAll. 1 is "auto".
const FanSpeedAuto = 1

// Command is the JSON body of POST /v1.1/devices/{deviceId}/commands
type Command struct {
	Command     string `json:"command"`
	Parameter   string `json:"parameter"`
	CommandType string `json:"commandType"`
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%s) [%s]", c.Command, c.Parameter, c.CommandType)
}

func newCommand(name string, parameter string) Command {
	return Command{
		Command:     name,
		Parameter:   parameter,
		CommandType: commandTypeCommand,
	}
}

func NewTurnOnCommand() Command {
	return newCommand("turnOn", defaultParameter)
}

func NewTurnOffCommand() Command {
	return newCommand("turnOff", defaultParameter)
}

// NewPowerCommand builds turnOn or turnOff
func NewPowerCommand(on bool) Command {
	if on {
		return NewTurnOnCommand()
	}
	return NewTurnOffCommand()
}

func NewSetChannelCommand(channel string) Command {
	return newCommand("SetChannel", channel)
}

// NewVolumeCommand steps the volume one notch up or down
func NewVolumeCommand(up bool) Command {
	if up {
		return newCommand("volumeAdd", defaultParameter)
	}
	return newCommand("volumeSub", defaultParameter)
}

// NewSetAllCommand sets temperature, mode, fan speed and power of an
// infrared air conditioner in one call: "{temperature},{mode},{fan},{on|off}"
func NewSetAllCommand(temperature string, mode string, fanSpeed int, on bool) Command {
	power := "off"
	if on {
		power = "on"
	}

	return newCommand("setAll", fmt.Sprintf("%s,%s,%d,%s", temperature, mode, fanSpeed, power))
}

// NewCustomizeCommand presses a learned button on a customized remote
func NewCustomizeCommand(button string) Command {
	return Command{
		Command:     button,
		Parameter:   defaultParameter,
		CommandType: commandTypeCustomize,
	}
}
