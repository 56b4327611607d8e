package config

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/devctl"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/switchbot"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

/*
 *  Builds the device control configuration from viper settings, the
 *  environment and the APP_SECRETS bundle
 */

const (
	envToken      = "SWITCHBOT_TOKEN"
	envSecret     = "SWITCHBOT_SECRET_KEY"
	envEndpoint   = "SWITCHBOT_ENDPOINT"
	envDevicesMap = "SWITCHBOT_FUNCTION_DEVICEIDS_MAP"
	envAppSecrets = "APP_SECRETS"
)

// SetDefaults registers defaults and environment bindings on v
func SetDefaults(v *viper.Viper) {
	v.SetDefault("switchbot.endpoint", switchbot.DefaultEndpoint)
	v.SetDefault("switchbot.api-timeout", 15*time.Second)
	v.SetDefault("switchbot.strict-status", false)
	v.SetDefault("aircon.strict-tempchange", false)

	_ = v.BindEnv("switchbot.token", envToken)
	_ = v.BindEnv("switchbot.secret", envSecret)
	_ = v.BindEnv("switchbot.endpoint", envEndpoint)
	_ = v.BindEnv("switchbot.devices-map", envDevicesMap)
	_ = v.BindEnv("app-secrets", envAppSecrets)
}

// secrets is the decoded APP_SECRETS object.  Its values win over the
// plain environment variables of the same name.
type secrets map[string]interface{}

func loadSecrets(v *viper.Viper) (secrets, error) {
	raw := v.GetString("app-secrets")
	if raw == "" {
		return secrets{}, nil
	}

	var s secrets
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, errors.Wrap(err, "decoding "+envAppSecrets)
	}

	return s, nil
}

func (s secrets) stringOr(name string, fallback string) string {
	if val, ok := s[name]; ok {
		if str := cast.ToString(val); str != "" {
			return str
		}
	}

	return fallback
}

// Load assembles the configuration.  It is validated when the registry is
// built from it.
func Load(v *viper.Viper) (devctl.Config, error) {
	var cfg devctl.Config

	sec, err := loadSecrets(v)
	if err != nil {
		return cfg, err
	}

	cfg.Credentials = devctl.Credentials{
		Token:    sec.stringOr(envToken, v.GetString("switchbot.token")),
		Secret:   sec.stringOr(envSecret, v.GetString("switchbot.secret")),
		Endpoint: sec.stringOr(envEndpoint, v.GetString("switchbot.endpoint")),
	}

	cfg.Options = devctl.Options{
		StrictStatus:     v.GetBool("switchbot.strict-status"),
		StrictTempChange: v.GetBool("aircon.strict-tempchange"),
	}

	functions, err := configuredFunctions(v.Get("functions"))
	if err != nil {
		return cfg, err
	}

	var devicesMap interface{} = v.GetString("switchbot.devices-map")
	if val, ok := sec[envDevicesMap]; ok {
		devicesMap = val
	}

	if err := mergeDevicesMap(functions, devicesMap); err != nil {
		return cfg, err
	}

	ids := make([]string, 0, len(functions))
	for id := range functions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		cfg.Functions = append(cfg.Functions, *functions[id])
	}

	logging.Logger(nil).Debugf("loaded %d function definitions", len(cfg.Functions))
	return cfg, nil
}

// configuredFunctions reads the functions section.  A function is either
// a protocol name:
//
//   functions:
//     tv: SwitchBotTVControlFunction
//
// or a map with protocol and devices.
func configuredFunctions(section interface{}) (map[string]*devctl.FunctionConfig, error) {
	out := map[string]*devctl.FunctionConfig{}
	if section == nil {
		return out, nil
	}

	entries, err := cast.ToStringMapE(section)
	if err != nil {
		return nil, errors.Wrap(err, "reading functions")
	}

	for id, entry := range entries {
		f := &devctl.FunctionConfig{ID: id, Devices: devctl.DeviceIDs{}}

		switch val := entry.(type) {
		case string:
			f.Protocol = val
		default:
			m, err := cast.ToStringMapE(val)
			if err != nil {
				return nil, errors.Wrapf(err, "reading function %s", id)
			}

			f.Protocol = cast.ToString(m["protocol"])
			if devices, ok := m["devices"]; ok {
				d, err := cast.ToStringMapStringE(devices)
				if err != nil {
					return nil, errors.Wrapf(err, "reading devices of function %s", id)
				}
				for k, v := range d {
					f.Devices[k] = v
				}
			}
		}

		if f.Protocol == "" {
			f.Protocol = id
		}

		out[id] = f
	}

	return out, nil
}

// mergeDevicesMap applies {functionId: {main: deviceId, ...}} on top of the
// configured functions.  Functions only named in the map take their
// protocol from their identifier.
func mergeDevicesMap(functions map[string]*devctl.FunctionConfig, devicesMap interface{}) error {
	var parsed map[string]map[string]string

	switch val := devicesMap.(type) {
	case nil:
		return nil
	case string:
		if val == "" {
			return nil
		}
		if err := json.Unmarshal([]byte(val), &parsed); err != nil {
			return errors.Wrap(err, "decoding "+envDevicesMap)
		}
	default:
		outer, err := cast.ToStringMapE(val)
		if err != nil {
			return errors.Wrap(err, "reading "+envDevicesMap)
		}

		parsed = make(map[string]map[string]string, len(outer))
		for id, inner := range outer {
			d, err := cast.ToStringMapStringE(inner)
			if err != nil {
				return errors.Wrapf(err, "reading %s devices of %s", envDevicesMap, id)
			}
			parsed[id] = d
		}
	}

	for id, devices := range parsed {
		f, ok := functions[id]
		if !ok {
			f = &devctl.FunctionConfig{ID: id, Protocol: id, Devices: devctl.DeviceIDs{}}
			functions[id] = f
		}

		for k, v := range devices {
			f.Devices[k] = v
		}
	}

	return nil
}
