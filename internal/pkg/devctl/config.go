package devctl

import (
	"sort"

	oaerrors "github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
)

// DeviceMain is the device every function must map
const DeviceMain = "main"

const configIn = "config"

// DeviceIDs maps symbolic targets (main, work, bed, ..) to vendor device ids
type DeviceIDs map[string]string

// Credentials for the vendor API, shared by all functions
type Credentials struct {
	Token    string
	Secret   string
	Endpoint string
}

// FunctionConfig binds a function identifier to a protocol and its devices
type FunctionConfig struct {
	ID       string
	Protocol string
	Devices  DeviceIDs
}

// Config is everything the registry needs, built once at startup
type Config struct {
	Credentials
	Functions []FunctionConfig
	Options   Options
}

func (c Credentials) validate() []error {
	var errs []error

	if err := validate.RequiredString("switchbot.token", configIn, c.Token); err != nil {
		errs = append(errs, err)
	}
	if err := validate.RequiredString("switchbot.secret", configIn, c.Secret); err != nil {
		errs = append(errs, err)
	}
	if err := validate.RequiredString("switchbot.endpoint", configIn, c.Endpoint); err != nil {
		errs = append(errs, err)
	} else if !strfmt.Default.Validates("uri", c.Endpoint) {
		errs = append(errs, oaerrors.InvalidType("switchbot.endpoint", configIn, "uri", c.Endpoint))
	}

	return errs
}

func (f FunctionConfig) validate() []error {
	var errs []error
	path := "functions." + f.ID

	if _, err := ParseKind(f.Protocol); err != nil {
		errs = append(errs, oaerrors.New(oaerrors.InvalidTypeCode, "%s.protocol in %s: %s", path, configIn, err))
	}

	if err := validate.RequiredString(path+".devices."+DeviceMain, configIn, f.Devices[DeviceMain]); err != nil {
		errs = append(errs, err)
	}

	names := make([]string, 0, len(f.Devices))
	for name := range f.Devices {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == DeviceMain {
			continue
		}
		if err := validate.RequiredString(path+".devices."+name, configIn, f.Devices[name]); err != nil {
			errs = append(errs, err)
		}
	}

	return errs
}

// Validate reports every missing or malformed setting at once
func (c Config) Validate() error {
	errs := c.Credentials.validate()

	if len(c.Functions) == 0 {
		errs = append(errs, oaerrors.New(oaerrors.CompositeErrorCode, "no functions configured"))
	}

	seen := make(map[string]bool, len(c.Functions))
	for _, f := range c.Functions {
		if f.ID == "" {
			errs = append(errs, oaerrors.New(oaerrors.CompositeErrorCode, "function with an empty identifier"))
			continue
		}
		if seen[f.ID] {
			errs = append(errs, oaerrors.New(oaerrors.CompositeErrorCode, "function %s configured twice", f.ID))
		}
		seen[f.ID] = true

		errs = append(errs, f.validate()...)
	}

	if len(errs) > 0 {
		return oaerrors.CompositeValidationError(errs...)
	}

	return nil
}
