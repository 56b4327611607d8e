package devctl

import (
	"context"
	"sort"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/switchbot"
	"github.com/pkg/errors"
)

// ArgsValidator checks tool call arguments before they are normalized.
// tool is the protocol name of the function being called.
type ArgsValidator interface {
	Validate(tool string, args map[string]interface{}) error
}

// Function is a callable function identity bound to its protocol
type Function struct {
	ID       string
	Protocol Protocol
}

type Registry struct {
	functions map[string]Function
	validator ArgsValidator
}

// NewRegistry validates the configuration and builds one protocol instance
// per configured function.  A configuration error means the deployment is
// unusable and is the only error this package returns.
func NewRegistry(cfg Config, api switchbot.DeviceAPI) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid device control configuration")
	}

	r := &Registry{functions: make(map[string]Function, len(cfg.Functions))}

	for _, f := range cfg.Functions {
		kind, _ := ParseKind(f.Protocol)

		devices := make(DeviceIDs, len(f.Devices))
		for k, v := range f.Devices {
			devices[k] = v
		}

		var p Protocol
		switch kind {
		case KindTV:
			p = NewTV(api, devices, cfg.Options)
		case KindLight:
			p = NewLight(api, devices, cfg.Options)
		case KindAircon:
			p = NewAircon(api, devices, cfg.Options)
		}

		r.functions[f.ID] = Function{ID: f.ID, Protocol: p}
		logging.Logger(nil).Debugf("registered function %s (%s) with %d devices", f.ID, kind, len(devices))
	}

	return r, nil
}

// WithValidator returns a registry that checks arguments with v
func (r *Registry) WithValidator(v ArgsValidator) *Registry {
	nr := *r
	nr.validator = v
	return &nr
}

func (r *Registry) Lookup(id string) (Function, bool) {
	f, ok := r.functions[id]
	return f, ok
}

// IDs lists the function identifiers in sorted order
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.functions))
	for id := range r.functions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids
}

// Invoke runs one tool call.  Every failure is reported in the Result.
func (r *Registry) Invoke(ctx context.Context, id string, args Args) Result {
	ctx = logging.WithFunction(ctx, id)

	f, ok := r.functions[id]
	if !ok {
		logging.Logger(ctx).Warnf("call to unknown function %s", id)
		return failuref("%s is not available", id)
	}

	if r.validator != nil {
		if err := r.validator.Validate(string(f.Protocol.Kind()), args.Map()); err != nil {
			logging.Logger(ctx).WithError(err).Warn("argument validation failed")
			return failuref("Invalid arguments: %s", err)
		}
	}

	cmd, err := Normalize(args)
	if err != nil {
		logging.Logger(ctx).WithError(err).Warn("argument normalization failed")
		return failuref("Invalid arguments: %s", err)
	}

	result := f.Protocol.Execute(ctx, cmd)
	if result.OK() {
		logging.Logger(ctx).Infof("%s: %s", cmd, result.Success)
	} else {
		logging.Logger(ctx).Warnf("%s: %s", cmd, result.Error)
	}

	return result
}
