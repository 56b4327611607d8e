package cmd

import (
	"github.com/spf13/viper"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/config"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/devctl"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/switchbot"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/tools"
)

func init() {
	viper.SetDefault("tools.validate-args", true)
}

// deployment is what every transport needs: the function registry and the
// tool definitions of the configured functions
type deployment struct {
	registry *devctl.Registry
	tools    []tools.Tool
}

func loadDeployment() (*deployment, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	api := switchbot.NewLiveClient(cfg.Endpoint, cfg.Token, cfg.Secret).
		WithTimeout(viper.GetDuration("switchbot.api-timeout"))

	registry, err := devctl.NewRegistry(cfg, api)
	if err != nil {
		return nil, err
	}

	catalog, err := tools.Load()
	if err != nil {
		return nil, err
	}

	if viper.GetBool("tools.validate-args") {
		registry = registry.WithValidator(catalog)
	}

	return &deployment{
		registry: registry,
		tools:    catalog.ForFunctions(functionProtocols(registry)),
	}, nil
}

// functionProtocols maps each function id to its protocol name
func functionProtocols(r *devctl.Registry) map[string]string {
	out := make(map[string]string)
	for _, id := range r.IDs() {
		if f, ok := r.Lookup(id); ok {
			out[id] = string(f.Protocol.Kind())
		}
	}

	return out
}
