package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/devctl"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/handlers"
)

var jsonNumberRegexp = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

var callCmd = &cobra.Command{
	Use:   "call <functionId> [key=value ...]",
	Short: "Invoke one function and print its result",
	Example: `  devctl call tv commandType=volume commandOfVolumechange=-2
  devctl call aircon commandTarget=bed commandType=mode commandOfModechange=5:heat`,

	Args: cobra.MinimumNArgs(1),

	RunE: func(cmd *cobra.Command, args []string) error {
		return doCall(args[0], args[1:])
	},
}

func init() {
	rootCmd.AddCommand(callCmd)
}

// parseCallArgs keeps command line order.  Values that look like JSON numbers
// are passed as numbers.
func parseCallArgs(pairs []string) (devctl.Args, error) {
	args := make(devctl.Args, 0, len(pairs))

	for _, pair := range pairs {
		eq := strings.Index(pair, "=")
		if eq < 1 {
			return nil, errors.Errorf("expected key=value, got %q", pair)
		}

		key, value := pair[:eq], pair[eq+1:]
		if jsonNumberRegexp.MatchString(value) {
			args = append(args, devctl.Arg{Key: key, Value: json.Number(value)})
		} else {
			args = append(args, devctl.Arg{Key: key, Value: value})
		}
	}

	return args, nil
}

func doCall(id string, pairs []string) error {
	args, err := parseCallArgs(pairs)
	if err != nil {
		return err
	}

	d, err := loadDeployment()
	if err != nil {
		return err
	}

	ctx := context.Background()
	if timeout := viper.GetDuration("switchbot.api-timeout"); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result := d.registry.Invoke(ctx, id, args)

	b, err := json.MarshalIndent(args.With(handlers.OutputKey, result), "", "    ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))

	if !result.OK() {
		return errors.New(result.Error)
	}

	return nil
}
