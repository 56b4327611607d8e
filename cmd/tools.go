package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/tools"
)

var _toolsCmdOpts struct {
	configured bool
}

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool definitions offered to LLM clients",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doTools(); err != nil {
			return err
		}

		return nil
	},
}

func init() {
	toolsCmd.Flags().BoolVar(&_toolsCmdOpts.configured, "configured", false, "list the configured functions instead of the protocols")
	errPanic(viper.GetViper().BindPFlag("tools.configured", toolsCmd.Flags().Lookup("configured")))

	rootCmd.AddCommand(toolsCmd)
}

func doTools() error {
	var list []tools.Tool

	if viper.GetBool("tools.configured") {
		d, err := loadDeployment()
		if err != nil {
			return err
		}
		list = d.tools
	} else {
		catalog, err := tools.Load()
		if err != nil {
			return err
		}
		list = catalog.List()
	}

	b, err := json.MarshalIndent(list, "", "    ")
	if err != nil {
		return err
	}

	fmt.Println(string(b))
	return nil
}
