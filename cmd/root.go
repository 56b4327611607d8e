package cmd

import (
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/config"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
)

var _rootCmdOpts struct {
	configFile string
	debug      bool
	logFormat  string
	logFile    string
	apiTimeout time.Duration
}

var rootCmd = &cobra.Command{
	Use:   "devctl",
	Short: "Control SwitchBot infrared devices through LLM tool calls",

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func errPanic(err error) {
	if err != nil {
		panic(err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&_rootCmdOpts.configFile, "config", "", "config file (default is $HOME/.switchbot-devctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&_rootCmdOpts.debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&_rootCmdOpts.logFormat, "log-format", "text", "log format, text or json")
	rootCmd.PersistentFlags().StringVar(&_rootCmdOpts.logFile, "log-file", "stderr", "log destination, stderr, stdout or a file name")

	rootCmd.PersistentFlags().DurationVar(&_rootCmdOpts.apiTimeout, "api-timeout", time.Second*15, "maximum duration of a function call, eg. 1m or 10s")

	errPanic(viper.GetViper().BindPFlag("switchbot.api-timeout", rootCmd.PersistentFlags().Lookup("api-timeout")))
	errPanic(viper.GetViper().BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format")))
	errPanic(viper.GetViper().BindPFlag("logging.location", rootCmd.PersistentFlags().Lookup("log-file")))

	config.SetDefaults(viper.GetViper())
}

func initConfig() error {
	if _rootCmdOpts.debug {
		logrus.SetLevel(logrus.DebugLevel)
	}

	if _rootCmdOpts.configFile != "" {
		viper.SetConfigFile(_rootCmdOpts.configFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}

		viper.AddConfigPath(home)
		viper.SetConfigName(".switchbot-devctl")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || _rootCmdOpts.configFile != "" {
			return errors.Wrap(err, "reading config")
		}
	}

	if err := logging.Configure(viper.GetViper()); err != nil {
		return err
	}

	if f := viper.ConfigFileUsed(); f != "" {
		logging.Logger(nil).Debugf("using config file %s", f)
	}

	return nil
}
