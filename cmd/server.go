package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/handlers"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/pkg/middlewares"
)

var _serverCmdOpts struct {
	httpsPort       uint16
	tlsCertPath     string
	tlsKeyPath      string
	corsOrigins     []string
	gracefulTimeout time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
	logRequests     bool
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Serve the device control functions over HTTP",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doServer(); err != nil {
			return err
		}

		return nil
	},

	PreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetString("https.cert") != "" {
			return checkRequiredFlags("https.key")
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().Uint16Var(&_serverCmdOpts.httpsPort, "https-port", 4343, "HTTP port number")
	serverCmd.Flags().StringVar(&_serverCmdOpts.tlsCertPath, "tls-cert", "", "TLS certificate file, serve plain HTTP if not set")
	serverCmd.Flags().StringVar(&_serverCmdOpts.tlsKeyPath, "tls-key", "", "TLS key file")
	serverCmd.Flags().StringSliceVar(&_serverCmdOpts.corsOrigins, "cors-origin", nil, "origins allowed to call the API from a browser")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.gracefulTimeout, "graceful-timeout", time.Second*15, "duration to wait for server to finish, eg. 1m or 10s")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.readTimeout, "read-timeout", time.Second*15, "duration to wait for request read, eg. 1m or 10s")
	serverCmd.Flags().DurationVar(&_serverCmdOpts.writeTimeout, "write-timeout", time.Second*60, "duration to wait for request write, eg. 1m or 10s")
	serverCmd.Flags().BoolVar(&_serverCmdOpts.logRequests, "log-requests", false, "log requests and responses (only in debug mode)")

	errPanic(viper.GetViper().BindPFlag("https.port", serverCmd.Flags().Lookup("https-port")))
	errPanic(viper.GetViper().BindPFlag("https.cert", serverCmd.Flags().Lookup("tls-cert")))
	errPanic(viper.GetViper().BindPFlag("https.key", serverCmd.Flags().Lookup("tls-key")))
	errPanic(viper.GetViper().BindPFlag("https.cors-origins", serverCmd.Flags().Lookup("cors-origin")))
	errPanic(viper.GetViper().BindPFlag("https.graceful-timeout", serverCmd.Flags().Lookup("graceful-timeout")))
	errPanic(viper.GetViper().BindPFlag("https.read-timeout", serverCmd.Flags().Lookup("read-timeout")))
	errPanic(viper.GetViper().BindPFlag("https.write-timeout", serverCmd.Flags().Lookup("write-timeout")))
	errPanic(viper.GetViper().BindPFlag("logging.log-requests", serverCmd.Flags().Lookup("log-requests")))

	rootCmd.AddCommand(serverCmd)
}

func checkRequiredFlags(needFlags ...string) error {
	missingFlags := []string{}

	for _, f := range needFlags {
		if !viper.IsSet(f) {
			missingFlags = append(missingFlags, f)
		}
	}

	if len(missingFlags) > 0 {
		itemPlural := "item"
		if len(missingFlags) > 1 {
			itemPlural = "items"
		}
		return fmt.Errorf("required config %s `%s` not set", itemPlural, strings.Join(missingFlags, "`, `"))
	}

	return nil
}

func newRouter(d *deployment, apiTimeout time.Duration, logRequests bool, corsOrigins []string) *mux.Router {
	fh := handlers.NewFunctionHandler(d.registry, apiTimeout)
	th := handlers.NewToolsHandler(d.tools)

	getMethods := []string{http.MethodGet}
	postMethods := []string{http.MethodPost}

	r := mux.NewRouter()
	if len(corsOrigins) > 0 {
		// preflight requests must match a route to reach the middleware
		getMethods = append(getMethods, http.MethodOptions)
		postMethods = append(postMethods, http.MethodOptions)
		r.Use(middlewares.NewCorsMw(middlewares.DefaultCorsOptions(corsOrigins)))
	}
	r.Use(middlewares.NewLoggingMw(logRequests))
	r.Use(middlewares.NewRecoveryMw())
	r.Use(middlewares.NewCorrelationMw("X-Correlation-ID"))
	r.Handle("/functions/{functionId}", &fh).Methods(postMethods...)
	r.Handle("/tools", &th).Methods(getMethods...)

	return r
}

func doServer() error {
	wait := viper.GetDuration("https.graceful-timeout")
	port := viper.GetUint("https.port")
	certFile := viper.GetString("https.cert")
	keyFile := viper.GetString("https.key")
	apiTimeout := viper.GetDuration("switchbot.api-timeout")

	var logRequests bool
	if viper.GetBool("logging.log-requests") {
		if logrus.IsLevelEnabled(logrus.DebugLevel) {
			logRequests = true
		} else {
			logging.Logger(nil).Warn("log-requests ignored when not in debug mode")
		}
	}

	d, err := loadDeployment()
	if err != nil {
		return err
	}

	s := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		ReadTimeout:  viper.GetDuration("https.read-timeout"),
		WriteTimeout: viper.GetDuration("https.write-timeout"),
		IdleTimeout:  time.Second * 60,
		Handler:      newRouter(d, apiTimeout, logRequests, viper.GetStringSlice("https.cors-origins")),
	}

	logging.Logger(nil).Infof("Serving %d functions on port %d", len(d.tools), port)
	go func() {
		var err error
		if certFile != "" && keyFile != "" {
			err = s.ListenAndServeTLS(certFile, keyFile)
		} else {
			logging.Logger(nil).Warn("no TLS certificate configured, serving plain HTTP")
			err = s.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			logging.Logger(nil).WithError(err).Error("running server")
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Block until we receive a signal
	<-c

	// Create a deadline to wait for.
	ctx, cancel := context.WithTimeout(context.Background(), wait)
	defer cancel()
	logging.Logger(nil).Info("shutting down")
	if err := s.Shutdown(ctx); err != nil {
		logging.Logger(nil).WithError(err).Errorf("shutting down")
	}
	logging.Logger(nil).Info("exiting")
	return nil
}
