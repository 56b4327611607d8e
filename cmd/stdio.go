package cmd

import (
	"context"
	"encoding/json"
	stdlog "log"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/korovkin/limiter"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jake-scott/switchbot-devctl/internal/pkg/devctl"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/handlers"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/logging"
	"github.com/jake-scott/switchbot-devctl/internal/pkg/tools"
	"github.com/jake-scott/switchbot-devctl/version"
)

const mcpServerName = "switchbot-devctl"

var _stdioCmdOpts struct {
	maxConcurrent int
}

var stdioCmd = &cobra.Command{
	Use:   "stdio",
	Short: "Serve the configured functions as MCP tools on stdin and stdout",

	RunE: func(cmd *cobra.Command, args []string) error {
		if err := doStdio(); err != nil {
			return err
		}

		return nil
	},
}

func init() {
	stdioCmd.Flags().IntVar(&_stdioCmdOpts.maxConcurrent, "max-concurrent", 10, "maximum number of tool calls in flight")

	errPanic(viper.GetViper().BindPFlag("stdio.max-concurrent", stdioCmd.Flags().Lookup("max-concurrent")))

	rootCmd.AddCommand(stdioCmd)
}

// toolServer answers MCP tools/list with the tool definitions and runs
// tools/call through the invoker, at most maxConcurrent at a time
type toolServer struct {
	invoker handlers.Invoker
	timeout time.Duration
	limit   *limiter.ConcurrencyLimiter
	mcp     *server.MCPServer
}

func newToolServer(invoker handlers.Invoker, defs []tools.Tool, maxConcurrent int, timeout time.Duration) (*toolServer, error) {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}

	s := &toolServer{
		invoker: invoker,
		timeout: timeout,
		limit:   limiter.NewConcurrencyLimiter(maxConcurrent),
		mcp:     server.NewMCPServer(mcpServerName, version.Version, server.WithToolCapabilities(false)),
	}

	for _, def := range defs {
		schema, err := json.Marshal(def.InputSchema)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding input schema of %s", def.Name)
		}

		s.mcp.AddTool(mcp.NewToolWithRawSchema(def.Name, def.Description, schema), s.callHandler(def))
	}

	return s, nil
}

// callHandler runs one function and answers with the call arguments plus
// its result, as JSON text
func (s *toolServer) callHandler(def tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := def.OrderArgs(req.GetArguments())

		ctx = logging.WithTxnID(ctx, uuid.New().String())
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}

		done := make(chan devctl.Result, 1)
		s.limit.ExecuteWithTicket(func(ticket int) {
			logging.Logger(ctx).Debugf("stdio-goroutine %d: calling %s", ticket, def.Name)
			done <- s.invoker.Invoke(ctx, def.Name, args)
		})
		result := <-done

		body, err := json.Marshal(args.With(handlers.OutputKey, result))
		if err != nil {
			return nil, errors.Wrapf(err, "encoding result of %s", def.Name)
		}

		return mcp.NewToolResultText(string(body)), nil
	}
}

func doStdio() error {
	d, err := loadDeployment()
	if err != nil {
		return err
	}

	s, err := newToolServer(d.registry, d.tools, viper.GetInt("stdio.max-concurrent"), viper.GetDuration("switchbot.api-timeout"))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ctrl-c handler
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go func() {
		select {
		case <-c:
			logging.Logger(nil).Info("stdio: shutting down")
			cancel()
		case <-ctx.Done():
		}
	}()

	// stdout carries protocol messages only, so library errors go to the log
	logWriter := logging.Logger(nil).WriterLevel(logrus.ErrorLevel)
	defer logWriter.Close()

	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(stdlog.New(logWriter, "", 0))

	logging.Logger(nil).Infof("stdio: serving %d tools", len(d.tools))
	err = stdio.Listen(ctx, os.Stdin, os.Stdout)
	s.limit.Wait()
	logging.Logger(nil).Info("stdio: exiting")

	if err != nil && ctx.Err() == nil {
		return errors.Wrap(err, "serving MCP on stdio")
	}

	return nil
}
