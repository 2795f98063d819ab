package main

import (
	"context"
	"encoding/json"
	"fmt"

	goParse "github.com/MrEthical07/goParse"
	"github.com/MrEthical07/goParse/rest"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the client shared by every subcommand.
type app struct {
	configFile string
	output     string

	client *goParse.Client
	logger *zap.Logger
	redis  *redis.Client
}

// NewRootCmd creates the root command for the goparse CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "goparse",
		Short: "Run Parse Server user commands",
		Long: `goparse signs users up, logs them in (directly or through a
third-party provider), looks up the current user and requests password resets
against a Parse Server.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	defaults := goParse.DefaultConfig()
	pf := cmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML config file path")
	pf.StringVarP(&a.output, "output", "o", "json", "output format: json or status")
	pf.String("server.url", "", "Parse Server URL, e.g. https://example.com/parse")
	pf.String("server.application_id", "", "application id")
	pf.String("server.client_key", "", "client key")
	pf.String("server.master_key", "", "master key")
	pf.Int("transport.max_retries", defaults.Transport.MaxRetries, "retries on transport errors and 5xx responses")
	pf.Duration("transport.request_timeout", defaults.Transport.RequestTimeout, "per-command timeout including retries")
	pf.Bool("transport.method_override", defaults.Transport.MethodOverride, "send GET parameters as POST with _method")
	pf.Bool("session.revocable_session", defaults.Session.RevocableSession, "request revocable session tokens")
	pf.Bool("rate_limit.enabled", defaults.RateLimit.Enabled, "throttle failed log-ins and reset requests through redis")
	pf.String("rate_limit.redis_addr", "", "redis address for the throttle")
	pf.String("logging.level", defaults.Logging.Level, "log level")
	pf.String("logging.encoding", defaults.Logging.Encoding, "log encoding: console or json")

	cmd.AddCommand(newMeCmd(a))
	cmd.AddCommand(newSignUpCmd(a))
	cmd.AddCommand(newLogInCmd(a))
	cmd.AddCommand(newServiceLogInCmd(a))
	cmd.AddCommand(newResetPasswordCmd(a))

	return cmd
}

func (a *app) open(cmd *cobra.Command) error {
	cfg, err := loadConfig(a.configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if a.output != "json" && a.output != "status" {
		return fmt.Errorf("unknown output format %q", a.output)
	}

	logger, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	a.logger = logger

	b := goParse.New().WithConfig(cfg).WithLogger(logger)
	if cfg.RateLimit.Enabled {
		a.redis = redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		b.WithRedis(a.redis)
	}

	client, err := b.Build()
	if err != nil {
		return err
	}
	a.client = client
	return nil
}

func (a *app) close() error {
	if a.client != nil {
		a.client.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return nil
}

// report waits for call and prints the result. The status code is printed
// even when the command failed.
func (a *app) report(cmd *cobra.Command, call *rest.Call) error {
	res, err := call.Await(commandContext(cmd))

	if a.output == "status" {
		fmt.Fprintln(cmd.OutOrStdout(), call.StatusCode())
		return err
	}

	out := map[string]any{
		"status":     call.StatusCode(),
		"request_id": call.RequestID(),
	}
	if err != nil {
		out["error"] = err.Error()
		out["code"] = rest.CodeOf(err)
	} else {
		out["result"] = res.Object
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(out); encErr != nil {
		return encErr
	}
	return err
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
