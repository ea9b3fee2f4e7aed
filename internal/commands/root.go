// Package commands implements the facilityctl command tree.
package commands

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gaborage/facility-client/buildingapi"
	"github.com/gaborage/facility-client/config"
	"github.com/gaborage/facility-client/httpclient"
	"github.com/gaborage/facility-client/logger"
	"github.com/gaborage/facility-client/observability"
	"github.com/gaborage/facility-client/session"
)

// Options holds the persistent flags shared by every command.
type Options struct {
	ConfigFile string
	Output     string
	BaseURL    string
	LogLevel   string

	// logOutput receives log lines; stderr unless a test overrides it.
	logOutput io.Writer
}

// NewRootCommand builds the facilityctl command tree.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &Options{logOutput: os.Stderr})
}

func newRootCommand(version string, opts *Options) *cobra.Command {
	root := &cobra.Command{
		Use:   "facilityctl",
		Short: "Command-line client for the building-management API",
		Long: `facilityctl talks to the building-management REST API: floors, employees,
cameras, alerts and presence. Calls are retried on network failures and
rate limits; a rejected session is cleared automatically.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return validateFormat(opts.Output)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.ConfigFile, "config", "c", "config.yaml", "Configuration file")
	pf.StringVarP(&opts.Output, "output", "o", FormatJSON, "Output format (json|yaml)")
	pf.StringVar(&opts.BaseURL, "base-url", "", "Override api.baseurl")
	pf.StringVar(&opts.LogLevel, "log-level", "", "Override log.level")

	root.AddCommand(
		newFloorsCommand(opts),
		newEmployeesCommand(opts),
		newRegisterCommand(opts),
		newHealthCommand(opts),
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newCamerasCommand(opts),
		newAlertsCommand(opts),
		newSnapshotCommand(opts),
		newMockServerCommand(opts),
		newVersionCommand(version),
	)
	return root
}

// env is everything a command needs to reach the API.
type env struct {
	cfg     *config.Config
	log     logger.Logger
	api     *buildingapi.Client
	closers []func(context.Context) error
}

func (e *env) close(ctx context.Context) error {
	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.LoadWithFile(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if opts.BaseURL != "" {
		cfg.API.BaseURL = opts.BaseURL
	}
	if opts.LogLevel != "" {
		cfg.Log.Level = opts.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(opts *Options, cfg *config.Config) logger.Logger {
	return logger.NewWithWriter(opts.logOutput, cfg.Log.Level, cfg.Log.Pretty, nil).
		With(map[string]any{"service": cfg.App.Name})
}

func openEnv(opts *Options) (*env, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, log: newLogger(opts, cfg)}

	provider, err := observability.NewProvider(cfg.Observability, cfg.App, observability.WithLogger(e.log))
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, provider.Shutdown)

	store, closeStore, err := openSessionStore(cfg.Session)
	if err != nil {
		_ = e.close(context.Background())
		return nil, err
	}
	e.closers = append(e.closers, func(context.Context) error { return closeStore() })

	sess := session.NewManager(store, session.Keys{Token: cfg.Session.Keys.Token, User: cfg.Session.Keys.User})
	client := httpclient.NewBuilder(e.log).
		FromConfig(cfg.API).
		WithSession(sess).
		WithUnauthorizedHandler(func(path string) {
			e.log.Warn().Str("redirect", path).Msg("Session rejected by the API; run 'facilityctl login' again")
		}).
		Build()
	e.api = buildingapi.New(client, sess, e.log)
	return e, nil
}

// withAPI wraps a command body with environment setup and teardown.
func withAPI(opts *Options, run func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(opts)
		if err != nil {
			return err
		}
		runErr := run(cmd, args, e)
		if closeErr := e.close(context.Background()); closeErr != nil {
			e.log.Warn().Err(closeErr).Msg("Shutdown incomplete")
		}
		if runErr != nil {
			return errors.New(httpclient.MessageOf(runErr))
		}
		return nil
	}
}
