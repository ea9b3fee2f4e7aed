package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gaborage/facility-client/testing/mockapi"
)

func newMockServerCommand(opts *Options) *cobra.Command {
	var (
		addr        string
		requireAuth bool
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve an in-memory building API for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			serverOpts := []mockapi.Option{mockapi.WithLogger(newLogger(opts, cfg))}
			if requireAuth {
				serverOpts = append(serverOpts, mockapi.WithAuthRequired())
			}
			srv, err := mockapi.New(serverOpts...)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	cmd.Flags().BoolVar(&requireAuth, "require-auth", false, "Reject requests without a valid bearer token")
	return cmd
}
