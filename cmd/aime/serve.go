package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aretw0/aime/internal/cli"
	httpAdapter "github.com/aretw0/aime/pkg/adapters/http"
	"github.com/aretw0/aime/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long:  `Serves scenario generation and stored runs as a JSON API, with Prometheus metrics on /metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				f.Server.Addr = addr
			}

			sig := cli.NewSignalContext(cmd.Context())
			defer sig.Cancel()

			store, closer, err := cli.CreateStore(sig, f.Store)
			if err != nil {
				return err
			}
			defer closer.Close()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			metrics := observability.NewMetrics(reg)

			gen, err := cli.CreateGenerator(f, cli.GeneratorOptions{Logger: logger, Store: store, Hooks: metrics.Hooks()})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr: f.Server.Addr,
				Handler: httpAdapter.NewHandler(gen,
					httpAdapter.WithStore(store),
					httpAdapter.WithGatherer(reg),
					httpAdapter.WithLogger(logger),
				),
			}

			// Channel to listen for errors coming from the listener.
			serverErrors := make(chan error, 1)
			go func() {
				logger.Info("aime server listening", "addr", srv.Addr, "oracle", f.Oracle.Kind, "store", f.Store.Backend)
				serverErrors <- srv.ListenAndServe()
			}()

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case <-sig.Done():
				logger.Info("shutting down", "signal", sig.Signal())

				// Give outstanding requests a deadline for completion.
				ctx, cancel := context.WithTimeout(context.Background(), f.Server.ShutdownTimeout)
				defer cancel()

				if err := srv.Shutdown(ctx); err != nil {
					logger.Warn("graceful shutdown did not complete", "timeout", f.Server.ShutdownTimeout, "error", err)
					return srv.Close()
				}
				logger.Info("server stopped gracefully")
				return nil
			}
		},
	}
	cmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
	return cmd
}
