package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/Veraticus/feeledger/internal/api"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the admission and fee API",
		Long: `Serve the JSON API used by the school office:

  POST /add-student   admit a student
  GET  /students      list students
  POST /pay-fee       record a fee payment and return the receipt
  GET  /feelogs       list fee payments
  GET  /healthz       liveness check

The Students, FeeLogs and Counter worksheets must exist before the server starts.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", "", "listen address (default :8000)")
	cmd.Flags().String("allowed-origin", "", "the single origin allowed by CORS")
	cmd.Flags().Bool("no-request-logs", false, "disable per-request access logs")

	_ = viper.BindPFlag("server.address", cmd.Flags().Lookup("address"))
	_ = viper.BindPFlag("server.allowed_origin", cmd.Flags().Lookup("allowed-origin"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	l, cfg, release, err := openLedger(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := l.CheckLayout(ctx); err != nil {
		return fmt.Errorf("spreadsheet is not ready: %w", err)
	}

	noReqLogs, _ := cmd.Flags().GetBool("no-request-logs")
	srv, err := api.NewServer(&api.Options{
		Address:        cfg.Server.Address,
		AllowedOrigin:  cfg.Server.AllowedOrigin,
		Ledger:         l,
		Logger:         slog.Default(),
		DisableReqLogs: noReqLogs,
	})
	if err != nil {
		return err
	}
	if cfg.Server.AllowedOrigin == "" {
		slog.Warn("No allowed origin configured; browsers on other origins will be refused")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down HTTP server", "timeout", cfg.Server.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	})

	return g.Wait()
}
