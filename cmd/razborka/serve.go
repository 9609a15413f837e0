package main

import (
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mkarpov/razborka/internal/server"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the reports over HTTP",
		Long: `Runs an HTTP server exposing the reports as JSON. The data
directory is ingested once at startup; GET /api/refresh re-ingests
on demand.`,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "listen address (default from serve.addr)")
	_ = viper.BindPFlag("serve.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := initApp()
	if err != nil {
		return err
	}
	defer a.close()

	// Warm the snapshot so the first request does not trigger a build.
	if _, err := a.engine.Refresh(cmd.Context(), "startup"); err != nil {
		slog.Warn("initial refresh failed, serving empty snapshot", "error", err)
	}

	return server.New(a.engine, a.journal, version).ListenAndServe(a.settings.ServeAddr)
}
