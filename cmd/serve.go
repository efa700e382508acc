package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/crimescope/internal/dashboard"
	"github.com/YuminosukeSato/crimescope/internal/dataset"
	"github.com/YuminosukeSato/crimescope/internal/training"
	"github.com/YuminosukeSato/crimescope/pkg/errors"
	"github.com/YuminosukeSato/crimescope/pkg/log"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the dashboard",
	Long: `Serves the dashboard: overview, exploratory analysis, model comparison
and the prediction simulator. Without a trained bundle the data pages still
work and the model pages ask you to run "crimescope train".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.ListenAddr = serveAddr
		}
		logger := log.GetLogger().With(log.ComponentKey, "cli")

		frame, err := dataset.Load(cfg.DataPath)
		if err != nil {
			return err
		}
		bundle, err := training.LoadBundle(cfg.ModelPath)
		switch {
		case errors.Is(err, errors.ErrModelNotFound):
			logger.Warn("no model bundle, model pages disabled", log.PathKey, cfg.ModelPath)
			bundle = nil
		case err != nil:
			return err
		}

		srv, err := dashboard.New(frame, bundle)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		fmt.Fprintf(cmd.OutOrStdout(), "dashboard listening on %s\n", cfg.ListenAddr)
		return srv.Run(ctx, cfg.ListenAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8501", "listen address (overrides config)")
}
