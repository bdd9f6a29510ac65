package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/smarttrip/tripcast/internal/api"
	"github.com/smarttrip/tripcast/internal/history"
	"github.com/smarttrip/tripcast/internal/logging"
	"github.com/smarttrip/tripcast/internal/predict"
	"github.com/smarttrip/tripcast/internal/server"
	"github.com/smarttrip/tripcast/internal/supervisor"
)

const historyPingInterval = 30 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load model bundles and start the HTTP API",
		Long: `Load every configured variant's model bundle and serve predictions.

Any bundle that fails to load stops startup. Variants marked strict also
refuse to start when their vocabulary has values without a feature column.

Examples:
  tripcast serve
  tripcast serve --config /etc/tripcast/config.yaml --port 9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Server.Port = port
			}
			return runServe(cmd, a)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}

func runServe(cmd *cobra.Command, a *app) error {
	cfg := a.cfg
	logging.Info().Str("version", cfg.Version).Strs("variants", cfg.VariantNames()).Msg("Tripcast starting")

	registry, err := predict.LoadRegistry(cfg)
	if err != nil {
		return fmt.Errorf("load variants: %w", err)
	}

	// store stays a nil interface when history is disabled
	var store api.PreferenceStore
	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.NewStore(cfg.History.DBPath)
		if err != nil {
			return fmt.Errorf("open preference history: %w", err)
		}
		store = hist
		logging.Info().Str("path", cfg.History.DBPath).Msg("Preference history enabled")
	}

	srv := server.New(cfg, registry, store)
	defer func() {
		if err := srv.Close(); err != nil {
			logging.Warn().Err(err).Msg("Failed to close preference history")
		}
	}()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPServerService(srv.HTTPServer(), cfg.Server.ShutdownTimeout))
	if hist != nil {
		tree.AddDataService(supervisor.NewPingService("history-ping", hist, historyPingInterval, 3))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logging.Info().Str("addr", cfg.Server.Addr()).Msg("Server listening")
	err = tree.Serve(ctx)
	if ctx.Err() != nil {
		logging.Info().Msg("Shutdown complete")
		return nil
	}
	return err
}
