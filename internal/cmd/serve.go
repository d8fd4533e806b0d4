package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/mindnode/internal/api"
	"github.com/Iron-Ham/mindnode/internal/autosave"
	"github.com/Iron-Ham/mindnode/internal/storage"
	"github.com/Iron-Ham/mindnode/internal/watch"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve boards to the browser canvas",
	Long: `Start the HTTP API used by the browser canvas.

Canvas edits are batched and written after autosave.debounce_ms of quiet.
With the file backend and watch.enabled, boards changed by another
mindnode process are reloaded automatically. Prometheus metrics are
exposed at /metrics.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default from server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := openApp(ctx, true)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close(context.Background()) }()

	saver := autosave.New(a.store, a.cfg.Autosave.AutosaveDelay(), a.logger)
	a.store.AddFlusher(saver)

	if a.cfg.Watch.Enabled {
		if loc, ok := a.backend.(storage.Locator); ok && a.backend.Name() == storage.BackendFile {
			w, err := watch.New(loc.Path(a.store.Key()), a.store, a.cfg.Watch.Debounce(), a.logger)
			if err != nil {
				a.logger.Warn("not watching for external changes", "error", err)
			} else {
				w.Start()
				defer w.Stop()
			}
		}
	}

	srv := api.New(a.store,
		api.WithSaver(saver),
		api.WithMetrics(a.metrics),
		api.WithLogger(a.logger),
		api.WithAllowedOrigins(a.cfg.Server.AllowedOrigins),
		api.WithDefaultDirection(a.direction()),
	)

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s http://%s\n", successStyle.Render("Serving boards on"), displayAddr(addr))
	return srv.ListenAndServe(ctx, addr)
}

// displayAddr turns ":8787" into "localhost:8787".
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
