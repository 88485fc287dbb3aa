package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/catalogd/catalogd/internal/api"
	"github.com/catalogd/catalogd/internal/ws"
)

var servePort int
var serveDevMode bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the catalog API server",
	Long:  `Start the HTTP API and WebSocket event stream for operator UIs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rt, err := newRuntime(ctx, nil)
		if err != nil {
			return err
		}
		defer rt.close(context.Background())

		hub := ws.NewHub(rt.logger)
		hub.SetCatalogProvider(func() ([]byte, error) {
			dbs, err := rt.engine.ListDatabases(context.Background())
			if err != nil {
				return nil, err
			}
			return json.Marshal(dbs)
		})
		rt.engine.SetNotifier(hub)
		go hub.Run()

		port := servePort
		if port == 0 {
			port = rt.cfg.Server.Port
		}

		srv := api.New(rt.engine, rt.logger, port,
			api.WithHub(hub),
			api.WithDevMode(serveDevMode),
		)

		// Graceful shutdown on signals
		sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		fmt.Fprintf(os.Stderr, "catalogd API: http://localhost:%d\n", port)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-sigCtx.Done():
			rt.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("server shutdown: %w", err)
			}
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port for the API server (default from config)")
	serveCmd.Flags().BoolVar(&serveDevMode, "dev", false, "enable CORS for development mode")
	rootCmd.AddCommand(serveCmd)
}
