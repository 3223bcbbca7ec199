package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjaminschreck/docfill/internal/api"
	"github.com/benjaminschreck/docfill/pkg/docfill"
)

func newServeCmd() *cobra.Command {
	var (
		addr      string
		apiKey    string
		maxUpload int64
		imports   []string
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the fill engine over HTTP",
		Example: `  docfill serve --addr :8090
  DOCFILL_API_KEY=secret docfill serve --import footer=footer.html`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			if apiKey == "" {
				apiKey = os.Getenv(EnvPrefix + "_API_KEY")
			}

			eng := docfill.NewWithOptions(docfill.WithConfig(config), docfill.WithLogger(logger))
			defer eng.Close()
			for _, spec := range imports {
				if err := registerImport(eng, spec); err != nil {
					return err
				}
			}

			log := logger.Slog()
			srv := &http.Server{
				Addr:         addr,
				Handler:      api.NewServer(eng, log, api.Options{APIKey: apiKey, MaxUploadBytes: maxUpload}),
				ReadTimeout:  30 * time.Second,
				WriteTimeout: 120 * time.Second,
				IdleTimeout:  60 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Info("starting docfill server", "addr", addr, "auth", apiKey != "")
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			log.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":8090", "Listen address")
	flags.StringVar(&apiKey, "api-key", "", "Bearer token required on /api routes (default $DOCFILL_API_KEY)")
	flags.Int64Var(&maxUpload, "max-upload", api.DefaultMaxUploadBytes, "Maximum size of one uploaded file in bytes")
	flags.StringArrayVar(&imports, "import", nil, "Importable template as name=path (repeatable)")
	return cmd
}
