package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brickshelf/internal/config"
	"brickshelf/internal/handlers"
	"brickshelf/internal/logger"
	"brickshelf/internal/services"
	"brickshelf/pkg/rabbitmq"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Connect the stores, sync the schema and serve the auth and catalog API until interrupted.`,
	Example: `brickshelf serve --config config.yml
brickshelf serve -c /path/to/config.yml --log-level debug
`,
	RunE: startServer,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func startServer(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = log.WithContext(ctx)

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer st.Close(log)

	// events are optional; the API keeps working without a broker
	var events services.EventPublisher
	if cfg.RabbitMQURL != "" {
		mq, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL}, log)
		if err != nil {
			log.Warn().Err(err).Msg("catalog events disabled")
		} else {
			defer mq.Close()
			events = mq
		}
	}

	app := handlers.NewApp(handlers.Deps{
		Auth:      services.NewAuthService(st.users, services.NewBcryptHasher(cfg.BcryptCost)),
		Catalog:   services.NewCatalogService(st.catalog, events),
		Log:       log,
		AccessLog: os.Stdout,
		Checks:    st.healthChecks(),
	})

	return runServer(ctx, cfg, log, app.Listen, app.ShutdownWithTimeout)
}

// runServer listens until ctx is cancelled, then shuts down gracefully.
func runServer(ctx context.Context, cfg *config.Config, log *logger.Logger, listen func(string) error, shutdown func(time.Duration) error) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("listen", cfg.AppPort).Msg("starting API server")
		return listen(cfg.AppPort)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down gracefully...")
		return shutdown(10 * time.Second)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
