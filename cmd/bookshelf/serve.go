package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/joestump/bookshelf/internal/books"
	"github.com/joestump/bookshelf/internal/config"
	"github.com/joestump/bookshelf/internal/db"
	"github.com/joestump/bookshelf/internal/events"
	"github.com/joestump/bookshelf/internal/handler"
	"github.com/joestump/bookshelf/internal/logging"
	"github.com/joestump/bookshelf/internal/store"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run migrations and start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			log, err := logging.New("bookshelf", cfg.Log.Level, cfg.Log.Format)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			database, err := openDB(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			if err := db.Migrate(database, cfg.DB.Driver); err != nil {
				return err
			}

			publisher, err := newPublisher(cfg, log)
			if err != nil {
				return err
			}
			defer func() { _ = publisher.Close() }()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bookStore := store.NewBookStore(database)
			bookService := books.NewService(bookStore, publisher, log)
			bookService.RefreshCount(ctx)

			srv := &http.Server{
				Addr: cfg.HTTP.Addr,
				Handler: handler.NewRouter(handler.Deps{
					Books:          bookService,
					Health:         bookStore,
					Log:            log,
					AllowedOrigins: cfg.CORS.AllowedOrigins,
				}),
				ReadHeaderTimeout: 5 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      15 * time.Second,
				IdleTimeout:       120 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info("listening", zap.String("addr", cfg.HTTP.Addr), zap.String("driver", cfg.DB.Driver))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			log.Info("server stopped")
			return nil
		},
	}
}

func openDB(cfg *config.Config) (*sqlx.DB, error) {
	return db.New(cfg.DB.Driver, cfg.DB.DSN, db.Pool{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	})
}

// newPublisher connects to RabbitMQ when an AMQP URL is configured and
// otherwise discards events.
func newPublisher(cfg *config.Config, log *zap.Logger) (events.Publisher, error) {
	if cfg.Events.AMQPURL == "" {
		log.Info("event publishing disabled")
		return events.NopPublisher{}, nil
	}
	pub, err := events.NewAMQPPublisher(cfg.Events.AMQPURL, cfg.Events.Exchange, log)
	if err != nil {
		return nil, err
	}
	return pub, nil
}
