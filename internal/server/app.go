// Package server wires configuration, storage, messaging and the HTTP layer
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/celengan/internal/logging"
	"github.com/dmitrijs2005/celengan/internal/server/config"
	"github.com/dmitrijs2005/celengan/internal/server/events"
	"github.com/dmitrijs2005/celengan/internal/server/identity"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/celengan/internal/server/rest"
	"github.com/dmitrijs2005/celengan/internal/server/services"
)

type publisher interface {
	services.PostingPublisher
	Close() error
}

var (
	openDB = repomanager.OpenDB

	dialPublisher = func(url, queue string, l logging.Logger) (publisher, error) {
		return events.Dial(url, queue, l)
	}
)

type App struct {
	config    *config.Config
	logger    logging.Logger
	db        *sql.DB
	publisher publisher
	server    *rest.Server
}

// NewApp opens the database, applies migrations, connects the optional
// event publisher and builds the HTTP server.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(logging.NewSlog(os.Stdout, logging.SlogConfig{
		Level:  c.LogLevel,
		Format: c.LogFormat,
	}))

	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	var pub publisher = events.NopPublisher{}
	if c.AMQPURL != "" {
		pub, err = dialPublisher(c.AMQPURL, c.AMQPQueue, logger.With("module", "events"))
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("event publisher init error: %w", err)
		}
	}

	return newApp(c, logger, db, rm, pub), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager, pub publisher) *App {
	svc := rest.Services{
		Users:        services.NewUserService(db, rm, c),
		Goals:        services.NewGoalService(db, rm, logger.With("module", "goals")),
		Transactions: services.NewTransactionService(db, rm, pub, logger.With("module", "transactions")),
		Avatars:      services.NewAvatarService(db, rm, c),
		Verifier:     identity.NewFirebaseVerifier(c.FirebaseProjectID, c.FirebaseCertsURL, nil),
	}

	return &App{
		config:    c,
		logger:    logger,
		db:        db,
		publisher: pub,
		server:    rest.NewServer(c, logger, svc),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
		return err
	}
	return nil
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and broker connections.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup
	var runErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		runErr = app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.publisher.Close(); err != nil {
		app.logger.Warn(ctx, "failed to close event publisher", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "failed to close database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	return runErr
}
