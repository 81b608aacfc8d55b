// Package server wires configuration, storage, services and transports
// into the running NoteSnap account service.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/notesnap/internal/logging"
	"github.com/dmitrijs2005/notesnap/internal/server/auth"
	"github.com/dmitrijs2005/notesnap/internal/server/config"
	"github.com/dmitrijs2005/notesnap/internal/server/mailer"
	"github.com/dmitrijs2005/notesnap/internal/server/models"
	"github.com/dmitrijs2005/notesnap/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/notesnap/internal/server/rest"
	"github.com/dmitrijs2005/notesnap/internal/server/services"
	"github.com/dmitrijs2005/notesnap/internal/server/storage"

	gs "github.com/dmitrijs2005/notesnap/internal/server/grpc"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	users       *services.UserService

	httpServer *rest.Server
	grpcServer *gs.GRPCServer
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open(repomanager.DriverName, dsn)
}

func NewApp(c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.Debug)
	if err != nil {
		return nil, err
	}

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return newApp(c, logger, db, rm), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager) *App {
	ml := mailer.New(c.Email, logger)

	verification := services.NewVerificationService(db, rm, c, ml, logger)
	users := services.NewUserService(db, rm, c, verification, logger)
	health := services.NewHealthService(db, rm)

	handler := rest.NewHandler(rest.Services{
		Users:         users,
		Verification:  verification,
		PasswordReset: services.NewPasswordResetService(db, rm, c, ml, logger),
		Profile:       services.NewProfileService(db, rm, c, storage.NewS3Storage(c.S3), logger),
		OAuth:         services.NewOAuthService(db, rm, c, auth.NewRegistry(c.OAuth, c.APIBaseURL), users, logger),
		Health:        health,
	}, c, logger)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		users:       users,
		httpServer:  rest.NewServer(c.HTTPAddr, rest.NewRouter(handler, logger), logger),
		grpcServer:  gs.NewGRPCServer(c.GRPCAddr, logger, health),
	}
}

// Migrate applies pending schema migrations.
func (app *App) Migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// CreateUser adds a user with a verified email, bypassing the signup flow.
func (app *App) CreateUser(ctx context.Context, name, email, password string) (*models.User, error) {
	return app.users.CreateUser(ctx, name, email, password)
}

// Close releases the database pool and flushes buffered logs.
func (app *App) Close() error {
	err := app.db.Close()
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return err
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run applies migrations and serves HTTP and gRPC until ctx is cancelled,
// a termination signal arrives or one of the servers fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := func(name string, run func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := run(ctx); err != nil {
				app.logger.Error(ctx, "server failed", "server", name, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				mu.Unlock()
				cancelFunc()
			}
		}()
	}

	start("http", app.httpServer.Run)
	start("grpc", app.grpcServer.Run)

	wg.Wait()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")

	return errors.Join(errs...)
}
