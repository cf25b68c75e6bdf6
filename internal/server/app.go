// Package server initializes and runs the account server application.
// It wires the configuration, storage backend, account service and HTTP
// server together and handles graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/dmpavlov/userkeeper/internal/logging"
	"github.com/dmpavlov/userkeeper/internal/server/config"
	"github.com/dmpavlov/userkeeper/internal/server/httpapi"
	"github.com/dmpavlov/userkeeper/internal/server/migrations"
	"github.com/dmpavlov/userkeeper/internal/server/repositories/accounts"
	"github.com/dmpavlov/userkeeper/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	service *services.AccountService
	db      *sql.DB
}

// NewApp builds the application from config. An empty DatabaseDSN selects
// the in-memory repository, anything else is treated as a Postgres DSN and
// the schema migrations run before the server accepts traffic.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	var repo accounts.Repository
	var db *sql.DB

	if cfg.DatabaseDSN == "" {
		logger.Warn(ctx, "No database DSN configured, using in-memory storage")
		repo = accounts.NewMemoryRepository()
	} else {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}

		if err := runMigrations(ctx, db); err != nil {
			return nil, fmt.Errorf("db migration error: %w", err)
		}

		repo = accounts.NewPostgresRepository(db)
	}

	service, err := services.NewAccountService(repo, logger, cfg)
	if err != nil {
		return nil, fmt.Errorf("service init error: %w", err)
	}

	return &App{config: cfg, logger: logger, service: service, db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
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

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.service, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err.Error())
		}
	}
}
