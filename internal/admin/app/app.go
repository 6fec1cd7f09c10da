package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/metamasonz/backoffice/internal/admin/http"
	"github.com/metamasonz/backoffice/internal/admin/mail"
	"github.com/metamasonz/backoffice/internal/admin/notify"
	"github.com/metamasonz/backoffice/internal/admin/service"
	"github.com/metamasonz/backoffice/internal/admin/store"
	"github.com/metamasonz/backoffice/internal/admin/store/drivers/sqlite"
	"github.com/metamasonz/backoffice/pkg/jwtx"
	"github.com/metamasonz/backoffice/pkg/slogx"
)

// BuildVersion should be set at build time via ldflags.
const BuildVersion = "v0.1.0"

// Application wires the admin backend together: store, services, HTTP server,
// and the background sweeper.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db   store.Store
	hub  *notify.Hub
	mail mail.Dispatcher

	accountService    *service.AccountService
	sessionService    *service.SessionService
	inviteService     *service.InviteService
	submissionService *service.SubmissionService
	sweeperService    *service.SweeperService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "admin-backend",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	ctx := context.Background()

	if err := app.accountService.Seed(slogx.WithContext(ctx, app.logger), service.SeedConfig{
		Name:     app.cfg.SeedName,
		Email:    app.cfg.SeedEmail,
		Password: app.cfg.SeedPassword,
	}); err != nil {
		return fmt.Errorf("bootstrap seed failed: %w", err)
	}

	app.sweeperService.Start(ctx)

	app.logger.Info("admin backend starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully stops the HTTP server, sweeper, and database.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down admin backend...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.sweeperService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("admin backend stopped")
	return nil
}

func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

func (app *Application) initServices() error {
	signer, err := jwtx.NewHS256([]byte(app.cfg.SessionSecret), app.cfg.TokenIssuer)
	if err != nil {
		return err
	}

	if app.cfg.SMTPHost != "" {
		dispatcher, err := mail.NewSMTPDispatcher(mail.SMTPConfig{
			Host:     app.cfg.SMTPHost,
			Port:     app.cfg.SMTPPort,
			Username: app.cfg.SMTPUsername,
			Password: app.cfg.SMTPPassword,
			From:     app.cfg.SMTPFrom,
		}, app.logger)
		if err != nil {
			return err
		}
		app.mail = dispatcher
	} else {
		app.logger.Warn("no SMTP host configured, mail goes to the log")
		app.mail = &mail.LogDispatcher{Logger: app.logger}
	}

	app.hub = notify.NewHub()

	credentials := &service.CredentialService{Store: app.db}

	app.sessionService = &service.SessionService{
		Store:    app.db,
		Signer:   signer,
		Verifier: signer,
		Issuer:   app.cfg.TokenIssuer,
		TokenTTL: app.cfg.SessionTTL,
	}

	app.accountService = &service.AccountService{
		Store:       app.db,
		Credentials: credentials,
		Sessions:    app.sessionService,
	}

	app.inviteService = &service.InviteService{
		Store:    app.db,
		Mail:     app.mail,
		Sessions: app.sessionService,
		TTL:      app.cfg.InviteTTL,
	}

	app.submissionService = &service.SubmissionService{
		Store:  app.db,
		Mail:   app.mail,
		Notify: app.hub,
	}

	app.sweeperService = &service.SweeperService{
		Store:    app.db,
		Interval: app.cfg.SweepInterval,
		Logger:   app.logger,
	}

	return nil
}

func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	router.Accounts = app.accountService
	router.Sessions = app.sessionService
	router.Invites = app.inviteService
	router.Submissions = app.submissionService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
