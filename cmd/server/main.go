package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-passwordless"
	"github.com/goliatone/go-passwordless/activitymap"
	"github.com/goliatone/go-passwordless/config"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/sirupsen/logrus"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	lgr := newLogrus(cfg.Log)
	lgr.Debugf("app config: %s", print.MaybePrettyJSON(cfg.App))

	logger := passwordless.NewLogger(lgr, logrus.Fields{"app": cfg.App.Name})

	client, err := passwordless.NewPersistenceClient(cfg.Database)
	if err != nil {
		lgr.WithError(err).Fatal("failed to open database")
	}
	db := client.DB()
	defer db.Close()

	if cfg.Database.Migrate {
		if err := passwordless.RunMigrations(ctx, db, lgr); err != nil {
			lgr.WithError(err).Fatal("failed to run migrations")
		}
	}

	repo := passwordless.NewRepositoryManager(db)
	if err := repo.Validate(); err != nil {
		lgr.WithError(err).Fatal("invalid repository setup")
	}

	notifier := newNotifier(cfg, logger)
	activity := newActivitySink(cfg, lgr)

	sessions := passwordless.NewSessionManager(repo, cfg,
		passwordless.WithSessionLogger(logger),
	)

	opts := []passwordless.HandlerOption{
		passwordless.WithLogger(logger),
		passwordless.WithActivitySink(activity),
		passwordless.WithHashidUserIDs(cfg.Auth.HashidUserIDs),
	}

	authController := passwordless.NewAuthController(
		cfg,
		passwordless.NewSignUpHandler(repo, notifier, cfg, opts...),
		passwordless.NewResendSignUpEmailHandler(repo, notifier, cfg, opts...),
		passwordless.NewSignInHandler(repo, notifier, cfg, opts...),
		passwordless.NewVerifyEmailHandler(repo, sessions, cfg, opts...),
		sessions,
		passwordless.WithAuthControllerLogger(logger),
		passwordless.WithAuthControllerActivity(activity),
	)

	middleware := passwordless.NewSessionMiddleware(sessions, cfg)
	middleware.Logger = logger

	usersController := passwordless.NewUsersController(
		cfg,
		repo,
		middleware,
		passwordless.NewUserUpdateHandler(repo, opts...),
		passwordless.NewUserDeleteHandler(repo, opts...),
		passwordless.NewCreatePostHandler(repo, opts...),
		passwordless.WithUsersControllerLogger(logger),
	)

	srv := router.NewFiberAdapter(func(a *fiber.App) *fiber.App {
		return router.DefaultFiberOptions(fiber.New(fiber.Config{
			UnescapePath:      true,
			EnablePrintRoutes: cfg.App.Env == "development",
			StrictRouting:     false,
		}))
	})

	app := srv.Router()
	authController.RegisterRoutes(app)
	usersController.RegisterRoutes(app)

	app.Get("/", func(ctx router.Context) error {
		return ctx.JSON(router.StatusOK, map[string]any{
			"name":   cfg.App.Name,
			"viewer": passwordless.ViewerID(ctx),
		})
	}, middleware.LoadSession())

	go func() {
		lgr.Infof("listening on %s", cfg.Addr())
		if err := srv.Serve(cfg.Addr()); err != nil {
			lgr.WithError(err).Fatal("server stopped")
		}
	}()

	sig := WaitExitSignal()
	lgr.Infof("received %s, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lgr.WithError(err).Error("shutdown failed")
	}
}

func newLogrus(cfg config.LogConfig) *logrus.Logger {
	lgr := logrus.New()
	lgr.SetOutput(os.Stdout)

	if cfg.Format == "json" {
		lgr.SetFormatter(&logrus.JSONFormatter{})
	} else {
		lgr.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	lgr.SetLevel(level)

	return lgr
}

func newNotifier(cfg *config.BaseConfig, logger passwordless.Logger) passwordless.Notifier {
	if !cfg.SMTP.Enabled {
		logger.Warn("smtp disabled, verification links are only logged")
		return passwordless.NewLogNotifier(logger)
	}

	return passwordless.NewSMTPNotifier(passwordless.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, cfg.GetClaimTTL(), passwordless.WithNotifierLogger(logger))
}

func newActivitySink(cfg *config.BaseConfig, lgr *logrus.Logger) passwordless.ActivitySink {
	opts := []activitymap.Option{activitymap.WithChannel(cfg.App.Name)}
	if cfg.App.Env == "production" {
		opts = append(opts, activitymap.WithRedactedEmail())
	}

	return activitymap.Sink(func(ctx context.Context, record activitymap.Record) error {
		lgr.WithFields(record.Fields()).Info("activity")
		return nil
	}, opts...)
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
