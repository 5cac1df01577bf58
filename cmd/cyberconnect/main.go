package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-cyberconnect"
	"github.com/goliatone/go-cyberconnect/config"
	"github.com/goliatone/go-cyberconnect/provider/google"
)

type App struct {
	config   *config.Config
	bunDB    *bun.DB
	repo     auth.RepositoryManager
	auther   *auth.Auther
	httpAuth *auth.RouteAuthenticator
	verifier auth.FederatedVerifier
	srv      router.Server[*fiber.App]
	logger   *glog.BaseLogger
}

func (a *App) GetLogger(name string) glog.Logger {
	return a.logger.GetLogger(name)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logger: newLogger(cfg.Debug),
	}

	if cfg.Debug {
		fmt.Println("============")
		fmt.Println(print.MaybeHighlightJSON(redacted(cfg)))
		fmt.Println("============")
	}

	ctx := context.Background()

	if err := WithPersistence(ctx, app); err != nil {
		app.GetLogger("app").Error("persistence setup failed", "error", err)
		os.Exit(1)
	}

	if err := WithAuth(ctx, app); err != nil {
		app.GetLogger("app").Error("auth setup failed", "error", err)
		os.Exit(1)
	}

	WithHTTPServer(app)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
		app.GetLogger("http").Info("listening", "addr", addr)
		if err := app.srv.Serve(addr); err != nil {
			app.GetLogger("http").Error("server stopped", "error", err)
		}
	}()

	sig := WaitExitSignal()
	app.GetLogger("app").Info("shutting down", "signal", sig.String())
	Shutdown(app)
}

func newLogger(debug bool) *glog.BaseLogger {
	if debug {
		return glog.NewLogger(
			glog.WithLoggerTypePretty(),
			glog.WithLevel(glog.Trace),
			glog.WithName("cyberconnect"),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	}
	return glog.NewLogger(
		glog.WithName("cyberconnect"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
}

func redacted(cfg *config.Config) config.Config {
	out := *cfg
	if out.JWTSecret != "" {
		out.JWTSecret = "********"
	}
	return out
}

func WithPersistence(ctx context.Context, app *App) error {
	cfg := app.config.Persistence()

	sqldb, dialect, err := auth.OpenSQL(cfg.GetDSN())
	if err != nil {
		return err
	}

	persistence.RegisterModel((*auth.User)(nil))
	persistence.RegisterModel((*auth.ActionLog)(nil))

	client, err := persistence.New(cfg, sqldb, dialect)
	if err != nil {
		_ = sqldb.Close()
		return err
	}
	client.SetLogger(app.GetLogger("persistence"))

	db := client.DB()
	if err := auth.PrepareDatabase(db); err != nil {
		_ = db.Close()
		return err
	}

	if err := auth.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	app.bunDB = db
	app.repo = auth.NewRepositoryManager(db)
	app.repo.MustValidate()

	return nil
}

func WithAuth(ctx context.Context, app *App) error {
	cfg := app.config

	tokens, err := auth.NewTokenService(auth.TokenConfig{
		SigningKey: cfg.JWTSecret,
		Issuer:     cfg.JWTIssuer,
		Audience:   cfg.JWTAudience,
	}, auth.WithTokenLogger(app.GetLogger("tokens")))
	if err != nil {
		return err
	}

	opts := []auth.AutherOption{
		auth.WithLogger(app.GetLogger("auth")),
		auth.WithPasswordHasher(auth.NewBcryptHasher(cfg.BcryptCost)),
		auth.WithActivitySink(auth.NewActionLogSink(app.repo.ActionLogs())),
		auth.WithActionLogs(app.repo.ActionLogs()),
	}

	if cfg.FederatedLoginEnabled() {
		verifier, err := google.New(cfg.GoogleVerifier, google.Config{
			ClientID: cfg.GoogleClientID,
			Timeout:  cfg.GoogleTimeout,
			Logger:   app.GetLogger("google"),
		})
		if err != nil {
			return err
		}
		app.verifier = verifier
		opts = append(opts, auth.WithFederatedVerifier(verifier))
	} else {
		app.GetLogger("auth").Warn("google client id not set, federated login disabled")
	}

	auther, err := auth.NewAuthenticator(app.repo.Users(), tokens, opts...)
	if err != nil {
		return err
	}
	app.auther = auther

	httpAuth, err := auth.NewHTTPAuthenticator(auther)
	if err != nil {
		return err
	}
	app.httpAuth = httpAuth.WithLogger(app.GetLogger("http"))

	return nil
}

func WithHTTPServer(app *App) {
	srv := router.NewFiberAdapter(func(*fiber.App) *fiber.App {
		a := fiber.New(fiber.Config{
			AppName:      "CyberConnect",
			ErrorHandler: app.httpAuth.FiberErrorHandler,
		})
		a.Use(recover.New())
		a.Use(logger.New())
		a.Use(cors.New(cors.Config{
			AllowOrigins: app.config.ClientURL,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
			AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		}))
		return router.DefaultFiberOptions(a)
	})

	srv.Router().WithLogger(app.GetLogger("router"))

	srv.Router().Get("/", auth.Welcome).SetName("welcome")

	auth.RegisterUserRoutes(srv.Router(), auth.NewUserController(
		app.auther,
		app.httpAuth,
		auth.WithControllerLogger(app.GetLogger("users")),
	))

	app.srv = srv
}

func Shutdown(app *App) {
	lgr := app.GetLogger("app")

	if app.srv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), app.config.ShutdownTimeout)
		defer cancel()
		if err := app.srv.Shutdown(ctx); err != nil {
			lgr.Error("http shutdown failed", "error", err)
		}
	}

	if app.auther != nil {
		app.auther.WaitActivity()
	}

	if closer, ok := app.verifier.(interface{ Close() }); ok {
		closer.Close()
	}

	if app.bunDB != nil {
		if err := app.bunDB.Close(); err != nil {
			lgr.Error("database close failed", "error", err)
		}
	}
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
