package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/todo-auth/internal/infra/config"
	"github.com/mkrupp/todo-auth/internal/infra/logging"
	"github.com/mkrupp/todo-auth/internal/infra/transport/http"
	"github.com/mkrupp/todo-auth/internal/repo/user"
	"github.com/mkrupp/todo-auth/internal/svc/authsvc"
)

const (
	appName = "todo"
	svcName = "authsvc"
)

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig        `envPrefix:"LOG_"`
	Auth authsvc.AuthConfig          `envPrefix:"AUTH_"`
	HTTP authsvc.HTTPTransportConfig `envPrefix:"HTTP_"`
	User user.RepositoryConfig       `envPrefix:"USER_"`
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(strings.Join([]string{appName, svcName}, "_"))
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.authsvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	repoFactory, err := user.NewRepositoryFactory(cfg.User)
	if err != nil {
		return fmt.Errorf("new user repo factory: %w", err)
	}

	authSvc, err := authsvc.NewAuthService(ctx, repoFactory, cfg.Auth)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	defer func() {
		if closeErr := authSvc.Close(); closeErr != nil {
			log.ErrorContext(ctx, "close auth service", "err", closeErr)
		}
	}()

	httpTransport := authsvc.NewHTTPTransport(authSvc)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
