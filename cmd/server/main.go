package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prathamisonline/multiseller-ecom-sub001/internal/config"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/db"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/httpapi"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/logger"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/middleware"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/seller"
	"github.com/prathamisonline/multiseller-ecom-sub001/internal/user"

	"go.uber.org/zap"
)

var (
	initDBFunc      = db.NewDatabase
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server exited", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, err := newServer(ctx, cfg, database)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.L().Info("server running", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
	if err := startServerFunc(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newServer(ctx context.Context, cfg *config.Config, database *sql.DB) (http.Handler, error) {
	tokens, err := user.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	users := user.NewService(user.NewRepository(database), tokens)
	sellers := seller.NewService(seller.NewRepository(database))

	pages, err := httpapi.NewPages(cfg.FrontendURL)
	if err != nil {
		return nil, err
	}

	limiter := middleware.NewLimiter(middleware.LimitAuth, middleware.BurstAuth)
	go limiter.Cleanup(ctx, 0)
	writeLimiter := middleware.NewLimiter(middleware.LimitWrite, middleware.BurstWrite)
	go writeLimiter.Cleanup(ctx, 0)

	return httpapi.NewRouter(httpapi.Deps{
		Users:         users,
		Sellers:       sellers,
		Pages:         pages,
		AuthLimiter:   limiter,
		WriteLimiter:  writeLimiter,
		SecureCookies: cfg.AppEnv == "production",
	}), nil
}
