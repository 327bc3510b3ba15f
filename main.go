package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/puoklam/connectly-backend/auth"
	"github.com/puoklam/connectly-backend/db"
	"github.com/puoklam/connectly-backend/env"
	"github.com/puoklam/connectly-backend/friends"
	"github.com/puoklam/connectly-backend/logging"
	"github.com/puoklam/connectly-backend/mq"
	"github.com/puoklam/connectly-backend/recommend"
	"github.com/puoklam/connectly-backend/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "connectly:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := env.Load()
	if err != nil {
		return err
	}
	logging.Init(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	logger := logging.WithComponent("main")

	conn, err := db.Open(cfg.Database, logging.WithComponent("db"))
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			logger.Warn().Err(err).Msg("close database")
		}
	}()
	logger.Info().Str("driver", cfg.Database.Driver).Msg("connected to database")

	publisher, err := mq.New(cfg.Events, logging.Logger())
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn().Err(err).Msg("close publisher")
		}
	}()

	store := db.NewStore(conn)
	tokens := auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	engine, err := recommend.NewEngine(store, recommend.Config{Limit: cfg.Recommend.Limit}, logging.Logger())
	if err != nil {
		return err
	}

	handler := server.NewRouter(server.Deps{
		Config:  cfg,
		Logger:  logging.WithComponent("http"),
		Store:   store,
		Auth:    auth.NewService(store, tokens, cfg.Auth.BcryptCost, logging.Logger()),
		Friends: friends.NewService(store, publisher, logging.Logger()),
		Engine:  engine,
		Ping: func(ctx context.Context) error {
			return db.Ping(ctx, conn)
		},
	})
	srv := server.New(handler, cfg.Server)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
