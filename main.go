package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onestay/MarathonRegistry-API/api"
	"github.com/onestay/MarathonRegistry-API/api/common"
	"github.com/onestay/MarathonRegistry-API/api/store"
	"github.com/onestay/MarathonRegistry-API/logger"
	"github.com/onestay/MarathonRegistry-API/ws"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const connectTimeout = 15 * time.Second

func main() {
	cfg, err := common.LoadConfig()
	if err != nil {
		logger.New("info").Fatal("loading config", zap.Error(err))
	}

	log := logger.New(cfg.LogLevel)
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *common.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	mgs, err := store.Connect(connectCtx, cfg.DBURI, cfg.DBName)
	cancel()
	if err != nil {
		return err
	}
	log.Info("connected to database", zap.String("db", cfg.DBName))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := mgs.Close(closeCtx); err != nil {
			log.Warn("disconnecting from database", zap.Error(err))
		}
	}()

	hub := ws.NewHub(log)
	var feed common.Publisher = hub
	var relay *ws.Relay
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		relay = ws.NewRelay(rdb, cfg.FeedChannel, hub, log)
		feed = relay
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hub.Run(ctx)
		return nil
	})
	if relay != nil {
		g.Go(func() error { return relay.Run(ctx) })
	}

	base := common.NewController(mgs, feed, log)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           api.NewRouter(base, hub),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Info("server running", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
