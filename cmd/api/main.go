package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"printshop-commerce/internal/config"
	"printshop-commerce/internal/db"
	"printshop-commerce/internal/httpserver"
	"printshop-commerce/internal/migrate"
	"printshop-commerce/internal/repository/session"
	"printshop-commerce/internal/repository/store"
	anonymoussvc "printshop-commerce/internal/service/anonymous"
	cartsvc "printshop-commerce/internal/service/cart"
	checkoutsvc "printshop-commerce/internal/service/checkout"
	customersvc "printshop-commerce/internal/service/customer"
	offersvc "printshop-commerce/internal/service/offer"
	productsvc "printshop-commerce/internal/service/product"
)

func main() {
	cfg := config.FromEnv()
	logger, err := config.NewLogger(cfg.LogLevel, "api")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect to db", zap.Error(err))
	}
	defer dbpool.Close()

	if err := migrate.Check(ctx, dbpool); err != nil {
		logger.Fatal("schema check failed, run cmd/migrate first", zap.Error(err))
	}

	sessions, closeSessions := sessionStore(ctx, cfg, dbpool, logger)
	defer closeSessions()

	st := store.NewPostgres(dbpool, logger.Named("store"))
	offerService := offersvc.New(logger.Named("offer"))
	cartService := cartsvc.New(st, offerService, cfg.Currency, logger.Named("cart"))
	checkoutService := checkoutsvc.New(st, offerService, checkoutsvc.Config{
		OrderPrefix:    cfg.OrderPrefix,
		EstimatePrefix: cfg.EstimatePrefix,
		SequenceStart:  cfg.SequenceStart,
		LockTimeout:    cfg.SequenceLockTimeout,
		Location:       cfg.Location,
		Currency:       cfg.Currency,
	}, logger.Named("checkout"))
	tokens := customersvc.NewTokenManager(cfg.AuthSecret, cfg.AccessTokenTTL)
	customerService := customersvc.New(st, tokens, cartService, logger.Named("customer"))
	anonymousService := anonymoussvc.New(sessions, cfg.AnonymousSessionTTL, logger.Named("anonymous"))

	srv, err := httpserver.New(cfg.HTTPAddr, logger, httpserver.Deps{
		CatalogSvc:   productsvc.New(st),
		CartSvc:      cartService,
		DocumentSvc:  checkoutService,
		CustomerSvc:  customerService,
		AnonymousSvc: anonymousService,
		DB:           dbpool,
	}, httpserver.Options{
		CORSOrigins:        cfg.CORSOrigins,
		OfferRatePerMinute: cfg.OfferRatePerMinute,
	})
	if err != nil {
		logger.Fatal("init server", zap.Error(err))
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting http server", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	case err := <-serverErr:
		logger.Error("server error", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	} else {
		logger.Info("server stopped")
	}
}

// sessionStore picks Redis when REDIS_ADDR is set and the anonymous_sessions table
// otherwise.
func sessionStore(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, logger *zap.Logger) (anonymoussvc.SessionStore, func()) {
	if cfg.RedisAddr == "" {
		pgSessions := session.NewPostgres(pool, logger.Named("session"))
		if _, err := pgSessions.Purge(ctx); err != nil {
			logger.Warn("purge expired sessions", zap.Error(err))
		}
		logger.Info("anonymous sessions stored in postgres")
		return pgSessions, func() {}
	}
	redisSessions := anonymoussvc.NewRedisSessions(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisSessions.Ping(ctx); err != nil {
		logger.Fatal("connect to redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
	}
	logger.Info("anonymous sessions stored in redis", zap.String("addr", cfg.RedisAddr))
	return redisSessions, func() {
		if err := redisSessions.Close(); err != nil {
			logger.Warn("close redis", zap.Error(err))
		}
	}
}
