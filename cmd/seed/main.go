package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"printshop-commerce/internal/config"
	"printshop-commerce/internal/db"
	"printshop-commerce/internal/repository/store"
	"printshop-commerce/internal/seed"
	customersvc "printshop-commerce/internal/service/customer"
)

func main() {
	cfg := config.FromEnv()
	logger, err := config.NewLogger(cfg.LogLevel, "seed")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal("connect db", zap.Error(err))
	}
	defer pool.Close()

	st := store.NewPostgres(pool, logger)
	customers := customersvc.New(st, customersvc.NewTokenManager(cfg.AuthSecret, cfg.AccessTokenTTL), nil, logger)
	staff := seed.Staff{
		Email:    os.Getenv("SEED_STAFF_EMAIL"),
		Password: os.Getenv("SEED_STAFF_PASSWORD"),
	}
	if err := seed.Apply(ctx, st, customers, staff, logger); err != nil {
		logger.Fatal("seed apply", zap.Error(err))
	}

	logger.Info("seed applied")
}
