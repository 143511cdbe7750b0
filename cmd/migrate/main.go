package main

import (
	"context"

	"go.uber.org/zap"

	"printshop-commerce/internal/config"
	"printshop-commerce/internal/db"
	"printshop-commerce/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger, err := config.NewLogger(cfg.LogLevel, "migrate")
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

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal("apply migrations", zap.Error(err))
	}

	logger.Info("migrations applied")
}
