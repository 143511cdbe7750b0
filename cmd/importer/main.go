package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"printshop-commerce/internal/config"
	"printshop-commerce/internal/db"
	"printshop-commerce/internal/importer"
	"printshop-commerce/internal/repository/store"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to the catalog CSV (products, rolls and roll assignments)")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger, err := config.NewLogger(cfg.LogLevel, "importer")
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

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal("open file", zap.Error(err))
	}
	defer f.Close()

	start := time.Now()
	var sum importer.Summary
	err = store.NewPostgres(pool, logger).InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		sum, err = importer.NewCSVImporter(f).Run(ctx, tx.Catalog())
		return err
	})
	if err != nil {
		logger.Fatal("import failed", zap.String("file", filePath), zap.Error(err))
	}

	fmt.Printf("Imported %d products, %d rolls and %d roll assignments in %s\n",
		sum.Products, sum.Rolls, sum.Assignments, time.Since(start).Truncate(time.Millisecond))
}
