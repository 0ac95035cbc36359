package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/flownco2789-ui/codeai/pkg/config"
	"github.com/flownco2789-ui/codeai/pkg/database"
	"github.com/flownco2789-ui/codeai/pkg/logger"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down|status|version]")
	}
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx := context.Background()
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	migrator, err := database.NewMigrator(db.DB, logr)
	if err != nil {
		logr.Fatal("failed to init migrator", zap.Error(err))
	}

	switch command {
	case "up":
		err = migrator.Up(ctx)
	case "down":
		err = migrator.Down(ctx)
	case "status":
		err = migrator.Status(ctx)
	case "version":
		var version int64
		version, err = migrator.Version(ctx)
		if err == nil {
			fmt.Println(version)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logr.Fatal("migration command failed", zap.String("command", command), zap.Error(err))
	}
}
