package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/lekhapadi/lekhapadi-backend/pkg/config"
	"github.com/lekhapadi/lekhapadi-backend/pkg/db"
	"github.com/lekhapadi/lekhapadi-backend/pkg/logger"
	"github.com/lekhapadi/lekhapadi-backend/pkg/migrate"
)

func main() {
	cmd := flag.String("cmd", "up", "up|down|status|to|create|validate")
	dir := flag.String("dir", "", "read migrations from this directory instead of the embedded set")
	name := flag.String("name", "", "migration name for -cmd=create")
	target := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=to")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "migrate"})
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithField(ctx, "cmd", *cmd)

	// create and validate work on files only
	switch *cmd {
	case "create":
		if *name == "" {
			fail(ctx, logg, "missing -name for create", nil)
		}
		out := *dir
		if out == "" {
			out = migrate.SourceDir
		}
		path, err := migrate.Create(out, *name, time.Now())
		if err != nil {
			fail(ctx, logg, "create migration", err)
		}
		logg.Info(logg.WithField(ctx, "path", path), "migration created")
		return
	case "validate":
		if err := migrate.Validate(migrate.Source(*dir)); err != nil {
			fail(ctx, logg, "migration validation failed", err)
		}
		logg.Info(ctx, "migrations valid")
		return
	}

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		fail(ctx, logg, "load config", err)
	}
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		fail(ctx, logg, "connect database", err)
	}
	defer dbClient.Close()

	sqlDB, err := dbClient.DB().DB()
	if err != nil {
		fail(ctx, logg, "extract sql.DB", err)
	}
	runner, err := migrate.NewRunner(sqlDB, migrate.Source(*dir))
	if err != nil {
		fail(ctx, logg, "build migration runner", err)
	}

	var steps []migrate.Step
	switch *cmd {
	case "up":
		steps, err = runner.Up(ctx)
	case "down":
		steps, err = runner.Down(ctx)
	case "to":
		if *target == "" {
			fail(ctx, logg, "missing -version for to", nil)
		}
		steps, err = runner.To(ctx, *target)
	case "status":
		var rows []migrate.Status
		rows, err = runner.Status(ctx)
		for _, row := range rows {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"version": row.Version,
				"path":    row.Path,
				"applied": row.Applied,
			}), "migration")
		}
	default:
		fail(ctx, logg, "unknown -cmd value "+*cmd, nil)
	}
	for _, step := range steps {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"version":   step.Version,
			"path":      step.Path,
			"direction": step.Direction,
		}), "migration applied")
	}
	if err != nil {
		fail(ctx, logg, "migration failed", err)
	}
	logg.Info(logg.WithField(ctx, "steps", len(steps)), "migrate finished")
}

func fail(ctx context.Context, logg *logger.Logger, msg string, err error) {
	logg.Error(ctx, msg, err)
	os.Exit(1)
}
