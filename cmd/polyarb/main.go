package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alejandrodnm/polyarb/config"
)

const usage = `usage: polyarb [flags] <command> [args]

commands:
  run                         pipeline loop (default)
  once                        one pipeline run, prints what was queued
  serve                       HTTP API plus the pipeline loop
  queue [-pending]            list the review queue
  approve|reject|reopen <id>  act on a queue item
  mode [-execution paper|live] [-dry-run true|false] [-trigger auto|manual]
  metrics                     metrics snapshot and recent pipeline runs
  audit [-limit N] [-action A]
  watch                       stream CLOB prices for the scanned markets

flags:
`

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	cmd, args := "run", []string(nil)
	if flag.NArg() > 0 {
		cmd, args = flag.Arg(0), flag.Args()[1:]
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(cfg)
	if err != nil {
		slog.Error("failed to start", "err", err)
		os.Exit(1)
	}
	defer a.close()

	slog.Info("polyarb starting", "config", *configPath, "command", cmd, "storage", cfg.Storage.DSN)

	if err := dispatch(ctx, a, cmd, args); err != nil {
		slog.Error("command failed", "command", cmd, "err", err)
		a.close()
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, a *app, cmd string, args []string) error {
	switch cmd {
	case "run":
		return runLoop(ctx, a)
	case "once":
		return runOnce(ctx, a)
	case "serve":
		return serve(ctx, a)
	case "queue":
		return listQueue(ctx, a, args)
	case "approve", "reject", "reopen":
		return actOnItem(ctx, a, cmd, args)
	case "mode":
		return setMode(ctx, a, args)
	case "metrics":
		return showMetrics(ctx, a)
	case "audit":
		return showAudit(ctx, a, args)
	case "watch":
		return watch(ctx, a)
	}
	flag.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
