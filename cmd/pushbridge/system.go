package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/pushbridge/internal/api"
	"github.com/mattjoyce/pushbridge/internal/events"
	"github.com/mattjoyce/pushbridge/internal/lock"
	"github.com/mattjoyce/pushbridge/internal/log"
	"github.com/mattjoyce/pushbridge/internal/webhook"
)

func runSystemNoun(args []string) int {
	if len(args) < 1 {
		printNounHelp(os.Stderr, "system", "start", "status")
		return 1
	}
	if isHelpToken(args[0]) {
		printNounHelp(os.Stdout, "system", "start", "status")
		return 0
	}

	action, actionArgs := args[0], args[1:]
	switch action {
	case "start":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: pushbridge system start [--config PATH]")
			fmt.Println("Run the webhook receiver in the foreground.")
			return 0
		}
		return runStart(actionArgs)
	case "status":
		if hasHelpFlag(actionArgs) {
			fmt.Println("Usage: pushbridge system status [--config PATH] [--json]")
			fmt.Println("Show config, database readiness, and PID lock state.")
			fmt.Println("")
			fmt.Println("Exit codes:")
			fmt.Println("  0  All required checks passed")
			fmt.Println("  1  One or more checks failed")
			return 0
		}
		return runSystemStatus(actionArgs)
	default:
		fmt.Fprintf(os.Stderr, "Unknown system action: %s\n", action)
		return 1
	}
}

func runStart(args []string) int {
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	cfg, resolved, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel, cfg.Service.LogFormat)
	logger := log.WithComponent("main")
	logger.Info("pushbridge starting", "version", version, "config", resolved)

	pidLockPath := lock.PathFor(cfg.State.Path)
	pidLock, err := lock.AcquirePIDLock(pidLockPath)
	if err != nil {
		logger.Error("failed to acquire PID lock (another instance may be running)", "path", pidLockPath, "error", err)
		return 1
	}
	defer pidLock.Release()
	logger.Info("acquired PID lock", "path", pidLockPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg)
	if err != nil {
		logger.Error("failed to open database", "path", cfg.State.Path, "error", err)
		return 1
	}
	defer st.Close()
	logger.Info("database opened", "path", cfg.State.Path)

	if pruned, err := st.deliveries.Prune(ctx, cfg.Service.DeliveryRetention); err != nil {
		logger.Warn("failed to prune delivery log", "error", err)
	} else if pruned > 0 {
		logger.Info("pruned delivery log", "rows", pruned, "retention", cfg.Service.DeliveryRetention)
	}

	webhookConfig, err := webhook.FromGlobalConfig(&cfg.Webhook)
	if err != nil {
		logger.Error("failed to configure webhook receiver", "error", err)
		return 1
	}
	hub := events.NewHub(eventBufferSize)
	server := webhook.New(webhookConfig, st.feeds, st.feeds.Notifier(), log.WithComponent("webhook")).
		WithRecorder(webhook.MultiRecorder{st.deliveries, hub})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Start(gctx) })
	if cfg.API.Listen != "" {
		apiServer := api.New(api.FromGlobalConfig(&cfg.API), st.feeds, st.deliveries, hub, log.WithComponent("api"))
		g.Go(func() error { return apiServer.Start(gctx) })
	}

	logger.Info("pushbridge running (press Ctrl+C to stop)")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("pushbridge failed", "error", err)
		return 1
	}

	logger.Info("pushbridge stopped")
	return 0
}

// eventBufferSize is how many delivery events late /events clients can replay.
const eventBufferSize = 256

type statusReport struct {
	Config   string `json:"config"`
	Database string `json:"database"`
	Feeds    int    `json:"feeds"`
	Running  bool   `json:"running"`
	PID      int    `json:"pid,omitempty"`
	Listen   string `json:"listen"`
	API      string `json:"api,omitempty"`
	Healthy  bool   `json:"healthy"`
	Error    string `json:"error,omitempty"`
}

func runSystemStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to configuration file or directory")
	jsonOut := fs.Bool("json", false, "Output status as JSON")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to parse flags: %v\n", err)
		return 1
	}

	report := statusReport{}
	code := collectStatus(*configPath, &report)

	if *jsonOut {
		if err := printJSON(report); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to render status JSON: %v\n", err)
			return 1
		}
		return code
	}

	fmt.Printf("config:   %s\n", report.Config)
	fmt.Printf("database: %s\n", report.Database)
	fmt.Printf("feeds:    %d\n", report.Feeds)
	if report.API != "" {
		fmt.Printf("api:      %s\n", report.API)
	}
	if report.Running {
		fmt.Printf("receiver: running (pid %d) on %s\n", report.PID, report.Listen)
	} else {
		fmt.Println("receiver: not running")
	}
	if report.Error != "" {
		fmt.Printf("error:    %s\n", report.Error)
	}
	if report.Healthy {
		fmt.Println("Status: HEALTHY")
	} else {
		fmt.Println("Status: UNHEALTHY")
	}
	return code
}

func collectStatus(configPath string, report *statusReport) int {
	cfg, resolved, err := loadConfig(configPath)
	report.Config = resolved
	if err != nil {
		report.Error = err.Error()
		return 1
	}
	report.Database = cfg.State.Path
	report.Listen = cfg.Webhook.Listen
	report.API = cfg.API.Listen

	pid, held, err := lock.Status(lock.PathFor(cfg.State.Path))
	if err != nil {
		report.Error = err.Error()
		return 1
	}
	report.Running = held
	if held {
		report.PID = pid
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		report.Error = err.Error()
		return 1
	}
	defer st.Close()

	feeds, err := st.feeds.List(ctx)
	if err != nil {
		report.Error = err.Error()
		return 1
	}
	report.Feeds = len(feeds)
	report.Healthy = true
	return 0
}
