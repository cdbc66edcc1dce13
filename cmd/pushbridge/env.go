package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mattjoyce/pushbridge/internal/config"
	"github.com/mattjoyce/pushbridge/internal/delivery"
	"github.com/mattjoyce/pushbridge/internal/engine"
	"github.com/mattjoyce/pushbridge/internal/feed"
	"github.com/mattjoyce/pushbridge/internal/log"
	"github.com/mattjoyce/pushbridge/internal/storage"
	"github.com/mattjoyce/pushbridge/internal/superfeedr"
)

// loadConfig loads configPath, discovering a location when it is empty.
func loadConfig(configPath string) (*config.Config, string, error) {
	if configPath == "" {
		discovered, err := config.DiscoverConfigDir()
		if err != nil {
			return nil, "", fmt.Errorf("failed to discover config: %w", err)
		}
		configPath = discovered
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, configPath, err
	}
	return cfg, configPath, nil
}

// toolLogger keeps command output on stdout clean by logging to stderr.
func toolLogger(cfg *config.Config, component string) *slog.Logger {
	return log.New(os.Stderr, cfg.Service.LogLevel, "text").With("component", component)
}

// stores bundles the SQLite-backed stores used by commands.
type stores struct {
	db         *sql.DB
	feeds      *feed.Store
	deliveries *delivery.Store
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	db, err := storage.OpenSQLite(ctx, cfg.State.Path)
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", cfg.State.Path, err)
	}
	return &stores{
		db:         db,
		feeds:      feed.NewStore(db),
		deliveries: delivery.NewStore(db),
	}, nil
}

func (s *stores) Close() error { return s.db.Close() }

func newEngine(cfg *config.Config) (*engine.Engine, error) {
	if err := cfg.Superfeedr.RequireCredentials(); err != nil {
		return nil, err
	}
	client, err := superfeedr.New(superfeedr.FromGlobalConfig(&cfg.Superfeedr), nil, toolLogger(cfg, "superfeedr"))
	if err != nil {
		return nil, err
	}
	return engine.New(client, toolLogger(cfg, "engine")), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func printResponse(res *superfeedr.Response) error {
	switch {
	case res == nil:
		return nil
	case res.Data != nil:
		return printJSON(res.Data)
	case len(res.Body) > 0:
		fmt.Println(string(res.Body))
	default:
		fmt.Printf("HTTP %d\n", res.StatusCode)
	}
	return nil
}
